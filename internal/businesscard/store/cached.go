package store

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"smpserver/internal/businesscard/models"
	"smpserver/internal/identifier"
	sgmodels "smpserver/internal/servicegroup/models"
)

// Backing is the full store contract wrapped by Cached.
type Backing interface {
	FindByServiceGroup(ctx context.Context, sg *sgmodels.ServiceGroup) (*models.BusinessCard, error)
	FindByKey(ctx context.Context, key string) (*models.BusinessCard, error)
	Upsert(ctx context.Context, sg *sgmodels.ServiceGroup, entities []models.Entity) (*models.BusinessCard, error)
	Delete(ctx context.Context, card *models.BusinessCard) error
	DeleteByServiceGroup(ctx context.Context, sg *sgmodels.ServiceGroup) error
}

// ByteCache is implemented by cache.RedisCache and cache.MemoryCache.
type ByteCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Cached is a read-through decorator. Entries are invalidated after every write
// instead of being refreshed, so a failed write never leaves stale data cached.
// Cache errors degrade to the backing store.
//
// A read that started before a write must not fill the cache after that write
// invalidated it. Writers bump generation under the write lock before
// invalidating; fills compare and set under the read lock.
type Cached struct {
	next    Backing
	cache   ByteCache
	factory *identifier.Factory
	ttl     time.Duration
	logger  *slog.Logger

	mu         sync.RWMutex
	generation uint64
}

func NewCached(next Backing, cache ByteCache, factory *identifier.Factory, ttl time.Duration, logger *slog.Logger) *Cached {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cached{next: next, cache: cache, factory: factory, ttl: ttl, logger: logger}
}

// cachedCard is the cache encoding of a card.
type cachedCard struct {
	Scheme    string          `json:"scheme"`
	Value     string          `json:"value"`
	Entities  []models.Entity `json:"entities"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (s *Cached) FindByServiceGroup(ctx context.Context, sg *sgmodels.ServiceGroup) (*models.BusinessCard, error) {
	key := sg.ID.String()
	if card, ok := s.lookup(ctx, key); ok {
		return card, nil
	}
	gen := s.currentGeneration()
	card, err := s.next.FindByServiceGroup(ctx, sg)
	if err != nil {
		return nil, err
	}
	s.fill(ctx, key, card, gen)
	return card, nil
}

func (s *Cached) FindByKey(ctx context.Context, key string) (*models.BusinessCard, error) {
	if card, ok := s.lookup(ctx, key); ok {
		return card, nil
	}
	gen := s.currentGeneration()
	card, err := s.next.FindByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	s.fill(ctx, key, card, gen)
	return card, nil
}

func (s *Cached) Upsert(ctx context.Context, sg *sgmodels.ServiceGroup, entities []models.Entity) (*models.BusinessCard, error) {
	card, err := s.next.Upsert(ctx, sg, entities)
	s.written(ctx, sg.ID.String())
	return card, err
}

func (s *Cached) Delete(ctx context.Context, card *models.BusinessCard) error {
	err := s.next.Delete(ctx, card)
	s.written(ctx, card.ServiceGroupID.String())
	return err
}

func (s *Cached) DeleteByServiceGroup(ctx context.Context, sg *sgmodels.ServiceGroup) error {
	err := s.next.DeleteByServiceGroup(ctx, sg)
	s.written(ctx, sg.ID.String())
	return err
}

func (s *Cached) lookup(ctx context.Context, key string) (*models.BusinessCard, bool) {
	raw, found, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "business card cache read failed", "key", key, "error", err)
		return nil, false
	}
	if !found {
		return nil, false
	}
	var cc cachedCard
	if err := json.Unmarshal(raw, &cc); err != nil {
		s.logger.WarnContext(ctx, "discarding undecodable cache entry", "key", key, "error", err)
		s.invalidate(ctx, key)
		return nil, false
	}
	pid, err := s.factory.Create(cc.Scheme, cc.Value)
	if err != nil {
		s.invalidate(ctx, key)
		return nil, false
	}
	return &models.BusinessCard{ServiceGroupID: pid, Entities: cc.Entities, UpdatedAt: cc.UpdatedAt}, true
}

func (s *Cached) currentGeneration() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// written runs after every write to the backing store, successful or not.
func (s *Cached) written(ctx context.Context, key string) {
	s.mu.Lock()
	s.generation++
	s.mu.Unlock()
	s.invalidate(ctx, key)
}

// fill stores card unless a write happened since gen was read.
func (s *Cached) fill(ctx context.Context, key string, card *models.BusinessCard, gen uint64) {
	raw, err := json.Marshal(cachedCard{
		Scheme:    card.ServiceGroupID.Scheme(),
		Value:     card.ServiceGroupID.Value(),
		Entities:  card.Entities,
		UpdatedAt: card.UpdatedAt,
	})
	if err != nil {
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.generation != gen {
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.ttl); err != nil {
		s.logger.WarnContext(ctx, "business card cache write failed", "key", key, "error", err)
	}
}

func (s *Cached) invalidate(ctx context.Context, key string) {
	if err := s.cache.Delete(ctx, key); err != nil {
		s.logger.WarnContext(ctx, "business card cache invalidation failed", "key", key, "error", err)
	}
}
