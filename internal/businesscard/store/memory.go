package store

import (
	"context"
	"sync"

	"smpserver/internal/businesscard/models"
	sgmodels "smpserver/internal/servicegroup/models"
	"smpserver/pkg/platform/sentinel"
	"smpserver/pkg/requestcontext"
)

// InMemory keeps business cards keyed by canonical service group identifier.
// Upserts swap the whole card under the write lock, so readers never observe a
// partially replaced entity list.
type InMemory struct {
	mu    sync.RWMutex
	cards map[string]*models.BusinessCard
}

func NewInMemory() *InMemory {
	return &InMemory{cards: make(map[string]*models.BusinessCard)}
}

func (s *InMemory) FindByServiceGroup(ctx context.Context, sg *sgmodels.ServiceGroup) (*models.BusinessCard, error) {
	return s.FindByKey(ctx, sg.ID.String())
}

func (s *InMemory) FindByKey(_ context.Context, key string) (*models.BusinessCard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	card, ok := s.cards[key]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return card.Clone(), nil
}

func (s *InMemory) Upsert(ctx context.Context, sg *sgmodels.ServiceGroup, entities []models.Entity) (*models.BusinessCard, error) {
	card := (&models.BusinessCard{
		ServiceGroupID: sg.ID,
		Entities:       entities,
		UpdatedAt:      requestcontext.Now(ctx),
	}).Clone()
	if card.Entities == nil {
		card.Entities = []models.Entity{}
	}

	s.mu.Lock()
	s.cards[sg.ID.String()] = card
	s.mu.Unlock()
	return card.Clone(), nil
}

func (s *InMemory) Delete(_ context.Context, card *models.BusinessCard) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := card.ServiceGroupID.String()
	if _, ok := s.cards[key]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.cards, key)
	return nil
}

// DeleteByServiceGroup removes the card of sg if one exists.
func (s *InMemory) DeleteByServiceGroup(_ context.Context, sg *sgmodels.ServiceGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cards, sg.ID.String())
	return nil
}
