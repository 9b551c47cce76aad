package user

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"smpserver/internal/auth/models"
	"smpserver/pkg/platform/sentinel"
)

// InMemory keeps users in process memory, indexed by ID and username.
type InMemory struct {
	mu         sync.RWMutex
	byID       map[uuid.UUID]*models.User
	byUsername map[string]uuid.UUID
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:       make(map[uuid.UUID]*models.User),
		byUsername: make(map[string]uuid.UUID),
	}
}

// Create stores a new user. A taken username yields sentinel.ErrAlreadyUsed.
func (s *InMemory) Create(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byUsername[u.Username]; taken {
		return sentinel.ErrAlreadyUsed
	}
	stored := *u
	s.byID[u.ID] = &stored
	s.byUsername[u.Username] = u.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, userID uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	found := *u
	return &found, nil
}

func (s *InMemory) FindByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID, ok := s.byUsername[models.NormalizeUsername(username)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	found := *s.byID[userID]
	return &found, nil
}
