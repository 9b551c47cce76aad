package store

import (
	"context"
	"sync"

	"smpserver/internal/identifier"
	"smpserver/internal/servicegroup/models"
	"smpserver/pkg/platform/sentinel"
)

// InMemory keeps service groups in process memory keyed by canonical identifier.
type InMemory struct {
	mu     sync.RWMutex
	groups map[string]*models.ServiceGroup
}

func NewInMemory() *InMemory {
	return &InMemory{groups: make(map[string]*models.ServiceGroup)}
}

func (s *InMemory) Create(_ context.Context, sg *models.ServiceGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := sg.ID.String()
	if _, exists := s.groups[key]; exists {
		return sentinel.ErrAlreadyUsed
	}
	stored := *sg
	s.groups[key] = &stored
	return nil
}

func (s *InMemory) FindByID(_ context.Context, pid identifier.ParticipantID) (*models.ServiceGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sg, ok := s.groups[pid.String()]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	found := *sg
	return &found, nil
}

func (s *InMemory) Delete(_ context.Context, pid identifier.ParticipantID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pid.String()
	if _, ok := s.groups[key]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.groups, key)
	return nil
}
