package audit

import (
	"context"
	"sync"
)

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByParticipant(ctx context.Context, participantID string) ([]Event, error)
}

// InMemoryStore keeps events in process memory, oldest first.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[string][]Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[string][]Event)}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.ParticipantID] = append(s.events[event.ParticipantID], event)
	return nil
}

func (s *InMemoryStore) ListByParticipant(_ context.Context, participantID string) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event(nil), s.events[participantID]...), nil
}
