package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Publisher captures audit events. It is append-only: every event is stored, and
// when a queue is configured it is also handed to the Worker for notification.
type Publisher struct {
	store  Store
	logger *slog.Logger
	queue  chan Event

	// mu guards closed; Emit sends under the read lock so Close cannot close
	// the queue mid-send.
	mu     sync.RWMutex
	closed bool
}

type PublisherOption func(*Publisher)

func WithPublisherLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithQueue buffers up to size events for the Worker. A full queue drops the
// event from notification; it is still stored.
func WithQueue(size int) PublisherOption {
	return func(p *Publisher) {
		if size > 0 {
			p.queue = make(chan Event, size)
		}
	}
}

func NewPublisher(store Store, opts ...PublisherOption) *Publisher {
	p := &Publisher{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := p.store.Append(ctx, event); err != nil {
		return err
	}
	if p.queue == nil {
		return nil
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.logger.WarnContext(ctx, "audit publisher closed, notification dropped",
			"action", event.Action,
			"participant_id", event.ParticipantID,
			"request_id", event.RequestID,
		)
		return nil
	}
	select {
	case p.queue <- event:
	default:
		p.logger.WarnContext(ctx, "audit queue full, notification dropped",
			"action", event.Action,
			"participant_id", event.ParticipantID,
			"request_id", event.RequestID,
		)
	}
	return nil
}

// Events is the Worker's inbox. It is nil when no queue is configured.
func (p *Publisher) Events() <-chan Event {
	return p.queue
}

func (p *Publisher) List(ctx context.Context, participantID string) ([]Event, error) {
	return p.store.ListByParticipant(ctx, participantID)
}

// Close stops accepting notifications and closes the Worker's inbox. Events
// emitted afterwards are still stored but not notified.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	if p.queue != nil {
		close(p.queue)
	}
}
