package audit

import (
	"context"
	"log/slog"
	"time"
)

// DefaultNotifyTimeout bounds a single delivery attempt.
const DefaultNotifyTimeout = 15 * time.Second

// Notifier delivers an event to the external directory.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// Worker consumes audit events from a channel and forwards them to a Notifier.
// Delivery failures are logged and never stop the loop.
type Worker struct {
	inbox    <-chan Event
	notifier Notifier
	logger   *slog.Logger
	timeout  time.Duration
}

type WorkerOption func(*Worker)

// WithNotifyTimeout caps how long one Notify call may block the worker.
func WithNotifyTimeout(d time.Duration) WorkerOption {
	return func(w *Worker) {
		if d > 0 {
			w.timeout = d
		}
	}
}

func NewWorker(inbox <-chan Event, notifier Notifier, logger *slog.Logger, opts ...WorkerOption) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	w := &Worker{inbox: inbox, notifier: notifier, logger: logger, timeout: DefaultNotifyTimeout}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run returns nil once the inbox is closed and drained, or ctx.Err on cancellation.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.inbox:
			if !ok {
				return nil
			}
			if err := w.notify(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "directory notification failed",
					"action", event.Action,
					"participant_id", event.ParticipantID,
					"request_id", event.RequestID,
					"error", err,
				)
			}
		}
	}
}

func (w *Worker) notify(ctx context.Context, event Event) error {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()
	return w.notifier.Notify(ctx, event)
}
