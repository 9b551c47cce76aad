package audit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (n *recordingNotifier) Notify(_ context.Context, event Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return n.err
}

func (n *recordingNotifier) received() []Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Event(nil), n.events...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPublisherStoresAndStampsEvents(t *testing.T) {
	store := NewInMemoryStore()
	p := NewPublisher(store)

	require.NoError(t, p.Emit(context.Background(), Event{Action: ActionBusinessCardUpserted, ParticipantID: "a"}))
	require.NoError(t, p.Emit(context.Background(), Event{Action: ActionBusinessCardDeleted, ParticipantID: "a"}))

	events, err := p.List(context.Background(), "a")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, ActionBusinessCardUpserted, events[0].Action)
	assert.False(t, events[0].Timestamp.IsZero())
	assert.Nil(t, p.Events())
}

func TestPublisherDropsNotificationWhenQueueFull(t *testing.T) {
	store := NewInMemoryStore()
	p := NewPublisher(store, WithQueue(1), WithPublisherLogger(discardLogger()))

	require.NoError(t, p.Emit(context.Background(), Event{ParticipantID: "a"}))
	require.NoError(t, p.Emit(context.Background(), Event{ParticipantID: "a"}))

	events, err := store.ListByParticipant(context.Background(), "a")
	require.NoError(t, err)
	assert.Len(t, events, 2)
	assert.Len(t, p.Events(), 1)
}

func TestWorkerForwardsUntilInboxCloses(t *testing.T) {
	p := NewPublisher(NewInMemoryStore(), WithQueue(4))
	notifier := &recordingNotifier{err: errors.New("broker down")}
	w := NewWorker(p.Events(), notifier, discardLogger())

	require.NoError(t, p.Emit(context.Background(), Event{ParticipantID: "a"}))
	require.NoError(t, p.Emit(context.Background(), Event{ParticipantID: "b"}))
	p.Close()

	done := make(chan error, 1)
	go func() { done <- w.Run(context.Background()) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after inbox closed")
	}
	received := notifier.received()
	require.Len(t, received, 2)
	assert.Equal(t, "b", received[1].ParticipantID)
}

func TestWorkerStopsOnCancel(t *testing.T) {
	inbox := make(chan Event)
	w := NewWorker(inbox, &recordingNotifier{}, discardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, w.Run(ctx), context.Canceled)
}

// blockingNotifier never delivers; it returns only when its context ends.
type blockingNotifier struct {
	mu    sync.Mutex
	calls int
}

func (n *blockingNotifier) Notify(ctx context.Context, _ Event) error {
	n.mu.Lock()
	n.calls++
	n.mu.Unlock()
	<-ctx.Done()
	return ctx.Err()
}

func TestWorkerBoundsEachNotification(t *testing.T) {
	p := NewPublisher(NewInMemoryStore(), WithQueue(4))
	notifier := &blockingNotifier{}
	w := NewWorker(p.Events(), notifier, discardLogger(), WithNotifyTimeout(20*time.Millisecond))

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, p.Emit(context.Background(), Event{ParticipantID: id}))
	}
	p.Close()

	done := make(chan error, 1)
	go func() { done <- w.Run(context.Background()) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker stalled on a notifier that never returns")
	}
	assert.Equal(t, 3, notifier.calls)
}

func TestEmitAfterCloseStoresWithoutNotifying(t *testing.T) {
	store := NewInMemoryStore()
	p := NewPublisher(store, WithQueue(2), WithPublisherLogger(discardLogger()))
	p.Close()
	p.Close()

	require.NotPanics(t, func() {
		require.NoError(t, p.Emit(context.Background(), Event{ParticipantID: "late"}))
	})

	events, err := store.ListByParticipant(context.Background(), "late")
	require.NoError(t, err)
	assert.Len(t, events, 1)
	_, open := <-p.Events()
	assert.False(t, open)
}

func TestEmitRacingClose(t *testing.T) {
	p := NewPublisher(NewInMemoryStore(), WithQueue(64), WithPublisherLogger(discardLogger()))

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				_ = p.Emit(context.Background(), Event{ParticipantID: string(rune('a' + i))})
			}
		}()
	}
	p.Close()
	wg.Wait()
}
