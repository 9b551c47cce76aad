package directory

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"smpserver/internal/audit"
	"smpserver/pkg/platform/circuit"
)

type stubNotifier struct {
	calls int
	err   error
}

func (s *stubNotifier) Notify(context.Context, audit.Event) error {
	s.calls++
	return s.err
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewKafkaNotifierValidatesInput(t *testing.T) {
	_, err := NewKafkaNotifier(nil, "topic")
	assert.ErrorContains(t, err, "broker")

	_, err = NewKafkaNotifier([]string{"localhost:9092"}, "")
	assert.ErrorContains(t, err, "topic")
}

func TestNopNotifier(t *testing.T) {
	assert.NoError(t, NewNopNotifier(discard()).Notify(context.Background(), audit.Event{ParticipantID: "p"}))
}

func TestBreakerNotifierShedsWhileOpen(t *testing.T) {
	now := time.Unix(0, 0)
	next := &stubNotifier{err: errors.New("broker down")}
	n := NewBreakerNotifier(next,
		circuit.New("directory", circuit.WithFailureThreshold(2), circuit.WithCooldown(time.Minute),
			circuit.WithClock(func() time.Time { return now })),
		discard())
	ctx := context.Background()

	assert.Error(t, n.Notify(ctx, audit.Event{}))
	assert.Error(t, n.Notify(ctx, audit.Event{}))
	assert.ErrorIs(t, n.Notify(ctx, audit.Event{}), ErrCircuitOpen)
	assert.Equal(t, 2, next.calls)

	now = now.Add(time.Minute)
	next.err = nil
	require.NoError(t, n.Notify(ctx, audit.Event{}))
	assert.Equal(t, 3, next.calls)
	require.NoError(t, n.Notify(ctx, audit.Event{}))
	assert.Equal(t, 4, next.calls)
}

// hangingNotifier behaves like a producer whose broker never answers.
type hangingNotifier struct {
	calls atomic.Int32
}

func (h *hangingNotifier) Notify(ctx context.Context, _ audit.Event) error {
	h.calls.Add(1)
	<-ctx.Done()
	return ctx.Err()
}

func TestWorkerOpensBreakerWhenNotifierHangs(t *testing.T) {
	next := &hangingNotifier{}
	breaker := circuit.New("directory",
		circuit.WithFailureThreshold(2),
		circuit.WithCooldown(time.Hour),
	)
	publisher := audit.NewPublisher(audit.NewInMemoryStore(), audit.WithQueue(8))
	worker := audit.NewWorker(publisher.Events(), NewBreakerNotifier(next, breaker, discard()), discard(),
		audit.WithNotifyTimeout(20*time.Millisecond))

	for range 5 {
		require.NoError(t, publisher.Emit(context.Background(), audit.Event{ParticipantID: "p"}))
	}
	publisher.Close()

	done := make(chan error, 1)
	go func() { done <- worker.Run(context.Background()) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not drain the queue")
	}
	assert.True(t, breaker.IsOpen())
	assert.Equal(t, int32(2), next.calls.Load())
}

func TestKafkaNotifierFailsWhenBrokerUnreachable(t *testing.T) {
	n, err := NewKafkaNotifier([]string{"127.0.0.1:1"}, "smp.businesscards",
		kgo.RecordDeliveryTimeout(200*time.Millisecond))
	require.NoError(t, err)
	defer n.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	start := time.Now()
	err = n.Notify(ctx, audit.Event{ParticipantID: "iso6523-actorid-upis::9906:abc"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 10*time.Second)
}
