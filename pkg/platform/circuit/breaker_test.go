package circuit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestBreaker(clock *fakeClock, opts ...Option) *Breaker {
	return New("directory", append([]Option{WithClock(clock.Now)}, opts...)...)
}

func TestNewDefaults(t *testing.T) {
	b := New("directory")
	assert.Equal(t, "directory", b.Name())
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, "closed", b.State().String())

	for range 4 {
		b.RecordFailure()
	}
	assert.False(t, b.IsOpen(), "default threshold is five failures")
	_, change := b.RecordFailure()
	assert.True(t, change.Opened)
	assert.Equal(t, "open", b.State().String())
}

func TestNonPositiveOptionsKeepDefaults(t *testing.T) {
	b := New("directory", WithFailureThreshold(0), WithSuccessThreshold(-1), WithCooldown(0))
	assert.Equal(t, 5, b.failureThreshold)
	assert.Equal(t, 1, b.successThreshold)
	assert.Equal(t, 30*time.Second, b.cooldown)
}

// outcome is one recorded delivery result: true for success.
type outcome bool

const (
	ok   outcome = true
	fail outcome = false
)

func TestRecordSequences(t *testing.T) {
	tests := []struct {
		name     string
		failures int
		success  int
		calls    []outcome
		wantOpen bool
	}{
		{name: "below failure threshold", failures: 3, calls: []outcome{fail, fail}, wantOpen: false},
		{name: "at failure threshold", failures: 3, calls: []outcome{fail, fail, fail}, wantOpen: true},
		{name: "success between failures restarts the count", failures: 3, calls: []outcome{fail, fail, ok, fail, fail}, wantOpen: false},
		{name: "one success closes by default", failures: 1, calls: []outcome{fail, ok}, wantOpen: false},
		{name: "partial recovery stays open", failures: 1, success: 2, calls: []outcome{fail, ok}, wantOpen: true},
		{name: "full recovery closes", failures: 1, success: 2, calls: []outcome{fail, ok, ok}, wantOpen: false},
		{name: "failure during recovery restarts it", failures: 1, success: 3, calls: []outcome{fail, ok, ok, fail, ok, ok}, wantOpen: true},
		{name: "recovery after restart closes", failures: 1, success: 3, calls: []outcome{fail, ok, ok, fail, ok, ok, ok}, wantOpen: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New("directory", WithFailureThreshold(tt.failures), WithSuccessThreshold(tt.success))
			for _, c := range tt.calls {
				if c {
					b.RecordSuccess()
				} else {
					b.RecordFailure()
				}
			}
			assert.Equal(t, tt.wantOpen, b.IsOpen())
		})
	}
}

func TestStateChangesAreReportedOnce(t *testing.T) {
	b := New("directory", WithFailureThreshold(1))

	useFallback, change := b.RecordFailure()
	assert.True(t, useFallback)
	assert.True(t, change.Opened)

	useFallback, change = b.RecordFailure()
	assert.True(t, useFallback)
	assert.False(t, change.Opened)

	usePrimary, change := b.RecordSuccess()
	assert.True(t, usePrimary)
	assert.True(t, change.Closed)

	usePrimary, change = b.RecordSuccess()
	assert.True(t, usePrimary)
	assert.False(t, change.Closed)
}

func TestFailedProbeWaitsAnotherCooldown(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	b := newTestBreaker(clock, WithFailureThreshold(1), WithCooldown(time.Minute))

	require.True(t, b.Allow())
	b.RecordFailure()
	assert.False(t, b.Allow())

	clock.Advance(59 * time.Second)
	assert.False(t, b.Allow())

	clock.Advance(time.Second)
	require.True(t, b.Allow())
	assert.False(t, b.Allow(), "one probe per cooldown")
	b.RecordFailure()
	assert.True(t, b.IsOpen())

	clock.Advance(30 * time.Second)
	assert.False(t, b.Allow())
	clock.Advance(30 * time.Second)
	require.True(t, b.Allow())
	b.RecordSuccess()

	assert.False(t, b.IsOpen())
	assert.True(t, b.Allow())
	assert.True(t, b.Allow())
}

func TestResetWhileOpen(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	b := newTestBreaker(clock, WithFailureThreshold(2), WithSuccessThreshold(2), WithCooldown(time.Hour))

	b.RecordFailure()
	b.RecordFailure()
	b.RecordSuccess()
	require.True(t, b.IsOpen())
	require.False(t, b.Allow())

	b.Reset()
	assert.Equal(t, StateClosed, b.State())
	assert.True(t, b.Allow(), "no cooldown after reset")

	b.RecordFailure()
	assert.False(t, b.IsOpen(), "failure count starts over after reset")
}

func TestResetClearsPartialFailures(t *testing.T) {
	b := New("directory", WithFailureThreshold(2))
	b.RecordFailure()
	b.Reset()
	b.RecordFailure()
	assert.False(t, b.IsOpen())
}

func TestConcurrentRecords(t *testing.T) {
	b := New("directory", WithFailureThreshold(10))

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Allow()
			b.RecordFailure()
		}()
	}
	wg.Wait()
	assert.True(t, b.IsOpen())
}
