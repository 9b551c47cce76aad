// Package ratelimit applies a per-client token bucket to HTTP requests.
package ratelimit

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	dErrors "smpserver/pkg/domain-errors"
	"smpserver/pkg/platform/httputil"
	"smpserver/pkg/platform/middleware/metadata"
	"smpserver/pkg/requestcontext"
)

const (
	defaultIdleTTL       = 10 * time.Minute
	defaultSweepInterval = 5 * time.Minute
)

// RejectionRecorder is notified for every rejected request.
type RejectionRecorder interface {
	IncrementRateLimited()
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter keeps one token bucket per client IP.
type Limiter struct {
	rps     rate.Limit
	burst   int
	idleTTL time.Duration
	now     func() time.Time
	logger  *slog.Logger
	metrics RejectionRecorder

	mu      sync.Mutex
	clients map[string]*clientLimiter
}

type Option func(*Limiter)

func WithLogger(logger *slog.Logger) Option {
	return func(l *Limiter) { l.logger = logger }
}

func WithMetrics(m RejectionRecorder) Option {
	return func(l *Limiter) { l.metrics = m }
}

func WithIdleTTL(ttl time.Duration) Option {
	return func(l *Limiter) { l.idleTTL = ttl }
}

func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// New creates a limiter allowing rps sustained requests per second per client
// with the given burst. A non-positive rps disables limiting.
func New(rps float64, burst int, opts ...Option) *Limiter {
	l := &Limiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		idleTTL: defaultIdleTTL,
		now:     time.Now,
		logger:  slog.Default(),
		clients: make(map[string]*clientLimiter),
	}
	if rps <= 0 {
		l.rps = rate.Inf
	}
	if l.burst <= 0 {
		l.burst = 1
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow reports whether a request from key may proceed, and if not, how long
// the caller should wait.
func (l *Limiter) Allow(key string) (bool, time.Duration) {
	now := l.now()
	limiter := l.limiterFor(key, now)

	reservation := limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return false, 0
	}
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		return false, delay
	}
	return true, 0
}

func (l *Limiter) limiterFor(key string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if cl, ok := l.clients[key]; ok {
		cl.lastSeen = now
		return cl.limiter
	}
	cl := &clientLimiter{limiter: rate.NewLimiter(l.rps, l.burst), lastSeen: now}
	l.clients[key] = cl
	return cl.limiter
}

// Sweep drops buckets idle for longer than the idle TTL and returns how many were removed.
func (l *Limiter) Sweep() int {
	cutoff := l.now().Add(-l.idleTTL)
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for key, cl := range l.clients {
		if cl.lastSeen.Before(cutoff) {
			delete(l.clients, key)
			removed++
		}
	}
	return removed
}

// Run sweeps idle buckets until ctx is cancelled.
func (l *Limiter) Run(ctx context.Context) error {
	ticker := time.NewTicker(defaultSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := l.Sweep(); n > 0 {
				l.logger.DebugContext(ctx, "rate limiter swept idle clients", "removed", n)
			}
		}
	}
}

// Middleware rejects requests over the limit with 429 and a Retry-After header.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		key := requestcontext.ClientIP(ctx)
		if key == "" {
			key = metadata.ClientIPFromRequest(r)
		}

		ok, delay := l.Allow(key)
		if !ok {
			if l.metrics != nil {
				l.metrics.IncrementRateLimited()
			}
			l.logger.WarnContext(ctx, "rate limit exceeded",
				"request_id", requestcontext.RequestID(ctx),
				"client_ip", key,
				"path", r.URL.Path,
			)
			if delay > 0 {
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(delay.Seconds()))))
			}
			httputil.WriteError(w, dErrors.New(dErrors.CodeTooManyRequests, "rate limit exceeded"))
			return
		}
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.burst))
		next.ServeHTTP(w, r)
	})
}
