package limiter

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// MemoryLimiter keeps one token bucket per client in process memory. A
// client may burst up to limit submissions and then regains one every
// window/limit. Buckets idle for longer than window are forgotten.
type MemoryLimiter struct {
	mu          sync.Mutex
	every       rate.Limit
	burst       int
	window      time.Duration
	clients     map[string]*bucket
	lastCleanup time.Time
	now         func() time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		every:   rate.Every(window / time.Duration(limit)),
		burst:   limit,
		window:  window,
		clients: make(map[string]*bucket),
		now:     time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, clientKey string) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.cleanup(now)

	b, ok := l.clients[clientKey]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.every, l.burst)}
		l.clients[clientKey] = b
	}
	b.lastSeen = now

	r := b.limiter.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return Decision{Allowed: false, RetryAfter: delay}, nil
	}
	return Decision{Allowed: true, Remaining: int(b.limiter.TokensAt(now))}, nil
}

func (l *MemoryLimiter) cleanup(now time.Time) {
	if now.Sub(l.lastCleanup) < l.window {
		return
	}
	for key, b := range l.clients {
		if now.Sub(b.lastSeen) > l.window {
			delete(l.clients, key)
		}
	}
	l.lastCleanup = now
}
