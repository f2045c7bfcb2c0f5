package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// evictInterval is how often idle limiter entries are swept.
	evictInterval = time.Minute
	// evictIdleFactor is the number of windows an identifier must stay
	// idle before its bucket is dropped.
	evictIdleFactor = 3
)

type memoryEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryLimiter is an in-process token bucket per identifier. Suitable
// for single-instance deployments; use RedisLimiter when horizontally
// scaled.
type MemoryLimiter struct {
	requests int
	window   time.Duration
	burst    int

	mu      sync.Mutex
	entries map[string]*memoryEntry
	now     func() time.Time

	stop chan struct{}
	done chan struct{}
}

// NewMemoryLimiter allows `requests` calls per `window` with the given
// burst capacity for each identifier.
func NewMemoryLimiter(requests int, window time.Duration, burst int) *MemoryLimiter {
	if burst < 1 {
		burst = 1
	}
	return &MemoryLimiter{
		requests: requests,
		window:   window,
		burst:    burst,
		entries:  make(map[string]*memoryEntry),
		now:      time.Now,
	}
}

// Allow consumes one token for the identifier.
func (l *MemoryLimiter) Allow(ctx context.Context, identifier string) (Decision, error) {
	l.mu.Lock()
	entry, ok := l.entries[identifier]
	if !ok {
		entry = &memoryEntry{
			limiter: rate.NewLimiter(rate.Every(l.window/time.Duration(l.requests)), l.burst),
		}
		l.entries[identifier] = entry
	}
	entry.lastSeen = l.now()
	l.mu.Unlock()

	reservation := entry.limiter.Reserve()
	delay := reservation.Delay()
	if delay > 0 {
		reservation.Cancel()
		return Decision{Allowed: false, RetryAfter: delay}, nil
	}

	return Decision{
		Allowed:   true,
		Remaining: int64(entry.limiter.Tokens()),
	}, nil
}

// Start launches the background eviction of idle identifiers.
func (l *MemoryLimiter) Start() {
	l.stop = make(chan struct{})
	l.done = make(chan struct{})
	go l.evictLoop()
}

// Shutdown stops the eviction loop.
func (l *MemoryLimiter) Shutdown(ctx context.Context) error {
	if l.stop == nil {
		return nil
	}
	close(l.stop)
	select {
	case <-l.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *MemoryLimiter) evictLoop() {
	defer close(l.done)
	ticker := time.NewTicker(evictInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.evictIdle()
		}
	}
}

func (l *MemoryLimiter) evictIdle() {
	cutoff := l.now().Add(-time.Duration(evictIdleFactor) * l.window)
	l.mu.Lock()
	for id, entry := range l.entries {
		if entry.lastSeen.Before(cutoff) {
			delete(l.entries, id)
		}
	}
	l.mu.Unlock()
}
