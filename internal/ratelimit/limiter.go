// Package ratelimit implements fixed-window admission control keyed by client identifier.
package ratelimit

import (
	"context"
	"hash/fnv"
	"sync"
	"time"
)

const shardCount = 32

// Decision is the outcome of one admission check.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// Admitter is satisfied by both the in-memory and the redis backed limiter.
type Admitter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

var _ Admitter = (*Limiter)(nil)

type window struct {
	count int
	start time.Time
}

type shard struct {
	mu      sync.Mutex
	entries map[string]*window
}

// Limiter is a process-local fixed-window counter. Entries are spread over
// independently locked shards; the sweep takes the same shard locks.
type Limiter struct {
	max    int
	window time.Duration
	now    func() time.Time
	shards [shardCount]*shard
}

type Option func(*Limiter)

// WithClock replaces time.Now, used by tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

func NewLimiter(max int, size time.Duration, opts ...Option) *Limiter {
	l := &Limiter{
		max:    max,
		window: size,
		now:    time.Now,
	}
	for i := range l.shards {
		l.shards[i] = &shard{entries: make(map[string]*window)}
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow never returns an error; the signature matches Admitter.
func (l *Limiter) Allow(_ context.Context, key string) (Decision, error) {
	return l.decide(key), nil
}

func (l *Limiter) decide(key string) Decision {
	now := l.now()
	s := l.shardFor(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.entries[key]
	if !ok || now.Sub(w.start) >= l.window {
		if !ok {
			w = &window{}
			s.entries[key] = w
		}
		w.count = 1
		w.start = now
		return l.allowed(w)
	}

	if w.count < l.max {
		w.count++
		return l.allowed(w)
	}

	// Rejected requests leave the counter clamped at max.
	resetAt := w.start.Add(l.window)
	return Decision{
		Allowed:    false,
		Limit:      l.max,
		Remaining:  0,
		ResetAt:    resetAt,
		RetryAfter: resetAt.Sub(now),
	}
}

func (l *Limiter) allowed(w *window) Decision {
	return Decision{
		Allowed:   true,
		Limit:     l.max,
		Remaining: l.max - w.count,
		ResetAt:   w.start.Add(l.window),
	}
}

// Sweep removes entries whose window has elapsed and returns how many were removed.
func (l *Limiter) Sweep() int {
	now := l.now()
	removed := 0
	for _, s := range l.shards {
		s.mu.Lock()
		for key, w := range s.entries {
			if now.Sub(w.start) >= l.window {
				delete(s.entries, key)
				removed++
			}
		}
		s.mu.Unlock()
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (l *Limiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep()
		}
	}
}

// Len reports the number of tracked clients.
func (l *Limiter) Len() int {
	n := 0
	for _, s := range l.shards {
		s.mu.Lock()
		n += len(s.entries)
		s.mu.Unlock()
	}
	return n
}

func (l *Limiter) shardFor(key string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return l.shards[h.Sum32()%shardCount]
}
