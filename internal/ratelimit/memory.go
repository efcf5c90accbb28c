package ratelimit

import (
	"sync"
	"time"
)

// MemoryLimiter allows at most max calls per key within a rolling window.
// The window is approximate under heavy concurrency, which is acceptable
// for a soft cost control.
type MemoryLimiter struct {
	mu     sync.Mutex
	max    int
	window time.Duration
	hits   map[string][]time.Time
	now    func() time.Time
}

func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	if max <= 0 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &MemoryLimiter{
		max:    max,
		window: window,
		hits:   map[string][]time.Time{},
		now:    time.Now,
	}
}

func (l *MemoryLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	kept := l.hits[key][:0]
	for _, t := range l.hits[key] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) >= l.max {
		l.hits[key] = kept
		return false
	}
	l.hits[key] = append(kept, now)
	return true
}
