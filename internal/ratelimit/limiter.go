// Package ratelimit throttles the public webhook endpoint. Providers retry
// aggressively on their side, so the limiter protects the ingestion path from
// a misconfigured or hostile sender without touching authenticated routes.
package ratelimit

import (
	"sync"
	"time"
)

// Result reports the outcome of one limit check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
	// RetryAfter is in seconds, set only when the request was denied.
	RetryAfter int
}

// Limiter is an in-memory sliding window limiter keyed by caller. The window
// holds individual timestamps so a burst at a window boundary cannot double
// the effective rate.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*window
	limit   int
	period  time.Duration

	now func() time.Time // test hook
}

type window struct {
	timestamps []time.Time
}

func NewLimiter(limit int, period time.Duration) *Limiter {
	return &Limiter{
		buckets: make(map[string]*window),
		limit:   limit,
		period:  period,
		now:     time.Now,
	}
}

// Allow records one request for the key and reports whether it fit in the
// window.
func (l *Limiter) Allow(key string) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w := l.buckets[key]
	if w == nil {
		w = &window{}
		l.buckets[key] = w
	}
	w.trim(now.Add(-l.period))

	if len(w.timestamps) >= l.limit {
		resetAt := w.timestamps[0].Add(l.period)
		retry := int(resetAt.Sub(now) / time.Second)
		if retry < 1 {
			retry = 1
		}
		return Result{Limit: l.limit, ResetAt: resetAt, RetryAfter: retry}
	}

	w.timestamps = append(w.timestamps, now)
	return Result{
		Allowed:   true,
		Limit:     l.limit,
		Remaining: l.limit - len(w.timestamps),
		ResetAt:   w.timestamps[0].Add(l.period),
	}
}

// Sweep drops buckets whose window has fully expired. Call periodically to
// bound memory under high key cardinality.
func (l *Limiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.period)
	for key, w := range l.buckets {
		w.trim(cutoff)
		if len(w.timestamps) == 0 {
			delete(l.buckets, key)
		}
	}
}

func (w *window) trim(cutoff time.Time) {
	i := 0
	for i < len(w.timestamps) && !w.timestamps[i].After(cutoff) {
		i++
	}
	w.timestamps = w.timestamps[i:]
}
