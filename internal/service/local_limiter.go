package service

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LocalLimiter is a per-key token bucket kept in process memory. It is used
// when no Redis is configured; limits are per instance.
type LocalLimiter struct {
	mu      sync.Mutex
	buckets map[string]*localBucket
	now     func() time.Time
}

type localBucket struct {
	limiter  *rate.Limiter
	limit    int
	window   time.Duration
	lastSeen time.Time
}

var _ Limiter = (*LocalLimiter)(nil)

func NewLocalLimiter() *LocalLimiter {
	return &LocalLimiter{
		buckets: make(map[string]*localBucket),
		now:     time.Now,
	}
}

// CheckLimit refills limit tokens evenly over window, with a burst of limit.
func (l *LocalLimiter) CheckLimit(
	_ context.Context,
	key string,
	limit int,
	window time.Duration,
) (allowed bool, resetAt time.Time) {
	now := l.now()
	if limit <= 0 || window <= 0 {
		return false, now.Add(window)
	}

	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok || b.limit != limit || b.window != window {
		every := window / time.Duration(limit)
		b = &localBucket{
			limiter: rate.NewLimiter(rate.Every(every), limit),
			limit:   limit,
			window:  window,
		}
		l.buckets[key] = b
	}
	b.lastSeen = now
	l.mu.Unlock()

	r := b.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, now.Add(window)
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, now.Add(delay)
	}
	return true, now.Add(window)
}

// Prune drops buckets that have refilled completely and sat idle for a full
// window. It returns the number dropped.
func (l *LocalLimiter) Prune(_ context.Context) (int64, error) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	var pruned int64
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) < b.window {
			continue
		}
		if b.limiter.TokensAt(now) < float64(b.limit) {
			continue
		}
		delete(l.buckets, key)
		pruned++
	}
	return pruned, nil
}

// Len returns the number of tracked buckets.
func (l *LocalLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
