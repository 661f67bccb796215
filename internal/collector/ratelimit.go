package collector

import (
	"fmt"
	"sync"
	"time"
)

// RateLimiter counts requests per upstream name in fixed one-minute windows.
// A nil *RateLimiter allows everything.
type RateLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	quotas  map[string]int
	windows map[string]*rateWindow
	now     func() time.Time
}

type rateWindow struct {
	count   int
	resetAt time.Time
}

// NewRateLimiter creates a limiter with a one-minute window.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		window:  time.Minute,
		quotas:  make(map[string]int),
		windows: make(map[string]*rateWindow),
		now:     time.Now,
	}
}

// SetQuota sets how many requests name may make per window. Zero or less removes the limit.
func (r *RateLimiter) SetQuota(name string, perWindow int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if perWindow <= 0 {
		delete(r.quotas, name)
		return
	}
	r.quotas[name] = perWindow
}

// Allow records one request for name, or returns ErrRateLimitExceeded when the window's quota is spent.
func (r *RateLimiter) Allow(name string) error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	quota, limited := r.quotas[name]
	if !limited {
		return nil
	}
	now := r.now()
	w, ok := r.windows[name]
	if !ok || !now.Before(w.resetAt) {
		w = &rateWindow{resetAt: now.Add(r.window)}
		r.windows[name] = w
	}
	if w.count >= quota {
		return fmt.Errorf("%s: %w (resets in %s)", name, ErrRateLimitExceeded, w.resetAt.Sub(now).Round(time.Second))
	}
	w.count++
	return nil
}

// Remaining reports how many requests name has left in the current window, or -1 when unlimited.
func (r *RateLimiter) Remaining(name string) int {
	if r == nil {
		return -1
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	quota, limited := r.quotas[name]
	if !limited {
		return -1
	}
	w, ok := r.windows[name]
	if !ok || !r.now().Before(w.resetAt) {
		return quota
	}
	return quota - w.count
}
