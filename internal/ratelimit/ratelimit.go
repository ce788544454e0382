// Package ratelimit bounds request frequency per identifier and endpoint.
//
// The in-memory store is process-local: under horizontal scaling each
// instance keeps an independent window, so the limit is only approximate.
// Deployments that need a global limit should use the Redis store behind
// the same Store interface.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Fixed presets shared by the HTTP layer.
const (
	// AdminCheckMax bounds admin-adjacent verification calls.
	AdminCheckMax    = 5
	AdminCheckWindow = time.Minute

	// DefaultMax applies to authenticated API endpoints without a
	// stricter preset.
	DefaultMax    = 30
	DefaultWindow = time.Minute

	sweepInterval = 5 * time.Minute
)

// Result reports the outcome of a single rate-limit check.
type Result struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Store checks and records one request for identifier on endpoint.
type Store interface {
	Check(ctx context.Context, identifier, endpoint string, maxRequests int, window time.Duration) (Result, error)
}

type entry struct {
	count     int
	resetTime time.Time
}

// MemoryStore is a fixed-window counter held in process memory.
// It never returns an error from Check.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time

	sweepOnce sync.Once
	stopSweep chan struct{}
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries:   make(map[string]*entry),
		now:       time.Now,
		stopSweep: make(chan struct{}),
	}
}

// Check applies the fixed-window counter for identifier:endpoint.
//
// A missing or expired entry starts a fresh window with count 1. Within a
// live window the request is denied once maxRequests is reached, reporting
// the whole seconds remaining until the window resets.
func (s *MemoryStore) Check(_ context.Context, identifier, endpoint string, maxRequests int, window time.Duration) (Result, error) {
	s.sweepOnce.Do(func() { go s.sweep() })

	key := identifier + ":" + endpoint

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	e, ok := s.entries[key]
	if !ok || now.After(e.resetTime) {
		s.entries[key] = &entry{count: 1, resetTime: now.Add(window)}
		return Result{Allowed: true, Remaining: maxRequests - 1}, nil
	}
	if e.count >= maxRequests {
		return Result{Allowed: false, RetryAfter: ceilSeconds(e.resetTime.Sub(now))}, nil
	}
	e.count++
	return Result{Allowed: true, Remaining: maxRequests - e.count}, nil
}

// Close stops the background sweep.
func (s *MemoryStore) Close() {
	s.sweepOnce.Do(func() {})
	select {
	case <-s.stopSweep:
	default:
		close(s.stopSweep)
	}
}

// sweep deletes expired entries so the map does not grow without bound.
// It only removes entries whose window has elapsed, never live ones.
func (s *MemoryStore) sweep() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopSweep:
			return
		case <-ticker.C:
			s.removeExpired()
		}
	}
}

func (s *MemoryStore) removeExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for key, e := range s.entries {
		if now.After(e.resetTime) {
			delete(s.entries, key)
		}
	}
}

func ceilSeconds(d time.Duration) time.Duration {
	secs := d / time.Second
	if d%time.Second != 0 {
		secs++
	}
	if secs < 1 {
		secs = 1
	}
	return secs * time.Second
}

var _ Store = (*MemoryStore)(nil)
