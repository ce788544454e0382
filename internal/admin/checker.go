package admin

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

const (
	// cacheTTL is how long a resolved admin status stays valid before a
	// fresh check is forced.
	cacheTTL = 5 * time.Minute

	// checkTimeout bounds a single verification call. Expiry resolves to
	// not-admin.
	checkTimeout = 10 * time.Second
)

// Verifier answers whether the bearer token's user is an administrator.
// Satisfied by *Client (remote) and ServiceVerifier (in-process).
type Verifier interface {
	VerifyAdmin(ctx context.Context, token string) (bool, error)
}

// SessionSource supplies the current session's bearer token. ok is false
// when there is no active session.
type SessionSource interface {
	Token(ctx context.Context) (token string, ok bool)
}

type cacheEntry struct {
	status Status
	at     time.Time
}

// Checker caches admin status per user and keeps one resolved read model,
// mirroring the verification flow the web client runs: cache hit resolves
// synchronously, a miss triggers one bounded call, and any failure resolves
// to not-admin.
//
// Two access paths share the cache: SetUser/State track a current user
// asynchronously, and Check answers synchronously for request middleware.
type Checker struct {
	verifier Verifier
	sessions SessionSource
	logger   *slog.Logger
	ttl      time.Duration
	timeout  time.Duration
	now      func() time.Time

	group singleflight.Group

	mu      sync.Mutex
	cache   map[uuid.UUID]cacheEntry
	current uuid.UUID
	status  Status
	loading bool
	cancel  context.CancelFunc
	gen     uint64
}

// NewChecker constructs a Checker. sessions may be nil when only the
// synchronous Check path is used.
func NewChecker(verifier Verifier, sessions SessionSource, logger *slog.Logger) *Checker {
	return &Checker{
		verifier: verifier,
		sessions: sessions,
		logger:   logger,
		ttl:      cacheTTL,
		timeout:  checkTimeout,
		now:      time.Now,
		cache:    make(map[uuid.UUID]cacheEntry),
		status:   StatusNotAdmin,
	}
}

// State returns the current read model. loading is true only while a check
// for the current user is in flight.
func (c *Checker) State() (isAdmin, loading bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status.IsAdmin(), c.loading
}

// SetUser switches the checker to a new current user and starts resolving
// their status. Passing uuid.Nil clears the user and resolves to not-admin
// immediately. Any check still in flight for the previous user is cancelled
// and its result, even if it arrives later, is discarded.
func (c *Checker) SetUser(userID uuid.UUID) {
	c.mu.Lock()

	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.gen++
	gen := c.gen
	c.current = userID

	if userID == uuid.Nil {
		c.status = StatusNotAdmin
		c.loading = false
		c.mu.Unlock()
		return
	}

	if entry, ok := c.cache[userID]; ok && c.now().Sub(entry.at) < c.ttl {
		c.status = entry.status
		c.loading = false
		c.mu.Unlock()
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	c.cancel = cancel
	c.status = StatusUnknown
	c.loading = true
	c.mu.Unlock()

	go c.resolveCurrent(ctx, cancel, gen, userID)
}

func (c *Checker) resolveCurrent(ctx context.Context, cancel context.CancelFunc, gen uint64, userID uuid.UUID) {
	defer cancel()

	status, cacheable := c.resolveWithSession(ctx, userID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		// A newer SetUser won; this result must not touch state or cache.
		return
	}
	c.status = status
	c.loading = false
	if cacheable {
		c.cache[userID] = cacheEntry{status: status, at: c.now()}
	}
}

func (c *Checker) resolveWithSession(ctx context.Context, userID uuid.UUID) (Status, bool) {
	if c.sessions == nil {
		return StatusNotAdmin, false
	}
	token, ok := c.sessions.Token(ctx)
	if !ok {
		return StatusNotAdmin, false
	}
	return c.verify(ctx, userID, token)
}

// Check synchronously resolves userID's status using the shared cache,
// calling the verifier with the caller's token on a miss. Every error path
// returns StatusNotAdmin.
func (c *Checker) Check(ctx context.Context, userID uuid.UUID, token string) Status {
	if userID == uuid.Nil || token == "" {
		return StatusNotAdmin
	}

	c.mu.Lock()
	if entry, ok := c.cache[userID]; ok && c.now().Sub(entry.at) < c.ttl {
		c.mu.Unlock()
		return entry.status
	}
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	status, cacheable := c.verify(ctx, userID, token)
	if cacheable {
		c.mu.Lock()
		c.cache[userID] = cacheEntry{status: status, at: c.now()}
		c.mu.Unlock()
	}
	return status
}

// verify performs the network call, deduplicated per user id so concurrent
// misses for the same user share one round trip.
func (c *Checker) verify(ctx context.Context, userID uuid.UUID, token string) (Status, bool) {
	result, err, _ := c.group.Do(userID.String(), func() (any, error) {
		isAdmin, err := c.verifier.VerifyAdmin(ctx, token)
		if err != nil {
			return nil, err
		}
		return isAdmin, nil
	})
	if err != nil {
		if c.logger != nil {
			c.logger.Warn("admin check failed", slog.String("user_id", userID.String()), slog.Any("error", err))
		}
		return StatusNotAdmin, false
	}
	if result.(bool) {
		return StatusAdmin, true
	}
	return StatusNotAdmin, true
}

// Invalidate drops the cached status for userID, forcing the next check to
// hit the endpoint. Used on logout and privilege changes.
func (c *Checker) Invalidate(userID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.cache, userID)
}
