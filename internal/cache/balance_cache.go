package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/metrics"
)

const (
	// DefaultGroupTTL bounds how stale a group snapshot can get if an
	// invalidation is ever missed.
	DefaultGroupTTL = 5 * time.Minute

	// DefaultUserTTL is shorter: a personal total spans many groups and
	// changes more often.
	DefaultUserTTL = 2 * time.Minute
)

// loadTimeout bounds a shared load, which runs detached from any single
// caller's cancellation.
const loadTimeout = 30 * time.Second

const (
	scopeGroup      = "group"
	scopeUser       = "user"
	scopeInvalidate = "invalidate"
)

// GroupKey is the cache key of a group's aggregated balances.
func GroupKey(groupID string) string { return "balance:group:" + groupID }

// UserKey is the cache key of a user's net balance across groups.
func UserKey(userID string) string { return "balance:user:" + userID }

// BalanceCache memoizes group balances and personal totals.
//
// Concurrent misses on one key share a single load. The load runs detached
// from the callers' contexts; a caller that gives up gets its own ctx error
// while the others keep waiting.
//
// Within a process, a load that started before an Invalidate of its key is
// returned to its callers but not written back. The epoch check and the
// store write happen under mu, the same lock Invalidate bumps epochs under,
// so a write either lands before the bump (and is removed by the Delete that
// follows it) or is skipped. Across processes the TTL is the bound.
type BalanceCache struct {
	store    Store
	groupTTL time.Duration
	userTTL  time.Duration
	metrics  *metrics.Metrics

	flight singleflight.Group

	// mu guards epochs and serializes cache writes with invalidations.
	mu     sync.Mutex
	epochs map[string]uint64
}

// Option configures a BalanceCache.
type Option func(*BalanceCache)

// WithTTLs overrides the group and user TTLs. Zero keeps the default.
func WithTTLs(group, user time.Duration) Option {
	return func(c *BalanceCache) {
		if group > 0 {
			c.groupTTL = group
		}
		if user > 0 {
			c.userTTL = user
		}
	}
}

// WithMetrics reports hits, misses and errors to m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *BalanceCache) { c.metrics = m }
}

// NewBalanceCache wraps store.
func NewBalanceCache(store Store, opts ...Option) *BalanceCache {
	c := &BalanceCache{
		store:    store,
		groupTTL: DefaultGroupTTL,
		userTTL:  DefaultUserTTL,
		epochs:   make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GroupBalances returns the cached balances for groupID, calling load on a miss.
func (c *BalanceCache) GroupBalances(ctx context.Context, groupID string, load func(context.Context) ([]calculator.Balance, error)) ([]calculator.Balance, error) {
	return fetch(ctx, c, scopeGroup, GroupKey(groupID), c.groupTTL, load)
}

// UserBalance returns the cached net balance for userID, calling load on a miss.
func (c *BalanceCache) UserBalance(ctx context.Context, userID string, load func(context.Context) (decimal.Decimal, error)) (decimal.Decimal, error) {
	return fetch(ctx, c, scopeUser, UserKey(userID), c.userTTL, load)
}

// Invalidate drops the group entry and the personal entries of userIDs.
// Callers must invoke it after committing a write and before acknowledging it.
func (c *BalanceCache) Invalidate(ctx context.Context, groupID string, userIDs ...string) error {
	keys := make([]string, 0, len(userIDs)+1)
	if groupID != "" {
		keys = append(keys, GroupKey(groupID))
	}
	for _, id := range userIDs {
		keys = append(keys, UserKey(id))
	}
	if len(keys) == 0 {
		return nil
	}

	c.mu.Lock()
	for _, key := range keys {
		c.epochs[key]++
		c.flight.Forget(key)
	}
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.Invalidations.Inc()
	}

	if err := c.store.Delete(ctx, keys...); err != nil {
		c.countError(scopeInvalidate, "delete")
		return err
	}
	return nil
}

func (c *BalanceCache) epoch(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epochs[key]
}

func (c *BalanceCache) countRequest(scope, result string) {
	if c.metrics != nil {
		c.metrics.CacheRequests.WithLabelValues(scope, result).Inc()
	}
}

func (c *BalanceCache) countError(scope, op string) {
	if c.metrics != nil {
		c.metrics.CacheErrors.WithLabelValues(scope, op).Inc()
	}
}

// fetch implements read-through caching for any JSON-encodable value.
// Backend errors are logged and treated as misses.
func fetch[T any](ctx context.Context, c *BalanceCache, scope, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	ch := c.flight.DoChan(key, func() (any, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()
		return readThrough(shared, c, scope, key, ttl, load)
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

func readThrough[T any](ctx context.Context, c *BalanceCache, scope, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	raw, err := c.store.Get(ctx, key)
	switch {
	case err == nil:
		var cached T
		if err := json.Unmarshal(raw, &cached); err == nil {
			c.countRequest(scope, "hit")
			return cached, nil
		}
		slog.Warn("Discarding undecodable cache entry", "key", key)
	case !errors.Is(err, ErrMiss):
		c.countError(scope, "get")
		slog.Warn("Cache read failed", "key", key, "error", err)
	}
	c.countRequest(scope, "miss")

	started := c.epoch(key)
	value, err := load(ctx)
	if err != nil {
		return value, err
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		slog.Warn("Cache encode failed", "key", key, "error", err)
		return value, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epochs[key] != started {
		slog.Debug("Skipping cache write after concurrent invalidation", "key", key)
		return value, nil
	}
	if err := c.store.SetWithTTL(ctx, key, encoded, ttl); err != nil {
		c.countError(scope, "set")
		slog.Warn("Cache write failed", "key", key, "error", err)
	}
	return value, nil
}
