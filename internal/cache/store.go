// Package cache memoizes balance aggregates in a pluggable key-value store.
//
// The engine never talks to a cache directly; services wrap their loads in a
// BalanceCache and call Invalidate after every ledger write.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Store.Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Store is the minimal key-value contract the balance cache needs.
type Store interface {
	// Get returns the stored bytes or ErrMiss.
	Get(ctx context.Context, key string) ([]byte, error)

	// SetWithTTL stores value under key until ttl elapses.
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
}
