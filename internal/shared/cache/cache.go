// Package cache provides the TTL key-value store used for interview session
// state and access-attempt counters.
package cache

import (
	"context"
	"time"
)

// Cache is a key-value store with per-key expiry.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) error
	// Incr atomically increments key. ttl is applied only when the key is created,
	// so a counter expires a fixed window after its first increment.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}
