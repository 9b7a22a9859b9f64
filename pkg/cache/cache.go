// Package cache persists resolved mod metadata across builds.
//
// The cache is a key-value store keyed by (platform, project, version); a
// changed version produces a new key, so entries never need explicit
// invalidation. Two backends are provided: [FileCache] for local builds and
// [RedisCache] for CI runners sharing one store. [NullCache] disables
// caching entirely.
//
// Values are opaque byte slices; callers marshal their own JSON. Only
// confirmed successful resolutions should be stored.
package cache

import (
	"context"
	"time"
)

// Cache is the persistence interface for resolved metadata.
//
// Get is side-effect-free. Set must be durable: once it returns nil, a
// subsequent process must observe the entry. Implementations must tolerate
// concurrent Get/Set from multiple in-flight resolutions; last-writer-wins
// per key is acceptable since values for the same key are stable.
type Cache interface {
	// Get retrieves the value for key. The second return value reports
	// whether the key was present and fresh.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of 0 means the entry never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the backend.
	Close() error
}
