// Package cache stores rendered scenes and artifacts between runs.
//
// The CLI uses [FileCache] under the XDG cache directory; the server can use
// [RedisCache] so several instances share results. [NullCache] disables
// caching. Keys come from a [Keyer] so that every option affecting the output
// is part of the key.
package cache

import (
	"context"
	"time"
)

// TTLArtifact is how long an exported file is kept.
const TTLArtifact = 7 * 24 * time.Hour

// Cache is a byte store with per-entry expiry.
//
// Get reports a miss with ok=false and a nil error; errors are reserved for
// backend failures. A zero ttl in Set means the entry does not expire.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Clearer is implemented by caches that can drop all their entries.
type Clearer interface {
	Clear(ctx context.Context) (int, error)
}
