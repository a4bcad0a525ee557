// Package cache stores inspection results between runs.
//
// Inspecting a binary means spawning an external tool, and a typical closure
// touches the same toolchain DLLs on every build. Entries are keyed by the
// SHA-256 of the inspected file's contents (see [Keyer]), so a changed file
// always misses.
package cache

import (
	"context"
	"time"
)

// DefaultTTL is how long inspection results are kept.
const DefaultTTL = 30 * 24 * time.Hour

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the stored value and true on a hit. Expired or corrupt
	// entries are reported as misses, not errors.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases resources held by the cache.
	Close() error
}
