// Package cache memoizes schema lookups per connection fingerprint.
//
// Entries are enveloped with their own expiry time, and expiry is checked
// by the cache layer against an injectable clock, so every Store behaves
// the same whether or not it expires entries itself.
package cache

import (
	"context"
	"time"
)

// Store is a byte-oriented key/value backend. Implementations must be safe
// for concurrent use.
type Store interface {
	// Get returns the stored payload and true, or false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key. ttl is a hint; stores may keep the entry
	// longer, never shorter.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
