package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/koustreak/biconnector/internal/database"
	"github.com/koustreak/biconnector/internal/logger"
	"github.com/koustreak/biconnector/internal/metrics"
)

// Kind names what an entry holds. It prefixes the key and labels metrics.
type Kind string

const (
	KindTableList        Kind = "table_list"
	KindTableDescription Kind = "table_desc"
)

// envelope is the stored form of an entry.
type envelope struct {
	Value     json.RawMessage `json:"value"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// Cache fronts a Store with expiry, logging and metrics.
type Cache struct {
	store   Store
	log     *logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithLogger sets the logger used for swallowed store failures.
func WithLogger(log *logger.Logger) Option {
	return func(c *Cache) { c.log = log }
}

// WithMetrics records hits, misses and write failures.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) { c.metrics = m }
}

// New wraps store.
func New(store Store, opts ...Option) *Cache {
	c := &Cache{store: store, log: logger.Nop(), now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key is a cache key together with the kind of entry it addresses.
type Key struct {
	Kind Kind
	ID   string
}

// String renders the key as stored: the kind, an underscore, then the id.
func (k Key) String() string {
	return string(k.Kind) + "_" + k.ID
}

// Fingerprint derives a deterministic key from the connection descriptor,
// its dialect, the entry kind and the operation argument (search string or
// table name). The descriptor is hashed, never stored.
func Fingerprint(kind Kind, d *database.Descriptor, arg string) Key {
	payload := struct {
		Dialect    database.Dialect    `json:"dialect"`
		Connection database.Descriptor `json:"connection"`
		Kind       Kind                `json:"kind"`
		Arg        string              `json:"arg"`
	}{Kind: kind, Arg: arg}
	if d != nil {
		payload.Dialect = d.Dialect
		payload.Connection = *d
	}

	// Marshalling a struct of strings and ints cannot fail.
	b, _ := json.Marshal(payload)
	sum := sha256.Sum256(b)
	return Key{Kind: kind, ID: hex.EncodeToString(sum[:])}
}

// GetOrCompute returns the cached value for key while it is fresh.
// Otherwise it calls compute, stores the result for ttl and returns it.
// Unreadable or undecodable entries count as misses. Store write failures
// are logged and swallowed; compute errors are returned and nothing is
// stored.
func GetOrCompute[T any](ctx context.Context, c *Cache, key Key, ttl time.Duration, compute func(ctx context.Context) (T, error)) (T, error) {
	if v, ok := lookup[T](ctx, c, key); ok {
		c.metrics.CacheEvent(string(key.Kind), metrics.CacheHit)
		return v, nil
	}
	c.metrics.CacheEvent(string(key.Kind), metrics.CacheMiss)

	v, err := compute(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	c.put(ctx, key, v, ttl)
	return v, nil
}

func lookup[T any](ctx context.Context, c *Cache, key Key) (T, bool) {
	var zero T

	raw, ok, err := c.store.Get(ctx, key.String())
	if err != nil {
		c.log.WarnWith("cache read failed, treating as miss", map[string]interface{}{
			"key":   key.String(),
			"error": err.Error(),
		})
		return zero, false
	}
	if !ok {
		return zero, false
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return zero, false
	}
	if !c.now().Before(env.ExpiresAt) {
		return zero, false
	}

	var v T
	if err := json.Unmarshal(env.Value, &v); err != nil {
		return zero, false
	}
	return v, true
}

// put writes the enveloped value. Failures never reach the caller.
func (c *Cache) put(ctx context.Context, key Key, v any, ttl time.Duration) {
	value, err := json.Marshal(v)
	if err == nil {
		var raw []byte
		raw, err = json.Marshal(envelope{Value: value, ExpiresAt: c.now().Add(ttl)})
		if err == nil {
			err = c.store.Set(ctx, key.String(), raw, ttl)
		}
	}
	if err != nil {
		c.metrics.CacheEvent(string(key.Kind), metrics.CacheWriteFailure)
		c.log.WarnWith("cache write failed", map[string]interface{}{
			"key":   key.String(),
			"error": err.Error(),
		})
	}
}
