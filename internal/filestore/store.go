// Package filestore is the object storage seam behind the shared schema
// cache. A Store is bound to one bucket and key prefix when it is built,
// so callers address entries by cache key alone.
//
// Usage:
//
//	cfg := &filestore.Config{Endpoint: "localhost:9000", Bucket: "biconnector-cache"}
//	store, err := minio.New(ctx, cfg)
//	if err != nil { ... }
//	defer store.Close()
//
//	err = store.Write(ctx, "table_list_ab12", payload)
package filestore

import "context"

// Store is implemented by every object storage provider.
type Store interface {
	// Ping verifies the bucket is reachable with the configured credentials.
	Ping(ctx context.Context) error

	// Close releases any held resources.
	Close() error

	// Read loads the blob stored under key. A missing key yields an errs
	// NotFound error.
	Read(ctx context.Context, key string) (*Blob, error)

	// Write stores data under key, replacing any previous blob.
	Write(ctx context.Context, key string, data []byte) error
}
