package cache

import (
	"context"
	"time"

	"github.com/koustreak/biconnector/internal/errs"
	"github.com/koustreak/biconnector/internal/filestore"
)

// ObjectStore keeps entries as blobs in an object storage bucket, so
// several connector processes can share one cache. Expiry stays with the
// envelope; stale blobs are simply overwritten.
type ObjectStore struct {
	fs filestore.Store
}

var _ Store = (*ObjectStore)(nil)

// NewObjectStore wraps a bucket-bound filestore.Store.
func NewObjectStore(fs filestore.Store) *ObjectStore {
	return &ObjectStore{fs: fs}
}

func (s *ObjectStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	blob, err := s.fs.Read(ctx, key)
	if err != nil {
		if errs.IsNotFound(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return blob.Data, true, nil
}

func (s *ObjectStore) Set(ctx context.Context, key string, value []byte, _ time.Duration) error {
	if err := s.fs.Write(ctx, key, value); err != nil {
		return errs.Wrap(errs.ErrKindCacheWrite, "failed to store cache object", err)
	}
	return nil
}
