package filestore

import (
	"fmt"
	"io"
	"time"

	"github.com/koustreak/biconnector/internal/errs"
)

// ContentTypeJSON is the content type cache blobs are written with.
const ContentTypeJSON = "application/json"

// MaxBlobBytes caps what ReadBlob loads. Cache entries are small JSON
// documents; anything larger is rejected rather than buffered.
const MaxBlobBytes = 8 << 20

// Blob is one cache entry as stored in the bucket.
type Blob struct {
	// Key is the cache key, without the configured prefix.
	Key  string
	Data []byte

	ETag     string
	Modified time.Time
}

// ReadBlob drains r into a Blob for key. Readers longer than MaxBlobBytes
// yield an ErrKindInvalidInput error.
func ReadBlob(key string, r io.Reader) (*Blob, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxBlobBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxBlobBytes {
		return nil, errs.Newf(errs.ErrKindInvalidInput, "blob %s exceeds %d bytes", key, MaxBlobBytes)
	}
	return &Blob{Key: key, Data: data}, nil
}

func (b *Blob) String() string {
	return fmt.Sprintf("%s (%d bytes)", b.Key, len(b.Data))
}
