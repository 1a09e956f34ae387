// Package minio stores cache blobs in a MinIO or other S3-compatible bucket.
package minio

import (
	"bytes"
	"context"

	"github.com/koustreak/biconnector/internal/errs"
	"github.com/koustreak/biconnector/internal/filestore"
	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Driver implements filestore.Store against a single bucket.
// It is safe for concurrent use by multiple goroutines.
type Driver struct {
	client *miniogo.Client
	cfg    filestore.Config
}

var _ filestore.Store = (*Driver)(nil)

// New builds a client for cfg, creates the bucket when it is missing and
// returns once the bucket is reachable.
func New(ctx context.Context, cfg *filestore.Config) (*Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "failed to create minio client", err)
	}

	d := &Driver{client: client, cfg: *cfg}
	if err := d.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Driver) ensureBucket(ctx context.Context) error {
	exists, err := d.client.BucketExists(ctx, d.cfg.Bucket)
	if err != nil {
		return mapError(err, "failed to check bucket "+d.cfg.Bucket)
	}
	if exists {
		return nil
	}
	err = d.client.MakeBucket(ctx, d.cfg.Bucket, miniogo.MakeBucketOptions{Region: d.cfg.Region})
	if err != nil {
		// another process may have won the race
		if code := miniogo.ToErrorResponse(err).Code; code == "BucketAlreadyOwnedByYou" || code == "BucketAlreadyExists" {
			return nil
		}
		return mapError(err, "failed to create bucket "+d.cfg.Bucket)
	}
	return nil
}

// Ping checks the bound bucket rather than listing all buckets, so a key
// scoped to one bucket is enough.
func (d *Driver) Ping(ctx context.Context) error {
	exists, err := d.client.BucketExists(ctx, d.cfg.Bucket)
	if err != nil {
		return mapError(err, "ping failed")
	}
	if !exists {
		return errs.Newf(errs.ErrKindNotFound, "bucket %s does not exist", d.cfg.Bucket)
	}
	return nil
}

// Close is a no-op; the SDK client holds no persistent connections.
func (d *Driver) Close() error {
	return nil
}

// Read loads the blob for key. GetObject is lazy, so a missing key only
// surfaces on the first read and is mapped there.
func (d *Driver) Read(ctx context.Context, key string) (*filestore.Blob, error) {
	obj, err := d.client.GetObject(ctx, d.cfg.Bucket, d.cfg.ObjectName(key), miniogo.GetObjectOptions{})
	if err != nil {
		return nil, mapError(err, "failed to get object")
	}
	defer obj.Close()

	blob, err := filestore.ReadBlob(key, obj)
	if err != nil {
		if errs.IsInvalidInput(err) {
			return nil, err
		}
		return nil, mapError(err, "failed to read object")
	}

	if stat, err := obj.Stat(); err == nil {
		blob.ETag = stat.ETag
		blob.Modified = stat.LastModified
	}
	return blob, nil
}

// Write uploads data as a single JSON object.
func (d *Driver) Write(ctx context.Context, key string, data []byte) error {
	_, err := d.client.PutObject(ctx, d.cfg.Bucket, d.cfg.ObjectName(key),
		bytes.NewReader(data), int64(len(data)),
		miniogo.PutObjectOptions{ContentType: filestore.ContentTypeJSON},
	)
	if err != nil {
		return mapError(err, "failed to put object")
	}
	return nil
}
