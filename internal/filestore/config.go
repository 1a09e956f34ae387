package filestore

import (
	"fmt"
	"strings"

	"github.com/koustreak/biconnector/internal/errs"
)

// Config binds a Store to one bucket on an S3-compatible server.
type Config struct {
	// Endpoint is host:port, e.g. "localhost:9000".
	Endpoint  string
	AccessKey string
	SecretKey string

	// Region is only needed by region-aware backends such as AWS S3.
	Region string
	UseSSL bool

	Bucket string

	// Prefix is prepended to every key, so several deployments can share
	// a bucket. It is used verbatim; include the trailing "/" if wanted.
	Prefix string
}

// Validate reports the first missing setting.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Endpoint) == "":
		return errs.New(errs.ErrKindInvalidInput, "object store endpoint is required")
	case strings.TrimSpace(c.Bucket) == "":
		return errs.New(errs.ErrKindInvalidInput, "object store bucket is required")
	}
	return nil
}

// ObjectName maps a cache key to its object name inside the bucket.
func (c *Config) ObjectName(key string) string {
	return c.Prefix + key
}

// String identifies the target without credentials.
func (c *Config) String() string {
	scheme := "http"
	if c.UseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, c.Endpoint, c.Bucket, c.Prefix)
}
