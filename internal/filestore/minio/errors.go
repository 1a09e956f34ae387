package minio

import (
	"context"
	"errors"
	"net/http"

	"github.com/koustreak/biconnector/internal/errs"
	miniogo "github.com/minio/minio-go/v7"
)

// S3 error codes the cache cares about. Anything unlisted falls back to
// the HTTP status.
var codeKinds = map[string]errs.ErrKind{
	"NoSuchBucket":          errs.ErrKindNotFound,
	"NoSuchKey":             errs.ErrKindNotFound,
	"AccessDenied":          errs.ErrKindPermissionDenied,
	"InvalidAccessKeyId":    errs.ErrKindPermissionDenied,
	"SignatureDoesNotMatch": errs.ErrKindPermissionDenied,
	"InvalidBucketName":     errs.ErrKindInvalidInput,
	"InvalidObjectName":     errs.ErrKindInvalidInput,
	"KeyTooLongError":       errs.ErrKindInvalidInput,
	"EntityTooLarge":        errs.ErrKindInvalidInput,
	"RequestTimeout":        errs.ErrKindTimeout,
	"SlowDown":              errs.ErrKindTimeout,
}

func statusKind(status int) (errs.ErrKind, bool) {
	switch {
	case status == http.StatusNotFound:
		return errs.ErrKindNotFound, true
	case status == http.StatusForbidden || status == http.StatusUnauthorized:
		return errs.ErrKindPermissionDenied, true
	case status == http.StatusBadRequest:
		return errs.ErrKindInvalidInput, true
	case status == http.StatusServiceUnavailable:
		return errs.ErrKindTimeout, true
	}
	return errs.ErrKindUnknown, false
}

// mapError translates a MinIO SDK error into a *errs.Error. Network and
// unrecognised failures are reported as ErrKindConnectionFailed.
func mapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	var resp miniogo.ErrorResponse
	if errors.As(err, &resp) {
		if kind, ok := codeKinds[resp.Code]; ok {
			return errs.Wrap(kind, msg, err)
		}
		if kind, ok := statusKind(resp.StatusCode); ok {
			return errs.Wrap(kind, msg, err)
		}
	}
	return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
}
