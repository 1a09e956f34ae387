package minio

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/koustreak/biconnector/internal/errs"
	"github.com/koustreak/biconnector/internal/filestore"
	miniogo "github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind errs.ErrKind
	}{
		{"deadline", context.DeadlineExceeded, errs.ErrKindTimeout},
		{"no such key", miniogo.ErrorResponse{Code: "NoSuchKey", StatusCode: http.StatusNotFound}, errs.ErrKindNotFound},
		{"no such bucket", miniogo.ErrorResponse{Code: "NoSuchBucket"}, errs.ErrKindNotFound},
		{"bare 404", miniogo.ErrorResponse{StatusCode: http.StatusNotFound}, errs.ErrKindNotFound},
		{"access denied", miniogo.ErrorResponse{Code: "AccessDenied", StatusCode: http.StatusForbidden}, errs.ErrKindPermissionDenied},
		{"bad key", miniogo.ErrorResponse{Code: "KeyTooLongError", StatusCode: http.StatusBadRequest}, errs.ErrKindInvalidInput},
		{"slow down", miniogo.ErrorResponse{Code: "SlowDown", StatusCode: http.StatusServiceUnavailable}, errs.ErrKindTimeout},
		{"entity too large", miniogo.ErrorResponse{Code: "EntityTooLarge", StatusCode: http.StatusBadRequest}, errs.ErrKindInvalidInput},
		{"bare 503", miniogo.ErrorResponse{StatusCode: http.StatusServiceUnavailable}, errs.ErrKindTimeout},
		{"unknown code", miniogo.ErrorResponse{Code: "InternalError", StatusCode: http.StatusInternalServerError}, errs.ErrKindConnectionFailed},
		{"wrapped", fmt.Errorf("get: %w", miniogo.ErrorResponse{Code: "NoSuchKey"}), errs.ErrKindNotFound},
		{"network", errors.New("dial tcp: connection refused"), errs.ErrKindConnectionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapError(tt.err, "op")
			assert.Equal(t, tt.kind, errs.KindOf(got))
		})
	}
}

func TestMapError_Nil(t *testing.T) {
	assert.NoError(t, mapError(nil, "op"))
}

func TestNew_RejectsIncompleteConfig(t *testing.T) {
	_, err := New(context.Background(), &filestore.Config{Endpoint: "localhost:9000"})
	assert.True(t, errs.IsInvalidInput(err))
}
