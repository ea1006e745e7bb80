package minio

import (
	"context"
	"errors"
	"net/http"
	"testing"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"

	"github.com/koustreak/DatServe/internal/errs"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want func(error) bool
	}{
		{"nil passes through", nil, nil},
		{"deadline", context.DeadlineExceeded, errs.IsTimeout},
		{"404 status", miniogo.ErrorResponse{StatusCode: http.StatusNotFound}, errs.IsNotFound},
		{"403 status", miniogo.ErrorResponse{StatusCode: http.StatusForbidden}, errs.IsPermissionDenied},
		{"no such bucket", miniogo.ErrorResponse{Code: "NoSuchBucket"}, errs.IsNotFound},
		{"bad access key", miniogo.ErrorResponse{Code: "InvalidAccessKeyId"}, errs.IsPermissionDenied},
		{"invalid bucket name", miniogo.ErrorResponse{Code: "InvalidBucketName"}, errs.IsInvalidInput},
		{"slow down", miniogo.ErrorResponse{Code: "SlowDown"}, errs.IsTimeout},
		{"plain network error", errors.New("dial tcp: connection refused"), errs.IsConnectionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapError(tt.in, "op failed")
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			assert.True(t, tt.want(got), "got kind %v", errs.KindOf(got))
		})
	}
}
