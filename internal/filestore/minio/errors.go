package minio

import (
	"context"
	"errors"
	"net/http"

	miniogo "github.com/minio/minio-go/v7"

	"github.com/koustreak/DatServe/internal/errs"
)

// mapError translates a MinIO SDK error into a *errs.Error.
// It mirrors the mapError pattern used in the postgres and mysql drivers.
func mapError(err error, msg string) *errs.Error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	var resp miniogo.ErrorResponse
	if errors.As(err, &resp) {
		if kind := classify(resp); kind != errs.ErrKindUnknown {
			return errs.Wrap(kind, msg, err)
		}
	}

	// No S3 classification: a transport or I/O failure.
	return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
}

// classify maps an S3-protocol error to a kind. The S3 error code wins
// over the HTTP status: codes are stable across backends, and lookup
// failures can arrive with a 200-range status.
func classify(resp miniogo.ErrorResponse) errs.ErrKind {
	switch resp.Code {
	case "NoSuchBucket", "NoSuchKey":
		return errs.ErrKindNotFound
	case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
		return errs.ErrKindPermissionDenied
	case "InvalidBucketName", "InvalidObjectName", "KeyTooLongError":
		return errs.ErrKindInvalidInput
	case "RequestTimeout", "SlowDown":
		return errs.ErrKindTimeout
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return errs.ErrKindNotFound
	case http.StatusForbidden, http.StatusUnauthorized:
		return errs.ErrKindPermissionDenied
	case http.StatusBadRequest:
		return errs.ErrKindInvalidInput
	}

	return errs.ErrKindUnknown
}
