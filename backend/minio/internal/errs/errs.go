// Package errs translates MinIO client errors into storage errors.
package errs

import (
	"context"
	"errors"
	"io/fs"
	"net"
	"net/http"

	"github.com/jmgilman/go/storage/core"
	serrors "github.com/jmgilman/go/storage/errors"
	"github.com/minio/minio-go/v7"
)

// Translate converts a MinIO error into a PlatformError. Not-found and
// permission errors carry the matching core sentinel in a fs.PathError.
// Returns nil if err is nil.
func Translate(op, key string, err error) error {
	if err == nil {
		return nil
	}

	resp := minio.ToErrorResponse(err)
	switch {
	case resp.Code == "NoSuchKey", resp.Code == "NoSuchBucket", resp.StatusCode == http.StatusNotFound:
		return serrors.Wrap(PathError(op, key, core.ErrNotFound), serrors.CodeNotFound, "object not found")
	case resp.Code == "InvalidAccessKeyId", resp.Code == "SignatureDoesNotMatch":
		return serrors.Wrap(PathError(op, key, core.ErrPermission), serrors.CodeUnauthorized, "invalid credentials")
	case resp.Code == "AccessDenied", resp.StatusCode == http.StatusForbidden:
		return serrors.Wrap(PathError(op, key, core.ErrPermission), serrors.CodeForbidden, "access denied")
	case resp.Code == "SlowDown", resp.StatusCode == http.StatusTooManyRequests:
		return serrors.Wrap(PathError(op, key, err), serrors.CodeRateLimit, "request rate exceeded")
	case resp.StatusCode == http.StatusServiceUnavailable:
		return serrors.Wrap(PathError(op, key, err), serrors.CodeUnavailable, "service unavailable")
	case errors.Is(err, context.DeadlineExceeded):
		return serrors.Wrap(PathError(op, key, err), serrors.CodeTimeout, op+" timed out")
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return serrors.Wrap(PathError(op, key, err), serrors.CodeNetwork, "network error")
	}

	return serrors.Wrap(PathError(op, key, err), serrors.CodeStorage, op+" failed")
}

// PathError wraps an error in a fs.PathError for the given operation and key.
// If the error is nil, returns nil.
func PathError(op, key string, err error) error {
	if err == nil {
		return nil
	}
	return &fs.PathError{Op: op, Path: key, Err: err}
}
