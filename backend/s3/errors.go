package s3

import (
	"context"
	"errors"
	"io/fs"
	"net"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/jmgilman/go/storage/core"
	serrors "github.com/jmgilman/go/storage/errors"
)

// translate converts AWS SDK errors into storage errors. Not-found, conflict
// and permission errors carry the matching core sentinel.
func translate(op, key string, err error) error {
	if err == nil {
		return nil
	}

	var (
		notFound *types.NotFound
		noKey    *types.NoSuchKey
		noBucket *types.NoSuchBucket
	)
	if errors.As(err, &notFound) || errors.As(err, &noKey) || errors.As(err, &noBucket) {
		return serrors.Wrap(pathError(op, key, core.ErrNotFound), serrors.CodeNotFound, "object not found")
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "PreconditionFailed", "ConditionalRequestConflict":
			return serrors.Wrap(pathError(op, key, core.ErrExist), serrors.CodeAlreadyExists, "object already exists")
		case "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return serrors.Wrap(pathError(op, key, core.ErrPermission), serrors.CodeUnauthorized, "invalid credentials")
		case "AccessDenied":
			return serrors.Wrap(pathError(op, key, core.ErrPermission), serrors.CodeForbidden, "access denied")
		case "SlowDown":
			return serrors.Wrap(pathError(op, key, err), serrors.CodeRateLimit, "request rate exceeded")
		}
	}

	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) {
		switch respErr.HTTPStatusCode() {
		case http.StatusNotFound:
			return serrors.Wrap(pathError(op, key, core.ErrNotFound), serrors.CodeNotFound, "object not found")
		case http.StatusPreconditionFailed:
			return serrors.Wrap(pathError(op, key, core.ErrExist), serrors.CodeAlreadyExists, "object already exists")
		case http.StatusForbidden:
			return serrors.Wrap(pathError(op, key, core.ErrPermission), serrors.CodeForbidden, "access denied")
		case http.StatusTooManyRequests:
			return serrors.Wrap(pathError(op, key, err), serrors.CodeRateLimit, "request rate exceeded")
		case http.StatusServiceUnavailable:
			return serrors.Wrap(pathError(op, key, err), serrors.CodeUnavailable, "service unavailable")
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return serrors.Wrap(pathError(op, key, err), serrors.CodeTimeout, op+" timed out")
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return serrors.Wrap(pathError(op, key, err), serrors.CodeNetwork, "network error")
	}

	return serrors.Wrap(pathError(op, key, err), serrors.CodeStorage, op+" failed")
}

func pathError(op, key string, err error) error {
	return &fs.PathError{Op: op, Path: key, Err: err}
}
