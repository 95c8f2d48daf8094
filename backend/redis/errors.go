package redis

import (
	"context"
	"errors"
	"io/fs"
	"net"

	"github.com/jmgilman/go/storage/core"
	serrors "github.com/jmgilman/go/storage/errors"
	"github.com/redis/go-redis/v9"
)

// translate converts go-redis errors into storage errors.
func translate(op, key string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, redis.Nil), redis.HasErrorPrefix(err, "no such key"):
		return serrors.Wrap(pathError(op, key, core.ErrNotFound), serrors.CodeNotFound, "key not found")
	case redis.HasErrorPrefix(err, "NOAUTH"), redis.HasErrorPrefix(err, "WRONGPASS"):
		return serrors.Wrap(pathError(op, key, core.ErrPermission), serrors.CodeUnauthorized, "authentication failed")
	case redis.HasErrorPrefix(err, "NOPERM"):
		return serrors.Wrap(pathError(op, key, core.ErrPermission), serrors.CodeForbidden, "permission denied")
	case redis.HasErrorPrefix(err, "LOADING"), redis.HasErrorPrefix(err, "BUSY"), redis.HasErrorPrefix(err, "TRYAGAIN"):
		return serrors.Wrap(pathError(op, key, err), serrors.CodeUnavailable, "server busy")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, redis.ErrPoolTimeout):
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
