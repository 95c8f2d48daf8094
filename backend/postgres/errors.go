package postgres

import (
	"context"
	"errors"
	"io/fs"
	"net"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmgilman/go/storage/core"
	serrors "github.com/jmgilman/go/storage/errors"
)

// translate converts pgx errors into storage errors.
func translate(op, key string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return serrors.Wrap(pathError(op, key, core.ErrNotFound), serrors.CodeNotFound, "object not found")
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "23505":
			return serrors.Wrap(pathError(op, key, core.ErrExist), serrors.CodeAlreadyExists, "object already exists")
		case strings.HasPrefix(pgErr.Code, "28"):
			return serrors.Wrap(pathError(op, key, core.ErrPermission), serrors.CodeUnauthorized, "authentication failed")
		case pgErr.Code == "42501":
			return serrors.Wrap(pathError(op, key, core.ErrPermission), serrors.CodeForbidden, "permission denied")
		case pgErr.Code == "42P01":
			return serrors.Wrap(pathError(op, key, err), serrors.CodeStorage, "table missing, run Migrate")
		case pgErr.Code == "53300", strings.HasPrefix(pgErr.Code, "57P"):
			return serrors.Wrap(pathError(op, key, err), serrors.CodeUnavailable, "database unavailable")
		case pgErr.Code == "57014":
			return serrors.Wrap(pathError(op, key, err), serrors.CodeTimeout, op+" canceled")
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
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
