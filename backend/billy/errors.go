package billy

import (
	"errors"
	"io/fs"
	"os"

	"github.com/go-git/go-billy/v5"
	"github.com/jmgilman/go/storage/core"
	serrors "github.com/jmgilman/go/storage/errors"
)

// translate converts billy and os errors into storage errors carrying the
// matching core sentinel.
func translate(op, key string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case os.IsNotExist(err):
		return serrors.Wrap(pathError(op, key, core.ErrNotFound), serrors.CodeNotFound, "file not found")
	case os.IsExist(err):
		return serrors.Wrap(pathError(op, key, core.ErrExist), serrors.CodeAlreadyExists, "file already exists")
	case os.IsPermission(err):
		return serrors.Wrap(pathError(op, key, core.ErrPermission), serrors.CodeForbidden, "permission denied")
	case errors.Is(err, billy.ErrCrossedBoundary):
		return serrors.Wrap(pathError(op, key, err), serrors.CodeInvalidInput, "key escapes backend root")
	}

	return serrors.Wrap(pathError(op, key, err), serrors.CodeStorage, op+" failed")
}

func pathError(op, key string, err error) error {
	return &fs.PathError{Op: op, Path: key, Err: err}
}
