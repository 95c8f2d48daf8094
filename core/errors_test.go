package core_test

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/jmgilman/go/storage/core"
)

// TestSentinelsMatchStdlib verifies the re-exported sentinels are the io/fs errors.
func TestSentinelsMatchStdlib(t *testing.T) {
	tests := []struct {
		name      string
		coreErr   error
		stdlibErr error
	}{
		{"ErrNotFound", core.ErrNotFound, fs.ErrNotExist},
		{"ErrExist", core.ErrExist, fs.ErrExist},
		{"ErrPermission", core.ErrPermission, fs.ErrPermission},
		{"ErrClosed", core.ErrClosed, fs.ErrClosed},
		{"ErrInvalid", core.ErrInvalid, fs.ErrInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.coreErr, tt.stdlibErr) || !errors.Is(tt.stdlibErr, tt.coreErr) {
				t.Errorf("%s does not match stdlib: core=%v, stdlib=%v", tt.name, tt.coreErr, tt.stdlibErr)
			}

			wrapped := &fs.PathError{Op: "read", Path: "a.txt", Err: tt.coreErr}
			if !errors.Is(wrapped, tt.stdlibErr) {
				t.Errorf("errors.Is(PathError(%s), stdlib) = false, want true", tt.name)
			}
		})
	}
}

// TestErrUnsupported verifies ErrUnsupported is distinct from the fs sentinels.
func TestErrUnsupported(t *testing.T) {
	if core.ErrUnsupported.Error() != "operation not supported" {
		t.Errorf("ErrUnsupported.Error() = %q", core.ErrUnsupported.Error())
	}
	if errors.Is(core.ErrUnsupported, core.ErrNotFound) {
		t.Error("ErrUnsupported should not equal ErrNotFound")
	}
}

// TestIsNotFound verifies IsNotFound follows the error chain.
func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"sentinel", core.ErrNotFound, true},
		{"path error", &fs.PathError{Op: "read", Path: "a.txt", Err: fs.ErrNotExist}, true},
		{"fmt wrapped", fmt.Errorf("backend: %w", core.ErrNotFound), true},
		{"exist", core.ErrExist, false},
		{"other", errors.New("disk on fire"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := core.IsNotFound(tt.err); got != tt.want {
				t.Errorf("IsNotFound(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
