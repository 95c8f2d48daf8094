package backendtest

import (
	"errors"
	"testing"

	"github.com/jmgilman/go/storage/core"
)

// TestDelete tests Delete.
func TestDelete(t *testing.T, backend core.Backend, config Config) {
	t.Run("DeleteExisting", func(t *testing.T) {
		mustWrite(t, backend, "del/file.txt", []byte("bye"))

		if err := backend.Delete("del/file.txt"); err != nil {
			t.Fatalf("Delete(del/file.txt): got error %v, want nil", err)
		}

		ok, err := backend.Exists("del/file.txt")
		if err != nil || ok {
			t.Errorf("Exists(del/file.txt) after Delete: got (%v, %v), want (false, nil)", ok, err)
		}
	})

	t.Run("DeleteNotExist", func(t *testing.T) {
		err := backend.Delete("del/missing.txt")
		if !errors.Is(err, core.ErrNotFound) {
			t.Errorf("Delete(del/missing.txt): got error %v, want core.ErrNotFound", err)
		}
	})

	t.Run("DeleteTwice", func(t *testing.T) {
		mustWrite(t, backend, "del/twice.txt", []byte("x"))

		if err := backend.Delete("del/twice.txt"); err != nil {
			t.Fatalf("Delete(del/twice.txt): got error %v, want nil", err)
		}
		if err := backend.Delete("del/twice.txt"); !errors.Is(err, core.ErrNotFound) {
			t.Errorf("second Delete(del/twice.txt): got error %v, want core.ErrNotFound", err)
		}
	})

	t.Run("DeleteKeepsSiblings", func(t *testing.T) {
		mustWrite(t, backend, "del/dir/one.txt", []byte("1"))
		mustWrite(t, backend, "del/dir/two.txt", []byte("2"))

		if err := backend.Delete("del/dir/one.txt"); err != nil {
			t.Fatalf("Delete(del/dir/one.txt): got error %v, want nil", err)
		}

		ok, err := backend.Exists("del/dir/two.txt")
		if err != nil || !ok {
			t.Errorf("Exists(del/dir/two.txt): got (%v, %v), want (true, nil)", ok, err)
		}
	})
}
