package backendtest

import (
	"bytes"
	"errors"
	"testing"

	"github.com/jmgilman/go/storage/core"
)

// TestReadWrite tests Exists, Read and Write.
func TestReadWrite(t *testing.T, backend core.Backend, config Config) {
	t.Run("WriteThenRead", func(t *testing.T) {
		data := []byte("hello, storage")
		n, err := backend.Write("rw/hello.txt", data, true)
		if err != nil {
			t.Fatalf("Write(rw/hello.txt): got error %v, want nil", err)
		}
		if n != int64(len(data)) {
			t.Errorf("Write(rw/hello.txt): wrote %d bytes, want %d", n, len(data))
		}

		got, err := backend.Read("rw/hello.txt")
		if err != nil {
			t.Fatalf("Read(rw/hello.txt): got error %v, want nil", err)
		}
		if !bytes.Equal(got, data) {
			t.Errorf("Read(rw/hello.txt): got %q, want %q", got, data)
		}
	})

	t.Run("Exists", func(t *testing.T) {
		mustWrite(t, backend, "rw/exists.txt", []byte("x"))

		ok, err := backend.Exists("rw/exists.txt")
		if err != nil || !ok {
			t.Errorf("Exists(rw/exists.txt): got (%v, %v), want (true, nil)", ok, err)
		}

		ok, err = backend.Exists("rw/missing.txt")
		if err != nil || ok {
			t.Errorf("Exists(rw/missing.txt): got (%v, %v), want (false, nil)", ok, err)
		}
	})

	t.Run("ReadNotExist", func(t *testing.T) {
		_, err := backend.Read("rw/missing.txt")
		if !errors.Is(err, core.ErrNotFound) {
			t.Errorf("Read(rw/missing.txt): got error %v, want core.ErrNotFound", err)
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		mustWrite(t, backend, "rw/over.txt", []byte("first version"))
		mustWrite(t, backend, "rw/over.txt", []byte("second"))

		got, err := backend.Read("rw/over.txt")
		if err != nil {
			t.Fatalf("Read(rw/over.txt): got error %v, want nil", err)
		}
		if string(got) != "second" {
			t.Errorf("Read(rw/over.txt): got %q, want %q", got, "second")
		}
	})

	t.Run("NoOverwrite", func(t *testing.T) {
		mustWrite(t, backend, "rw/keep.txt", []byte("original"))

		_, err := backend.Write("rw/keep.txt", []byte("replacement"), false)
		if !errors.Is(err, core.ErrExist) {
			t.Errorf("Write(rw/keep.txt, overwrite=false): got error %v, want core.ErrExist", err)
		}

		got, err := backend.Read("rw/keep.txt")
		if err != nil {
			t.Fatalf("Read(rw/keep.txt): got error %v, want nil", err)
		}
		if string(got) != "original" {
			t.Errorf("Read(rw/keep.txt): got %q, want %q", got, "original")
		}

		if _, err := backend.Write("rw/fresh.txt", []byte("new"), false); err != nil {
			t.Errorf("Write(rw/fresh.txt, overwrite=false): got error %v, want nil", err)
		}
	})

	t.Run("EmptyContent", func(t *testing.T) {
		n, err := backend.Write("rw/empty.txt", []byte{}, true)
		if err != nil {
			t.Fatalf("Write(rw/empty.txt): got error %v, want nil", err)
		}
		if n != 0 {
			t.Errorf("Write(rw/empty.txt): wrote %d bytes, want 0", n)
		}

		ok, err := backend.Exists("rw/empty.txt")
		if err != nil || !ok {
			t.Errorf("Exists(rw/empty.txt): got (%v, %v), want (true, nil)", ok, err)
		}

		got, err := backend.Read("rw/empty.txt")
		if err != nil {
			t.Fatalf("Read(rw/empty.txt): got error %v, want nil", err)
		}
		if len(got) != 0 {
			t.Errorf("Read(rw/empty.txt): got %d bytes, want 0", len(got))
		}
	})

	t.Run("NestedKey", func(t *testing.T) {
		mustWrite(t, backend, "rw/a/b/c/deep.txt", []byte("deep"))

		got, err := backend.Read("rw/a/b/c/deep.txt")
		if err != nil {
			t.Fatalf("Read(rw/a/b/c/deep.txt): got error %v, want nil", err)
		}
		if string(got) != "deep" {
			t.Errorf("Read(rw/a/b/c/deep.txt): got %q, want %q", got, "deep")
		}
	})

	t.Run("Type", func(t *testing.T) {
		if backend.Type() == core.BackendTypeUnknown {
			t.Errorf("Type(): got %v, want a known backend type", backend.Type())
		}
	})
}
