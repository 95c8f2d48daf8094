package backendtest

import (
	"errors"
	"io"
	"os"
	"testing"

	"github.com/jmgilman/go/storage/core"
)

// TestStream tests the Stream returned by CreateStream.
func TestStream(t *testing.T, backend core.Backend, config Config) {
	t.Run("Key", func(t *testing.T) {
		s := backend.CreateStream("stream/key.txt")
		if s.Key() != "stream/key.txt" {
			t.Errorf("Key(): got %q, want %q", s.Key(), "stream/key.txt")
		}
	})

	t.Run("NoIOBeforeOpen", func(t *testing.T) {
		_ = backend.CreateStream("stream/lazy.txt")

		ok, err := backend.Exists("stream/lazy.txt")
		if err != nil || ok {
			t.Errorf("Exists(stream/lazy.txt): got (%v, %v), want (false, nil)", ok, err)
		}
	})

	t.Run("ReadExisting", func(t *testing.T) {
		mustWrite(t, backend, "stream/read.txt", []byte("streamed content"))

		s := backend.CreateStream("stream/read.txt")
		if err := s.Open(os.O_RDONLY); err != nil {
			t.Fatalf("Open(O_RDONLY): got error %v, want nil", err)
		}
		defer func() {
			if err := s.Close(); err != nil {
				t.Errorf("Close(): got error %v", err)
			}
		}()

		got, err := io.ReadAll(s)
		if err != nil {
			t.Fatalf("ReadAll(): got error %v, want nil", err)
		}
		if string(got) != "streamed content" {
			t.Errorf("ReadAll(): got %q, want %q", got, "streamed content")
		}
	})

	t.Run("ReadNotExist", func(t *testing.T) {
		s := backend.CreateStream("stream/missing.txt")
		err := s.Open(os.O_RDONLY)
		if !errors.Is(err, core.ErrNotFound) {
			t.Errorf("Open(O_RDONLY) on missing key: got error %v, want core.ErrNotFound", err)
		}
		_ = s.Close()
	})

	t.Run("WriteCreate", func(t *testing.T) {
		s := backend.CreateStream("stream/write.txt")
		if err := s.Open(os.O_WRONLY | os.O_CREATE | os.O_TRUNC); err != nil {
			t.Fatalf("Open(O_WRONLY|O_CREATE|O_TRUNC): got error %v, want nil", err)
		}
		for _, chunk := range []string{"chunk one, ", "chunk two"} {
			if _, err := io.WriteString(s, chunk); err != nil {
				t.Fatalf("Write(%q): got error %v, want nil", chunk, err)
			}
		}
		if err := s.Close(); err != nil {
			t.Fatalf("Close(): got error %v, want nil", err)
		}

		got, err := backend.Read("stream/write.txt")
		if err != nil {
			t.Fatalf("Read(stream/write.txt): got error %v, want nil", err)
		}
		if string(got) != "chunk one, chunk two" {
			t.Errorf("Read(stream/write.txt): got %q, want %q", got, "chunk one, chunk two")
		}
	})

	t.Run("WriteTruncatesExisting", func(t *testing.T) {
		mustWrite(t, backend, "stream/trunc.txt", []byte("a much longer original body"))

		s := backend.CreateStream("stream/trunc.txt")
		if err := s.Open(os.O_WRONLY | os.O_CREATE | os.O_TRUNC); err != nil {
			t.Fatalf("Open(O_WRONLY|O_CREATE|O_TRUNC): got error %v, want nil", err)
		}
		if _, err := io.WriteString(s, "short"); err != nil {
			t.Fatalf("Write(): got error %v, want nil", err)
		}
		if err := s.Close(); err != nil {
			t.Fatalf("Close(): got error %v, want nil", err)
		}

		got, err := backend.Read("stream/trunc.txt")
		if err != nil {
			t.Fatalf("Read(stream/trunc.txt): got error %v, want nil", err)
		}
		if string(got) != "short" {
			t.Errorf("Read(stream/trunc.txt): got %q, want %q", got, "short")
		}
	})

	t.Run("CloseIdempotent", func(t *testing.T) {
		mustWrite(t, backend, "stream/close.txt", []byte("x"))

		s := backend.CreateStream("stream/close.txt")
		if err := s.Open(os.O_RDONLY); err != nil {
			t.Fatalf("Open(O_RDONLY): got error %v, want nil", err)
		}
		if err := s.Close(); err != nil {
			t.Errorf("first Close(): got error %v, want nil", err)
		}
		if err := s.Close(); err != nil {
			t.Errorf("second Close(): got error %v, want nil", err)
		}
	})
}
