package backendtest

import (
	"errors"
	"testing"

	"github.com/jmgilman/go/storage/core"
)

// TestCapabilities tests the optional size, checksum, MIME type,
// modification time and rename capabilities. Each capability is skipped
// when the backend doesn't implement it.
func TestCapabilities(t *testing.T, backend core.Backend, config Config) {
	t.Run("Size", func(t *testing.T) {
		sc, ok := backend.(core.SizeCalculator)
		if !ok {
			t.Skip("SizeCalculator not supported")
		}

		mustWrite(t, backend, "caps/size.txt", []byte("twelve bytes"))
		size, err := sc.Size("caps/size.txt")
		if err != nil {
			t.Fatalf("Size(caps/size.txt): got error %v, want nil", err)
		}
		if size != 12 {
			t.Errorf("Size(caps/size.txt): got %d, want 12", size)
		}

		if _, err := sc.Size("caps/missing.txt"); !errors.Is(err, core.ErrNotFound) {
			t.Errorf("Size(caps/missing.txt): got error %v, want core.ErrNotFound", err)
		}
	})

	t.Run("Checksum", func(t *testing.T) {
		cc, ok := backend.(core.ChecksumCalculator)
		if !ok {
			t.Skip("ChecksumCalculator not supported")
		}

		mustWrite(t, backend, "caps/sum-a.txt", []byte("same"))
		mustWrite(t, backend, "caps/sum-b.txt", []byte("same"))
		mustWrite(t, backend, "caps/sum-c.txt", []byte("different"))

		a, err := cc.Checksum("caps/sum-a.txt")
		if err != nil {
			t.Fatalf("Checksum(caps/sum-a.txt): got error %v, want nil", err)
		}
		if a == "" {
			t.Errorf("Checksum(caps/sum-a.txt): got empty checksum")
		}
		b, err := cc.Checksum("caps/sum-b.txt")
		if err != nil {
			t.Fatalf("Checksum(caps/sum-b.txt): got error %v, want nil", err)
		}
		c, err := cc.Checksum("caps/sum-c.txt")
		if err != nil {
			t.Fatalf("Checksum(caps/sum-c.txt): got error %v, want nil", err)
		}
		if a != b {
			t.Errorf("Checksum of equal content differs: %q vs %q", a, b)
		}
		if a == c {
			t.Errorf("Checksum of different content is equal: %q", a)
		}
	})

	t.Run("MimeType", func(t *testing.T) {
		mp, ok := backend.(core.MimeTypeProvider)
		if !ok {
			t.Skip("MimeTypeProvider not supported")
		}

		mustWrite(t, backend, "caps/page.html", []byte("<html><body>hi</body></html>"))
		mt, err := mp.MimeType("caps/page.html")
		if err != nil {
			t.Fatalf("MimeType(caps/page.html): got error %v, want nil", err)
		}
		if mt == "" {
			t.Errorf("MimeType(caps/page.html): got empty content type")
		}
	})

	t.Run("Mtime", func(t *testing.T) {
		mp, ok := backend.(core.MtimeProvider)
		if !ok {
			t.Skip("MtimeProvider not supported")
		}

		mustWrite(t, backend, "caps/mtime.txt", []byte("x"))
		mtime, err := mp.Mtime("caps/mtime.txt")
		if err != nil {
			t.Fatalf("Mtime(caps/mtime.txt): got error %v, want nil", err)
		}
		if mtime.IsZero() {
			t.Errorf("Mtime(caps/mtime.txt): got zero time")
		}

		if _, err := mp.Mtime("caps/missing.txt"); !errors.Is(err, core.ErrNotFound) {
			t.Errorf("Mtime(caps/missing.txt): got error %v, want core.ErrNotFound", err)
		}
	})

	t.Run("Rename", func(t *testing.T) {
		r, ok := backend.(core.Renamer)
		if !ok {
			t.Skip("Renamer not supported")
		}

		mustWrite(t, backend, "caps/from.txt", []byte("moving"))
		if err := r.Rename("caps/from.txt", "caps/moved/to.txt"); err != nil {
			t.Fatalf("Rename(caps/from.txt, caps/moved/to.txt): got error %v, want nil", err)
		}

		ok, err := backend.Exists("caps/from.txt")
		if err != nil || ok {
			t.Errorf("Exists(caps/from.txt) after Rename: got (%v, %v), want (false, nil)", ok, err)
		}
		got, err := backend.Read("caps/moved/to.txt")
		if err != nil {
			t.Fatalf("Read(caps/moved/to.txt): got error %v, want nil", err)
		}
		if string(got) != "moving" {
			t.Errorf("Read(caps/moved/to.txt): got %q, want %q", got, "moving")
		}

		if err := r.Rename("caps/missing.txt", "caps/other.txt"); !errors.Is(err, core.ErrNotFound) {
			t.Errorf("Rename(caps/missing.txt): got error %v, want core.ErrNotFound", err)
		}
	})
}
