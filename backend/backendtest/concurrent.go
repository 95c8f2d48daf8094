package backendtest

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/jmgilman/go/storage/core"
	"github.com/jmgilman/go/storage/filesystem"
	"golang.org/x/sync/errgroup"
)

// TestConcurrentHandles writes and reads through independent file handles
// sharing one Filesystem from several goroutines.
func TestConcurrentHandles(t *testing.T, backend core.Backend, config Config) {
	workers := config.Concurrency
	if workers == 0 {
		workers = 8
	}

	fsys := filesystem.New(backend)

	var g errgroup.Group
	for i := range workers {
		g.Go(func() error {
			key := fmt.Sprintf("concurrent/worker-%d.txt", i)
			want := bytes.Repeat([]byte{byte('a' + i%26)}, 64+i)

			if _, err := fsys.CreateFile(key).SetContent(want, nil); err != nil {
				return fmt.Errorf("SetContent(%s): %w", key, err)
			}

			got, err := fsys.CreateFile(key).Content(nil)
			if err != nil {
				return fmt.Errorf("Content(%s): %w", key, err)
			}
			if !bytes.Equal(got, want) {
				return fmt.Errorf("Content(%s): got %d bytes, want %d", key, len(got), len(want))
			}

			size, err := fsys.CreateFile(key).Size()
			if err != nil {
				return fmt.Errorf("Size(%s): %w", key, err)
			}
			if size != int64(len(want)) {
				return fmt.Errorf("Size(%s): got %d, want %d", key, size, len(want))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
}
