package billy

import (
	"io"
	"os"

	"github.com/go-git/go-billy/v5"
	"github.com/jmgilman/go/storage/core"
)

// Stream wraps a billy.File opened lazily for one key.
// Stream writes are not atomic on local disk, unlike LocalFS.Write.
type Stream struct {
	b    *base
	key  string
	name string
	file billy.File
}

// Open opens the underlying file with flag. All os.O_* flags supported by
// the billy filesystem are accepted.
func (s *Stream) Open(flag int) error {
	if s.file != nil {
		return pathError("open", s.key, core.ErrInvalid)
	}
	if flag&os.O_CREATE != 0 {
		if err := s.b.ensureParent("open", s.key, s.name); err != nil {
			return err
		}
	}

	f, err := s.b.bfs.OpenFile(s.name, flag, s.b.perm)
	if err != nil {
		return translate("open", s.key, err)
	}
	s.file = f
	return nil
}

// Read delegates to the underlying billy.File.
func (s *Stream) Read(p []byte) (int, error) {
	if s.file == nil {
		return 0, pathError("read", s.key, core.ErrInvalid)
	}
	return s.file.Read(p)
}

// Write delegates to the underlying billy.File.
func (s *Stream) Write(p []byte) (int, error) {
	if s.file == nil {
		return 0, pathError("write", s.key, core.ErrInvalid)
	}
	return s.file.Write(p)
}

// Seek delegates to the underlying billy.File.
func (s *Stream) Seek(offset int64, whence int) (int64, error) {
	if s.file == nil {
		return 0, pathError("seek", s.key, core.ErrInvalid)
	}
	return s.file.Seek(offset, whence)
}

// Truncate changes the size of the underlying file.
func (s *Stream) Truncate(size int64) error {
	if s.file == nil {
		return pathError("truncate", s.key, core.ErrInvalid)
	}
	return s.file.Truncate(size)
}

// Close closes the underlying file. Close is idempotent.
func (s *Stream) Close() error {
	if s.file == nil {
		return nil
	}
	f := s.file
	s.file = nil
	return f.Close()
}

// Key returns the key the stream is bound to.
func (s *Stream) Key() string {
	return s.key
}

// Compile-time interface checks.
var (
	_ core.Stream = (*Stream)(nil)
	_ io.Seeker   = (*Stream)(nil)
)
