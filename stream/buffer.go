// Package stream provides a Stream implementation for backends that have no
// native incremental I/O.
package stream

import (
	"io"
	"io/fs"
	"os"

	"github.com/jmgilman/go/storage/core"
)

// ReadWriter is the part of core.Backend a Buffer needs.
type ReadWriter interface {
	Read(key string) ([]byte, error)
	Write(key string, data []byte, overwrite bool) (int64, error)
}

// Buffer is a core.Stream that holds the whole object in memory.
//
// Open loads the current content (unless truncating), reads and writes work
// on the in-memory copy, and Close writes the copy back when it was modified.
// Reads and writes share a single offset, as with an *os.File.
//
// Supported flags: O_RDONLY, O_WRONLY, O_RDWR, O_CREATE, O_TRUNC, O_APPEND,
// O_EXCL. O_SYNC is rejected with core.ErrUnsupported.
type Buffer struct {
	backend ReadWriter
	key     string

	data   []byte
	offset int64
	flag   int
	opened bool
	closed bool
	dirty  bool
}

// NewBuffer creates an unopened Buffer for key on backend.
func NewBuffer(backend ReadWriter, key string) *Buffer {
	return &Buffer{backend: backend, key: key}
}

// Key returns the key the stream is bound to.
func (b *Buffer) Key() string {
	return b.key
}

// Open loads the object according to flag.
func (b *Buffer) Open(flag int) error {
	if b.opened {
		return b.pathError("open", core.ErrInvalid)
	}
	if flag&os.O_SYNC != 0 {
		return b.pathError("open", core.ErrUnsupported)
	}

	data, err := b.backend.Read(b.key)
	switch {
	case err == nil:
		if flag&os.O_CREATE != 0 && flag&os.O_EXCL != 0 {
			return b.pathError("open", core.ErrExist)
		}
	case core.IsNotFound(err) && flag&os.O_CREATE != 0:
		data = nil
		b.dirty = true
	default:
		return err
	}

	if flag&os.O_TRUNC != 0 && b.writable(flag) {
		data = nil
		b.dirty = true
	}

	b.data = data
	b.flag = flag
	b.opened = true
	return nil
}

// Read reads from the current offset.
func (b *Buffer) Read(p []byte) (int, error) {
	if err := b.check("read", b.readable(b.flag)); err != nil {
		return 0, err
	}
	if b.offset >= int64(len(b.data)) {
		return 0, io.EOF
	}
	n := copy(p, b.data[b.offset:])
	b.offset += int64(n)
	return n, nil
}

// Write writes at the current offset, or at the end with O_APPEND.
func (b *Buffer) Write(p []byte) (int, error) {
	if err := b.check("write", b.writable(b.flag)); err != nil {
		return 0, err
	}
	if b.flag&os.O_APPEND != 0 {
		b.offset = int64(len(b.data))
	}

	end := b.offset + int64(len(p))
	if end > int64(len(b.data)) {
		grown := make([]byte, end)
		copy(grown, b.data)
		b.data = grown
	}
	copy(b.data[b.offset:], p)
	b.offset = end
	b.dirty = true
	return len(p), nil
}

// Seek sets the offset for the next Read or Write.
func (b *Buffer) Seek(offset int64, whence int) (int64, error) {
	if err := b.check("seek", true); err != nil {
		return 0, err
	}

	var next int64
	switch whence {
	case io.SeekStart:
		next = offset
	case io.SeekCurrent:
		next = b.offset + offset
	case io.SeekEnd:
		next = int64(len(b.data)) + offset
	default:
		return 0, b.pathError("seek", core.ErrInvalid)
	}
	if next < 0 {
		return 0, b.pathError("seek", core.ErrInvalid)
	}

	b.offset = next
	return next, nil
}

// Close writes modified content back to the backend. Close is idempotent.
func (b *Buffer) Close() error {
	if !b.opened || b.closed {
		return nil
	}
	b.closed = true

	if !b.dirty || !b.writable(b.flag) {
		return nil
	}
	if _, err := b.backend.Write(b.key, b.data, true); err != nil {
		return b.pathError("close", err)
	}
	return nil
}

func (b *Buffer) check(op string, allowed bool) error {
	switch {
	case b.closed:
		return b.pathError(op, core.ErrClosed)
	case !b.opened, !allowed:
		return b.pathError(op, core.ErrInvalid)
	}
	return nil
}

func (b *Buffer) readable(flag int) bool {
	return flag&(os.O_WRONLY|os.O_RDWR) != os.O_WRONLY
}

func (b *Buffer) writable(flag int) bool {
	return flag&(os.O_WRONLY|os.O_RDWR) != 0
}

func (b *Buffer) pathError(op string, err error) error {
	return &fs.PathError{Op: op, Path: b.key, Err: err}
}

// Compile-time interface checks.
var (
	_ core.Stream = (*Buffer)(nil)
	_ io.Seeker   = (*Buffer)(nil)
)
