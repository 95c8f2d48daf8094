package minio

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/jmgilman/go/storage/backend/minio/internal/errs"
	"github.com/jmgilman/go/storage/core"
	serrors "github.com/jmgilman/go/storage/errors"
	"github.com/minio/minio-go/v7"
)

// Stream reads or writes one object without buffering it in memory.
//
// A stream opened for reading downloads the object as it is read. A stream
// opened for writing uploads through a pipe while data is written; the
// upload completes on Close, which replaces the whole object. Streams are
// either read-only or write-only: O_RDWR, O_APPEND and O_SYNC fail with
// core.ErrUnsupported.
type Stream struct {
	b   *Backend
	key string

	opened bool
	closed bool

	// Read mode
	obj *minio.Object

	// Write mode
	pipeW  *io.PipeWriter
	putRes chan error
}

// Open starts reading (O_RDONLY) or writing (O_WRONLY) the object.
// Writing requires O_CREATE unless the object exists; O_TRUNC is implied.
func (s *Stream) Open(flag int) error {
	if s.opened {
		return errs.PathError("open", s.key, core.ErrInvalid)
	}
	if flag&(os.O_RDWR|os.O_APPEND|os.O_SYNC) != 0 {
		return errs.PathError("open", s.key, core.ErrUnsupported)
	}

	var err error
	if flag&os.O_WRONLY != 0 {
		err = s.openWrite(flag)
	} else {
		err = s.openRead()
	}
	if err != nil {
		return err
	}

	s.opened = true
	return nil
}

func (s *Stream) openRead() error {
	if _, err := s.b.stat("open", s.key); err != nil {
		return err
	}

	// nolint:contextcheck // the download outlives Open; reads are bounded by Close
	obj, err := s.b.client.GetObject(context.Background(), s.b.bucket, s.b.objectName(s.key), minio.GetObjectOptions{})
	if err != nil {
		return errs.Translate("open", s.key, err)
	}
	s.obj = obj
	return nil
}

func (s *Stream) openWrite(flag int) error {
	exists, err := s.b.Exists(s.key)
	if err != nil {
		return err
	}
	switch {
	case exists && flag&os.O_CREATE != 0 && flag&os.O_EXCL != 0:
		return serrors.Wrap(errs.PathError("open", s.key, core.ErrExist), serrors.CodeAlreadyExists, "object already exists")
	case !exists && flag&os.O_CREATE == 0:
		return serrors.Wrap(errs.PathError("open", s.key, core.ErrNotFound), serrors.CodeNotFound, "object not found")
	}

	pr, pw := io.Pipe()
	s.pipeW = pw
	s.putRes = make(chan error, 1)

	opts := s.b.putOptions(s.key)
	opts.ContentType = "application/octet-stream"

	go func() {
		// nolint:contextcheck // background upload; io.Writer.Write cannot accept context
		_, err := s.b.client.PutObject(context.Background(), s.b.bucket, s.b.objectName(s.key), pr, -1, opts)
		_ = pr.CloseWithError(err)
		s.putRes <- err
		close(s.putRes)
	}()
	return nil
}

// Read reads from the downloaded object.
func (s *Stream) Read(p []byte) (int, error) {
	switch {
	case s.closed:
		return 0, errs.PathError("read", s.key, core.ErrClosed)
	case s.obj == nil:
		return 0, errs.PathError("read", s.key, core.ErrInvalid)
	}

	n, err := s.obj.Read(p)
	if err == nil || errors.Is(err, io.EOF) {
		return n, err
	}
	return n, errs.Translate("read", s.key, err)
}

// Write writes p to the upload pipe.
func (s *Stream) Write(p []byte) (int, error) {
	switch {
	case s.closed:
		return 0, errs.PathError("write", s.key, core.ErrClosed)
	case s.pipeW == nil:
		return 0, errs.PathError("write", s.key, core.ErrInvalid)
	}

	n, err := s.pipeW.Write(p)
	if err != nil {
		return n, errs.Translate("write", s.key, err)
	}
	return n, nil
}

// Close releases the download or completes the upload. Close is idempotent.
func (s *Stream) Close() error {
	if !s.opened || s.closed {
		return nil
	}
	s.closed = true

	if s.obj != nil {
		return s.obj.Close()
	}

	_ = s.pipeW.Close()
	if err := <-s.putRes; err != nil {
		return errs.Translate("close", s.key, err)
	}
	s.b.clearStaged(s.key)
	return nil
}

// Key returns the key the stream is bound to.
func (s *Stream) Key() string {
	return s.key
}

// Compile-time interface checks.
var _ core.Stream = (*Stream)(nil)
