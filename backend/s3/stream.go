package s3

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jmgilman/go/storage/core"
	serrors "github.com/jmgilman/go/storage/errors"
)

// Stream reads an object as it downloads, or uploads one through the
// multipart uploader while it is written. Uploads complete on Close and
// replace the whole object. O_RDWR, O_APPEND and O_SYNC fail with
// core.ErrUnsupported.
type Stream struct {
	b   *Backend
	key string

	opened bool
	closed bool

	body io.ReadCloser

	pipeW *io.PipeWriter
	done  chan error
}

// Open starts reading (O_RDONLY) or writing (O_WRONLY) the object.
// Writing requires O_CREATE unless the object exists; O_TRUNC is implied.
func (s *Stream) Open(flag int) error {
	if s.opened {
		return pathError("open", s.key, core.ErrInvalid)
	}
	if flag&(os.O_RDWR|os.O_APPEND|os.O_SYNC) != 0 {
		return pathError("open", s.key, core.ErrUnsupported)
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
	// nolint:contextcheck // the download outlives Open; reads are bounded by Close
	resp, err := s.b.client.GetObject(context.Background(), &s3.GetObjectInput{
		Bucket: aws.String(s.b.bucket),
		Key:    aws.String(s.b.objectKey(s.key)),
	})
	if err != nil {
		return translate("open", s.key, err)
	}
	s.body = resp.Body
	return nil
}

func (s *Stream) openWrite(flag int) error {
	exists, err := s.b.Exists(s.key)
	if err != nil {
		return err
	}
	switch {
	case exists && flag&os.O_CREATE != 0 && flag&os.O_EXCL != 0:
		return serrors.Wrap(pathError("open", s.key, core.ErrExist), serrors.CodeAlreadyExists, "object already exists")
	case !exists && flag&os.O_CREATE == 0:
		return serrors.Wrap(pathError("open", s.key, core.ErrNotFound), serrors.CodeNotFound, "object not found")
	}

	pr, pw := io.Pipe()
	s.pipeW = pw
	s.done = make(chan error, 1)

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.b.bucket),
		Key:         aws.String(s.b.objectKey(s.key)),
		Body:        pr,
		ContentType: aws.String("application/octet-stream"),
		Metadata:    s.b.stagedStrings(s.key),
	}

	go func() {
		// nolint:contextcheck // background upload; io.Writer.Write cannot accept context
		_, err := s.b.uploader.Upload(context.Background(), input)
		_ = pr.CloseWithError(err)
		s.done <- err
	}()
	return nil
}

// Read reads from the object body.
func (s *Stream) Read(p []byte) (int, error) {
	switch {
	case s.closed:
		return 0, pathError("read", s.key, core.ErrClosed)
	case s.body == nil:
		return 0, pathError("read", s.key, core.ErrInvalid)
	}

	n, err := s.body.Read(p)
	if err == nil || errors.Is(err, io.EOF) {
		return n, err
	}
	return n, translate("read", s.key, err)
}

// Write writes p to the upload pipe.
func (s *Stream) Write(p []byte) (int, error) {
	switch {
	case s.closed:
		return 0, pathError("write", s.key, core.ErrClosed)
	case s.pipeW == nil:
		return 0, pathError("write", s.key, core.ErrInvalid)
	}

	n, err := s.pipeW.Write(p)
	if err != nil {
		return n, translate("write", s.key, err)
	}
	return n, nil
}

// Close releases the body or completes the upload. Close is idempotent.
func (s *Stream) Close() error {
	if !s.opened || s.closed {
		return nil
	}
	s.closed = true

	if s.body != nil {
		return s.body.Close()
	}

	_ = s.pipeW.Close()
	if err := <-s.done; err != nil {
		return translate("close", s.key, err)
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
