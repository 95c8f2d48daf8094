package filesystem_test

import (
	"io/fs"
	"time"

	"github.com/jmgilman/go/storage/core"
	"github.com/jmgilman/go/storage/stream"
)

// fakeBackend is an in-memory backend that counts calls and can inject errors.
// It implements no optional capability.
type fakeBackend struct {
	objects map[string][]byte
	calls   map[string]int
	errs    map[string]error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		objects: make(map[string][]byte),
		calls:   make(map[string]int),
		errs:    make(map[string]error),
	}
}

func (b *fakeBackend) record(op string) error {
	b.calls[op]++
	return b.errs[op]
}

func (b *fakeBackend) Exists(key string) (bool, error) {
	if err := b.record("exists"); err != nil {
		return false, err
	}
	_, ok := b.objects[key]
	return ok, nil
}

func (b *fakeBackend) Read(key string) ([]byte, error) {
	if err := b.record("read"); err != nil {
		return nil, err
	}
	data, ok := b.objects[key]
	if !ok {
		return nil, &fs.PathError{Op: "read", Path: key, Err: core.ErrNotFound}
	}
	return append([]byte(nil), data...), nil
}

func (b *fakeBackend) Write(key string, data []byte, overwrite bool) (int64, error) {
	if err := b.record("write"); err != nil {
		return 0, err
	}
	if _, ok := b.objects[key]; ok && !overwrite {
		return 0, &fs.PathError{Op: "write", Path: key, Err: core.ErrExist}
	}
	b.objects[key] = append([]byte(nil), data...)
	return int64(len(data)), nil
}

func (b *fakeBackend) Delete(key string) error {
	if err := b.record("delete"); err != nil {
		return err
	}
	if _, ok := b.objects[key]; !ok {
		return &fs.PathError{Op: "delete", Path: key, Err: core.ErrNotFound}
	}
	delete(b.objects, key)
	return nil
}

func (b *fakeBackend) CreateStream(key string) core.Stream {
	b.calls["stream"]++
	return stream.NewBuffer(b, key)
}

func (b *fakeBackend) Type() core.BackendType {
	return core.BackendTypeMemory
}

// metadataBackend adds core.MetadataSupporter to fakeBackend.
type metadataBackend struct {
	*fakeBackend
	metadata map[string]core.Metadata
	// order records operations so tests can check metadata precedes I/O.
	order []string
}

func newMetadataBackend() *metadataBackend {
	return &metadataBackend{
		fakeBackend: newFakeBackend(),
		metadata:    make(map[string]core.Metadata),
	}
}

func (b *metadataBackend) SetMetadata(key string, metadata core.Metadata) error {
	if err := b.record("setmetadata"); err != nil {
		return err
	}
	b.order = append(b.order, "setmetadata")
	b.metadata[key] = metadata
	return nil
}

func (b *metadataBackend) Metadata(key string) (core.Metadata, error) {
	if err := b.record("metadata"); err != nil {
		return nil, err
	}
	md, ok := b.metadata[key]
	if !ok {
		return core.Metadata{}, nil
	}
	return md, nil
}

func (b *metadataBackend) Read(key string) ([]byte, error) {
	b.order = append(b.order, "read")
	return b.fakeBackend.Read(key)
}

func (b *metadataBackend) Write(key string, data []byte, overwrite bool) (int64, error) {
	b.order = append(b.order, "write")
	return b.fakeBackend.Write(key, data, overwrite)
}

func (b *metadataBackend) Delete(key string) error {
	b.order = append(b.order, "delete")
	return b.fakeBackend.Delete(key)
}

// capableBackend adds the remaining optional capabilities to fakeBackend.
type capableBackend struct {
	*fakeBackend
	mtime time.Time
}

func (b *capableBackend) Size(key string) (int64, error) {
	b.calls["size"]++
	data, ok := b.objects[key]
	if !ok {
		return 0, &fs.PathError{Op: "size", Path: key, Err: core.ErrNotFound}
	}
	return int64(len(data)), nil
}

func (b *capableBackend) Checksum(string) (string, error) {
	b.calls["checksum"]++
	return "etag-1", nil
}

func (b *capableBackend) MimeType(string) (string, error) {
	b.calls["mimetype"]++
	return "application/x-custom", nil
}

func (b *capableBackend) Mtime(string) (time.Time, error) {
	b.calls["mtime"]++
	return b.mtime, nil
}

func (b *capableBackend) Rename(sourceKey, targetKey string) error {
	b.calls["rename"]++
	b.objects[targetKey] = b.objects[sourceKey]
	delete(b.objects, sourceKey)
	return nil
}

// Compile-time interface checks.
var (
	_ core.Backend            = (*fakeBackend)(nil)
	_ core.MetadataSupporter  = (*metadataBackend)(nil)
	_ core.SizeCalculator     = (*capableBackend)(nil)
	_ core.ChecksumCalculator = (*capableBackend)(nil)
	_ core.MimeTypeProvider   = (*capableBackend)(nil)
	_ core.MtimeProvider      = (*capableBackend)(nil)
	_ core.Renamer            = (*capableBackend)(nil)
)
