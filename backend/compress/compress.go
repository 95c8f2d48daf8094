// Package compress decorates a core.Backend so that content is stored
// compressed.
//
// Every object written through the decorator is wrapped in a small frame
// recording the codec and the uncompressed size, so objects written with
// different codecs can be read back by any decorator. Objects written
// without the decorator are rejected on read.
//
// Size, checksum and MIME type reported by the wrapped backend describe the
// compressed bytes, so those capabilities are not forwarded; the filesystem
// facade computes them from the decompressed content instead. Metadata is
// forwarded unchanged.
package compress

import (
	"github.com/jmgilman/go/storage/core"
	serrors "github.com/jmgilman/go/storage/errors"
	"github.com/jmgilman/go/storage/stream"
	"github.com/klauspost/compress/zstd"
)

// Backend compresses content on Write and decompresses it on Read.
type Backend struct {
	next  core.Backend
	codec *codec
}

// MetadataBackend is returned by New when the wrapped backend implements
// core.MetadataSupporter.
type MetadataBackend struct {
	*Backend
	core.MetadataSupporter
}

// New decorates next. The result implements core.MetadataSupporter exactly
// when next does.
func New(next core.Backend, opts ...Option) (core.Backend, error) {
	o := options{
		codec:   Zstd,
		level:   zstd.SpeedDefault,
		minSize: 64,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.codec > Zstd {
		return nil, serrors.Newf(serrors.CodeInvalidConfig, "unknown codec %s", o.codec)
	}

	c, err := newCodec(o.codec, o.level, o.minSize)
	if err != nil {
		return nil, serrors.Wrap(err, serrors.CodeInvalidConfig, "failed to create zstd codec")
	}

	b := &Backend{next: next, codec: c}
	if ms, ok := next.(core.MetadataSupporter); ok {
		return &MetadataBackend{Backend: b, MetadataSupporter: ms}, nil
	}
	return b, nil
}

// Unwrap returns the decorated backend.
func (b *Backend) Unwrap() core.Backend {
	return b.next
}

// Exists reports whether an object is stored at key.
func (b *Backend) Exists(key string) (bool, error) {
	return b.next.Exists(key)
}

// Read returns the decompressed content stored at key.
func (b *Backend) Read(key string) ([]byte, error) {
	raw, err := b.next.Read(key)
	if err != nil {
		return nil, err
	}

	data, err := b.codec.decode(raw)
	if err != nil {
		return nil, serrors.WithContext(
			serrors.Wrap(err, serrors.CodeStorage, "failed to decompress object"),
			"key", key,
		)
	}
	return data, nil
}

// Write compresses data and stores it at key. The returned count is the
// uncompressed length.
func (b *Backend) Write(key string, data []byte, overwrite bool) (int64, error) {
	framed, err := b.codec.encode(data)
	if err != nil {
		return 0, serrors.WithContext(
			serrors.Wrap(err, serrors.CodeInvalidInput, "failed to compress content"),
			"key", key,
		)
	}

	if _, err := b.next.Write(key, framed, overwrite); err != nil {
		return 0, err
	}
	return int64(len(data)), nil
}

// Delete removes the object stored at key.
func (b *Backend) Delete(key string) error {
	return b.next.Delete(key)
}

// CreateStream returns a buffered stream over the decompressed content.
func (b *Backend) CreateStream(key string) core.Stream {
	return stream.NewBuffer(b, key)
}

// Type returns the type of the wrapped backend.
func (b *Backend) Type() core.BackendType {
	return b.next.Type()
}

// Compile-time interface checks.
var (
	_ core.Backend           = (*Backend)(nil)
	_ core.Backend           = (*MetadataBackend)(nil)
	_ core.MetadataSupporter = (*MetadataBackend)(nil)
)
