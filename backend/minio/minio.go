package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"maps"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/jmgilman/go/storage/backend/minio/internal/errs"
	"github.com/jmgilman/go/storage/core"
	"github.com/jmgilman/go/storage/errors"
	"github.com/jmgilman/go/storage/internal/pathutil"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Backend implements core.Backend for MinIO/S3-compatible storage.
// It is safe for concurrent use.
type Backend struct {
	client   *minio.Client
	bucket   string
	prefix   string
	timeout  time.Duration
	partSize uint64

	mu     sync.Mutex
	staged map[string]core.Metadata
}

// New creates a MinIO-backed storage backend.
// Returns error if configuration is invalid or the client cannot be created.
// No request is made to the server.
func New(cfg Config) (*Backend, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	client := cfg.Client
	if client == nil {
		var err error
		client, err = minio.New(cfg.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
			Secure: cfg.UseSSL,
		})
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInvalidConfig, "failed to create minio client")
		}
	}

	return &Backend{
		client:   client,
		bucket:   cfg.Bucket,
		prefix:   pathutil.NormalizePrefix(cfg.Prefix),
		timeout:  cfg.Timeout,
		partSize: cfg.PartSize,
		staged:   make(map[string]core.Metadata),
	}, nil
}

// Client returns the underlying MinIO client.
func (b *Backend) Client() *minio.Client {
	return b.client
}

// Exists reports whether an object is stored at key.
func (b *Backend) Exists(key string) (bool, error) {
	if _, err := b.stat("exists", key); err != nil {
		if core.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Read returns the content of the object stored at key.
func (b *Backend) Read(key string) ([]byte, error) {
	ctx, cancel := b.context()
	defer cancel()

	obj, err := b.client.GetObject(ctx, b.bucket, b.objectName(key), minio.GetObjectOptions{})
	if err != nil {
		return nil, errs.Translate("read", key, err)
	}
	defer func() {
		_ = obj.Close()
	}()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, errs.Translate("read", key, err)
	}
	return data, nil
}

// Write uploads data to key. Metadata staged for key is sent along and
// cleared once the upload succeeds. The content type is detected from data.
func (b *Backend) Write(key string, data []byte, overwrite bool) (int64, error) {
	if !overwrite {
		exists, err := b.Exists(key)
		if err != nil {
			return 0, err
		}
		if exists {
			return 0, errors.Wrap(errs.PathError("write", key, core.ErrExist), errors.CodeAlreadyExists, "object already exists")
		}
	}

	ctx, cancel := b.context()
	defer cancel()

	opts := b.putOptions(key)
	opts.ContentType = mimetype.Detect(data).String()

	info, err := b.client.PutObject(ctx, b.bucket, b.objectName(key), bytes.NewReader(data), int64(len(data)), opts)
	if err != nil {
		return 0, errs.Translate("write", key, err)
	}

	b.clearStaged(key)
	return info.Size, nil
}

// Delete removes the object stored at key and drops its staged metadata.
// Unlike the S3 API, deleting a missing object fails with core.ErrNotFound.
func (b *Backend) Delete(key string) error {
	if _, err := b.stat("delete", key); err != nil {
		return err
	}

	ctx, cancel := b.context()
	defer cancel()

	if err := b.client.RemoveObject(ctx, b.bucket, b.objectName(key), minio.RemoveObjectOptions{}); err != nil {
		return errs.Translate("delete", key, err)
	}

	b.clearStaged(key)
	return nil
}

// CreateStream returns an unopened stream for key.
func (b *Backend) CreateStream(key string) core.Stream {
	return &Stream{b: b, key: key}
}

// Type returns core.BackendTypeRemote.
func (b *Backend) Type() core.BackendType {
	return core.BackendTypeRemote
}

// SetMetadata stages metadata for key. It is sent with the next Write or
// stream upload of key. Values are stored as strings.
func (b *Backend) SetMetadata(key string, metadata core.Metadata) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.staged[key] = maps.Clone(metadata)
	return nil
}

// Metadata returns the metadata staged for key, or the user metadata of the
// stored object when nothing is staged.
func (b *Backend) Metadata(key string) (core.Metadata, error) {
	b.mu.Lock()
	staged, ok := b.staged[key]
	b.mu.Unlock()
	if ok {
		return maps.Clone(staged), nil
	}

	info, err := b.stat("metadata", key)
	if err != nil {
		return nil, err
	}

	md := make(core.Metadata, len(info.UserMetadata))
	for k, v := range info.UserMetadata {
		md[strings.ToLower(k)] = v
	}
	return md, nil
}

// Size returns the size of the object stored at key.
func (b *Backend) Size(key string) (int64, error) {
	info, err := b.stat("size", key)
	if err != nil {
		return 0, err
	}
	return info.Size, nil
}

// Checksum returns the ETag of the object stored at key.
func (b *Backend) Checksum(key string) (string, error) {
	info, err := b.stat("checksum", key)
	if err != nil {
		return "", err
	}
	return strings.Trim(info.ETag, `"`), nil
}

// MimeType returns the content type recorded for the object stored at key.
func (b *Backend) MimeType(key string) (string, error) {
	info, err := b.stat("mimetype", key)
	if err != nil {
		return "", err
	}
	return info.ContentType, nil
}

// Mtime returns the last modification time of the object stored at key.
func (b *Backend) Mtime(key string) (time.Time, error) {
	info, err := b.stat("mtime", key)
	if err != nil {
		return time.Time{}, err
	}
	return info.LastModified, nil
}

// Rename copies the object at sourceKey to targetKey, then removes the
// source. The copy keeps the user metadata of the source.
func (b *Backend) Rename(sourceKey, targetKey string) error {
	if _, err := b.stat("rename", sourceKey); err != nil {
		return err
	}

	ctx, cancel := b.context()
	defer cancel()

	src := minio.CopySrcOptions{
		Bucket: b.bucket,
		Object: b.objectName(sourceKey),
	}
	dst := minio.CopyDestOptions{
		Bucket: b.bucket,
		Object: b.objectName(targetKey),
	}

	if _, err := b.client.CopyObject(ctx, dst, src); err != nil {
		return errs.Translate("rename", sourceKey, err)
	}
	if err := b.client.RemoveObject(ctx, b.bucket, b.objectName(sourceKey), minio.RemoveObjectOptions{}); err != nil {
		return errs.Translate("rename", sourceKey, err)
	}

	b.clearStaged(sourceKey)
	return nil
}

// objectName maps key to the object name within the bucket.
func (b *Backend) objectName(key string) string {
	return pathutil.JoinPath(b.prefix, key, "/")
}

func (b *Backend) stat(op, key string) (minio.ObjectInfo, error) {
	ctx, cancel := b.context()
	defer cancel()

	info, err := b.client.StatObject(ctx, b.bucket, b.objectName(key), minio.StatObjectOptions{})
	if err != nil {
		return minio.ObjectInfo{}, errs.Translate(op, key, err)
	}
	return info, nil
}

// putOptions builds upload options carrying the metadata staged for key.
func (b *Backend) putOptions(key string) minio.PutObjectOptions {
	opts := minio.PutObjectOptions{PartSize: b.partSize}

	b.mu.Lock()
	staged := b.staged[key]
	b.mu.Unlock()

	if len(staged) > 0 {
		opts.UserMetadata = make(map[string]string, len(staged))
		for k, v := range staged {
			opts.UserMetadata[k] = fmt.Sprint(v)
		}
	}
	return opts
}

func (b *Backend) clearStaged(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.staged, key)
}

// context returns a context bounded by the configured timeout.
func (b *Backend) context() (context.Context, context.CancelFunc) {
	if b.timeout > 0 {
		return context.WithTimeout(context.Background(), b.timeout)
	}
	return context.WithCancel(context.Background())
}

// Compile-time interface checks.
var (
	_ core.Backend            = (*Backend)(nil)
	_ core.MetadataSupporter  = (*Backend)(nil)
	_ core.SizeCalculator     = (*Backend)(nil)
	_ core.ChecksumCalculator = (*Backend)(nil)
	_ core.MimeTypeProvider   = (*Backend)(nil)
	_ core.MtimeProvider      = (*Backend)(nil)
	_ core.Renamer            = (*Backend)(nil)
)
