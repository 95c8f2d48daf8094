package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"maps"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"
	"github.com/jmgilman/go/storage/core"
	"github.com/jmgilman/go/storage/errors"
	"github.com/jmgilman/go/storage/internal/pathutil"
)

// Client is the subset of the S3 API used by the backend. *s3.Client
// implements it.
type Client interface {
	manager.UploadAPIClient
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	CopyObject(ctx context.Context, params *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
}

// Backend implements core.Backend for S3.
// It is safe for concurrent use.
type Backend struct {
	client   Client
	uploader *manager.Uploader
	bucket   string
	prefix   string
	timeout  time.Duration

	mu     sync.Mutex
	staged map[string]core.Metadata
}

// New creates an S3 backend. When cfg.Client is nil, a client is built from
// the default AWS configuration chain, which may read the environment and
// shared config files.
func New(ctx context.Context, cfg Config) (*Backend, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	client := cfg.Client
	if client == nil {
		c, err := newClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		client = c
	}

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		if cfg.PartSize > 0 {
			u.PartSize = cfg.PartSize
		}
		if cfg.Concurrency > 0 {
			u.Concurrency = cfg.Concurrency
		}
	})

	return &Backend{
		client:   client,
		uploader: uploader,
		bucket:   cfg.Bucket,
		prefix:   pathutil.NormalizePrefix(cfg.Prefix),
		timeout:  cfg.Timeout,
		staged:   make(map[string]core.Metadata),
	}, nil
}

func newClient(ctx context.Context, cfg Config) (*s3.Client, error) {
	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidConfig, "failed to load aws configuration")
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	}), nil
}

// Exists reports whether an object is stored at key.
func (b *Backend) Exists(key string) (bool, error) {
	if _, err := b.head("exists", key); err != nil {
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

	resp, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.objectKey(key)),
	})
	if err != nil {
		return nil, translate("read", key, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, translate("read", key, err)
	}
	return data, nil
}

// Write uploads data to key with a single PUT. Metadata staged for key is
// sent along and cleared once the upload succeeds.
func (b *Backend) Write(key string, data []byte, overwrite bool) (int64, error) {
	ctx, cancel := b.context()
	defer cancel()

	input := &s3.PutObjectInput{
		Bucket:        aws.String(b.bucket),
		Key:           aws.String(b.objectKey(key)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(mimetype.Detect(data).String()),
		Metadata:      b.stagedStrings(key),
	}
	if !overwrite {
		input.IfNoneMatch = aws.String("*")
	}

	if _, err := b.client.PutObject(ctx, input); err != nil {
		return 0, translate("write", key, err)
	}

	b.clearStaged(key)
	return int64(len(data)), nil
}

// Delete removes the object stored at key and drops its staged metadata.
// Deleting a missing object fails with core.ErrNotFound.
func (b *Backend) Delete(key string) error {
	if _, err := b.head("delete", key); err != nil {
		return err
	}

	ctx, cancel := b.context()
	defer cancel()

	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.objectKey(key)),
	})
	if err != nil {
		return translate("delete", key, err)
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

// SetMetadata stages metadata for key until its next upload.
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

	head, err := b.head("metadata", key)
	if err != nil {
		return nil, err
	}

	md := make(core.Metadata, len(head.Metadata))
	for k, v := range head.Metadata {
		md[strings.ToLower(k)] = v
	}
	return md, nil
}

// Size returns the size of the object stored at key.
func (b *Backend) Size(key string) (int64, error) {
	head, err := b.head("size", key)
	if err != nil {
		return 0, err
	}
	return aws.ToInt64(head.ContentLength), nil
}

// Checksum returns the ETag of the object stored at key.
func (b *Backend) Checksum(key string) (string, error) {
	head, err := b.head("checksum", key)
	if err != nil {
		return "", err
	}
	return strings.Trim(aws.ToString(head.ETag), `"`), nil
}

// MimeType returns the content type recorded for the object stored at key.
func (b *Backend) MimeType(key string) (string, error) {
	head, err := b.head("mimetype", key)
	if err != nil {
		return "", err
	}
	return aws.ToString(head.ContentType), nil
}

// Mtime returns the last modification time of the object stored at key.
func (b *Backend) Mtime(key string) (time.Time, error) {
	head, err := b.head("mtime", key)
	if err != nil {
		return time.Time{}, err
	}
	return aws.ToTime(head.LastModified), nil
}

// Rename copies the object at sourceKey to targetKey, then deletes the
// source. User metadata is copied with the object.
func (b *Backend) Rename(sourceKey, targetKey string) error {
	if _, err := b.head("rename", sourceKey); err != nil {
		return err
	}

	ctx, cancel := b.context()
	defer cancel()

	_, err := b.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(b.bucket),
		Key:        aws.String(b.objectKey(targetKey)),
		CopySource: aws.String(copySource(b.bucket, b.objectKey(sourceKey))),
	})
	if err != nil {
		return translate("rename", sourceKey, err)
	}

	_, err = b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.objectKey(sourceKey)),
	})
	if err != nil {
		return translate("rename", sourceKey, err)
	}

	b.clearStaged(sourceKey)
	return nil
}

// objectKey maps key to the object key within the bucket.
func (b *Backend) objectKey(key string) string {
	return pathutil.JoinPath(b.prefix, key, "/")
}

func (b *Backend) head(op, key string) (*s3.HeadObjectOutput, error) {
	ctx, cancel := b.context()
	defer cancel()

	head, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.objectKey(key)),
	})
	if err != nil {
		return nil, translate(op, key, err)
	}
	return head, nil
}

// stagedStrings returns the metadata staged for key as S3 user metadata.
func (b *Backend) stagedStrings(key string) map[string]string {
	b.mu.Lock()
	defer b.mu.Unlock()

	staged := b.staged[key]
	if len(staged) == 0 {
		return nil
	}
	out := make(map[string]string, len(staged))
	for k, v := range staged {
		out[k] = fmt.Sprint(v)
	}
	return out
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

// copySource builds the URL-encoded "bucket/key" value of CopyObjectInput.
func copySource(bucket, key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return bucket + "/" + strings.Join(segments, "/")
}

// Compile-time interface checks.
var (
	_ Client                  = (*s3.Client)(nil)
	_ core.Backend            = (*Backend)(nil)
	_ core.MetadataSupporter  = (*Backend)(nil)
	_ core.SizeCalculator     = (*Backend)(nil)
	_ core.ChecksumCalculator = (*Backend)(nil)
	_ core.MimeTypeProvider   = (*Backend)(nil)
	_ core.MtimeProvider      = (*Backend)(nil)
	_ core.Renamer            = (*Backend)(nil)
)
