package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/jmgilman/go/storage/core"
	serrors "github.com/jmgilman/go/storage/errors"
	"github.com/jmgilman/go/storage/internal/pathutil"
	"github.com/jmgilman/go/storage/stream"
	"github.com/redis/go-redis/v9"
)

// Objects and metadata hashes live in separate namespaces so that no key
// can address the other kind.
const (
	objectSpace = "obj"
	metaSpace   = "meta"
)

// Backend implements core.Backend on top of Redis.
// It is safe for concurrent use.
type Backend struct {
	client  redis.UniversalClient
	prefix  string
	owned   bool
	timeout time.Duration
}

// New creates a Redis backend and checks connectivity with PING.
func New(ctx context.Context, cfg Config) (*Backend, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	client := cfg.Client
	owned := false
	if client == nil {
		client = redis.NewClient(cfg.options())
		owned = true
	}

	if err := client.Ping(ctx).Err(); err != nil {
		if owned {
			_ = client.Close()
		}
		return nil, serrors.Wrap(translate("ping", "", err), serrors.CodeUnavailable, "redis ping failed")
	}

	return &Backend{
		client:  client,
		prefix:  pathutil.NormalizePrefix(cfg.Prefix),
		owned:   owned,
		timeout: cfg.Timeout,
	}, nil
}

// Close closes the client if the backend created it.
func (b *Backend) Close() error {
	if !b.owned {
		return nil
	}
	return b.client.Close()
}

// Exists reports whether an object is stored at key.
func (b *Backend) Exists(key string) (bool, error) {
	ctx, cancel := b.context()
	defer cancel()

	n, err := b.client.Exists(ctx, b.name(key)).Result()
	if err != nil {
		return false, translate("exists", key, err)
	}
	return n == 1, nil
}

// Read returns the content stored at key.
func (b *Backend) Read(key string) ([]byte, error) {
	ctx, cancel := b.context()
	defer cancel()

	data, err := b.client.Get(ctx, b.name(key)).Bytes()
	if err != nil {
		return nil, translate("read", key, err)
	}
	return data, nil
}

// Write stores data at key. Without overwrite the write uses SETNX, so the
// existence check and the write are atomic.
func (b *Backend) Write(key string, data []byte, overwrite bool) (int64, error) {
	ctx, cancel := b.context()
	defer cancel()

	if overwrite {
		if err := b.client.Set(ctx, b.name(key), data, 0).Err(); err != nil {
			return 0, translate("write", key, err)
		}
		return int64(len(data)), nil
	}

	ok, err := b.client.SetNX(ctx, b.name(key), data, 0).Result()
	if err != nil {
		return 0, translate("write", key, err)
	}
	if !ok {
		return 0, serrors.Wrap(pathError("write", key, core.ErrExist), serrors.CodeAlreadyExists, "key already exists")
	}
	return int64(len(data)), nil
}

// Delete removes the object stored at key and its metadata.
func (b *Backend) Delete(key string) error {
	ctx, cancel := b.context()
	defer cancel()

	var del *redis.IntCmd
	_, err := b.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, b.name(key))
		pipe.Del(ctx, b.metaName(key))
		return nil
	})
	if err != nil {
		return translate("delete", key, err)
	}
	if del.Val() == 0 {
		return translate("delete", key, redis.Nil)
	}
	return nil
}

// CreateStream returns a buffered stream for key. Redis has no partial
// string writes suited to streaming, so the whole value is loaded on Open
// and written back on Close.
func (b *Backend) CreateStream(key string) core.Stream {
	return stream.NewBuffer(b, key)
}

// Type returns core.BackendTypeRemote.
func (b *Backend) Type() core.BackendType {
	return core.BackendTypeRemote
}

// SetMetadata replaces the metadata hash of key. Values are stored as
// strings. The object itself doesn't need to exist yet.
func (b *Backend) SetMetadata(key string, metadata core.Metadata) error {
	ctx, cancel := b.context()
	defer cancel()

	_, err := b.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, b.metaName(key))
		if len(metadata) > 0 {
			fields := make(map[string]any, len(metadata))
			for k, v := range metadata {
				fields[k] = fmt.Sprint(v)
			}
			pipe.HSet(ctx, b.metaName(key), fields)
		}
		return nil
	})
	return translate("setmetadata", key, err)
}

// Metadata returns the metadata hash of key, empty when there is none.
func (b *Backend) Metadata(key string) (core.Metadata, error) {
	ctx, cancel := b.context()
	defer cancel()

	fields, err := b.client.HGetAll(ctx, b.metaName(key)).Result()
	if err != nil {
		return nil, translate("metadata", key, err)
	}

	md := make(core.Metadata, len(fields))
	for k, v := range fields {
		md[k] = v
	}
	return md, nil
}

// Size returns the length of the value stored at key.
func (b *Backend) Size(key string) (int64, error) {
	ctx, cancel := b.context()
	defer cancel()

	var (
		exists *redis.IntCmd
		length *redis.IntCmd
	)
	_, err := b.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		exists = pipe.Exists(ctx, b.name(key))
		length = pipe.StrLen(ctx, b.name(key))
		return nil
	})
	if err != nil {
		return 0, translate("size", key, err)
	}
	if exists.Val() == 0 {
		return 0, translate("size", key, redis.Nil)
	}
	return length.Val(), nil
}

// Rename moves the object at sourceKey and its metadata to targetKey.
// Metadata already recorded for targetKey is replaced, or removed when the
// source has none.
func (b *Backend) Rename(sourceKey, targetKey string) error {
	ctx, cancel := b.context()
	defer cancel()

	var hasObject, hasMeta *redis.IntCmd
	_, err := b.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		hasObject = pipe.Exists(ctx, b.name(sourceKey))
		hasMeta = pipe.Exists(ctx, b.metaName(sourceKey))
		return nil
	})
	if err != nil {
		return translate("rename", sourceKey, err)
	}
	if hasObject.Val() == 0 {
		return translate("rename", sourceKey, redis.Nil)
	}

	_, err = b.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Rename(ctx, b.name(sourceKey), b.name(targetKey))
		if hasMeta.Val() == 1 {
			pipe.Rename(ctx, b.metaName(sourceKey), b.metaName(targetKey))
		} else {
			pipe.Del(ctx, b.metaName(targetKey))
		}
		return nil
	})
	return translate("rename", sourceKey, err)
}

// name maps key to the Redis key holding its content.
func (b *Backend) name(key string) string {
	return pathutil.JoinPath(b.space(objectSpace), key, ":")
}

// metaName maps key to the Redis hash holding its metadata.
func (b *Backend) metaName(key string) string {
	return pathutil.JoinPath(b.space(metaSpace), key, ":")
}

func (b *Backend) space(kind string) string {
	if b.prefix == "" {
		return kind
	}
	return b.prefix + ":" + kind
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
	_ core.Backend           = (*Backend)(nil)
	_ core.MetadataSupporter = (*Backend)(nil)
	_ core.SizeCalculator    = (*Backend)(nil)
	_ core.Renamer           = (*Backend)(nil)
)
