package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmgilman/go/storage/core"
	serrors "github.com/jmgilman/go/storage/errors"
	"github.com/jmgilman/go/storage/stream"
)

// queries holds the SQL statements bound to the configured table names.
type queries struct {
	createObjects  string
	createMetadata string
	exists         string
	read           string
	upsert         string
	insert         string
	deleteObject   string
	deleteMetadata string
	setMetadata    string
	metadata       string
	size           string
	checksum       string
	mtime          string
	renameObject   string
	dropTarget     string
	renameMetadata string
}

func newQueries(table string) queries {
	objects := pgx.Identifier{table}.Sanitize()
	meta := pgx.Identifier{table + "_metadata"}.Sanitize()

	return queries{
		createObjects: fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			key        TEXT PRIMARY KEY,
			content    BYTEA NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, objects),
		createMetadata: fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			key      TEXT PRIMARY KEY,
			metadata JSONB NOT NULL DEFAULT '{}'
		)`, meta),
		exists: fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE key = $1)`, objects),
		read:   fmt.Sprintf(`SELECT content FROM %s WHERE key = $1`, objects),
		upsert: fmt.Sprintf(`INSERT INTO %s (key, content, updated_at) VALUES ($1, $2, now())
			ON CONFLICT (key) DO UPDATE SET content = EXCLUDED.content, updated_at = EXCLUDED.updated_at`, objects),
		insert: fmt.Sprintf(`INSERT INTO %s (key, content, updated_at) VALUES ($1, $2, now())
			ON CONFLICT (key) DO NOTHING`, objects),
		deleteObject:   fmt.Sprintf(`DELETE FROM %s WHERE key = $1`, objects),
		deleteMetadata: fmt.Sprintf(`DELETE FROM %s WHERE key = $1`, meta),
		setMetadata: fmt.Sprintf(`INSERT INTO %s (key, metadata) VALUES ($1, $2)
			ON CONFLICT (key) DO UPDATE SET metadata = EXCLUDED.metadata`, meta),
		metadata:     fmt.Sprintf(`SELECT metadata FROM %s WHERE key = $1`, meta),
		size:         fmt.Sprintf(`SELECT octet_length(content) FROM %s WHERE key = $1`, objects),
		checksum:     fmt.Sprintf(`SELECT md5(content) FROM %s WHERE key = $1`, objects),
		mtime:        fmt.Sprintf(`SELECT updated_at FROM %s WHERE key = $1`, objects),
		renameObject: fmt.Sprintf(`UPDATE %s SET key = $2 WHERE key = $1`, objects),
		dropTarget: fmt.Sprintf(`DELETE FROM %[1]s WHERE key = $2
			AND EXISTS (SELECT 1 FROM %[1]s WHERE key = $1)`, meta),
		renameMetadata: fmt.Sprintf(`UPDATE %s SET key = $2 WHERE key = $1`, meta),
	}
}

// Backend implements core.Backend on top of PostgreSQL.
// It is safe for concurrent use.
type Backend struct {
	pool    *pgxpool.Pool
	owned   bool
	timeout time.Duration
	q       queries
}

// New creates a PostgreSQL backend. When cfg.Migrate is set the tables are
// created if missing.
func New(ctx context.Context, cfg Config) (*Backend, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	pool := cfg.Pool
	owned := false
	if pool == nil {
		var err error
		pool, err = pgxpool.New(ctx, cfg.DSN)
		if err != nil {
			return nil, serrors.Wrap(err, serrors.CodeInvalidConfig, "invalid dsn")
		}
		owned = true
	}

	b := &Backend{
		pool:    pool,
		owned:   owned,
		timeout: cfg.Timeout,
		q:       newQueries(cfg.table()),
	}

	if err := pool.Ping(ctx); err != nil {
		b.Close()
		return nil, serrors.Wrap(translate("ping", "", err), serrors.CodeUnavailable, "postgres ping failed")
	}

	if cfg.Migrate {
		if err := b.Migrate(ctx); err != nil {
			b.Close()
			return nil, err
		}
	}

	return b, nil
}

// Migrate creates the objects and metadata tables if they do not exist.
func (b *Backend) Migrate(ctx context.Context) error {
	for _, stmt := range []string{b.q.createObjects, b.q.createMetadata} {
		if _, err := b.pool.Exec(ctx, stmt); err != nil {
			return translate("migrate", "", err)
		}
	}
	return nil
}

// Close closes the pool if the backend created it.
func (b *Backend) Close() {
	if b.owned {
		b.pool.Close()
	}
}

// Pool returns the underlying connection pool.
func (b *Backend) Pool() *pgxpool.Pool {
	return b.pool
}

// Exists reports whether an object is stored at key.
func (b *Backend) Exists(key string) (bool, error) {
	ctx, cancel := b.context()
	defer cancel()

	var exists bool
	if err := b.pool.QueryRow(ctx, b.q.exists, key).Scan(&exists); err != nil {
		return false, translate("exists", key, err)
	}
	return exists, nil
}

// Read returns the content stored at key.
func (b *Backend) Read(key string) ([]byte, error) {
	ctx, cancel := b.context()
	defer cancel()

	var content []byte
	if err := b.pool.QueryRow(ctx, b.q.read, key).Scan(&content); err != nil {
		return nil, translate("read", key, err)
	}
	if content == nil {
		content = []byte{}
	}
	return content, nil
}

// Write stores data at key. Without overwrite the insert uses
// ON CONFLICT DO NOTHING, so the existence check and the write are atomic.
func (b *Backend) Write(key string, data []byte, overwrite bool) (int64, error) {
	ctx, cancel := b.context()
	defer cancel()

	if data == nil {
		data = []byte{}
	}

	if overwrite {
		if _, err := b.pool.Exec(ctx, b.q.upsert, key, data); err != nil {
			return 0, translate("write", key, err)
		}
		return int64(len(data)), nil
	}

	tag, err := b.pool.Exec(ctx, b.q.insert, key, data)
	if err != nil {
		return 0, translate("write", key, err)
	}
	if tag.RowsAffected() == 0 {
		return 0, serrors.Wrap(pathError("write", key, core.ErrExist), serrors.CodeAlreadyExists, "object already exists")
	}
	return int64(len(data)), nil
}

// Delete removes the object stored at key and its metadata in one
// transaction.
func (b *Backend) Delete(key string) error {
	ctx, cancel := b.context()
	defer cancel()

	err := pgx.BeginFunc(ctx, b.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, b.q.deleteObject, key)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		_, err = tx.Exec(ctx, b.q.deleteMetadata, key)
		return err
	})
	return translate("delete", key, err)
}

// CreateStream returns a buffered stream for key. Content is loaded on Open
// and written back in a single statement on Close.
func (b *Backend) CreateStream(key string) core.Stream {
	return stream.NewBuffer(b, key)
}

// Type returns core.BackendTypeRemote.
func (b *Backend) Type() core.BackendType {
	return core.BackendTypeRemote
}

// SetMetadata replaces the metadata of key. Values are stored as JSON, so
// numbers come back as float64. The object itself doesn't need to exist yet.
func (b *Backend) SetMetadata(key string, metadata core.Metadata) error {
	ctx, cancel := b.context()
	defer cancel()

	doc := map[string]any(metadata)
	if doc == nil {
		doc = map[string]any{}
	}

	_, err := b.pool.Exec(ctx, b.q.setMetadata, key, doc)
	return translate("setmetadata", key, err)
}

// Metadata returns the metadata of key, empty when there is none.
func (b *Backend) Metadata(key string) (core.Metadata, error) {
	ctx, cancel := b.context()
	defer cancel()

	var doc map[string]any
	err := b.pool.QueryRow(ctx, b.q.metadata, key).Scan(&doc)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, translate("metadata", key, err)
	}

	md := make(core.Metadata, len(doc))
	for k, v := range doc {
		md[k] = v
	}
	return md, nil
}

// Size returns the byte length of the content stored at key.
func (b *Backend) Size(key string) (int64, error) {
	ctx, cancel := b.context()
	defer cancel()

	var size int64
	if err := b.pool.QueryRow(ctx, b.q.size, key).Scan(&size); err != nil {
		return 0, translate("size", key, err)
	}
	return size, nil
}

// Checksum returns the hex MD5 of the content, computed by the server.
func (b *Backend) Checksum(key string) (string, error) {
	ctx, cancel := b.context()
	defer cancel()

	var sum string
	if err := b.pool.QueryRow(ctx, b.q.checksum, key).Scan(&sum); err != nil {
		return "", translate("checksum", key, err)
	}
	return sum, nil
}

// Mtime returns the time of the last write to key.
func (b *Backend) Mtime(key string) (time.Time, error) {
	ctx, cancel := b.context()
	defer cancel()

	var mtime time.Time
	if err := b.pool.QueryRow(ctx, b.q.mtime, key).Scan(&mtime); err != nil {
		return time.Time{}, translate("mtime", key, err)
	}
	return mtime, nil
}

// Rename moves the object at sourceKey and its metadata to targetKey in one
// transaction. An existing target fails with core.ErrExist.
func (b *Backend) Rename(sourceKey, targetKey string) error {
	ctx, cancel := b.context()
	defer cancel()

	err := pgx.BeginFunc(ctx, b.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, b.q.renameObject, sourceKey, targetKey)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		if _, err := tx.Exec(ctx, b.q.dropTarget, sourceKey, targetKey); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, b.q.renameMetadata, sourceKey, targetKey)
		return err
	})
	return translate("rename", sourceKey, err)
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
	_ core.MtimeProvider      = (*Backend)(nil)
	_ core.Renamer            = (*Backend)(nil)
)
