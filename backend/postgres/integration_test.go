package postgres

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmgilman/go/storage/backend/backendtest"
	"github.com/jmgilman/go/storage/core"
	"github.com/jmgilman/go/storage/filesystem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestPostgres starts a PostgreSQL container and returns a connected pool.
func setupTestPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "storage",
			"POSTGRES_PASSWORD": "storage",
			"POSTGRES_DB":       "storage",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "failed to start PostgreSQL container")
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err, "failed to get container endpoint")

	pool, err := pgxpool.New(ctx, fmt.Sprintf("postgres://storage:storage@%s/storage?sslmode=disable", endpoint))
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestIntegration_Suite(t *testing.T) {
	pool := setupTestPostgres(t)

	var n atomic.Int64
	backendtest.TestSuite(t, func() core.Backend {
		b, err := New(context.Background(), Config{
			Pool:    pool,
			Table:   fmt.Sprintf("suite_%d", n.Add(1)),
			Migrate: true,
		})
		require.NoError(t, err)
		return b
	})
}

func TestIntegration_MissingTable(t *testing.T) {
	pool := setupTestPostgres(t)

	b, err := New(context.Background(), Config{Pool: pool, Table: "unmigrated"})
	require.NoError(t, err)

	_, err = b.Read("a.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run Migrate")
}

func TestIntegration_FileHandle(t *testing.T) {
	pool := setupTestPostgres(t)
	ctx := context.Background()

	b, err := New(ctx, Config{Pool: pool, Table: "handles", Migrate: true})
	require.NoError(t, err)
	defer b.Close()

	fsys := filesystem.New(b)
	require.True(t, fsys.IsMetadataSupported())

	f := fsys.CreateFile("reports/q1.csv")
	n, err := f.SetContent([]byte("a,b\n1,2\n"), core.Metadata{"owner": "finance", "rows": 1})
	require.NoError(t, err)
	assert.Equal(t, int64(8), n)

	var raw map[string]any
	err = pool.QueryRow(ctx, `SELECT metadata FROM handles_metadata WHERE key = $1`, "reports/q1.csv").Scan(&raw)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"owner": "finance", "rows": float64(1)}, raw)

	sum, err := fsys.Checksum("reports/q1.csv")
	require.NoError(t, err)
	assert.Equal(t, "e5ebd4c02cefbe7955977c67ada242b7", sum)

	before, err := fsys.Mtime("reports/q1.csv")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), before, time.Minute)

	require.NoError(t, fsys.Rename("reports/q1.csv", "archive/q1.csv"))
	md, err := fsys.Metadata("archive/q1.csv")
	require.NoError(t, err)
	assert.Equal(t, "finance", md["owner"])

	moved, err := fsys.Get("archive/q1.csv", false)
	require.NoError(t, err)
	content, err := moved.Content(nil)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(content))

	require.NoError(t, moved.Delete(nil))
	var count int
	err = pool.QueryRow(ctx, `SELECT count(*) FROM handles_metadata WHERE key = $1`, "archive/q1.csv").Scan(&count)
	require.NoError(t, err)
	assert.Zero(t, count)

	size, err := fsys.CreateFile("archive/q1.csv").Size()
	require.NoError(t, err)
	assert.Zero(t, size)
}
