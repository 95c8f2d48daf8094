package s3

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jmgilman/go/storage/backend/backendtest"
	"github.com/jmgilman/go/storage/core"
	"github.com/jmgilman/go/storage/filesystem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const testBucket = "test-bucket"

// setupTestS3 starts a MinIO container as an S3-compatible endpoint and
// returns a configuration pointing at an existing test bucket.
func setupTestS3(t *testing.T) Config {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "minio/minio:latest",
		ExposedPorts: []string{"9000/tcp"},
		Env: map[string]string{
			"MINIO_ROOT_USER":     "minioadmin",
			"MINIO_ROOT_PASSWORD": "minioadmin",
		},
		Cmd:        []string{"server", "/data"},
		WaitingFor: wait.ForHTTP("/minio/health/live").WithPort("9000/tcp"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "failed to start MinIO container")
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	endpoint, err := container.Endpoint(ctx, "http")
	require.NoError(t, err, "failed to get container endpoint")

	cfg := Config{
		Bucket:       testBucket,
		Region:       "us-east-1",
		Endpoint:     endpoint,
		AccessKey:    "minioadmin",
		SecretKey:    "minioadmin",
		UsePathStyle: true,
	}

	client, err := newClient(ctx, cfg)
	require.NoError(t, err)
	_, err = client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(testBucket)})
	require.NoError(t, err, "failed to create test bucket")

	return cfg
}

func TestIntegration_Suite(t *testing.T) {
	cfg := setupTestS3(t)

	var n atomic.Int64
	backendtest.TestSuiteWithConfig(t, func() core.Backend {
		c := cfg
		c.Prefix = fmt.Sprintf("suite-%d", n.Add(1))
		b, err := New(context.Background(), c)
		require.NoError(t, err)
		return b
	}, backendtest.ObjectStoreConfig())
}

func TestIntegration_FileHandle(t *testing.T) {
	cfg := setupTestS3(t)
	cfg.Prefix = "handles"

	b, err := New(context.Background(), cfg)
	require.NoError(t, err)
	fsys := filesystem.New(b)

	f := fsys.CreateFile("a/b.txt")
	_, err = f.SetContent([]byte("content"), core.Metadata{"team": "storage"})
	require.NoError(t, err)

	md, err := fsys.Metadata("a/b.txt")
	require.NoError(t, err)
	assert.Equal(t, core.Metadata{"team": "storage"}, md)

	require.NoError(t, fsys.Rename("a/b.txt", "c/d.txt"))

	// Metadata follows the object on rename.
	md, err = fsys.Metadata("c/d.txt")
	require.NoError(t, err)
	assert.Equal(t, core.Metadata{"team": "storage"}, md)

	renamed, err := fsys.Get("c/d.txt", false)
	require.NoError(t, err)
	content, err := renamed.Content(nil)
	require.NoError(t, err)
	assert.Equal(t, "content", string(content))
}
