// Package s3 provides a core.Backend for Amazon S3 built on the AWS SDK for
// Go v2. It also works against S3-compatible services through a custom
// endpoint.
//
// Metadata recorded with SetMetadata is staged and sent as user metadata
// with the next upload of the key. Writes with overwrite disabled use a
// conditional PUT (If-None-Match: *), so the existence check and the write
// are a single request.
package s3

import (
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/jmgilman/go/storage/errors"
)

// Config holds S3 backend configuration.
type Config struct {
	// Bucket is the S3 bucket name
	Bucket string

	// Region is the AWS region. Empty uses the default configuration chain.
	Region string

	// Endpoint overrides the service endpoint (MinIO, LocalStack...).
	Endpoint string

	// AccessKey and SecretKey set static credentials. When both are empty the
	// default credential chain is used.
	AccessKey string
	SecretKey string

	// UsePathStyle addresses buckets as endpoint/bucket instead of
	// bucket.endpoint. Most S3-compatible services need it.
	UsePathStyle bool

	// Prefix is an optional prefix for all object keys (for namespacing)
	Prefix string

	// Client is an optional pre-configured client.
	// If provided, Region/Endpoint/credentials are ignored.
	Client Client

	// Timeout bounds every request made by the backend, streams excepted.
	// Zero means no timeout.
	Timeout time.Duration

	// PartSize is the multipart part size used by stream uploads.
	// Zero uses the SDK default.
	PartSize int64

	// Concurrency is the number of parts uploaded in parallel by streams.
	// Zero uses the SDK default.
	Concurrency int
}

// validate checks if the configuration is valid.
func (c *Config) validate() error {
	if c.Bucket == "" {
		return errors.New(errors.CodeInvalidConfig, "bucket is required")
	}
	if (c.AccessKey == "") != (c.SecretKey == "") {
		return errors.New(errors.CodeInvalidConfig, "access key and secret key must be set together")
	}
	if c.Timeout < 0 {
		return errors.New(errors.CodeInvalidConfig, "timeout must not be negative")
	}
	if c.PartSize != 0 && c.PartSize < manager.MinUploadPartSize {
		return errors.Newf(errors.CodeInvalidConfig, "part size must be at least %d bytes", manager.MinUploadPartSize)
	}
	if c.Concurrency < 0 {
		return errors.New(errors.CodeInvalidConfig, "concurrency must not be negative")
	}
	return nil
}
