// Package minio provides a core.Backend for MinIO and other S3-compatible
// object stores.
//
// Objects are stored under an optional key prefix within one bucket.
// Metadata recorded with SetMetadata is staged in memory and sent as user
// metadata with the next Write of the same key, because object stores only
// accept metadata on upload. Keys of stored metadata are returned in lower
// case.
package minio

import (
	"time"

	"github.com/jmgilman/go/storage/errors"
	"github.com/minio/minio-go/v7"
)

// Config holds MinIO backend configuration.
type Config struct {
	// Endpoint is the MinIO server address (e.g., "localhost:9000")
	Endpoint string

	// Bucket is the S3 bucket name
	Bucket string

	// AccessKey is the access key ID for authentication
	AccessKey string

	// SecretKey is the secret access key for authentication
	SecretKey string

	// UseSSL enables HTTPS connections
	UseSSL bool

	// Prefix is an optional prefix for all object keys (for namespacing)
	Prefix string

	// Client is an optional pre-configured MinIO client
	// If provided, Endpoint/AccessKey/SecretKey are ignored
	Client *minio.Client

	// Timeout bounds every request made by the backend, streams excepted.
	// Zero means no timeout.
	Timeout time.Duration

	// PartSize is the multipart upload part size.
	// Zero uses the SDK default.
	PartSize uint64
}

// validate checks if the configuration is valid.
// Either Client OR (Endpoint + Bucket + AccessKey + SecretKey) must be provided.
func (c *Config) validate() error {
	if c.Bucket == "" {
		return errors.New(errors.CodeInvalidConfig, "bucket is required")
	}
	if c.Timeout < 0 {
		return errors.New(errors.CodeInvalidConfig, "timeout must not be negative")
	}

	if c.Client != nil {
		return nil
	}

	if c.Endpoint == "" {
		return errors.New(errors.CodeInvalidConfig, "endpoint is required when client is not provided")
	}
	if c.AccessKey == "" {
		return errors.New(errors.CodeInvalidConfig, "access key is required when client is not provided")
	}
	if c.SecretKey == "" {
		return errors.New(errors.CodeInvalidConfig, "secret key is required when client is not provided")
	}

	return nil
}
