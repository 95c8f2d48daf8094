// Package redis provides a core.Backend that stores objects as Redis
// strings.
//
// An object stored at key K lives in the string key "<prefix>:obj:K" and its
// metadata in the hash "<prefix>:meta:K" (without a prefix: "obj:K" and
// "meta:K"). Metadata is written immediately and removed together with the
// object.
package redis

import (
	"time"

	"github.com/jmgilman/go/storage/errors"
	"github.com/redis/go-redis/v9"
)

// Config holds Redis backend configuration.
type Config struct {
	// Addr is the Redis server address. Default: "localhost:6379"
	Addr string

	// Password authenticates the connection (optional)
	Password string

	// DB selects the Redis database
	DB int

	// Prefix namespaces every key written by the backend (optional)
	Prefix string

	// Client is an optional pre-configured client.
	// If provided, Addr/Password/DB are ignored and the backend never closes it.
	Client redis.UniversalClient

	// Timeout bounds every command. Zero means no timeout.
	Timeout time.Duration
}

// validate checks if the configuration is valid.
func (c *Config) validate() error {
	if c.DB < 0 {
		return errors.New(errors.CodeInvalidConfig, "db must not be negative")
	}
	if c.Timeout < 0 {
		return errors.New(errors.CodeInvalidConfig, "timeout must not be negative")
	}
	return nil
}

func (c *Config) options() *redis.Options {
	opts := &redis.Options{
		Addr:     c.Addr,
		Password: c.Password,
		DB:       c.DB,
	}
	if opts.Addr == "" {
		opts.Addr = "localhost:6379"
	}
	return opts
}
