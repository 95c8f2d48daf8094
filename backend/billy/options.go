package billy

import "io/fs"

// Option configures backend creation.
type Option func(*config)

type config struct {
	perm       fs.FileMode
	createRoot bool
}

func newConfig(opts []Option) config {
	cfg := config{perm: 0644}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithFileMode sets the permission bits of created files (default 0644).
func WithFileMode(perm fs.FileMode) Option {
	return func(c *config) {
		c.perm = perm
	}
}

// WithCreateRoot makes NewLocal create the root directory if it is missing.
func WithCreateRoot() Option {
	return func(c *config) {
		c.createRoot = true
	}
}
