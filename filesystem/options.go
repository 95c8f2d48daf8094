package filesystem

import "log/slog"

// Option configures a Filesystem.
type Option func(*Filesystem)

// WithLogger sets the logger used for debug output of backend calls.
// By default nothing is logged.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Filesystem) {
		if logger != nil {
			f.logger = logger
		}
	}
}
