package compress

import "github.com/klauspost/compress/zstd"

type options struct {
	codec   Codec
	level   zstd.EncoderLevel
	minSize int
}

// Option configures New.
type Option func(*options)

// WithCodec selects the codec for new writes. Default: Zstd
// Objects are always decoded with the codec recorded in their frame.
func WithCodec(c Codec) Option {
	return func(o *options) {
		o.codec = c
	}
}

// WithLevel sets the Zstandard encoder level. Default: zstd.SpeedDefault
func WithLevel(level zstd.EncoderLevel) Option {
	return func(o *options) {
		o.level = level
	}
}

// WithMinSize stores content shorter than n bytes uncompressed.
// Default: 64
func WithMinSize(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.minSize = n
		}
	}
}
