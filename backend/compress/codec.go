package compress

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec identifies the compression algorithm of a stored object.
type Codec uint8

const (
	// None stores content as-is inside the frame.
	None Codec = 0
	// LZ4 uses LZ4 block compression (fast, lower ratio).
	LZ4 Codec = 1
	// Zstd uses Zstandard compression (better ratio).
	Zstd Codec = 2
)

// String returns the codec name.
func (c Codec) String() string {
	switch c {
	case None:
		return "none"
	case LZ4:
		return "lz4"
	case Zstd:
		return "zstd"
	default:
		return fmt.Sprintf("codec(%d)", uint8(c))
	}
}

// Frame layout: magic (2 bytes) | codec (1 byte) | uncompressed size (uint32 LE) | payload.
const headerSize = 7

var magic = [2]byte{'S', 'Z'}

// lz4 cannot expand data by more than this factor.
const maxLZ4Ratio = 255

// codec compresses and decompresses frames. Encoder and decoder are safe for
// concurrent EncodeAll/DecodeAll calls.
type codec struct {
	kind    Codec
	minSize int
	enc     *zstd.Encoder
	dec     *zstd.Decoder
}

func newCodec(kind Codec, level zstd.EncoderLevel, minSize int) (*codec, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(level))
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	return &codec{kind: kind, minSize: minSize, enc: enc, dec: dec}, nil
}

// encode wraps data in a frame, falling back to None when compression
// doesn't shrink it.
func (c *codec) encode(data []byte) ([]byte, error) {
	if uint64(len(data)) > math.MaxUint32 {
		return nil, fmt.Errorf("content of %d bytes exceeds frame limit", len(data))
	}
	if c.kind == None || len(data) < c.minSize || len(data) == 0 {
		return frame(None, len(data), data), nil
	}

	var payload []byte
	switch c.kind {
	case LZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return nil, err
		}
		payload = buf[:n]
	case Zstd:
		payload = c.enc.EncodeAll(data, nil)
	default:
		return nil, fmt.Errorf("unknown codec %s", c.kind)
	}

	if len(payload) == 0 || len(payload) >= len(data) {
		return frame(None, len(data), data), nil
	}
	return frame(c.kind, len(data), payload), nil
}

// decode returns the content held by a frame.
func (c *codec) decode(raw []byte) ([]byte, error) {
	if len(raw) < headerSize || raw[0] != magic[0] || raw[1] != magic[1] {
		return nil, fmt.Errorf("missing frame header")
	}

	kind := Codec(raw[2])
	size := int(binary.LittleEndian.Uint32(raw[3:headerSize]))
	payload := raw[headerSize:]

	var (
		out []byte
		err error
	)
	switch kind {
	case None:
		out = append([]byte{}, payload...)
	case LZ4:
		if size > len(payload)*maxLZ4Ratio {
			return nil, fmt.Errorf("declared size %d exceeds lz4 bound", size)
		}
		out = make([]byte, size)
		var n int
		n, err = lz4.UncompressBlock(payload, out)
		out = out[:max(n, 0)]
	case Zstd:
		out, err = c.dec.DecodeAll(payload, make([]byte, 0, min(size, 64<<20)))
	default:
		return nil, fmt.Errorf("unknown codec %s", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", kind, err)
	}
	if len(out) != size {
		return nil, fmt.Errorf("%s: decoded %d bytes, want %d", kind, len(out), size)
	}
	return out, nil
}

func frame(kind Codec, size int, payload []byte) []byte {
	out := make([]byte, headerSize+len(payload))
	out[0], out[1] = magic[0], magic[1]
	out[2] = byte(kind)
	binary.LittleEndian.PutUint32(out[3:headerSize], uint32(size))
	copy(out[headerSize:], payload)
	return out
}
