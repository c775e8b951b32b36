// Package compress implements the frame compression layer: a fixed set of
// named codecs keyed by a single power-of-two mode byte, each honoring the
// same compress/decompress contract over a byte slice.
package compress

import "fmt"

// Mode is the wire compression identifier from the frame header. Exactly
// one bit may be set; 0x00 means "no compression".
type Mode uint8

const (
	ModeNone    Mode = 0x00
	ModeLZ4     Mode = 0x01
	ModeZstd    Mode = 0x02
	ModeSnappy  Mode = 0x04
	ModeBrotli  Mode = 0x08
	ModeDeflate Mode = 0x10
	ModeZlib    Mode = 0x20
	ModeGzip    Mode = 0x40
	ModeLZW     Mode = 0x80
)

func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModeLZ4:
		return "lz4"
	case ModeZstd:
		return "zstd"
	case ModeSnappy:
		return "snappy"
	case ModeBrotli:
		return "brotli"
	case ModeDeflate:
		return "deflate"
	case ModeZlib:
		return "zlib"
	case ModeGzip:
		return "gzip"
	case ModeLZW:
		return "lzw"
	default:
		return fmt.Sprintf("mode(0x%02x)", uint8(m))
	}
}

// codec is the per-algorithm implementation behind a Mode.
type codec interface {
	compress(src []byte) ([]byte, error)
	decompress(src []byte, uncompressedLen int) ([]byte, error)
}

var registry = map[Mode]codec{
	ModeLZ4:     lz4Codec{},
	ModeZstd:    zstdCodec{},
	ModeSnappy:  snappyCodec{},
	ModeBrotli:  brotliCodec{},
	ModeDeflate: deflateCodec{},
	ModeZlib:    zlibCodec{},
	ModeGzip:    gzipCodec{},
	ModeLZW:     lzwCodec{},
}

// validate rejects anything but a single known bit or zero.
func validate(m Mode) (codec, error) {
	if m == ModeNone {
		return nil, nil
	}
	if m&(m-1) != 0 {
		return nil, fmt.Errorf("compress: mode 0x%02x has more than one bit set", uint8(m))
	}
	c, ok := registry[m]
	if !ok {
		return nil, fmt.Errorf("compress: unknown mode 0x%02x", uint8(m))
	}
	return c, nil
}

// Compress encodes src with the codec named by mode. mode == ModeNone
// returns src unchanged.
func Compress(mode Mode, src []byte) ([]byte, error) {
	c, err := validate(mode)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return src, nil
	}
	return c.compress(src)
}

// Decompress decodes src with the codec named by mode and fails fast if
// the result's length does not match uncompressedLen exactly, per the
// frame header's declared size.
func Decompress(mode Mode, src []byte, uncompressedLen int) ([]byte, error) {
	c, err := validate(mode)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return src, nil
	}
	out, err := c.decompress(src, uncompressedLen)
	if err != nil {
		return nil, fmt.Errorf("compress: %s: %w", mode, err)
	}
	if len(out) != uncompressedLen {
		return nil, fmt.Errorf("compress: %s: decompressed length %d does not match declared %d", mode, len(out), uncompressedLen)
	}
	return out, nil
}
