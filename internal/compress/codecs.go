package compress

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/lzw"
	"compress/zlib"
	"fmt"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// readExact reads precisely uncompressedLen bytes from r and reports a
// mismatch in either direction: too few bytes before EOF, or at least one
// byte still available after uncompressedLen have been read. A fixed-size
// make([]byte, uncompressedLen) buffer filled via io.ReadFull can't detect
// the "stream is longer than declared" case, since ReadFull only demands
// that the buffer be filled, not that the reader be exhausted — so this
// reads one byte past the declared length to force that check.
func readExact(r io.Reader, uncompressedLen int) ([]byte, error) {
	buf := make([]byte, uncompressedLen+1)
	n, err := io.ReadFull(r, buf)
	if err == nil {
		return nil, fmt.Errorf("decompressed length exceeds declared %d", uncompressedLen)
	}
	if err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	if n != uncompressedLen {
		return nil, fmt.Errorf("decompressed length %d does not match declared %d", n, uncompressedLen)
	}
	return buf[:n], nil
}

type lz4Codec struct{}

func (lz4Codec) compress(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write(src); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (lz4Codec) decompress(src []byte, uncompressedLen int) ([]byte, error) {
	r := lz4.NewReader(bytes.NewReader(src))
	return readExact(r, uncompressedLen)
}

type zstdCodec struct{}

func (zstdCodec) compress(src []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(src, nil), nil
}

func (zstdCodec) decompress(src []byte, uncompressedLen int) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return dec.DecodeAll(src, make([]byte, 0, uncompressedLen))
}

type snappyCodec struct{}

func (snappyCodec) compress(src []byte) ([]byte, error) {
	return snappy.Encode(nil, src), nil
}

func (snappyCodec) decompress(src []byte, uncompressedLen int) ([]byte, error) {
	return snappy.Decode(make([]byte, 0, uncompressedLen), src)
}

type brotliCodec struct{}

func (brotliCodec) compress(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := brotli.NewWriter(&buf)
	if _, err := w.Write(src); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (brotliCodec) decompress(src []byte, uncompressedLen int) ([]byte, error) {
	r := brotli.NewReader(bytes.NewReader(src))
	return readExact(r, uncompressedLen)
}

type deflateCodec struct{}

func (deflateCodec) compress(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(src); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (deflateCodec) decompress(src []byte, uncompressedLen int) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(src))
	defer r.Close()
	return readExact(r, uncompressedLen)
}

type zlibCodec struct{}

func (zlibCodec) compress(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(src); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (zlibCodec) decompress(src []byte, uncompressedLen int) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(src))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return readExact(r, uncompressedLen)
}

type gzipCodec struct{}

func (gzipCodec) compress(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(src); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (gzipCodec) decompress(src []byte, uncompressedLen int) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(src))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return readExact(r, uncompressedLen)
}

// lzwCodec uses MSB-first bit order with 8-bit literals, the convention
// compress/lzw documents for TIFF and PDF (GIF uses LSB order).
type lzwCodec struct{}

func (lzwCodec) compress(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := lzw.NewWriter(&buf, lzw.MSB, 8)
	if _, err := w.Write(src); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (lzwCodec) decompress(src []byte, uncompressedLen int) ([]byte, error) {
	r := lzw.NewReader(bytes.NewReader(src), lzw.MSB, 8)
	defer r.Close()
	return readExact(r, uncompressedLen)
}
