package wire

import (
	"context"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/nhr-fau/voidkv/internal/compress"
	"github.com/nhr-fau/voidkv/internal/value"
)

// Codec reads and writes framed Requests/Responses over a byte stream
// (the binary transport; WebSocket carries JSON in its own frames and
// does not use this codec). Suspension points are only at the underlying
// reader/writer and at the compression pool's offload.
type Codec struct {
	rw             io.ReadWriter
	maxMessageSize uint32
	pool           *compress.Pool
}

// NewCodec wraps rw. pool may be nil, in which case decompression runs
// inline on the calling goroutine instead of being offloaded.
func NewCodec(rw io.ReadWriter, maxMessageSize uint32, pool *compress.Pool) *Codec {
	return &Codec{rw: rw, maxMessageSize: maxMessageSize, pool: pool}
}

// Recv reads and decodes the next framed Request.
func (c *Codec) Recv(ctx context.Context) (value.Request, error) {
	frame, err := readRawFrame(c.rw, c.maxMessageSize)
	if err != nil {
		return value.Request{}, err
	}

	body, err := c.inflate(ctx, frame)
	if err != nil {
		return value.Request{}, fmt.Errorf("%w: %v", ErrBadFrame, err)
	}

	var req value.Request
	if err := msgpack.Unmarshal(body, &req); err != nil {
		return value.Request{}, fmt.Errorf("%w: %v", ErrBadFrame, err)
	}
	return req, nil
}

// Send encodes and writes resp uncompressed (mode 0). Sessions always
// reply through Send; compress_threshold is not consulted, and
// SendCompressed is available for callers that pick a mode themselves.
func (c *Codec) Send(resp value.Response) error {
	return c.SendCompressed(resp, compress.ModeNone)
}

// SendCompressed encodes resp and writes it using the given compression
// mode. Callers choosing to compress must already know the mode is not
// over-large; writeRawFrame still enforces max_message_size on the wire
// bytes actually written.
func (c *Codec) SendCompressed(resp value.Response, mode compress.Mode) error {
	body, err := msgpack.Marshal(resp)
	if err != nil {
		return err
	}
	if uint32(len(body)) > c.maxMessageSize {
		return ErrResponseTooLarge
	}

	uncompressedLen := uint32(len(body))
	wireBody := body
	if mode != compress.ModeNone {
		compressed, err := compress.Compress(mode, body)
		if err != nil {
			return err
		}
		wireBody = compressed
	}

	return writeRawFrame(c.rw, mode, uncompressedLen, wireBody, c.maxMessageSize)
}

func (c *Codec) inflate(ctx context.Context, frame rawFrame) ([]byte, error) {
	if frame.compression == compress.ModeNone {
		return frame.body, nil
	}
	if c.pool != nil {
		return c.pool.Decompress(ctx, frame.compression, frame.body, int(frame.uncompressedLen))
	}
	return compress.Decompress(frame.compression, frame.body, int(frame.uncompressedLen))
}
