// Package wire implements the length-prefixed frame envelope for the
// binary transport: body_len(u32 LE) + compression(u8) +
// [uncompressed_len(u32 LE)] + body.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/nhr-fau/voidkv/internal/compress"
)

// ErrRequestTooLarge, ErrResponseTooLarge and ErrBadFrame are the
// status-bearing outcomes the session layer maps onto wire statuses.
var (
	ErrRequestTooLarge  = errors.New("wire: request exceeds max_message_size")
	ErrResponseTooLarge = errors.New("wire: response exceeds max_message_size")
	ErrBadFrame         = errors.New("wire: malformed frame")
)

// rawFrame is the envelope's fields before the body has been decompressed.
type rawFrame struct {
	compression     compress.Mode
	uncompressedLen uint32
	body            []byte
}

// readRawFrame reads one frame from r. body_len (and, when compressed,
// uncompressed_len) are checked against maxMessageSize before any
// allocation sized by an attacker-controlled length.
func readRawFrame(r io.Reader, maxMessageSize uint32) (rawFrame, error) {
	var header [5]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return rawFrame{}, err
	}

	bodyLen := binary.LittleEndian.Uint32(header[0:4])
	mode := compress.Mode(header[4])

	if bodyLen > maxMessageSize {
		// Drain and discard so the stream stays framed for the caller to
		// report RequestTooLarge without desyncing on the next frame.
		if _, err := io.CopyN(io.Discard, r, int64(bodyLen)); err != nil {
			return rawFrame{}, fmt.Errorf("%w: %v", ErrBadFrame, err)
		}
		if mode != compress.ModeNone {
			var skip [4]byte
			if _, err := io.ReadFull(r, skip[:]); err != nil {
				return rawFrame{}, fmt.Errorf("%w: %v", ErrBadFrame, err)
			}
		}
		return rawFrame{}, ErrRequestTooLarge
	}

	var uncompressedLen uint32
	if mode != compress.ModeNone {
		var lenBuf [4]byte
		if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
			return rawFrame{}, err
		}
		uncompressedLen = binary.LittleEndian.Uint32(lenBuf[:])
		if uncompressedLen > maxMessageSize {
			if _, err := io.CopyN(io.Discard, r, int64(bodyLen)); err != nil {
				return rawFrame{}, fmt.Errorf("%w: %v", ErrBadFrame, err)
			}
			return rawFrame{}, ErrRequestTooLarge
		}
	}

	body := make([]byte, bodyLen)
	if _, err := io.ReadFull(r, body); err != nil {
		return rawFrame{}, err
	}

	return rawFrame{compression: mode, uncompressedLen: uncompressedLen, body: body}, nil
}

// writeRawFrame writes one frame to w, preceded by validating bodyLen
// against maxMessageSize.
func writeRawFrame(w io.Writer, mode compress.Mode, uncompressedLen uint32, body []byte, maxMessageSize uint32) error {
	if uint32(len(body)) > maxMessageSize {
		return ErrResponseTooLarge
	}

	var header [5]byte
	binary.LittleEndian.PutUint32(header[0:4], uint32(len(body)))
	header[4] = byte(mode)
	if _, err := w.Write(header[:]); err != nil {
		return err
	}

	if mode != compress.ModeNone {
		var lenBuf [4]byte
		binary.LittleEndian.PutUint32(lenBuf[:], uncompressedLen)
		if _, err := w.Write(lenBuf[:]); err != nil {
			return err
		}
	}

	_, err := w.Write(body)
	return err
}
