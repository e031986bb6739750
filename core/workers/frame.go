// Package workers offloads blocking work onto spawned worker processes,
// each paired with a bidirectional framed message channel over its
// standard pipes.
package workers

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Frame format (8-byte header + payload):
//
//	+--------+--------+--------+--------+--------+--------+--------+--------+
//	| Magic (2 bytes) | Ver    | Codec  | PayloadLen (4 bytes, big endian)  |
//	+--------+--------+--------+--------+--------+--------+--------+--------+
//	| Payload (variable)                                                    |
//	+--------+--------+--------+--------+--------+--------+--------+--------+
const (
	// Magic number for worker frames: "WC"
	Magic uint16 = 0x5743

	// Protocol version
	Version byte = 0x01

	// Header size (fixed)
	HeaderSize = 8

	// MaxPayload bounds a single message
	MaxPayload = 64 << 20
)

var (
	ErrInvalidMagic   = errors.New("invalid magic number")
	ErrInvalidVersion = errors.New("unsupported frame version")
	ErrFrameTooLarge  = errors.New("frame too large")
)

// writeFrame writes one framed payload.
func writeFrame(w io.Writer, codec CodecType, payload []byte) error {
	if len(payload) > MaxPayload {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(payload))
	}

	buf := make([]byte, HeaderSize+len(payload))
	binary.BigEndian.PutUint16(buf[0:2], Magic)
	buf[2] = Version
	buf[3] = byte(codec)
	binary.BigEndian.PutUint32(buf[4:8], uint32(len(payload)))
	copy(buf[HeaderSize:], payload)

	_, err := w.Write(buf)
	return err
}

// readFrame reads one framed payload, validating magic and version.
func readFrame(r io.Reader) (CodecType, []byte, error) {
	header := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return 0, nil, err
	}

	if binary.BigEndian.Uint16(header[0:2]) != Magic {
		return 0, nil, ErrInvalidMagic
	}
	if header[2] != Version {
		return 0, nil, ErrInvalidVersion
	}

	size := binary.BigEndian.Uint32(header[4:8])
	if size > MaxPayload {
		return 0, nil, ErrFrameTooLarge
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return 0, nil, err
	}

	return CodecType(header[3]), payload, nil
}
