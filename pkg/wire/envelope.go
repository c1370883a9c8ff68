package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Envelope layout constants.
const (
	// Magic identifies a node message.
	Magic = "RRAC"

	// HeaderSize is the fixed header length in bytes.
	HeaderSize = 8

	// SizeOffset is the offset of the little-endian total length field.
	SizeOffset = 4
)

// Envelope errors.
var (
	ErrShortHeader    = errors.New("message header too short")
	ErrBadMagic       = errors.New("bad message magic")
	ErrLengthMismatch = errors.New("message length mismatch")
)

// MessageLength parses the total message length from a header.
// The header must hold at least HeaderSize bytes.
func MessageLength(header []byte) (uint32, error) {
	if len(header) < HeaderSize {
		return 0, fmt.Errorf("%w: %d bytes", ErrShortHeader, len(header))
	}
	return binary.LittleEndian.Uint32(header[SizeOffset:HeaderSize]), nil
}

// Seal prepends the envelope header to body.
func Seal(body []byte) []byte {
	buf := make([]byte, HeaderSize+len(body))
	copy(buf, Magic)
	binary.LittleEndian.PutUint32(buf[SizeOffset:HeaderSize], uint32(len(buf)))
	copy(buf[HeaderSize:], body)
	return buf
}

// Open validates the envelope header and returns the body.
func Open(data []byte) ([]byte, error) {
	n, err := MessageLength(data)
	if err != nil {
		return nil, err
	}
	if string(data[:SizeOffset]) != Magic {
		return nil, fmt.Errorf("%w: %q", ErrBadMagic, data[:SizeOffset])
	}
	if int(n) != len(data) {
		return nil, fmt.Errorf("%w: header says %d, have %d", ErrLengthMismatch, n, len(data))
	}
	return data[HeaderSize:], nil
}
