// Package stream provides the bidirectional byte-stream abstraction that the
// SC container reader, writer, and codec adapters are generic over.
package stream

import (
	"encoding/binary"
	"errors"
	"io"
)

// ErrClosed is returned by any operation attempted on a closed stream.
var ErrClosed = errors.New("stream: operation on closed stream")

// Stream is a seekable, length-aware byte stream. A concrete implementation
// owns exactly one underlying resource (a file descriptor or a byte buffer)
// and is not safe for concurrent use by more than one goroutine at a time,
// matching the single-threaded cooperative model the container layer runs
// under. The endianness-tagged integer helpers (ReadUint16, WriteUint32,
// ...) are free functions below, not methods, so every implementation gets
// them for free from its ReadBytes and WriteBytes methods.
type Stream interface {
	io.Reader
	io.Writer
	io.Closer

	// Seek repositions the stream per io.Seeker semantics.
	Seek(offset int64, whence int) (int64, error)

	// Position returns the current absolute offset.
	Position() (int64, error)

	// Length returns the total size of the underlying data.
	Length() (int64, error)

	// ReadBytes reads exactly n bytes or returns an error (io.EOF or
	// io.ErrUnexpectedEOF, depending on the implementation, if the stream is
	// exhausted before n bytes are available).
	ReadBytes(n int) ([]byte, error)

	// WriteBytes writes all of b.
	WriteBytes(b []byte) error

	// Data returns a read-only view of the entire contents as a contiguous
	// byte slice, when the implementation is memory-backed. ok is false for
	// streams with no contiguous-memory representation (e.g. unbuffered
	// file streams); callers — chiefly the trailer parser — must fall back
	// to seeking reads in that case.
	Data() (data []byte, ok bool)
}

// state mirrors the Open(pos)/Closed state machine every concrete stream
// implementation shares. Closing is idempotent; every other operation
// requires Open.
type state struct {
	closed bool
}

func (s *state) checkOpen() error {
	if s.closed {
		return ErrClosed
	}
	return nil
}

// ReadUint8 reads a single unsigned byte from s.
func ReadUint8(s Stream) (uint8, error) {
	b, err := s.ReadBytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadUint16 reads a 16-bit unsigned integer from s in the given byte order.
func ReadUint16(s Stream, order binary.ByteOrder) (uint16, error) {
	b, err := s.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return order.Uint16(b), nil
}

// ReadUint32 reads a 32-bit unsigned integer from s in the given byte order.
func ReadUint32(s Stream, order binary.ByteOrder) (uint32, error) {
	b, err := s.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return order.Uint32(b), nil
}

// ReadUint64 reads a 64-bit unsigned integer from s in the given byte order.
func ReadUint64(s Stream, order binary.ByteOrder) (uint64, error) {
	b, err := s.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return order.Uint64(b), nil
}

// WriteUint8 writes a single unsigned byte to s.
func WriteUint8(s Stream, v uint8) error {
	return s.WriteBytes([]byte{v})
}

// WriteUint16 writes a 16-bit unsigned integer to s in the given byte order.
func WriteUint16(s Stream, v uint16, order binary.ByteOrder) error {
	var b [2]byte
	order.PutUint16(b[:], v)
	return s.WriteBytes(b[:])
}

// WriteUint32 writes a 32-bit unsigned integer to s in the given byte order.
func WriteUint32(s Stream, v uint32, order binary.ByteOrder) error {
	var b [4]byte
	order.PutUint32(b[:], v)
	return s.WriteBytes(b[:])
}

// WriteUint64 writes a 64-bit unsigned integer to s in the given byte order.
func WriteUint64(s Stream, v uint64, order binary.ByteOrder) error {
	var b [8]byte
	order.PutUint64(b[:], v)
	return s.WriteBytes(b[:])
}
