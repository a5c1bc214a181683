package stream

import (
	"errors"
	"io"
)

var (
	errSeekWhence   = errors.New("stream: invalid seek whence")
	errSeekNegative = errors.New("stream: negative seek position")
)

// MemoryStream is a Stream backed by an in-memory byte slice. It grows on
// write, matching the teacher's BufferStream semantics.
type MemoryStream struct {
	state
	buf []byte
	pos int64
}

// NewMemoryStream creates a MemoryStream seeded with an optional initial
// contents slice. The slice is copied; the caller's backing array is never
// mutated.
func NewMemoryStream(initial []byte) *MemoryStream {
	buf := make([]byte, len(initial))
	copy(buf, initial)
	return &MemoryStream{buf: buf}
}

func (m *MemoryStream) Read(p []byte) (int, error) {
	if err := m.checkOpen(); err != nil {
		return 0, err
	}
	if m.pos >= int64(len(m.buf)) {
		return 0, io.EOF
	}
	n := copy(p, m.buf[m.pos:])
	m.pos += int64(n)
	return n, nil
}

func (m *MemoryStream) Write(p []byte) (int, error) {
	if err := m.checkOpen(); err != nil {
		return 0, err
	}
	end := m.pos + int64(len(p))
	if end > int64(len(m.buf)) {
		grown := make([]byte, end)
		copy(grown, m.buf)
		m.buf = grown
	}
	n := copy(m.buf[m.pos:end], p)
	m.pos += int64(n)
	return n, nil
}

func (m *MemoryStream) Seek(offset int64, whence int) (int64, error) {
	if err := m.checkOpen(); err != nil {
		return 0, err
	}
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = m.pos + offset
	case io.SeekEnd:
		target = int64(len(m.buf)) + offset
	default:
		return 0, errSeekWhence
	}
	if target < 0 {
		return 0, errSeekNegative
	}
	m.pos = target
	return m.pos, nil
}

func (m *MemoryStream) Position() (int64, error) {
	if err := m.checkOpen(); err != nil {
		return 0, err
	}
	return m.pos, nil
}

func (m *MemoryStream) Length() (int64, error) {
	if err := m.checkOpen(); err != nil {
		return 0, err
	}
	return int64(len(m.buf)), nil
}

func (m *MemoryStream) ReadBytes(n int) ([]byte, error) {
	if err := m.checkOpen(); err != nil {
		return nil, err
	}
	if m.pos+int64(n) > int64(len(m.buf)) {
		return nil, io.ErrUnexpectedEOF
	}
	out := make([]byte, n)
	copy(out, m.buf[m.pos:m.pos+int64(n)])
	m.pos += int64(n)
	return out, nil
}

func (m *MemoryStream) WriteBytes(b []byte) error {
	_, err := m.Write(b)
	return err
}

// Data returns the full backing slice. The returned slice aliases the
// stream's internal buffer and must not be mutated by the caller.
func (m *MemoryStream) Data() ([]byte, bool) {
	return m.buf, true
}

// Bytes is a convenience accessor equivalent to Data without the ok flag,
// used by callers that already know the stream is memory-backed.
func (m *MemoryStream) Bytes() []byte {
	return m.buf
}

// Close is idempotent and releases the backing buffer.
func (m *MemoryStream) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	m.buf = nil
	return nil
}
