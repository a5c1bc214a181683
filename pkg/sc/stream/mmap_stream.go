package stream

import (
	"errors"
	"io"
	"os"

	"github.com/edsrzf/mmap-go"
)

var errReadOnly = errors.New("stream: memory-mapped stream is read-only")

// MemoryMappedStream is a read-only Stream backed by a memory-mapped file.
// It gives large inputs a contiguous-memory Data() view — the form the
// metadata trailer parser wants — without reading the whole file into a
// heap-allocated buffer first.
type MemoryMappedStream struct {
	state
	file *os.File
	m    mmap.MMap
	pos  int64
}

// OpenMemoryMapped maps path read-only for the lifetime of the returned
// stream. Writes are not supported; Write always returns an error.
func OpenMemoryMapped(path string) (*MemoryMappedStream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &MemoryMappedStream{file: f, m: m}, nil
}

func (m *MemoryMappedStream) Read(p []byte) (int, error) {
	if err := m.checkOpen(); err != nil {
		return 0, err
	}
	if m.pos >= int64(len(m.m)) {
		return 0, io.EOF
	}
	n := copy(p, m.m[m.pos:])
	m.pos += int64(n)
	return n, nil
}

func (m *MemoryMappedStream) Write(p []byte) (int, error) {
	return 0, errReadOnly
}

func (m *MemoryMappedStream) Seek(offset int64, whence int) (int64, error) {
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
		target = int64(len(m.m)) + offset
	default:
		return 0, errSeekWhence
	}
	if target < 0 {
		return 0, errSeekNegative
	}
	m.pos = target
	return m.pos, nil
}

func (m *MemoryMappedStream) Position() (int64, error) {
	if err := m.checkOpen(); err != nil {
		return 0, err
	}
	return m.pos, nil
}

func (m *MemoryMappedStream) Length() (int64, error) {
	if err := m.checkOpen(); err != nil {
		return 0, err
	}
	return int64(len(m.m)), nil
}

func (m *MemoryMappedStream) ReadBytes(n int) ([]byte, error) {
	if err := m.checkOpen(); err != nil {
		return nil, err
	}
	if m.pos+int64(n) > int64(len(m.m)) {
		return nil, io.ErrUnexpectedEOF
	}
	out := make([]byte, n)
	copy(out, m.m[m.pos:m.pos+int64(n)])
	m.pos += int64(n)
	return out, nil
}

func (m *MemoryMappedStream) WriteBytes(b []byte) error {
	return errReadOnly
}

// Data returns the mapped region directly; it aliases kernel-managed
// memory and is only valid until Close.
func (m *MemoryMappedStream) Data() ([]byte, bool) {
	return m.m, true
}

// Close unmaps the file and closes the descriptor. Idempotent.
func (m *MemoryMappedStream) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	if err := m.m.Unmap(); err != nil {
		m.file.Close()
		return err
	}
	return m.file.Close()
}
