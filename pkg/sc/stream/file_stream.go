package stream

import (
	"io"
	"os"
)

// FileStream is a Stream backed by an *os.File.
type FileStream struct {
	state
	file *os.File
}

// OpenFile opens path for reading and writing, creating it if create is
// true (truncating any existing content).
func OpenFile(path string, create bool) (*FileStream, error) {
	flags := os.O_RDWR
	if create {
		flags |= os.O_CREATE | os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, err
	}
	return &FileStream{file: f}, nil
}

// NewFileStream wraps an already-open *os.File.
func NewFileStream(f *os.File) *FileStream {
	return &FileStream{file: f}
}

func (f *FileStream) Read(p []byte) (int, error) {
	if err := f.checkOpen(); err != nil {
		return 0, err
	}
	return f.file.Read(p)
}

func (f *FileStream) Write(p []byte) (int, error) {
	if err := f.checkOpen(); err != nil {
		return 0, err
	}
	return f.file.Write(p)
}

func (f *FileStream) Seek(offset int64, whence int) (int64, error) {
	if err := f.checkOpen(); err != nil {
		return 0, err
	}
	return f.file.Seek(offset, whence)
}

func (f *FileStream) Position() (int64, error) {
	return f.Seek(0, io.SeekCurrent)
}

func (f *FileStream) Length() (int64, error) {
	if err := f.checkOpen(); err != nil {
		return 0, err
	}
	info, err := f.file.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func (f *FileStream) ReadBytes(n int) ([]byte, error) {
	if err := f.checkOpen(); err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(f.file, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (f *FileStream) WriteBytes(b []byte) error {
	if err := f.checkOpen(); err != nil {
		return err
	}
	_, err := f.file.Write(b)
	return err
}

// Data always reports ok=false: a raw file stream has no contiguous
// in-memory representation.
func (f *FileStream) Data() ([]byte, bool) {
	return nil, false
}

// Close is idempotent.
func (f *FileStream) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	return f.file.Close()
}
