package codec

import (
	"bytes"
	"fmt"
	"io"

	"github.com/dsnet/compress/bzip2"
)

// CompressBzip2Archive bzip2-compresses data at the given level (1-9). The
// convert subcommand uses this to shrink the intermediate per-level payload
// it stages in the workenv scratch directory between decoding a source
// container and re-wrapping its levels into a destination image container;
// it is never part of the SC container wire format itself.
func CompressBzip2Archive(data []byte, level int) ([]byte, error) {
	var buf bytes.Buffer
	bw, err := bzip2.NewWriter(&buf, &bzip2.WriterConfig{Level: level})
	if err != nil {
		return nil, fmt.Errorf("codec: creating bzip2 writer: %w", err)
	}
	if _, err := bw.Write(data); err != nil {
		bw.Close()
		return nil, fmt.Errorf("codec: writing bzip2 archive: %w", err)
	}
	if err := bw.Close(); err != nil {
		return nil, fmt.Errorf("codec: closing bzip2 writer: %w", err)
	}
	return buf.Bytes(), nil
}

// DecompressBzip2Archive reverses CompressBzip2Archive.
func DecompressBzip2Archive(data []byte) ([]byte, error) {
	br, err := bzip2.NewReader(bytes.NewReader(data), &bzip2.ReaderConfig{})
	if err != nil {
		return nil, fmt.Errorf("codec: creating bzip2 reader: %w", err)
	}
	defer br.Close()
	out, err := io.ReadAll(br)
	if err != nil {
		return nil, fmt.Errorf("codec: reading bzip2 archive: %w", err)
	}
	return out, nil
}
