// Package codec implements the three inner-codec streaming adapters the SC
// container dispatches to: LZMA, LZHAM, and Zstandard. Each adapter is a
// thin wrapper over a third-party (or, for LZHAM, pluggable) compressor and
// presents a uniform compress_stream/decompress_stream contract, copying
// through a fixed-size buffer so no adapter silently reorders or rebuffers
// bytes beyond its own I/O loop.
package codec

import (
	"errors"
	"fmt"
	"io"
)

// Buffer sizes for the streaming ping-pong loop, per component design
// guidance: 256 KiB for LZHAM, 16 MiB for LZMA. Zstandard delegates its own
// internal buffering to klauspost/compress and only needs a modest copy
// buffer at the adapter boundary.
const (
	LzmaBufferSize  = 16 * 1024 * 1024
	LzhamBufferSize = 256 * 1024
	ZstdBufferSize  = 1 * 1024 * 1024
)

// ErrInnerCodecFailure wraps any non-success terminal status surfaced by an
// underlying codec. Callers compare with errors.Is / errors.As to recover
// the codec name and the wrapped cause.
type ErrInnerCodecFailure struct {
	Codec string
	Err   error
}

func (e *ErrInnerCodecFailure) Error() string {
	return fmt.Sprintf("inner codec failure (%s): %v", e.Codec, e.Err)
}

func (e *ErrInnerCodecFailure) Unwrap() error { return e.Err }

func wrapFailure(codecName string, err error) error {
	if err == nil {
		return nil
	}
	return &ErrInnerCodecFailure{Codec: codecName, Err: err}
}

// ErrInvalidParameters is returned when a codec is asked to operate with
// out-of-range or contradictory parameters (e.g. an LZMA thread count
// outside {1, 2}).
var ErrInvalidParameters = errors.New("codec: invalid parameters")

// copyThrough pumps all of src into dst using a buffer of the given size,
// honoring the fixed ping-pong-buffer streaming discipline: refill, invoke,
// flush, repeat until the underlying reader signals io.EOF.
func copyThrough(dst io.Writer, src io.Reader, bufSize int) error {
	buf := make([]byte, bufSize)
	_, err := io.CopyBuffer(dst, src, buf)
	return err
}
