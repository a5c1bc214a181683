package codec

import (
	"io"

	"github.com/klauspost/compress/zstd"
)

// ZstdCompressor streams plaintext into raw Zstandard frames. Zstandard's
// own framing is self-describing (magic, frame header, optional checksum),
// so unlike the LZMA/LZHAM adapters there is no extra SC-specific header to
// manage here: "Zstandard transparent framing" per the format spec.
type ZstdCompressor struct {
	enc *zstd.Encoder
}

// NewZstdCompressor builds an encoder at the given zstd compression level
// with checksums disabled and the frame's content-size flag set, using
// workers concurrent encoder goroutines (0 lets the encoder pick).
func NewZstdCompressor(level int, workers int, output io.Writer) (*ZstdCompressor, error) {
	opts := []zstd.EOption{
		zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)),
		zstd.WithEncoderCRC(false),
		zstd.WithSingleSegment(true),
	}
	if workers > 0 {
		opts = append(opts, zstd.WithEncoderConcurrency(workers))
	}
	enc, err := zstd.NewWriter(output, opts...)
	if err != nil {
		return nil, wrapFailure("zstd", err)
	}
	return &ZstdCompressor{enc: enc}, nil
}

// CompressStream reads all of input, since WithSingleSegment requires the
// full plaintext up front to stamp the frame's content-size field.
func (c *ZstdCompressor) CompressStream(input io.Reader) error {
	if _, err := c.enc.ReadFrom(input); err != nil {
		c.enc.Close()
		return wrapFailure("zstd", err)
	}
	return wrapFailure("zstd", c.enc.Close())
}

// Close releases the encoder's worker goroutines.
func (c *ZstdCompressor) Close() error {
	return c.enc.Close()
}

// ZstdDecompressor streams raw Zstandard frames back to plaintext.
type ZstdDecompressor struct {
	dec *zstd.Decoder
}

// NewZstdDecompressor builds a decoder reading frames from input.
func NewZstdDecompressor(input io.Reader) (*ZstdDecompressor, error) {
	dec, err := zstd.NewReader(input)
	if err != nil {
		return nil, wrapFailure("zstd", err)
	}
	return &ZstdDecompressor{dec: dec}, nil
}

// DecompressStream copies decoded plaintext to output until the decoder
// reaches the end of the final frame.
func (d *ZstdDecompressor) DecompressStream(output io.Writer) error {
	if err := copyThrough(output, d.dec, ZstdBufferSize); err != nil {
		return wrapFailure("zstd", err)
	}
	return nil
}

// Close releases the decoder's worker goroutines.
func (d *ZstdDecompressor) Close() error {
	d.dec.Close()
	return nil
}
