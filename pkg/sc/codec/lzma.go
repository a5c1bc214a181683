package codec

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/ulikunitz/xz/lzma"
)

// LzmaProps holds the encoder parameters the SC container writer computes
// before dispatching to the LZMA adapter (§4.2 step 5 of the format spec).
type LzmaProps struct {
	Level      int
	LC, LP, PB int
	DictSize   uint32
	Threads    int // 1 or 2; upstream limit
}

// DefaultLzmaProps mirrors the writer's default parameter table: level 6,
// pb=2, lc=3 (raised to 4 for inputs over 2^28 bytes), lp=0, a 256 KiB
// dictionary, and 2 threads only if the caller asked for at least 2.
func DefaultLzmaProps(inputLength int64, requestedThreads int) LzmaProps {
	lc := 3
	if inputLength > 1<<28 {
		lc = 4
	}
	threads := 1
	if requestedThreads >= 2 {
		threads = 2
	}
	return LzmaProps{
		Level:    6,
		LC:       lc,
		LP:       0,
		PB:       2,
		DictSize: 262144,
		Threads:  threads,
	}
}

// PropsByte packs lc/lp/pb into the single classic-LZMA property byte:
// (pb*5 + lp)*9 + lc.
func (p LzmaProps) PropsByte() byte {
	return byte((p.PB*5+p.LP)*9 + p.LC)
}

// MarshalHeader returns the 5 raw LZMA property bytes the wire format
// places immediately before the 4-byte unpacked length: 1 property byte
// followed by the dictionary size, little-endian.
func (p LzmaProps) MarshalHeader() [5]byte {
	var h [5]byte
	h[0] = p.PropsByte()
	binary.LittleEndian.PutUint32(h[1:], p.DictSize)
	return h
}

// ParseLzmaHeader decodes the 5-byte property header back into lc/lp/pb and
// the dictionary size.
func ParseLzmaHeader(header [5]byte) (lc, lp, pb int, dictSize uint32, err error) {
	b := header[0]
	lc = int(b % 9)
	b /= 9
	lp = int(b % 5)
	pb = int(b / 5)
	dictSize = binary.LittleEndian.Uint32(header[1:])
	return lc, lp, pb, dictSize, nil
}

func lzmaProperties(lc, lp, pb int) *lzma.Properties {
	return &lzma.Properties{LC: lc, LP: lp, PB: pb}
}

// LzmaCompressor streams plaintext into a raw (headerless) LZMA1 bitstream.
// It owns the underlying encoder state and releases it on Close.
type LzmaCompressor struct {
	w *lzma.Writer2
}

// NewLzmaCompressor constructs an encoder writing a raw LZMA1 stream to
// output using the given parameters. The caller is responsible for writing
// the 5-byte property header and 4-byte unpacked length that the SC wire
// format places ahead of the stream; this adapter only emits the
// compressed payload bytes themselves.
func NewLzmaCompressor(props LzmaProps, output io.Writer) (*LzmaCompressor, error) {
	if props.Threads != 1 && props.Threads != 2 {
		return nil, fmt.Errorf("%w: lzma threads must be 1 or 2, got %d", ErrInvalidParameters, props.Threads)
	}
	cfg := lzma.Writer2Config{
		Properties: lzmaProperties(props.LC, props.LP, props.PB),
		DictCap:    int(props.DictSize),
	}
	w, err := cfg.NewWriter2(output)
	if err != nil {
		return nil, wrapFailure("lzma", err)
	}
	return &LzmaCompressor{w: w}, nil
}

// CompressStream copies all of input through the encoder, flushing and
// closing the underlying writer when input is exhausted.
func (c *LzmaCompressor) CompressStream(input io.Reader) error {
	if err := copyThrough(c.w, input, LzmaBufferSize); err != nil {
		c.w.Close()
		return wrapFailure("lzma", err)
	}
	return wrapFailure("lzma", c.w.Close())
}

// Close releases the encoder state. Safe to call after CompressStream,
// which already closes the writer on success.
func (c *LzmaCompressor) Close() error {
	return c.w.Close()
}

// LzmaDecompressor streams a raw LZMA1 bitstream back to plaintext.
type LzmaDecompressor struct {
	r *lzma.Reader2
}

// NewLzmaDecompressor constructs a decoder over input (positioned right
// after the 5-byte property header and 4-byte unpacked length, both of
// which the SC container reader has already consumed and parsed).
func NewLzmaDecompressor(lc, lp, pb int, dictSize uint32, input io.Reader) (*LzmaDecompressor, error) {
	cfg := lzma.Reader2Config{
		Properties: lzmaProperties(lc, lp, pb),
		DictCap:    int(dictSize),
	}
	r, err := cfg.NewReader2(input)
	if err != nil {
		return nil, wrapFailure("lzma", err)
	}
	return &LzmaDecompressor{r: r}, nil
}

// DecompressStream copies the decoded plaintext to output until the
// decoder reaches end of stream.
func (d *LzmaDecompressor) DecompressStream(output io.Writer) error {
	if err := copyThrough(output, d.r, LzmaBufferSize); err != nil {
		return wrapFailure("lzma", err)
	}
	return nil
}

// Close is a no-op for Reader2 (it holds no resources beyond the input it
// does not own) but is provided for symmetry with the Compressor side and
// the streaming discipline's "release on scope exit" requirement.
func (d *LzmaDecompressor) Close() error {
	return nil
}
