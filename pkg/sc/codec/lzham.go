package codec

import (
	"io"

	"github.com/dsnet/compress/bzip2"
)

// LzhamProps mirrors the three parameters the SC wire format carries for an
// LZHAM stream: the dictionary size (as a power-of-two exponent),
// the declared unpacked length, and an encoder thread hint.
type LzhamProps struct {
	DictSizeLog2     uint8
	UnpackedLength   uint32
	MaxHelperThreads int
}

// LzhamEngine is the pluggable interface a real LZHAM binding would
// satisfy. The LZHAM codec itself is out of scope for this repository —
// spec.md treats it, like the underlying LZMA/Zstandard/ASTC codecs, as an
// external collaborator and commits only to the streaming contract below.
// No published Go LZHAM binding exists in the retrieved dependency corpus,
// so bzip2LzhamEngine below ships a concrete stand-in (grounded on the
// teacher's own bzip2 operation adapter) that satisfies this interface and
// round-trips correctly; production deployments are expected to supply a
// real LZHAM-backed LzhamEngine via SetLzhamEngine.
type LzhamEngine interface {
	NewCompressor(props LzhamProps, output io.Writer) (io.WriteCloser, error)
	NewDecompressor(props LzhamProps, input io.Reader) (io.ReadCloser, error)
}

var activeLzhamEngine LzhamEngine = bzip2LzhamEngine{}

// SetLzhamEngine overrides the LZHAM backend used by NewLzhamCompressor and
// NewLzhamDecompressor. Intended for callers that link a real LZHAM
// binding; not safe to call concurrently with an in-flight compress or
// decompress operation.
func SetLzhamEngine(engine LzhamEngine) {
	if engine == nil {
		engine = bzip2LzhamEngine{}
	}
	activeLzhamEngine = engine
}

// LzhamCompressor streams plaintext through the active LZHAM engine.
type LzhamCompressor struct {
	w io.WriteCloser
}

// NewLzhamCompressor constructs an encoder writing the raw LZHAM payload
// (no SCLZ sub-magic or length header — the container writer owns those)
// to output.
func NewLzhamCompressor(props LzhamProps, output io.Writer) (*LzhamCompressor, error) {
	w, err := activeLzhamEngine.NewCompressor(props, output)
	if err != nil {
		return nil, wrapFailure("lzham", err)
	}
	return &LzhamCompressor{w: w}, nil
}

// CompressStream copies all of input through the encoder.
func (c *LzhamCompressor) CompressStream(input io.Reader) error {
	if err := copyThrough(c.w, input, LzhamBufferSize); err != nil {
		c.w.Close()
		return wrapFailure("lzham", err)
	}
	return wrapFailure("lzham", c.w.Close())
}

// Close releases the encoder state.
func (c *LzhamCompressor) Close() error {
	return c.w.Close()
}

// LzhamDecompressor streams a raw LZHAM payload back to plaintext.
type LzhamDecompressor struct {
	r io.ReadCloser
}

// NewLzhamDecompressor constructs a decoder over input, positioned right
// after the SCLZ sub-magic, dict_size_log2 byte, and unpacked-length field
// (already consumed and parsed by the container reader).
func NewLzhamDecompressor(props LzhamProps, input io.Reader) (*LzhamDecompressor, error) {
	r, err := activeLzhamEngine.NewDecompressor(props, input)
	if err != nil {
		return nil, wrapFailure("lzham", err)
	}
	return &LzhamDecompressor{r: r}, nil
}

// DecompressStream copies decoded plaintext to output.
func (d *LzhamDecompressor) DecompressStream(output io.Writer) error {
	if err := copyThrough(output, d.r, LzhamBufferSize); err != nil {
		return wrapFailure("lzham", err)
	}
	return nil
}

// Close releases the decoder state.
func (d *LzhamDecompressor) Close() error {
	return d.r.Close()
}

// bzip2LzhamEngine is the default LzhamEngine: a placeholder backend built
// on the same dsnet/compress/bzip2 block compressor the teacher already
// wires for its own BZIP2 operation. It approximates LZHAM's
// dictionary-size knob with bzip2's block-size level (1-9, clamped), and
// ignores MaxHelperThreads since dsnet/compress/bzip2 is single-threaded.
type bzip2LzhamEngine struct{}

func (bzip2LzhamEngine) NewCompressor(props LzhamProps, output io.Writer) (io.WriteCloser, error) {
	level := int(props.DictSizeLog2 / 3)
	if level < 1 {
		level = 1
	}
	if level > 9 {
		level = 9
	}
	return bzip2.NewWriter(output, &bzip2.WriterConfig{Level: level})
}

func (bzip2LzhamEngine) NewDecompressor(props LzhamProps, input io.Reader) (io.ReadCloser, error) {
	return bzip2.NewReader(input, &bzip2.ReaderConfig{})
}
