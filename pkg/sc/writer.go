package sc

import (
	"bytes"
	"crypto/md5"
	"encoding/binary"

	"github.com/hashicorp/go-hclog"

	"github.com/provide-io/sccodec/pkg/sc/codec"
	"github.com/provide-io/sccodec/pkg/sc/stream"
)

// CompressOptions configures a single compress call. Threads is a hint
// forwarded to the chosen inner codec; its interpretation is codec-specific
// (see §5 of the format notes: LZMA accepts 1 or 2, LZHAM clamps to its own
// maximum, Zstandard takes it verbatim as a worker count).
type CompressOptions struct {
	Signature   Signature
	WriteAssets bool
	Threads     int

	// LzmaLongUnpackedLength widens the LZMA unpacked-length field to 64
	// bits on write. The reader in this package only ever reads the
	// 32-bit form, so containers written with this flag set cannot be
	// round-tripped by Decompress — see SPEC_FULL.md for the rationale.
	LzmaLongUnpackedLength bool

	ZstdLevel int
}

// Compress writes a complete SC container to output, reading the entirety
// of input (the MD5 hash step requires full-content access up front).
func Compress(input, output stream.Stream, opts CompressOptions) error {
	return CompressWithLogger(input, output, opts, hclog.NewNullLogger())
}

// CompressWithLogger is Compress with an explicit logger.
func CompressWithLogger(input, output stream.Stream, opts CompressOptions, logger hclog.Logger) error {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if opts.LzmaLongUnpackedLength && opts.Signature == SignatureLzham {
		return errf(InvalidParameters, "lzmaLongUnpackedLength is only defined for the LZMA branch, not LZHAM")
	}

	plaintext, err := fullBytes(input)
	if err != nil {
		return newError(IOFailure, "reading input", err)
	}
	logger.Debug("compress: buffered plaintext", "bytes", len(plaintext), "signature", opts.Signature)

	if err := writeBEUint16(output, magic); err != nil {
		return newError(IOFailure, "writing magic", err)
	}

	if opts.WriteAssets {
		if err := writeBEUint32(output, versionWrapped); err != nil {
			return newError(IOFailure, "writing outer version", err)
		}
	}

	innerVersion := versionLzma
	if opts.Signature == SignatureZstd {
		innerVersion = versionZstd
	}
	if err := writeBEUint32(output, innerVersion); err != nil {
		return newError(IOFailure, "writing inner version", err)
	}

	sum := md5.Sum(plaintext)
	if err := writeBEUint32(output, uint32(len(sum))); err != nil {
		return newError(IOFailure, "writing hash length", err)
	}
	if err := output.WriteBytes(sum[:]); err != nil {
		return newError(IOFailure, "writing hash bytes", err)
	}

	if err := writeCodecFrame(output, plaintext, opts); err != nil {
		return err
	}

	if opts.WriteAssets {
		if err := writePlaceholderTrailer(output); err != nil {
			return newError(IOFailure, "writing metadata trailer", err)
		}
	}

	return nil
}

func writeCodecFrame(output stream.Stream, plaintext []byte, opts CompressOptions) error {
	switch opts.Signature {
	case SignatureZstd:
		level := opts.ZstdLevel
		if level == 0 {
			level = 16
		}
		comp, err := codec.NewZstdCompressor(level, opts.Threads, output)
		if err != nil {
			return newError(InnerCodecInit, "zstd", err)
		}
		if err := comp.CompressStream(bytes.NewReader(plaintext)); err != nil {
			return newError(InnerCodecFailure, "zstd", err)
		}
		return nil

	case SignatureLzma:
		props := codec.DefaultLzmaProps(int64(len(plaintext)), opts.Threads)
		header := props.MarshalHeader()
		if err := output.WriteBytes(header[:]); err != nil {
			return newError(IOFailure, "writing lzma property header", err)
		}
		if err := writeUnpackedLength(output, uint64(len(plaintext)), opts.LzmaLongUnpackedLength); err != nil {
			return newError(IOFailure, "writing lzma unpacked length", err)
		}
		comp, err := codec.NewLzmaCompressor(props, output)
		if err != nil {
			return newError(InnerCodecInit, "lzma", err)
		}
		if err := comp.CompressStream(bytes.NewReader(plaintext)); err != nil {
			return newError(InnerCodecFailure, "lzma", err)
		}
		return nil

	case SignatureLzham:
		if err := writeBEUint32LE(output, sclzSubMagic); err != nil {
			return newError(IOFailure, "writing SCLZ sub-magic", err)
		}
		const dictSizeLog2 = 18
		if err := stream.WriteUint8(output, dictSizeLog2); err != nil {
			return newError(IOFailure, "writing dict_size_log2", err)
		}
		if err := stream.WriteUint32(output, uint32(len(plaintext)), binary.LittleEndian); err != nil {
			return newError(IOFailure, "writing lzham unpacked length", err)
		}
		props := codec.LzhamProps{
			DictSizeLog2:     dictSizeLog2,
			UnpackedLength:   uint32(len(plaintext)),
			MaxHelperThreads: opts.Threads,
		}
		comp, err := codec.NewLzhamCompressor(props, output)
		if err != nil {
			return newError(InnerCodecInit, "lzham", err)
		}
		if err := comp.CompressStream(bytes.NewReader(plaintext)); err != nil {
			return newError(InnerCodecFailure, "lzham", err)
		}
		return nil

	default:
		return errf(InvalidParameters, "unknown signature %v", opts.Signature)
	}
}

// writeUnpackedLength writes the LZMA unpacked-length field, widened to 64
// bits when long is set. The reader only ever parses the 32-bit form.
func writeUnpackedLength(output stream.Stream, length uint64, long bool) error {
	if long {
		return stream.WriteUint64(output, length, binary.LittleEndian)
	}
	return stream.WriteUint32(output, uint32(length), binary.LittleEndian)
}

func writeBEUint32LE(output stream.Stream, v uint32) error {
	return stream.WriteUint32(output, v, binary.LittleEndian)
}

// writePlaceholderTrailer appends the degenerate, writer-only metadata
// trailer: the reader tolerates it as an empty asset list.
func writePlaceholderTrailer(output stream.Stream) error {
	if err := output.WriteBytes([]byte("START")); err != nil {
		return err
	}
	if err := output.WriteBytes([]byte{0, 0}); err != nil {
		return err
	}
	return writeBEUint32(output, 2)
}
