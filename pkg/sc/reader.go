package sc

import (
	"encoding/binary"
	"io"

	"github.com/hashicorp/go-hclog"

	"github.com/provide-io/sccodec/pkg/sc/codec"
	"github.com/provide-io/sccodec/pkg/sc/stream"
	"github.com/provide-io/sccodec/pkg/sc/trailer"
)

// Decompress reads a complete SC container from input and writes the
// decoded plaintext to output. When outAssets is non-nil, any asset
// records recovered from a version-4 metadata trailer are appended to it.
func Decompress(input, output stream.Stream, outAssets *[]AssetRecord) error {
	return DecompressWithLogger(input, output, outAssets, hclog.NewNullLogger())
}

// DecompressWithLogger is Decompress with an explicit logger, matching the
// teacher's NewXWithLogger convention for entry points that want visibility
// into which branch of the format was taken.
func DecompressWithLogger(input, output stream.Stream, outAssets *[]AssetRecord, logger hclog.Logger) error {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	gotMagic, err := stream.ReadUint16(input, binary.BigEndian)
	if err != nil {
		return newError(Truncated, "reading magic", err)
	}
	if gotMagic != magic {
		return errf(BadMagic, "got %#04x, want %#04x", gotMagic, magic)
	}

	outerVersion, err := beUint32(input)
	if err != nil {
		return newError(Truncated, "reading outer version", err)
	}

	wrapped := outerVersion == versionWrapped
	innerVersion := outerVersion
	if wrapped {
		innerVersion, err = beUint32(input)
		if err != nil {
			return newError(Truncated, "reading inner version", err)
		}
		if innerVersion == versionWrapped {
			return errf(UnsupportedVersion, "nested wrapped (version 4 inside version 4) containers are not defined")
		}
	}
	if innerVersion != versionLzma && innerVersion != versionZstd {
		return errf(UnsupportedVersion, "unknown inner version %d", innerVersion)
	}
	logger.Debug("decompress: outer framing parsed", "outer_version", outerVersion, "inner_version", innerVersion, "wrapped", wrapped)

	fileLength, err := input.Length()
	if err != nil {
		return newError(IOFailure, "reading input length", err)
	}

	var compressedEnd int64 = fileLength
	if wrapped {
		resumeAt, err := input.Position()
		if err != nil {
			return newError(IOFailure, "reading position", err)
		}
		data, err := fullBytes(input)
		if err != nil {
			return newError(IOFailure, "reading input for trailer scan", err)
		}
		if _, err := input.Seek(resumeAt, io.SeekStart); err != nil {
			return newError(IOFailure, "resuming after trailer scan", err)
		}
		end, assets, err := trailer.Parse(data)
		if err != nil {
			return newError(TrailerMalformed, "parsing metadata trailer", err)
		}
		compressedEnd = end
		logger.Debug("decompress: metadata trailer parsed", "asset_count", len(assets))
		if outAssets != nil {
			for _, a := range assets {
				*outAssets = append(*outAssets, AssetRecord{Name: a.Name, Hash: a.Hash})
			}
		}
	}

	hashLength, err := beUint32(input)
	if err != nil {
		return newError(Truncated, "reading hash length", err)
	}
	if _, err := input.ReadBytes(int(hashLength)); err != nil {
		return newError(Truncated, "reading hash bytes", err)
	}

	position, err := input.Position()
	if err != nil {
		return newError(IOFailure, "reading position", err)
	}
	compressedLength := compressedEnd - position
	if compressedLength < 0 {
		return errf(TrailerMalformed, "compressed length is negative (%d)", compressedLength)
	}

	limited := &io.LimitedReader{R: input, N: compressedLength}

	switch innerVersion {
	case versionZstd:
		dec, err := codec.NewZstdDecompressor(limited)
		if err != nil {
			return newError(InnerCodecInit, "zstd", err)
		}
		if err := dec.DecompressStream(output); err != nil {
			return newError(InnerCodecFailure, "zstd", err)
		}
		return nil

	case versionLzma:
		return decompressLzmaOrLzham(limited, output)

	default:
		return errf(UnsupportedVersion, "unknown inner version %d", innerVersion)
	}
}

func decompressLzmaOrLzham(input *io.LimitedReader, output stream.Stream) error {
	peek := make([]byte, 4)
	n, err := io.ReadFull(input, peek)
	if err != nil && err != io.ErrUnexpectedEOF {
		return newError(Truncated, "peeking codec frame", err)
	}
	peek = peek[:n]

	if n == 4 && binary.LittleEndian.Uint32(peek) == sclzSubMagic {
		dictSizeLog2Buf := make([]byte, 1)
		if _, err := io.ReadFull(input, dictSizeLog2Buf); err != nil {
			return newError(Truncated, "reading dict_size_log2", err)
		}
		var unpackedLengthBuf [4]byte
		if _, err := io.ReadFull(input, unpackedLengthBuf[:]); err != nil {
			return newError(Truncated, "reading lzham unpacked length", err)
		}
		props := codec.LzhamProps{
			DictSizeLog2:   dictSizeLog2Buf[0],
			UnpackedLength: binary.LittleEndian.Uint32(unpackedLengthBuf[:]),
		}
		dec, err := codec.NewLzhamDecompressor(props, input)
		if err != nil {
			return newError(InnerCodecInit, "lzham", err)
		}
		if err := dec.DecompressStream(output); err != nil {
			return newError(InnerCodecFailure, "lzham", err)
		}
		return nil
	}

	// Not SCLZ: the four peeked bytes are the first four of the five raw
	// LZMA property bytes. Read the fifth, then the little-endian 32-bit
	// unpacked length.
	var header [5]byte
	copy(header[:4], peek)
	rest := make([]byte, 1)
	if _, err := io.ReadFull(input, rest); err != nil {
		return newError(Truncated, "reading lzma property header", err)
	}
	header[4] = rest[0]

	var unpackedLengthBuf [4]byte
	if _, err := io.ReadFull(input, unpackedLengthBuf[:]); err != nil {
		return newError(Truncated, "reading lzma unpacked length", err)
	}

	lc, lp, pb, dictSize, err := codec.ParseLzmaHeader(header)
	if err != nil {
		return newError(InnerCodecInit, "lzma", err)
	}
	dec, err := codec.NewLzmaDecompressor(lc, lp, pb, dictSize, input)
	if err != nil {
		return newError(InnerCodecInit, "lzma", err)
	}
	if err := dec.DecompressStream(output); err != nil {
		return newError(InnerCodecFailure, "lzma", err)
	}
	return nil
}
