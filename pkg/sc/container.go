// Package sc implements the SC asset-container format: outer framing,
// version dispatch onto one of three inner compression codecs, the
// integrity hash block, and the version-4 metadata trailer. It is the
// top-level package other components (the CLI, the image converters) drive
// to read and write containers.
package sc

import (
	"encoding/binary"
	"io"

	"github.com/provide-io/sccodec/pkg/sc/stream"
)

const (
	magic          uint16 = 0x5343
	sclzSubMagic   uint32 = 0x5A4C4353
	versionLzma    uint32 = 1
	versionZstd    uint32 = 3
	versionWrapped uint32 = 4
)

// Signature selects which inner codec a write operation targets.
type Signature int

const (
	SignatureLzma Signature = iota
	SignatureLzham
	SignatureZstd
)

func (s Signature) String() string {
	switch s {
	case SignatureLzma:
		return "lzma"
	case SignatureLzham:
		return "lzham"
	case SignatureZstd:
		return "zstd"
	default:
		return "unknown"
	}
}

// AssetRecord mirrors trailer.Asset at the package boundary so callers of
// this package need not import pkg/sc/trailer directly.
type AssetRecord struct {
	Name string
	Hash []byte
}

// fullBytes returns a read-only contiguous view of s's entire contents.
// Memory-backed streams hand back their own buffer via Data(); anything
// else (a plain file stream) is read fully into a fresh buffer, since the
// metadata trailer and the MD5 hash step both require random access to
// already-seen bytes that a pure forward reader cannot provide.
func fullBytes(s stream.Stream) ([]byte, error) {
	if data, ok := s.Data(); ok {
		return data, nil
	}
	length, err := s.Length()
	if err != nil {
		return nil, err
	}
	if _, err := s.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	buf, err := s.ReadBytes(int(length))
	if err != nil && err != io.EOF {
		return nil, err
	}
	return buf, nil
}

func beUint32(s stream.Stream) (uint32, error) {
	return stream.ReadUint32(s, binary.BigEndian)
}

func writeBEUint16(s stream.Stream, v uint16) error {
	return stream.WriteUint16(s, v, binary.BigEndian)
}

func writeBEUint32(s stream.Stream, v uint32) error {
	return stream.WriteUint32(s, v, binary.BigEndian)
}
