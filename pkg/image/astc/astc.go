// Package astc reads and writes the ASTC container wire wrapper: a small
// fixed header (identifier, block dimensions, image dimensions) around raw
// ASTC block data. The block encoder/decoder itself is an external
// collaborator this repository does not implement — blocks pass through
// unexamined: Decode takes every byte after the header as block data and
// does not check its length against the header's dimensions.
package astc

import (
	"bytes"
	"fmt"
	"io"
)

// Identifier is the fixed 4-byte ASTC container magic.
var Identifier = [4]byte{0x13, 0xAB, 0xA1, 0x5C}

// Options are the block-dimension encode parameters the original CLI
// exposes; Go callers set them directly rather than through flags.
type Options struct {
	BlocksX, BlocksY uint8
}

// DefaultOptions matches the original CLI's 4x4 default block size.
func DefaultOptions() Options {
	return Options{BlocksX: 4, BlocksY: 4}
}

// Container is a decoded ASTC wrapper: block dimensions, image dimensions,
// and the raw block payload.
type Container struct {
	BlocksX, BlocksY, BlocksZ uint8
	Width, Height, Depth      uint32
	Blocks                    []byte
}

func readUint24LE(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
}

func putUint24LE(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
}

// Decode parses a complete ASTC container from r.
func Decode(r *bytes.Reader) (*Container, error) {
	var id [4]byte
	if _, err := io.ReadFull(r, id[:]); err != nil {
		return nil, fmt.Errorf("astc: reading identifier: %w", err)
	}
	if id != Identifier {
		return nil, fmt.Errorf("astc: bad identifier")
	}

	var blockDims [3]byte
	if _, err := io.ReadFull(r, blockDims[:]); err != nil {
		return nil, fmt.Errorf("astc: reading block dimensions: %w", err)
	}

	var dims [9]byte
	if _, err := io.ReadFull(r, dims[:]); err != nil {
		return nil, fmt.Errorf("astc: reading image dimensions: %w", err)
	}

	c := &Container{
		BlocksX: blockDims[0],
		BlocksY: blockDims[1],
		BlocksZ: blockDims[2],
		Width:   readUint24LE(dims[0:3]),
		Height:  readUint24LE(dims[3:6]),
		Depth:   readUint24LE(dims[6:9]),
	}
	if c.Depth != 1 {
		return nil, fmt.Errorf("astc: depth must be 1, got %d", c.Depth)
	}

	rest := make([]byte, r.Len())
	if _, err := io.ReadFull(r, rest); err != nil {
		return nil, fmt.Errorf("astc: reading block data: %w", err)
	}
	c.Blocks = rest
	return c, nil
}

// Encode serializes a container back to its wire form.
func Encode(c *Container) []byte {
	var buf bytes.Buffer
	buf.Write(Identifier[:])
	buf.Write([]byte{c.BlocksX, c.BlocksY, c.BlocksZ})

	var dims [9]byte
	putUint24LE(dims[0:3], c.Width)
	putUint24LE(dims[3:6], c.Height)
	putUint24LE(dims[6:9], 1)
	buf.Write(dims[:])

	buf.Write(c.Blocks)
	return buf.Bytes()
}

// New builds a Container from raw, already-encoded ASTC block bytes and the
// logical image dimensions, using the given block-size options.
func New(width, height uint32, blocks []byte, opts Options) *Container {
	return &Container{
		BlocksX: opts.BlocksX,
		BlocksY: opts.BlocksY,
		BlocksZ: 0,
		Width:   width,
		Height:  height,
		Depth:   1,
		Blocks:  blocks,
	}
}
