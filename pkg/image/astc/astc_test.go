package astc

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoundTripOpaqueBlocks(t *testing.T) {
	blocks := bytes.Repeat([]byte{0xDE, 0xAD, 0xBE, 0xEF}, 16)
	c := New(16, 16, blocks, DefaultOptions())

	encoded := Encode(c)
	require.True(t, bytes.HasPrefix(encoded, Identifier[:]))

	decoded, err := Decode(bytes.NewReader(encoded))
	require.NoError(t, err)
	require.Equal(t, c.BlocksX, decoded.BlocksX)
	require.Equal(t, c.BlocksY, decoded.BlocksY)
	require.Equal(t, c.Width, decoded.Width)
	require.Equal(t, c.Height, decoded.Height)
	require.Equal(t, uint32(1), decoded.Depth)
	require.Equal(t, blocks, decoded.Blocks)
}

func TestNonDefaultBlockSize(t *testing.T) {
	blocks := []byte{1, 2, 3, 4}
	c := New(8, 8, blocks, Options{BlocksX: 6, BlocksY: 6})

	decoded, err := Decode(bytes.NewReader(Encode(c)))
	require.NoError(t, err)
	require.Equal(t, uint8(6), decoded.BlocksX)
	require.Equal(t, uint8(6), decoded.BlocksY)
}

func TestDecodeRejectsBadIdentifier(t *testing.T) {
	_, err := Decode(bytes.NewReader(make([]byte, 16)))
	require.Error(t, err)
}

func TestDecodeRejectsNonUnitDepth(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(Identifier[:])
	buf.Write([]byte{4, 4, 0})
	dims := make([]byte, 9)
	putUint24LE(dims[0:3], 4)
	putUint24LE(dims[3:6], 4)
	putUint24LE(dims[6:9], 2) // invalid depth
	buf.Write(dims)

	_, err := Decode(bytes.NewReader(buf.Bytes()))
	require.Error(t, err)
}

func TestEmptyBlockPayloadRoundTrips(t *testing.T) {
	c := New(0, 0, nil, DefaultOptions())
	decoded, err := Decode(bytes.NewReader(Encode(c)))
	require.NoError(t, err)
	require.Empty(t, decoded.Blocks)
}
