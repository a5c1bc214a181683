package ktx

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoundTripUncompressedRGBA(t *testing.T) {
	width, height := 2, 2
	base := make([]byte, width*height*4)
	for i := range base {
		base[i] = byte(i)
	}

	tex := &Texture{
		Type:           GLTypeUnsignedByte,
		Format:         GLFormatRGBA,
		InternalFormat: GLInternalRGBA8,
		Width:          uint32(width),
		Height:         uint32(height),
		Levels:         [][]byte{base},
	}

	encoded, err := Encode(tex, EncodeOptions{})
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(encoded, FileIdentifier[:]))

	decoded, err := Decode(bytes.NewReader(encoded))
	require.NoError(t, err)
	require.Equal(t, tex.Width, decoded.Width)
	require.Equal(t, tex.Height, decoded.Height)
	require.Equal(t, tex.InternalFormat, decoded.InternalFormat)
	require.Len(t, decoded.Levels, 1)
	require.Equal(t, base, decoded.Levels[0])
}

func TestEncodeSaveMipsGeneratesFullChain(t *testing.T) {
	width, height := 4, 4
	base := make([]byte, width*height*4)
	for i := range base {
		base[i] = byte(i % 251)
	}
	tex := &Texture{
		Type:           GLTypeUnsignedByte,
		Format:         GLFormatRGBA,
		InternalFormat: GLInternalRGBA8,
		Width:          uint32(width),
		Height:         uint32(height),
		Levels:         [][]byte{base},
	}

	encoded, err := Encode(tex, EncodeOptions{SaveMips: true})
	require.NoError(t, err)

	decoded, err := Decode(bytes.NewReader(encoded))
	require.NoError(t, err)
	// 4x4 -> 2x2 -> 1x1: three levels total.
	require.Len(t, decoded.Levels, 3)
	require.Equal(t, width*height*4, len(decoded.Levels[0]))
	require.Equal(t, 2*2*4, len(decoded.Levels[1]))
	require.Equal(t, 1*1*4, len(decoded.Levels[2]))
}

func TestEncodeFlipVertical(t *testing.T) {
	width, height := 1, 2
	base := []byte{1, 1, 1, 1, 2, 2, 2, 2}
	tex := &Texture{
		Type:           GLTypeUnsignedByte,
		Format:         GLFormatRGBA,
		InternalFormat: GLInternalRGBA8,
		Width:          uint32(width),
		Height:         uint32(height),
		Levels:         [][]byte{base},
	}

	encoded, err := Encode(tex, EncodeOptions{FlipVertical: true})
	require.NoError(t, err)
	decoded, err := Decode(bytes.NewReader(encoded))
	require.NoError(t, err)
	require.Equal(t, []byte{2, 2, 2, 2, 1, 1, 1, 1}, decoded.Levels[0])
}

func TestDecodeRejectsBadIdentifier(t *testing.T) {
	_, err := Decode(bytes.NewReader(make([]byte, 64)))
	require.Error(t, err)
}

func TestCompressedFormatSkipsFlipAndMips(t *testing.T) {
	astcBlock := bytes.Repeat([]byte{0xAA}, 16)
	tex := &Texture{
		Type:           GLTypeCompressed,
		InternalFormat: GLInternalCompressedASTC4x4,
		Width:          4,
		Height:         4,
		Levels:         [][]byte{astcBlock},
	}

	encoded, err := Encode(tex, EncodeOptions{FlipVertical: true, SaveMips: true})
	require.NoError(t, err)

	decoded, err := Decode(bytes.NewReader(encoded))
	require.NoError(t, err)
	require.Len(t, decoded.Levels, 1)
	require.Equal(t, astcBlock, decoded.Levels[0])
}
