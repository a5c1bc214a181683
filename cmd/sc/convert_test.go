package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/provide-io/sccodec/internal/workenv"
	"github.com/provide-io/sccodec/pkg/image/astc"
	"github.com/provide-io/sccodec/pkg/image/ktx"
)

func TestDecodeSourceLevelsKtx(t *testing.T) {
	base := bytes.Repeat([]byte{9}, 2*2*4)
	tex := &ktx.Texture{
		Type:           ktx.GLTypeUnsignedByte,
		Format:         ktx.GLFormatRGBA,
		InternalFormat: ktx.GLInternalRGBA8,
		Width:          2,
		Height:         2,
		Levels:         [][]byte{base},
	}
	encoded, err := ktx.Encode(tex, ktx.EncodeOptions{})
	require.NoError(t, err)

	levels, width, height, compressed, err := decodeSourceLevels(encoded)
	require.NoError(t, err)
	require.False(t, compressed)
	require.Equal(t, uint32(2), width)
	require.Equal(t, uint32(2), height)
	require.Equal(t, base, levels[0])
}

func TestDecodeSourceLevelsAstc(t *testing.T) {
	blocks := bytes.Repeat([]byte{0xAB}, 32)
	c := astc.New(8, 8, blocks, astc.DefaultOptions())
	encoded := astc.Encode(c)

	levels, width, height, compressed, err := decodeSourceLevels(encoded)
	require.NoError(t, err)
	require.True(t, compressed)
	require.Equal(t, uint32(8), width)
	require.Equal(t, uint32(8), height)
	require.Equal(t, blocks, levels[0])
}

func TestDecodeSourceLevelsRejectsUnknown(t *testing.T) {
	_, _, _, _, err := decodeSourceLevels([]byte("not a container"))
	require.Error(t, err)
}

func TestEncodeAstcRoundTripsThroughDecode(t *testing.T) {
	blocks := bytes.Repeat([]byte{0x11}, 16)
	out, err := encodeAstc([][]byte{blocks}, 4, 4, 4, 4)
	require.NoError(t, err)

	decoded, err := astc.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	require.Equal(t, blocks, decoded.Blocks)
}

func TestWriteStagedLevelsThenLoadRoundTrips(t *testing.T) {
	stagePath := filepath.Join(t.TempDir(), "stage")
	require.NoError(t, workenv.CreateWorkenv(stagePath, nil))

	levels := [][]byte{bytes.Repeat([]byte{0x42}, 64), bytes.Repeat([]byte{0x07}, 16)}
	require.NoError(t, writeStagedLevels(stagePath, levels, 8, 4, true))

	got, width, height, compressed, err := loadStagedLevels(stagePath)
	require.NoError(t, err)
	require.True(t, compressed)
	require.Equal(t, uint32(8), width)
	require.Equal(t, uint32(4), height)
	require.Equal(t, levels, got)
}

func TestLoadStagedLevelsMissingSidecarReturnsNilWithoutError(t *testing.T) {
	stagePath := t.TempDir()

	levels, _, _, _, err := loadStagedLevels(stagePath)
	require.NoError(t, err)
	require.Nil(t, levels)
}

func TestStageSourceReuseViaIsValid(t *testing.T) {
	base := bytes.Repeat([]byte{3}, 2*2*4)
	tex := &ktx.Texture{
		Type:           ktx.GLTypeUnsignedByte,
		Format:         ktx.GLFormatRGBA,
		InternalFormat: ktx.GLInternalRGBA8,
		Width:          2,
		Height:         2,
		Levels:         [][]byte{base},
	}
	raw, err := ktx.Encode(tex, ktx.EncodeOptions{})
	require.NoError(t, err)

	stagePath := filepath.Join(t.TempDir(), "stage")
	levels, width, height, compressed, err := stageSource(stagePath, "source.ktx", "deadbeef", raw)
	require.NoError(t, err)
	require.Equal(t, base, levels[0])
	require.True(t, workenv.IsValid(stagePath, "source.ktx", "deadbeef"))

	reloaded, reloadedWidth, reloadedHeight, reloadedCompressed, err := loadStagedLevels(stagePath)
	require.NoError(t, err)
	require.Equal(t, width, reloadedWidth)
	require.Equal(t, height, reloadedHeight)
	require.Equal(t, compressed, reloadedCompressed)
	require.Equal(t, levels, reloaded)
}
