package trailer

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// Each buildWidthNTrailer helper below hand-assembles a byte-exact,
// non-degenerate metadata trailer for one info-field width class, laid out
// forward (low to high address) even though Parse walks it backward. Every
// field offset is worked out from the pointer arithmetic in parseAssets so
// that decoding the buffer recovers the exact names and hashes encoded here.

// buildWidth1Trailer builds a W=1 trailer (flags&3 == 0) with three named
// assets. W=1's count field and its neighboring offset-table entries share
// the same few bytes, which leaves no room for a populated hash in this
// width class — all three assets carry a name and no hash.
func buildWidth1Trailer() []byte {
	data := make([]byte, 43)

	copy(data[0:], "a.png\x00")
	copy(data[6:], "b.png\x00")
	copy(data[12:], "c.png\x00")

	data[20] = 3 // strings_total_count
	data[21] = 21 // entry0 string offset (entryAddr 21 - nameAddr 0)
	data[22] = 16 // entry1 string offset (entryAddr 22 - nameAddr 6)
	data[23] = 11 // entry2 string offset (entryAddr 23 - nameAddr 12)

	const aip = 30 // asset_info_ptr
	data[aip-3] = 6 // offsetByte: stringsPtr = (aip-3) - offsetByte = 27-6 = 21
	data[aip-2] = 0 // sifByte, read but unused by the W==1 branch
	data[aip-1] = 3 // asset_total_count (also LSB of the 4-byte hash_total_count read at aip-1)
	data[aip+0] = 0
	data[aip+1] = 0
	data[aip+2] = 0
	data[aip+3] = 0 // hash flag, asset 0: tag 0, no hash
	data[aip+4] = 0 // hash flag, asset 1: tag 0, no hash
	data[aip+5] = 0 // hash flag, asset 2: tag 0, no hash

	const assetInfoOffsetAddr = 36
	data[assetInfoOffsetAddr] = assetInfoOffsetAddr - aip // 36-30 = 6, single-byte width since S<=1

	flagsAddr := assetInfoOffsetAddr + 1 // S == 1
	data[flagsAddr] = 0x24                // flags: recognized, W selector 0 -> W=1
	data[flagsAddr+1] = 1                 // asset_info_field_size S

	n := len(data)
	binary.BigEndian.PutUint32(data[n-4:], uint32(n-9)) // chunk_length -> compressedEnd == 0
	return data
}

// buildWidth2Trailer builds a W=2 trailer (flags&3 == 1) with two named,
// hashed assets.
func buildWidth2Trailer() []byte {
	data := make([]byte, 50)

	copy(data[0:], "a.png\x00")
	copy(data[6:], "b.bin\x00")

	data[12] = 4 // hash0 length
	copy(data[13:], []byte{0xAA, 0xBB, 0xCC, 0xDD})
	data[17] = 4 // hash1 length
	copy(data[18:], []byte{0x11, 0x22, 0x33, 0x44})

	binary.LittleEndian.PutUint16(data[24:], 2)  // strings_total_count
	binary.LittleEndian.PutUint16(data[26:], 26) // entry0 offset (26-0)
	binary.LittleEndian.PutUint16(data[28:], 22) // entry1 offset (28-6)

	const localBase = 30 // assetInfoPtr + offset, offset == -3*W == -6
	const aip = localBase + 6
	binary.LittleEndian.PutUint16(data[localBase:], localBase-26)  // deref -> stringsPtr == 26
	binary.LittleEndian.PutUint16(data[localBase+2:], 2)           // strings_field_size (== aip-4)
	binary.LittleEndian.PutUint16(data[aip-2:], 2)                 // asset_total_count / hash_total_count
	binary.LittleEndian.PutUint16(data[aip+0:], uint16(aip-13))    // hash offset, asset 0
	binary.LittleEndian.PutUint16(data[aip+2:], uint16(aip+2-18))  // hash offset, asset 1
	data[aip+4] = 0x14                                             // hash flag, asset 0: tag 5, length field width 1
	data[aip+5] = 0x14                                             // hash flag, asset 1

	const assetInfoOffsetAddr = 42
	binary.LittleEndian.PutUint16(data[assetInfoOffsetAddr:], uint16(assetInfoOffsetAddr-aip))

	flagsAddr := assetInfoOffsetAddr + 2 // S == 2
	data[flagsAddr] = 0x25               // W selector 1 -> W=2
	data[flagsAddr+1] = 2                // S

	n := len(data)
	binary.BigEndian.PutUint32(data[n-4:], uint32(n-9))
	return data
}

// buildWidth4Trailer builds a W=4 trailer (flags&3 == 2) with two named,
// hashed assets.
func buildWidth4Trailer() []byte {
	data := make([]byte, 66)

	copy(data[0:], "a.png\x00")
	copy(data[6:], "b.bin\x00")

	data[12] = 4 // hash0 length
	copy(data[13:], []byte{0xAA, 0xBB, 0xCC, 0xDD})
	data[17] = 4 // hash1 length
	copy(data[18:], []byte{0x11, 0x22, 0x33, 0x44})

	binary.LittleEndian.PutUint32(data[22:], 2)  // strings_total_count
	binary.LittleEndian.PutUint32(data[26:], 26) // entry0 offset (26-0)
	binary.LittleEndian.PutUint32(data[30:], 24) // entry1 offset (30-6)

	const aip = 46
	binary.LittleEndian.PutUint32(data[aip-12:], 8) // strings_array_offset -> stringsPtr == 26
	binary.LittleEndian.PutUint32(data[aip-8:], 4)  // strings_info_field_size
	binary.LittleEndian.PutUint32(data[aip-4:], 2)  // asset_total_count / hash_total_count
	binary.LittleEndian.PutUint32(data[aip+0:], aip-13)   // hash offset, asset 0
	binary.LittleEndian.PutUint32(data[aip+4:], aip+4-18) // hash offset, asset 1
	data[aip+8] = 0x14                                    // hash flag, asset 0
	data[aip+9] = 0x14                                    // hash flag, asset 1

	const assetInfoOffsetAddr = 56
	binary.LittleEndian.PutUint32(data[assetInfoOffsetAddr:], assetInfoOffsetAddr-aip)

	flagsAddr := assetInfoOffsetAddr + 4 // S == 4
	data[flagsAddr] = 0x26               // W selector 2 -> W=4
	data[flagsAddr+1] = 4                // S

	n := len(data)
	binary.BigEndian.PutUint32(data[n-4:], uint32(n-9))
	return data
}

// buildWidth8Trailer builds a W=8 trailer (flags&3 == 3) with two named,
// hashed assets.
func buildWidth8Trailer() []byte {
	data := make([]byte, 88)

	copy(data[0:], "a.png\x00")
	copy(data[6:], "b.bin\x00")

	data[12] = 4 // hash0 length
	copy(data[13:], []byte{0xAA, 0xBB, 0xCC, 0xDD})
	data[17] = 4 // hash1 length
	copy(data[18:], []byte{0x11, 0x22, 0x33, 0x44})

	binary.LittleEndian.PutUint32(data[22:], 2)  // strings_total_count
	binary.LittleEndian.PutUint32(data[26:], 26) // entry0 offset (26-0)
	binary.LittleEndian.PutUint32(data[30:], 24) // entry1 offset (30-6)

	const aip = 60
	const stringDataAddr = aip - 24
	binary.LittleEndian.PutUint32(data[stringDataAddr:], stringDataAddr-26) // deref -> stringsPtr == 26
	data[stringDataAddr+8] = 4                                              // strings_info_field_size (aip-16)
	binary.LittleEndian.PutUint32(data[aip-8:], 2)                          // asset_total_count / hash_total_count
	binary.LittleEndian.PutUint32(data[aip+0:], aip-13)    // hash offset, asset 0
	binary.LittleEndian.PutUint32(data[aip+8:], aip+8-18)  // hash offset, asset 1
	data[aip+16] = 0x14                                    // hash flag, asset 0
	data[aip+17] = 0x14                                    // hash flag, asset 1

	const assetInfoOffsetAddr = aip + 18
	binary.LittleEndian.PutUint32(data[assetInfoOffsetAddr:], assetInfoOffsetAddr-aip)

	flagsAddr := assetInfoOffsetAddr + 4 // S == 4
	data[flagsAddr] = 0x27               // W selector 3 -> W=8
	data[flagsAddr+1] = 4                // S

	n := len(data)
	binary.BigEndian.PutUint32(data[n-4:], uint32(n-9))
	return data
}

func TestParseWidth1MultiAssetTrailer(t *testing.T) {
	_, assets, err := Parse(buildWidth1Trailer())
	require.NoError(t, err)
	require.Len(t, assets, 3)
	require.Equal(t, "a.png", assets[0].Name)
	require.Equal(t, "b.png", assets[1].Name)
	require.Equal(t, "c.png", assets[2].Name)
	require.Nil(t, assets[0].Hash)
	require.Nil(t, assets[1].Hash)
	require.Nil(t, assets[2].Hash)
}

func TestParseWidth2MultiAssetTrailer(t *testing.T) {
	_, assets, err := Parse(buildWidth2Trailer())
	require.NoError(t, err)
	require.Len(t, assets, 2)
	require.Equal(t, "a.png", assets[0].Name)
	require.Equal(t, []byte{0xAA, 0xBB, 0xCC, 0xDD}, assets[0].Hash)
	require.Equal(t, "b.bin", assets[1].Name)
	require.Equal(t, []byte{0x11, 0x22, 0x33, 0x44}, assets[1].Hash)
}

func TestParseWidth4MultiAssetTrailer(t *testing.T) {
	_, assets, err := Parse(buildWidth4Trailer())
	require.NoError(t, err)
	require.Len(t, assets, 2)
	require.Equal(t, "a.png", assets[0].Name)
	require.Equal(t, []byte{0xAA, 0xBB, 0xCC, 0xDD}, assets[0].Hash)
	require.Equal(t, "b.bin", assets[1].Name)
	require.Equal(t, []byte{0x11, 0x22, 0x33, 0x44}, assets[1].Hash)
}

func TestParseWidth8MultiAssetTrailer(t *testing.T) {
	_, assets, err := Parse(buildWidth8Trailer())
	require.NoError(t, err)
	require.Len(t, assets, 2)
	require.Equal(t, "a.png", assets[0].Name)
	require.Equal(t, []byte{0xAA, 0xBB, 0xCC, 0xDD}, assets[0].Hash)
	require.Equal(t, "b.bin", assets[1].Name)
	require.Equal(t, []byte{0x11, 0x22, 0x33, 0x44}, assets[1].Hash)
}

func TestParseWidth4CompressedEndMatchesChunkLength(t *testing.T) {
	data := buildWidth4Trailer()
	compressedEnd, _, err := Parse(data)
	require.NoError(t, err)
	require.Equal(t, int64(0), compressedEnd)
}

// TestParseMutationSafety is the trailer safety property: flipping any
// single byte of a valid trailer must never panic or read out of bounds.
// Parse either still succeeds (the mutation happened to land somewhere
// inert) or reports ErrMalformed; there is no third outcome.
func TestParseMutationSafety(t *testing.T) {
	base := buildWidth4Trailer()

	for i := range base {
		for _, corrupt := range []byte{0x00, 0xFF, base[i] ^ 0xFF} {
			mutated := make([]byte, len(base))
			copy(mutated, base)
			mutated[i] = corrupt

			func() {
				defer func() {
					if r := recover(); r != nil {
						t.Fatalf("Parse panicked mutating byte %d to 0x%02x: %v", i, corrupt, r)
					}
				}()
				_, _, err := Parse(mutated)
				if err != nil {
					require.Truef(t, errors.Is(err, ErrMalformed),
						"byte %d -> 0x%02x: expected ErrMalformed, got %v", i, corrupt, err)
				}
			}()
		}
	}
}

// TestParseTruncatedTrailerIsMalformed covers buffers too short to hold
// even the fixed 9-byte footer region once chunk_length is accounted for.
func TestParseTruncatedTrailerIsMalformed(t *testing.T) {
	_, _, err := Parse(make([]byte, 4))
	require.ErrorIs(t, err, ErrMalformed)
}

// TestParseZeroAssetInfoOffsetIsMalformed exercises the explicit
// zero-offset guard in parseAssets.
func TestParseZeroAssetInfoOffsetIsMalformed(t *testing.T) {
	data := buildWidth4Trailer()
	const assetInfoOffsetAddr = 56
	binary.LittleEndian.PutUint32(data[assetInfoOffsetAddr:], 0)

	_, _, err := Parse(data)
	require.ErrorIs(t, err, ErrMalformed)
}
