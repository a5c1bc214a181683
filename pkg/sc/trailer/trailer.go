// Package trailer implements the version-4 metadata trailer: a compact,
// self-describing, offset-table structure appended after the compressed
// payload and read strictly backwards from end-of-file. This is the
// subtlest piece of the SC container format — every width and every
// offset is derived only from bytes already inside the file, walked with
// plain byte indices into the original slice that are bounds-checked on
// every access, never materializing a raw pointer.
package trailer

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrMalformed is returned whenever trailer arithmetic would address
// outside the file, a declared length exceeds the remaining buffer, or any
// other structural invariant is violated.
var ErrMalformed = errors.New("trailer: malformed metadata trailer")

// Asset is one recovered (name, hash) record, in asset-index order.
type Asset struct {
	Name string
	Hash []byte
}

// Parse walks the trailer embedded in data (the full contents of a
// version-4 SC container) and returns the offset at which the compressed
// payload ends, plus the recovered asset records. A degenerate
// placeholder trailer (the one this codebase's own writer emits) is not an
// error: it yields an empty asset list.
func Parse(data []byte) (compressedEnd int64, assets []Asset, err error) {
	n := len(data)
	if n < 9 {
		return 0, nil, fmt.Errorf("%w: file too short for a trailer", ErrMalformed)
	}

	chunkLength, err := readUint(data, n-4, 4, binary.BigEndian)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: reading chunk_length: %v", ErrMalformed, err)
	}

	compressedEnd = int64(n) - int64(chunkLength) - 4 - 5
	if compressedEnd < 0 || compressedEnd > int64(n) {
		return 0, nil, fmt.Errorf("%w: chunk_length %d places compressed_end outside file", ErrMalformed, chunkLength)
	}

	// The fixed 2-byte footer — metadata_flags then asset_info_field_size —
	// always sits immediately before chunk_length, regardless of its value.
	flagsAddr := n - 6
	flags, err := readByteAt(data, flagsAddr)
	if err != nil {
		// Too short to even hold the fixed footer: treat as the writer's
		// degenerate placeholder rather than a hard failure, matching the
		// reader's tolerance policy for short/placeholder trailers.
		return compressedEnd, nil, nil
	}

	if flags&0xFC != 0x24 {
		// Degenerate / unrecognized flags byte: the writer's own
		// placeholder trailer looks exactly like this.
		return compressedEnd, nil, nil
	}

	assets, err = parseAssets(data, flagsAddr, flags)
	if err != nil {
		return 0, nil, err
	}
	return compressedEnd, assets, nil
}

// parseAssets reimplements the original decoder's backward pointer walk
// using bounds-checked byte-slice indices in place of raw pointers.
func parseAssets(data []byte, flagsAddr int, flags byte) ([]Asset, error) {
	fieldSizeAddr := flagsAddr + 1
	assetInfoFieldSize, err := readByteAt(data, fieldSizeAddr)
	if err != nil {
		return nil, fmt.Errorf("%w: reading asset_info_field_size: %v", ErrMalformed, err)
	}
	S := int(assetInfoFieldSize)

	assetInfoOffsetAddr := flagsAddr - S
	var assetInfoOffsetWidth int
	switch {
	case S > 3:
		assetInfoOffsetWidth = 4
	case S <= 1:
		assetInfoOffsetWidth = 1
	default:
		assetInfoOffsetWidth = 2
	}
	assetInfoOffset, err := readUint(data, assetInfoOffsetAddr, assetInfoOffsetWidth, binary.LittleEndian)
	if err != nil {
		return nil, fmt.Errorf("%w: reading asset_info_offset: %v", ErrMalformed, err)
	}
	if assetInfoOffset == 0 {
		return nil, fmt.Errorf("%w: zero asset_info_offset", ErrMalformed)
	}

	assetInfoPtr := assetInfoOffsetAddr - int(assetInfoOffset)
	if assetInfoPtr < 0 || assetInfoPtr >= assetInfoOffsetAddr {
		return nil, fmt.Errorf("%w: asset_info_offset does not point backward", ErrMalformed)
	}

	W := 1 << (flags & 3)

	var (
		assetTotalCount  uint64
		hashTotalCount   uint64
		stringsPtr       int
		stringsFieldSize int
		hashFieldSize    int
		sixteenBitCounts bool
	)

	switch {
	case W >= 4:
		offset := -3 * W
		switch {
		case W >= 8:
			stringDataAddr := assetInfoPtr + offset
			deref, err := readUint(data, stringDataAddr, 4, binary.LittleEndian)
			if err != nil {
				return nil, fmt.Errorf("%w: reading strings array offset: %v", ErrMalformed, err)
			}
			stringsPtr = stringDataAddr - int(deref)
			sifByte, err := readByteAt(data, stringDataAddr+W)
			if err != nil {
				return nil, fmt.Errorf("%w: reading strings_info_field_size: %v", ErrMalformed, err)
			}
			stringsFieldSize = int(sifByte)
			hashFieldSize = 8
		default: // W == 4
			hashFieldSize = W
			sif, err := readUint(data, assetInfoPtr+offset+W, 4, binary.LittleEndian)
			if err != nil {
				return nil, fmt.Errorf("%w: reading strings_info_field_size: %v", ErrMalformed, err)
			}
			stringsFieldSize = int(sif)
			arrOffset, err := readUint(data, assetInfoPtr+offset, 4, binary.LittleEndian)
			if err != nil {
				return nil, fmt.Errorf("%w: reading strings_array_offset: %v", ErrMalformed, err)
			}
			stringsPtr = assetInfoPtr + offset - int(arrOffset)
		}
		v, err := readUint(data, assetInfoPtr-W, 4, binary.LittleEndian)
		if err != nil {
			return nil, fmt.Errorf("%w: reading asset_total_count: %v", ErrMalformed, err)
		}
		assetTotalCount = v
	case W > 1: // W == 2
		hashFieldSize = W
		offset := -3 * W
		base := assetInfoPtr + offset
		deref, err := readUint(data, base, 2, binary.LittleEndian)
		if err != nil {
			return nil, fmt.Errorf("%w: reading strings array offset: %v", ErrMalformed, err)
		}
		stringsPtr = base - int(deref)
		sif, err := readUint(data, base+W, 2, binary.LittleEndian)
		if err != nil {
			return nil, fmt.Errorf("%w: reading strings_info_field_size: %v", ErrMalformed, err)
		}
		stringsFieldSize = int(sif)
		v, err := readUint(data, assetInfoPtr-W, 2, binary.LittleEndian)
		if err != nil {
			return nil, fmt.Errorf("%w: reading asset_total_count: %v", ErrMalformed, err)
		}
		assetTotalCount = v
		sixteenBitCounts = true
	default: // W == 1
		sifByte, err := readByteAt(data, assetInfoPtr-2)
		if err != nil {
			return nil, fmt.Errorf("%w: reading strings_info_field_size byte: %v", ErrMalformed, err)
		}
		_ = sifByte
		offsetByte, err := readByteAt(data, assetInfoPtr-3)
		if err != nil {
			return nil, fmt.Errorf("%w: reading strings offset byte: %v", ErrMalformed, err)
		}
		stringsPtr = assetInfoPtr - 3 - int(offsetByte)
		v, err := readByteAt(data, assetInfoPtr-W)
		if err != nil {
			return nil, fmt.Errorf("%w: reading asset_total_count: %v", ErrMalformed, err)
		}
		assetTotalCount = uint64(v)
		stringsFieldSize = 1
		hashFieldSize = 1
	}

	if assetTotalCount == 0 {
		return nil, nil
	}

	var stringsTotalCount uint64
	switch {
	case stringsFieldSize > 3:
		v, err := readUint(data, stringsPtr-stringsFieldSize, 4, binary.LittleEndian)
		if err != nil {
			return nil, fmt.Errorf("%w: reading strings_total_count: %v", ErrMalformed, err)
		}
		stringsTotalCount = v
	case stringsFieldSize > 1:
		v, err := readUint(data, stringsPtr-stringsFieldSize, 2, binary.LittleEndian)
		if err != nil {
			return nil, fmt.Errorf("%w: reading strings_total_count: %v", ErrMalformed, err)
		}
		stringsTotalCount = v
	default:
		v, err := readByteAt(data, stringsPtr-stringsFieldSize)
		if err != nil {
			return nil, fmt.Errorf("%w: reading strings_total_count: %v", ErrMalformed, err)
		}
		stringsTotalCount = uint64(v)
	}

	if sixteenBitCounts {
		if hashFieldSize > 1 {
			v, err := readUint(data, assetInfoPtr-W, 2, binary.LittleEndian)
			if err != nil {
				return nil, fmt.Errorf("%w: reading hash_total_count: %v", ErrMalformed, err)
			}
			hashTotalCount = v
		} else {
			v, err := readByteAt(data, assetInfoPtr-W)
			if err != nil {
				return nil, fmt.Errorf("%w: reading hash_total_count: %v", ErrMalformed, err)
			}
			hashTotalCount = uint64(v)
		}
	} else {
		v, err := readUint(data, assetInfoPtr-W, 4, binary.LittleEndian)
		if err != nil {
			return nil, fmt.Errorf("%w: reading hash_total_count: %v", ErrMalformed, err)
		}
		hashTotalCount = v
	}

	hashFlagsPtr := assetInfoPtr + int(hashTotalCount)*W

	// A degenerate or hostile file could claim an enormous asset count;
	// cap work (and allocation) at the number of bytes actually left in
	// the file, which is a hard upper bound on how many distinct assets
	// could possibly be addressed.
	if assetTotalCount > uint64(len(data)) {
		return nil, fmt.Errorf("%w: asset_total_count %d exceeds file size", ErrMalformed, assetTotalCount)
	}

	assets := make([]Asset, assetTotalCount)
	for i := uint64(0); i < assetTotalCount; i++ {
		var asset Asset

		if i < stringsTotalCount {
			entryAddr := stringsPtr + int(i)*stringsFieldSize
			var width int
			switch {
			case stringsFieldSize > 3:
				width = 4
			case stringsFieldSize <= 1:
				width = 1
			default:
				width = 2
			}
			stringOffset, err := readUint(data, entryAddr, width, binary.LittleEndian)
			if err != nil {
				return nil, fmt.Errorf("%w: reading string offset for asset %d: %v", ErrMalformed, i, err)
			}
			nameAddr := entryAddr - int(stringOffset)
			name, err := readCString(data, nameAddr)
			if err != nil {
				return nil, fmt.Errorf("%w: reading name for asset %d: %v", ErrMalformed, i, err)
			}
			asset.Name = name
		}

		if i < hashTotalCount {
			hashFlag, err := readByteAt(data, hashFlagsPtr+int(i))
			if err != nil {
				return nil, fmt.Errorf("%w: reading hash flag for asset %d: %v", ErrMalformed, i, err)
			}
			if tag := hashFlag >> 2; tag == 5 || tag == 0x19 {
				hashOffsetAddr := assetInfoPtr + int(i)*W
				var width int
				switch {
				case hashFieldSize > 3:
					width = 4
				case hashFieldSize <= 1:
					width = 1
				default:
					width = 2
				}
				hashOffset, err := readUint(data, hashOffsetAddr, width, binary.LittleEndian)
				if err != nil {
					return nil, fmt.Errorf("%w: reading hash offset for asset %d: %v", ErrMalformed, i, err)
				}
				hashPtr := hashOffsetAddr - int(hashOffset)
				lengthFieldSize := 1 << (hashFlag & 3)
				var sizeWidth int
				switch {
				case lengthFieldSize > 3:
					sizeWidth = 4
				case lengthFieldSize > 1:
					sizeWidth = 2
				default:
					sizeWidth = 1
				}
				hashSize, err := readUint(data, hashPtr-lengthFieldSize, sizeWidth, binary.LittleEndian)
				if err != nil {
					return nil, fmt.Errorf("%w: reading hash size for asset %d: %v", ErrMalformed, i, err)
				}
				if hashPtr < 0 || uint64(hashPtr)+hashSize > uint64(len(data)) {
					return nil, fmt.Errorf("%w: hash for asset %d extends outside file", ErrMalformed, i)
				}
				hash := make([]byte, hashSize)
				copy(hash, data[hashPtr:uint64(hashPtr)+hashSize])
				asset.Hash = hash
			}
		}

		assets[i] = asset
	}

	return assets, nil
}

func readByteAt(data []byte, addr int) (byte, error) {
	if addr < 0 || addr >= len(data) {
		return 0, fmt.Errorf("address %d outside [0,%d)", addr, len(data))
	}
	return data[addr], nil
}

func readUint(data []byte, addr int, width int, order binary.ByteOrder) (uint64, error) {
	if addr < 0 || width <= 0 || addr+width > len(data) {
		return 0, fmt.Errorf("read of width %d at %d outside [0,%d)", width, addr, len(data))
	}
	switch width {
	case 1:
		return uint64(data[addr]), nil
	case 2:
		return uint64(order.Uint16(data[addr : addr+2])), nil
	case 4:
		return uint64(order.Uint32(data[addr : addr+4])), nil
	case 8:
		return order.Uint64(data[addr : addr+8]), nil
	default:
		return 0, fmt.Errorf("unsupported integer width %d", width)
	}
}

// readCString reads a NUL-terminated string starting at addr, stopping at
// a zero byte or the end of the buffer, whichever comes first.
func readCString(data []byte, addr int) (string, error) {
	if addr < 0 || addr > len(data) {
		return "", fmt.Errorf("address %d outside [0,%d]", addr, len(data))
	}
	end := addr
	for end < len(data) && data[end] != 0 {
		end++
	}
	return string(data[addr:end]), nil
}
