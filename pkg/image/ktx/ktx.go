// Package ktx reads and writes the Khronos KTX 1.1 texture container: the
// default image wrapper this toolchain's convert subcommand targets. Pixel
// data itself — raw or ASTC-block-compressed — is treated as an opaque
// per-level payload; this package owns only the container framing.
package ktx

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"

	"github.com/nfnt/resize"
)

// FileIdentifier is the fixed 12-byte KTX magic every conforming file opens
// with.
var FileIdentifier = [12]byte{0xAB, 'K', 'T', 'X', ' ', '1', '1', 0xBB, '\r', '\n', 0x1A, '\n'}

const endiannessStamp uint32 = 0x04030201

// GLType mirrors the handful of glType values this format actually emits:
// either a plain unsigned-byte pixel type or the "compressed" sentinel
// used for ASTC payloads.
type GLType uint32

const (
	GLTypeCompressed   GLType = 0
	GLTypeUnsignedByte GLType = 0x1401
)

// GLFormat mirrors the glFormat / glBaseInternalType values this wrapper
// round-trips.
type GLFormat uint32

const (
	GLFormatUnknown    GLFormat = 0
	GLFormatRed        GLFormat = 0x1903
	GLFormatRG         GLFormat = 0x8227
	GLFormatRGB        GLFormat = 0x1907
	GLFormatRGBA       GLFormat = 0x1908
	GLFormatSRGB       GLFormat = 0x8C40
	GLFormatSRGBAlpha  GLFormat = 0x8C42
)

// GLInternalFormat mirrors the glInternalFormat values this wrapper
// recognizes, including the ASTC block-compressed variants.
type GLInternalFormat uint32

const (
	GLInternalRGBA8            GLInternalFormat = 0x8058
	GLInternalRGB8             GLInternalFormat = 0x8051
	GLInternalLuminance        GLInternalFormat = 0x1909
	GLInternalLuminanceAlpha   GLInternalFormat = 0x190A
	GLInternalCompressedASTC4x4 GLInternalFormat = 0x93B0
	GLInternalCompressedASTC5x5 GLInternalFormat = 0x93B2
	GLInternalCompressedASTC6x6 GLInternalFormat = 0x93B4
	GLInternalCompressedASTC8x8 GLInternalFormat = 0x93B7
)

// IsCompressed reports whether an internal format stores ASTC blocks rather
// than raw samples.
func (f GLInternalFormat) IsCompressed() bool {
	switch f {
	case GLInternalCompressedASTC4x4, GLInternalCompressedASTC5x5, GLInternalCompressedASTC6x6, GLInternalCompressedASTC8x8:
		return true
	default:
		return false
	}
}

// Texture is a single KTX 1.1 image: header fields plus one opaque payload
// per mip level, level 0 being the base image.
type Texture struct {
	Type             GLType
	Format           GLFormat
	InternalFormat   GLInternalFormat
	Width, Height    uint32
	Levels           [][]byte
}

// Decode reads a complete KTX 1.1 texture from r.
func Decode(r *bytes.Reader) (*Texture, error) {
	var id [12]byte
	if _, err := io.ReadFull(r, id[:]); err != nil {
		return nil, fmt.Errorf("ktx: reading identifier: %w", err)
	}
	if id != FileIdentifier {
		return nil, fmt.Errorf("ktx: bad file identifier")
	}

	fields := make([]uint32, 12)
	for i := range fields {
		if err := binary.Read(r, binary.LittleEndian, &fields[i]); err != nil {
			return nil, fmt.Errorf("ktx: reading header field %d: %w", i, err)
		}
	}
	// fields: [endianness, glType, glTypeSize, glFormat, glInternalFormat,
	// glBaseInternalType, pixelWidth, pixelHeight, pixelDepth,
	// numberOfArrayElements, numberOfFaces, numberOfMipmapLevels]
	if fields[0] != endiannessStamp {
		return nil, fmt.Errorf("ktx: unexpected endianness stamp %#08x", fields[0])
	}

	tex := &Texture{
		Type:           GLType(fields[1]),
		InternalFormat: GLInternalFormat(fields[4]),
		Width:          fields[6],
		Height:         fields[7],
	}
	format := GLFormat(fields[3])
	baseInternal := GLFormat(fields[5])
	if format == GLFormatUnknown {
		tex.Format = baseInternal
	} else {
		tex.Format = format
	}

	if fields[8] != 0 {
		return nil, fmt.Errorf("ktx: pixelDepth must be 0, got %d", fields[8])
	}
	if fields[9] != 0 {
		return nil, fmt.Errorf("ktx: numberOfArrayElements must be 0, got %d", fields[9])
	}
	if fields[10] != 1 {
		return nil, fmt.Errorf("ktx: numberOfFaces must be 1, got %d", fields[10])
	}

	levelCount := fields[11]

	var keyValueLength uint32
	if err := binary.Read(r, binary.LittleEndian, &keyValueLength); err != nil {
		return nil, fmt.Errorf("ktx: reading bytesOfKeyValueData: %w", err)
	}
	if keyValueLength > 0 {
		if _, err := r.Seek(int64(keyValueLength), io.SeekCurrent); err != nil {
			return nil, fmt.Errorf("ktx: skipping key-value data: %w", err)
		}
	}

	tex.Levels = make([][]byte, levelCount)
	for i := uint32(0); i < levelCount; i++ {
		var length uint32
		if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
			return nil, fmt.Errorf("ktx: reading level %d length: %w", i, err)
		}
		data := make([]byte, length)
		if _, err := io.ReadFull(r, data); err != nil {
			return nil, fmt.Errorf("ktx: reading level %d data: %w", i, err)
		}
		tex.Levels[i] = data
	}

	return tex, nil
}

// EncodeOptions supplements the bare container write with the original
// CLI's image-side flags: flipping the base level vertically, and
// generating a full mip chain from it.
type EncodeOptions struct {
	FlipVertical bool
	SaveMips     bool
}

// Encode returns tex serialized as a KTX 1.1 file. For uncompressed internal
// formats only the base level of tex.Levels is written (any further levels
// are dropped): when opts requests a vertical flip, a flipped copy of the
// base level (assumed raw RGBA8, one byte per channel) is written instead,
// and with SaveMips a mip chain derived from that base level follows it.
// Compressed (ASTC) internal formats write every level of tex.Levels
// unchanged; flipping and mip generation are no-ops for them, since block
// payloads cannot be resampled without decoding them first — a capability
// this wrapper does not implement.
func Encode(tex *Texture, opts EncodeOptions) ([]byte, error) {
	levels := tex.Levels
	if !tex.InternalFormat.IsCompressed() && len(levels) > 0 {
		base := levels[0]
		if opts.FlipVertical {
			flipped, err := flipVertical(base, int(tex.Width), int(tex.Height))
			if err != nil {
				return nil, err
			}
			base = flipped
		}
		if opts.SaveMips {
			mips, err := generateMips(base, int(tex.Width), int(tex.Height))
			if err != nil {
				return nil, err
			}
			levels = append([][]byte{base}, mips...)
		} else {
			levels = [][]byte{base}
		}
	}

	var buf bytes.Buffer
	buf.Write(FileIdentifier[:])
	writeU32 := func(v uint32) { binary.Write(&buf, binary.LittleEndian, v) }

	writeU32(endiannessStamp)
	writeU32(uint32(tex.Type))

	typeSize := uint32(0)
	if tex.Type != GLTypeCompressed {
		typeSize = 1
	}
	writeU32(typeSize)

	if tex.InternalFormat.IsCompressed() {
		writeU32(uint32(GLFormatUnknown))
	} else {
		writeU32(uint32(tex.Format))
	}
	writeU32(uint32(tex.InternalFormat))
	writeU32(uint32(tex.Format))
	writeU32(tex.Width)
	writeU32(tex.Height)
	writeU32(0) // pixelDepth
	writeU32(0) // numberOfArrayElements
	writeU32(1) // numberOfFaces
	writeU32(uint32(len(levels)))
	writeU32(0) // bytesOfKeyValueData

	for _, level := range levels {
		writeU32(uint32(len(level)))
		buf.Write(level)
	}

	return buf.Bytes(), nil
}

// flipVertical flips a tightly packed RGBA8 buffer top-to-bottom.
func flipVertical(data []byte, width, height int) ([]byte, error) {
	stride := width * 4
	if len(data) != stride*height {
		return nil, fmt.Errorf("ktx: flip expects %d bytes for %dx%d RGBA8, got %d", stride*height, width, height, len(data))
	}
	out := make([]byte, len(data))
	for row := 0; row < height; row++ {
		src := data[row*stride : (row+1)*stride]
		dstRow := height - 1 - row
		copy(out[dstRow*stride:(dstRow+1)*stride], src)
	}
	return out, nil
}

// generateMips builds a full mip chain (halving each dimension until both
// reach 1) from a base RGBA8 level using bilinear resize.
func generateMips(base []byte, width, height int) ([][]byte, error) {
	stride := width * 4
	if len(base) != stride*height {
		return nil, fmt.Errorf("ktx: mip generation expects %d bytes for %dx%d RGBA8, got %d", stride*height, width, height, len(base))
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &rgbaSource{data: base, width: width, height: height}, image.Point{}, draw.Src)

	var mips [][]byte
	w, h := width, height
	for w > 1 || h > 1 {
		w = maxInt(1, w/2)
		h = maxInt(1, h/2)
		resized := resize.Resize(uint(w), uint(h), img, resize.Bilinear)
		mipBuf := make([]byte, w*h*4)
		nrgba, ok := resized.(*image.NRGBA)
		if !ok {
			nrgba = image.NewNRGBA(resized.Bounds())
			draw.Draw(nrgba, nrgba.Bounds(), resized, image.Point{}, draw.Src)
		}
		for y := 0; y < h; y++ {
			copy(mipBuf[y*w*4:(y+1)*w*4], nrgba.Pix[y*nrgba.Stride:y*nrgba.Stride+w*4])
		}
		mips = append(mips, mipBuf)
	}
	return mips, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// rgbaSource adapts a flat RGBA8 byte slice to image.Image for draw.Draw.
type rgbaSource struct {
	data          []byte
	width, height int
}

func (r *rgbaSource) ColorModel() color.Model { return color.NRGBAModel }
func (r *rgbaSource) Bounds() image.Rectangle {
	return image.Rect(0, 0, r.width, r.height)
}
func (r *rgbaSource) At(x, y int) color.Color {
	i := (y*r.width + x) * 4
	return color.NRGBA{R: r.data[i], G: r.data[i+1], B: r.data[i+2], A: r.data[i+3]}
}
