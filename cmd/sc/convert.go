package main

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/provide-io/sccodec/internal/workenv"
	"github.com/provide-io/sccodec/pkg/image/astc"
	"github.com/provide-io/sccodec/pkg/image/ktx"
	"github.com/provide-io/sccodec/pkg/sc/codec"
)

// stageMeta carries the decode results a bzip2-compressed level set alone
// can't: dimensions and whether the levels are ASTC-compressed. It sits
// alongside the workenv package's own completion marker in the same
// staging directory.
type stageMeta struct {
	Width, Height uint32
	Compressed    bool
	LevelCount    int
}

func newConvertCmd() *cobra.Command {
	var (
		target           string
		flipVertical     bool
		saveMips         bool
		astcBlocksX      int
		astcBlocksY      int
		keepStagingFiles bool
	)

	cmd := &cobra.Command{
		Use:     "convert <input> <output>",
		Aliases: []string{"v"},
		Short:   "Convert between the KTX and ASTC image containers",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			srcPath, dstPath := args[0], args[1]

			raw, err := os.ReadFile(srcPath)
			if err != nil {
				return err
			}

			sum := sha256.Sum256(raw)
			checksum := hex.EncodeToString(sum[:])
			stagePath := workenv.GetStagingPath(checksum)

			var (
				levels     [][]byte
				width      uint32
				height     uint32
				compressed bool
			)

			if workenv.IsValid(stagePath, srcPath, checksum) {
				levels, width, height, compressed, err = loadStagedLevels(stagePath)
			}
			if levels == nil {
				levels, width, height, compressed, err = stageSource(stagePath, srcPath, checksum, raw)
			}
			if err != nil {
				return err
			}

			var out []byte
			switch target {
			case "ktx":
				out, err = encodeKtx(levels, width, height, compressed, flipVertical, saveMips)
			case "astc":
				out, err = encodeAstc(levels, width, height, astcBlocksX, astcBlocksY)
			default:
				err = fmt.Errorf("convert: unknown --to %q (want ktx or astc)", target)
			}
			if err != nil {
				return err
			}

			if err := os.WriteFile(dstPath, out, 0o644); err != nil {
				return err
			}

			if keepStagingFiles {
				reportSuccess("converted %s -> %s (%s); staged levels kept at %s", srcPath, dstPath, target, stagePath)
			} else {
				if err := workenv.Clean(stagePath); err != nil {
					return err
				}
				if err := os.RemoveAll(stagePath); err != nil {
					return err
				}
				reportSuccess("converted %s -> %s (%s)", srcPath, dstPath, target)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&target, "to", "ktx", "Target container: ktx or astc")
	cmd.Flags().BoolVar(&flipVertical, "imageVerticalFlip", false, "Flip the base level vertically before writing a KTX target (no-op for ASTC-compressed levels)")
	cmd.Flags().BoolVar(&saveMips, "imageSaveMips", false, "Generate and store a full mip chain in a KTX target (no-op for ASTC-compressed levels)")
	cmd.Flags().IntVar(&astcBlocksX, "astc-blocks-x", 4, "ASTC block width for an astc target")
	cmd.Flags().IntVar(&astcBlocksY, "astc-blocks-y", 4, "ASTC block height for an astc target")
	cmd.Flags().BoolVar(&keepStagingFiles, "keep-staging", false, "Keep the workenv scratch directory so a later convert of the same input reuses its decoded levels")

	return cmd
}

// decodeSourceLevels sniffs raw's container kind and returns its base level
// plus enough of the header to rebuild either target container.
func decodeSourceLevels(raw []byte) (levels [][]byte, width, height uint32, compressed bool, err error) {
	if bytes.HasPrefix(raw, ktx.FileIdentifier[:]) {
		tex, decErr := ktx.Decode(bytes.NewReader(raw))
		if decErr != nil {
			return nil, 0, 0, false, decErr
		}
		return tex.Levels, tex.Width, tex.Height, tex.InternalFormat.IsCompressed(), nil
	}
	if bytes.HasPrefix(raw, astc.Identifier[:]) {
		c, decErr := astc.Decode(bytes.NewReader(raw))
		if decErr != nil {
			return nil, 0, 0, false, decErr
		}
		return [][]byte{c.Blocks}, c.Width, c.Height, true, nil
	}
	return nil, 0, 0, false, fmt.Errorf("convert: unrecognized source container (not KTX or ASTC)")
}

// stageSource decodes raw fresh and writes its levels (bzip2-compressed)
// plus a stageMeta sidecar into the workenv scratch directory, marking it
// complete on success and incomplete on failure so a later IsValid call
// reports the right thing.
func stageSource(stagePath, srcPath, checksum string, raw []byte) (levels [][]byte, width, height uint32, compressed bool, err error) {
	if err = workenv.CreateWorkenv(stagePath, nil); err != nil {
		return nil, 0, 0, false, err
	}

	levels, width, height, compressed, err = decodeSourceLevels(raw)
	if err != nil {
		if markErr := workenv.MarkIncomplete(stagePath, err.Error()); markErr != nil {
			return nil, 0, 0, false, fmt.Errorf("%w (and marking staging incomplete: %v)", err, markErr)
		}
		return nil, 0, 0, false, err
	}

	if err = writeStagedLevels(stagePath, levels, width, height, compressed); err != nil {
		workenv.MarkIncomplete(stagePath, err.Error())
		return nil, 0, 0, false, err
	}

	if err = workenv.MarkComplete(stagePath, srcPath, checksum); err != nil {
		return nil, 0, 0, false, err
	}
	return levels, width, height, compressed, nil
}

// writeStagedLevels bzip2-compresses each level and writes it alongside a
// stageMeta sidecar, so a later run can reconstruct the decode without
// re-touching the source container.
func writeStagedLevels(stagePath string, levels [][]byte, width, height uint32, compressed bool) error {
	meta := stageMeta{Width: width, Height: height, Compressed: compressed, LevelCount: len(levels)}
	metaBytes, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("convert: encoding stage metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(stagePath, "meta.json"), metaBytes, 0o644); err != nil {
		return fmt.Errorf("convert: writing stage metadata: %w", err)
	}

	for i, level := range levels {
		archived, err := codec.CompressBzip2Archive(level, 9)
		if err != nil {
			return fmt.Errorf("convert: staging level %d: %w", i, err)
		}
		path := filepath.Join(stagePath, fmt.Sprintf("level-%02d.bin.bz2", i))
		if err := os.WriteFile(path, archived, 0o644); err != nil {
			return fmt.Errorf("convert: staging level %d: %w", i, err)
		}
	}
	return nil
}

// loadStagedLevels reverses writeStagedLevels. Returns nil levels (with a
// nil error) if the staging directory's sidecar is missing or unreadable,
// signaling the caller to fall back to a fresh decode.
func loadStagedLevels(stagePath string) (levels [][]byte, width, height uint32, compressed bool, err error) {
	metaBytes, err := os.ReadFile(filepath.Join(stagePath, "meta.json"))
	if err != nil {
		return nil, 0, 0, false, nil
	}
	var meta stageMeta
	if err := json.Unmarshal(metaBytes, &meta); err != nil {
		return nil, 0, 0, false, nil
	}

	levels = make([][]byte, meta.LevelCount)
	for i := range levels {
		path := filepath.Join(stagePath, fmt.Sprintf("level-%02d.bin.bz2", i))
		archived, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil, 0, 0, false, nil
		}
		level, decErr := codec.DecompressBzip2Archive(archived)
		if decErr != nil {
			return nil, 0, 0, false, fmt.Errorf("convert: reading staged level %d: %w", i, decErr)
		}
		levels[i] = level
	}
	return levels, meta.Width, meta.Height, meta.Compressed, nil
}

func encodeKtx(levels [][]byte, width, height uint32, compressed, flip, mips bool) ([]byte, error) {
	internal := ktx.GLInternalRGBA8
	glType := ktx.GLTypeUnsignedByte
	format := ktx.GLFormatRGBA
	if compressed {
		internal = ktx.GLInternalCompressedASTC4x4
		glType = ktx.GLTypeCompressed
		format = ktx.GLFormatUnknown
	}

	tex := &ktx.Texture{
		Type:           glType,
		Format:         format,
		InternalFormat: internal,
		Width:          width,
		Height:         height,
		Levels:         levels,
	}
	return ktx.Encode(tex, ktx.EncodeOptions{FlipVertical: flip, SaveMips: mips})
}

func encodeAstc(levels [][]byte, width, height uint32, blocksX, blocksY int) ([]byte, error) {
	if len(levels) == 0 {
		return nil, fmt.Errorf("convert: source has no levels to convert")
	}
	opts := astc.Options{BlocksX: uint8(blocksX), BlocksY: uint8(blocksY)}
	c := astc.New(width, height, levels[0], opts)
	return astc.Encode(c), nil
}
