package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/provide-io/sccodec/pkg/logging"
	"github.com/provide-io/sccodec/pkg/sc"
	"github.com/provide-io/sccodec/pkg/sc/stream"
)

func newCompressCmd() *cobra.Command {
	var (
		method                 string
		threads                int
		writeAssets            bool
		lzmaLongUnpackedLength bool
		zstdLevel              int
		useMmap                bool
	)

	cmd := &cobra.Command{
		Use:     "compress <input> <output>",
		Aliases: []string{"c"},
		Short:   "Compress a file into an SC container",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sig, err := parseSignature(method)
			if err != nil {
				return err
			}

			input, err := openInputStream(args[0], useMmap)
			if err != nil {
				return err
			}
			defer input.Close()

			output, err := stream.OpenFile(args[1], true)
			if err != nil {
				return err
			}
			defer output.Close()

			logger := logging.NewLogger("sc-compress", currentLogLevel(), os.Stderr)

			opts := sc.CompressOptions{
				Signature:              sig,
				WriteAssets:            writeAssets,
				Threads:                threads,
				LzmaLongUnpackedLength: lzmaLongUnpackedLength,
				ZstdLevel:              zstdLevel,
			}
			if err := sc.CompressWithLogger(input, output, opts, logger); err != nil {
				return err
			}

			reportSuccess("compressed %s -> %s (%s)", args[0], args[1], sig)
			return nil
		},
	}

	cmd.Flags().StringVar(&method, "method", "lzma", "Inner codec: lzma, zstd, or lzham")
	cmd.Flags().IntVar(&threads, "threads", 0, "Thread hint forwarded to the inner codec")
	cmd.Flags().BoolVar(&writeAssets, "write-assets", false, "Wrap in a version-4 container with a metadata trailer")
	cmd.Flags().BoolVar(&lzmaLongUnpackedLength, "lzmaLongUnpackedLength", false, "Widen the LZMA unpacked-length field to 64 bits (write-only; not reloadable by this tool's decompress)")
	cmd.Flags().IntVar(&zstdLevel, "zstd-level", 0, "Zstandard compression level (defaults to 16)")
	cmd.Flags().BoolVar(&useMmap, "mmap", false, "Memory-map the input file instead of reading it through a plain file descriptor")

	return cmd
}

func parseSignature(method string) (sc.Signature, error) {
	switch method {
	case "lzma":
		return sc.SignatureLzma, nil
	case "zstd":
		return sc.SignatureZstd, nil
	case "lzham":
		return sc.SignatureLzham, nil
	default:
		return 0, &sc.Error{Kind: sc.InvalidParameters, Detail: "unknown --method " + method}
	}
}
