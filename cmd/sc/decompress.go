package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/provide-io/sccodec/pkg/logging"
	"github.com/provide-io/sccodec/pkg/sc"
	"github.com/provide-io/sccodec/pkg/sc/stream"
)

func newDecompressCmd() *cobra.Command {
	var (
		printMetadata bool
		useMmap       bool
	)

	cmd := &cobra.Command{
		Use:     "decompress <input> <output>",
		Aliases: []string{"d"},
		Short:   "Decompress an SC container",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			logger := logging.NewLogger("sc-decompress", currentLogLevel(), os.Stderr)

			var assets []sc.AssetRecord
			if err := sc.DecompressWithLogger(input, output, &assets, logger); err != nil {
				return err
			}

			if printMetadata {
				printAssetTable(assets)
			}

			reportSuccess("decompressed %s -> %s", args[0], args[1])
			return nil
		},
	}

	cmd.Flags().BoolVar(&printMetadata, "print_sc_metadata", false, "Print the recovered asset table (name + hash) after decompressing a version-4 container")
	cmd.Flags().BoolVar(&useMmap, "mmap", false, "Memory-map the input file instead of reading it through a plain file descriptor")

	return cmd
}

// printAssetTable renders the recovered MetadataAssetArray as a
// human-readable table, matching the original CLI's fmt::print loop over
// the parsed asset array.
func printAssetTable(assets []sc.AssetRecord) {
	if len(assets) == 0 {
		fmt.Println("(no assets in metadata trailer)")
		return
	}
	fmt.Printf("%-40s %s\n", "NAME", "HASH")
	for _, a := range assets {
		fmt.Printf("%-40s %s\n", a.Name, hex.EncodeToString(a.Hash))
	}
}
