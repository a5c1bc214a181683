// Command sc is the CLI front end for the SC container codec: compress and
// decompress SC binary containers, and convert between the image
// containers (KTX, ASTC) this repository understands.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/provide-io/sccodec/pkg/logging"
)

const version = "0.1.0"

var (
	logLevel    string
	workenvBase string
	rootCmd     *cobra.Command
)

func init() {
	rootCmd = &cobra.Command{
		Use:           "sc",
		Short:         "Compress, decompress, and convert SC asset containers",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&workenvBase, "workenv-base", "", "Base directory for convert staging (defaults to the user cache directory)")

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if workenvBase != "" {
			os.Setenv("SCCODEC_CACHE_DIR", workenvBase)
		}
	}

	rootCmd.AddCommand(newCompressCmd())
	rootCmd.AddCommand(newDecompressCmd())
	rootCmd.AddCommand(newConvertCmd())
}

func currentLogLevel() string {
	if logLevel != "" {
		return logLevel
	}
	return logging.GetLogLevel()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(reportError(err))
	}
}
