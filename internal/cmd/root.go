package cmd

import (
	"github.com/spf13/cobra"

	"github.com/harrison/hexpipe/internal/stage"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for hexpipe
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hexpipe",
		Short: "Batch pipeline from CAD models to hexahedral meshes",
		Long: `hexpipe runs the stages of the CAD -> tetrahedral mesh -> labeling ->
polycube/hex-mesh pipeline over a shared working data folder.

Every stage accepts a single folder or a collection: a .txt file listing
folders and other collections, one path per line, relative to the file.
Each run writes a success collection and an error collection under the
working data folder, which can be fed back to the next stage.

Tool locations and the working data folder are read from paths.yaml
(or paths.toml), found via --config, $HEXPIPE_CONFIG or by walking up
from the current directory.`,
		Version: Version,
		// main prints the error; usage is not repeated on failures
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("config", "", "Path to the configuration file (default: $HEXPIPE_CONFIG or the nearest paths.yaml)")
	cmd.PersistentFlags().String("log-level", "", "Console log level: trace, debug, info, warn, error")
	cmd.PersistentFlags().Bool("verbose", false, "Same as --log-level debug")

	for _, def := range stage.Catalog {
		cmd.AddCommand(NewStageCommand(def))
	}
	cmd.AddCommand(NewExpandCommand())
	cmd.AddCommand(NewCustomCommand())
	cmd.AddCommand(NewCollectCommand())
	cmd.AddCommand(NewHistoryCommand())
	cmd.AddCommand(NewReportCommand())

	return cmd
}
