package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrison/hexpipe/internal/display"
	"github.com/harrison/hexpipe/internal/paths"
)

// NewExpandCommand creates the 'hexpipe expand' command
func NewExpandCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expand <collection>",
		Short: "Expand a collection to its folder list",
		Long: `Resolve a folder or a collection file and print the folders it designates,
one absolute path per line, sorted.

Nested collections are expanded recursively. A collection included twice is
expanded once. With --depth, every folder must lie at that depth below the
working data folder.`,
		Args: cobra.ExactArgs(1),
		RunE: runExpand,
	}

	cmd.Flags().String("depth", "any", "Required depth of the folders (a number, or 'any')")
	cmd.Flags().Bool("relative", false, "Print folders relative to the working data folder")

	return cmd
}

func runExpand(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	env, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}

	depthFlag, _ := cmd.Flags().GetString("depth")
	depth, err := paths.ParseDepth(depthFlag)
	if err != nil {
		return err
	}
	relative, _ := cmd.Flags().GetBool("relative")

	res, err := env.resolve(args[0], depth)
	if err != nil {
		return err
	}

	entries := res.Entries.Sorted()
	display.NewProgressIndicator(out, len(entries)).Start("Set of input folders")
	for _, entry := range entries {
		if relative {
			entry = paths.Rel(env.root, entry)
		}
		fmt.Fprintln(out, entry)
	}
	return nil
}
