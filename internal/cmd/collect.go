package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrison/hexpipe/internal/collection"
	"github.com/harrison/hexpipe/internal/models"
	"github.com/harrison/hexpipe/internal/paths"
)

// NewCollectCommand creates the 'hexpipe collect' command
func NewCollectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collect [pattern]",
		Short: "Build a collection from the working data folder",
		Long: `Walk the working data folder and gather folders into a collection file.

[pattern] is a glob relative to the working data folder ("*/gmsh_*",
"**/naive"); without it every folder at --depth is collected. Hidden
folders are never collected.

Without -o the folders are printed instead of written.

Examples:
  hexpipe collect --depth 2 --require tetra.mesh -o all_tet_meshes.txt
  hexpipe collect '*/netgen_*' --depth 2 -o netgen.txt`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCollect,
	}

	cmd.Flags().String("depth", "any", "Depth of the collected folders (a number, or 'any')")
	cmd.Flags().StringSlice("require", nil, "File that must exist in a folder for it to be collected (repeatable)")
	cmd.Flags().StringP("output", "o", "", "Collection file to write, relative to the working data folder")
	cmd.Flags().Bool("force", false, "Replace an existing collection file")

	return cmd
}

func runCollect(cmd *cobra.Command, args []string) error {
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
	required, _ := cmd.Flags().GetStringSlice("require")
	output, _ := cmd.Flags().GetString("output")
	force, _ := cmd.Flags().GetBool("force")

	var pattern string
	if len(args) > 0 {
		pattern = args[0]
	}

	entries, err := collection.Collect(env.root, pattern, depth, required...)
	if err != nil {
		return err
	}

	if output == "" {
		for _, entry := range entries.Sorted() {
			fmt.Fprintln(out, paths.Rel(env.root, entry))
		}
		return nil
	}

	if !filepath.IsAbs(output) {
		output = filepath.Join(env.root, output)
	}
	if _, err := os.Stat(output); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to replace it)", output)
	}

	header := []string{
		"Generated by collect",
		time.Now().Format(models.PrettyTimeFormat),
	}
	if pattern != "" {
		header = append(header, fmt.Sprintf("pattern %s, depth %s", pattern, depth))
	} else {
		header = append(header, fmt.Sprintf("depth %s", depth))
	}
	if err := collection.WriteManifest(output, entries, header...); err != nil {
		return err
	}

	fmt.Fprintf(out, "Wrote %d folder(s) to %s\n", entries.Len(), paths.Rel(env.root, paths.Normalize(output)))
	return nil
}
