package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrison/hexpipe/internal/display"
	"github.com/harrison/hexpipe/internal/paths"
	"github.com/harrison/hexpipe/internal/process"
)

// NewCustomCommand creates the 'hexpipe custom' command
func NewCustomCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "custom <collection> -- <command> [args...]",
		Short: "Run a command inside every folder of a collection",
		Long: `Run a command inside every folder of a collection, whatever their depth.

The command is executed directly, without a shell, with each folder as its
working directory. Its output goes to the terminal. The exit status of every
folder is printed; a failing folder does not stop the loop.

Example:
  hexpipe custom all_CAD_models.txt -- mv model.step CAD.step`,
		Args: cobra.MinimumNArgs(2),
		RunE: runCustom,
	}

	return cmd
}

func runCustom(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	collectionArg := args[0]
	command := args[1:]
	if dash := cmd.ArgsLenAtDash(); dash >= 0 {
		if dash != 1 {
			return fmt.Errorf("expected exactly one collection before --")
		}
	}

	env, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}

	res, err := env.resolve(collectionArg, paths.AnyDepth)
	if err != nil {
		return err
	}

	folders := res.Entries.Sorted()
	progress := display.NewProgressIndicator(out, len(folders))
	progress.Start("Set of input folders")

	runner := process.NewInvoker()
	for _, folder := range folders {
		progress.Step(paths.Rel(env.root, folder))
		result, err := runner.Run(cmd.Context(), process.Invocation{
			Name:       command[0],
			Executable: command[0],
			Args:       command[1:],
			Dir:        folder,
			Output:     out,
		})
		if err != nil {
			return err
		}
		if result.StartErr != nil {
			env.log.LogDebug(fmt.Sprintf("cannot start %s: %v", command[0], result.StartErr))
		}
		fmt.Fprintf(out, "Finished (returncode=%d)\n", result.ExitCode)
	}
	return nil
}
