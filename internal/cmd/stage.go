package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harrison/hexpipe/internal/confirm"
	"github.com/harrison/hexpipe/internal/models"
	"github.com/harrison/hexpipe/internal/process"
	"github.com/harrison/hexpipe/internal/stage"
)

// NewStageCommand creates the command running def over a collection.
func NewStageCommand(def *stage.Definition) *cobra.Command {
	use := def.Name + " <input>"
	maxArgs := 1
	if !def.InPlace() {
		use += " [output]"
		maxArgs = 2
	}

	var long strings.Builder
	fmt.Fprintf(&long, "%s.\n\n", def.Description)
	fmt.Fprintf(&long, "<input> is a folder of depth %s below the working data folder, or a collection of such folders.\n", def.Depth)
	if def.InPlace() {
		long.WriteString("Results are written into the input folders.\n")
	} else {
		fmt.Fprintf(&long, "[output] names the folder created in each input folder (default %q).\n", def.Output)
		long.WriteString("%d in [output] is replaced by the date and time of the run")
		for _, p := range def.Params {
			if p.Placeholder != "" {
				fmt.Fprintf(&long, ", %s by --%s", p.Placeholder, p.Name)
			}
		}
		long.WriteString(".\n")
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: def.Description,
		Long:  long.String(),
		Args:  cobra.MaximumNArgs(maxArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStage(cmd, def, args)
		},
	}

	cmd.Flags().StringP("comments", "c", "", "Comments about the aim of this execution")
	cmd.Flags().BoolP("no-output-collections", "n", false, "Do not write the success/error collections")
	cmd.Flags().String("overwrite", "ask", "Overwrite policy for existing outputs: ask, always_yes, always_no")
	cmd.Flags().Bool("tool-versions", false, "Print the modification date of the underlying executables and exit")
	cmd.Flags().Bool("no-history", false, "Do not record this run in the run history")
	for _, p := range def.Params {
		cmd.Flags().String(p.Name, p.Default, p.Usage)
	}

	return cmd
}

func runStage(cmd *cobra.Command, def *stage.Definition, args []string) error {
	out := cmd.OutOrStdout()

	env, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}
	tools, err := env.cfg.RequireAll(def.ToolKeys()...)
	if err != nil {
		return err
	}

	if versions, _ := cmd.Flags().GetBool("tool-versions"); versions {
		for _, v := range def.ToolVersions(tools) {
			if v.Err != nil {
				fmt.Fprintf(out, "%s: %v\n", v.Path, v.Err)
				continue
			}
			fmt.Fprintf(out, "%s: %s\n", v.Path, v.ModTime.Format(models.PrettyTimeFormat))
		}
		return nil
	}

	if len(args) == 0 {
		return fmt.Errorf("<input> is required")
	}

	policyFlag, _ := cmd.Flags().GetString("overwrite")
	policy, err := confirm.ParsePolicy(policyFlag)
	if err != nil {
		return err
	}

	params := make(map[string]string, len(def.Params))
	for _, p := range def.Params {
		params[p.Name], _ = cmd.Flags().GetString(p.Name)
	}

	var outputTemplate string
	if len(args) > 1 {
		outputTemplate = args[1]
	}

	res, err := env.resolve(args[0], def.Depth)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Found %d input folder(s)\n", res.Entries.Len())

	comment, _ := cmd.Flags().GetString("comments")
	noLedger, _ := cmd.Flags().GetBool("no-output-collections")
	batch := &stage.Batch{
		Def:            def,
		Root:           env.root,
		Reference:      args[0],
		Tools:          tools,
		Params:         params,
		OutputTemplate: outputTemplate,
		Comment:        comment,
		NoLedger:       noLedger,
		Policy:         policy,
		Runner:         process.NewInvoker(),
		Confirmer:      confirm.NewPrompt(cmd.InOrStdin(), out),
		Out:            out,
		Logger:         env.log,
	}

	store, err := env.openHistory()
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
		batch.History = store
	}

	summary, err := batch.Run(cmd.Context(), res.Entries.Sorted())
	if err != nil {
		return err
	}

	if failures := summary.Failures(); len(failures) > 0 {
		return fmt.Errorf("%d of %d folder(s) failed", len(failures), len(summary.Outcomes))
	}
	return nil
}
