package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harrison/hexpipe/internal/history"
	"github.com/harrison/hexpipe/internal/models"
	"github.com/harrison/hexpipe/internal/paths"
)

// NewHistoryCommand creates the 'hexpipe history' command
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded stage runs",
		Long: `List the most recent stage runs, or show the folders of one run.

A run can be designated by any unambiguous prefix of its ID.
With --folder, list every recorded outcome of one folder instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistory,
	}

	cmd.Flags().Int("limit", 20, "Maximum number of runs to list (0 = all)")
	cmd.Flags().String("folder", "", "Show the outcomes recorded for this folder")

	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	env, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}
	store, err := history.NewStore(env.cfg.HistoryDBPath())
	if err != nil {
		return fmt.Errorf("failed to open run history: %w", err)
	}
	defer store.Close()

	ctx := cmd.Context()
	if folder, _ := cmd.Flags().GetString("folder"); folder != "" {
		records, err := store.FolderHistory(ctx, paths.Normalize(folder))
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Fprintf(out, "No outcome recorded for %s\n", paths.Rel(env.root, paths.Normalize(folder)))
			return nil
		}
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "RUN\tSTAGE\tFINISHED\tSTATUS\tOUTPUT")
		for _, r := range records {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", shortRunID(r.RunID), r.Stage,
				r.FinishedAt.Local().Format(models.PrettyTimeFormat), statusText(r.Status), paths.Rel(env.root, r.OutputFolder))
		}
		return w.Flush()
	}

	if len(args) == 1 {
		run, err := store.GetRun(ctx, args[0])
		if err != nil {
			return err
		}
		outcomes, err := store.Outcomes(ctx, run.ID)
		if err != nil {
			return err
		}
		return printRun(out, env.root, run, outcomes)
	}

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := store.RecentRuns(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTAGE\tSTARTED\tDURATION\tFOLDERS\tFAILED\tINPUT")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			shortRunID(r.ID), r.Stage, r.StartedAt.Local().Format(models.PrettyTimeFormat),
			runDuration(r), r.Folders, r.Failures, paths.Rel(env.root, r.Reference))
	}
	return w.Flush()
}

func printRun(out io.Writer, root string, run *history.RunRecord, outcomes []models.FolderOutcome) error {
	fmt.Fprintf(out, "Run %s\n", run.ID)
	fmt.Fprintf(out, "  Stage: %s\n", run.Stage)
	fmt.Fprintf(out, "  Input: %s\n", run.Reference)
	if run.Comment != "" {
		fmt.Fprintf(out, "  Comments: %s\n", run.Comment)
	}
	if run.Host != "" {
		fmt.Fprintf(out, "  Host: %s\n", run.Host)
	}
	fmt.Fprintf(out, "  Started: %s\n", run.StartedAt.Local().Format(models.PrettyTimeFormat))
	fmt.Fprintf(out, "  Duration: %s\n", runDuration(run))
	if run.Ledger != "" {
		fmt.Fprintf(out, "  Collections: %s, %s\n", paths.Rel(root, run.Ledger), paths.Rel(root, run.ErrorLedger))
	}
	fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FOLDER\tSTATUS\tDURATION\tREASON")
	for _, o := range outcomes {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", paths.Rel(root, o.Folder), statusText(o.Status),
			o.Duration.Round(time.Millisecond), o.Reason)
	}
	return w.Flush()
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func runDuration(r *history.RunRecord) string {
	if !r.Finished {
		return "-"
	}
	return r.Duration().Round(time.Second).String()
}

// statusText colors a status label the way batch runs print it.
func statusText(s models.Status) string {
	switch {
	case s == models.StatusDone:
		return color.GreenString(s.Label())
	case s.IsFailure():
		return color.RedString(s.Label())
	default:
		return color.YellowString(s.Label())
	}
}
