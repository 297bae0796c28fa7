package cmd

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harrison/hexpipe/internal/filelock"
	"github.com/harrison/hexpipe/internal/history"
	"github.com/harrison/hexpipe/internal/report"
)

// NewReportCommand creates the 'hexpipe report' command
func NewReportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize recorded runs as Markdown or HTML",
		Long: `Build a report of the most recent runs: one table row per run with its
per-status folder counts, followed by the failed folders of each run.

The report is printed as Markdown, or written to -o: an .html file gets
the rendered HTML, any other file the Markdown source.`,
		Args: cobra.NoArgs,
		RunE: runReport,
	}

	cmd.Flags().StringP("output", "o", "", "File to write the report to")
	cmd.Flags().Int("limit", 20, "Maximum number of runs in the report (0 = all)")
	cmd.Flags().String("title", "hexpipe runs", "Report title")

	return cmd
}

func runReport(cmd *cobra.Command, args []string) error {
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
	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := store.RecentRuns(ctx, limit)
	if err != nil {
		return err
	}

	reports := make([]report.RunReport, 0, len(runs))
	for _, run := range runs {
		outcomes, err := store.Outcomes(ctx, run.ID)
		if err != nil {
			return err
		}
		reports = append(reports, report.RunReport{Run: run, Outcomes: outcomes})
	}

	title, _ := cmd.Flags().GetString("title")
	var md bytes.Buffer
	if err := report.Build(&md, title, reports); err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		_, err := out.Write(md.Bytes())
		return err
	}

	data := md.Bytes()
	if strings.EqualFold(filepath.Ext(output), ".html") {
		var html bytes.Buffer
		if err := report.Render(&html, data); err != nil {
			return err
		}
		data = html.Bytes()
	}
	if err := filelock.AtomicWrite(output, data); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	fmt.Fprintf(out, "Report of %d run(s) written to %s\n", len(reports), output)
	return nil
}
