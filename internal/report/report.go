// Package report turns the run history into a Markdown summary and renders
// it to HTML.
package report

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/harrison/hexpipe/internal/history"
	"github.com/harrison/hexpipe/internal/models"
)

// RunReport is one run and the outcomes it recorded.
type RunReport struct {
	Run      *history.RunRecord
	Outcomes []models.FolderOutcome
}

// Build writes a Markdown report of runs, newest first as given.
// Failed folders of each run are listed below its table row.
func Build(w io.Writer, title string, runs []RunReport) error {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s\n\n", title)
	if len(runs) == 0 {
		sb.WriteString("No runs recorded.\n")
		_, err := io.WriteString(w, sb.String())
		return err
	}

	sb.WriteString("| Run | Stage | Started | Duration | Folders | Done | Errors | Missing files | Canceled |\n")
	sb.WriteString("|---|---|---|---|---|---|---|---|---|\n")
	for _, r := range runs {
		summary := models.RunSummary{Run: r.Run.Run, Outcomes: r.Outcomes}
		fmt.Fprintf(&sb, "| `%s` | %s | %s | %s | %d | %d | %d | %d | %d |\n",
			shortID(r.Run.ID),
			escapeCell(r.Run.Stage),
			r.Run.StartedAt.Local().Format(models.PrettyTimeFormat),
			duration(r.Run),
			len(r.Outcomes),
			summary.Count(models.StatusDone),
			summary.Count(models.StatusError),
			summary.Count(models.StatusMissingFiles),
			summary.Count(models.StatusCanceled))
	}

	for _, r := range runs {
		summary := models.RunSummary{Run: r.Run.Run, Outcomes: r.Outcomes}
		failures := summary.Failures()
		if len(failures) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "\n## %s `%s`\n\n", r.Run.Stage, shortID(r.Run.ID))
		fmt.Fprintf(&sb, "Input: `%s`", r.Run.Reference)
		if r.Run.Comment != "" {
			fmt.Fprintf(&sb, " (%s)", r.Run.Comment)
		}
		sb.WriteString("\n\n")
		for _, f := range failures {
			fmt.Fprintf(&sb, "- `%s`: %s", f.Folder, f.Status.Label())
			if f.Reason != "" {
				fmt.Fprintf(&sb, ", %s", f.Reason)
			}
			if f.Status == models.StatusError {
				fmt.Fprintf(&sb, " (exit %d)", f.ExitCode)
			}
			sb.WriteString("\n")
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// Render converts Markdown to HTML. Tables use the GFM syntax.
func Render(w io.Writer, markdown []byte) error {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	var buf bytes.Buffer
	if err := md.Convert(markdown, &buf); err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func duration(run *history.RunRecord) string {
	if !run.Finished {
		return "running"
	}
	return run.Duration().Round(time.Second).String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
