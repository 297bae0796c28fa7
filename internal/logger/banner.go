package logger

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/harrison/hexpipe/internal/models"
)

// bannerWidth is the inner width of the log banner box.
const bannerWidth = 23

// Banner renders the box opening each stage section of a folder's logs.txt:
//
//	+-----------------------+
//	|    naive_labeling     |
//	|  2024-05-01 09:12:44  |
//	+-----------------------+
func Banner(stage string, at time.Time) string {
	width := bannerWidth
	if len(stage)+2 > width {
		width = len(stage) + 2
	}
	rule := "+" + strings.Repeat("-", width) + "+"

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(rule)
	b.WriteString("\n")
	b.WriteString("|" + center(stage, width) + "|\n")
	b.WriteString("|" + center(at.Format(models.PrettyTimeFormat), width) + "|\n")
	b.WriteString(rule)
	b.WriteString("\n\n")
	return b.String()
}

func center(s string, width int) string {
	pad := width - len(s)
	if pad <= 0 {
		return s
	}
	left := pad / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", pad-left)
}

// WriteBanner appends the banner to the log file at path, creating it if
// needed. Failing to open the log is fatal for the run.
func WriteBanner(path, stage string, at time.Time) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(Banner(stage, at)); err != nil {
		return fmt.Errorf("failed to write to %s: %w", path, err)
	}
	return nil
}
