package display

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/harrison/hexpipe/internal/models"
	"github.com/harrison/hexpipe/internal/paths"
)

// StatusPrinter prints the "<folder>...<Status>" line of each folder.
type StatusPrinter struct {
	out   io.Writer
	root  string
	color bool
	open  string
}

// NewStatusPrinter creates a printer showing folders relative to root.
func NewStatusPrinter(out io.Writer, root string) *StatusPrinter {
	return &StatusPrinter{
		out:   out,
		root:  root,
		color: useColor(out),
	}
}

// useColor reports whether out is a color-capable terminal.
func useColor(out io.Writer) bool {
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	return !color.NoColor && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// Color reports whether the printer writes ANSI colors.
func (s *StatusPrinter) Color() bool {
	return s.color
}

// Rel returns folder relative to the root.
func (s *StatusPrinter) Rel(folder string) string {
	return paths.Rel(s.root, folder)
}

// Begin prints "<rel>..." without a newline.
func (s *StatusPrinter) Begin(folder string) {
	s.open = folder
	fmt.Fprintf(s.out, "%s...", s.Rel(folder))
}

// Resume re-prints the pending "<rel>..." after an interruption such as a
// confirmation prompt.
func (s *StatusPrinter) Resume() {
	if s.open != "" {
		fmt.Fprintf(s.out, "%s...", s.Rel(s.open))
	}
}

// End completes the pending line with the status label.
func (s *StatusPrinter) End(status models.Status) {
	label := status.Label()
	if s.color {
		switch {
		case status == models.StatusDone:
			label = color.New(color.FgGreen).Sprint(label)
		case status.IsFailure():
			label = color.New(color.FgRed).Sprint(label)
		default:
			label = color.New(color.FgYellow).Sprint(label)
		}
	}
	fmt.Fprintln(s.out, label)
	s.open = ""
}

// Newline ends the pending line so that a multi-line message can follow.
func (s *StatusPrinter) Newline() {
	fmt.Fprintln(s.out)
}
