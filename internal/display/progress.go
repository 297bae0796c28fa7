package display

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// ProgressIndicator numbers the items of a multi-folder command
type ProgressIndicator struct {
	writer  io.Writer
	total   int
	current int
	color   bool
}

// NewProgressIndicator creates a new progress indicator
func NewProgressIndicator(w io.Writer, total int) *ProgressIndicator {
	return &ProgressIndicator{
		writer: w,
		total:  total,
		color:  useColor(w),
	}
}

// Start displays the header message
func (p *ProgressIndicator) Start(title string) {
	fmt.Fprintf(p.writer, "%s (%d elements):\n", title, p.total)
}

// Step displays progress for the current item: [N/Total] name (cyan)
func (p *ProgressIndicator) Step(name string) {
	p.current++
	if p.color {
		color.New(color.FgCyan).Fprintf(p.writer, "[%d/%d] %s\n", p.current, p.total, name)
		return
	}
	fmt.Fprintf(p.writer, "[%d/%d] %s\n", p.current, p.total, name)
}

// Current returns the number of items stepped through.
func (p *ProgressIndicator) Current() int {
	return p.current
}
