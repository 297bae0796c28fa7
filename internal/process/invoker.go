// Package process runs the external pipeline executables (mesh generators,
// labeling tools, polycube solvers) as structured invocations: an executable,
// an argument list and a working directory, with no shell involved. Output
// goes to an append-mode log file; only the exit status comes back.
package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"
)

// ExitCodeNotStarted is reported when the executable could not be started,
// mirroring the shell's "command not found" status.
const ExitCodeNotStarted = 127

// Invocation describes one external process call.
type Invocation struct {
	// Name identifies the step in messages ("tris_to_tets", "naive_labeling")
	Name string
	// Executable is the path of the program to run
	Executable string
	// Args are passed as-is, without shell interpretation
	Args []string
	// Dir is the working directory ("" = current)
	Dir string
	// LogPath receives stdout and stderr in append mode
	LogPath string
	// Output receives stdout and stderr when LogPath is empty (nil discards)
	Output io.Writer
	// Env is appended to the current environment
	Env []string
}

// CommandLine renders the invocation for display and log files.
func (inv Invocation) CommandLine() string {
	parts := make([]string, 0, len(inv.Args)+1)
	parts = append(parts, quote(inv.Executable))
	for _, a := range inv.Args {
		parts = append(parts, quote(a))
	}
	return strings.Join(parts, " ")
}

func quote(s string) string {
	if s == "" {
		return "''"
	}
	if strings.ContainsAny(s, " \t\n'\"\\$`*?[]{}()<>|&;") {
		return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
	}
	return s
}

// Result is the outcome of a finished invocation.
type Result struct {
	ExitCode int
	Duration time.Duration
	// StartErr is set when the executable could not be started
	StartErr error
}

// Success reports a zero exit status.
func (r *Result) Success() bool {
	return r.ExitCode == 0
}

// Runner runs invocations. The returned error is reserved for failures that
// must abort the whole run (log file unavailable, cancellation); a non-zero
// exit status is a Result, not an error.
type Runner interface {
	Run(ctx context.Context, inv Invocation) (*Result, error)
}

// Invoker is the Runner backed by os/exec.
type Invoker struct{}

// NewInvoker creates an Invoker.
func NewInvoker() *Invoker {
	return &Invoker{}
}

// Run executes inv and blocks until the process exits.
func (i *Invoker) Run(ctx context.Context, inv Invocation) (*Result, error) {
	out := inv.Output
	if out == nil {
		out = io.Discard
	}
	if inv.LogPath != "" {
		logFile, err := os.OpenFile(inv.LogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", inv.LogPath, err)
		}
		defer logFile.Close()
		out = logFile
	}

	fmt.Fprintf(out, "+ %s\n", inv.CommandLine())

	cmd := exec.CommandContext(ctx, inv.Executable, inv.Args...)
	cmd.Dir = inv.Dir
	cmd.Stdout = out
	cmd.Stderr = out
	if len(inv.Env) > 0 {
		cmd.Env = append(os.Environ(), inv.Env...)
	}

	startTime := time.Now()
	err := cmd.Run()
	result := &Result{Duration: time.Since(startTime)}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("%s interrupted: %w", inv.Name, ctxErr)
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = ExitCodeNotStarted
			result.StartErr = err
			fmt.Fprintf(out, "hexpipe: cannot start %s: %v\n", inv.Executable, err)
		}
	}

	return result, nil
}

// ModTime returns the modification time of an executable, used to tell
// builds of the external tools apart.
func ModTime(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}
