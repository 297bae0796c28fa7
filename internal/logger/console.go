// Package logger provides levelled console diagnostics for hexpipe commands
// and the banners written to per-folder log files.
//
// Console output goes to stderr so that stdout only carries the per-folder
// status lines of a batch run.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/harrison/hexpipe/internal/models"
)

// level orders the console verbosities from most to least verbose.
type level int

const (
	levelTrace level = iota
	levelDebug
	levelInfo
	levelWarn
	levelError
)

var levelNames = map[string]level{
	"trace": levelTrace,
	"debug": levelDebug,
	"info":  levelInfo,
	"warn":  levelWarn,
	"error": levelError,
}

// levelTags are the bracketed tags and their terminal colours.
var levelTags = [...]struct {
	tag   string
	style *color.Color
}{
	levelTrace: {"TRACE", color.New(color.FgHiBlack)},
	levelDebug: {"DEBUG", color.New(color.FgCyan)},
	levelInfo:  {"INFO", color.New(color.FgBlue)},
	levelWarn:  {"WARN", color.New(color.FgYellow)},
	levelError: {"ERROR", color.New(color.FgRed)},
}

// ConsoleLogger writes "[HH:MM:SS] [LEVEL] message" lines to a writer.
// It is safe for concurrent use. Tags are coloured when the writer is the
// terminal.
type ConsoleLogger struct {
	writer      io.Writer
	threshold   level
	mutex       sync.Mutex
	colorOutput bool
}

// NewConsoleLogger creates a ConsoleLogger that writes to the provided io.Writer.
// If writer is nil, messages are silently discarded.
// Valid levels: trace, debug, info, warn, error (case-insensitive); anything
// else means info.
func NewConsoleLogger(writer io.Writer, logLevel string) *ConsoleLogger {
	threshold, ok := levelNames[strings.ToLower(strings.TrimSpace(logLevel))]
	if !ok {
		threshold = levelInfo
	}
	return &ConsoleLogger{
		writer:      writer,
		threshold:   threshold,
		colorOutput: isTerminal(writer),
	}
}

// isTerminal checks if the writer is a terminal that supports colors.
func isTerminal(w io.Writer) bool {
	if w == nil {
		return false
	}
	if w == os.Stdout || w == os.Stderr {
		// false when NO_COLOR is set or stdout is not a TTY
		return !color.NoColor
	}
	return false
}

// Level returns the effective log level.
func (cl *ConsoleLogger) Level() string {
	return strings.ToLower(levelTags[cl.threshold].tag)
}

func (cl *ConsoleLogger) enabled(l level) bool {
	return cl.writer != nil && l >= cl.threshold
}

// LogTrace logs a trace-level message (most verbose).
func (cl *ConsoleLogger) LogTrace(message string) { cl.log(levelTrace, message) }

// LogDebug logs a debug-level message.
func (cl *ConsoleLogger) LogDebug(message string) { cl.log(levelDebug, message) }

// LogInfo logs an info-level message.
func (cl *ConsoleLogger) LogInfo(message string) { cl.log(levelInfo, message) }

// LogWarn logs a warning-level message.
func (cl *ConsoleLogger) LogWarn(message string) { cl.log(levelWarn, message) }

// LogError logs an error-level message.
func (cl *ConsoleLogger) LogError(message string) { cl.log(levelError, message) }

func (cl *ConsoleLogger) log(l level, message string) {
	if !cl.enabled(l) {
		return
	}

	tag := levelTags[l].tag
	if cl.colorOutput {
		tag = levelTags[l].style.Sprint(tag)
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()
	fmt.Fprintf(cl.writer, "[%s] [%s] %s\n", timestamp(), tag, message)
}

// LogRunStart logs the start of a batch run at DEBUG level.
// Format: "[HH:MM:SS] Starting <stage> on <n> folders (run <id>)"
func (cl *ConsoleLogger) LogRunStart(run models.Run, folders int) {
	if !cl.enabled(levelDebug) {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	stage := run.Stage
	if cl.colorOutput {
		stage = color.New(color.Bold).Sprint(stage)
	}
	fmt.Fprintf(cl.writer, "[%s] Starting %s on %d folders (run %s)\n", timestamp(), stage, folders, run.ID)
}

// LogSummary logs the run summary at INFO level. Nothing is printed for a
// run over a single folder, whose status line already says everything.
func (cl *ConsoleLogger) LogSummary(summary *models.RunSummary) {
	if !cl.enabled(levelInfo) || len(summary.Outcomes) < 2 {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	var b strings.Builder

	header := "=== " + summary.Run.Stage + " summary ==="
	if cl.colorOutput {
		header = color.New(color.Bold).Sprint(header)
	}
	fmt.Fprintf(&b, "[%s] %s\n", ts, header)
	fmt.Fprintf(&b, "[%s] Folders: %d\n", ts, len(summary.Outcomes))

	for _, status := range models.AllStatuses {
		n := summary.Count(status)
		line := fmt.Sprintf("%s: %d", status.Label(), n)
		if cl.colorOutput && n > 0 {
			switch {
			case status == models.StatusDone:
				line = color.New(color.FgGreen).Sprint(line)
			case status.IsFailure():
				line = color.New(color.FgRed).Sprint(line)
			default:
				line = color.New(color.FgYellow).Sprint(line)
			}
		}
		fmt.Fprintf(&b, "[%s] %s\n", ts, line)
	}
	fmt.Fprintf(&b, "[%s] Duration: %s\n", ts, formatDuration(summary.Run.Duration()))

	if summary.Run.ErrorLedger != "" && summary.HasFailures() {
		fmt.Fprintf(&b, "[%s] Failed folders listed in %s\n", ts, summary.Run.ErrorLedger)
	}

	cl.writer.Write([]byte(b.String()))
}

// timestamp returns the current time formatted as "15:04:05" (HH:MM:SS).
func timestamp() string {
	return time.Now().Format("15:04:05")
}

// formatDuration renders d to the second, dropping zero trailing units:
// "5s", "1m30s", "2m", "2h15m", "3h".
func formatDuration(d time.Duration) string {
	s := d.Truncate(time.Second).String()
	if strings.HasSuffix(s, "m0s") {
		s = s[:len(s)-2]
	}
	if strings.HasSuffix(s, "h0m") {
		s = s[:len(s)-2]
	}
	return s
}

// NoOpLogger discards all log messages.
type NoOpLogger struct{}

// NewNoOpLogger creates a NoOpLogger instance.
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

func (n *NoOpLogger) LogTrace(message string) {}
func (n *NoOpLogger) LogDebug(message string) {}
func (n *NoOpLogger) LogInfo(message string) {}
func (n *NoOpLogger) LogWarn(message string) {}
func (n *NoOpLogger) LogError(message string) {}
func (n *NoOpLogger) LogRunStart(run models.Run, folders int) {}
func (n *NoOpLogger) LogSummary(summary *models.RunSummary) {}
