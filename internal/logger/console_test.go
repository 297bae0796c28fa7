package logger

import (
	"bytes"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/harrison/hexpipe/internal/models"
)

// TestNewConsoleLogger verifies the constructor creates a ConsoleLogger with the provided writer.
func TestNewConsoleLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewConsoleLogger(buf, "DEBUG")

	if logger.writer != buf {
		t.Error("writer not set correctly")
	}
	if logger.Level() != "debug" {
		t.Errorf("expected log level %q, got %q", "debug", logger.Level())
	}
	if logger.colorOutput {
		t.Error("color output must be off for a buffer")
	}

	if NewConsoleLogger(buf, "loud").Level() != "info" {
		t.Error("invalid level should default to info")
	}
}

func TestLevelFiltering(t *testing.T) {
	tests := []struct {
		level    string
		expected []string
	}{
		{"trace", []string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR"}},
		{"debug", []string{"DEBUG", "INFO", "WARN", "ERROR"}},
		{"info", []string{"INFO", "WARN", "ERROR"}},
		{"warn", []string{"WARN", "ERROR"}},
		{"error", []string{"ERROR"}},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := NewConsoleLogger(buf, tt.level)

			logger.LogTrace("t")
			logger.LogDebug("d")
			logger.LogInfo("i")
			logger.LogWarn("w")
			logger.LogError("e")

			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			if len(lines) != len(tt.expected) {
				t.Fatalf("expected %d lines, got %d: %q", len(tt.expected), len(lines), buf.String())
			}
			for i, level := range tt.expected {
				if !strings.Contains(lines[i], "["+level+"]") {
					t.Errorf("line %d = %q, want level %s", i, lines[i], level)
				}
			}
		})
	}
}

func TestTimestampFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	NewConsoleLogger(buf, "info").LogInfo("cad1/mesh has already been opened")

	pattern := regexp.MustCompile(`^\[\d{2}:\d{2}:\d{2}\] \[INFO\] cad1/mesh has already been opened\n$`)
	if !pattern.MatchString(buf.String()) {
		t.Errorf("unexpected format: %q", buf.String())
	}
}

func TestNilWriter(t *testing.T) {
	logger := NewConsoleLogger(nil, "trace")
	logger.LogInfo("ignored")
	logger.LogRunStart(models.Run{Stage: "evolabel"}, 3)
	logger.LogSummary(&models.RunSummary{})
}

func TestConcurrentLogging(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewConsoleLogger(buf, "info")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				logger.LogInfo("message")
			}
		}()
	}
	wg.Wait()

	if got := strings.Count(buf.String(), "[INFO] message\n"); got != 100 {
		t.Errorf("expected 100 complete lines, got %d", got)
	}
}

func TestLogRunStart(t *testing.T) {
	buf := &bytes.Buffer{}
	run := models.Run{ID: "3f1c", Stage: "naive_labeling"}

	NewConsoleLogger(buf, "info").LogRunStart(run, 4)
	if buf.Len() != 0 {
		t.Errorf("run start is a debug message, got %q", buf.String())
	}

	NewConsoleLogger(buf, "debug").LogRunStart(run, 4)
	if !strings.Contains(buf.String(), "Starting naive_labeling on 4 folders (run 3f1c)") {
		t.Errorf("unexpected output: %q", buf.String())
	}
}

func TestLogSummary(t *testing.T) {
	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	summary := &models.RunSummary{
		Run: models.Run{
			Stage:       "postprocess",
			StartedAt:   start,
			FinishedAt:  start.Add(90 * time.Second),
			ErrorLedger: "/data/postprocess_errors.txt",
		},
		Outcomes: []models.FolderOutcome{
			{Folder: "/data/a", Status: models.StatusDone},
			{Folder: "/data/b", Status: models.StatusError},
			{Folder: "/data/c", Status: models.StatusDone},
			{Folder: "/data/d", Status: models.StatusCanceled},
		},
	}

	buf := &bytes.Buffer{}
	NewConsoleLogger(buf, "info").LogSummary(summary)
	out := buf.String()

	for _, want := range []string{
		"=== postprocess summary ===",
		"Folders: 4",
		"Done: 2",
		"Error: 1",
		"Missing files: 0",
		"Canceled: 1",
		"Duration: 1m30s",
		"Failed folders listed in /data/postprocess_errors.txt",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	single := &models.RunSummary{Outcomes: summary.Outcomes[:1]}
	NewConsoleLogger(buf, "info").LogSummary(single)
	if buf.Len() != 0 {
		t.Errorf("single-folder runs print no summary, got %q", buf.String())
	}
}

func TestDurationFormatting(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0s"},
		{5 * time.Second, "5s"},
		{90 * time.Second, "1m30s"},
		{2 * time.Minute, "2m"},
		{2*time.Hour + 15*time.Minute, "2h15m"},
		{time.Hour + time.Second, "1h0m1s"},
		{3 * time.Hour, "3h"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
