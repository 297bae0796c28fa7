package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestBanner(t *testing.T) {
	at := time.Date(2024, 5, 1, 9, 12, 44, 0, time.UTC)

	want := "\n" +
		"+-----------------------+\n" +
		"|    naive_labeling     |\n" +
		"|  2024-05-01 09:12:44  |\n" +
		"+-----------------------+\n\n"
	if got := Banner("naive_labeling", at); got != want {
		t.Errorf("Banner() =\n%s\nwant\n%s", got, want)
	}

	long := Banner("a_rather_long_stage_name_here", at)
	lines := strings.Split(strings.TrimSpace(long), "\n")
	for _, line := range lines {
		if len(line) != len(lines[0]) {
			t.Errorf("banner lines have different widths:\n%s", long)
			break
		}
	}
}

func TestWriteBanner(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "logs.txt")
	at := time.Date(2024, 5, 1, 9, 12, 44, 0, time.UTC)

	if err := WriteBanner(logPath, "evolabel", at); err != nil {
		t.Fatalf("WriteBanner() error = %v", err)
	}
	if err := WriteBanner(logPath, "evolabel", at.Add(time.Hour)); err != nil {
		t.Fatalf("WriteBanner() error = %v", err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(string(data), "|       evolabel        |") != 2 {
		t.Errorf("expected two appended banners, got:\n%s", data)
	}
	if !strings.Contains(string(data), "2024-05-01 10:12:44") {
		t.Errorf("second banner missing:\n%s", data)
	}

	if err := WriteBanner(filepath.Join(dir, "missing", "logs.txt"), "evolabel", at); err == nil {
		t.Error("expected error for unwritable log path")
	}
}
