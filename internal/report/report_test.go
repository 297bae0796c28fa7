package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/hexpipe/internal/history"
	"github.com/harrison/hexpipe/internal/models"
)

func sampleRuns() []RunReport {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return []RunReport{
		{
			Run: &history.RunRecord{
				Run: models.Run{
					ID:         "1234567890abcdef",
					Stage:      "evolabel",
					Reference:  "/data/set.txt",
					Comment:    "retry",
					StartedAt:  start,
					FinishedAt: start.Add(90 * time.Second),
				},
				Finished: true,
			},
			Outcomes: []models.FolderOutcome{
				{Folder: "/data/a/tet", Status: models.StatusDone},
				{Folder: "/data/b/tet", Status: models.StatusError, Reason: "error during evolabel call", ExitCode: 2},
				{Folder: "/data/c/tet", Status: models.StatusMissingFiles, Reason: "missing input files"},
			},
		},
		{
			Run: &history.RunRecord{
				Run: models.Run{ID: "abc", Stage: "postprocess", StartedAt: start},
			},
			Outcomes: []models.FolderOutcome{
				{Folder: "/data/a/tet/lab/hex", Status: models.StatusCanceled},
			},
		},
	}
}

func TestBuild(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Build(&buf, "Run report", sampleRuns()))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "# Run report\n"))
	assert.Contains(t, out, "| `12345678` | evolabel |")
	assert.Contains(t, out, "| 1m30s | 3 | 1 | 1 | 1 | 0 |")
	assert.Contains(t, out, "| running | 1 | 0 | 0 | 0 | 1 |")
	assert.Contains(t, out, "## evolabel `12345678`")
	assert.Contains(t, out, "Input: `/data/set.txt` (retry)")
	assert.Contains(t, out, "- `/data/b/tet`: Error, error during evolabel call (exit 2)")
	assert.Contains(t, out, "- `/data/c/tet`: Missing files, missing input files\n")
	// canceled folders are not failures
	assert.NotContains(t, out, "## postprocess")
}

func TestBuild_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Build(&buf, "Run report", nil))
	assert.Equal(t, "# Run report\n\nNo runs recorded.\n", buf.String())
}

func TestRender(t *testing.T) {
	var md bytes.Buffer
	require.NoError(t, Build(&md, "Run report", sampleRuns()))

	var html bytes.Buffer
	require.NoError(t, Render(&html, md.Bytes()))
	out := html.String()

	assert.Contains(t, out, "<h1>Run report</h1>")
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "<th>Stage</th>")
	assert.Contains(t, out, "<code>12345678</code>")
	assert.Contains(t, out, "<li><code>/data/b/tet</code>")
}
