package ledger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestLedger_HeaderWrittenOnceBeforeFirstEntry(t *testing.T) {
	root := t.TempDir()
	l, err := New("naive_labeling", root, true)
	require.NoError(t, err)
	defer l.Close()

	l.SetHeader("naive_labeling", "2024-05-01 09:12:44", "first try")

	// nothing written by SetHeader
	assert.Empty(t, readFile(t, l.SuccessPath()))

	require.NoError(t, l.RecordSuccess(filepath.Join(root, "cad1", "mesh")))
	require.NoError(t, l.RecordSuccess(filepath.Join(root, "cad2", "mesh")))
	require.NoError(t, l.RecordSuccess(filepath.Join(root, "cad3", "mesh")))

	want := "\n# Generated by naive_labeling\n# 2024-05-01 09:12:44\n# first try\ncad1/mesh\ncad2/mesh\ncad3/mesh\n"
	assert.Equal(t, want, readFile(t, l.SuccessPath()))
	assert.Equal(t, 1, strings.Count(readFile(t, l.SuccessPath()), "# Generated by"))

	// the error ledger has no entry, so no header either
	assert.Empty(t, readFile(t, l.ErrorPath()))
}

func TestLedger_CommentOmittedWhenEmpty(t *testing.T) {
	root := t.TempDir()
	l, err := New("evolabel", root, true)
	require.NoError(t, err)
	defer l.Close()

	l.SetHeader("evolabel", "2024-05-01 09:12:44", "")
	require.NoError(t, l.RecordSuccess(filepath.Join(root, "c", "m")))

	assert.Equal(t, "\n# Generated by evolabel\n# 2024-05-01 09:12:44\nc/m\n", readFile(t, l.SuccessPath()))
}

func TestLedger_ErrorCommentsDoNotTriggerHeader(t *testing.T) {
	root := t.TempDir()
	l, err := New("batch_postprocess_20240501_091244", root, true)
	require.NoError(t, err)
	defer l.Close()
	l.SetHeader("postprocess", "2024-05-01 09:12:44", "")

	assert.Equal(t, filepath.Join(root, "batch_postprocess_20240501_091244_errors.txt"), l.ErrorPath())

	require.NoError(t, l.AddErrorComment("missing input files"))
	assert.Equal(t, "# missing input files\n", readFile(t, l.ErrorPath()))

	require.NoError(t, l.RecordError(filepath.Join(root, "a", "b", "c", "d")))
	require.NoError(t, l.AddErrorComment("error during rb_perform_postprocessing call"))
	require.NoError(t, l.RecordError(filepath.Join(root, "a", "b", "c", "e")))

	want := "# missing input files\n" +
		"\n# Generated by postprocess\n# 2024-05-01 09:12:44\n" +
		"a/b/c/d\n" +
		"# error during rb_perform_postprocessing call\n" +
		"a/b/c/e\n"
	assert.Equal(t, want, readFile(t, l.ErrorPath()))
	assert.Empty(t, readFile(t, l.SuccessPath()))
}

func TestLedger_AppendsToExistingFile(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "naive_labeling.txt")
	require.NoError(t, os.WriteFile(path, []byte("\n# Generated by naive_labeling\n# 2024-04-01 08:00:00\nold/entry\n"), 0644))

	l, err := New("naive_labeling", root, true)
	require.NoError(t, err)
	l.SetHeader("naive_labeling", "2024-05-01 09:12:44", "")
	require.NoError(t, l.RecordSuccess(filepath.Join(root, "new", "entry")))
	require.NoError(t, l.Close())

	content := readFile(t, path)
	assert.True(t, strings.HasPrefix(content, "\n# Generated by naive_labeling\n# 2024-04-01 08:00:00\nold/entry\n"))
	assert.True(t, strings.HasSuffix(content, "# 2024-05-01 09:12:44\nnew/entry\n"))
}

func TestLedger_Disabled(t *testing.T) {
	root := t.TempDir()
	l, err := New("naive_labeling", root, false)
	require.NoError(t, err)

	l.SetHeader("naive_labeling", "2024-05-01 09:12:44", "comment")
	for i := 0; i < 5; i++ {
		require.NoError(t, l.RecordSuccess(filepath.Join(root, "cad", "mesh")))
	}
	require.NoError(t, l.RecordError(filepath.Join(root, "cad", "mesh")))
	require.NoError(t, l.AddErrorComment("error during naive_labeling call"))
	require.NoError(t, l.Close())

	assert.False(t, l.Enabled())
	assert.Empty(t, l.SuccessPath())
	assert.Empty(t, l.ErrorPath())

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries, "disabled ledger must not touch the filesystem")
}

func TestLedger_OpenFailure(t *testing.T) {
	_, err := New("naive_labeling", filepath.Join(t.TempDir(), "missing-root"), true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open output collection")
}
