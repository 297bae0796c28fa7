package collection

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/hexpipe/internal/paths"
)

func TestCollect(t *testing.T) {
	root := t.TempDir()
	tree(t, root,
		[]string{"cadA/gmsh_0.1", "cadA/netgen_0.1", "cadB/gmsh_0.2", ".hexpipe/cache"},
		map[string][]string{
			"cadA/gmsh_0.1/tetra.mesh": {"x"},
			"cadB/gmsh_0.2/tetra.mesh": {"x"},
		})

	t.Run("every folder at depth", func(t *testing.T) {
		got, err := Collect(root, "", paths.DepthTetMesh)
		require.NoError(t, err)
		assert.Equal(t, 3, got.Len())
	})

	t.Run("glob pattern", func(t *testing.T) {
		got, err := Collect(root, "*/gmsh_*", paths.DepthTetMesh)
		require.NoError(t, err)
		assert.Equal(t, []string{
			filepath.Join(root, "cadA", "gmsh_0.1"),
			filepath.Join(root, "cadB", "gmsh_0.2"),
		}, got.Sorted())
	})

	t.Run("double star with depth filter", func(t *testing.T) {
		got, err := Collect(root, "**", paths.DepthCAD)
		require.NoError(t, err)
		assert.Equal(t, []string{filepath.Join(root, "cadA"), filepath.Join(root, "cadB")}, got.Sorted())
	})

	t.Run("required files", func(t *testing.T) {
		got, err := Collect(root, "cadA/*", paths.DepthTetMesh, "tetra.mesh")
		require.NoError(t, err)
		assert.Equal(t, []string{filepath.Join(root, "cadA", "gmsh_0.1")}, got.Sorted())
	})

	t.Run("invalid pattern", func(t *testing.T) {
		_, err := Collect(root, "cad[", paths.AnyDepth)
		assert.Error(t, err)
	})

	t.Run("absolute pattern", func(t *testing.T) {
		_, err := Collect(root, filepath.Join(root, "*"), paths.AnyDepth)
		assert.Error(t, err)
	})
}

func TestWriteManifest_ResolvesToSameSet(t *testing.T) {
	root := t.TempDir()
	tree(t, root, []string{"cadA/m1", "cadB/m2"}, nil)

	entries := NewEntrySet(filepath.Join(root, "cadA", "m1"), filepath.Join(root, "cadB", "m2"))
	manifest := filepath.Join(root, "lists", "meshes.txt")

	require.NoError(t, WriteManifest(manifest, entries, "Generated by hexpipe collect", "2024-05-01 09:12:44"))

	data, err := os.ReadFile(manifest)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# Generated by hexpipe collect\n# 2024-05-01 09:12:44\n"))
	assert.Contains(t, string(data), "../cadA/m1\n")

	res, err := Resolve(manifest, root, paths.DepthTetMesh)
	require.NoError(t, err)
	assert.Equal(t, entries.Sorted(), res.Entries.Sorted())
}

func TestWriteManifest_RequiresExtension(t *testing.T) {
	err := WriteManifest(filepath.Join(t.TempDir(), "list.csv"), NewEntrySet())
	assert.Error(t, err)
}
