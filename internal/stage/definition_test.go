package stage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputName(t *testing.T) {
	def := testDefinition()
	at := time.Date(2026, 3, 1, 10, 4, 5, 0, time.UTC)

	tests := []struct {
		name     string
		template string
		params   map[string]string
		want     string
		wantErr  bool
	}{
		{name: "placeholder", template: "out_%k", params: map[string]string{"knob": "7"}, want: "out_7"},
		{name: "timestamp", template: "run_%d", want: "run_20260301_100405"},
		{name: "both", template: "%k_%d", params: map[string]string{"knob": "2"}, want: "2_20260301_100405"},
		{name: "literal", template: "plain", want: "plain"},
		{name: "empty", template: "", wantErr: true},
		{name: "empty after expansion", template: "%k", params: map[string]string{"knob": ""}, wantErr: true},
		{name: "separator", template: "a/%k", params: map[string]string{"knob": "1"}, wantErr: true},
		{name: "dotdot", template: "..", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := def.OutputName(tt.template, tt.params, at)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidOutputName)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveParams(t *testing.T) {
	def, ok := Lookup("step2mesh")
	require.True(t, ok)

	_, err := def.ResolveParams(map[string]string{"size": "0.5"})
	assert.ErrorIs(t, err, ErrInvalidParam, "algorithm is required")

	_, err = def.ResolveParams(map[string]string{"algorithm": "tetgen", "size": "0.5"})
	assert.ErrorIs(t, err, ErrInvalidParam)

	got, err := def.ResolveParams(map[string]string{"algorithm": "gmsh", "size": "0.5"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"algorithm": "gmsh", "size": "0.5"}, got)

	graphcut, ok := Lookup("graphcut_labeling")
	require.True(t, ok)
	got, err = graphcut.ResolveParams(map[string]string{"fidelity": "5"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"compactness": "1", "fidelity": "5"}, got)
}

func TestLedgerBase(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 4, 5, 0, time.UTC)
	assert.Equal(t, "meshes_evolabel_20260301_100405", LedgerBase("evolabel", "/data/lists/meshes.txt", at))
	assert.Equal(t, "evolabel", LedgerBase("evolabel", "/data/a/tet", at))
}

func TestToolKeys(t *testing.T) {
	def, ok := Lookup("population")
	require.True(t, ok)
	assert.Equal(t, []string{ToolFastBndPolycube, ToolGenomesh}, def.ToolKeys())
}

func TestToolVersions(t *testing.T) {
	dir := t.TempDir()
	exe := filepath.Join(dir, "label")
	require.NoError(t, os.WriteFile(exe, []byte("#!/bin/sh\n"), 0755))
	stamp := time.Date(2025, 12, 24, 8, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(exe, stamp, stamp))

	versions := testDefinition().ToolVersions(map[string]string{"kit": dir})
	require.Len(t, versions, 2)
	assert.Equal(t, exe, versions[0].Path)
	assert.NoError(t, versions[0].Err)
	assert.True(t, versions[0].ModTime.Equal(stamp))
	assert.Error(t, versions[1].Err, "stats does not exist")
}

func TestStepContextPaths(t *testing.T) {
	c := &StepContext{Input: "/data/a/tet/naive", Output: "/data/a/tet/naive/HexEx_1.0"}
	assert.Equal(t, "/data/a/tet/tetra.mesh", c.In("../tetra.mesh"))
	assert.Equal(t, "/data/a/tet/naive/HexEx_1.0/hex.mesh", c.Out("hex.mesh"))
}
