package stage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/hexpipe/internal/paths"
)

var testTools = map[string]string{
	ToolSalome:          "/opt/salome",
	ToolMeshScripts:     "/opt/scripts",
	ToolGenomesh:        "/opt/genomesh",
	ToolEvocubeTweaks:   "/opt/evocube",
	ToolFastBndPolycube: "/opt/fastbnd",
	ToolRobustPolycube:  "/opt/rb",
}

func buildSteps(t *testing.T, name string, c *StepContext) []Step {
	t.Helper()
	def, ok := Lookup(name)
	require.True(t, ok, "stage %s", name)
	c.Tools = testTools
	steps, err := def.Steps(c)
	require.NoError(t, err)
	return steps
}

func stepNames(steps []Step) []string {
	names := make([]string, len(steps))
	for i, s := range steps {
		names[i] = s.Name
	}
	return names
}

func TestCatalog_Consistency(t *testing.T) {
	seen := map[string]bool{}
	for _, def := range Catalog {
		t.Run(def.Name, func(t *testing.T) {
			assert.False(t, seen[def.Name], "duplicate stage")
			seen[def.Name] = true
			assert.NotEmpty(t, def.Description)
			assert.NotNil(t, def.Steps)
			assert.NotEmpty(t, def.Executables)
			assert.False(t, def.Depth.IsAny())
			for _, p := range def.Params {
				if p.Placeholder != "" && !def.InPlace() {
					assert.Contains(t, def.Output, p.Placeholder, "placeholder of --%s unused", p.Name)
				}
			}
		})
	}
	assert.Len(t, Catalog, 10)
}

func TestCatalog_Depths(t *testing.T) {
	tests := map[string]paths.Depth{
		"step2mesh":             paths.DepthCAD,
		"extract_surface":       paths.DepthTetMesh,
		"naive_labeling":        paths.DepthTetMesh,
		"graphcut_labeling":     paths.DepthTetMesh,
		"evolabel":              paths.DepthTetMesh,
		"population":            paths.DepthTetMesh,
		"fast_surface_polycube": paths.DepthLabeling,
		"polycube_withHexEx":    paths.DepthLabeling,
		"robustPolycube":        paths.DepthLabeling,
		"postprocess":           paths.DepthHexMesh,
	}
	for name, depth := range tests {
		def, ok := Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, depth, def.Depth, name)
	}
	_, ok := Lookup("nope")
	assert.False(t, ok)
}

func TestStep2Mesh_Steps(t *testing.T) {
	c := &StepContext{Input: "/data/part", Output: "/data/part/gmsh_0.5",
		Params: map[string]string{"algorithm": "gmsh", "size": "0.5"}}
	steps := buildSteps(t, "step2mesh", c)
	require.Len(t, steps, 2)
	assert.Equal(t, "/opt/scripts/step2mesh_GMSH.py", steps[0].Executable)
	assert.Equal(t, []string{"/data/part/CAD.step", "/data/part/gmsh_0.5/tetra.mesh", "0.5"}, steps[0].Args)
	assert.Equal(t, "/opt/genomesh/tris_to_tets", steps[1].Executable)
	assert.Equal(t, []string{
		"/data/part/gmsh_0.5/tetra.mesh",
		"/data/part/gmsh_0.5/surface.obj",
		"/data/part/gmsh_0.5/surface_map.txt",
	}, steps[1].Args)

	c.Params = map[string]string{"algorithm": "netgen", "size": "2.5"}
	steps = buildSteps(t, "step2mesh", c)
	assert.Equal(t, "/opt/salome/salome", steps[0].Executable)
	assert.Equal(t, []string{
		"shell",
		"/opt/scripts/step2mesh_SALOME.py",
		"args:/data/part/CAD.step,/data/part/gmsh_0.5/tetra.mesh,netgen,2.5",
	}, steps[0].Args)

	def, _ := Lookup("step2mesh")
	c.Params = map[string]string{"algorithm": "delaunay"}
	_, err := def.Steps(c)
	assert.ErrorIs(t, err, ErrInvalidParam)
}

func TestLabelingStages_Steps(t *testing.T) {
	c := &StepContext{Input: "/data/p/tet", Output: "/data/p/tet/graphcut_1_3",
		Params: map[string]string{"compactness": "1", "fidelity": "3"}}
	steps := buildSteps(t, "graphcut_labeling", c)
	assert.Equal(t, []string{"graphcut_labeling", "labeling_stats"}, stepNames(steps))
	assert.Equal(t, []string{
		"/data/p/tet/surface_map.txt", "/data/p/tet/surface.obj", "1", "3",
		"/data/p/tet/graphcut_1_3/surface_labeling.txt", "/data/p/tet/graphcut_1_3/tetra_labeling.txt",
	}, steps[0].Args)
	assert.Equal(t, "/data/p/tet/graphcut_1_3/turning_points.obj", steps[1].Args[3])

	c.Output = "/data/p/tet/population"
	steps = buildSteps(t, "population", c)
	assert.Equal(t, []string{"population", "labeling_stats", "fastpolycube"}, stepNames(steps))

	c.Output = "/data/p/tet/evolabel_x"
	steps = buildSteps(t, "evolabel", c)
	assert.Equal(t, []string{"/data/p/tet/surface.obj", "/data/p/tet/evolabel_x"}, steps[0].Args)
}

func TestPolycubeStages_Steps(t *testing.T) {
	c := &StepContext{Input: "/data/p/tet/naive", Output: "/data/p/tet/naive/robustPolycube_1.0",
		Params: map[string]string{"scaling": "1.0"}}
	steps := buildSteps(t, "robustPolycube", c)
	require.Len(t, steps, 2)
	assert.Equal(t, "/data/p/tet/tetra.mesh", steps[0].Args[0])
	assert.Equal(t, "/opt/rb/rb_generate_quantization", steps[1].Executable)
	assert.Equal(t, "1.0", steps[1].Args[3])

	c.Output = c.Input
	steps = buildSteps(t, "fast_surface_polycube", c)
	assert.Equal(t, []string{
		"/data/p/tet/surface.obj",
		"/data/p/tet/naive/surface_labeling.txt",
		"/data/p/tet/naive/fast_surface_polycube.obj",
	}, steps[0].Args)

	hex := &StepContext{Input: "/data/p/tet/naive/hex", Output: "/data/p/tet/naive/hex"}
	steps = buildSteps(t, "postprocess", hex)
	assert.Equal(t, "/opt/rb/rb_perform_postprocessing", steps[0].Executable)
	assert.Equal(t, "/data/p/tet/naive/hex/hex_postprocessed.mesh", steps[0].Args[2])
}
