package stage

import (
	"fmt"
	"path/filepath"

	"github.com/harrison/hexpipe/internal/paths"
)

// Configuration keys of the external tools.
const (
	ToolSalome          = "salome"
	ToolMeshScripts     = "gmsh_scripts"
	ToolGenomesh        = "genomesh"
	ToolEvocubeTweaks   = "evocube_tweaks"
	ToolFastBndPolycube = "fastbndpolycube"
	ToolRobustPolycube  = "robust_polycube"
)

// Data folder file names.
const (
	StepFile                   = "CAD.step"
	TetraMeshFile              = "tetra.mesh"
	SurfaceObjFile             = "surface.obj"
	SurfaceMapFile             = "surface_map.txt"
	SurfaceLabelingFile        = "surface_labeling.txt"
	TetraLabelingFile          = "tetra_labeling.txt"
	LabelingStatsFile          = "labeling_stats.txt"
	TurningPointsFile          = "turning_points.obj"
	LabeledSurfaceFile         = "labeled_surface.geogram"
	FastPolycubeFile           = "fast_surface_polycube.obj"
	LabeledFastPolycubeFile    = "labeled_fast_surface_polycube.geogram"
	HexMeshFile                = "hex.mesh"
	HexMeshSJFile              = "hex_mesh_with_SJ.geogram"
	TetraRemeshFile            = "tetra_remesh.mesh"
	TetraRemeshLabelingFile    = "tetra_remesh_labeling.txt"
	PolycuboidFile             = "polycuboid.mesh"
	PostprocessedHexMeshFile   = "hex_postprocessed.mesh"
	PostprocessedHexMeshSJFile = "hex_postprocessed_with_SJ.geogram"
)

var (
	gmshScript     = Tool{Key: ToolMeshScripts, Path: "step2mesh_GMSH.py"}
	salomeScript   = Tool{Key: ToolMeshScripts, Path: "step2mesh_SALOME.py"}
	salome         = Tool{Key: ToolSalome, Path: "salome"}
	trisToTets     = Tool{Key: ToolGenomesh, Path: "tris_to_tets"}
	naiveLabeling  = Tool{Key: ToolGenomesh, Path: "naive_labeling"}
	graphcut       = Tool{Key: ToolGenomesh, Path: "graphcut_labeling"}
	population     = Tool{Key: ToolGenomesh, Path: "population"}
	labelingStats  = Tool{Key: ToolGenomesh, Path: "labeling_stats"}
	evolabel       = Tool{Key: ToolEvocubeTweaks, Path: "evolabel"}
	hexEx          = Tool{Key: ToolEvocubeTweaks, Path: "polycube_withHexEx"}
	fastPolycube   = Tool{Key: ToolFastBndPolycube, Path: "fastpolycube"}
	rbDeformation  = Tool{Key: ToolRobustPolycube, Path: "rb_generate_deformation"}
	rbQuantization = Tool{Key: ToolRobustPolycube, Path: "rb_generate_quantization"}
	rbPostprocess  = Tool{Key: ToolRobustPolycube, Path: "rb_perform_postprocessing"}
)

// step is a shorthand for a step named after its executable.
func step(c *StepContext, t Tool, args ...string) Step {
	return Step{Name: t.Path, Executable: c.Exec(t), Args: args}
}

// extractSurfaceStep computes the boundary of a tetrahedral mesh.
func extractSurfaceStep(c *StepContext, folder string) Step {
	return step(c, trisToTets,
		filepath.Join(folder, TetraMeshFile),
		filepath.Join(folder, SurfaceObjFile),
		filepath.Join(folder, SurfaceMapFile))
}

// labelingStatsStep evaluates a surface labeling.
func labelingStatsStep(c *StepContext) Step {
	return step(c, labelingStats,
		c.Out(SurfaceLabelingFile),
		c.In(SurfaceObjFile),
		c.Out(LabelingStatsFile),
		c.Out(TurningPointsFile))
}

var labelingOutputs = []string{
	SurfaceLabelingFile,
	TetraLabelingFile,
	LabelingStatsFile,
	TurningPointsFile,
	InfoFileName,
	LabeledSurfaceFile,
}

// Catalog lists every stage, in pipeline order.
var Catalog = []*Definition{
	{
		Name:        "step2mesh",
		Description: "Tetrahedral meshing of a .step geometry file",
		Depth:       paths.DepthCAD,
		Output:      "%a_%s",
		Params: []Param{
			{Name: "algorithm", Placeholder: "%a", Required: true, Choices: []string{"gmsh", "netgen", "meshgems"},
				Usage: "meshing algorithm: gmsh, netgen or meshgems"},
			{Name: "size", Placeholder: "%s", Required: true,
				Usage: "for gmsh a factor in ]0,1], for netgen and meshgems the max mesh size"},
		},
		Inputs:      []string{StepFile},
		Outputs:     []string{TetraMeshFile, SurfaceObjFile, SurfaceMapFile, InfoFileName},
		Executables: []Tool{gmshScript, salome, salomeScript, trisToTets},
		Steps: func(c *StepContext) ([]Step, error) {
			var mesh Step
			switch algorithm := c.Param("algorithm"); algorithm {
			case "gmsh":
				mesh = step(c, gmshScript, c.In(StepFile), c.Out(TetraMeshFile), c.Param("size"))
			case "netgen", "meshgems":
				mesh = Step{
					Name:       salomeScript.Path,
					Executable: c.Exec(salome),
					Args: []string{"shell", c.Exec(salomeScript), fmt.Sprintf("args:%s,%s,%s,%s",
						c.In(StepFile), c.Out(TetraMeshFile), algorithm, c.Param("size"))},
				}
			default:
				return nil, fmt.Errorf("%w: unknown meshing algorithm %q", ErrInvalidParam, algorithm)
			}
			return []Step{mesh, extractSurfaceStep(c, c.Output)}, nil
		},
	},
	{
		Name:        "extract_surface",
		Description: "Extract the surface triangles of a tetrahedral mesh",
		Depth:       paths.DepthTetMesh,
		Inputs:      []string{TetraMeshFile},
		Outputs:     []string{SurfaceObjFile, SurfaceMapFile},
		Executables: []Tool{trisToTets},
		Steps: func(c *StepContext) ([]Step, error) {
			return []Step{extractSurfaceStep(c, c.Input)}, nil
		},
	},
	{
		Name:        "naive_labeling",
		Description: "Compute a naive labeling based on the per-triangle closest direction",
		Depth:       paths.DepthTetMesh,
		Output:      "naive",
		Inputs:      []string{SurfaceObjFile, SurfaceMapFile},
		Outputs:     labelingOutputs,
		Executables: []Tool{naiveLabeling, labelingStats},
		Steps: func(c *StepContext) ([]Step, error) {
			return []Step{
				step(c, naiveLabeling, c.In(SurfaceMapFile), c.In(SurfaceObjFile),
					c.Out(SurfaceLabelingFile), c.Out(TetraLabelingFile)),
				labelingStatsStep(c),
			}, nil
		},
	},
	{
		Name:        "graphcut_labeling",
		Description: "Compute a labeling with a graph-cut optimization",
		Depth:       paths.DepthTetMesh,
		Output:      "graphcut_%c_%f",
		Params: []Param{
			{Name: "compactness", Placeholder: "%c", Default: "1", Usage: "compactness coefficient of the graph-cut optimization"},
			{Name: "fidelity", Placeholder: "%f", Default: "3", Usage: "fidelity coefficient of the graph-cut optimization"},
		},
		Inputs:      []string{SurfaceObjFile, SurfaceMapFile},
		Outputs:     labelingOutputs,
		Executables: []Tool{graphcut, labelingStats},
		Steps: func(c *StepContext) ([]Step, error) {
			return []Step{
				step(c, graphcut, c.In(SurfaceMapFile), c.In(SurfaceObjFile),
					c.Param("compactness"), c.Param("fidelity"),
					c.Out(SurfaceLabelingFile), c.Out(TetraLabelingFile)),
				labelingStatsStep(c),
			}, nil
		},
	},
	{
		Name:        "evolabel",
		Description: "Apply the Evocube genetic labeling framework",
		Depth:       paths.DepthTetMesh,
		Output:      "evolabel_%d",
		Inputs:      []string{SurfaceObjFile, SurfaceMapFile},
		Outputs: []string{
			"labeling.txt",
			"labeling_init.txt",
			"labeling_on_tets.txt",
			"logs.json",
			"fast_polycube_surf.obj",
			TurningPointsFile,
			SurfaceLabelingFile,
			TetraLabelingFile,
			InfoFileName,
			LabeledSurfaceFile,
		},
		Executables: []Tool{evolabel},
		Renames: []Rename{
			{From: "labeling.txt", To: SurfaceLabelingFile},
			{From: "labeling_on_tets.txt", To: TetraLabelingFile},
		},
		Steps: func(c *StepContext) ([]Step, error) {
			return []Step{step(c, evolabel, c.In(SurfaceObjFile), c.Output)}, nil
		},
	},
	{
		Name:        "population",
		Description: "Compute a labeling with the population-based optimization",
		Depth:       paths.DepthTetMesh,
		Output:      "population",
		Inputs:      []string{SurfaceObjFile, SurfaceMapFile},
		Outputs:     append(append([]string(nil), labelingOutputs...), FastPolycubeFile, LabeledFastPolycubeFile),
		Executables: []Tool{population, labelingStats, fastPolycube},
		Steps: func(c *StepContext) ([]Step, error) {
			return []Step{
				step(c, population, c.In(SurfaceObjFile), c.In(SurfaceMapFile),
					c.Out(SurfaceLabelingFile), c.Out(TetraLabelingFile)),
				labelingStatsStep(c),
				step(c, fastPolycube, c.In(SurfaceObjFile), c.Out(SurfaceLabelingFile), c.Out(FastPolycubeFile)),
			}, nil
		},
	},
	{
		Name:        "fast_surface_polycube",
		Description: "Compute a surface polycube from a labeling",
		Depth:       paths.DepthLabeling,
		Inputs:      []string{"../" + SurfaceObjFile, SurfaceLabelingFile},
		Outputs:     []string{FastPolycubeFile, LabeledFastPolycubeFile},
		Executables: []Tool{fastPolycube},
		Steps: func(c *StepContext) ([]Step, error) {
			return []Step{
				step(c, fastPolycube, c.In("../"+SurfaceObjFile), c.In(SurfaceLabelingFile), c.Out(FastPolycubeFile)),
			}, nil
		},
	},
	{
		Name:        "polycube_withHexEx",
		Description: "Extract a hexahedral mesh from a labeling with libHexEx",
		Depth:       paths.DepthLabeling,
		Output:      "HexEx_%s",
		Params: []Param{
			{Name: "scale", Placeholder: "%s", Default: "1.0", Usage: "scaling factor applied before libHexEx"},
		},
		Inputs:      []string{"../" + TetraMeshFile, TetraLabelingFile},
		Outputs:     []string{HexMeshFile, InfoFileName, HexMeshSJFile},
		Executables: []Tool{hexEx},
		Steps: func(c *StepContext) ([]Step, error) {
			return []Step{
				step(c, hexEx, c.In("../"+TetraMeshFile), c.In(TetraLabelingFile), c.Out(HexMeshFile), c.Param("scale")),
			}, nil
		},
	},
	{
		Name:        "robustPolycube",
		Description: "Generate a hexahedral mesh with the robust polycube method",
		Depth:       paths.DepthLabeling,
		Output:      "robustPolycube_%s",
		Params: []Param{
			{Name: "scaling", Placeholder: "%s", Default: "1.0", Usage: "scaling applied before quantization, lower gives more hexahedra"},
		},
		Inputs:      []string{"../" + TetraMeshFile, TetraLabelingFile},
		Outputs:     []string{HexMeshFile, InfoFileName, HexMeshSJFile},
		Executables: []Tool{rbDeformation, rbQuantization},
		Steps: func(c *StepContext) ([]Step, error) {
			return []Step{
				step(c, rbDeformation, c.In("../"+TetraMeshFile), c.In(TetraLabelingFile),
					c.Out(TetraRemeshFile), c.Out(TetraRemeshLabelingFile), c.Out(PolycuboidFile)),
				step(c, rbQuantization, c.Out(TetraRemeshFile), c.Out(TetraRemeshLabelingFile),
					c.Out(PolycuboidFile), c.Param("scaling"), c.Out(HexMeshFile)),
			}, nil
		},
	},
	{
		Name:        "postprocess",
		Description: "Post-process a hexahedral mesh",
		Depth:       paths.DepthHexMesh,
		Inputs:      []string{HexMeshFile, TetraRemeshFile},
		Outputs:     []string{PostprocessedHexMeshFile, PostprocessedHexMeshSJFile},
		Executables: []Tool{rbPostprocess},
		Steps: func(c *StepContext) ([]Step, error) {
			return []Step{
				step(c, rbPostprocess, c.In(TetraRemeshFile), c.In(HexMeshFile), c.Out(PostprocessedHexMeshFile)),
			}, nil
		},
	},
}

// Lookup returns the stage named name.
func Lookup(name string) (*Definition, bool) {
	for _, d := range Catalog {
		if d.Name == name {
			return d, true
		}
	}
	return nil, false
}
