// Package stage runs one pipeline stage over a set of working folders.
//
// A Definition describes a stage: the depth of the folders it consumes, the
// files it needs and produces, its parameters and the external steps it runs
// per folder. A Batch drives a Definition over resolved folders, asking before
// outputs are overwritten and recording every outcome in the run ledgers and
// the optional run history.
package stage

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/harrison/hexpipe/internal/collection"
	"github.com/harrison/hexpipe/internal/models"
	"github.com/harrison/hexpipe/internal/paths"
	"github.com/harrison/hexpipe/internal/process"
)

// File names shared by several stages.
const (
	LogFileName  = "logs.txt"
	InfoFileName = "info.json"
)

// TimestampPlaceholder is replaced by the run start time in output templates.
const TimestampPlaceholder = "%d"

var (
	// ErrInvalidParam is returned for missing or out-of-range parameter values.
	ErrInvalidParam = errors.New("invalid parameter")
	// ErrInvalidOutputName is returned when an output template expands to
	// something that is not a single folder name.
	ErrInvalidOutputName = errors.New("invalid output folder name")
)

// Param is a stage parameter, exposed as a command-line flag.
type Param struct {
	Name        string
	Placeholder string // e.g. "%c", substituted in output templates
	Default     string
	Usage       string
	Required    bool
	Choices     []string
}

// Tool locates an executable inside a configured tool location.
type Tool struct {
	Key  string // configuration key
	Path string // relative to the configured location
}

// Rename moves a file of the output folder once every step succeeded.
type Rename struct {
	From string
	To   string
}

// Step is one external process call of a stage.
type Step struct {
	Name       string
	Executable string
	Args       []string
}

// StepContext is what a step builder sees of one folder.
type StepContext struct {
	Input  string // input folder
	Output string // output folder (== Input for in-place stages)
	Tools  map[string]string
	Params map[string]string
}

// In returns name inside the input folder. "../" prefixes are allowed.
func (c *StepContext) In(name string) string {
	return filepath.Clean(filepath.Join(c.Input, name))
}

// Out returns name inside the output folder.
func (c *StepContext) Out(name string) string {
	return filepath.Join(c.Output, name)
}

// Exec returns the absolute path of a tool executable.
func (c *StepContext) Exec(t Tool) string {
	return filepath.Join(c.Tools[t.Key], t.Path)
}

// Param returns the value of a parameter.
func (c *StepContext) Param(name string) string {
	return c.Params[name]
}

// Definition describes one stage.
type Definition struct {
	Name        string
	Description string
	Depth       paths.Depth
	// Output is the default output folder template; empty for stages that
	// write into their input folder.
	Output      string
	Params      []Param
	Inputs      []string // relative to the input folder
	Outputs     []string // overwrite-sensitive, relative to the output folder
	Executables []Tool
	Renames     []Rename
	Steps       func(c *StepContext) ([]Step, error)
}

// InPlace reports whether the stage writes into its input folders.
func (d *Definition) InPlace() bool {
	return d.Output == ""
}

// ToolKeys returns the configuration keys the stage needs, sorted.
func (d *Definition) ToolKeys() []string {
	seen := make(map[string]bool)
	var keys []string
	for _, t := range d.Executables {
		if !seen[t.Key] {
			seen[t.Key] = true
			keys = append(keys, t.Key)
		}
	}
	sort.Strings(keys)
	return keys
}

// ResolveParams fills defaults into values and validates the result.
func (d *Definition) ResolveParams(values map[string]string) (map[string]string, error) {
	out := make(map[string]string, len(d.Params))
	for _, p := range d.Params {
		v, ok := values[p.Name]
		if !ok || v == "" {
			v = p.Default
		}
		if v == "" && p.Required {
			return nil, fmt.Errorf("%w: --%s is required", ErrInvalidParam, p.Name)
		}
		if len(p.Choices) > 0 && v != "" && !contains(p.Choices, v) {
			return nil, fmt.Errorf("%w: --%s must be one of %s, got %q",
				ErrInvalidParam, p.Name, strings.Join(p.Choices, ", "), v)
		}
		out[p.Name] = v
	}
	for name := range values {
		if _, ok := out[name]; !ok {
			return nil, fmt.Errorf("%w: unknown parameter %q for %s", ErrInvalidParam, name, d.Name)
		}
	}
	return out, nil
}

// OutputName expands an output folder template: parameter placeholders
// first, then %d with the run timestamp.
func (d *Definition) OutputName(template string, params map[string]string, at time.Time) (string, error) {
	name := template
	for _, p := range d.Params {
		if p.Placeholder != "" {
			name = strings.ReplaceAll(name, p.Placeholder, params[p.Name])
		}
	}
	name = strings.ReplaceAll(name, TimestampPlaceholder, at.Format(models.FilenameTimeFormat))

	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q (from %q)", ErrInvalidOutputName, name, template)
	}
	return name, nil
}

// ToolVersion is the modification time of one stage executable.
type ToolVersion struct {
	Path    string
	ModTime time.Time
	Err     error
}

// ToolVersions stats every executable of the stage.
func (d *Definition) ToolVersions(tools map[string]string) []ToolVersion {
	c := &StepContext{Tools: tools}
	versions := make([]ToolVersion, 0, len(d.Executables))
	for _, t := range d.Executables {
		path := c.Exec(t)
		mt, err := process.ModTime(path)
		versions = append(versions, ToolVersion{Path: path, ModTime: mt, Err: err})
	}
	return versions
}

// LedgerBase returns the base name of the run ledgers: <stem>_<stage>_<time>
// when the reference is a manifest, <stage> for a single folder.
func LedgerBase(stage, reference string, at time.Time) string {
	if collection.IsManifest(reference) {
		stem := strings.TrimSuffix(filepath.Base(reference), collection.ManifestExt)
		return stem + "_" + stage + "_" + at.Format(models.FilenameTimeFormat)
	}
	return stage
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
