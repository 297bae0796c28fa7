package display

import (
	"bytes"
	"strings"
	"testing"
)

func TestDisplayWarning_TitleOnly(t *testing.T) {
	var buf bytes.Buffer
	Warning{Title: "Configuration Missing"}.Display(&buf, false)

	if buf.String() != "Warning: Configuration Missing\n" {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestDisplayWarning_AllFields(t *testing.T) {
	var buf bytes.Buffer
	Warning{
		Title:      "output files already exist",
		Message:    "naive_labeling writes into cad1/mesh/naive",
		Files:      []string{"surface_labeling.txt", "info.json"},
		Suggestion: "answer always_no to skip every labeled folder",
	}.Display(&buf, false)

	output := buf.String()
	for _, want := range []string{
		"Warning: output files already exist\n",
		"    naive_labeling writes into cad1/mesh/naive\n",
		"    Affected files:\n",
		"      1. surface_labeling.txt\n",
		"      2. info.json\n",
		"    Suggestion:\n    answer always_no",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
	if strings.Contains(output, "\x1b[") {
		t.Error("no ANSI codes expected without colorize")
	}
}

func TestOverwriteWarning_SingleFile(t *testing.T) {
	var buf bytes.Buffer
	OverwriteWarning([]string{"cad1/mesh/hex_postprocessed.mesh"}).Display(&buf, false)

	if !strings.Contains(buf.String(), "Affected file:\n      1. cad1/mesh/hex_postprocessed.mesh\n") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}
