package display

import (
	"bytes"
	"testing"
)

func TestProgressIndicator(t *testing.T) {
	var buf bytes.Buffer
	pi := NewProgressIndicator(&buf, 3)

	pi.Start("Set of input folders")
	pi.Step("cad1/mesh")
	pi.Step("cad2/mesh")

	want := "Set of input folders (3 elements):\n[1/3] cad1/mesh\n[2/3] cad2/mesh\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
	if pi.Current() != 2 {
		t.Errorf("Current() = %d, want 2", pi.Current())
	}
}
