package paths

import (
	"fmt"
	"strconv"
	"strings"
)

// Depth is the number of directory levels between a folder and the working
// data root. AnyDepth disables depth checks.
type Depth int

const (
	// AnyDepth accepts folders at every depth below the root.
	AnyDepth Depth = -1
	// DepthRoot is the working data root itself.
	DepthRoot Depth = 0
	// DepthCAD folders hold a CAD geometry (CAD.step).
	DepthCAD Depth = 1
	// DepthTetMesh folders hold a tetrahedral mesh, child of a CAD folder.
	DepthTetMesh Depth = 2
	// DepthLabeling folders hold a surface labeling, child of a mesh folder.
	DepthLabeling Depth = 3
	// DepthHexMesh folders hold a hexahedral mesh, child of a labeling folder.
	DepthHexMesh Depth = 4
)

// IsAny reports whether d accepts every depth.
func (d Depth) IsAny() bool {
	return d < 0
}

// Accepts reports whether a folder at depth actual satisfies d.
func (d Depth) Accepts(actual int) bool {
	return d.IsAny() || int(d) == actual
}

// String returns "any" for AnyDepth and the decimal value otherwise.
func (d Depth) String() string {
	if d.IsAny() {
		return "any"
	}
	return strconv.Itoa(int(d))
}

// ParseDepth parses "any" (or an empty string) and non-negative integers.
func ParseDepth(s string) (Depth, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" || s == "any" {
		return AnyDepth, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return AnyDepth, fmt.Errorf("invalid depth %q: must be 'any' or a non-negative integer", s)
	}
	return Depth(n), nil
}
