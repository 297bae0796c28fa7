// Package paths canonicalizes filesystem paths and measures how deep a folder
// sits below the working data root.
//
// Every folder of the shared data tree is identified by its depth relative to
// the root: CAD folders live at depth 1, tetrahedral meshes at depth 2,
// labelings at depth 3 and hex meshes at depth 4. Stage tools declare the
// depth they accept and use DepthOf to check their inputs.
package paths

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotUnderRoot is returned by DepthOf when a path does not lie under the root.
var ErrNotUnderRoot = errors.New("path is not under the working data root")

// Normalize returns the canonical absolute form of path.
// "." and ".." segments and trailing separators are resolved lexically, so the
// path does not need to exist. A leading "~" is replaced by the home directory.
// Normalize is idempotent.
func Normalize(path string) string {
	path = ExpandHome(path)
	abs, err := filepath.Abs(path)
	if err != nil {
		// Abs only fails when the working directory is unavailable
		return filepath.Clean(path)
	}
	return abs
}

// ExpandHome replaces a leading "~" (alone or followed by a separator) with the
// value of the user's home directory. Other paths are returned unchanged.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~"+string(filepath.Separator)) && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	return filepath.Join(home, path[1:])
}

// DepthOf counts the directory levels between root and path.
// The root itself has depth 0. If path is not root or one of its descendants
// (for example the root's parent, or a sibling tree sharing a prefix),
// DepthOf returns ErrNotUnderRoot.
func DepthOf(root, path string) (int, error) {
	root = Normalize(root)
	path = Normalize(path)

	rel, err := filepath.Rel(root, path)
	if err != nil {
		return 0, ErrNotUnderRoot
	}
	if rel == "." {
		return 0, nil
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return 0, ErrNotUnderRoot
	}
	return strings.Count(rel, string(filepath.Separator)) + 1, nil
}

// IsUnder reports whether path is root or lies below it.
func IsUnder(root, path string) bool {
	_, err := DepthOf(root, path)
	return err == nil
}

// Rel returns path relative to root, for display and ledger entries.
// Paths outside root are returned in normalized absolute form.
func Rel(root, path string) string {
	path = Normalize(path)
	if !IsUnder(root, path) {
		return path
	}
	rel, err := filepath.Rel(Normalize(root), path)
	if err != nil {
		return path
	}
	return rel
}

// ExistingAmong returns the files of the list that exist, in list order.
func ExistingAmong(files []string) []string {
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	return existing
}

// MissingAmong returns the files of the list that do not exist, in list order.
func MissingAmong(files []string) []string {
	var missing []string
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			missing = append(missing, f)
		}
	}
	return missing
}
