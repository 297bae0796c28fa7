package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/harrison/hexpipe/internal/paths"
)

// ScanOptions configures the folder scanning behavior
type ScanOptions struct {
	// Depth selects folders at exactly this depth below the scanned root.
	// paths.AnyDepth selects every folder.
	Depth paths.Depth
	// Pattern is a regex pattern matched against folder base names
	Pattern string
	// RequireFiles lists file names that must all exist in a matched folder
	RequireFiles []string
	// ExcludeDirs is a list of directory names to skip (with their subtree)
	ExcludeDirs []string
}

// ScanResult contains the results of a folder scan
type ScanResult struct {
	// Folders contains the absolute paths of all matched folders
	Folders []string
	// Errors contains any errors encountered during scanning
	Errors []error
}

// ScanFolders walks dir and returns the folders matching opts.
// The scanned root itself is never part of the result.
func ScanFolders(dir string, opts ScanOptions) (*ScanResult, error) {
	dir = paths.Normalize(dir)

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to access directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", dir)
	}

	result := &ScanResult{
		Folders: make([]string, 0),
		Errors:  make([]error, 0),
	}

	var patternRegex *regexp.Regexp
	if opts.Pattern != "" {
		patternRegex, err = regexp.Compile(opts.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern: %w", err)
		}
	}

	excludeMap := make(map[string]bool)
	for _, name := range opts.ExcludeDirs {
		excludeMap[name] = true
	}

	err = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("error accessing %s: %w", path, err))
			return nil
		}

		if path == dir || !d.IsDir() {
			return nil
		}

		if excludeMap[d.Name()] || strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}

		depth, err := paths.DepthOf(dir, path)
		if err != nil {
			result.Errors = append(result.Errors, err)
			return filepath.SkipDir
		}

		if !opts.Depth.Accepts(depth) {
			if !opts.Depth.IsAny() && depth > int(opts.Depth) {
				return filepath.SkipDir
			}
			return nil
		}

		if patternRegex != nil && !patternRegex.MatchString(d.Name()) {
			return nil
		}

		if len(opts.RequireFiles) > 0 {
			required := make([]string, len(opts.RequireFiles))
			for i, name := range opts.RequireFiles {
				required[i] = filepath.Join(path, name)
			}
			if len(paths.MissingAmong(required)) > 0 {
				return nil
			}
		}

		result.Folders = append(result.Folders, path)

		// nothing below an exact-depth match can match too
		if !opts.Depth.IsAny() {
			return filepath.SkipDir
		}
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	sort.Strings(result.Folders)

	return result, nil
}
