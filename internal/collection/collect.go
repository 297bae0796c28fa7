package collection

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/harrison/hexpipe/internal/fileutil"
	"github.com/harrison/hexpipe/internal/filelock"
	"github.com/harrison/hexpipe/internal/paths"
)

// Collect builds an EntrySet from the working data tree.
//
// With an empty pattern every folder at depth is collected. Otherwise pattern
// is a doublestar glob relative to root ("*/gmsh_*", "**/naive") and only
// matching folders at depth are kept. Folders missing any of requireFiles are
// skipped. Hidden folders are never collected.
func Collect(root, pattern string, depth paths.Depth, requireFiles ...string) (EntrySet, error) {
	root = paths.Normalize(root)

	if pattern == "" {
		result, err := fileutil.ScanFolders(root, fileutil.ScanOptions{
			Depth:        depth,
			RequireFiles: requireFiles,
		})
		if err != nil {
			return nil, err
		}
		return NewEntrySet(result.Folders...), nil
	}

	if filepath.IsAbs(pattern) {
		return nil, fmt.Errorf("glob pattern %q must be relative to the working data folder", pattern)
	}
	if !doublestar.ValidatePattern(filepath.ToSlash(pattern)) {
		return nil, fmt.Errorf("invalid glob pattern %q", pattern)
	}

	hits, err := doublestar.FilepathGlob(filepath.Join(root, filepath.FromSlash(pattern)))
	if err != nil {
		return nil, fmt.Errorf("failed to expand %q: %w", pattern, err)
	}

	entries := make(EntrySet)
	for _, hit := range hits {
		hit = paths.Normalize(hit)
		d, err := paths.DepthOf(root, hit)
		if err != nil || d == 0 || !depth.Accepts(d) {
			continue
		}
		if isHidden(root, hit) {
			continue
		}
		info, err := os.Stat(hit)
		if err != nil || !info.IsDir() {
			continue
		}
		if len(requireFiles) > 0 {
			required := make([]string, len(requireFiles))
			for i, name := range requireFiles {
				required[i] = filepath.Join(hit, name)
			}
			if len(paths.MissingAmong(required)) > 0 {
				continue
			}
		}
		entries.Add(hit)
	}
	return entries, nil
}

// WriteManifest writes entries to the manifest at path, one folder per line
// relative to the manifest's directory, preceded by header lines written as
// comments. The file is replaced atomically.
func WriteManifest(path string, entries EntrySet, header ...string) error {
	path = paths.Normalize(path)
	if !IsManifest(path) {
		return fmt.Errorf("manifest %s must have the %s extension", path, ManifestExt)
	}

	dir := filepath.Dir(path)
	var sb strings.Builder
	for _, h := range header {
		sb.WriteString("# ")
		sb.WriteString(h)
		sb.WriteString("\n")
	}
	for _, entry := range entries.Sorted() {
		line, err := filepath.Rel(dir, entry)
		if err != nil {
			line = entry
		}
		sb.WriteString(filepath.ToSlash(line))
		sb.WriteString("\n")
	}

	if err := filelock.AtomicWrite(path, []byte(sb.String())); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

func isHidden(root, path string) bool {
	for _, seg := range strings.Split(paths.Rel(root, path), string(filepath.Separator)) {
		if strings.HasPrefix(seg, ".") {
			return true
		}
	}
	return false
}
