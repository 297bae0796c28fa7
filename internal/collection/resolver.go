// Package collection expands collection references into validated sets of
// working folders.
//
// A collection reference is either a folder (a single entry) or a manifest: a
// .txt file listing folders and other manifests, one path per line, relative
// to the manifest's own directory. Blank lines and lines starting with '#' are
// ignored, which makes the success/error ledgers written by stage tools valid
// manifests themselves.
package collection

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/harrison/hexpipe/internal/paths"
)

// ManifestExt is the file extension identifying manifests.
const ManifestExt = ".txt"

// Logger receives non-fatal resolution notices.
type Logger interface {
	LogInfo(message string)
}

// Notice is a non-fatal event emitted during resolution. The only notice kind
// is a cyclic include: a manifest that was already expanded is skipped.
type Notice struct {
	// Manifest is the manifest that was included a second time.
	Manifest string
	// IncludedFrom and LineNumber locate the skipped inclusion.
	IncludedFrom string
	LineNumber   int
}

// String formats the notice for console output.
func (n Notice) String() string {
	return fmt.Sprintf("%s has already been opened and will be skipped (included again at line %d of %s)",
		n.Manifest, n.LineNumber, n.IncludedFrom)
}

// Resolution is the outcome of one successful Resolve call.
type Resolution struct {
	Entries EntrySet
	Notices []Notice
}

// Resolver expands collection references against a fixed working data root.
type Resolver struct {
	root   string
	logger Logger
}

// NewResolver creates a Resolver for root. logger may be nil.
func NewResolver(root string, logger Logger) *Resolver {
	return &Resolver{
		root:   paths.Normalize(root),
		logger: logger,
	}
}

// Resolve expands reference with the given root and required depth.
// It is a shorthand for NewResolver(root, nil).Resolve(reference, depth).
func Resolve(reference, root string, depth paths.Depth) (*Resolution, error) {
	return NewResolver(root, nil).Resolve(reference, depth)
}

// IsManifest reports whether path follows the manifest naming convention.
func IsManifest(path string) bool {
	return filepath.Ext(path) == ManifestExt
}

// Root returns the normalized working data root.
func (r *Resolver) Root() string {
	return r.root
}

// Resolve expands reference into the set of folders it designates.
//
// A folder reference resolves to itself after its depth is checked. A manifest
// reference is read line by line; nested manifests are expanded recursively
// and each manifest is expanded at most once per call, so cyclic inclusions
// terminate with a Notice instead of an error.
//
// Any failure aborts the call and returns a *ResolveError; no partial set is
// ever returned.
func (r *Resolver) Resolve(reference string, depth paths.Depth) (*Resolution, error) {
	st := &resolveState{
		Resolver: r,
		depth:    depth,
		entries:  make(EntrySet),
		visited:  make(map[string]bool),
	}

	ref := paths.Normalize(reference)
	if !paths.IsUnder(r.root, ref) {
		return nil, &ResolveError{Kind: KindNotUnderRoot, Path: ref, Root: r.root}
	}

	info, err := os.Stat(ref)
	if err != nil {
		return nil, &ResolveError{Kind: KindNotFound, Path: ref, Root: r.root, Err: unwrapPathError(err)}
	}

	if info.IsDir() {
		// a folder reference is a single entry and never recurses
		if err := st.checkFolder(ref, location{}); err != nil {
			return nil, err
		}
		st.entries.Add(ref)
		return st.result(), nil
	}

	if !IsManifest(ref) {
		return nil, &ResolveError{Kind: KindNotAManifest, Path: ref, Root: r.root}
	}

	st.visited[manifestIdentity(ref)] = true
	if err := st.expand(ref); err != nil {
		return nil, err
	}
	return st.result(), nil
}

// location points at a manifest line; the zero value means a top-level reference.
type location struct {
	manifest string
	line     string
	number   int
}

// resolveState holds the accumulators shared by the recursive expansion of
// one Resolve call.
type resolveState struct {
	*Resolver
	depth   paths.Depth
	entries EntrySet
	visited map[string]bool
	notices []Notice
}

func (st *resolveState) result() *Resolution {
	return &Resolution{Entries: st.entries, Notices: st.notices}
}

// checkFolder validates that folder lies strictly under the root at the
// required depth.
func (st *resolveState) checkFolder(folder string, loc location) error {
	d, err := paths.DepthOf(st.root, folder)
	if err != nil || d == 0 {
		return &ResolveError{
			Kind:       KindNotUnderRoot,
			Path:       folder,
			Root:       st.root,
			Manifest:   loc.manifest,
			Line:       loc.line,
			LineNumber: loc.number,
		}
	}
	if !st.depth.Accepts(d) {
		return &ResolveError{
			Kind:       KindDepthMismatch,
			Path:       folder,
			Root:       st.root,
			Manifest:   loc.manifest,
			Line:       loc.line,
			LineNumber: loc.number,
			Expected:   int(st.depth),
			Actual:     d,
		}
	}
	return nil
}

// expand reads one manifest and folds its lines into the accumulators.
func (st *resolveState) expand(manifest string) error {
	f, err := os.Open(manifest)
	if err != nil {
		return &ResolveError{Kind: KindUnreadableManifest, Path: manifest, Root: st.root, Err: unwrapPathError(err)}
	}
	defer f.Close()

	dir := filepath.Dir(manifest)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		entry := line
		if !filepath.IsAbs(entry) {
			entry = filepath.Join(dir, entry)
		}
		entry = paths.Normalize(entry)
		loc := location{manifest: manifest, line: line, number: lineNumber}

		info, err := os.Stat(entry)
		if err != nil {
			return &ResolveError{
				Kind:       KindInvalidManifestEntry,
				Path:       entry,
				Root:       st.root,
				Manifest:   manifest,
				Line:       line,
				LineNumber: lineNumber,
				Err:        unwrapPathError(err),
			}
		}

		switch {
		case info.IsDir():
			if err := st.checkFolder(entry, loc); err != nil {
				return err
			}
			st.entries.Add(entry)

		case info.Mode().IsRegular() && IsManifest(entry):
			if !paths.IsUnder(st.root, entry) {
				return &ResolveError{
					Kind:       KindNotUnderRoot,
					Path:       entry,
					Root:       st.root,
					Manifest:   manifest,
					Line:       line,
					LineNumber: lineNumber,
				}
			}
			id := manifestIdentity(entry)
			if st.visited[id] {
				st.notify(Notice{Manifest: entry, IncludedFrom: manifest, LineNumber: lineNumber})
				continue
			}
			st.visited[id] = true
			if err := st.expand(entry); err != nil {
				return err
			}

		default:
			return &ResolveError{
				Kind:       KindInvalidManifestEntry,
				Path:       entry,
				Root:       st.root,
				Manifest:   manifest,
				Line:       line,
				LineNumber: lineNumber,
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return &ResolveError{Kind: KindUnreadableManifest, Path: manifest, Root: st.root, Err: err}
	}
	return nil
}

func (st *resolveState) notify(n Notice) {
	st.notices = append(st.notices, n)
	if st.logger != nil {
		st.logger.LogInfo(n.String())
	}
}

// manifestIdentity returns the canonical identity of a manifest: its path with
// symlinks evaluated, or the normalized path when evaluation fails.
func manifestIdentity(path string) string {
	if real, err := filepath.EvalSymlinks(path); err == nil {
		return real
	}
	return path
}

// unwrapPathError drops the *os.PathError wrapper, whose path is already
// carried by ResolveError.
func unwrapPathError(err error) error {
	var pe *os.PathError
	if errors.As(err, &pe) {
		return pe.Err
	}
	return err
}
