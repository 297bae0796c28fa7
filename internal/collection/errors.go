package collection

import (
	"errors"
	"fmt"
	"strings"
)

// Kind identifies why a resolution failed.
type Kind int

const (
	// KindNotUnderRoot: the reference or an entry is outside the working data root.
	KindNotUnderRoot Kind = iota + 1
	// KindNotFound: the reference does not exist.
	KindNotFound
	// KindNotAManifest: the reference is a file without the manifest extension.
	KindNotAManifest
	// KindDepthMismatch: a folder is not at the depth the stage requires.
	KindDepthMismatch
	// KindInvalidManifestEntry: a manifest line names neither a folder nor a manifest.
	KindInvalidManifestEntry
	// KindUnreadableManifest: a manifest exists but cannot be read.
	KindUnreadableManifest
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindNotUnderRoot:
		return "not under root"
	case KindNotFound:
		return "not found"
	case KindNotAManifest:
		return "not a manifest"
	case KindDepthMismatch:
		return "depth mismatch"
	case KindInvalidManifestEntry:
		return "invalid manifest entry"
	case KindUnreadableManifest:
		return "unreadable manifest"
	default:
		return "unknown"
	}
}

// Per-kind sentinels, matched by errors.Is against a *ResolveError.
var (
	ErrNotUnderRoot         = errors.New("not under working data root")
	ErrNotFound             = errors.New("collection reference not found")
	ErrNotAManifest         = errors.New("not a manifest")
	ErrInvalidManifestEntry = errors.New("invalid manifest entry")
)

// Class sentinels, grouping kinds the way callers react to them.
var (
	// ErrStructural groups NotUnderRoot, NotFound and NotAManifest.
	ErrStructural = errors.New("structural error")
	// ErrDepthMismatch is returned when a folder has the wrong depth.
	ErrDepthMismatch = errors.New("depth mismatch")
	// ErrParse groups manifest line errors.
	ErrParse = errors.New("manifest parse error")
	// ErrUnreadable is returned when an existing manifest cannot be read.
	ErrUnreadable = errors.New("unreadable manifest")
)

// ResolveError describes a fatal resolution failure.
// Every ResolveError aborts the whole resolution call.
type ResolveError struct {
	Kind Kind
	// Path is the normalized path the failure is about.
	Path string
	// Manifest is the manifest containing the offending line, if any.
	Manifest string
	// Line is the raw manifest line and LineNumber its 1-based position.
	Line       string
	LineNumber int
	// Root is the working data root the resolution ran against.
	Root string
	// Expected and Actual are set for depth mismatches.
	Expected int
	Actual   int
	// Err is the underlying error (I/O failures).
	Err error
}

// Error implements the error interface for ResolveError.
func (e *ResolveError) Error() string {
	var sb strings.Builder
	switch e.Kind {
	case KindNotUnderRoot:
		if e.Manifest != "" {
			sb.WriteString(fmt.Sprintf("%s (line %d of %s) is not a subfolder of the working data folder %s", e.Line, e.LineNumber, e.Manifest, e.Root))
		} else {
			sb.WriteString(fmt.Sprintf("%s is not a subfolder of the working data folder %s", e.Path, e.Root))
		}
	case KindNotFound:
		sb.WriteString(fmt.Sprintf("%s doesn't exist", e.Path))
	case KindNotAManifest:
		sb.WriteString(fmt.Sprintf("%s is neither a %s file nor a folder", e.Path, ManifestExt))
	case KindDepthMismatch:
		if e.Manifest != "" {
			sb.WriteString(fmt.Sprintf("the depth (%d) of %s (line %d of %s) is invalid", e.Actual, e.Line, e.LineNumber, e.Manifest))
		} else {
			sb.WriteString(fmt.Sprintf("the depth (%d) of %s is invalid", e.Actual, e.Path))
		}
		sb.WriteString(fmt.Sprintf(": input folders of depth %d relative to %s are required", e.Expected, e.Root))
	case KindInvalidManifestEntry:
		sb.WriteString(fmt.Sprintf("%s (line %d of %s) is neither a folder nor a %s manifest", e.Line, e.LineNumber, e.Manifest, ManifestExt))
	case KindUnreadableManifest:
		sb.WriteString(fmt.Sprintf("could not read manifest %s", e.Path))
	default:
		sb.WriteString(fmt.Sprintf("cannot resolve %s", e.Path))
	}
	if e.Err != nil {
		sb.WriteString(fmt.Sprintf(": %v", e.Err))
	}
	return sb.String()
}

// Unwrap returns the underlying error for error wrapping support.
func (e *ResolveError) Unwrap() error {
	return e.Err
}

// Is matches both the per-kind sentinels and the class sentinels.
func (e *ResolveError) Is(target error) bool {
	switch target {
	case ErrNotUnderRoot:
		return e.Kind == KindNotUnderRoot
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrNotAManifest:
		return e.Kind == KindNotAManifest
	case ErrInvalidManifestEntry:
		return e.Kind == KindInvalidManifestEntry
	case ErrStructural:
		return e.Kind == KindNotUnderRoot || e.Kind == KindNotFound || e.Kind == KindNotAManifest
	case ErrDepthMismatch:
		return e.Kind == KindDepthMismatch
	case ErrParse:
		return e.Kind == KindInvalidManifestEntry
	case ErrUnreadable:
		return e.Kind == KindUnreadableManifest
	}
	return false
}
