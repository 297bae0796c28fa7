// Package ledger records the outcome of a batch run in two append-only
// manifests under the working data root: <base>.txt lists the folders that
// succeeded and <base>_errors.txt the folders that failed.
//
// Both files use the manifest grammar, so a ledger can be fed back to any
// stage as a collection reference. The header comment block is written lazily,
// right before the first entry of each file, preceded by a blank line.
package ledger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/harrison/hexpipe/internal/filelock"
	"github.com/harrison/hexpipe/internal/paths"
)

// ErrorSuffix is appended to the base name of the error ledger.
const ErrorSuffix = "_errors"

// Ledger is the pair of success/error manifests of one run.
// A disabled Ledger accepts every call and touches no file.
type Ledger struct {
	root    string
	enabled bool
	header  []string
	success *sink
	errors  *sink
}

// sink is one append-only ledger file.
type sink struct {
	path          string
	file          *os.File
	headerWritten bool
}

// New opens <root>/<base>.txt and <root>/<base>_errors.txt in append mode.
// With enabled=false nothing is opened and every write is discarded.
func New(base, root string, enabled bool) (*Ledger, error) {
	root = paths.Normalize(root)
	l := &Ledger{root: root, enabled: enabled}
	if !enabled {
		return l, nil
	}

	var err error
	if l.success, err = openSink(filepath.Join(root, base+".txt")); err != nil {
		return nil, err
	}
	if l.errors, err = openSink(filepath.Join(root, base+ErrorSuffix+".txt")); err != nil {
		l.success.file.Close()
		return nil, err
	}
	return l, nil
}

func openSink(path string) (*sink, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open output collection %s: %w", path, err)
	}
	return &sink{path: path, file: f}, nil
}

// Enabled reports whether entries are written to disk.
func (l *Ledger) Enabled() bool {
	return l.enabled
}

// SuccessPath returns the path of the success ledger, or "" when disabled.
func (l *Ledger) SuccessPath() string {
	if !l.enabled {
		return ""
	}
	return l.success.path
}

// ErrorPath returns the path of the error ledger, or "" when disabled.
func (l *Ledger) ErrorPath() string {
	if !l.enabled {
		return ""
	}
	return l.errors.path
}

// SetHeader sets the comment block written before the first entry of each
// file. It writes nothing by itself. An empty comment is omitted.
func (l *Ledger) SetHeader(stage, timestamp, comment string) {
	l.header = []string{"Generated by " + stage, timestamp}
	if comment != "" {
		l.header = append(l.header, comment)
	}
}

// RecordSuccess appends folder to the success ledger.
func (l *Ledger) RecordSuccess(folder string) error {
	if !l.enabled {
		return nil
	}
	return l.record(l.success, folder)
}

// RecordError appends folder to the error ledger.
func (l *Ledger) RecordError(folder string) error {
	if !l.enabled {
		return nil
	}
	return l.record(l.errors, folder)
}

// AddErrorComment appends "# text" to the error ledger. Comments describe the
// entry that follows and never trigger the header.
func (l *Ledger) AddErrorComment(text string) error {
	if !l.enabled {
		return nil
	}
	return l.errors.append("# " + text + "\n")
}

func (l *Ledger) record(s *sink, folder string) error {
	var sb strings.Builder
	if !s.headerWritten && len(l.header) > 0 {
		sb.WriteString("\n")
		for _, h := range l.header {
			sb.WriteString("# ")
			sb.WriteString(h)
			sb.WriteString("\n")
		}
	}
	sb.WriteString(filepath.ToSlash(paths.Rel(l.root, folder)))
	sb.WriteString("\n")

	if err := s.append(sb.String()); err != nil {
		return err
	}
	s.headerWritten = true
	return nil
}

// append writes text in a single call while holding the file lock.
func (s *sink) append(text string) error {
	return filelock.WithLock(s.path, func() error {
		if _, err := s.file.WriteString(text); err != nil {
			return fmt.Errorf("failed to write to %s: %w", s.path, err)
		}
		return nil
	})
}

// Close closes both files.
func (l *Ledger) Close() error {
	if !l.enabled {
		return nil
	}
	errS := l.success.file.Close()
	errE := l.errors.file.Close()
	if errS != nil {
		return errS
	}
	return errE
}
