package models

import "time"

// Status is the outcome of one folder in a batch run.
type Status string

// Folder outcome constants
const (
	StatusDone         Status = "done"          // All steps exited with status 0
	StatusError        Status = "error"         // A step exited non-zero
	StatusMissingFiles Status = "missing_files" // Required input files were absent
	StatusCanceled     Status = "canceled"      // The operator refused to overwrite
)

// AllStatuses lists every status in display order.
var AllStatuses = []Status{StatusDone, StatusError, StatusMissingFiles, StatusCanceled}

// Label returns the console status text ("Done", "Missing files", ...).
func (s Status) Label() string {
	switch s {
	case StatusDone:
		return "Done"
	case StatusError:
		return "Error"
	case StatusMissingFiles:
		return "Missing files"
	case StatusCanceled:
		return "Canceled"
	default:
		return string(s)
	}
}

// IsFailure reports whether the status makes the run fail.
// A canceled folder is an operator decision, not a failure.
func (s Status) IsFailure() bool {
	return s == StatusError || s == StatusMissingFiles
}

// FolderOutcome represents the result of processing a single folder
type FolderOutcome struct {
	Folder       string        // Input folder (absolute)
	OutputFolder string        // Folder the stage wrote to (== Folder for in-place stages)
	Status       Status        // done, error, missing_files, canceled
	Step         string        // Failing step name, if any
	Reason       string        // Comment written to the error ledger
	ExitCode     int           // Exit status of the failing step
	Duration     time.Duration // Time spent on the folder
	FinishedAt   time.Time     // Completion timestamp
}

// RunSummary represents the aggregate result of one batch run
type RunSummary struct {
	Run      Run             // Run metadata
	Outcomes []FolderOutcome // One entry per processed folder, in order
}

// Count returns the number of outcomes with the given status.
func (s *RunSummary) Count(status Status) int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

// Failures returns the outcomes whose status is a failure.
func (s *RunSummary) Failures() []FolderOutcome {
	var failed []FolderOutcome
	for _, o := range s.Outcomes {
		if o.Status.IsFailure() {
			failed = append(failed, o)
		}
	}
	return failed
}

// HasFailures reports whether any folder failed.
func (s *RunSummary) HasFailures() bool {
	for _, o := range s.Outcomes {
		if o.Status.IsFailure() {
			return true
		}
	}
	return false
}
