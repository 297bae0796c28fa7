package models

import "time"

// Run represents one invocation of a stage over a collection
type Run struct {
	ID          string    // UUID of the run
	Stage       string    // Stage name (naive_labeling, postprocess, ...)
	Reference   string    // Collection reference given on the command line
	Root        string    // Working data root
	Comment     string    // Operator comment (-c)
	Ledger      string    // Success ledger path ("" when disabled)
	ErrorLedger string    // Error ledger path ("" when disabled)
	StartedAt   time.Time // Start of the batch loop
	FinishedAt  time.Time // End of the batch loop (zero while running)
}

// Duration returns the wall-clock time of a finished run.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Timestamp formats used in ledgers, log banners and output folder names.
const (
	PrettyTimeFormat   = "2006-01-02 15:04:05"
	FilenameTimeFormat = "20060102_150405"
)
