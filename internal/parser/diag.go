package parser

import "sync/atomic"

// columnMismatchDisplayLimit caps how many column-count-mismatch diagnostics
// are printed to stderr before they are rate-limited.
const columnMismatchDisplayLimit = 10

// Diagnostics holds the process-wide counters for recoverable row-level
// errors: total analysis errors, how many column-count mismatches have been
// shown, and whether the one-time suppression notice has fired. Counters are
// relaxed atomics; correctness of the pipeline does not depend on their
// exact interleaving, only on the totals being eventually consistent and on
// the suppression notice firing exactly once.
type Diagnostics struct {
	analysisErrors        atomic.Int64
	columnMismatchesShown atomic.Int64
	suppressionAnnounced  atomic.Bool
}

// NewDiagnostics returns a zeroed counter set.
func NewDiagnostics() *Diagnostics {
	return &Diagnostics{}
}

// AnalysisErrors returns the total count of recoverable row-level errors
// observed so far (parse errors plus column-count mismatches).
func (d *Diagnostics) AnalysisErrors() int64 {
	return d.analysisErrors.Load()
}

func (d *Diagnostics) recordAnalysisError() {
	d.analysisErrors.Add(1)
}

// shouldShowColumnMismatch returns whether this mismatch should be printed,
// and whether this call is the one that should also emit the one-time
// suppression notice.
func (d *Diagnostics) shouldShowColumnMismatch() (show bool, announceSuppression bool) {
	shown := d.columnMismatchesShown.Add(1)
	if shown <= columnMismatchDisplayLimit {
		return true, false
	}
	if shown == columnMismatchDisplayLimit+1 {
		return false, d.suppressionAnnounced.CompareAndSwap(false, true)
	}
	return false, false
}
