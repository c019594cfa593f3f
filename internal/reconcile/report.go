package reconcile

import (
	"fmt"
	"time"
)

// Outcome is the result of one client's backfill check.
type Outcome string

const (
	// OutcomeNoAction means the ledger already covers the charged total.
	OutcomeNoAction Outcome = "no_backfill_needed"
	// OutcomeBackfilled means a delta transaction was inserted.
	OutcomeBackfilled Outcome = "backfilled"
	// OutcomeDuplicate means the exact delta was already applied by
	// another session (same external_ref); nothing was inserted.
	OutcomeDuplicate Outcome = "duplicate_suppressed"
	// OutcomeError means the insert failed; the client record is untouched.
	OutcomeError Outcome = "error"
)

// Line is one client's entry in the audit trail.
type Line struct {
	ClientID   string  `json:"client_id"`
	ClientName string  `json:"client_name"`
	Charged    float64 `json:"charged"`
	Existing   float64 `json:"existing"`
	Missing    float64 `json:"missing"`
	Outcome    Outcome `json:"outcome"`
	Amount     float64 `json:"amount,omitempty"`
	Err        string  `json:"error,omitempty"`
}

// String renders the line for the repair log panel.
func (l Line) String() string {
	prefix := fmt.Sprintf("%s: charged $%.2f, existing $%.2f, missing $%.2f",
		l.ClientName, l.Charged, l.Existing, l.Missing)

	switch l.Outcome {
	case OutcomeBackfilled:
		return fmt.Sprintf("%s, backfilled $%.2f", prefix, l.Amount)
	case OutcomeDuplicate:
		return fmt.Sprintf("%s, already applied elsewhere", prefix)
	case OutcomeError:
		return fmt.Sprintf("%s, error: %s", prefix, l.Err)
	default:
		return fmt.Sprintf("%s, no backfill needed", prefix)
	}
}

// Report is the outcome of one reconciliation pass.
type Report struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Created    int       `json:"created"`
	Lines      []Line    `json:"lines"`
}

// Render returns the per-client display lines followed by a summary.
func (r *Report) Render() []string {
	out := make([]string, 0, len(r.Lines)+1)
	for _, l := range r.Lines {
		out = append(out, l.String())
	}
	out = append(out, fmt.Sprintf("Done: %d transaction(s) created across %d client(s)",
		r.Created, len(r.Lines)))
	return out
}

// Errored reports whether any client in the pass failed.
func (r *Report) Errored() bool {
	for _, l := range r.Lines {
		if l.Outcome == OutcomeError {
			return true
		}
	}
	return false
}
