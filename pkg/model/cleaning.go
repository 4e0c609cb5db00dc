// pkg/model/cleaning.go
package model

import (
	"time"
)

// CleaningOperation represents a single data cleaning operation
type CleaningOperation struct {
	Dataset           string      // Dataset name
	ColumnName        string      // Column that was cleaned ("" for row-level operations)
	OriginalValue     interface{} // Original value (may be nil)
	NewValue          string      // New value after cleaning ("" for removed rows)
	RowIdentifier     string      // Identifies the affected row within the run
	CleaningOperation string      // Type of cleaning performed (e.g., "trim_whitespace")
	CleaningReason    string      // Reason for cleaning (e.g., "leading_trailing_whitespace")
	CleanedAt         time.Time   // When the cleaning occurred
}

// RuleOutcome records what a single rule did during a scrub run.
type RuleOutcome struct {
	Rule         string // Rule name as configured
	RowsAffected int    // Rows modified or removed by the rule
	RowsDropped  int    // Subset of RowsAffected that were removed entirely
	Skipped      bool   // True when the rule failed but was marked skip-on-error
	Error        string // Failure message when Skipped is true
}

// Report accumulates the audit trail of a scrub run: one outcome per rule
// in application order, plus every individual cleaning operation.
type Report struct {
	Dataset    string
	RowsIn     int
	RowsOut    int
	Outcomes   []RuleOutcome
	Operations []CleaningOperation
	StartTime  time.Time
	EndTime    time.Time
}

// NewReport initializes a report for a scrub run over a dataset.
func NewReport(dataset string, rowsIn int) *Report {
	return &Report{
		Dataset:    dataset,
		RowsIn:     rowsIn,
		StartTime:  time.Now(),
		Outcomes:   make([]RuleOutcome, 0),
		Operations: make([]CleaningOperation, 0),
	}
}

// AddOutcome appends a rule outcome in application order.
func (r *Report) AddOutcome(outcome RuleOutcome) {
	r.Outcomes = append(r.Outcomes, outcome)
}

// AddOperations appends cleaning operations to the audit trail.
func (r *Report) AddOperations(ops []CleaningOperation) {
	r.Operations = append(r.Operations, ops...)
}

// Complete stamps the end of the run and the final row count.
func (r *Report) Complete(rowsOut int) {
	r.RowsOut = rowsOut
	r.EndTime = time.Now()
}

// Duration returns how long the scrub run took.
func (r *Report) Duration() time.Duration {
	if r.EndTime.IsZero() {
		return time.Since(r.StartTime)
	}
	return r.EndTime.Sub(r.StartTime)
}

// RowsDropped returns the total rows removed across all rules. For a
// completed report this reconciles with RowsIn-RowsOut.
func (r *Report) RowsDropped() int {
	total := 0
	for _, o := range r.Outcomes {
		total += o.RowsDropped
	}
	return total
}

// OperationCount returns the number of recorded cleaning operations.
func (r *Report) OperationCount() int {
	return len(r.Operations)
}
