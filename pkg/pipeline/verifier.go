// pkg/pipeline/verifier.go
package pipeline

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/smart-sales/dataprep/pkg/config"
	"github.com/smart-sales/dataprep/pkg/model"
)

// IntegrityIssue represents a consistency problem found after scrubbing
type IntegrityIssue struct {
	IssueType    string
	Description  string
	ColumnName   string
	AffectedRows int
}

// VerificationReport contains the results of a post-scrub consistency check
type VerificationReport struct {
	Dataset          string
	VerificationTime time.Time
	CountsReconcile  bool
	RowsIn           int
	RowsOut          int
	RowsDropped      int
	IntegrityIssues  []IntegrityIssue
}

// Verified reports whether the check passed with no issues
func (r *VerificationReport) Verified() bool {
	return r.CountsReconcile && len(r.IntegrityIssues) == 0
}

// Verifier checks a cleaned table against its cleaning report: row
// counts must reconcile with the per-rule drop counts, and columns
// covered by drop-null or dedupe rules must show no residual nulls or
// duplicates.
type Verifier struct {
	logger *zap.Logger
}

// NewVerifier creates a new verifier
func NewVerifier(logger *zap.Logger) *Verifier {
	return &Verifier{logger: logger.Named("verifier")}
}

// Verify runs the consistency checks for one dataset
func (v *Verifier) Verify(table *model.Table, report *model.Report, rules []config.RuleSpec) *VerificationReport {
	vr := &VerificationReport{
		Dataset:          report.Dataset,
		VerificationTime: time.Now(),
		RowsIn:           report.RowsIn,
		RowsOut:          report.RowsOut,
		RowsDropped:      report.RowsDropped(),
	}

	vr.CountsReconcile = report.RowsIn-vr.RowsDropped == report.RowsOut
	if !vr.CountsReconcile {
		v.logger.Warn("Row counts do not reconcile",
			zap.String("dataset", report.Dataset),
			zap.Int("rowsIn", report.RowsIn),
			zap.Int("rowsOut", report.RowsOut),
			zap.Int("rowsDropped", vr.RowsDropped))
	}

	for i, rule := range rules {
		if rule.SkipOnError && wasSkipped(report, rule.Name) {
			continue
		}
		later := rules[i+1:]
		switch rule.Name {
		case "drop-null-rows":
			v.checkResidualNulls(table, nullCheckColumns(table, rule.Columns, later), vr)
		case "dedupe-by-key":
			if keysModifiedLater(table, rule.Keys, later) {
				continue
			}
			v.checkResidualDuplicates(table, rule.Keys, vr)
		}
	}

	v.logger.Info("Verification completed",
		zap.String("dataset", report.Dataset),
		zap.Bool("verified", vr.Verified()),
		zap.Int("issues", len(vr.IntegrityIssues)))

	return vr
}

// checkResidualNulls counts null values remaining in the checked columns.
// Cell access goes through the table's canonical column names.
func (v *Verifier) checkResidualNulls(table *model.Table, columns []string, vr *VerificationReport) {
	for _, col := range columns {
		idx := table.ColumnIndex(col)
		if idx < 0 {
			// Column may have been renamed or dropped by a later rule
			continue
		}
		name := table.Columns[idx]
		affected := 0
		for _, row := range table.Rows {
			if model.IsNull(row[name]) {
				affected++
			}
		}
		if affected > 0 {
			vr.IntegrityIssues = append(vr.IntegrityIssues, IntegrityIssue{
				IssueType:    "residual_nulls",
				Description:  fmt.Sprintf("column %q still contains %d null values after drop-null-rows", name, affected),
				ColumnName:   name,
				AffectedRows: affected,
			})
		}
	}
}

// checkResidualDuplicates counts rows whose key combination appears
// more than once
func (v *Verifier) checkResidualDuplicates(table *model.Table, keys []string, vr *VerificationReport) {
	checked := keys
	if len(checked) == 0 {
		checked = table.Columns
	}

	resolved := make([]string, len(checked))
	for i, col := range checked {
		idx := table.ColumnIndex(col)
		if idx < 0 {
			return
		}
		resolved[i] = table.Columns[idx]
	}

	seen := make(map[string]struct{}, len(table.Rows))
	affected := 0
	for _, row := range table.Rows {
		parts := make([]string, len(resolved))
		for i, col := range resolved {
			parts[i] = model.CellString(row[col])
		}
		key := strings.Join(parts, "\x1f")
		if _, dup := seen[key]; dup {
			affected++
			continue
		}
		seen[key] = struct{}{}
	}

	if affected > 0 {
		vr.IntegrityIssues = append(vr.IntegrityIssues, IntegrityIssue{
			IssueType:    "residual_duplicates",
			Description:  fmt.Sprintf("%d duplicate rows remain after dedupe-by-key on (%s)", affected, strings.Join(resolved, ", ")),
			ColumnName:   strings.Join(resolved, ","),
			AffectedRows: affected,
		})
	}
}

// nullCheckColumns returns the columns a drop-null rule can still vouch
// for at the end of the scrub: its configured columns (or every column),
// minus any column a later rule may legitimately null again.
func nullCheckColumns(table *model.Table, columns []string, later []config.RuleSpec) []string {
	checked := columns
	if len(checked) == 0 {
		checked = table.Columns
	}

	kept := make([]string, 0, len(checked))
	for _, col := range checked {
		if laterRuleMayNull(later, col) {
			continue
		}
		kept = append(kept, col)
	}
	return kept
}

// laterRuleMayNull reports whether a later rule can reintroduce nulls
// into the column. parse-dates nulls unparseable values by contract.
func laterRuleMayNull(later []config.RuleSpec, col string) bool {
	for _, r := range later {
		if r.Name == "parse-dates" && sameColumn(r.Column, col) {
			return true
		}
	}
	return false
}

// keysModifiedLater reports whether a later rule rewrites values in any
// dedupe key column. Rewritten keys can merge previously distinct rows,
// so residual duplicates on them are not an integrity failure.
func keysModifiedLater(table *model.Table, keys []string, later []config.RuleSpec) bool {
	checked := keys
	if len(checked) == 0 {
		checked = table.Columns
	}

	for _, col := range checked {
		for _, r := range later {
			if ruleModifiesColumn(r, col) {
				return true
			}
		}
	}
	return false
}

// ruleModifiesColumn reports whether the rule rewrites cell values in the
// column. Row-dropping and column-structure rules do not count: they
// cannot change a surviving row's key values.
func ruleModifiesColumn(r config.RuleSpec, col string) bool {
	switch r.Name {
	case "trim-whitespace", "normalize-case", "fill-missing":
		if len(r.Columns) == 0 {
			return true
		}
		for _, c := range r.Columns {
			if sameColumn(c, col) {
				return true
			}
		}
	case "coerce-type", "parse-dates":
		return sameColumn(r.Column, col)
	}
	return false
}

// sameColumn compares column names the way table lookup does
func sameColumn(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// wasSkipped reports whether the named rule was skipped during the scrub
func wasSkipped(report *model.Report, rule string) bool {
	for _, outcome := range report.Outcomes {
		if outcome.Rule == rule && outcome.Skipped {
			return true
		}
	}
	return false
}
