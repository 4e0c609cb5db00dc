package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/smart-sales/dataprep/pkg/config"
	"github.com/smart-sales/dataprep/pkg/model"
)

func tableOf(columns []string, rows ...model.Row) *model.Table {
	t := model.NewTable(columns)
	for _, row := range rows {
		t.AppendRow(row)
	}
	return t
}

func completedReport(dataset string, rowsIn, rowsOut int, outcomes ...model.RuleOutcome) *model.Report {
	report := model.NewReport(dataset, rowsIn)
	for _, o := range outcomes {
		report.AddOutcome(o)
	}
	report.Complete(rowsOut)
	return report
}

func TestVerifyCleanRun(t *testing.T) {
	table := tableOf([]string{"id", "name"},
		model.Row{"id": "1", "name": "Alice"},
		model.Row{"id": "2", "name": "Bob"},
	)
	report := completedReport("customers", 3, 2,
		model.RuleOutcome{Rule: "drop-null-rows", RowsAffected: 1, RowsDropped: 1},
	)

	vr := NewVerifier(zap.NewNop()).Verify(table, report, []config.RuleSpec{
		{Name: "drop-null-rows", Columns: []string{"name"}},
	})

	assert.True(t, vr.Verified())
	assert.True(t, vr.CountsReconcile)
	assert.Empty(t, vr.IntegrityIssues)
}

func TestVerifyCountMismatch(t *testing.T) {
	table := tableOf([]string{"id"}, model.Row{"id": "1"})
	// Reported drop count does not explain the missing row
	report := completedReport("customers", 3, 1,
		model.RuleOutcome{Rule: "drop-null-rows", RowsDropped: 1},
	)

	vr := NewVerifier(zap.NewNop()).Verify(table, report, nil)

	assert.False(t, vr.CountsReconcile)
	assert.False(t, vr.Verified())
}

func TestVerifyResidualNulls(t *testing.T) {
	table := tableOf([]string{"id", "name"},
		model.Row{"id": "1", "name": nil},
	)
	report := completedReport("customers", 1, 1)

	vr := NewVerifier(zap.NewNop()).Verify(table, report, []config.RuleSpec{
		{Name: "drop-null-rows", Columns: []string{"name"}},
	})

	require.Len(t, vr.IntegrityIssues, 1)
	assert.Equal(t, "residual_nulls", vr.IntegrityIssues[0].IssueType)
	assert.Equal(t, "name", vr.IntegrityIssues[0].ColumnName)
	assert.Equal(t, 1, vr.IntegrityIssues[0].AffectedRows)
}

func TestVerifyResidualDuplicates(t *testing.T) {
	table := tableOf([]string{"id"},
		model.Row{"id": "1"},
		model.Row{"id": "1"},
	)
	report := completedReport("customers", 2, 2)

	vr := NewVerifier(zap.NewNop()).Verify(table, report, []config.RuleSpec{
		{Name: "dedupe-by-key", Keys: []string{"id"}},
	})

	require.Len(t, vr.IntegrityIssues, 1)
	assert.Equal(t, "residual_duplicates", vr.IntegrityIssues[0].IssueType)
}

func TestVerifySkippedRuleNotChecked(t *testing.T) {
	table := tableOf([]string{"id", "name"},
		model.Row{"id": "1", "name": nil},
	)
	report := completedReport("customers", 1, 1,
		model.RuleOutcome{Rule: "drop-null-rows", Skipped: true, Error: "column missing"},
	)

	vr := NewVerifier(zap.NewNop()).Verify(table, report, []config.RuleSpec{
		{Name: "drop-null-rows", Columns: []string{"name"}, SkipOnError: true},
	})

	assert.True(t, vr.Verified())
}

func TestVerifyAllowsNullsCoercedAfterDropNull(t *testing.T) {
	// parse-dates runs after drop-null-rows and nulls an unparseable
	// date by contract; that null is not an integrity failure
	table := tableOf([]string{"id", "SaleDate"},
		model.Row{"id": "1", "SaleDate": nil},
	)
	report := completedReport("sales", 1, 1,
		model.RuleOutcome{Rule: "drop-null-rows"},
		model.RuleOutcome{Rule: "parse-dates", RowsAffected: 1},
	)

	vr := NewVerifier(zap.NewNop()).Verify(table, report, []config.RuleSpec{
		{Name: "drop-null-rows", Columns: []string{"SaleDate"}},
		{Name: "parse-dates", Column: "SaleDate"},
	})

	assert.True(t, vr.Verified())
}

func TestVerifyStillChecksColumnsUntouchedLater(t *testing.T) {
	// The later parse-dates only covers SaleDate; a residual null in id
	// is still a defect
	table := tableOf([]string{"id", "SaleDate"},
		model.Row{"id": nil, "SaleDate": nil},
	)
	report := completedReport("sales", 1, 1)

	vr := NewVerifier(zap.NewNop()).Verify(table, report, []config.RuleSpec{
		{Name: "drop-null-rows", Columns: []string{"id", "SaleDate"}},
		{Name: "parse-dates", Column: "SaleDate"},
	})

	require.Len(t, vr.IntegrityIssues, 1)
	assert.Equal(t, "id", vr.IntegrityIssues[0].ColumnName)
}

func TestVerifyAllowsDuplicatesWhenKeysRewrittenLater(t *testing.T) {
	// normalize-case after dedupe-by-key can merge previously distinct
	// keys, so residual duplicates on the key are legitimate
	table := tableOf([]string{"code"},
		model.Row{"code": "a"},
		model.Row{"code": "a"},
	)
	report := completedReport("products", 2, 2,
		model.RuleOutcome{Rule: "dedupe-by-key"},
		model.RuleOutcome{Rule: "normalize-case", RowsAffected: 1},
	)

	vr := NewVerifier(zap.NewNop()).Verify(table, report, []config.RuleSpec{
		{Name: "dedupe-by-key", Keys: []string{"code"}},
		{Name: "normalize-case", Columns: []string{"code"}, Mode: "lower"},
	})

	assert.True(t, vr.Verified())
}

func TestVerifyResolvesCaseVariantColumns(t *testing.T) {
	// Configured names are case-variant; cells must still be read
	// through the table's canonical column names
	table := tableOf([]string{"Name"},
		model.Row{"Name": "Alice"},
	)
	report := completedReport("customers", 1, 1)

	vr := NewVerifier(zap.NewNop()).Verify(table, report, []config.RuleSpec{
		{Name: "drop-null-rows", Columns: []string{"NAME"}},
		{Name: "dedupe-by-key", Keys: []string{"name"}},
	})

	assert.True(t, vr.Verified())
}

func TestVerifyIgnoresRenamedColumns(t *testing.T) {
	// The checked column no longer exists because a later rule renamed it
	table := tableOf([]string{"customer_name"},
		model.Row{"customer_name": "Alice"},
	)
	report := completedReport("customers", 1, 1)

	vr := NewVerifier(zap.NewNop()).Verify(table, report, []config.RuleSpec{
		{Name: "drop-null-rows", Columns: []string{"Name"}},
	})

	assert.True(t, vr.Verified())
}
