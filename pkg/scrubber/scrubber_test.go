package scrubber

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/smart-sales/dataprep/pkg/model"
)

func TestScrubReportReconciles(t *testing.T) {
	in := tableOf([]string{"id", "name"},
		model.Row{"id": "1", "name": "  Alice  "},
		model.Row{"id": "1", "name": "Alice"},
		model.Row{"id": "2", "name": nil},
		model.Row{"id": "3", "name": "Bob"},
	)

	scr, err := NewScrubber(zap.NewNop())
	require.NoError(t, err)

	out, report, err := scr.Scrub("customers", in, []Step{
		{Rule: NewTrimWhitespace([]string{"name"})},
		{Rule: NewDropNullRows([]string{"name"})},
		{Rule: NewDedupeByKey([]string{"id"})},
	})
	require.NoError(t, err)

	assert.Equal(t, 4, report.RowsIn)
	assert.Equal(t, out.RowCount(), report.RowsOut)
	assert.Equal(t, report.RowsIn-report.RowsDropped(), report.RowsOut)
	assert.Equal(t, "customers", report.Dataset)

	for _, op := range report.Operations {
		assert.Equal(t, "customers", op.Dataset)
		assert.False(t, op.CleanedAt.IsZero())
	}
}

func TestScrubDoesNotMutateInput(t *testing.T) {
	in := tableOf([]string{"name"}, model.Row{"name": "  Alice  "})

	scr, err := NewScrubber(zap.NewNop())
	require.NoError(t, err)

	_, _, err = scr.Scrub("customers", in, []Step{
		{Rule: NewTrimWhitespace(nil)},
	})
	require.NoError(t, err)

	assert.Equal(t, "  Alice  ", in.Rows[0]["name"])
}

func TestScrubWrapsRuleFailure(t *testing.T) {
	in := tableOf([]string{"age"}, model.Row{"age": "old"})

	scr, err := NewScrubber(zap.NewNop())
	require.NoError(t, err)

	_, _, err = scr.Scrub("customers", in, []Step{
		{Rule: NewCoerceType("age", TypeInt)},
	})

	var scrubErr *ScrubError
	require.ErrorAs(t, err, &scrubErr)
	assert.Equal(t, "customers", scrubErr.Dataset)
	assert.Equal(t, "coerce-type", scrubErr.Rule)

	// The underlying coercion failure stays reachable through the chain
	var coercionErr *CoercionError
	assert.True(t, errors.As(err, &coercionErr))
}

func TestScrubSkipOnError(t *testing.T) {
	in := tableOf([]string{"age"},
		model.Row{"age": "old"},
		model.Row{"age": "34"},
	)

	scr, err := NewScrubber(zap.NewNop())
	require.NoError(t, err)

	out, report, err := scr.Scrub("customers", in, []Step{
		{Rule: NewCoerceType("age", TypeInt), SkipOnError: true},
		{Rule: NewTrimWhitespace(nil)},
	})
	require.NoError(t, err)

	// The failed rule leaves the table unchanged and is recorded as skipped
	assert.Equal(t, 2, out.RowCount())
	assert.Equal(t, "old", out.Rows[0]["age"])

	require.Len(t, report.Outcomes, 2)
	assert.True(t, report.Outcomes[0].Skipped)
	assert.NotEmpty(t, report.Outcomes[0].Error)
	assert.False(t, report.Outcomes[1].Skipped)
}

func TestScrubEmptySteps(t *testing.T) {
	in := tableOf([]string{"id"}, model.Row{"id": "1"})

	scr, err := NewScrubber(zap.NewNop())
	require.NoError(t, err)

	out, report, err := scr.Scrub("customers", in, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, out.RowCount())
	assert.Equal(t, report.RowsIn, report.RowsOut)
	assert.Zero(t, report.OperationCount())
}

func TestNewScrubberRequiresLogger(t *testing.T) {
	_, err := NewScrubber(nil)
	assert.Error(t, err)
}
