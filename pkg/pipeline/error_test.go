package pipeline

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/smart-sales/dataprep/pkg/loader"
	"github.com/smart-sales/dataprep/pkg/scrubber"
)

func TestCategorize(t *testing.T) {
	loadErr := &loader.LoadError{Path: "x.csv", Reason: "boom"}
	coerceErr := &scrubber.CoercionError{Column: "age", TargetType: "int"}
	scrubErr := &scrubber.ScrubError{Dataset: "customers", Rule: "trim-whitespace", Err: errors.New("boom")}

	assert.Equal(t, ErrorCategoryLoad, Categorize(loadErr))
	assert.Equal(t, ErrorCategoryCoercion, Categorize(coerceErr))
	assert.Equal(t, ErrorCategoryRule, Categorize(scrubErr))
	assert.Equal(t, ErrorCategoryDatasetLevel, Categorize(errors.New("anything else")))

	// Wrapped typed errors still categorize
	assert.Equal(t, ErrorCategoryLoad, Categorize(fmt.Errorf("context: %w", loadErr)))

	// A coercion failure inside a scrub failure categorizes as coercion,
	// the more specific of the two
	nested := &scrubber.ScrubError{Dataset: "sales", Rule: "coerce-type", Err: coerceErr}
	assert.Equal(t, ErrorCategoryCoercion, Categorize(nested))
}

func TestErrorHandlerAbortThreshold(t *testing.T) {
	h := NewErrorHandler(zap.NewNop()).WithMaxFailures(2)

	assert.False(t, h.ShouldAbortRun())
	h.RecordDatasetFailure("a")
	assert.False(t, h.ShouldAbortRun())
	h.RecordDatasetFailure("b")
	assert.True(t, h.ShouldAbortRun())
}

func TestErrorHandlerDisabledThreshold(t *testing.T) {
	h := NewErrorHandler(zap.NewNop())

	h.RecordDatasetFailure("a")
	h.RecordDatasetFailure("b")
	assert.False(t, h.ShouldAbortRun())
}

func TestErrorHandlerTracksByDatasetAndCategory(t *testing.T) {
	h := NewErrorHandler(zap.NewNop())

	h.RecordError(NewErrorRecord(errors.New("boom"), ErrorCategoryLoad).WithDataset("customers"))
	h.RecordError(NewErrorRecord(errors.New("bang"), ErrorCategoryCoercion).WithDataset("customers").WithRule("coerce-type"))

	assert.Len(t, h.DatasetErrors("customers"), 2)
	assert.Empty(t, h.DatasetErrors("sales"))

	summary := h.GetErrorSummary()
	assert.Equal(t, 1, summary[ErrorCategoryLoad])
	assert.Equal(t, 1, summary[ErrorCategoryCoercion])
}
