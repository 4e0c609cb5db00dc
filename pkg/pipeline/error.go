// pkg/pipeline/error.go
package pipeline

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/smart-sales/dataprep/pkg/loader"
	"github.com/smart-sales/dataprep/pkg/scrubber"
)

// ErrorCategory defines categories of errors during a pipeline run
type ErrorCategory int

const (
	// Error categories with increasing severity
	ErrorCategoryNone ErrorCategory = iota
	ErrorCategoryWarning
	ErrorCategoryCoercion
	ErrorCategoryRule
	ErrorCategoryLoad
	ErrorCategoryVerification
	ErrorCategorySink
	ErrorCategoryDatasetLevel
	ErrorCategoryRunLevel
)

// String returns a string representation of the error category
func (ec ErrorCategory) String() string {
	switch ec {
	case ErrorCategoryNone:
		return "None"
	case ErrorCategoryWarning:
		return "Warning"
	case ErrorCategoryCoercion:
		return "Coercion"
	case ErrorCategoryRule:
		return "Rule"
	case ErrorCategoryLoad:
		return "Load"
	case ErrorCategoryVerification:
		return "Verification"
	case ErrorCategorySink:
		return "Sink"
	case ErrorCategoryDatasetLevel:
		return "DatasetLevel"
	case ErrorCategoryRunLevel:
		return "RunLevel"
	default:
		return fmt.Sprintf("Unknown(%d)", ec)
	}
}

// ErrorRecord represents a single error during a pipeline run
type ErrorRecord struct {
	Category  ErrorCategory
	Dataset   string
	Rule      string
	Error     error
	Message   string // Derived from Error but stored for serialization
	Timestamp time.Time
}

// NewErrorRecord creates a new error record with current timestamp
func NewErrorRecord(err error, category ErrorCategory) ErrorRecord {
	record := ErrorRecord{
		Category:  category,
		Error:     err,
		Timestamp: time.Now(),
	}

	if err != nil {
		record.Message = err.Error()
	}

	return record
}

// WithDataset adds dataset information to the error record
func (r ErrorRecord) WithDataset(dataset string) ErrorRecord {
	r.Dataset = dataset
	return r
}

// WithRule adds rule information to the error record
func (r ErrorRecord) WithRule(rule string) ErrorRecord {
	r.Rule = rule
	return r
}

// Categorize maps a pipeline error to its category based on the typed
// errors the loader and scrubber produce
func Categorize(err error) ErrorCategory {
	var loadErr *loader.LoadError
	if errors.As(err, &loadErr) {
		return ErrorCategoryLoad
	}

	var coerceErr *scrubber.CoercionError
	if errors.As(err, &coerceErr) {
		return ErrorCategoryCoercion
	}

	var scrubErr *scrubber.ScrubError
	if errors.As(err, &scrubErr) {
		return ErrorCategoryRule
	}

	return ErrorCategoryDatasetLevel
}

// ErrorHandler tracks errors across the run and decides when to abort
type ErrorHandler struct {
	mu              sync.Mutex
	logger          *zap.Logger
	errorsByDataset map[string][]ErrorRecord
	errorCounts     map[ErrorCategory]int
	maxFailures     int // Abort the run after this many failed datasets; 0 disables
	failedDatasets  int
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *zap.Logger) *ErrorHandler {
	return &ErrorHandler{
		logger:          logger.Named("error-handler"),
		errorsByDataset: make(map[string][]ErrorRecord),
		errorCounts:     make(map[ErrorCategory]int),
	}
}

// WithMaxFailures sets the failed-dataset abort threshold
func (h *ErrorHandler) WithMaxFailures(max int) *ErrorHandler {
	h.maxFailures = max
	return h
}

// RecordError records an error against its dataset
func (h *ErrorHandler) RecordError(record ErrorRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.errorsByDataset[record.Dataset] = append(h.errorsByDataset[record.Dataset], record)
	h.errorCounts[record.Category]++

	h.logger.Error("Pipeline error recorded",
		zap.String("dataset", record.Dataset),
		zap.String("category", record.Category.String()),
		zap.String("rule", record.Rule),
		zap.String("message", record.Message))
}

// RecordDatasetFailure counts a failed dataset toward the abort threshold
func (h *ErrorHandler) RecordDatasetFailure(dataset string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failedDatasets++
}

// ShouldAbortRun reports whether the run has crossed the failure threshold
func (h *ErrorHandler) ShouldAbortRun() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.maxFailures > 0 && h.failedDatasets >= h.maxFailures
}

// DatasetErrors returns the errors recorded for a dataset
func (h *ErrorHandler) DatasetErrors(dataset string) []ErrorRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.errorsByDataset[dataset]
}

// GetErrorSummary returns error counts by category
func (h *ErrorHandler) GetErrorSummary() map[ErrorCategory]int {
	h.mu.Lock()
	defer h.mu.Unlock()

	summary := make(map[ErrorCategory]int, len(h.errorCounts))
	for category, count := range h.errorCounts {
		summary[category] = count
	}
	return summary
}
