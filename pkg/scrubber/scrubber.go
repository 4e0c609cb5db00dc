// pkg/scrubber/scrubber.go
package scrubber

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/smart-sales/dataprep/pkg/model"
)

// Step pairs a rule with its failure handling
type Step struct {
	Rule        Rule
	SkipOnError bool // Record the failure and keep going instead of aborting
}

// Scrubber applies an ordered list of cleaning rules to a table,
// accumulating a report of everything that changed
type Scrubber struct {
	logger *zap.Logger
}

// NewScrubber creates a new Scrubber instance
func NewScrubber(logger *zap.Logger) (*Scrubber, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	return &Scrubber{logger: logger.Named("scrubber")}, nil
}

// Scrub applies the steps in caller order and returns the cleaned table
// plus the cleaning report. The input table is never mutated. A failing
// rule aborts the scrub with a ScrubError unless its step is marked
// skip-on-error, in which case the rule is recorded as skipped and the
// table passes through unchanged.
func (s *Scrubber) Scrub(dataset string, table *model.Table, steps []Step) (*model.Table, *model.Report, error) {
	if table == nil {
		return nil, nil, errors.New("table cannot be nil")
	}

	report := model.NewReport(dataset, table.RowCount())
	current := table

	for _, step := range steps {
		name := step.Rule.Name()
		rowsBefore := current.RowCount()

		next, result, err := step.Rule.Apply(current)
		if err != nil {
			if !step.SkipOnError {
				return nil, nil, &ScrubError{Dataset: dataset, Rule: name, Err: err}
			}

			s.logger.Warn("Rule failed, skipping",
				zap.String("dataset", dataset),
				zap.String("rule", name),
				zap.Error(err))
			report.AddOutcome(model.RuleOutcome{
				Rule:    name,
				Skipped: true,
				Error:   err.Error(),
			})
			continue
		}

		now := time.Now()
		for i := range result.Operations {
			result.Operations[i].Dataset = dataset
			result.Operations[i].CleanedAt = now
		}

		report.AddOutcome(model.RuleOutcome{
			Rule:         name,
			RowsAffected: result.RowsAffected,
			RowsDropped:  result.RowsDropped,
		})
		report.AddOperations(result.Operations)

		s.logger.Debug("Applied rule",
			zap.String("dataset", dataset),
			zap.String("rule", name),
			zap.Int("rowsBefore", rowsBefore),
			zap.Int("rowsAfter", next.RowCount()),
			zap.Int("rowsAffected", result.RowsAffected))

		current = next
	}

	report.Complete(current.RowCount())

	s.logger.Info("Scrub completed",
		zap.String("dataset", dataset),
		zap.Int("rowsIn", report.RowsIn),
		zap.Int("rowsOut", report.RowsOut),
		zap.Int("cleaningOperations", report.OperationCount()),
		zap.Duration("duration", report.Duration()))

	return current, report, nil
}
