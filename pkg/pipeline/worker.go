// pkg/pipeline/worker.go
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/smart-sales/dataprep/pkg/config"
	"github.com/smart-sales/dataprep/pkg/loader"
	"github.com/smart-sales/dataprep/pkg/scrubber"
	"github.com/smart-sales/dataprep/pkg/sink"
)

// WorkerState represents the current state of a worker
type WorkerState string

const (
	WorkerStateIdle      WorkerState = "idle"
	WorkerStateWorking   WorkerState = "working"
	WorkerStateCompleted WorkerState = "completed"
)

// Worker prepares datasets pulled from the job channel. Each dataset's
// table is owned by exactly one worker for the whole load-scrub-write
// sequence.
type Worker struct {
	ID           int
	scrubber     *scrubber.Scrubber
	verifier     *Verifier
	errorHandler *ErrorHandler
	pgConfig     *config.PostgresConfig
	rawDir       string
	preparedDir  string
	logger       *zap.Logger
	state        WorkerState
	currentJob   *DatasetJob
	stateLock    sync.RWMutex
}

// NewWorker creates a new worker
func NewWorker(
	id int,
	scr *scrubber.Scrubber,
	verifier *Verifier,
	errorHandler *ErrorHandler,
	cfg *config.Config,
	logger *zap.Logger,
) *Worker {
	return &Worker{
		ID:           id,
		scrubber:     scr,
		verifier:     verifier,
		errorHandler: errorHandler,
		pgConfig:     cfg.Postgres,
		rawDir:       cfg.RawDir,
		preparedDir:  cfg.PreparedDir,
		logger:       logger.With(zap.Int("workerID", id)),
		state:        WorkerStateIdle,
	}
}

// GetState returns the current state of the worker
func (w *Worker) GetState() WorkerState {
	w.stateLock.RLock()
	defer w.stateLock.RUnlock()
	return w.state
}

func (w *Worker) setState(state WorkerState) {
	w.stateLock.Lock()
	defer w.stateLock.Unlock()
	w.state = state
}

func (w *Worker) setCurrentJob(job *DatasetJob) {
	w.stateLock.Lock()
	defer w.stateLock.Unlock()
	w.currentJob = job
}

// Start begins the worker processing loop
func (w *Worker) Start(ctx context.Context, jobs <-chan DatasetJob, results chan<- DatasetResult) {
	w.logger.Info("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Worker stopping due to context cancellation")
			w.setState(WorkerStateCompleted)
			return

		case job, ok := <-jobs:
			if !ok {
				w.logger.Info("Worker stopping due to closed job channel")
				w.setState(WorkerStateCompleted)
				return
			}

			result := w.ProcessJob(ctx, job)

			select {
			case results <- result:
			case <-ctx.Done():
				w.logger.Warn("Context cancelled while sending result",
					zap.String("dataset", job.Spec.Name))
				w.setState(WorkerStateCompleted)
				return
			}
		}
	}
}

// ProcessJob prepares a single dataset
func (w *Worker) ProcessJob(ctx context.Context, job DatasetJob) DatasetResult {
	w.setCurrentJob(&job)
	w.setState(WorkerStateWorking)
	defer func() {
		w.setCurrentJob(nil)
		w.setState(WorkerStateIdle)
	}()

	result := NewDatasetResult(job, w.ID)

	w.logger.Info("Starting dataset preparation",
		zap.String("dataset", job.Spec.Name),
		zap.String("input", job.Spec.Input),
		zap.Bool("dryRun", job.DryRun))

	success := w.prepareDataset(ctx, job, result)
	result.Complete(success)

	if success {
		w.logger.Info("Dataset preparation completed",
			zap.String("dataset", job.Spec.Name),
			zap.Int("rowsIn", result.RowsIn),
			zap.Int("rowsOut", result.RowsOut),
			zap.Int("cleaningOperations", result.CleaningOperations),
			zap.Duration("duration", result.Duration))
	} else {
		w.logger.Warn("Dataset preparation failed",
			zap.String("dataset", job.Spec.Name),
			zap.Int("errors", len(result.Errors)),
			zap.Duration("duration", result.Duration))
	}

	return *result
}

// prepareDataset executes the load-scrub-verify-write sequence
func (w *Worker) prepareDataset(ctx context.Context, job DatasetJob, result *DatasetResult) bool {
	spec := job.Spec

	// Step 1: Load the raw table
	inputPath := w.resolveInput(spec.Input)
	l, err := loader.ForPath(inputPath, w.logger)
	if err != nil {
		w.recordError(result, err, ErrorCategoryLoad, spec.Name, "")
		return false
	}

	table, err := l.Load(inputPath)
	if err != nil {
		w.recordError(result, err, Categorize(err), spec.Name, "")
		return false
	}
	result.RowsIn = table.RowCount()

	// Step 2: Scrub
	steps, err := BuildSteps(spec.Rules)
	if err != nil {
		w.recordError(result, err, ErrorCategoryRule, spec.Name, "")
		return false
	}

	cleaned, report, err := w.scrubber.Scrub(spec.Name, table, steps)
	if err != nil {
		w.recordError(result, err, Categorize(err), spec.Name, ruleName(err))
		return false
	}

	result.RowsOut = cleaned.RowCount()
	result.RowsDropped = report.RowsDropped()
	result.CleaningOperations = report.OperationCount()
	result.Report = report

	for _, outcome := range report.Outcomes {
		if outcome.Skipped {
			result.AddWarning(fmt.Sprintf("rule %s skipped: %s", outcome.Rule, outcome.Error))
		}
	}

	// Step 3: Verify consistency before handing the table downstream
	verification := w.verifier.Verify(cleaned, report, spec.Rules)
	if !verification.Verified() {
		for _, issue := range verification.IntegrityIssues {
			w.recordError(result,
				fmt.Errorf("%s: %s", issue.IssueType, issue.Description),
				ErrorCategoryVerification, spec.Name, "")
		}
		if !verification.CountsReconcile {
			w.recordError(result,
				fmt.Errorf("row counts do not reconcile: in=%d dropped=%d out=%d",
					verification.RowsIn, verification.RowsDropped, verification.RowsOut),
				ErrorCategoryVerification, spec.Name, "")
		}
		return false
	}

	// Step 4: Write the cleaned table
	if job.DryRun {
		w.logger.Info("Dry run, skipping output write",
			zap.String("dataset", spec.Name))
		return true
	}

	out := spec.Output
	if out.Path != "" {
		out.Path = w.resolveOutput(out.Path)
	}
	dest, err := sink.ForOutput(ctx, out, w.pgConfig, w.logger)
	if err != nil {
		w.recordError(result, err, ErrorCategorySink, spec.Name, "")
		return false
	}
	defer dest.Close()

	if err := dest.Write(ctx, spec.Name, cleaned); err != nil {
		w.recordError(result, err, ErrorCategorySink, spec.Name, "")
		return false
	}

	return true
}

// recordError attaches an error to the result and the run error handler
func (w *Worker) recordError(result *DatasetResult, err error, category ErrorCategory, dataset, rule string) {
	record := NewErrorRecord(err, category).WithDataset(dataset)
	if rule != "" {
		record = record.WithRule(rule)
	}
	result.AddError(record)
	w.errorHandler.RecordError(record)
}

// resolveInput resolves a dataset input path against the raw data dir
func (w *Worker) resolveInput(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(w.rawDir, path)
}

// resolveOutput resolves a file output path against the prepared data dir
func (w *Worker) resolveOutput(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(w.preparedDir, path)
}

// ruleName extracts the failing rule from a ScrubError, if that is what
// the error is
func ruleName(err error) string {
	var scrubErr *scrubber.ScrubError
	if errors.As(err, &scrubErr) {
		return scrubErr.Rule
	}
	return ""
}
