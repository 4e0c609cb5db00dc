// pkg/pipeline/pipeline.go
package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"go.uber.org/zap"

	"github.com/smart-sales/dataprep/pkg/config"
	"github.com/smart-sales/dataprep/pkg/scrubber"
)

// Runner orchestrates the preparation of every dataset in the pipeline:
// load raw file, scrub, verify, write the cleaned table
type Runner struct {
	cfg          *config.Config
	spec         *config.PipelineSpec
	scrubber     *scrubber.Scrubber
	verifier     *Verifier
	errorHandler *ErrorHandler
	metrics      *RunMetrics
	logger       *zap.Logger
	workerCount  int
	dryRun       bool
}

// NewRunner creates a new pipeline runner
func NewRunner(cfg *config.Config, spec *config.PipelineSpec, logger *zap.Logger) (*Runner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if spec == nil {
		return nil, fmt.Errorf("pipeline spec cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	scr, err := scrubber.NewScrubber(logger)
	if err != nil {
		return nil, err
	}

	workerCount := cfg.WorkerPoolSize
	if workerCount <= 0 {
		workerCount = calculateWorkerCount(len(spec.Datasets))
	}

	return &Runner{
		cfg:          cfg,
		spec:         spec,
		scrubber:     scr,
		verifier:     NewVerifier(logger),
		errorHandler: NewErrorHandler(logger),
		metrics:      NewRunMetrics(logger),
		logger:       logger.Named("pipeline"),
		workerCount:  workerCount,
	}, nil
}

// WithDryRun disables output writes and returns the runner
func (r *Runner) WithDryRun(dryRun bool) *Runner {
	r.dryRun = dryRun
	return r
}

// WithMaxFailures sets the failed-dataset abort threshold and returns
// the runner
func (r *Runner) WithMaxFailures(max int) *Runner {
	r.errorHandler.WithMaxFailures(max)
	return r
}

// Run prepares the selected datasets and returns the run summary. The
// filter restricts the run to a single named dataset when non-empty.
// The returned error is non-nil when any dataset failed.
func (r *Runner) Run(ctx context.Context, filter string) (*RunSummary, error) {
	datasets, err := r.selectDatasets(filter)
	if err != nil {
		return nil, err
	}

	workerCount := r.workerCount
	if workerCount > len(datasets) {
		workerCount = len(datasets)
	}

	r.logger.Info("Starting pipeline run",
		zap.Int("datasets", len(datasets)),
		zap.Int("workers", workerCount),
		zap.Bool("dryRun", r.dryRun))

	summary := NewRunSummary()
	jobs := make(chan DatasetJob, len(datasets))
	results := make(chan DatasetResult, len(datasets))

	// Start workers
	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		worker := NewWorker(i, r.scrubber, r.verifier, r.errorHandler, r.cfg, r.logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker.Start(workerCtx, jobs, results)
		}()
	}

	// Submit every job up front; each dataset runs exactly once
	for _, ds := range datasets {
		job := NewDatasetJob(ds).WithDryRun(r.dryRun)
		select {
		case jobs <- job:
			r.logger.Debug("Submitted job",
				zap.String("dataset", ds.Name),
				zap.String("jobID", job.ID))
		case <-ctx.Done():
			close(jobs)
			return nil, ctx.Err()
		}
	}
	close(jobs)

	// Close the result channel once all workers have finished
	go func() {
		wg.Wait()
		close(results)
	}()

	// Collect results
	for result := range results {
		r.metrics.RecordDatasetResult(result)
		summary.AddResult(result)

		if !result.Success {
			r.errorHandler.RecordDatasetFailure(result.Dataset)
			if r.errorHandler.ShouldAbortRun() {
				r.logger.Error("Aborting run due to failure threshold",
					zap.String("dataset", result.Dataset))
				cancelWorkers()
			}
		}
	}

	summary.Complete()
	r.metrics.Complete()

	r.logger.Info("Pipeline run completed",
		zap.Int("successfulDatasets", summary.SuccessfulDatasets),
		zap.Int("failedDatasets", summary.FailedDatasets),
		zap.Int("totalRowsIn", summary.TotalRowsIn),
		zap.Int("totalRowsOut", summary.TotalRowsOut),
		zap.Duration("duration", summary.Duration))

	if summary.FailedDatasets > 0 {
		return summary, fmt.Errorf("%d of %d datasets failed",
			summary.FailedDatasets, summary.SuccessfulDatasets+summary.FailedDatasets)
	}

	return summary, nil
}

// RunDataset prepares a single dataset outside the worker pool
func (r *Runner) RunDataset(ctx context.Context, name string) (*DatasetResult, error) {
	ds := r.spec.Dataset(name)
	if ds == nil {
		return nil, fmt.Errorf("dataset %q not found in pipeline", name)
	}

	worker := NewWorker(-1, r.scrubber, r.verifier, r.errorHandler, r.cfg, r.logger)
	job := NewDatasetJob(*ds).WithDryRun(r.dryRun)
	result := worker.ProcessJob(ctx, job)

	r.metrics.RecordDatasetResult(result)

	if !result.Success {
		return &result, fmt.Errorf("dataset %q failed", name)
	}
	return &result, nil
}

// GetMetrics returns the run metrics
func (r *Runner) GetMetrics() *RunMetrics {
	return r.metrics
}

// GetErrorSummary returns error counts by category
func (r *Runner) GetErrorSummary() map[ErrorCategory]int {
	return r.errorHandler.GetErrorSummary()
}

// GenerateReport renders the per-dataset summary table
func (r *Runner) GenerateReport() string {
	return r.metrics.GenerateReport()
}

// selectDatasets applies the dataset filter
func (r *Runner) selectDatasets(filter string) ([]config.DatasetSpec, error) {
	if filter == "" {
		return r.spec.Datasets, nil
	}

	ds := r.spec.Dataset(filter)
	if ds == nil {
		return nil, fmt.Errorf("dataset %q not found in pipeline", filter)
	}
	return []config.DatasetSpec{*ds}, nil
}

// calculateWorkerCount bounds the worker pool by dataset count and
// available CPUs. Datasets are independent, but a batch run rarely
// benefits from more than a handful of workers.
func calculateWorkerCount(datasets int) int {
	count := runtime.NumCPU()
	if count > datasets {
		count = datasets
	}
	if count > 4 {
		count = 4
	}
	if count < 1 {
		count = 1
	}
	return count
}
