// pkg/pipeline/job.go
package pipeline

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/smart-sales/dataprep/pkg/config"
	"github.com/smart-sales/dataprep/pkg/model"
)

// DatasetJob represents one dataset preparation job. Jobs run exactly
// once: this is a one-shot batch tool with no retry semantics.
type DatasetJob struct {
	ID        string             // Unique job identifier
	Spec      config.DatasetSpec // Dataset declaration from the pipeline file
	CreatedAt time.Time          // Job creation timestamp
	DryRun    bool               // Skip the output write
}

// NewDatasetJob creates a new dataset job
func NewDatasetJob(spec config.DatasetSpec) DatasetJob {
	return DatasetJob{
		ID:        uuid.New().String(),
		Spec:      spec,
		CreatedAt: time.Now(),
	}
}

// WithDryRun marks the job as dry-run and returns the modified job
func (j DatasetJob) WithDryRun(dryRun bool) DatasetJob {
	j.DryRun = dryRun
	return j
}

// DatasetResult represents the result of preparing one dataset
type DatasetResult struct {
	JobID              string
	Dataset            string
	Success            bool
	RowsIn             int
	RowsOut            int
	RowsDropped        int
	CleaningOperations int
	Report             *model.Report
	Errors             []ErrorRecord
	Warnings           []string
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
	WorkerID           int
}

// NewDatasetResult initializes a result for a job
func NewDatasetResult(job DatasetJob, workerID int) *DatasetResult {
	return &DatasetResult{
		JobID:     job.ID,
		Dataset:   job.Spec.Name,
		StartTime: time.Now(),
		WorkerID:  workerID,
		Errors:    make([]ErrorRecord, 0),
		Warnings:  make([]string, 0),
	}
}

// Complete marks the result as complete and calculates duration
func (r *DatasetResult) Complete(success bool) {
	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime)
	r.Success = success
}

// AddError adds an error to the result
func (r *DatasetResult) AddError(err ErrorRecord) {
	r.Errors = append(r.Errors, err)
	r.Success = false
}

// AddWarning adds a warning to the result
func (r *DatasetResult) AddWarning(warning string) {
	r.Warnings = append(r.Warnings, warning)
}

// HasErrors checks if any errors occurred
func (r *DatasetResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// RunSummary represents the final summary of a pipeline run
type RunSummary struct {
	Datasets           []string
	SuccessfulDatasets int
	FailedDatasets     int
	TotalRowsIn        int
	TotalRowsOut       int
	TotalRowsDropped   int
	TotalCleaningOps   int
	ErrorCategories    map[ErrorCategory]int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}

// NewRunSummary initializes a new run summary
func NewRunSummary() *RunSummary {
	return &RunSummary{
		Datasets:        make([]string, 0),
		StartTime:       time.Now(),
		ErrorCategories: make(map[ErrorCategory]int),
	}
}

// Complete marks the run as complete and calculates duration
func (s *RunSummary) Complete() {
	s.EndTime = time.Now()
	s.Duration = s.EndTime.Sub(s.StartTime)
}

// AddResult incorporates a dataset result into the summary
func (s *RunSummary) AddResult(result DatasetResult) {
	s.Datasets = append(s.Datasets, result.Dataset)
	if result.Success {
		s.SuccessfulDatasets++
	} else {
		s.FailedDatasets++
	}
	s.TotalRowsIn += result.RowsIn
	s.TotalRowsOut += result.RowsOut
	s.TotalRowsDropped += result.RowsDropped
	s.TotalCleaningOps += result.CleaningOperations
	for _, rec := range result.Errors {
		s.ErrorCategories[rec.Category]++
	}
}

// SuccessRate returns the percentage of datasets successfully prepared
func (s *RunSummary) SuccessRate() float64 {
	total := s.SuccessfulDatasets + s.FailedDatasets
	if total == 0 {
		return 0
	}
	return float64(s.SuccessfulDatasets) / float64(total) * 100
}

// String renders a one-line summary
func (s *RunSummary) String() string {
	return fmt.Sprintf("%d/%d datasets prepared, %d rows in, %d rows out, %d cleaning operations, %s",
		s.SuccessfulDatasets,
		s.SuccessfulDatasets+s.FailedDatasets,
		s.TotalRowsIn,
		s.TotalRowsOut,
		s.TotalCleaningOps,
		s.Duration.Round(time.Millisecond))
}
