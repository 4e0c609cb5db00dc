// pkg/pipeline/metrics.go
package pipeline

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-runewidth"
	"go.uber.org/zap"
)

// DatasetMetrics tracks metrics for one dataset
type DatasetMetrics struct {
	Dataset            string
	Success            bool
	RowsIn             int
	RowsOut            int
	RowsDropped        int
	CleaningOperations int
	Duration           time.Duration
}

// RunMetrics tracks metrics for the whole pipeline run
type RunMetrics struct {
	mu               sync.Mutex
	logger           *zap.Logger
	StartTime        time.Time
	EndTime          time.Time
	DatasetMetrics   map[string]*DatasetMetrics
	TotalRowsIn      int
	TotalRowsOut     int
	TotalCleaningOps int
	ErrorCounts      map[ErrorCategory]int
}

// NewRunMetrics creates a new RunMetrics instance
func NewRunMetrics(logger *zap.Logger) *RunMetrics {
	return &RunMetrics{
		StartTime:      time.Now(),
		DatasetMetrics: make(map[string]*DatasetMetrics),
		ErrorCounts:    make(map[ErrorCategory]int),
		logger:         logger.Named("metrics"),
	}
}

// RecordDatasetResult records the outcome of one dataset
func (m *RunMetrics) RecordDatasetResult(result DatasetResult) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.DatasetMetrics[result.Dataset] = &DatasetMetrics{
		Dataset:            result.Dataset,
		Success:            result.Success,
		RowsIn:             result.RowsIn,
		RowsOut:            result.RowsOut,
		RowsDropped:        result.RowsDropped,
		CleaningOperations: result.CleaningOperations,
		Duration:           result.Duration,
	}

	m.TotalRowsIn += result.RowsIn
	m.TotalRowsOut += result.RowsOut
	m.TotalCleaningOps += result.CleaningOperations
	for _, rec := range result.Errors {
		m.ErrorCounts[rec.Category]++
	}
}

// Complete stamps the end of the run
func (m *RunMetrics) Complete() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EndTime = time.Now()
}

// GenerateReport renders a fixed-width per-dataset summary table.
// Column widths are computed with runewidth so non-ASCII dataset names
// stay aligned.
func (m *RunMetrics) GenerateReport() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	header := []string{"DATASET", "STATUS", "ROWS IN", "ROWS OUT", "DROPPED", "CLEANING OPS", "DURATION"}

	names := make([]string, 0, len(m.DatasetMetrics))
	for name := range m.DatasetMetrics {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		dm := m.DatasetMetrics[name]
		status := "ok"
		if !dm.Success {
			status = "FAILED"
		}
		rows = append(rows, []string{
			dm.Dataset,
			status,
			fmt.Sprintf("%d", dm.RowsIn),
			fmt.Sprintf("%d", dm.RowsOut),
			fmt.Sprintf("%d", dm.RowsDropped),
			fmt.Sprintf("%d", dm.CleaningOperations),
			dm.Duration.Round(time.Millisecond).String(),
		})
	}

	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	writeRow := func(cells []string) {
		for i, cell := range cells {
			b.WriteString(runewidth.FillRight(cell, widths[i]))
			if i < len(cells)-1 {
				b.WriteString("  ")
			}
		}
		b.WriteString("\n")
	}

	writeRow(header)
	for i, w := range widths {
		b.WriteString(strings.Repeat("-", w))
		if i < len(widths)-1 {
			b.WriteString("  ")
		}
	}
	b.WriteString("\n")
	for _, row := range rows {
		writeRow(row)
	}

	duration := time.Since(m.StartTime)
	if !m.EndTime.IsZero() {
		duration = m.EndTime.Sub(m.StartTime)
	}
	b.WriteString(fmt.Sprintf("\nTOTAL  rows in: %d  rows out: %d  cleaning ops: %d  duration: %s\n",
		m.TotalRowsIn, m.TotalRowsOut, m.TotalCleaningOps, duration.Round(time.Millisecond)))

	if len(m.ErrorCounts) > 0 {
		b.WriteString("ERRORS ")
		categories := make([]ErrorCategory, 0, len(m.ErrorCounts))
		for category := range m.ErrorCounts {
			categories = append(categories, category)
		}
		sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })
		for _, category := range categories {
			b.WriteString(fmt.Sprintf(" %s=%d", category, m.ErrorCounts[category]))
		}
		b.WriteString("\n")
	}

	return b.String()
}
