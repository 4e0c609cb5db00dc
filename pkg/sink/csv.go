// pkg/sink/csv.go
package sink

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/smart-sales/dataprep/pkg/model"
)

// CSVSink writes a cleaned table to a CSV file
type CSVSink struct {
	path   string
	logger *zap.Logger
}

// NewCSVSink creates a sink writing to the given file path
func NewCSVSink(path string, logger *zap.Logger) *CSVSink {
	return &CSVSink{
		path:   path,
		logger: logger.Named("csv-sink"),
	}
}

// Destination describes where the table goes
func (s *CSVSink) Destination() string {
	return s.path
}

// Write writes the table as CSV, creating parent directories as needed.
// Nil cells are written as empty fields.
func (s *CSVSink) Write(_ context.Context, dataset string, table *model.Table) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if err := writer.Write(table.Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	record := make([]string, len(table.Columns))
	for _, row := range table.Rows {
		for i, col := range table.Columns {
			record[i] = model.CellString(row[col])
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}

	s.logger.Info("Wrote cleaned table",
		zap.String("dataset", dataset),
		zap.String("path", s.path),
		zap.Int("rows", table.RowCount()))

	return nil
}

// Close is a no-op for file sinks
func (s *CSVSink) Close() error {
	return nil
}
