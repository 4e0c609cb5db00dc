// pkg/loader/csv.go
package loader

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/smart-sales/dataprep/pkg/model"
)

// CSVLoader reads delimited text files into tables
type CSVLoader struct {
	delimiter rune
	logger    *zap.Logger
}

// NewCSVLoader creates a CSV loader with a comma delimiter
func NewCSVLoader(logger *zap.Logger) *CSVLoader {
	return &CSVLoader{
		delimiter: ',',
		logger:    logger.Named("csv-loader"),
	}
}

// WithDelimiter sets the field delimiter and returns the loader
func (l *CSVLoader) WithDelimiter(delimiter rune) *CSVLoader {
	l.delimiter = delimiter
	return l
}

// Format returns the input format this loader handles
func (l *CSVLoader) Format() string {
	return "csv"
}

// Load reads a delimited text file into a table. The first record is the
// header row and establishes the column set; header names are trimmed.
// Returns a LoadError when the file is missing, unreadable, or a row has
// a column count that differs from the header.
func (l *CSVLoader) Load(path string) (*model.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Reason: "cannot open file", Err: err}
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.Comma = l.delimiter
	// FieldsPerRecord stays at its default so the reader itself enforces
	// the consistent-column-count invariant.

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &LoadError{Path: path, Reason: "file is empty", Err: err}
		}
		return nil, &LoadError{Path: path, Line: 1, Reason: "cannot read header row", Err: err}
	}

	columns := make([]string, len(header))
	for i, name := range header {
		columns[i] = strings.TrimSpace(name)
	}

	table := model.NewTable(columns)
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) && errors.Is(parseErr.Err, csv.ErrFieldCount) {
				return nil, &LoadError{
					Path:   path,
					Line:   line,
					Reason: "row column count does not match header",
					Err:    err,
				}
			}
			return nil, &LoadError{Path: path, Line: line, Reason: "malformed row", Err: err}
		}

		row := make(model.Row, len(columns))
		for i, col := range columns {
			row[col] = cellValue(record[i])
		}
		table.AppendRow(row)
	}

	l.logger.Info("Loaded raw file",
		zap.String("path", path),
		zap.Int("rows", table.RowCount()),
		zap.Int("columns", table.ColumnCount()))

	return table, nil
}

// cellValue maps an empty field to nil so downstream null handling sees
// missing values uniformly. All other fields load verbatim as strings;
// typing is the scrubber's job.
func cellValue(field string) interface{} {
	if field == "" {
		return nil
	}
	return field
}
