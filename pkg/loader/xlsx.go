// pkg/loader/xlsx.go
package loader

import (
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/smart-sales/dataprep/pkg/model"
)

// XLSXLoader reads the first sheet of an Excel workbook into a table
type XLSXLoader struct {
	sheet  string // Optional explicit sheet name; first sheet when empty
	logger *zap.Logger
}

// NewXLSXLoader creates a workbook loader reading the first sheet
func NewXLSXLoader(logger *zap.Logger) *XLSXLoader {
	return &XLSXLoader{
		logger: logger.Named("xlsx-loader"),
	}
}

// WithSheet sets an explicit sheet name and returns the loader
func (l *XLSXLoader) WithSheet(sheet string) *XLSXLoader {
	l.sheet = sheet
	return l
}

// Format returns the input format this loader handles
func (l *XLSXLoader) Format() string {
	return "xlsx"
}

// Load reads a workbook sheet into a table. Row 1 is the header row.
// Short rows are padded with nil; rows longer than the header are a
// LoadError, same as the CSV contract.
func (l *XLSXLoader) Load(path string) (*model.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Reason: "cannot open workbook", Err: err}
	}
	defer f.Close()

	sheet := l.sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, &LoadError{Path: path, Reason: "cannot read sheet " + sheet, Err: err}
	}
	if len(rows) == 0 {
		return nil, &LoadError{Path: path, Reason: "sheet " + sheet + " is empty"}
	}

	columns := make([]string, len(rows[0]))
	for i, name := range rows[0] {
		columns[i] = strings.TrimSpace(name)
	}

	table := model.NewTable(columns)
	for i, record := range rows[1:] {
		// excelize trims trailing empty cells, so short rows are normal
		if len(record) > len(columns) {
			return nil, &LoadError{
				Path:   path,
				Line:   i + 2,
				Reason: "row column count exceeds header",
			}
		}

		row := make(model.Row, len(columns))
		for j, col := range columns {
			if j < len(record) {
				row[col] = cellValue(record[j])
			}
		}
		table.AppendRow(row)
	}

	l.logger.Info("Loaded raw workbook",
		zap.String("path", path),
		zap.String("sheet", sheet),
		zap.Int("rows", table.RowCount()),
		zap.Int("columns", table.ColumnCount()))

	return table, nil
}
