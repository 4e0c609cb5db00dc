// pkg/loader/loader.go
package loader

import (
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/smart-sales/dataprep/pkg/model"
)

// Loader reads a raw tabular file into a Table
type Loader interface {
	// Load reads the file at path and returns the parsed table
	Load(path string) (*model.Table, error)

	// Format returns the input format this loader handles
	Format() string
}

// LoadError describes a failure to read or parse a raw input file
type LoadError struct {
	Path   string // File that failed to load
	Line   int    // 1-based line/row number when known, 0 otherwise
	Reason string
	Err    error // Underlying error, if any
}

// Error implements the error interface
func (e *LoadError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("load %s: line %d: %s", e.Path, e.Line, e.Reason)
	}
	return fmt.Sprintf("load %s: %s", e.Path, e.Reason)
}

// Unwrap returns the underlying error
func (e *LoadError) Unwrap() error {
	return e.Err
}

// ForPath returns the loader matching the file extension.
// CSV is the default for unrecognized delimited-text extensions.
func ForPath(path string, logger *zap.Logger) (Loader, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt", ".tsv":
		l := NewCSVLoader(logger)
		if strings.EqualFold(filepath.Ext(path), ".tsv") {
			l = l.WithDelimiter('\t')
		}
		return l, nil
	case ".xlsx":
		return NewXLSXLoader(logger), nil
	default:
		return nil, fmt.Errorf("unsupported input format: %s", filepath.Ext(path))
	}
}
