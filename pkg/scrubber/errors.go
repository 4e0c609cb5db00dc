// pkg/scrubber/errors.go
package scrubber

import (
	"fmt"

	"github.com/smart-sales/dataprep/pkg/model"
)

// CoercionError describes a value that could not be converted to the
// declared target type
type CoercionError struct {
	Column     string
	Value      interface{}
	TargetType string
	Err        error
}

// Error implements the error interface
func (e *CoercionError) Error() string {
	return fmt.Sprintf("cannot coerce column %q value %q to %s: %v",
		e.Column, model.CellString(e.Value), e.TargetType, e.Err)
}

// Unwrap returns the underlying conversion error
func (e *CoercionError) Unwrap() error {
	return e.Err
}

// ScrubError wraps the first rule-level failure of a scrub run
type ScrubError struct {
	Dataset string
	Rule    string
	Err     error
}

// Error implements the error interface
func (e *ScrubError) Error() string {
	return fmt.Sprintf("scrub %s: rule %s failed: %v", e.Dataset, e.Rule, e.Err)
}

// Unwrap returns the rule-level error
func (e *ScrubError) Unwrap() error {
	return e.Err
}
