// pkg/pipeline/rules.go
package pipeline

import (
	"fmt"

	"github.com/smart-sales/dataprep/pkg/config"
	"github.com/smart-sales/dataprep/pkg/scrubber"
)

// BuildSteps converts the pipeline file's rule declarations into
// scrubber steps, in declaration order.
func BuildSteps(specs []config.RuleSpec) ([]scrubber.Step, error) {
	steps := make([]scrubber.Step, 0, len(specs))
	for i, spec := range specs {
		rule, err := buildRule(spec)
		if err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i, spec.Name, err)
		}
		steps = append(steps, scrubber.Step{
			Rule:        rule,
			SkipOnError: spec.SkipOnError,
		})
	}
	return steps, nil
}

func buildRule(spec config.RuleSpec) (scrubber.Rule, error) {
	switch spec.Name {
	case "drop-null-rows":
		return scrubber.NewDropNullRows(spec.Columns), nil

	case "trim-whitespace":
		return scrubber.NewTrimWhitespace(spec.Columns), nil

	case "normalize-case":
		mode := scrubber.CaseMode(spec.Mode)
		if mode != scrubber.CaseUpper && mode != scrubber.CaseLower {
			return nil, fmt.Errorf("mode must be %q or %q, got %q",
				scrubber.CaseUpper, scrubber.CaseLower, spec.Mode)
		}
		return scrubber.NewNormalizeCase(spec.Columns, mode), nil

	case "dedupe-by-key":
		return scrubber.NewDedupeByKey(spec.Keys), nil

	case "coerce-type":
		if spec.Column == "" {
			return nil, fmt.Errorf("column is required")
		}
		if spec.Type == "" {
			return nil, fmt.Errorf("type is required")
		}
		rule := scrubber.NewCoerceType(spec.Column, spec.Type)
		switch spec.OnError {
		case "", string(scrubber.PolicyFail):
			// Default policy
		case string(scrubber.PolicyDrop):
			rule = rule.WithPolicy(scrubber.PolicyDrop)
		default:
			return nil, fmt.Errorf("on_error must be %q or %q, got %q",
				scrubber.PolicyFail, scrubber.PolicyDrop, spec.OnError)
		}
		if spec.Layout != "" {
			rule = rule.WithLayout(spec.Layout)
		}
		return rule, nil

	case "fill-missing":
		if spec.Value == "" {
			return nil, fmt.Errorf("value is required")
		}
		return scrubber.NewFillMissing(spec.Columns, spec.Value), nil

	case "filter-outliers":
		if spec.Column == "" {
			return nil, fmt.Errorf("column is required")
		}
		if spec.Lower == nil || spec.Upper == nil {
			return nil, fmt.Errorf("lower and upper bounds are required")
		}
		return scrubber.NewFilterOutliers(spec.Column, *spec.Lower, *spec.Upper), nil

	case "rename-columns":
		if len(spec.Mapping) == 0 {
			return nil, fmt.Errorf("mapping is required")
		}
		return scrubber.NewRenameColumns(spec.Mapping), nil

	case "drop-columns":
		if len(spec.Columns) == 0 {
			return nil, fmt.Errorf("columns are required")
		}
		return scrubber.NewDropColumns(spec.Columns), nil

	case "reorder-columns":
		if len(spec.Columns) == 0 {
			return nil, fmt.Errorf("columns are required")
		}
		return scrubber.NewReorderColumns(spec.Columns), nil

	case "parse-dates":
		if spec.Column == "" {
			return nil, fmt.Errorf("column is required")
		}
		rule := scrubber.NewParseDates(spec.Column)
		if spec.Layout != "" {
			rule = rule.WithLayout(spec.Layout)
		}
		return rule, nil

	default:
		return nil, fmt.Errorf("unknown rule %q", spec.Name)
	}
}
