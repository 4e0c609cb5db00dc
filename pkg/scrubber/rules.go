// pkg/scrubber/rules.go
package scrubber

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/smart-sales/dataprep/pkg/model"
)

// RuleResult captures the effect of a single rule application
type RuleResult struct {
	RowsAffected int                       // Rows modified or removed
	RowsDropped  int                       // Subset of RowsAffected removed entirely
	Operations   []model.CleaningOperation // Audit records (Dataset/CleanedAt stamped by the scrubber)
}

// Rule is a named, idempotent transformation from table to table
type Rule interface {
	// Name returns the rule name as used in reports and configuration
	Name() string

	// Apply transforms the table, returning the result and what changed.
	// Rules never mutate the input table.
	Apply(table *model.Table) (*model.Table, RuleResult, error)
}

// CaseMode selects the casing applied by normalize-case
type CaseMode string

const (
	CaseUpper CaseMode = "upper"
	CaseLower CaseMode = "lower"
)

// CoercePolicy selects what coerce-type does with an unconvertible value
type CoercePolicy string

const (
	// PolicyFail aborts the rule with a CoercionError
	PolicyFail CoercePolicy = "fail"
	// PolicyDrop removes the offending row and continues
	PolicyDrop CoercePolicy = "drop"
)

// Target types for coerce-type
const (
	TypeInt    = "int"
	TypeFloat  = "float"
	TypeBool   = "bool"
	TypeString = "string"
	TypeTime   = "time"
)

// rowIdentifier labels a row for audit records. Prefers the row's ID
// column when present and non-null, falling back to the row index.
func rowIdentifier(table *model.Table, row model.Row, idx int) string {
	if table.HasColumn("ID") {
		for col, v := range row {
			if strings.EqualFold(strings.TrimSpace(col), "id") && !model.IsNull(v) {
				return model.CellString(v)
			}
		}
	}
	return "row:" + strconv.Itoa(idx)
}

// resolveColumn maps a configured column name to the table's canonical
// name. Lookup is case-insensitive but cell access is not, so every rule
// must read cells through the resolved name.
func resolveColumn(table *model.Table, col string) (string, error) {
	idx := table.ColumnIndex(col)
	if idx < 0 {
		return "", fmt.Errorf("column %q not found in table", col)
	}
	return table.Columns[idx], nil
}

// resolveColumns resolves every listed name to its canonical column
func resolveColumns(table *model.Table, columns []string) ([]string, error) {
	resolved := make([]string, len(columns))
	for i, col := range columns {
		name, err := resolveColumn(table, col)
		if err != nil {
			return nil, err
		}
		resolved[i] = name
	}
	return resolved, nil
}

// resolveOrAll resolves the listed columns, or returns every table column
// when the list is empty.
func resolveOrAll(table *model.Table, columns []string) ([]string, error) {
	if len(columns) == 0 {
		return table.Columns, nil
	}
	return resolveColumns(table, columns)
}

// DropNullRows removes rows where any listed column is null.
// An empty column list checks every column.
type DropNullRows struct {
	Columns []string
}

// NewDropNullRows creates a drop-null-rows rule
func NewDropNullRows(columns []string) *DropNullRows {
	return &DropNullRows{Columns: columns}
}

// Name returns the rule name
func (r *DropNullRows) Name() string { return "drop-null-rows" }

// Apply removes rows with nulls in the checked columns
func (r *DropNullRows) Apply(table *model.Table) (*model.Table, RuleResult, error) {
	checked, err := resolveOrAll(table, r.Columns)
	if err != nil {
		return nil, RuleResult{}, err
	}

	out := model.NewTable(table.Columns)
	var result RuleResult
	for i, row := range table.Rows {
		nullCol := ""
		for _, col := range checked {
			if model.IsNull(row[col]) {
				nullCol = col
				break
			}
		}
		if nullCol == "" {
			out.AppendRow(row)
			continue
		}

		result.RowsAffected++
		result.RowsDropped++
		result.Operations = append(result.Operations, model.CleaningOperation{
			ColumnName:        nullCol,
			OriginalValue:     row[nullCol],
			RowIdentifier:     rowIdentifier(table, row, i),
			CleaningOperation: "drop_null_row",
			CleaningReason:    "null_in_required_column",
		})
	}

	return out, result, nil
}

// TrimWhitespace strips leading and trailing whitespace from string
// values in the listed columns
type TrimWhitespace struct {
	Columns []string
}

// NewTrimWhitespace creates a trim-whitespace rule
func NewTrimWhitespace(columns []string) *TrimWhitespace {
	return &TrimWhitespace{Columns: columns}
}

// Name returns the rule name
func (r *TrimWhitespace) Name() string { return "trim-whitespace" }

// Apply trims string cells in place on a copy of the table
func (r *TrimWhitespace) Apply(table *model.Table) (*model.Table, RuleResult, error) {
	checked, err := resolveOrAll(table, r.Columns)
	if err != nil {
		return nil, RuleResult{}, err
	}

	out := table.Clone()
	var result RuleResult
	for i, row := range out.Rows {
		changed := false
		for _, col := range checked {
			s, ok := row[col].(string)
			if !ok {
				continue
			}
			trimmed := strings.TrimSpace(s)
			if trimmed == s {
				continue
			}
			row[col] = trimmed
			changed = true
			result.Operations = append(result.Operations, model.CleaningOperation{
				ColumnName:        col,
				OriginalValue:     s,
				NewValue:          trimmed,
				RowIdentifier:     rowIdentifier(out, row, i),
				CleaningOperation: "trim_whitespace",
				CleaningReason:    "leading_trailing_whitespace",
			})
		}
		if changed {
			result.RowsAffected++
		}
	}

	return out, result, nil
}

// NormalizeCase applies upper or lower casing (plus trimming) to string
// values in the listed columns
type NormalizeCase struct {
	Columns []string
	Mode    CaseMode
}

// NewNormalizeCase creates a normalize-case rule
func NewNormalizeCase(columns []string, mode CaseMode) *NormalizeCase {
	return &NormalizeCase{Columns: columns, Mode: mode}
}

// Name returns the rule name
func (r *NormalizeCase) Name() string { return "normalize-case" }

// Apply cases and trims string cells in the listed columns. Non-string
// cells pass through untouched, same as trim-whitespace.
func (r *NormalizeCase) Apply(table *model.Table) (*model.Table, RuleResult, error) {
	if r.Mode != CaseUpper && r.Mode != CaseLower {
		return nil, RuleResult{}, fmt.Errorf("unknown case mode %q", r.Mode)
	}
	checked, err := resolveOrAll(table, r.Columns)
	if err != nil {
		return nil, RuleResult{}, err
	}

	out := table.Clone()
	var result RuleResult
	for i, row := range out.Rows {
		changed := false
		for _, col := range checked {
			if model.IsNull(row[col]) {
				continue
			}
			original, ok := row[col].(string)
			if !ok {
				continue
			}
			cased := strings.TrimSpace(original)
			if r.Mode == CaseUpper {
				cased = strings.ToUpper(cased)
			} else {
				cased = strings.ToLower(cased)
			}
			if cased == original {
				continue
			}
			row[col] = cased
			changed = true
			result.Operations = append(result.Operations, model.CleaningOperation{
				ColumnName:        col,
				OriginalValue:     original,
				NewValue:          cased,
				RowIdentifier:     rowIdentifier(out, row, i),
				CleaningOperation: "normalize_case",
				CleaningReason:    "case_" + string(r.Mode),
			})
		}
		if changed {
			result.RowsAffected++
		}
	}

	return out, result, nil
}

// DedupeByKey retains the first row per unique combination of key
// columns, preserving input order for retained rows. An empty key list
// dedupes on the full row.
type DedupeByKey struct {
	Keys []string
}

// NewDedupeByKey creates a dedupe-by-key rule
func NewDedupeByKey(keys []string) *DedupeByKey {
	return &DedupeByKey{Keys: keys}
}

// Name returns the rule name
func (r *DedupeByKey) Name() string { return "dedupe-by-key" }

// Apply drops later rows with a previously seen key
func (r *DedupeByKey) Apply(table *model.Table) (*model.Table, RuleResult, error) {
	keys, err := resolveOrAll(table, r.Keys)
	if err != nil {
		return nil, RuleResult{}, err
	}

	out := model.NewTable(table.Columns)
	seen := make(map[string]struct{}, len(table.Rows))
	var result RuleResult
	for i, row := range table.Rows {
		parts := make([]string, len(keys))
		for j, col := range keys {
			parts[j] = model.CellString(row[col])
		}
		key := strings.Join(parts, "\x1f")

		if _, dup := seen[key]; !dup {
			seen[key] = struct{}{}
			out.AppendRow(row)
			continue
		}

		result.RowsAffected++
		result.RowsDropped++
		result.Operations = append(result.Operations, model.CleaningOperation{
			ColumnName:        strings.Join(keys, ","),
			OriginalValue:     key,
			RowIdentifier:     rowIdentifier(table, row, i),
			CleaningOperation: "dedupe_by_key",
			CleaningReason:    "duplicate_key",
		})
	}

	return out, result, nil
}

// CoerceType converts a column's values to the declared target type
type CoerceType struct {
	Column     string
	TargetType string
	Policy     CoercePolicy
	Layout     string // Optional time layout for TypeTime
}

// NewCoerceType creates a coerce-type rule with the fail policy
func NewCoerceType(column, targetType string) *CoerceType {
	return &CoerceType{
		Column:     column,
		TargetType: targetType,
		Policy:     PolicyFail,
	}
}

// WithPolicy sets the unconvertible-value policy and returns the rule
func (r *CoerceType) WithPolicy(policy CoercePolicy) *CoerceType {
	r.Policy = policy
	return r
}

// WithLayout sets an explicit time layout and returns the rule
func (r *CoerceType) WithLayout(layout string) *CoerceType {
	r.Layout = layout
	return r
}

// Name returns the rule name
func (r *CoerceType) Name() string { return "coerce-type" }

// Apply converts the column, preserving nulls. Unconvertible values fail
// the rule with a CoercionError or drop the row, per the policy.
func (r *CoerceType) Apply(table *model.Table) (*model.Table, RuleResult, error) {
	col, err := resolveColumn(table, r.Column)
	if err != nil {
		return nil, RuleResult{}, err
	}

	out := model.NewTable(table.Columns)
	var result RuleResult
	for i, row := range table.Rows {
		original := row[col]
		if original == nil {
			out.AppendRow(row)
			continue
		}

		converted, err := r.convert(original)
		if err != nil {
			if r.Policy == PolicyDrop {
				result.RowsAffected++
				result.RowsDropped++
				result.Operations = append(result.Operations, model.CleaningOperation{
					ColumnName:        col,
					OriginalValue:     original,
					RowIdentifier:     rowIdentifier(table, row, i),
					CleaningOperation: "coerce_type",
					CleaningReason:    "unconvertible_value_dropped",
				})
				continue
			}
			return nil, RuleResult{}, &CoercionError{
				Column:     col,
				Value:      original,
				TargetType: r.TargetType,
				Err:        err,
			}
		}

		if converted != original {
			copied := make(model.Row, len(row))
			for k, v := range row {
				copied[k] = v
			}
			copied[col] = converted
			row = copied

			result.RowsAffected++
			result.Operations = append(result.Operations, model.CleaningOperation{
				ColumnName:        col,
				OriginalValue:     original,
				NewValue:          model.CellString(converted),
				RowIdentifier:     rowIdentifier(table, row, i),
				CleaningOperation: "coerce_type",
				CleaningReason:    "converted_to_" + r.TargetType,
			})
		}
		out.AppendRow(row)
	}

	return out, result, nil
}

func (r *CoerceType) convert(v interface{}) (interface{}, error) {
	switch r.TargetType {
	case TypeInt:
		return toInt(v)
	case TypeFloat:
		return toFloat(v)
	case TypeBool:
		return toBool(v)
	case TypeString:
		return toString(v), nil
	case TypeTime:
		return toTime(v, r.Layout)
	default:
		return nil, fmt.Errorf("unknown target type %q", r.TargetType)
	}
}

// FillMissing replaces null values in the listed columns with a constant.
// An empty column list fills every column.
type FillMissing struct {
	Columns []string
	Value   interface{}
}

// NewFillMissing creates a fill-missing rule
func NewFillMissing(columns []string, value interface{}) *FillMissing {
	return &FillMissing{Columns: columns, Value: value}
}

// Name returns the rule name
func (r *FillMissing) Name() string { return "fill-missing" }

// Apply fills nulls with the configured value
func (r *FillMissing) Apply(table *model.Table) (*model.Table, RuleResult, error) {
	checked, err := resolveOrAll(table, r.Columns)
	if err != nil {
		return nil, RuleResult{}, err
	}

	out := table.Clone()
	var result RuleResult
	for i, row := range out.Rows {
		changed := false
		for _, col := range checked {
			if !model.IsNull(row[col]) {
				continue
			}
			original := row[col]
			row[col] = r.Value
			changed = true
			result.Operations = append(result.Operations, model.CleaningOperation{
				ColumnName:        col,
				OriginalValue:     original,
				NewValue:          model.CellString(r.Value),
				RowIdentifier:     rowIdentifier(out, row, i),
				CleaningOperation: "fill_missing",
				CleaningReason:    "missing_value_filled",
			})
		}
		if changed {
			result.RowsAffected++
		}
	}

	return out, result, nil
}

// FilterOutliers keeps rows whose numeric value in the column falls
// within the inclusive [Lower, Upper] range. Rows with a null value are
// removed, matching the behavior of numeric range filters in the source
// data-preparation workflow.
type FilterOutliers struct {
	Column string
	Lower  float64
	Upper  float64
}

// NewFilterOutliers creates a filter-outliers rule
func NewFilterOutliers(column string, lower, upper float64) *FilterOutliers {
	return &FilterOutliers{Column: column, Lower: lower, Upper: upper}
}

// Name returns the rule name
func (r *FilterOutliers) Name() string { return "filter-outliers" }

// Apply removes out-of-range rows. A non-null value that cannot be read
// as a number fails the rule.
func (r *FilterOutliers) Apply(table *model.Table) (*model.Table, RuleResult, error) {
	col, err := resolveColumn(table, r.Column)
	if err != nil {
		return nil, RuleResult{}, err
	}

	out := model.NewTable(table.Columns)
	var result RuleResult
	for i, row := range table.Rows {
		v := row[col]
		reason := ""
		if model.IsNull(v) {
			reason = "missing_numeric_value"
		} else {
			f, err := toFloat(v)
			if err != nil {
				return nil, RuleResult{}, &CoercionError{
					Column:     col,
					Value:      v,
					TargetType: TypeFloat,
					Err:        err,
				}
			}
			if f < r.Lower || f > r.Upper {
				reason = "value_outside_bounds"
			}
		}

		if reason == "" {
			out.AppendRow(row)
			continue
		}

		result.RowsAffected++
		result.RowsDropped++
		result.Operations = append(result.Operations, model.CleaningOperation{
			ColumnName:        col,
			OriginalValue:     v,
			RowIdentifier:     rowIdentifier(table, row, i),
			CleaningOperation: "filter_outliers",
			CleaningReason:    reason,
		})
	}

	return out, result, nil
}

// RenameColumns renames columns using an old-name to new-name mapping
type RenameColumns struct {
	Mapping map[string]string
}

// NewRenameColumns creates a rename-columns rule
func NewRenameColumns(mapping map[string]string) *RenameColumns {
	return &RenameColumns{Mapping: mapping}
}

// Name returns the rule name
func (r *RenameColumns) Name() string { return "rename-columns" }

// Apply renames the mapped columns; every source column must exist
func (r *RenameColumns) Apply(table *model.Table) (*model.Table, RuleResult, error) {
	mapping := make(map[string]string, len(r.Mapping))
	for old, renamed := range r.Mapping {
		name, err := resolveColumn(table, old)
		if err != nil {
			return nil, RuleResult{}, err
		}
		mapping[name] = renamed
	}

	columns := make([]string, len(table.Columns))
	for i, col := range table.Columns {
		if renamed, ok := mapping[col]; ok {
			columns[i] = renamed
		} else {
			columns[i] = col
		}
	}

	out := model.NewTable(columns)
	for _, row := range table.Rows {
		copied := make(model.Row, len(row))
		for col, v := range row {
			if renamed, ok := mapping[col]; ok {
				copied[renamed] = v
			} else {
				copied[col] = v
			}
		}
		out.AppendRow(copied)
	}

	// Column-level change only; no row-level audit entries
	return out, RuleResult{}, nil
}

// DropColumns removes the listed columns from the table
type DropColumns struct {
	Columns []string
}

// NewDropColumns creates a drop-columns rule
func NewDropColumns(columns []string) *DropColumns {
	return &DropColumns{Columns: columns}
}

// Name returns the rule name
func (r *DropColumns) Name() string { return "drop-columns" }

// Apply removes the columns; every listed column must exist
func (r *DropColumns) Apply(table *model.Table) (*model.Table, RuleResult, error) {
	resolved, err := resolveColumns(table, r.Columns)
	if err != nil {
		return nil, RuleResult{}, err
	}

	dropped := make(map[string]struct{}, len(resolved))
	for _, col := range resolved {
		dropped[col] = struct{}{}
	}

	columns := make([]string, 0, len(table.Columns))
	for _, col := range table.Columns {
		if _, drop := dropped[col]; !drop {
			columns = append(columns, col)
		}
	}

	out := model.NewTable(columns)
	for _, row := range table.Rows {
		out.AppendRow(row)
	}

	return out, RuleResult{}, nil
}

// ReorderColumns restricts the table to the listed columns in the listed
// order
type ReorderColumns struct {
	Columns []string
}

// NewReorderColumns creates a reorder-columns rule
func NewReorderColumns(columns []string) *ReorderColumns {
	return &ReorderColumns{Columns: columns}
}

// Name returns the rule name
func (r *ReorderColumns) Name() string { return "reorder-columns" }

// Apply projects the table onto the listed columns
func (r *ReorderColumns) Apply(table *model.Table) (*model.Table, RuleResult, error) {
	if len(r.Columns) == 0 {
		return nil, RuleResult{}, fmt.Errorf("reorder-columns requires at least one column")
	}
	columns, err := resolveColumns(table, r.Columns)
	if err != nil {
		return nil, RuleResult{}, err
	}

	out := model.NewTable(columns)
	for _, row := range table.Rows {
		out.AppendRow(row)
	}

	return out, RuleResult{}, nil
}

// ParseDates parses a column's values into timestamps. Unparseable
// values become null rather than failing the rule, so partially dirty
// date columns survive the scrub.
type ParseDates struct {
	Column string
	Layout string // Optional explicit layout; common formats tried when empty
}

// NewParseDates creates a parse-dates rule
func NewParseDates(column string) *ParseDates {
	return &ParseDates{Column: column}
}

// WithLayout sets an explicit time layout and returns the rule
func (r *ParseDates) WithLayout(layout string) *ParseDates {
	r.Layout = layout
	return r
}

// Name returns the rule name
func (r *ParseDates) Name() string { return "parse-dates" }

// Apply parses the column into time.Time values
func (r *ParseDates) Apply(table *model.Table) (*model.Table, RuleResult, error) {
	col, err := resolveColumn(table, r.Column)
	if err != nil {
		return nil, RuleResult{}, err
	}

	out := table.Clone()
	var result RuleResult
	for i, row := range out.Rows {
		original := row[col]
		if original == nil {
			continue
		}
		if _, already := original.(time.Time); already {
			continue
		}

		parsed, err := toTime(original, r.Layout)
		if err != nil {
			row[col] = nil
			result.RowsAffected++
			result.Operations = append(result.Operations, model.CleaningOperation{
				ColumnName:        col,
				OriginalValue:     original,
				RowIdentifier:     rowIdentifier(out, row, i),
				CleaningOperation: "parse_dates",
				CleaningReason:    "unparseable_date_nulled",
			})
			continue
		}

		row[col] = parsed
		result.RowsAffected++
		result.Operations = append(result.Operations, model.CleaningOperation{
			ColumnName:        col,
			OriginalValue:     original,
			NewValue:          parsed.Format(time.RFC3339),
			RowIdentifier:     rowIdentifier(out, row, i),
			CleaningOperation: "parse_dates",
			CleaningReason:    "parsed_to_datetime",
		})
	}

	return out, result, nil
}
