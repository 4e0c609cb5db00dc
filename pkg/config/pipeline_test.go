package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePipeline(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadPipelineSpec(t *testing.T) {
	path := writePipeline(t, `
datasets:
  - name: customers
    input: customers_data.csv
    output:
      path: customers_data_prepared.csv
    rules:
      - name: trim-whitespace
        columns: [Name]
      - name: dedupe-by-key
        keys: [CustomerID]
      - name: filter-outliers
        column: LoyaltyPoints
        lower: 0
        upper: 10000
  - name: sales
    input: sales_data.csv
    output:
      table: sales_prepared
    rules:
      - name: coerce-type
        column: SaleAmount
        type: float
        on_error: drop
`)

	spec, err := LoadPipelineSpec(path)
	require.NoError(t, err)

	require.Len(t, spec.Datasets, 2)

	customers := spec.Dataset("customers")
	require.NotNil(t, customers)
	assert.Equal(t, "customers_data.csv", customers.Input)
	assert.Equal(t, "customers_data_prepared.csv", customers.Output.Path)
	require.Len(t, customers.Rules, 3)
	assert.Equal(t, []string{"CustomerID"}, customers.Rules[1].Keys)
	require.NotNil(t, customers.Rules[2].Lower)
	assert.Equal(t, 0.0, *customers.Rules[2].Lower)
	assert.Equal(t, 10000.0, *customers.Rules[2].Upper)

	sales := spec.Dataset("sales")
	require.NotNil(t, sales)
	assert.Equal(t, "sales_prepared", sales.Output.Table)
	assert.Equal(t, "drop", sales.Rules[0].OnError)

	assert.Nil(t, spec.Dataset("products"))
}

func TestLoadPipelineSpecMissingFile(t *testing.T) {
	_, err := LoadPipelineSpec(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestPipelineSpecValidate(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "no datasets",
			yaml: `datasets: []`,
		},
		{
			name: "unnamed dataset",
			yaml: `
datasets:
  - input: a.csv
    output: {path: b.csv}
`,
		},
		{
			name: "duplicate names",
			yaml: `
datasets:
  - name: a
    input: a.csv
    output: {path: out.csv}
  - name: a
    input: a2.csv
    output: {path: out2.csv}
`,
		},
		{
			name: "missing input",
			yaml: `
datasets:
  - name: a
    output: {path: out.csv}
`,
		},
		{
			name: "no output",
			yaml: `
datasets:
  - name: a
    input: a.csv
`,
		},
		{
			name: "both outputs",
			yaml: `
datasets:
  - name: a
    input: a.csv
    output: {path: out.csv, table: out}
`,
		},
		{
			name: "unnamed rule",
			yaml: `
datasets:
  - name: a
    input: a.csv
    output: {path: out.csv}
    rules:
      - columns: [x]
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writePipeline(t, tt.yaml)
			_, err := LoadPipelineSpec(path)
			assert.Error(t, err)
		})
	}
}
