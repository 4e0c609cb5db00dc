// pkg/config/pipeline.go
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PipelineSpec is the parsed pipeline definition file: the datasets to
// prepare and the ordered cleaning rules for each
type PipelineSpec struct {
	Datasets []DatasetSpec `yaml:"datasets"`
}

// DatasetSpec declares one dataset: where its raw file lives, where the
// cleaned table goes, and the rules to apply in order
type DatasetSpec struct {
	Name   string     `yaml:"name"`
	Input  string     `yaml:"input"`
	Output OutputSpec `yaml:"output"`
	Rules  []RuleSpec `yaml:"rules"`
}

// OutputSpec declares the destination for a cleaned table. Exactly one
// of Path (file output) or Table (warehouse output) must be set.
type OutputSpec struct {
	Path  string `yaml:"path,omitempty"`
	Table string `yaml:"table,omitempty"`
}

// RuleSpec is the YAML form of a single cleaning rule. Which fields
// apply depends on the rule name; the pipeline runner validates them
// when building the rule.
type RuleSpec struct {
	Name        string            `yaml:"name"`
	Columns     []string          `yaml:"columns,omitempty"`
	Column      string            `yaml:"column,omitempty"`
	Keys        []string          `yaml:"keys,omitempty"`
	Mode        string            `yaml:"mode,omitempty"`
	Type        string            `yaml:"type,omitempty"`
	OnError     string            `yaml:"on_error,omitempty"`
	Layout      string            `yaml:"layout,omitempty"`
	Value       string            `yaml:"value,omitempty"`
	Mapping     map[string]string `yaml:"mapping,omitempty"`
	Lower       *float64          `yaml:"lower,omitempty"`
	Upper       *float64          `yaml:"upper,omitempty"`
	SkipOnError bool              `yaml:"skip_on_error,omitempty"`
}

// LoadPipelineSpec reads and validates a pipeline definition file
func LoadPipelineSpec(path string) (*PipelineSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pipeline file: %w", err)
	}

	var spec PipelineSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("failed to parse pipeline file: %w", err)
	}

	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline file %s: %w", path, err)
	}

	return &spec, nil
}

// Validate checks the pipeline definition for structural problems
func (s *PipelineSpec) Validate() error {
	if len(s.Datasets) == 0 {
		return fmt.Errorf("no datasets defined")
	}

	seen := make(map[string]struct{}, len(s.Datasets))
	for i, ds := range s.Datasets {
		if ds.Name == "" {
			return fmt.Errorf("dataset %d has no name", i)
		}
		if _, dup := seen[ds.Name]; dup {
			return fmt.Errorf("duplicate dataset name %q", ds.Name)
		}
		seen[ds.Name] = struct{}{}

		if ds.Input == "" {
			return fmt.Errorf("dataset %q has no input path", ds.Name)
		}
		if ds.Output.Path == "" && ds.Output.Table == "" {
			return fmt.Errorf("dataset %q has no output destination", ds.Name)
		}
		if ds.Output.Path != "" && ds.Output.Table != "" {
			return fmt.Errorf("dataset %q declares both file and table output", ds.Name)
		}

		for j, rule := range ds.Rules {
			if rule.Name == "" {
				return fmt.Errorf("dataset %q rule %d has no name", ds.Name, j)
			}
		}
	}

	return nil
}

// Dataset returns the named dataset spec, or nil when absent
func (s *PipelineSpec) Dataset(name string) *DatasetSpec {
	for i := range s.Datasets {
		if s.Datasets[i].Name == name {
			return &s.Datasets[i]
		}
	}
	return nil
}
