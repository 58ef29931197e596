package format

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Category keys used for formatter selection and field lookup.
const (
	CategoryRecord  = "record-management"
	CategoryStats   = "statistical-analysis"
	CategoryGeneric = "generic"
)

// Highlight marks a numeric field as notable when it crosses a bound.
type Highlight struct {
	// Below highlights values strictly less than the bound.
	Below *float64 `yaml:"below,omitempty"`

	// Above highlights values strictly greater than the bound.
	Above *float64 `yaml:"above,omitempty"`

	// Note is appended to highlighted values.
	Note string `yaml:"note,omitempty"`
}

// Matches reports whether the value crosses the configured bound.
func (h *Highlight) Matches(v float64) bool {
	if h == nil {
		return false
	}
	if h.Below != nil && v < *h.Below {
		return true
	}
	if h.Above != nil && v > *h.Above {
		return true
	}
	return false
}

// FieldSpec describes how one payload field is displayed.
type FieldSpec struct {
	// Label is the human-readable field name.
	Label string `yaml:"label"`

	// Priority orders fields in the report, ascending. Unmapped
	// fields sort after all mapped ones.
	Priority int `yaml:"priority"`

	// Type selects the rendering rule: text, number, date, boolean,
	// array, percent, binary. Unknown types render as text.
	Type string `yaml:"type"`

	// Truncate caps text values at this many runes. Zero means no
	// truncation beyond the global default.
	Truncate int `yaml:"truncate,omitempty"`

	// Highlight optionally flags notable numeric values.
	Highlight *Highlight `yaml:"highlight,omitempty"`
}

// CategoryMapping holds the field table for one category.
type CategoryMapping struct {
	Fields map[string]FieldSpec `yaml:"fields"`
}

// Mappings is an immutable field-mapping table partitioned by
// category. Readers share one snapshot; reloads swap the whole table.
type Mappings struct {
	Categories map[string]CategoryMapping `yaml:"categories"`
}

// Lookup returns the spec for a field within a category. Missing
// entries fall back to the generic category before reporting absence.
func (m *Mappings) Lookup(category, field string) (FieldSpec, bool) {
	if m == nil {
		return FieldSpec{}, false
	}
	if cat, ok := m.Categories[category]; ok {
		if spec, ok := cat.Fields[field]; ok {
			return spec, true
		}
	}
	if category != CategoryGeneric {
		if cat, ok := m.Categories[CategoryGeneric]; ok {
			if spec, ok := cat.Fields[field]; ok {
				return spec, true
			}
		}
	}
	return FieldSpec{}, false
}

//go:embed mappings.yaml
var defaultMappingsYAML []byte

// DefaultMappings returns the built-in field-mapping table. It panics
// only if the embedded file is invalid, which a unit test guards.
func DefaultMappings() *Mappings {
	m, err := parseMappings(defaultMappingsYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded field mappings invalid: %v", err))
	}
	return m
}

// LoadMappings reads a mapping table from a YAML file.
func LoadMappings(path string) (*Mappings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading field mappings: %w", err)
	}
	m, err := parseMappings(data)
	if err != nil {
		return nil, fmt.Errorf("parsing field mappings %s: %w", path, err)
	}
	return m, nil
}

func parseMappings(data []byte) (*Mappings, error) {
	var m Mappings
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if m.Categories == nil {
		m.Categories = make(map[string]CategoryMapping)
	}
	return &m, nil
}
