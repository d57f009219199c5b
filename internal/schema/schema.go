// Package schema holds the import formats a roster can be normalized into.
package schema

import (
	"errors"
	"fmt"
)

// ErrUnknownFormat is returned when a format identifier is not registered.
var ErrUnknownFormat = errors.New("unknown import format")

// Tier classifies a target field of an import format.
type Tier int

const (
	Required Tier = iota
	Conditional
	Optional
)

func (t Tier) String() string {
	switch t {
	case Required:
		return "required"
	case Conditional:
		return "conditional"
	case Optional:
		return "optional"
	}
	return fmt.Sprintf("Tier(%d)", int(t))
}

// Icon returns the colored marker shown next to a field in listings.
func (t Tier) Icon() string {
	switch t {
	case Required:
		return "🔴"
	case Conditional:
		return "🔵"
	case Optional:
		return "🟢"
	}
	return "⚪"
}

// MarshalText lets tiers appear by name in JSON payloads.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// ImportFormat is a named target schema.
type ImportFormat struct {
	ID          string   `yaml:"id" json:"id"`
	Title       string   `yaml:"title" json:"title"`
	Required    []string `yaml:"required" json:"required"`
	Conditional []string `yaml:"conditional" json:"conditional"`
	Optional    []string `yaml:"optional" json:"optional"`
	// ErrorColumn requests a leading "ERROR" column on export.
	ErrorColumn bool `yaml:"error_column" json:"error_column"`
}

// FieldSpec is one target field tagged with its tier.
type FieldSpec struct {
	Name string `json:"name"`
	Tier Tier   `json:"tier"`
}

// Fields flattens the three tiers into canonical order: required,
// conditional, optional, each in declaration order.
func (f ImportFormat) Fields() []FieldSpec {
	specs := make([]FieldSpec, 0, len(f.Required)+len(f.Conditional)+len(f.Optional))
	for _, name := range f.Required {
		specs = append(specs, FieldSpec{Name: name, Tier: Required})
	}
	for _, name := range f.Conditional {
		specs = append(specs, FieldSpec{Name: name, Tier: Conditional})
	}
	for _, name := range f.Optional {
		specs = append(specs, FieldSpec{Name: name, Tier: Optional})
	}
	return specs
}

// Names returns the canonical column order of the format.
func Names(specs []FieldSpec) []string {
	names := make([]string, len(specs))
	for i, s := range specs {
		names[i] = s.Name
	}
	return names
}

func (f ImportFormat) clone() ImportFormat {
	f.Required = append([]string(nil), f.Required...)
	f.Conditional = append([]string(nil), f.Conditional...)
	f.Optional = append([]string(nil), f.Optional...)
	return f
}

func (f ImportFormat) validate() error {
	if f.ID == "" {
		return fmt.Errorf("format %q: empty id", f.Title)
	}
	if len(f.Required)+len(f.Conditional)+len(f.Optional) == 0 {
		return fmt.Errorf("format %s: no fields defined", f.ID)
	}
	seen := make(map[string]Tier)
	for _, spec := range f.Fields() {
		if spec.Name == "" {
			return fmt.Errorf("format %s: empty field name in %s tier", f.ID, spec.Tier)
		}
		if prev, ok := seen[spec.Name]; ok {
			return fmt.Errorf("format %s: field %q listed as %s and %s", f.ID, spec.Name, prev, spec.Tier)
		}
		seen[spec.Name] = spec.Tier
	}
	return nil
}
