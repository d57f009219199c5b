package schema

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed formats.yaml
var builtinFormats []byte

// Registry is an immutable, ordered set of import formats.
type Registry struct {
	formats []ImportFormat
	byID    map[string]int
}

type registryFile struct {
	Formats []ImportFormat `yaml:"formats"`
}

var defaultRegistry = mustParse(builtinFormats)

// Default returns the registry of built-in formats.
func Default() *Registry { return defaultRegistry }

func mustParse(data []byte) *Registry {
	r, err := Parse(data)
	if err != nil {
		panic(fmt.Sprintf("schema: built-in formats: %v", err))
	}
	return r
}

// LoadFile builds a registry from a YAML file on disk.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read formats file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse builds a registry from YAML. Formats keep their file order.
func Parse(data []byte) (*Registry, error) {
	var rf registryFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("failed to parse formats YAML: %w", err)
	}
	if len(rf.Formats) == 0 {
		return nil, fmt.Errorf("no formats defined")
	}

	r := &Registry{byID: make(map[string]int, len(rf.Formats))}
	for _, f := range rf.Formats {
		if err := f.validate(); err != nil {
			return nil, err
		}
		if _, dup := r.byID[f.ID]; dup {
			return nil, fmt.Errorf("duplicate format id %q", f.ID)
		}
		r.byID[f.ID] = len(r.formats)
		r.formats = append(r.formats, f.clone())
	}
	return r, nil
}

// Formats lists every registered format in registration order.
func (r *Registry) Formats() []ImportFormat {
	out := make([]ImportFormat, len(r.formats))
	for i, f := range r.formats {
		out[i] = f.clone()
	}
	return out
}

// Lookup returns the format registered under id.
func (r *Registry) Lookup(id string) (ImportFormat, error) {
	idx, ok := r.byID[id]
	if !ok {
		return ImportFormat{}, fmt.Errorf("%w: %q", ErrUnknownFormat, id)
	}
	return r.formats[idx].clone(), nil
}

// FieldSpecs returns the canonical field list of the format registered under id.
func (r *Registry) FieldSpecs(id string) ([]FieldSpec, error) {
	f, err := r.Lookup(id)
	if err != nil {
		return nil, err
	}
	return f.Fields(), nil
}
