package routing

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/multichat/multichat-go/internal/provider"
)

//go:embed providers.yaml
var builtin []byte

// Registry maps provider labels to their specs. It is read-only once built.
type Registry struct {
	specs []provider.Spec
	index map[string]int
}

// New validates specs and builds a registry keeping their order.
func New(specs ...provider.Spec) (*Registry, error) {
	if len(specs) == 0 {
		return nil, errors.New("provider registry is empty")
	}
	r := &Registry{index: make(map[string]int, len(specs))}
	for _, s := range specs {
		if s.Label == "" {
			return nil, errors.New("provider with empty label")
		}
		if _, dup := r.index[s.Label]; dup {
			return nil, fmt.Errorf("duplicate provider %q", s.Label)
		}
		if s.Family == nil {
			return nil, &provider.UnimplementedFamilyError{Label: s.Label}
		}
		if err := provider.Validate(s.Family); err != nil {
			return nil, fmt.Errorf("provider %q: %w", s.Label, err)
		}
		if len(s.Models) == 0 {
			return nil, fmt.Errorf("provider %q lists no models", s.Label)
		}
		s.Models = append([]string(nil), s.Models...)
		r.index[s.Label] = len(r.specs)
		r.specs = append(r.specs, s)
	}
	return r, nil
}

// Default returns the built-in provider table.
func Default() (*Registry, error) {
	return Parse(builtin)
}

// Load reads a provider table from path, or the built-in one when path is empty.
func Load(path string) (*Registry, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

type table struct {
	Providers []entry `yaml:"providers"`
}

type entry struct {
	Label    string   `yaml:"label"`
	Family   string   `yaml:"family"`
	Endpoint string   `yaml:"endpoint"`
	Version  string   `yaml:"version"`
	Models   []string `yaml:"models"`
}

// Parse decodes a YAML provider table.
func Parse(data []byte) (*Registry, error) {
	var t table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse provider table: %w", err)
	}
	specs := make([]provider.Spec, 0, len(t.Providers))
	for _, e := range t.Providers {
		fam, err := provider.NewFamily(e.Family, e.Endpoint)
		if err != nil {
			return nil, fmt.Errorf("provider %q: %w", e.Label, err)
		}
		if am, ok := fam.(provider.AnthropicMessages); ok && e.Version != "" {
			am.Version = e.Version
			fam = am
		}
		specs = append(specs, provider.Spec{Label: e.Label, Family: fam, Models: e.Models})
	}
	return New(specs...)
}

// Lookup returns the spec registered under label.
func (r *Registry) Lookup(label string) (provider.Spec, error) {
	i, ok := r.index[label]
	if !ok {
		return provider.Spec{}, &provider.UnknownProviderError{Label: label}
	}
	return r.specs[i], nil
}

// Providers returns every spec in table order.
func (r *Registry) Providers() []provider.Spec {
	out := make([]provider.Spec, len(r.specs))
	copy(out, r.specs)
	return out
}

// Default returns the first provider in the table.
func (r *Registry) Default() provider.Spec {
	return r.specs[0]
}
