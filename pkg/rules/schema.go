package rules

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/formkit/pkg/validation"
)

// Field declares the string rules of one form field. Rules apply in the
// order Required, MinLength, MaxLength, Email, Pattern.
type Field struct {
	Required           bool   `yaml:"required"`
	MinLength          int    `yaml:"min_length"`
	MaxLength          int    `yaml:"max_length"`
	Email              bool   `yaml:"email"`
	Pattern            string `yaml:"pattern"`
	PatternDescription string `yaml:"pattern_description"`
}

// Schema is a set of field declarations, usually loaded from YAML:
//
//	fields:
//	  username:
//	    required: true
//	    min_length: 3
//	    pattern: "^[a-z0-9_]+$"
//	    pattern_description: lowercase letters, digits and underscores
//	  email:
//	    required: true
//	    email: true
type Schema struct {
	Fields map[string]Field `yaml:"fields"`
}

// ParseSchema decodes a YAML schema and checks every field.
func ParseSchema(data []byte) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, errors.Join(ErrInvalidSchema, err)
	}
	if len(s.Fields) == 0 {
		return nil, fmt.Errorf("%w: no fields", ErrInvalidSchema)
	}
	for _, name := range s.Names() {
		if _, err := s.Validators(name); err != nil {
			return nil, err
		}
	}
	return &s, nil
}

// LoadSchema reads and parses a YAML schema file.
func LoadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Join(ErrInvalidSchema, err)
	}
	return ParseSchema(data)
}

// Names returns the declared field names, sorted.
func (s *Schema) Names() []string {
	return slices.Sorted(maps.Keys(s.Fields))
}

// Validators builds the dependency list for one field.
func (s *Schema) Validators(name string) ([]validation.Dependency[string], error) {
	f, ok := s.Fields[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	if f.MinLength < 0 || f.MaxLength < 0 || (f.MaxLength > 0 && f.MinLength > f.MaxLength) {
		return nil, fmt.Errorf("%w: field %q has invalid length bounds", ErrInvalidSchema, name)
	}

	var deps []validation.Dependency[string]
	if f.Required {
		deps = append(deps, Required())
	}
	if f.MinLength > 0 {
		deps = append(deps, MinLength(f.MinLength))
	}
	if f.MaxLength > 0 {
		deps = append(deps, MaxLength(f.MaxLength))
	}
	if f.Email {
		deps = append(deps, Email())
	}
	if f.Pattern != "" {
		desc := f.PatternDescription
		if desc == "" {
			desc = f.Pattern
		}
		m, err := Matches(f.Pattern, desc)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		deps = append(deps, m)
	}
	if len(deps) == 0 {
		return nil, fmt.Errorf("%w: field %q declares no rules", ErrInvalidSchema, name)
	}
	return deps, nil
}

// Register adds one unit per field to reg. opts apply to every unit;
// each unit is also named after its field.
func (s *Schema) Register(reg *validation.Registry, opts ...validation.Option) (map[string]*validation.Handle[string], error) {
	handles := make(map[string]*validation.Handle[string], len(s.Fields))
	for _, name := range s.Names() {
		deps, err := s.Validators(name)
		if err != nil {
			return nil, err
		}
		h, err := validation.Register(reg, deps, append(slices.Clone(opts), validation.WithName(name))...)
		if err != nil {
			for _, registered := range handles {
				_ = registered.Unregister()
			}
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		handles[name] = h
	}
	return handles, nil
}
