package config

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed schema.yaml
var defaultSchemaYAML []byte

type FieldClass int

const (
	ClassText FieldClass = iota
	ClassInteger
	ClassBoolean
	ClassRegex
)

func (c FieldClass) String() string {
	switch c {
	case ClassInteger:
		return "integer"
	case ClassBoolean:
		return "boolean"
	case ClassRegex:
		return "regex"
	default:
		return "text"
	}
}

// Schema classifies canonical fields for typing, conversion and validation.
type Schema struct {
	IDField        string              `yaml:"id_field"`
	IntegerFields  []string            `yaml:"integer_fields"`
	BooleanFields  []string            `yaml:"boolean_fields"`
	Affirmative    []string            `yaml:"affirmative"`
	RegexFields    map[string][]string `yaml:"regex_fields"`
	ConvertFields  []string            `yaml:"convert_fields"`
	SkipValidation []string            `yaml:"skip_validation"`
	LabelFields    []string            `yaml:"label_fields"`

	classes  map[string]FieldClass
	patterns map[string][]*regexp.Regexp
	convert  map[string]struct{}
	skip     map[string]struct{}
}

// LoadSchema reads a schema file, or the built-in schema when path is empty.
func LoadSchema(path string) (*Schema, error) {
	if strings.TrimSpace(path) == "" {
		return ParseSchema(defaultSchemaYAML)
	}
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	s, err := ParseSchema(blob)
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", path, err)
	}
	return s, nil
}

func DefaultSchema() *Schema {
	s, err := ParseSchema(defaultSchemaYAML)
	if err != nil {
		panic(fmt.Sprintf("built-in schema: %v", err))
	}
	return s
}

func ParseSchema(blob []byte) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(blob, &s); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	if err := s.compile(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Schema) compile() error {
	if strings.TrimSpace(s.IDField) == "" {
		return fmt.Errorf("schema: id_field is required")
	}

	s.classes = map[string]FieldClass{}
	assign := func(fields []string, class FieldClass) error {
		for _, f := range fields {
			if prev, ok := s.classes[f]; ok && prev != class {
				return fmt.Errorf("schema: field %q is both %s and %s", f, prev, class)
			}
			s.classes[f] = class
		}
		return nil
	}
	if err := assign(s.IntegerFields, ClassInteger); err != nil {
		return err
	}
	if err := assign(s.BooleanFields, ClassBoolean); err != nil {
		return err
	}

	s.patterns = map[string][]*regexp.Regexp{}
	for field, exprs := range s.RegexFields {
		if len(exprs) == 0 {
			return fmt.Errorf("schema: regex field %q has no patterns", field)
		}
		if err := assign([]string{field}, ClassRegex); err != nil {
			return err
		}
		for _, expr := range exprs {
			re, err := regexp.Compile(expr)
			if err != nil {
				return fmt.Errorf("schema: regex field %q: %w", field, err)
			}
			s.patterns[field] = append(s.patterns[field], re)
		}
	}

	s.convert = toSet(s.ConvertFields)
	s.skip = toSet(s.SkipValidation)
	s.skip[s.IDField] = struct{}{}
	return nil
}

func (s *Schema) Class(field string) FieldClass {
	if c, ok := s.classes[field]; ok {
		return c
	}
	return ClassText
}

// Patterns returns the ordered patterns of a regex-constrained field.
func (s *Schema) Patterns(field string) []*regexp.Regexp {
	return s.patterns[field]
}

func (s *Schema) Convertible(field string) bool {
	_, ok := s.convert[field]
	return ok
}

// SkipsValidation covers the explicit skip list, the id field and every
// field already constrained by typing.
func (s *Schema) SkipsValidation(field string) bool {
	if _, ok := s.skip[field]; ok {
		return true
	}
	return s.Class(field) != ClassText
}

func toSet(values []string) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, v := range values {
		out[v] = struct{}{}
	}
	return out
}
