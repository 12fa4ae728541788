package schema

import (
	"fmt"
	"os"
	"slices"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// FieldType identifies how a field is edited and which values it accepts.
type FieldType string

const (
	TypeText     FieldType = "text"
	TypeSelect   FieldType = "select"
	TypeTextarea FieldType = "textarea"
	TypeNumber   FieldType = "number"
	// TypeCustom marks a builder field whose value is assembled from detail entries.
	TypeCustom FieldType = "custom"
)

// CharactersKey is the field holding the array of character objects that the
// smart merge strategy reconciles by name.
const CharactersKey = "characters"

// Option is a selectable value of a select field. Weight biases randomization;
// zero is treated as one. Tags group options that belong together.
type Option struct {
	Value  string   `yaml:"value"`
	Weight float64  `yaml:"weight,omitempty"`
	Tags   []string `yaml:"tags,omitempty"`
}

// EffectiveWeight returns the weight used for random selection.
func (o Option) EffectiveWeight() float64 {
	if o.Weight == 0 {
		return 1
	}
	return o.Weight
}

// Field is a single schema-defined input.
type Field struct {
	Key      string    `yaml:"key"`
	Label    string    `yaml:"label"`
	Type     FieldType `yaml:"type"`
	Category string    `yaml:"category"`
	Default  string    `yaml:"default,omitempty"`
	Options  []Option  `yaml:"options,omitempty"`
}

// HasOption reports whether value is one of the field's option values.
func (f Field) HasOption(value string) bool {
	return slices.ContainsFunc(f.Options, func(o Option) bool { return o.Value == value })
}

// Schema is the ordered set of fields the editor works against.
type Schema struct {
	Version int     `yaml:"version"`
	Fields  []Field `yaml:"fields"`

	index map[string]int
}

// Parse decodes and validates a YAML schema document.
func Parse(data []byte) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSchemaParse, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Load reads the schema at path. A missing file yields the built-in default schema.
func Load(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debug().Str("path", path).Msg("Schema file not found, using built-in schema")
			return Default(), nil
		}
		log.Error().Err(err).Str("path", path).Msg("Failed to read schema file")
		return nil, fmt.Errorf("%w: %w", ErrSchemaRead, err)
	}
	s, err := Parse(data)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("Failed to load schema file")
		return nil, err
	}
	log.Debug().Str("path", path).Int("fields", len(s.Fields)).Msg("Loaded schema file")
	return s, nil
}

// Default returns the built-in schema. It panics only if the embedded document is broken.
func Default() *Schema {
	s, err := Parse([]byte(DefaultYAML))
	if err != nil {
		panic(fmt.Sprintf("built-in schema is invalid: %v", err))
	}
	return s
}

// Validate checks structural rules and builds the key index.
func (s *Schema) Validate() error {
	s.index = make(map[string]int, len(s.Fields))
	for i, f := range s.Fields {
		if f.Key == "" {
			return fmt.Errorf("%w: field %d has no key", ErrSchemaInvalid, i)
		}
		if _, dup := s.index[f.Key]; dup {
			return fmt.Errorf("%w: duplicate key %q", ErrSchemaInvalid, f.Key)
		}
		switch f.Type {
		case TypeText, TypeTextarea, TypeNumber, TypeCustom:
		case TypeSelect:
			if len(f.Options) == 0 {
				return fmt.Errorf("%w: select field %q has no options", ErrSchemaInvalid, f.Key)
			}
		default:
			return fmt.Errorf("%w: field %q has unknown type %q", ErrSchemaInvalid, f.Key, f.Type)
		}
		for _, o := range f.Options {
			if o.Weight < 0 {
				return fmt.Errorf("%w: option %q of %q has negative weight", ErrSchemaInvalid, o.Value, f.Key)
			}
		}
		s.index[f.Key] = i
	}
	return nil
}

// Field returns the field for key.
func (s *Schema) Field(key string) (Field, bool) {
	if s.index == nil {
		_ = s.Validate()
	}
	i, ok := s.index[key]
	if !ok {
		return Field{}, false
	}
	return s.Fields[i], true
}

// Keys returns all field keys in schema order.
func (s *Schema) Keys() []string {
	keys := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		keys = append(keys, f.Key)
	}
	return keys
}

// Category returns the keys of fields in the named category, in schema order.
func (s *Schema) Category(name string) []string {
	var keys []string
	for _, f := range s.Fields {
		if f.Category == name {
			keys = append(keys, f.Key)
		}
	}
	return keys
}

// Categories returns category names in first-seen order.
func (s *Schema) Categories() []string {
	var cats []string
	for _, f := range s.Fields {
		if !slices.Contains(cats, f.Category) {
			cats = append(cats, f.Category)
		}
	}
	return cats
}
