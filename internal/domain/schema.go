package domain

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Kind names an entity kind of the catalog.
type Kind string

// Catalog entity kinds.
const (
	KindPost     Kind = "post"
	KindBook     Kind = "book"
	KindHobby    Kind = "hobby"
	KindQuestion Kind = "question"
	KindSkill    Kind = "skill"
)

// ScalarType is the wire type of a non-localized attribute.
type ScalarType string

// Scalar types. Forms always carry strings; these drive coercion at submit time.
const (
	ScalarString ScalarType = "string"
	ScalarInt    ScalarType = "int"
	ScalarBool   ScalarType = "bool"
)

// Scalar describes a non-localized attribute of a kind.
type Scalar struct {
	Name     string     `json:"name"`
	Label    string     `json:"label"`
	Type     ScalarType `json:"type"`
	Required bool       `json:"required"`
	URL      bool       `json:"url,omitempty"` // must be an absolute URL
}

// LocalizedField describes a text field stored once per language.
type LocalizedField struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Required bool   `json:"required"`
	RichText bool   `json:"rich_text,omitempty"` // HTML produced by a rich text editor
}

// Connector links every created entity of a kind to a fixed parent aggregate.
type Connector struct {
	Relation string `json:"relation"` // e.g. "linkedin"
	ID       string `json:"id"`
}

// Schema is the per-kind configuration the generic engine is parameterized with.
type Schema struct {
	Kind       Kind             `json:"kind"`
	Model      string           `json:"model"`    // backend model name, e.g. "Posts"
	Singular   string           `json:"singular"` // human name used in notices, e.g. "Post"
	Scalars    []Scalar         `json:"scalars"`
	Localized  []LocalizedField `json:"localized"`
	HasImage   bool             `json:"has_image"`
	Connectors []Connector      `json:"connectors,omitempty"`
	// LabelScalar names the scalar used as list label. When empty the label is
	// LabelField in LabelLanguage.
	LabelScalar   string       `json:"label_scalar,omitempty"`
	LabelField    string       `json:"label_field,omitempty"`
	LabelLanguage LanguageCode `json:"label_language,omitempty"`
}

// Scalar returns the scalar definition with the given name.
func (s *Schema) Scalar(name string) (Scalar, bool) {
	for _, sc := range s.Scalars {
		if sc.Name == name {
			return sc, true
		}
	}
	return Scalar{}, false
}

// SlotKey returns the form slot name for a localized field: ("en", "aboutHobby") -> "enAboutHobby".
func SlotKey(lang LanguageCode, field string) string {
	if field == "" {
		return string(lang)
	}
	r, size := utf8.DecodeRuneInString(field)
	return string(lang) + string(unicode.ToUpper(r)) + field[size:]
}

// Slot describes one recognized key of the flat form surface.
type Slot struct {
	Key       string       `json:"key"`
	Label     string       `json:"label"`
	Required  bool         `json:"required"`
	Type      ScalarType   `json:"type"`
	Language  LanguageCode `json:"language,omitempty"`
	Field     string       `json:"field"`
	Localized bool         `json:"localized"`
	RichText  bool         `json:"rich_text,omitempty"`
	URL       bool         `json:"url,omitempty"`
}

// Slots enumerates the form surface for the given languages:
// scalars first, then every localized field per language.
func (s *Schema) Slots(langs []LanguageCode) []Slot {
	slots := make([]Slot, 0, len(s.Scalars)+len(s.Localized)*len(langs))
	for _, sc := range s.Scalars {
		slots = append(slots, Slot{
			Key:      sc.Name,
			Label:    sc.Label,
			Required: sc.Required,
			Type:     sc.Type,
			Field:    sc.Name,
			URL:      sc.URL,
		})
	}
	for _, lang := range langs {
		for _, f := range s.Localized {
			slots = append(slots, Slot{
				Key:       SlotKey(lang, f.Name),
				Label:     lang.Name() + " " + f.Label,
				Required:  f.Required,
				Type:      ScalarString,
				Language:  lang,
				Field:     f.Name,
				Localized: true,
				RichText:  f.RichText,
			})
		}
	}
	return slots
}

// Validate checks the schema is internally consistent.
func (s *Schema) Validate() error {
	if s.Kind == "" || s.Model == "" {
		return fmt.Errorf("schema: kind and model are required")
	}
	if len(s.Localized) == 0 {
		return fmt.Errorf("schema %s: at least one localized field is required", s.Kind)
	}
	seen := make(map[string]bool)
	for _, sc := range s.Scalars {
		if seen[sc.Name] {
			return fmt.Errorf("schema %s: duplicate scalar %q", s.Kind, sc.Name)
		}
		seen[sc.Name] = true
	}
	for _, f := range s.Localized {
		if seen[f.Name] {
			return fmt.Errorf("schema %s: duplicate field %q", s.Kind, f.Name)
		}
		seen[f.Name] = true
	}
	if s.LabelScalar != "" {
		if _, ok := s.Scalar(s.LabelScalar); !ok {
			return fmt.Errorf("schema %s: unknown label scalar %q", s.Kind, s.LabelScalar)
		}
	} else if !seen[s.LabelField] {
		return fmt.Errorf("schema %s: unknown label field %q", s.Kind, s.LabelField)
	}
	for _, c := range s.Connectors {
		if c.Relation == "" || c.ID == "" {
			return fmt.Errorf("schema %s: connector needs relation and id", s.Kind)
		}
	}
	return nil
}

// Noun returns the lowercase singular name, used in messages.
func (s *Schema) Noun() string {
	return strings.ToLower(s.Singular)
}
