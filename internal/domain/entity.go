package domain

import (
	"maps"
	"time"
)

// Entity is a top-level catalog record of a given kind.
// It exclusively owns its translations; they have no lifecycle of their own.
type Entity struct {
	ID           string         `json:"id"`
	Kind         Kind           `json:"kind"`
	Attributes   map[string]any `json:"attributes,omitempty"` // non-localized scalars, typed as loaded
	Image        *string        `json:"image,omitempty"`
	ParentID     string         `json:"parent_id,omitempty"` // back-reference to the parent aggregate, if any
	Translations []Translation  `json:"translations"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// Translation is the per-language child record holding localized text fields.
type Translation struct {
	ID           string            `json:"id,omitempty"`
	LanguageCode LanguageCode      `json:"language_code"`
	Fields       map[string]string `json:"fields"`
}

// Translation returns the translation for the given language, if loaded.
func (e *Entity) Translation(code LanguageCode) (*Translation, bool) {
	for i := range e.Translations {
		if e.Translations[i].LanguageCode == code {
			return &e.Translations[i], true
		}
	}
	return nil, false
}

// ImageRef returns the image reference and whether one is set.
func (e *Entity) ImageRef() (string, bool) {
	if e.Image == nil || *e.Image == "" {
		return "", false
	}
	return *e.Image, true
}

// MissingLanguages lists the members of langs with no translation record.
// Loading tolerates gaps; callers use this for diagnostics.
func (e *Entity) MissingLanguages(langs []LanguageCode) []LanguageCode {
	var missing []LanguageCode
	for _, code := range langs {
		if _, ok := e.Translation(code); !ok {
			missing = append(missing, code)
		}
	}
	return missing
}

// Form is the flat, language-expanded representation the editing surface works on.
// One slot per non-localized scalar and one per (field, language) pair named <lang><Field>.
// A missing key means the slot is undefined.
type Form map[string]string

// Get returns the slot value and whether the slot is defined.
func (f Form) Get(key string) (string, bool) {
	v, ok := f[key]
	return v, ok
}

// Clone returns an independent copy of the form.
func (f Form) Clone() Form {
	return maps.Clone(f)
}
