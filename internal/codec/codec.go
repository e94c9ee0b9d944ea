// Package codec maps between the flat edit form and the normalized
// entity-plus-translations shape. All functions are pure.
package codec

import (
	"encoding/json"
	"maps"
	"strconv"

	"github.com/folioadmin/folio-admin/internal/domain"
)

// TranslationInput is one per-language record inserted when an entity is created.
// It marshals flat: {"languageCode": "en", "description": "..."}.
type TranslationInput struct {
	LanguageCode domain.LanguageCode
	Fields       map[string]string
}

// MarshalJSON implements json.Marshaler.
func (t TranslationInput) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(t.Fields)+1)
	for k, v := range t.Fields {
		out[k] = v
	}
	out["languageCode"] = t.LanguageCode
	return json.Marshal(out)
}

// TranslationPatch is the update for one language, selected by language code.
// Translation ids are never needed by the client.
type TranslationPatch struct {
	LanguageCode domain.LanguageCode
	Fields       map[string]string
}

// Decode projects an entity into the flat form.
// Missing translations leave their slots undefined; numbers and booleans are
// stringified so the form only ever holds strings.
func Decode(schema *domain.Schema, entity *domain.Entity, langs []domain.LanguageCode) domain.Form {
	form := make(domain.Form)
	if entity == nil {
		return form
	}

	for _, sc := range schema.Scalars {
		v, ok := entity.Attributes[sc.Name]
		if !ok || v == nil {
			continue
		}
		if s, ok := FormatScalar(v); ok {
			form[sc.Name] = s
		}
	}

	for _, lang := range langs {
		tr, ok := entity.Translation(lang)
		if !ok {
			continue
		}
		for _, f := range schema.Localized {
			if v, ok := tr.Fields[f.Name]; ok {
				form[domain.SlotKey(lang, f.Name)] = v
			}
		}
	}

	return form
}

// EncodeForCreate emits exactly one translation object per supported language,
// whatever slots were touched. Undefined slots are left out of that object.
func EncodeForCreate(schema *domain.Schema, form domain.Form, langs []domain.LanguageCode) []TranslationInput {
	out := make([]TranslationInput, 0, len(langs))
	for _, lang := range langs {
		out = append(out, TranslationInput{
			LanguageCode: lang,
			Fields:       extract(schema, form, lang),
		})
	}
	return out
}

// EncodeForUpdate extracts the same fields as EncodeForCreate, packaged as
// per-language patches keyed by language code. A language with no defined
// slot yields no patch so its stored record is left untouched.
func EncodeForUpdate(schema *domain.Schema, form domain.Form, langs []domain.LanguageCode) []TranslationPatch {
	out := make([]TranslationPatch, 0, len(langs))
	for _, lang := range langs {
		fields := extract(schema, form, lang)
		if len(fields) == 0 {
			continue
		}
		out = append(out, TranslationPatch{LanguageCode: lang, Fields: fields})
	}
	return out
}

// ApplyPatches returns a copy of translations with patches applied by language code.
// Patches for languages without a record match nothing, as a keyed update-many would.
func ApplyPatches(translations []domain.Translation, patches []TranslationPatch) []domain.Translation {
	out := make([]domain.Translation, len(translations))
	for i, tr := range translations {
		out[i] = domain.Translation{
			ID:           tr.ID,
			LanguageCode: tr.LanguageCode,
			Fields:       maps.Clone(tr.Fields),
		}
		if out[i].Fields == nil {
			out[i].Fields = make(map[string]string)
		}
	}
	for _, p := range patches {
		for i := range out {
			if out[i].LanguageCode != p.LanguageCode {
				continue
			}
			maps.Copy(out[i].Fields, p.Fields)
		}
	}
	return out
}

func extract(schema *domain.Schema, form domain.Form, lang domain.LanguageCode) map[string]string {
	fields := make(map[string]string, len(schema.Localized))
	for _, f := range schema.Localized {
		if v, ok := form.Get(domain.SlotKey(lang, f.Name)); ok {
			fields[f.Name] = v
		}
	}
	return fields
}

// FormatScalar renders a loaded attribute value in its form representation.
func FormatScalar(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case int:
		return strconv.Itoa(val), true
	case int32:
		return strconv.FormatInt(int64(val), 10), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10), true
		}
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case json.Number:
		return val.String(), true
	case bool:
		return strconv.FormatBool(val), true
	default:
		return "", false
	}
}
