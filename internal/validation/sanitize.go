package validation

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/unicode/norm"

	"github.com/folioadmin/folio-admin/internal/domain"
)

// Sanitizer normalizes form text before validation.
// Every value is NFC-normalized so Georgian text typed on different
// keyboards compares equal. Rich-text fields are passed through a
// user-generated-content HTML policy; plain scalars are trimmed.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer creates a sanitizer with the UGC policy.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{policy: bluemonday.UGCPolicy()}
}

// Sanitize returns a cleaned copy of form. Undefined slots stay undefined.
func (s *Sanitizer) Sanitize(schema *domain.Schema, form domain.Form, langs []domain.LanguageCode) domain.Form {
	out := make(domain.Form, len(form))
	for k, v := range form {
		out[k] = norm.NFC.String(v)
	}

	for _, sc := range schema.Scalars {
		if v, ok := out[sc.Name]; ok {
			out[sc.Name] = strings.TrimSpace(v)
		}
	}
	for _, lang := range langs {
		for _, f := range schema.Localized {
			if !f.RichText {
				continue
			}
			key := domain.SlotKey(lang, f.Name)
			if v, ok := out[key]; ok {
				out[key] = s.policy.Sanitize(v)
			}
		}
	}
	return out
}
