package graphql

import (
	"encoding/json"
	"fmt"

	"github.com/folioadmin/folio-admin/internal/codec"
	"github.com/folioadmin/folio-admin/internal/domain"
)

type rawEntity map[string]any

// toEntity maps a selected entity object onto the domain shape. Numbers
// arrive as json.Number; integer scalars are narrowed to int64.
func toEntity(s *domain.Schema, raw rawEntity) (*domain.Entity, error) {
	id, ok := codec.FormatScalar(raw["id"])
	if !ok || id == "" {
		return nil, fmt.Errorf("entity without id")
	}

	e := &domain.Entity{
		ID:         id,
		Kind:       s.Kind,
		Attributes: make(map[string]any, len(s.Scalars)),
	}

	for _, sc := range s.Scalars {
		v, ok := raw[sc.Name]
		if !ok || v == nil {
			continue
		}
		if n, isNum := v.(json.Number); isNum && sc.Type == domain.ScalarInt {
			i, err := n.Int64()
			if err != nil {
				return nil, fmt.Errorf("%s %s: %s is not an integer: %w", s.Kind, id, sc.Name, err)
			}
			v = i
		}
		e.Attributes[sc.Name] = v
	}

	if img, ok := raw["image"].(string); ok && img != "" {
		e.Image = &img
	}

	trs, _ := raw["translations"].([]any)
	for _, item := range trs {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		code, _ := obj["languageCode"].(string)
		if code == "" {
			continue
		}
		tr := domain.Translation{
			LanguageCode: domain.LanguageCode(code),
			Fields:       make(map[string]string, len(s.Localized)),
		}
		tr.ID, _ = codec.FormatScalar(obj["id"])
		for _, f := range s.Localized {
			if v, ok := obj[f.Name].(string); ok {
				tr.Fields[f.Name] = v
			}
		}
		e.Translations = append(e.Translations, tr)
	}

	return e, nil
}
