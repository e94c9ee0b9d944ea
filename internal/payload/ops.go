package payload

import (
	"github.com/folioadmin/folio-admin/internal/codec"
	"github.com/folioadmin/folio-admin/internal/domain"
)

// Set marks a field as present with the given value in an update.
// A nil value clears the field.
type Set struct {
	Set any `json:"set"`
}

// Ref identifies a record by id.
type Ref struct {
	ID string `json:"id"`
}

// Connect links the new record to an existing parent.
type Connect struct {
	Connect Ref `json:"connect"`
}

// CreateMany inserts all translation records together with their entity.
type CreateMany struct {
	CreateMany CreateManyData `json:"createMany"`
}

// CreateManyData wraps the rows of a CreateMany.
type CreateManyData struct {
	Data []codec.TranslationInput `json:"data"`
}

// UpdateMany patches translation records selected by language code.
type UpdateMany struct {
	UpdateMany []UpdateManyEntry `json:"updateMany"`
}

// UpdateManyEntry is the patch for one language.
type UpdateManyEntry struct {
	Where LanguageWhere  `json:"where"`
	Data  map[string]Set `json:"data"`
}

// LanguageWhere selects translations by language code.
type LanguageWhere struct {
	LanguageCode Equals `json:"languageCode"`
}

// Equals is an equality filter.
type Equals struct {
	Equals domain.LanguageCode `json:"equals"`
}

// Patches converts the update-many entries back to codec patches.
func (u UpdateMany) Patches() []codec.TranslationPatch {
	out := make([]codec.TranslationPatch, 0, len(u.UpdateMany))
	for _, e := range u.UpdateMany {
		fields := make(map[string]string, len(e.Data))
		for k, s := range e.Data {
			if v, ok := s.Set.(string); ok {
				fields[k] = v
			}
		}
		out = append(out, codec.TranslationPatch{LanguageCode: e.Where.LanguageCode.Equals, Fields: fields})
	}
	return out
}
