// Package payload builds the nested mutation variables for creating and
// updating catalog entities. Build is pure: it performs no I/O and only reads
// the form, the image reference and the identity of the base snapshot.
package payload

import (
	"maps"
	"slices"
	"strings"

	"github.com/folioadmin/folio-admin/internal/codec"
	"github.com/folioadmin/folio-admin/internal/domain"
	"github.com/folioadmin/folio-admin/internal/errors"
)

// Mode selects which payload shape is produced.
type Mode string

// Payload modes.
const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

// Reserved payload keys.
const (
	KeyImage        = "image"
	KeyTranslations = "translations"
)

// Request is the input to Build.
type Request struct {
	Mode      Mode
	Schema    *domain.Schema
	Base      *domain.Entity // nil in create mode
	Form      domain.Form
	Image     *string // resolved upload reference, nil when absent
	Languages []domain.LanguageCode
}

// Payload is a built mutation. Data holds the nested operation object.
type Payload struct {
	Mode  Mode
	Kind  domain.Kind
	Model string
	ID    string // entity id, edit mode only
	Data  map[string]any
}

// Variable names of the create and update mutations.
const (
	CreateVariable = "input"
	UpdateVariable = "data"
)

// Variables renders the variables of the create/update mutation.
// Create passes the object as $input, update as $data next to $id.
func (p *Payload) Variables() map[string]any {
	if p.Mode == ModeEdit {
		return map[string]any{"id": p.ID, UpdateVariable: p.Data}
	}
	return map[string]any{CreateVariable: p.Data}
}

// Build produces the create or update payload for req.
func Build(req Request) (*Payload, error) {
	if req.Schema == nil {
		return nil, errors.InvalidModef("payload: schema is required")
	}
	switch req.Mode {
	case ModeCreate:
		if req.Base != nil {
			return nil, errors.InvalidModef("payload: create mode with base entity %q", req.Base.ID)
		}
	case ModeEdit:
		if req.Base == nil {
			return nil, errors.InvalidModef("payload: edit mode without base entity")
		}
	default:
		return nil, errors.InvalidModef("payload: unknown mode %q", req.Mode)
	}

	data, err := scalars(req)
	if err != nil {
		return nil, err
	}

	p := &Payload{
		Mode:  req.Mode,
		Kind:  req.Schema.Kind,
		Model: req.Schema.Model,
		Data:  data,
	}

	if req.Mode == ModeCreate {
		buildCreate(p, req)
	} else {
		p.ID = req.Base.ID
		buildEdit(p, req)
	}
	return p, nil
}

func buildCreate(p *Payload, req Request) {
	if req.Schema.HasImage && req.Image != nil && *req.Image != "" {
		p.Data[KeyImage] = *req.Image
	}
	p.Data[KeyTranslations] = CreateMany{
		CreateMany: CreateManyData{Data: codec.EncodeForCreate(req.Schema, req.Form, req.Languages)},
	}
	for _, c := range req.Schema.Connectors {
		p.Data[c.Relation] = Connect{Connect: Ref{ID: c.ID}}
	}
}

func buildEdit(p *Payload, req Request) {
	if req.Schema.HasImage {
		var ref any
		if req.Image != nil && *req.Image != "" {
			ref = *req.Image
		}
		p.Data[KeyImage] = Set{Set: ref}
	}

	patches := codec.EncodeForUpdate(req.Schema, req.Form, req.Languages)
	if len(patches) == 0 {
		return
	}
	entries := make([]UpdateManyEntry, 0, len(patches))
	for _, patch := range patches {
		fields := make(map[string]Set, len(patch.Fields))
		for k, v := range patch.Fields {
			fields[k] = Set{Set: v}
		}
		entries = append(entries, UpdateManyEntry{
			Where: LanguageWhere{LanguageCode: Equals{Equals: patch.LanguageCode}},
			Data:  fields,
		})
	}
	p.Data[KeyTranslations] = UpdateMany{UpdateMany: entries}
}

// scalars coerces the non-localized slots. In edit mode every value is
// wrapped in Set; an emptied optional slot is set to null, an undefined one
// is left out.
func scalars(req Request) (map[string]any, error) {
	data := make(map[string]any, len(req.Schema.Scalars)+3)
	details := make(map[string]string)

	for _, sc := range req.Schema.Scalars {
		raw, ok := req.Form.Get(sc.Name)
		if ok {
			raw = strings.TrimSpace(raw)
		}
		if !ok || raw == "" {
			if sc.Required {
				details[sc.Name] = "is required"
				continue
			}
			if ok && req.Mode == ModeEdit {
				data[sc.Name] = Set{Set: nil}
			}
			continue
		}

		v, err := codec.ParseScalar(sc, raw)
		if err != nil {
			var e *errors.Error
			if errors.As(err, &e) {
				if d, ok := e.Details.(map[string]string); ok {
					maps.Copy(details, d)
					continue
				}
			}
			return nil, err
		}
		if req.Mode == ModeEdit {
			data[sc.Name] = Set{Set: v}
		} else {
			data[sc.Name] = v
		}
	}

	if len(details) > 0 {
		keys := slices.Sorted(maps.Keys(details))
		return nil, errors.ValidationWithDetails(
			"invalid fields: "+strings.Join(keys, ", "),
			details,
		)
	}
	return data, nil
}
