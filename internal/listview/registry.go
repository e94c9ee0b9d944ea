package listview

import (
	"log/slog"

	"github.com/folioadmin/folio-admin/internal/domain"
	"github.com/folioadmin/folio-admin/internal/errors"
	"github.com/folioadmin/folio-admin/internal/transport"
)

// Registry holds one view per kind of the catalog.
type Registry struct {
	views map[domain.Kind]*View
}

// NewRegistry creates a view for every schema of the catalog.
func NewRegistry(catalog *domain.Catalog, client transport.Client, emitter Emitter, logger *slog.Logger) *Registry {
	r := &Registry{views: make(map[domain.Kind]*View)}
	for _, s := range catalog.Schemas() {
		r.views[s.Kind] = NewView(s, client, emitter, logger)
	}
	return r
}

// View returns the view of a kind.
func (r *Registry) View(kind domain.Kind) (*View, error) {
	v, ok := r.views[kind]
	if !ok {
		return nil, errors.NotFoundf("unknown kind %q", kind)
	}
	return v, nil
}

// Invalidate marks a kind's list stale.
func (r *Registry) Invalidate(kind domain.Kind, cause string) {
	if v, ok := r.views[kind]; ok {
		v.Invalidate(cause)
	}
}
