// Package transport declares the query and mutate collaborators the editor
// talks to. Implementations live in transport/graphql (remote API) and
// store/sqlite (embedded backend).
package transport

import (
	"context"

	"github.com/folioadmin/folio-admin/internal/domain"
	"github.com/folioadmin/folio-admin/internal/payload"
)

// Querier loads collections.
type Querier interface {
	// FetchAll returns every entity of the schema's kind with its translations.
	FetchAll(ctx context.Context, schema *domain.Schema) ([]*domain.Entity, error)
}

// Mutator applies built payloads. All calls are side-effecting and
// invalidate the list on success.
type Mutator interface {
	Create(ctx context.Context, schema *domain.Schema, p *payload.Payload) (*domain.Entity, error)
	Update(ctx context.Context, schema *domain.Schema, id string, p *payload.Payload) (*domain.Entity, error)
	Delete(ctx context.Context, schema *domain.Schema, id string) error
}

// Client is a full backend.
type Client interface {
	Querier
	Mutator
}
