package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/folioadmin/folio-admin/internal/domain"
	"github.com/folioadmin/folio-admin/internal/listview"
	"github.com/folioadmin/folio-admin/internal/session"
)

func (s *Server) registerListRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listEntities",
		Method:      http.MethodGet,
		Path:        "/api/v1/kinds/{kind}/entities",
		Summary:     "List entities",
		Description: "Returns the labelled rows of a kind, re-fetching when the list is stale",
		Tags:        []string{"Entities"},
	}, s.handleListEntities)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteEntity",
		Method:      http.MethodDelete,
		Path:        "/api/v1/kinds/{kind}/entities/{id}",
		Summary:     "Delete entity",
		Description: "Deletes an entity in the backend and invalidates the list",
		Tags:        []string{"Entities"},
	}, s.handleDeleteEntity)
}

// ListEntitiesOutput wraps the list state for Huma.
type ListEntitiesOutput struct {
	Body listview.State
}

// EntityPathInput selects an entity of a kind.
type EntityPathInput struct {
	Kind string `path:"kind" doc:"Entity kind"`
	ID   string `path:"id" doc:"Entity ID"`
}

// NoticeOutput wraps a user-facing notice for Huma.
type NoticeOutput struct {
	Body session.Notice
}

func (s *Server) handleListEntities(ctx context.Context, input *KindInput) (*ListEntitiesOutput, error) {
	view, err := s.lists.View(domain.Kind(input.Kind))
	if err != nil {
		return nil, err
	}
	if _, err := view.Rows(ctx); err != nil {
		return nil, err
	}
	state := view.State()
	if state.Rows == nil {
		state.Rows = []listview.Row{}
	}
	return &ListEntitiesOutput{Body: state}, nil
}

func (s *Server) handleDeleteEntity(ctx context.Context, input *EntityPathInput) (*NoticeOutput, error) {
	schema, err := s.schema(input.Kind)
	if err != nil {
		return nil, err
	}
	view, err := s.lists.View(schema.Kind)
	if err != nil {
		return nil, err
	}
	if err := view.RequestDelete(ctx, input.ID); err != nil {
		return nil, err
	}
	return &NoticeOutput{Body: session.Deleted(schema)}, nil
}
