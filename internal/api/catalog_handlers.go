package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/folioadmin/folio-admin/internal/domain"
	"github.com/folioadmin/folio-admin/internal/errors"
)

func (s *Server) registerCatalogRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listKinds",
		Method:      http.MethodGet,
		Path:        "/api/v1/kinds",
		Summary:     "List kinds",
		Description: "Returns every entity kind with its form surface",
		Tags:        []string{"Catalog"},
	}, s.handleListKinds)

	huma.Register(s.api, huma.Operation{
		OperationID: "getKind",
		Method:      http.MethodGet,
		Path:        "/api/v1/kinds/{kind}",
		Summary:     "Get kind",
		Description: "Returns one kind with its form surface",
		Tags:        []string{"Catalog"},
	}, s.handleGetKind)
}

// KindResponse describes an entity kind and the form slots it accepts.
type KindResponse struct {
	Kind      domain.Kind           `json:"kind" doc:"Kind identifier"`
	Model     string                `json:"model" doc:"Backend model name"`
	Singular  string                `json:"singular" doc:"Human name used in notices"`
	HasImage  bool                  `json:"has_image" doc:"Whether entities carry an image"`
	Languages []domain.LanguageCode `json:"languages" doc:"Supported languages in order"`
	Slots     []domain.Slot         `json:"slots" doc:"Recognized form keys"`
}

// ListKindsOutput wraps the kinds list for Huma.
type ListKindsOutput struct {
	Body struct {
		Kinds []KindResponse `json:"kinds" doc:"All kinds"`
	}
}

// KindInput selects a kind by path.
type KindInput struct {
	Kind string `path:"kind" doc:"Entity kind, e.g. post"`
}

// KindOutput wraps a kind for Huma.
type KindOutput struct {
	Body KindResponse
}

func (s *Server) kindResponse(schema *domain.Schema) KindResponse {
	langs := s.catalog.Languages()
	return KindResponse{
		Kind:      schema.Kind,
		Model:     schema.Model,
		Singular:  schema.Singular,
		HasImage:  schema.HasImage,
		Languages: langs,
		Slots:     schema.Slots(langs),
	}
}

func (s *Server) schema(kind string) (*domain.Schema, error) {
	schema, err := s.catalog.Schema(domain.Kind(kind))
	if err != nil {
		return nil, errors.NotFoundf("unknown kind %q", kind)
	}
	return schema, nil
}

func (s *Server) handleListKinds(_ context.Context, _ *struct{}) (*ListKindsOutput, error) {
	out := &ListKindsOutput{}
	for _, schema := range s.catalog.Schemas() {
		out.Body.Kinds = append(out.Body.Kinds, s.kindResponse(schema))
	}
	return out, nil
}

func (s *Server) handleGetKind(_ context.Context, input *KindInput) (*KindOutput, error) {
	schema, err := s.schema(input.Kind)
	if err != nil {
		return nil, err
	}
	return &KindOutput{Body: s.kindResponse(schema)}, nil
}
