package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/folioadmin/folio-admin/internal/domain"
	"github.com/folioadmin/folio-admin/internal/errors"
	"github.com/folioadmin/folio-admin/internal/session"
)

func (s *Server) registerSessionRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "beginSession",
		Method:      http.MethodPost,
		Path:        "/api/v1/kinds/{kind}/session",
		Summary:     "Begin session",
		Description: "Opens a create session, or an edit session for an existing entity",
		Tags:        []string{"Sessions"},
	}, s.handleBeginSession)

	huma.Register(s.api, huma.Operation{
		OperationID: "getSession",
		Method:      http.MethodGet,
		Path:        "/api/v1/kinds/{kind}/session",
		Summary:     "Get session",
		Description: "Returns the current session state of a kind",
		Tags:        []string{"Sessions"},
	}, s.handleGetSession)

	huma.Register(s.api, huma.Operation{
		OperationID: "cancelSession",
		Method:      http.MethodDelete,
		Path:        "/api/v1/kinds/{kind}/session",
		Summary:     "Cancel session",
		Description: "Closes the session and discards any pending upload",
		Tags:        []string{"Sessions"},
	}, s.handleCancelSession)

	huma.Register(s.api, huma.Operation{
		OperationID: "submitSession",
		Method:      http.MethodPost,
		Path:        "/api/v1/kinds/{kind}/session/submit",
		Summary:     "Submit session",
		Description: "Validates the form and creates or updates the entity",
		Tags:        []string{"Sessions"},
	}, s.handleSubmitSession)
}

// BeginSessionInput opens a session.
type BeginSessionInput struct {
	Kind string `path:"kind" doc:"Entity kind"`
	Body struct {
		Mode     string `json:"mode" enum:"create,edit" doc:"Session mode"`
		EntityID string `json:"entity_id,omitempty" doc:"Entity to edit, required in edit mode"`
	}
}

// SessionOutput wraps a session snapshot for Huma.
type SessionOutput struct {
	Body session.Snapshot
}

// SubmitSessionInput carries the flat form values.
type SubmitSessionInput struct {
	Kind string `path:"kind" doc:"Entity kind"`
	Body struct {
		Values domain.Form `json:"values,omitempty" doc:"Form values keyed by slot; omitted submits the current form"`
	}
}

// SubmitSessionOutput wraps a submit result for Huma.
type SubmitSessionOutput struct {
	Body session.Result
}

func (s *Server) handleBeginSession(ctx context.Context, input *BeginSessionInput) (*SessionOutput, error) {
	ctrl, err := s.controller(input.Kind)
	if err != nil {
		return nil, err
	}

	switch input.Body.Mode {
	case "create":
		err = ctrl.BeginCreate()
	case "edit":
		if input.Body.EntityID == "" {
			return nil, errors.Validation("entity_id is required in edit mode")
		}
		view, verr := s.lists.View(ctrl.Schema().Kind)
		if verr != nil {
			return nil, verr
		}
		entity, ferr := view.Find(ctx, input.Body.EntityID)
		if ferr != nil {
			return nil, ferr
		}
		err = ctrl.BeginEdit(entity)
	default:
		return nil, errors.Validationf("unknown session mode %q", input.Body.Mode)
	}
	if err != nil {
		return nil, err
	}
	return &SessionOutput{Body: ctrl.Snapshot()}, nil
}

func (s *Server) handleGetSession(_ context.Context, input *KindInput) (*SessionOutput, error) {
	ctrl, err := s.controller(input.Kind)
	if err != nil {
		return nil, err
	}
	return &SessionOutput{Body: ctrl.Snapshot()}, nil
}

func (s *Server) handleCancelSession(_ context.Context, input *KindInput) (*SessionOutput, error) {
	ctrl, err := s.controller(input.Kind)
	if err != nil {
		return nil, err
	}
	ctrl.Cancel()
	return &SessionOutput{Body: ctrl.Snapshot()}, nil
}

func (s *Server) handleSubmitSession(ctx context.Context, input *SubmitSessionInput) (*SubmitSessionOutput, error) {
	ctrl, err := s.controller(input.Kind)
	if err != nil {
		return nil, err
	}
	res, err := ctrl.Submit(ctx, input.Body.Values)
	if err != nil {
		return nil, err
	}
	return &SubmitSessionOutput{Body: *res}, nil
}
