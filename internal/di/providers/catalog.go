package providers

import (
	"context"
	"errors"

	"github.com/samber/do/v2"

	"github.com/folioadmin/folio-admin/internal/config"
	"github.com/folioadmin/folio-admin/internal/domain"
	"github.com/folioadmin/folio-admin/internal/listview"
	"github.com/folioadmin/folio-admin/internal/logger"
	"github.com/folioadmin/folio-admin/internal/session"
	"github.com/folioadmin/folio-admin/internal/sse"
	"github.com/folioadmin/folio-admin/internal/upload"
	"github.com/folioadmin/folio-admin/internal/validation"
)

// ProvideCatalog provides the kind catalog.
func ProvideCatalog(i do.Injector) (*domain.Catalog, error) {
	cfg := do.MustInvoke[*config.Config](i)

	return domain.NewCatalog(domain.CatalogConfig{
		Languages:  cfg.Catalog.Languages,
		LinkedinID: cfg.Catalog.LinkedinID,
		ProfileID:  cfg.Catalog.ProfileID,
	})
}

// ProvideListRegistry provides the per-kind list views.
func ProvideListRegistry(i do.Injector) (*listview.Registry, error) {
	catalog := do.MustInvoke[*domain.Catalog](i)
	backend := do.MustInvoke[*BackendHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return listview.NewRegistry(catalog, backend.Client, sseHandle.Manager, log.Logger), nil
}

// SessionsHandle holds one session controller per kind.
type SessionsHandle struct {
	Controllers map[domain.Kind]*session.Controller
}

// Shutdown implements do.Shutdownable. It waits for in-flight uploads.
func (h *SessionsHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	for _, ctrl := range h.Controllers {
		if err := ctrl.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ProvideSessions provides a session controller for every kind. Settled
// uploads are pushed to event stream subscribers.
func ProvideSessions(i do.Injector) (*SessionsHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	catalog := do.MustInvoke[*domain.Catalog](i)
	backend := do.MustInvoke[*BackendHandle](i)
	uploader := do.MustInvoke[*UploaderHandle](i)
	lists := do.MustInvoke[*listview.Registry](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	validator := validation.New()
	sanitizer := validation.NewSanitizer()

	onUpload := func(kind domain.Kind, s upload.Snapshot) {
		sseHandle.Emit(sse.NewUploadSettledEvent(kind, string(s.State), s.Reference, s.Error))
	}

	controllers := make(map[domain.Kind]*session.Controller)
	for _, schema := range catalog.Schemas() {
		controllers[schema.Kind] = session.NewController(session.Config{
			SubmitWait:    cfg.Upload.SubmitWait,
			UploadTimeout: cfg.Upload.Timeout,
		}, session.Deps{
			Schema:         schema,
			Languages:      catalog.Languages(),
			Mutator:        backend.Client,
			Uploader:       uploader.Uploader,
			Validator:      validator,
			Sanitizer:      sanitizer,
			Invalidator:    lists,
			Logger:         log.Logger,
			UploadListener: onUpload,
		})
	}

	log.Info("Session controllers ready", "kinds", len(controllers))

	return &SessionsHandle{Controllers: controllers}, nil
}
