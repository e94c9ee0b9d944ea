package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/folioadmin/folio-admin/internal/api"
	"github.com/folioadmin/folio-admin/internal/config"
	"github.com/folioadmin/folio-admin/internal/domain"
	"github.com/folioadmin/folio-admin/internal/listview"
	"github.com/folioadmin/folio-admin/internal/logger"
)

// Version is reported in the OpenAPI document; set at build time.
var Version = "dev"

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	api *api.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := h.Server.Shutdown(ctx)
	h.api.Close()
	return err
}

// ProvideHTTPServer provides the HTTP server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	catalog := do.MustInvoke[*domain.Catalog](i)
	lists := do.MustInvoke[*listview.Registry](i)
	sessions := do.MustInvoke[*SessionsHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	backend := do.MustInvoke[*BackendHandle](i)
	uploader := do.MustInvoke[*UploaderHandle](i)

	handler := api.NewServer(api.Options{
		Catalog:     catalog,
		Lists:       lists,
		Sessions:    sessions.Controllers,
		Events:      sseHandle.Manager,
		Backend:     backend.Client,
		Images:      uploader.Storage,
		Version:     Version,
		CORS:        cfg.Server.CORSOrigins,
		UploadMax:   cfg.Upload.MaxBytes,
		UploadRPS:   cfg.Upload.RPS,
		UploadBurst: cfg.Upload.Burst,
	}, log.Logger)

	srv := &http.Server{
		Addr:         cfg.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv, api: handler}, nil
}
