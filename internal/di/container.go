// Package di provides dependency injection configuration for the admin server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/folioadmin/folio-admin/internal/config"
	"github.com/folioadmin/folio-admin/internal/di/providers"
	"github.com/folioadmin/folio-admin/internal/domain"
	"github.com/folioadmin/folio-admin/internal/listview"
	"github.com/folioadmin/folio-admin/internal/logger"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideSSEManager)

	// Backend and uploads
	do.Provide(injector, providers.ProvideBackend)
	do.Provide(injector, providers.ProvideUploader)

	// Catalog and editors
	do.Provide(injector, providers.ProvideCatalog)
	do.Provide(injector, providers.ProvideListRegistry)
	do.Provide(injector, providers.ProvideSessions)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services. Invoking the HTTP server last starts
// it once everything it depends on is ready.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*providers.SSEManagerHandle](injector)

	if _, err := do.Invoke[*providers.BackendHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.UploaderHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*domain.Catalog](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*listview.Registry](injector)
	_ = do.MustInvoke[*providers.SessionsHandle](injector)

	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)
	return nil
}
