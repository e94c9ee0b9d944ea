// Package providers contains dependency injection providers for the admin server.
package providers

import (
	"github.com/samber/do/v2"

	"github.com/folioadmin/folio-admin/internal/config"
	"github.com/folioadmin/folio-admin/internal/logger"
)

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Format:      cfg.Logger.Format,
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.Info("Starting Folio Admin",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"backend", cfg.Backend.Driver,
		"upload_provider", cfg.Upload.Provider,
		"languages", cfg.Catalog.Languages,
	)

	return log, nil
}
