package providers

import (
	"context"
	"fmt"

	"github.com/samber/do/v2"

	"github.com/folioadmin/folio-admin/internal/config"
	"github.com/folioadmin/folio-admin/internal/logger"
	"github.com/folioadmin/folio-admin/internal/sse"
	"github.com/folioadmin/folio-admin/internal/store/sqlite"
	"github.com/folioadmin/folio-admin/internal/transport"
	"github.com/folioadmin/folio-admin/internal/transport/graphql"
)

// SSEManagerHandle wraps the SSE manager with its context for lifecycle management.
type SSEManagerHandle struct {
	*sse.Manager
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *SSEManagerHandle) Shutdown() error {
	h.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Manager.Shutdown(ctx)
}

// ProvideSSEManager provides the server-sent events manager.
func ProvideSSEManager(i do.Injector) (*SSEManagerHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	manager := sse.NewManager(log.Logger)

	ctx, cancel := context.WithCancel(context.Background())
	go manager.Start(ctx)

	log.Info("SSE manager started")

	return &SSEManagerHandle{
		Manager: manager,
		cancel:  cancel,
	}, nil
}

// BackendHandle wraps the catalog backend with shutdown capability.
type BackendHandle struct {
	transport.Client
	close func() error
}

// Shutdown implements do.Shutdownable.
func (h *BackendHandle) Shutdown() error {
	if h.close == nil {
		return nil
	}
	return h.close()
}

// ProvideBackend provides the configured catalog backend: the embedded
// SQLite store or the remote GraphQL API.
func ProvideBackend(i do.Injector) (*BackendHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	switch cfg.Backend.Driver {
	case config.BackendSQLite:
		st, err := sqlite.Open(cfg.Backend.SQLitePath, log.Logger)
		if err != nil {
			return nil, fmt.Errorf("open sqlite backend: %w", err)
		}
		log.Info("SQLite backend initialized", "path", cfg.Backend.SQLitePath)
		return &BackendHandle{Client: st, close: st.Close}, nil

	case config.BackendGraphQL:
		client, err := graphql.New(graphql.Config{
			Endpoint: cfg.Backend.Endpoint,
			Token:    cfg.Backend.Token,
			Timeout:  cfg.Backend.Timeout,
			RPS:      cfg.Backend.RPS,
			Burst:    cfg.Backend.Burst,
			IDType:   cfg.Backend.IDType,
		}, log.Logger)
		if err != nil {
			return nil, err
		}
		log.Info("GraphQL backend initialized", "endpoint", cfg.Backend.Endpoint)
		return &BackendHandle{Client: client, close: func() error {
			client.Close()
			return nil
		}}, nil

	default:
		return nil, fmt.Errorf("unknown backend driver %q", cfg.Backend.Driver)
	}
}
