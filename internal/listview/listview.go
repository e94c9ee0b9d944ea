// Package listview projects a kind's collection into labelled rows and
// dispatches row actions. After any successful mutation the list is marked
// stale and fully re-fetched on next read; it is never patched locally.
package listview

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/folioadmin/folio-admin/internal/codec"
	"github.com/folioadmin/folio-admin/internal/domain"
	"github.com/folioadmin/folio-admin/internal/errors"
	"github.com/folioadmin/folio-admin/internal/sse"
	"github.com/folioadmin/folio-admin/internal/transport"
)

// Emitter publishes invalidation events.
type Emitter interface {
	Emit(event sse.Event)
}

// Row is one rendered list entry.
type Row struct {
	Entity *domain.Entity `json:"entity"`
	Label  string         `json:"label"`
}

// State is the query signal set of a view.
type State struct {
	Rows      []Row     `json:"rows"`
	Loading   bool      `json:"loading"`
	Stale     bool      `json:"stale"`
	Error     string    `json:"error,omitempty"`
	FetchedAt time.Time `json:"fetched_at,omitzero"`
}

// View is the list projection of one kind.
type View struct {
	schema  *domain.Schema
	client  transport.Client
	emitter Emitter
	logger  *slog.Logger

	fetchMu sync.Mutex // serializes fetches

	mu        sync.Mutex
	rows      []Row
	stale     bool
	version   uint64 // bumped by every invalidation
	loading   bool
	lastErr   error
	fetchedAt time.Time
}

// NewView creates a view that fetches on first read.
func NewView(schema *domain.Schema, client transport.Client, emitter Emitter, logger *slog.Logger) *View {
	return &View{
		schema:  schema,
		client:  client,
		emitter: emitter,
		logger:  logger.With("kind", schema.Kind),
		stale:   true,
	}
}

// Render derives the display label of every entity, in collection order.
func (v *View) Render(entities []*domain.Entity) []Row {
	rows := make([]Row, 0, len(entities))
	for _, e := range entities {
		rows = append(rows, Row{Entity: e, Label: Label(v.schema, e)})
	}
	return rows
}

// Label returns the kind-specific display label of an entity, falling back
// to its id when the labelling value is absent.
func Label(schema *domain.Schema, e *domain.Entity) string {
	if schema.LabelScalar != "" {
		if s, ok := codec.FormatScalar(e.Attributes[schema.LabelScalar]); ok && s != "" {
			return s
		}
		return e.ID
	}
	if tr, ok := e.Translation(schema.LabelLanguage); ok {
		if s := tr.Fields[schema.LabelField]; s != "" {
			return s
		}
	}
	return e.ID
}

// Rows returns the current rows, re-fetching the whole collection when stale.
// An invalidation that lands during a fetch keeps the list stale.
func (v *View) Rows(ctx context.Context) ([]Row, error) {
	v.fetchMu.Lock()
	defer v.fetchMu.Unlock()

	v.mu.Lock()
	if !v.stale {
		rows := v.rows
		v.mu.Unlock()
		return rows, nil
	}
	v.loading = true
	version := v.version
	v.mu.Unlock()

	entities, err := v.client.FetchAll(ctx, v.schema)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.loading = false
	if err != nil {
		v.lastErr = err
		v.logger.Error("fetch failed", "error", err)
		return nil, err
	}

	v.rows = v.Render(entities)
	v.stale = v.version != version
	v.lastErr = nil
	v.fetchedAt = time.Now()
	v.logger.Debug("list fetched", "rows", len(v.rows))
	return v.rows, nil
}

// Find returns the loaded entity with the given id.
func (v *View) Find(ctx context.Context, id string) (*domain.Entity, error) {
	rows, err := v.Rows(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		if r.Entity.ID == id {
			return r.Entity, nil
		}
	}
	return nil, errors.NotFoundf("%s %s not found", v.schema.Noun(), id)
}

// State returns the last known query signals without fetching.
func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()

	s := State{
		Rows:      v.rows,
		Loading:   v.loading,
		Stale:     v.stale,
		FetchedAt: v.fetchedAt,
	}
	if v.lastErr != nil {
		s.Error = v.lastErr.Error()
	}
	return s
}

// Invalidate marks the list stale and tells subscribers to re-fetch.
func (v *View) Invalidate(cause string) {
	v.mu.Lock()
	v.stale = true
	v.version++
	v.mu.Unlock()

	v.logger.Debug("list invalidated", "cause", cause)
	if v.emitter != nil {
		v.emitter.Emit(sse.NewInvalidatedEvent(v.schema.Kind, cause))
	}
}

// RequestDelete deletes the entity through the transport and invalidates the
// list on success. Nothing is removed locally.
func (v *View) RequestDelete(ctx context.Context, id string) error {
	if id == "" {
		return errors.Validation("id is required")
	}
	if err := v.client.Delete(ctx, v.schema, id); err != nil {
		v.logger.Error("delete failed", "entity_id", id, "error", err)
		if errors.CodeOf(err) == errors.CodeNotFound || errors.CodeOf(err) == errors.CodeMutation {
			return err
		}
		return errors.Mutation("delete "+v.schema.Noun(), err)
	}
	v.logger.Info("entity deleted", "entity_id", id)
	v.Invalidate("deleted")
	return nil
}
