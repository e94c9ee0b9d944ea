package listview

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folioadmin/folio-admin/internal/domain"
	"github.com/folioadmin/folio-admin/internal/errors"
	"github.com/folioadmin/folio-admin/internal/payload"
	"github.com/folioadmin/folio-admin/internal/sse"
)

type fakeClient struct {
	mu        sync.Mutex
	entities  []*domain.Entity
	fetches   int
	fetchErr  error
	deleteErr error
	deleted   []string
}

func (c *fakeClient) FetchAll(_ context.Context, _ *domain.Schema) ([]*domain.Entity, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetches++
	if c.fetchErr != nil {
		return nil, c.fetchErr
	}
	return append([]*domain.Entity(nil), c.entities...), nil
}

func (c *fakeClient) Create(context.Context, *domain.Schema, *payload.Payload) (*domain.Entity, error) {
	return nil, fmt.Errorf("not used")
}

func (c *fakeClient) Update(context.Context, *domain.Schema, string, *payload.Payload) (*domain.Entity, error) {
	return nil, fmt.Errorf("not used")
}

func (c *fakeClient) Delete(_ context.Context, _ *domain.Schema, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.deleteErr != nil {
		return c.deleteErr
	}
	c.deleted = append(c.deleted, id)
	kept := c.entities[:0]
	for _, e := range c.entities {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	c.entities = kept
	return nil
}

type recordingEmitter struct {
	events []sse.Event
}

func (r *recordingEmitter) Emit(e sse.Event) { r.events = append(r.events, e) }

func schemaFor(t *testing.T, kind domain.Kind) *domain.Schema {
	t.Helper()
	c, err := domain.NewCatalog(domain.CatalogConfig{})
	require.NoError(t, err)
	s, err := c.Schema(kind)
	require.NoError(t, err)
	return s
}

func logger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func book(id, enTitle string) *domain.Entity {
	e := &domain.Entity{ID: id, Kind: domain.KindBook}
	if enTitle != "" {
		e.Translations = []domain.Translation{{LanguageCode: "en", Fields: map[string]string{"title": enTitle}}}
	}
	return e
}

func TestLabel(t *testing.T) {
	post := schemaFor(t, domain.KindPost)
	books := schemaFor(t, domain.KindBook)

	assert.Equal(t, "https://x", Label(post, &domain.Entity{ID: "p1", Attributes: map[string]any{"link": "https://x"}}))
	assert.Equal(t, "p2", Label(post, &domain.Entity{ID: "p2"}))
	assert.Equal(t, "Dune", Label(books, book("b1", "Dune")))
	assert.Equal(t, "b2", Label(books, book("b2", "")), "falls back to the id when the English record is absent")

	kaOnly := &domain.Entity{ID: "b3", Translations: []domain.Translation{
		{LanguageCode: "ka", Fields: map[string]string{"title": "დიუნა"}},
	}}
	assert.Equal(t, "b3", Label(books, kaOnly))
}

func TestView_RenderKeepsOrder(t *testing.T) {
	v := NewView(schemaFor(t, domain.KindBook), &fakeClient{}, nil, logger())

	rows := v.Render([]*domain.Entity{book("b2", "B"), book("b1", "A")})

	require.Len(t, rows, 2)
	assert.Equal(t, "B", rows[0].Label)
	assert.Equal(t, "b1", rows[1].Entity.ID)
}

func TestView_FetchesOnceUntilInvalidated(t *testing.T) {
	client := &fakeClient{entities: []*domain.Entity{book("b1", "Dune")}}
	emitter := &recordingEmitter{}
	v := NewView(schemaFor(t, domain.KindBook), client, emitter, logger())
	ctx := context.Background()

	_, err := v.Rows(ctx)
	require.NoError(t, err)
	_, err = v.Rows(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, client.fetches)
	assert.False(t, v.State().Stale)

	v.Invalidate("updated")
	assert.True(t, v.State().Stale)
	_, err = v.Rows(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, client.fetches)

	require.Len(t, emitter.events, 1)
	assert.Equal(t, sse.EventCatalogInvalidated, emitter.events[0].Type)
	assert.Equal(t, domain.KindBook, emitter.events[0].Kind)
}

func TestView_FetchErrorKeepsStale(t *testing.T) {
	client := &fakeClient{fetchErr: fmt.Errorf("connection refused")}
	v := NewView(schemaFor(t, domain.KindBook), client, nil, logger())

	_, err := v.Rows(context.Background())
	require.Error(t, err)
	state := v.State()
	assert.True(t, state.Stale)
	assert.Equal(t, "connection refused", state.Error)

	client.fetchErr = nil
	_, err = v.Rows(context.Background())
	require.NoError(t, err)
	assert.Empty(t, v.State().Error)
}

func TestView_RequestDeleteRefetches(t *testing.T) {
	client := &fakeClient{entities: []*domain.Entity{book("b1", "A"), book("b2", "B")}}
	v := NewView(schemaFor(t, domain.KindBook), client, nil, logger())
	ctx := context.Background()

	_, err := v.Rows(ctx)
	require.NoError(t, err)

	require.NoError(t, v.RequestDelete(ctx, "b1"))
	assert.Equal(t, []string{"b1"}, client.deleted)

	rows, err := v.Rows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "b2", rows[0].Entity.ID)
	assert.Equal(t, 2, client.fetches)
}

func TestView_RequestDeleteFailureLeavesList(t *testing.T) {
	client := &fakeClient{entities: []*domain.Entity{book("b1", "A")}}
	emitter := &recordingEmitter{}
	v := NewView(schemaFor(t, domain.KindBook), client, emitter, logger())
	ctx := context.Background()

	_, err := v.Rows(ctx)
	require.NoError(t, err)

	client.deleteErr = fmt.Errorf("foreign key violation")
	err = v.RequestDelete(ctx, "b1")
	assert.True(t, errors.Is(err, errors.ErrMutation))

	assert.Empty(t, emitter.events)
	assert.False(t, v.State().Stale)
	rows, err := v.Rows(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 1, "no optimistic removal")
}

func TestView_Find(t *testing.T) {
	client := &fakeClient{entities: []*domain.Entity{book("b1", "A")}}
	v := NewView(schemaFor(t, domain.KindBook), client, nil, logger())

	e, err := v.Find(context.Background(), "b1")
	require.NoError(t, err)
	assert.Equal(t, "b1", e.ID)

	_, err = v.Find(context.Background(), "nope")
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestRegistry(t *testing.T) {
	catalog, err := domain.NewCatalog(domain.CatalogConfig{})
	require.NoError(t, err)
	emitter := &recordingEmitter{}
	r := NewRegistry(catalog, &fakeClient{}, emitter, logger())

	_, err = r.View(domain.KindSkill)
	require.NoError(t, err)
	_, err = r.View("podcast")
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	r.Invalidate(domain.KindSkill, "created")
	r.Invalidate("podcast", "created")
	require.Len(t, emitter.events, 1)
}
