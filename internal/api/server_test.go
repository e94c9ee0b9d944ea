package api

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folioadmin/folio-admin/internal/domain"
	"github.com/folioadmin/folio-admin/internal/listview"
	"github.com/folioadmin/folio-admin/internal/media/images"
	"github.com/folioadmin/folio-admin/internal/session"
	"github.com/folioadmin/folio-admin/internal/sse"
	"github.com/folioadmin/folio-admin/internal/store/sqlite"
	"github.com/folioadmin/folio-admin/internal/upload"
	"github.com/folioadmin/folio-admin/internal/validation"
)

// instantUploader resolves every upload with a fixed reference.
type instantUploader struct{}

func (instantUploader) Upload(_ context.Context, f upload.File) (upload.Result, error) {
	return upload.Result{Reference: "https://cdn.test/" + f.Name}, nil
}

type testServer struct {
	*Server
	api   humatest.TestAPI
	store *sqlite.Store
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	catalog, err := domain.NewCatalog(domain.CatalogConfig{})
	require.NoError(t, err)

	events := sse.NewManager(logger)
	lists := listview.NewRegistry(catalog, st, events, logger)

	sessions := make(map[domain.Kind]*session.Controller)
	for _, schema := range catalog.Schemas() {
		ctrl := session.NewController(session.Config{SubmitWait: time.Second}, session.Deps{
			Schema:      schema,
			Languages:   catalog.Languages(),
			Mutator:     st,
			Uploader:    instantUploader{},
			Validator:   validation.New(),
			Sanitizer:   validation.NewSanitizer(),
			Invalidator: lists,
			Logger:      logger,
		})
		sessions[schema.Kind] = ctrl
		t.Cleanup(func() { _ = ctrl.Shutdown(context.Background()) })
	}

	srv := NewServer(Options{
		Catalog:   catalog,
		Lists:     lists,
		Sessions:  sessions,
		Events:    events,
		Backend:   st,
		UploadMax: 1 << 20,
	}, logger)
	t.Cleanup(srv.Close)

	return &testServer{
		Server: srv,
		api:    humatest.Wrap(t, srv.API()),
		store:  st,
	}
}

type testEnvelope struct {
	Version int               `json:"v"`
	Success bool              `json:"success"`
	Data    json.RawMessage   `json:"data"`
	Error   string            `json:"error"`
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details"`
}

func decodeEnvelope(t *testing.T, body []byte, data any) testEnvelope {
	t.Helper()
	var env testEnvelope
	require.NoError(t, json.Unmarshal(body, &env), string(body))
	assert.Equal(t, EnvelopeVersion, env.Version)
	if data != nil {
		require.True(t, env.Success, string(body))
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func questionValues(question string) map[string]string {
	return map[string]string{
		"enQuestion": question,
		"kaQuestion": "რატომ?",
		"enAnswer":   "Because",
		"kaAnswer":   "იმიტომ",
	}
}

func TestListKinds(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/kinds")
	require.Equal(t, http.StatusOK, resp.Code)

	var out struct {
		Kinds []KindResponse `json:"kinds"`
	}
	decodeEnvelope(t, resp.Body.Bytes(), &out)
	require.Len(t, out.Kinds, 5)
	assert.Equal(t, domain.KindPost, out.Kinds[0].Kind)
	assert.Equal(t, []domain.LanguageCode{"en", "ka"}, out.Kinds[0].Languages)
}

func TestGetKind(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/kinds/skill")
	require.Equal(t, http.StatusOK, resp.Code)

	var kind KindResponse
	decodeEnvelope(t, resp.Body.Bytes(), &kind)
	assert.Equal(t, "TopSkills", kind.Model)
	assert.False(t, kind.HasImage)

	keys := make([]string, 0, len(kind.Slots))
	for _, slot := range kind.Slots {
		keys = append(keys, slot.Key)
	}
	assert.Equal(t, []string{"enName", "enLinkedinName", "kaName", "kaLinkedinName"}, keys)
}

func TestGetKind_Unknown(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/kinds/recipe")
	require.Equal(t, http.StatusNotFound, resp.Code)

	env := decodeEnvelope(t, resp.Body.Bytes(), nil)
	assert.False(t, env.Success)
	assert.Equal(t, "NOT_FOUND", env.Code)
}

func TestCreateSessionFlow(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/kinds/question/session", map[string]any{"mode": "create"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var snap session.Snapshot
	decodeEnvelope(t, resp.Body.Bytes(), &snap)
	assert.Equal(t, session.ModeCreating, snap.Mode)

	resp = ts.api.Post("/api/v1/kinds/question/session/submit", map[string]any{
		"values": questionValues("Why Go?"),
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var result session.Result
	decodeEnvelope(t, resp.Body.Bytes(), &result)
	assert.Equal(t, "Question created successfully!", result.Notice.Message)
	require.NotNil(t, result.Entity)

	resp = ts.api.Get("/api/v1/kinds/question/entities")
	require.Equal(t, http.StatusOK, resp.Code)

	var state listview.State
	decodeEnvelope(t, resp.Body.Bytes(), &state)
	require.Len(t, state.Rows, 1)
	assert.Equal(t, "Why Go?", state.Rows[0].Label)
	assert.False(t, state.Stale)
}

func TestSubmit_ValidationErrorKeepsSession(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/kinds/question/session", map[string]any{"mode": "create"})
	require.Equal(t, http.StatusOK, resp.Code)

	values := questionValues("")
	resp = ts.api.Post("/api/v1/kinds/question/session/submit", map[string]any{"values": values})
	require.Equal(t, http.StatusBadRequest, resp.Code)

	env := decodeEnvelope(t, resp.Body.Bytes(), nil)
	assert.Equal(t, "VALIDATION", env.Code)
	assert.Contains(t, env.Details, "enQuestion")

	resp = ts.api.Get("/api/v1/kinds/question/session")
	var snap session.Snapshot
	decodeEnvelope(t, resp.Body.Bytes(), &snap)
	assert.Equal(t, session.ModeCreating, snap.Mode)
	require.NotNil(t, snap.Notice)
	assert.Equal(t, session.LevelError, snap.Notice.Level)
}

func TestSubmit_WithoutSessionConflicts(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/kinds/question/session/submit", map[string]any{
		"values": questionValues("Why?"),
	})
	require.Equal(t, http.StatusConflict, resp.Code)
	assert.Equal(t, "CONFLICT", decodeEnvelope(t, resp.Body.Bytes(), nil).Code)
}

func TestBeginSession_WhileOpenConflicts(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/kinds/skill/session", map[string]any{"mode": "create"})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Post("/api/v1/kinds/skill/session", map[string]any{"mode": "create"})
	require.Equal(t, http.StatusConflict, resp.Code)

	resp = ts.api.Delete("/api/v1/kinds/skill/session")
	require.Equal(t, http.StatusOK, resp.Code)
	var snap session.Snapshot
	decodeEnvelope(t, resp.Body.Bytes(), &snap)
	assert.Equal(t, session.ModeClosed, snap.Mode)
}

func TestBeginSession_EditRequiresEntityID(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/kinds/question/session", map[string]any{"mode": "edit"})
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestEditSessionFlow(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/kinds/question/session", map[string]any{"mode": "create"})
	require.Equal(t, http.StatusOK, resp.Code)
	resp = ts.api.Post("/api/v1/kinds/question/session/submit", map[string]any{
		"values": questionValues("Old?"),
	})
	require.Equal(t, http.StatusOK, resp.Code)
	var created session.Result
	decodeEnvelope(t, resp.Body.Bytes(), &created)

	resp = ts.api.Post("/api/v1/kinds/question/session", map[string]any{
		"mode":      "edit",
		"entity_id": created.Entity.ID,
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var snap session.Snapshot
	decodeEnvelope(t, resp.Body.Bytes(), &snap)
	assert.Equal(t, session.ModeEditing, snap.Mode)
	assert.Equal(t, "Old?", snap.Form["enQuestion"])

	resp = ts.api.Post("/api/v1/kinds/question/session/submit", map[string]any{
		"values": questionValues("New?"),
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var updated session.Result
	decodeEnvelope(t, resp.Body.Bytes(), &updated)
	assert.Equal(t, "Question updated successfully!", updated.Notice.Message)

	resp = ts.api.Get("/api/v1/kinds/question/entities")
	var state listview.State
	decodeEnvelope(t, resp.Body.Bytes(), &state)
	require.Len(t, state.Rows, 1)
	assert.Equal(t, "New?", state.Rows[0].Label)
	assert.Equal(t, created.Entity.ID, state.Rows[0].Entity.ID)
}

func TestDeleteEntity(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/kinds/question/session", map[string]any{"mode": "create"})
	require.Equal(t, http.StatusOK, resp.Code)
	resp = ts.api.Post("/api/v1/kinds/question/session/submit", map[string]any{
		"values": questionValues("Gone?"),
	})
	var created session.Result
	decodeEnvelope(t, resp.Body.Bytes(), &created)

	resp = ts.api.Delete("/api/v1/kinds/question/entities/" + created.Entity.ID)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var notice session.Notice
	decodeEnvelope(t, resp.Body.Bytes(), &notice)
	assert.Equal(t, "Question deleted successfully!", notice.Message)

	resp = ts.api.Get("/api/v1/kinds/question/entities")
	var state listview.State
	decodeEnvelope(t, resp.Body.Bytes(), &state)
	assert.Empty(t, state.Rows)
}

func TestDeleteEntity_NotFound(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Delete("/api/v1/kinds/question/entities/missing")
	require.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "NOT_FOUND", decodeEnvelope(t, resp.Body.Bytes(), nil).Code)
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	return buf.Bytes()
}

func multipartRequest(t *testing.T, path, filename string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestUploadImage(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/kinds/hobby/session", map[string]any{"mode": "create"})
	require.Equal(t, http.StatusOK, resp.Code)

	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, multipartRequest(t, "/api/v1/kinds/hobby/session/image", "hobby.png", pngBytes(t)))
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var accepted UploadAcceptedResponse
	decodeEnvelope(t, rec.Body.Bytes(), &accepted)
	assert.NotEmpty(t, accepted.Token)

	ctrl := ts.sessions[domain.KindHobby]
	require.Eventually(t, func() bool {
		return ctrl.Snapshot().Upload.State == upload.StateReady
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, "https://cdn.test/hobby.png", ctrl.Snapshot().Upload.Reference)
}

func TestUploadImage_RejectsNonImage(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/kinds/hobby/session", map[string]any{"mode": "create"})
	require.Equal(t, http.StatusOK, resp.Code)

	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, multipartRequest(t, "/api/v1/kinds/hobby/session/image", "notes.txt", []byte("plain text")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadImage_KindWithoutImage(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/kinds/skill/session", map[string]any{"mode": "create"})
	require.Equal(t, http.StatusOK, resp.Code)

	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, multipartRequest(t, "/api/v1/kinds/skill/session/image", "x.png", pngBytes(t)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION", decodeEnvelope(t, rec.Body.Bytes(), nil).Code)
}

func TestUploadImage_NoSession(t *testing.T) {
	ts := setupTestServer(t)

	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, multipartRequest(t, "/api/v1/kinds/hobby/session/image", "x.png", pngBytes(t)))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestServeUploads(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	catalog, err := domain.NewCatalog(domain.CatalogConfig{})
	require.NoError(t, err)

	storage, err := images.NewStorage(t.TempDir(), "uploads")
	require.NoError(t, err)
	require.NoError(t, storage.Save("hike-1234.jpg", []byte("jpeg bytes")))

	srv := NewServer(Options{Catalog: catalog, Images: storage}, logger)
	t.Cleanup(srv.Close)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/uploads/hike-1234.jpg", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "jpeg bytes", rec.Body.String())
	assert.Equal(t, CacheImmutable, rec.Header().Get("Cache-Control"))

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/uploads/missing.jpg", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
