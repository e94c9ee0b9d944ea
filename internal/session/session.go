// Package session implements the edit/create state machine of one kind's
// editor. A Controller owns which entity (if any) is being edited, the form
// values of the open session and its image upload, and orchestrates submit
// and cancel.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/folioadmin/folio-admin/internal/codec"
	"github.com/folioadmin/folio-admin/internal/domain"
	"github.com/folioadmin/folio-admin/internal/errors"
	"github.com/folioadmin/folio-admin/internal/payload"
	"github.com/folioadmin/folio-admin/internal/transport"
	"github.com/folioadmin/folio-admin/internal/upload"
	"github.com/folioadmin/folio-admin/internal/validation"
)

// Mode of the session.
type Mode string

// Session modes.
const (
	ModeClosed   Mode = "closed"
	ModeCreating Mode = "creating"
	ModeEditing  Mode = "editing"
)

// Invalidator marks a kind's list stale after a successful mutation.
type Invalidator interface {
	Invalidate(kind domain.Kind, cause string)
}

// Config tunes a Controller.
type Config struct {
	// SubmitWait is how long Submit waits for an in-flight upload before
	// failing with NotReady. Zero rejects immediately.
	SubmitWait time.Duration
	// UploadTimeout bounds each upload call.
	UploadTimeout time.Duration
}

// Deps are the collaborators of a Controller.
type Deps struct {
	Schema      *domain.Schema
	Languages   []domain.LanguageCode
	Mutator     transport.Mutator
	Uploader    upload.Uploader
	Validator   *validation.Validator
	Sanitizer   *validation.Sanitizer
	Invalidator Invalidator
	Logger      *slog.Logger
	// UploadListener, when set, is told about every upload that settles
	// while the session is open.
	UploadListener func(kind domain.Kind, s upload.Snapshot)
}

// Result is returned by a successful Submit.
type Result struct {
	Entity *domain.Entity `json:"entity,omitempty"`
	Notice Notice         `json:"notice"`
}

// Snapshot is a copy of the session state.
type Snapshot struct {
	Kind       domain.Kind     `json:"kind"`
	Mode       Mode            `json:"mode"`
	EntityID   string          `json:"entity_id,omitempty"`
	Form       domain.Form     `json:"form"`
	Upload     upload.Snapshot `json:"upload"`
	Submitting bool            `json:"submitting"`
	Notice     *Notice         `json:"notice,omitempty"`
}

// Controller is the session state machine for one kind.
type Controller struct {
	deps       Deps
	uploads    *upload.Coordinator
	submitWait time.Duration
	logger     *slog.Logger

	mu         sync.Mutex
	mode       Mode
	base       *domain.Entity
	form       domain.Form
	generation uint64
	submitting bool
	notice     *Notice
}

// NewController creates a closed controller.
func NewController(cfg Config, deps Deps) *Controller {
	logger := deps.Logger.With("kind", deps.Schema.Kind)
	c := &Controller{
		deps:       deps,
		submitWait: cfg.SubmitWait,
		logger:     logger,
		mode:       ModeClosed,
	}
	c.uploads = upload.NewCoordinator(deps.Uploader, logger,
		upload.WithTimeout(cfg.UploadTimeout),
		upload.WithObserver(c.onUploadSettled),
	)
	return c
}

// Schema returns the kind schema the controller edits.
func (c *Controller) Schema() *domain.Schema {
	return c.deps.Schema
}

// BeginCreate opens a create session with an empty form and no image.
func (c *Controller) BeginCreate() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode != ModeClosed {
		return errors.Conflict("a session is already open")
	}
	c.generation++
	c.mode = ModeCreating
	c.base = nil
	c.form = make(domain.Form)
	c.notice = nil
	c.uploads.Reset()

	c.logger.Debug("session opened", "mode", c.mode)
	return nil
}

// BeginEdit opens an edit session for entity, decoding it into the form and
// seeding the upload state from its existing image.
func (c *Controller) BeginEdit(entity *domain.Entity) error {
	if entity == nil || entity.ID == "" {
		return errors.Validation("entity is required")
	}
	if entity.Kind != "" && entity.Kind != c.deps.Schema.Kind {
		return errors.Validationf("entity %s is a %s, not a %s", entity.ID, entity.Kind, c.deps.Schema.Kind)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode != ModeClosed {
		return errors.Conflict("a session is already open")
	}

	if missing := entity.MissingLanguages(c.deps.Languages); len(missing) > 0 {
		c.logger.Warn("entity is missing translations", "entity_id", entity.ID, "languages", missing)
	}

	c.generation++
	c.mode = ModeEditing
	c.base = entity
	c.form = codec.Decode(c.deps.Schema, entity, c.deps.Languages)
	c.notice = nil
	ref, _ := entity.ImageRef()
	c.uploads.Seed(ref)

	c.logger.Debug("session opened", "mode", c.mode, "entity_id", entity.ID)
	return nil
}

// UploadImage starts an image upload for the open session.
func (c *Controller) UploadImage(ctx context.Context, f upload.File) (string, error) {
	c.mu.Lock()
	open := c.mode != ModeClosed
	c.mu.Unlock()

	if !open {
		return "", errors.Conflict("no open session")
	}
	if !c.deps.Schema.HasImage {
		return "", errors.Validationf("%s has no image", c.deps.Schema.Noun())
	}
	return c.uploads.BeginUpload(ctx, f)
}

// Submit validates values, builds the payload for the current mode and sends
// it. On success the list is invalidated and the session closes. On failure
// the session stays open with the submitted values so the user can retry.
// A nil values submits the form as last decoded or submitted.
func (c *Controller) Submit(ctx context.Context, values domain.Form) (*Result, error) {
	c.mu.Lock()
	if c.mode == ModeClosed {
		c.mu.Unlock()
		return nil, errors.Conflict("no open session")
	}
	if c.submitting {
		c.mu.Unlock()
		return nil, errors.Conflict("submit already in progress")
	}
	if values != nil {
		c.form = values.Clone()
	}
	gen := c.generation
	mode := c.mode
	base := c.base
	form := c.form.Clone()
	c.submitting = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		if c.generation == gen {
			c.submitting = false
		}
		c.mu.Unlock()
	}()

	res, err := c.submit(ctx, gen, mode, base, form)
	if err != nil {
		c.setNotice(gen, ErrorNotice(err))
		return nil, err
	}
	return res, nil
}

func (c *Controller) submit(ctx context.Context, gen uint64, mode Mode, base *domain.Entity, form domain.Form) (*Result, error) {
	schema := c.deps.Schema
	langs := c.deps.Languages

	form = c.deps.Sanitizer.Sanitize(schema, form, langs)
	if err := c.deps.Validator.ValidateForm(schema, form, langs, mode == ModeCreating); err != nil {
		return nil, err
	}

	image, err := c.resolveImage(ctx)
	if err != nil {
		return nil, err
	}

	req := payload.Request{
		Mode:      payload.ModeCreate,
		Schema:    schema,
		Form:      form,
		Image:     image,
		Languages: langs,
	}
	if mode == ModeEditing {
		req.Mode = payload.ModeEdit
		req.Base = base
	}
	p, err := payload.Build(req)
	if err != nil {
		return nil, err
	}

	var (
		entity *domain.Entity
		op     = "create " + schema.Noun()
		notice = Created(schema)
		cause  = "created"
	)
	if mode == ModeEditing {
		op, notice, cause = "update "+schema.Noun(), Updated(schema), "updated"
		entity, err = c.deps.Mutator.Update(ctx, schema, base.ID, p)
	} else {
		entity, err = c.deps.Mutator.Create(ctx, schema, p)
	}
	if err != nil {
		c.logger.Error("mutation failed", "op", op, "error", err)
		if errors.CodeOf(err) != errors.CodeMutation {
			err = errors.Mutation(op, err)
		}
		return nil, err
	}

	c.deps.Invalidator.Invalidate(schema.Kind, cause)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != gen {
		c.logger.Info("session moved on, mutation result not displayed", "op", op)
		return &Result{Entity: entity, Notice: notice}, nil
	}
	c.closeLocked()
	c.notice = &notice
	c.logger.Info("mutation applied", "op", op, "entity_id", entityID(entity, base))
	return &Result{Entity: entity, Notice: notice}, nil
}

// resolveImage returns the reference to merge into the payload. An upload
// still running after the configured wait yields NotReady.
func (c *Controller) resolveImage(ctx context.Context) (*string, error) {
	if !c.deps.Schema.HasImage {
		return nil, nil
	}
	if c.submitWait > 0 {
		wctx, cancel := context.WithTimeout(ctx, c.submitWait)
		err := c.uploads.Await(wctx)
		cancel()
		if err != nil && ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return c.uploads.Resolve()
}

// Cancel closes the session unconditionally, discarding form and image
// state. A running upload's result becomes unobservable; a running mutation
// completes but is not reflected in the session.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode == ModeClosed {
		return
	}
	c.logger.Debug("session cancelled", "mode", c.mode)
	c.closeLocked()
	c.notice = nil
}

func (c *Controller) closeLocked() {
	c.generation++
	c.mode = ModeClosed
	c.base = nil
	c.form = nil
	c.submitting = false
	c.uploads.Reset()
}

// Snapshot returns the current session state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		Kind:       c.deps.Schema.Kind,
		Mode:       c.mode,
		Form:       c.form.Clone(),
		Upload:     c.uploads.Snapshot(),
		Submitting: c.submitting,
	}
	if c.base != nil {
		s.EntityID = c.base.ID
	}
	if c.notice != nil {
		n := *c.notice
		s.Notice = &n
	}
	return s
}

// Shutdown waits for background uploads to return.
func (c *Controller) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.uploads.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) onUploadSettled(s upload.Snapshot) {
	c.mu.Lock()
	open := c.mode != ModeClosed
	if open && s.Err != nil {
		n := ErrorNotice(s.Err)
		c.notice = &n
	}
	c.mu.Unlock()

	if open && c.deps.UploadListener != nil {
		c.deps.UploadListener(c.deps.Schema.Kind, s)
	}
}

func (c *Controller) setNotice(gen uint64, n Notice) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation == gen {
		c.notice = &n
	}
}

func entityID(entity, base *domain.Entity) string {
	if entity != nil {
		return entity.ID
	}
	if base != nil {
		return base.ID
	}
	return ""
}
