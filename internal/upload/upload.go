// Package upload coordinates the asynchronous image upload of an edit session.
//
// A new upload supersedes any pending one. Results are applied by request
// token, not completion order, so a slow superseded upload can never
// overwrite the reference of a newer one.
package upload

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/folioadmin/folio-admin/internal/errors"
	"github.com/folioadmin/folio-admin/internal/id"
)

// State of the coordinator.
type State string

// Coordinator states.
const (
	StateIdle      State = "idle"
	StateUploading State = "uploading"
	StateReady     State = "ready"
)

// File is the binary handed to the upload collaborator.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Result is what the upload collaborator returns.
type Result struct {
	Reference string `json:"reference"`
	BlurHash  string `json:"blur_hash,omitempty"`
}

// Uploader is the external upload collaborator: file in, public URL out.
// Retries, if any, are the uploader's concern.
type Uploader interface {
	Upload(ctx context.Context, f File) (Result, error)
}

// Snapshot is a point-in-time copy of the coordinator state.
type Snapshot struct {
	State     State  `json:"state"`
	Reference string `json:"reference,omitempty"`
	BlurHash  string `json:"blur_hash,omitempty"`
	Token     string `json:"token,omitempty"`
	Error     string `json:"error,omitempty"`
	Err       error  `json:"-"`
}

// Observer is called after every applied transition.
type Observer func(Snapshot)

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithTimeout bounds each upload call. Zero means no bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Coordinator) { c.timeout = d }
}

// WithObserver registers fn to be called after each settled upload.
func WithObserver(fn Observer) Option {
	return func(c *Coordinator) { c.observer = fn }
}

// Coordinator owns the image state of one session.
type Coordinator struct {
	uploader Uploader
	logger   *slog.Logger
	timeout  time.Duration
	observer Observer

	mu      sync.Mutex
	state   State
	ref     string // last resolved reference, kept while a new upload runs
	blur    string
	token   string // latest issued request token
	lastErr error
	settled chan struct{} // closed and replaced on every transition out of Uploading
	wg      sync.WaitGroup
}

// NewCoordinator creates an idle coordinator.
func NewCoordinator(uploader Uploader, logger *slog.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		uploader: uploader,
		logger:   logger,
		state:    StateIdle,
		settled:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BeginUpload moves to Uploading and hands f to the uploader in the background.
// The returned token identifies this attempt. The upload is detached from ctx's
// cancellation; Reset makes its result unobservable instead.
func (c *Coordinator) BeginUpload(ctx context.Context, f File) (string, error) {
	if len(f.Data) == 0 {
		return "", errors.Validation("file is empty")
	}
	token, err := id.Token(16)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeInternal, "issue upload token")
	}

	c.mu.Lock()
	c.token = token
	c.state = StateUploading
	c.lastErr = nil
	c.mu.Unlock()

	c.logger.Debug("upload started", "token", token, "file", f.Name, "size", len(f.Data))

	uctx := context.WithoutCancel(ctx)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		var cancel context.CancelFunc = func() {}
		if c.timeout > 0 {
			uctx, cancel = context.WithTimeout(uctx, c.timeout)
		}
		defer cancel()

		res, err := c.uploader.Upload(uctx, f)
		c.settle(token, res, err)
	}()

	return token, nil
}

func (c *Coordinator) settle(token string, res Result, err error) {
	c.mu.Lock()
	if token != c.token {
		c.mu.Unlock()
		c.logger.Debug("discarding superseded upload", "token", token)
		return
	}

	if err != nil {
		// A failed upload returns to the state before it began.
		c.lastErr = errors.Upload(err)
		if c.ref != "" {
			c.state = StateReady
		} else {
			c.state = StateIdle
		}
		c.logger.Warn("upload failed", "token", token, "error", err, "kept_reference", c.ref != "")
	} else {
		c.state = StateReady
		c.ref = res.Reference
		c.blur = res.BlurHash
		c.logger.Info("upload resolved", "token", token, "reference", res.Reference)
	}
	c.broadcastLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	if c.observer != nil {
		c.observer(snap)
	}
}

// CurrentReference returns the resolved image reference. It reports false
// while no reference is set or an upload is still running.
func (c *Coordinator) CurrentReference() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateUploading || c.ref == "" {
		return "", false
	}
	return c.ref, true
}

// Resolve returns the reference to merge into a payload, or a NotReady error
// while an upload is in flight. A nil reference means no image.
func (c *Coordinator) Resolve() (*string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateUploading {
		return nil, errors.NotReady("image upload still in progress")
	}
	if c.ref == "" {
		return nil, nil
	}
	ref := c.ref
	return &ref, nil
}

// Await blocks until no upload is in flight or ctx is done.
func (c *Coordinator) Await(ctx context.Context) error {
	for {
		c.mu.Lock()
		if c.state != StateUploading {
			c.mu.Unlock()
			return nil
		}
		ch := c.settled
		c.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Seed resets the coordinator to Ready with an existing image, or Idle when ref is empty.
func (c *Coordinator) Seed(ref string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
	if ref != "" {
		c.state = StateReady
		c.ref = ref
	}
}

// Reset returns to Idle. Pending uploads become unobservable.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
}

func (c *Coordinator) resetLocked() {
	wasUploading := c.state == StateUploading
	c.state = StateIdle
	c.ref = ""
	c.blur = ""
	c.token = ""
	c.lastErr = nil
	if wasUploading {
		c.broadcastLocked()
	}
}

// Snapshot returns the current state.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Coordinator) snapshotLocked() Snapshot {
	s := Snapshot{
		State:     c.state,
		Reference: c.ref,
		BlurHash:  c.blur,
		Token:     c.token,
		Err:       c.lastErr,
	}
	if c.lastErr != nil {
		s.Error = c.lastErr.Error()
	}
	return s
}

// Wait blocks until all background uploads have returned. Used on shutdown and in tests.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

func (c *Coordinator) broadcastLocked() {
	close(c.settled)
	c.settled = make(chan struct{})
}
