package upload

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folioadmin/folio-admin/internal/errors"
)

// gatedUploader blocks each call until its file name is released.
type gatedUploader struct {
	mu    sync.Mutex
	gates map[string]chan error
}

func newGatedUploader() *gatedUploader {
	return &gatedUploader{gates: make(map[string]chan error)}
}

func (u *gatedUploader) gate(name string) chan error {
	u.mu.Lock()
	defer u.mu.Unlock()
	ch, ok := u.gates[name]
	if !ok {
		ch = make(chan error, 1)
		u.gates[name] = ch
	}
	return ch
}

func (u *gatedUploader) release(name string, err error) {
	u.gate(name) <- err
}

func (u *gatedUploader) Upload(ctx context.Context, f File) (Result, error) {
	select {
	case err := <-u.gate(f.Name):
		if err != nil {
			return Result{}, err
		}
		return Result{Reference: "https://cdn/" + f.Name}, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func file(name string) File {
	return File{Name: name, ContentType: "image/png", Data: []byte("png")}
}

// waitState polls until the coordinator reaches want.
func waitState(t *testing.T, c *Coordinator, want State) {
	t.Helper()
	require.Eventually(t, func() bool { return c.Snapshot().State == want }, time.Second, time.Millisecond)
}

func TestCoordinator_UploadResolves(t *testing.T) {
	u := newGatedUploader()
	c := NewCoordinator(u, testLogger())

	token, err := c.BeginUpload(context.Background(), file("a.png"))
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, StateUploading, c.Snapshot().State)

	_, ok := c.CurrentReference()
	assert.False(t, ok)
	_, err = c.Resolve()
	assert.True(t, errors.Is(err, errors.ErrNotReady))

	u.release("a.png", nil)
	require.NoError(t, c.Await(context.Background()))

	ref, ok := c.CurrentReference()
	require.True(t, ok)
	assert.Equal(t, "https://cdn/a.png", ref)
}

func TestCoordinator_LastRequestWins(t *testing.T) {
	u := newGatedUploader()
	c := NewCoordinator(u, testLogger())
	ctx := context.Background()

	_, err := c.BeginUpload(ctx, file("slow.png"))
	require.NoError(t, err)
	tokenB, err := c.BeginUpload(ctx, file("fast.png"))
	require.NoError(t, err)

	u.release("fast.png", nil)
	waitState(t, c, StateReady)

	u.release("slow.png", nil)
	c.Wait()

	snap := c.Snapshot()
	assert.Equal(t, StateReady, snap.State)
	assert.Equal(t, "https://cdn/fast.png", snap.Reference)
	assert.Equal(t, tokenB, snap.Token)
}

func TestCoordinator_SupersededFailureIsIgnored(t *testing.T) {
	u := newGatedUploader()
	c := NewCoordinator(u, testLogger())
	ctx := context.Background()

	_, _ = c.BeginUpload(ctx, file("a.png"))
	_, _ = c.BeginUpload(ctx, file("b.png"))

	u.release("a.png", fmt.Errorf("boom"))
	u.release("b.png", nil)
	c.Wait()

	snap := c.Snapshot()
	assert.Equal(t, StateReady, snap.State)
	assert.Equal(t, "https://cdn/b.png", snap.Reference)
	assert.NoError(t, snap.Err)
}

func TestCoordinator_FailurePreservesPreviousImage(t *testing.T) {
	u := newGatedUploader()
	c := NewCoordinator(u, testLogger())
	c.Seed("https://cdn/old.png")

	_, err := c.BeginUpload(context.Background(), file("new.png"))
	require.NoError(t, err)
	u.release("new.png", fmt.Errorf("network down"))
	c.Wait()

	snap := c.Snapshot()
	assert.Equal(t, StateReady, snap.State)
	assert.Equal(t, "https://cdn/old.png", snap.Reference)
	assert.True(t, errors.Is(snap.Err, errors.ErrUpload))

	ref, err := c.Resolve()
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/old.png", *ref)
}

func TestCoordinator_FailureWithoutImage(t *testing.T) {
	u := newGatedUploader()
	c := NewCoordinator(u, testLogger())

	_, _ = c.BeginUpload(context.Background(), file("a.png"))
	u.release("a.png", fmt.Errorf("rejected"))
	c.Wait()

	snap := c.Snapshot()
	assert.Equal(t, StateIdle, snap.State, "failure returns to the prior idle state")
	assert.Empty(t, snap.Reference)
	assert.Equal(t, "Error uploading file.: rejected", snap.Error)

	ref, err := c.Resolve()
	require.NoError(t, err)
	assert.Nil(t, ref)
}

func TestCoordinator_ResetDropsPendingResult(t *testing.T) {
	u := newGatedUploader()
	c := NewCoordinator(u, testLogger())

	_, _ = c.BeginUpload(context.Background(), file("a.png"))
	c.Reset()
	require.NoError(t, c.Await(context.Background()))

	u.release("a.png", nil)
	c.Wait()

	snap := c.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Empty(t, snap.Reference)
}

func TestCoordinator_AwaitHonoursContext(t *testing.T) {
	u := newGatedUploader()
	c := NewCoordinator(u, testLogger())
	_, _ = c.BeginUpload(context.Background(), file("a.png"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.Await(ctx), context.DeadlineExceeded)

	u.release("a.png", nil)
	c.Wait()
}

func TestCoordinator_DetachedFromCallerContext(t *testing.T) {
	u := newGatedUploader()
	c := NewCoordinator(u, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	_, _ = c.BeginUpload(ctx, file("a.png"))
	cancel()

	u.release("a.png", nil)
	c.Wait()
	assert.Equal(t, StateReady, c.Snapshot().State)
}

func TestCoordinator_Timeout(t *testing.T) {
	u := newGatedUploader()
	c := NewCoordinator(u, testLogger(), WithTimeout(10*time.Millisecond))

	_, _ = c.BeginUpload(context.Background(), file("never.png"))
	c.Wait()

	snap := c.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.True(t, errors.Is(snap.Err, errors.ErrUpload))
}

func TestCoordinator_ObserverSeesSettledState(t *testing.T) {
	u := newGatedUploader()
	got := make(chan Snapshot, 1)
	c := NewCoordinator(u, testLogger(), WithObserver(func(s Snapshot) { got <- s }))

	_, _ = c.BeginUpload(context.Background(), file("a.png"))
	u.release("a.png", nil)

	select {
	case s := <-got:
		assert.Equal(t, StateReady, s.State)
		assert.Equal(t, "https://cdn/a.png", s.Reference)
	case <-time.After(time.Second):
		t.Fatal("observer not called")
	}
}

func TestCoordinator_RejectsEmptyFile(t *testing.T) {
	c := NewCoordinator(newGatedUploader(), testLogger())

	_, err := c.BeginUpload(context.Background(), File{Name: "empty.png"})
	assert.True(t, errors.Is(err, errors.ErrValidation))
	assert.Equal(t, StateIdle, c.Snapshot().State)
}
