package api

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

func TestHealthCheck_Success(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	var health HealthResponse
	decodeEnvelope(t, resp.Body.Bytes(), &health)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "healthy", health.Components["backend"].Status)
	assert.NotEmpty(t, health.Components["backend"].Latency)
	assert.Equal(t, "no connected clients", health.Components["sse"].Message)
}

func TestHealthCheck_BackendDown(t *testing.T) {
	ts := setupTestServer(t)
	ts.backend = failingPinger{}

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	var health HealthResponse
	decodeEnvelope(t, resp.Body.Bytes(), &health)
	assert.Equal(t, "unhealthy", health.Status)
	assert.Equal(t, "backend unreachable", health.Components["backend"].Message)
}

func TestFormatSSEStatus(t *testing.T) {
	assert.Equal(t, "no connected clients", formatSSEStatus(0))
	assert.Equal(t, "1 connected client", formatSSEStatus(1))
	assert.Equal(t, "3 connected clients", formatSSEStatus(3))
}
