// Package sse implements Server-Sent Events so open editors learn when a
// catalog list went stale and must be re-fetched.
package sse

import (
	"time"

	"github.com/folioadmin/folio-admin/internal/domain"
)

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventCatalogInvalidated tells clients a kind's list must be re-fetched.
	EventCatalogInvalidated EventType = "catalog.invalidated"
	// EventUploadSettled reports the outcome of a session image upload.
	EventUploadSettled EventType = "session.upload_settled"
	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to clients.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`

	// Kind filters delivery to clients watching that kind. Empty means all.
	Kind domain.Kind `json:"-"`
}

// InvalidatedEventData is the data payload for invalidation events.
type InvalidatedEventData struct {
	Kind  domain.Kind `json:"kind"`
	Cause string      `json:"cause"`
}

// UploadSettledEventData is the data payload for upload events.
type UploadSettledEventData struct {
	Kind      domain.Kind `json:"kind"`
	State     string      `json:"state"`
	Reference string      `json:"reference,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

// NewInvalidatedEvent creates a catalog.invalidated event.
func NewInvalidatedEvent(kind domain.Kind, cause string) Event {
	return Event{
		Type:      EventCatalogInvalidated,
		Kind:      kind,
		Data:      InvalidatedEventData{Kind: kind, Cause: cause},
		Timestamp: time.Now(),
	}
}

// NewUploadSettledEvent creates a session.upload_settled event.
func NewUploadSettledEvent(kind domain.Kind, state, reference, errMsg string) Event {
	return Event{
		Type:      EventUploadSettled,
		Kind:      kind,
		Data:      UploadSettledEventData{Kind: kind, State: state, Reference: reference, Error: errMsg},
		Timestamp: time.Now(),
	}
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	now := time.Now()
	return Event{
		Type:      EventHeartbeat,
		Data:      HeartbeatEventData{ServerTime: now},
		Timestamp: now,
	}
}
