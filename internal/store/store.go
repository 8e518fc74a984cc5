package store

import (
	"time"

	"github.com/jpalmerr/livecounter"
)

// EventType distinguishes the messages published to subscribers.
type EventType string

const (
	// EventUpdate carries the new state of one field.
	EventUpdate EventType = "update"

	// EventRemoved is published once when the widget is taken off screen.
	EventRemoved EventType = "removed"
)

// FieldState is the storage representation of one widget field.
//
// FieldState is optimized for JSON serialization (used by the REST API and
// SSE).
type FieldState struct {
	// Field is the live stats key, e.g. "total_courses".
	Field string `json:"field"`

	// Label is the caption shown next to the value.
	Label string `json:"label"`

	// Text is the value currently displayed, possibly an animation frame.
	Text string `json:"text"`

	// Highlighted reports whether the "value updated" cue is on.
	Highlighted bool `json:"highlighted"`

	// Source marks per-source course counts.
	Source bool `json:"source"`

	// UpdatedAt is when Text or Highlighted last changed. Zero until then.
	UpdatedAt time.Time `json:"updated_at"`
}

// Event is one message delivered to subscribers.
// Field is nil for [EventRemoved].
type Event struct {
	Type  EventType   `json:"type"`
	Field *FieldState `json:"field,omitempty"`
}

// Store is a [livecounter.Display] that can also be read and observed.
//
// Store implementations must be safe for concurrent access. The pub/sub
// mechanism allows real-time updates to be pushed to connected clients
// (e.g., via Server-Sent Events).
type Store interface {
	livecounter.Display

	// GetAll returns the state of every field in widget order.
	// The returned slice is a snapshot; modifications do not affect the store.
	GetAll() []FieldState

	// Removed reports whether Remove has been called.
	Removed() bool

	// Subscribe returns a channel that receives events.
	// The returned channel has a buffer; slow consumers may miss updates.
	// Caller must call Unsubscribe when done to prevent resource leaks.
	Subscribe() <-chan Event

	// Unsubscribe removes a subscription and closes the channel.
	// Safe to call with a channel that was already unsubscribed.
	Unsubscribe(ch <-chan Event)
}
