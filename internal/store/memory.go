package store

import (
	"sync"
	"time"

	"github.com/jpalmerr/livecounter"
)

const subscriberBuffer = 100

// MemoryStore is an in-memory implementation of [Store].
//
// MemoryStore holds the text and highlight state of the six widget fields.
// Every change is published to subscribers via buffered channels (buffer size
// 100). Sends are non-blocking; if a subscriber's buffer is full, the event is
// dropped for that subscriber. A count animation produces one event per frame,
// so a dropped frame is harmless: the final frame always carries the target.
type MemoryStore struct {
	mu      sync.RWMutex
	fields  map[livecounter.Field]*FieldState
	removed bool
	now     func() time.Time

	subscribers map[chan Event]struct{}
	subMu       sync.RWMutex
}

// NewMemoryStore creates a new in-memory [Store] implementation with every
// field showing [livecounter.Placeholder].
func NewMemoryStore() *MemoryStore {
	m := &MemoryStore{
		fields:      make(map[livecounter.Field]*FieldState),
		now:         time.Now,
		subscribers: make(map[chan Event]struct{}),
	}
	for _, f := range livecounter.Fields() {
		m.fields[f] = &FieldState{
			Field:  f.String(),
			Label:  f.Label(),
			Text:   livecounter.Placeholder,
			Source: f.IsSource(),
		}
	}
	return m
}

// Text returns the displayed text of a field, or the placeholder for a field
// outside the widget.
func (m *MemoryStore) Text(field livecounter.Field) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if st, ok := m.fields[field]; ok {
		return st.Text
	}
	return livecounter.Placeholder
}

// SetText stores the field's text and notifies all subscribers.
// Writes to unknown fields and writes after Remove are ignored.
func (m *MemoryStore) SetText(field livecounter.Field, text string) {
	m.mu.Lock()
	st, ok := m.fields[field]
	if !ok || m.removed {
		m.mu.Unlock()
		return
	}
	st.Text = text
	st.UpdatedAt = m.now()
	snapshot := *st
	m.mu.Unlock()

	m.notifySubscribers(Event{Type: EventUpdate, Field: &snapshot})
}

// SetHighlight stores the field's highlight state and notifies all
// subscribers when it changed.
func (m *MemoryStore) SetHighlight(field livecounter.Field, on bool) {
	m.mu.Lock()
	st, ok := m.fields[field]
	if !ok || m.removed || st.Highlighted == on {
		m.mu.Unlock()
		return
	}
	st.Highlighted = on
	st.UpdatedAt = m.now()
	snapshot := *st
	m.mu.Unlock()

	m.notifySubscribers(Event{Type: EventUpdate, Field: &snapshot})
}

// Remove marks the widget as removed and publishes [EventRemoved] once.
// Subscriber channels stay open until they are unsubscribed.
func (m *MemoryStore) Remove() {
	m.mu.Lock()
	if m.removed {
		m.mu.Unlock()
		return
	}
	m.removed = true
	m.mu.Unlock()

	m.notifySubscribers(Event{Type: EventRemoved})
}

// Removed reports whether [MemoryStore.Remove] has been called.
func (m *MemoryStore) Removed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.removed
}

// GetAll returns a snapshot of every field in widget order.
//
// The returned slice is a copy; modifications do not affect the store.
func (m *MemoryStore) GetAll() []FieldState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	fields := livecounter.Fields()
	results := make([]FieldState, 0, len(fields))
	for _, f := range fields {
		results = append(results, *m.fields[f])
	}
	return results
}

// Subscribe creates a new subscription and returns a channel for receiving events.
//
// The returned channel has a buffer of 100 messages. If the buffer fills
// (slow consumer), new events are dropped for this subscriber.
//
// Caller must call [MemoryStore.Unsubscribe] when done to prevent resource leaks.
func (m *MemoryStore) Subscribe() <-chan Event {
	ch := make(chan Event, subscriberBuffer)

	m.subMu.Lock()
	m.subscribers[ch] = struct{}{}
	m.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel.
//
// After calling Unsubscribe, the channel will be closed and no further
// events will be sent. Safe to call multiple times or with an unknown channel.
func (m *MemoryStore) Unsubscribe(ch <-chan Event) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	// find and delete the channel (need to convert to the right type)
	for subCh := range m.subscribers {
		if subCh == ch {
			delete(m.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

// notifySubscribers sends the event to all active subscribers.
//
// This is non-blocking: if a subscriber's channel buffer is full, the message
// is dropped for that subscriber rather than blocking the counter.
func (m *MemoryStore) notifySubscribers(ev Event) {
	m.subMu.RLock()
	defer m.subMu.RUnlock()

	for ch := range m.subscribers {
		select {
		case ch <- ev:
		default:
			// subscriber is slow, drop the message
		}
	}
}
