// Copyright (c) 2025 Fixonway
// SPDX-License-Identifier: AGPL-3.0-or-later

package realtime

import (
	"encoding/json"
	"sync"
)

// =============================================================================
// IN-MEMORY BUS
// =============================================================================

// Bus is an in-memory Channel for tests. Emitted events are recorded and
// optionally answered by a server script; Inject simulates inbound server
// events. Delivery is synchronous, which matches the single-event-loop
// discipline of the real client: no two handlers ever run concurrently.
type Bus struct {
	mux *mux

	mu      sync.Mutex
	emitted []Emitted
	serve   func(event string, data json.RawMessage)
	closed  bool
}

// Emitted is one outbound event captured by the bus.
type Emitted struct {
	Event string
	Data  json.RawMessage
}

// NewBus creates an empty in-memory channel.
func NewBus() *Bus {
	return &Bus{mux: newMux()}
}

// Serve installs a server script invoked synchronously for every emit. The
// script typically calls Inject to deliver the reply.
func (b *Bus) Serve(fn func(event string, data json.RawMessage)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.serve = fn
}

// Emit records the event and runs the server script, if any.
func (b *Bus) Emit(event string, payload any) error {
	var data json.RawMessage
	if payload != nil {
		bts, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		data = bts
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	b.emitted = append(b.emitted, Emitted{Event: event, Data: data})
	serve := b.serve
	b.mu.Unlock()

	if serve != nil {
		serve(event, data)
	}
	return nil
}

// Subscribe registers a handler for inbound events.
func (b *Bus) Subscribe(event string, h Handler) Subscription {
	return b.mux.subscribe(event, h)
}

// Inject delivers an inbound event to subscribers, as the server would.
func (b *Bus) Inject(event string, payload any) error {
	var data json.RawMessage
	if payload != nil {
		bts, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		data = bts
	}
	b.mux.dispatch(event, data)
	return nil
}

// Emitted returns a copy of the captured outbound events.
func (b *Bus) Emitted() []Emitted {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Emitted, len(b.emitted))
	copy(out, b.emitted)
	return out
}

// LastEmitted returns the most recent outbound event, or nil.
func (b *Bus) LastEmitted() *Emitted {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.emitted) == 0 {
		return nil
	}
	e := b.emitted[len(b.emitted)-1]
	return &e
}

// EmittedNamed returns all captured events with the given name.
func (b *Bus) EmittedNamed(event string) []Emitted {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []Emitted
	for _, e := range b.emitted {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

// SubscriberCount reports how many handlers are registered for an event.
// Used by tests asserting that conversation switches deregister handlers.
func (b *Bus) SubscriberCount(event string) int {
	b.mux.mu.Lock()
	defer b.mux.mu.Unlock()
	return len(b.mux.subs[event])
}

// Close drops all subscriptions and rejects further emits.
func (b *Bus) Close() error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.mux.clear()
	return nil
}
