// Copyright (c) 2025 Fixonway
// SPDX-License-Identifier: AGPL-3.0-or-later

package realtime

import (
	"encoding/json"
	"errors"
	"sync"
)

// =============================================================================
// CHANNEL INTERFACE
// =============================================================================

// Handler receives the raw payload of an inbound event. Handlers run on the
// channel's dispatch goroutine and must not block.
type Handler func(data json.RawMessage)

// Subscription is the deregistration handle returned by Subscribe. Every
// subscriber must call Unsubscribe when its scope ends; stale handlers bound
// to a previous conversation are a correctness bug, not just a leak.
type Subscription interface {
	Unsubscribe()
}

// Channel is the capability the chat core is constructed with: fire-and-
// forget emit plus event subscription. Implemented by Conn (websocket) in
// production and Bus (in-memory) in tests.
type Channel interface {
	// Emit sends an event to the server. There is no acknowledgement unless
	// the event is a query answered by a corresponding inbound event.
	Emit(event string, payload any) error

	// Subscribe registers a handler for an inbound event name. Multiple
	// handlers per event are allowed.
	Subscribe(event string, h Handler) Subscription

	// Close tears down the channel and drops all subscriptions.
	Close() error
}

// State describes the transport connectivity, surfaced to the UI so it can
// show a transient banner instead of silently operating on stale data.
type State int

const (
	StateConnecting State = iota
	StateConnected
	StateDisconnected
	StateClosed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Notifier is implemented by channels that report connectivity transitions.
// The callback runs on the channel's goroutine.
type Notifier interface {
	OnStateChange(fn func(State))
}

// =============================================================================
// HANDLER MUX
// =============================================================================

// mux is the subscription registry shared by Conn and Bus. Handlers are
// keyed by a generated id so unsubscription works even though funcs are not
// comparable.
type mux struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]Handler
}

func newMux() *mux {
	return &mux{subs: make(map[string]map[int]Handler)}
}

func (m *mux) subscribe(event string, h Handler) Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	id := m.nextID
	if m.subs[event] == nil {
		m.subs[event] = make(map[int]Handler)
	}
	m.subs[event][id] = h

	return &muxSub{m: m, event: event, id: id}
}

// dispatch invokes every handler registered for the event. The handler list
// is snapshotted under the lock so a handler may unsubscribe (itself or
// others) during delivery.
func (m *mux) dispatch(event string, data json.RawMessage) {
	m.mu.Lock()
	handlers := make([]Handler, 0, len(m.subs[event]))
	for _, h := range m.subs[event] {
		handlers = append(handlers, h)
	}
	m.mu.Unlock()

	for _, h := range handlers {
		h(data)
	}
}

func (m *mux) clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = make(map[string]map[int]Handler)
}

type muxSub struct {
	m     *mux
	event string
	id    int
	once  sync.Once
}

// Unsubscribe removes the handler. Safe to call more than once.
func (s *muxSub) Unsubscribe() {
	s.once.Do(func() {
		s.m.mu.Lock()
		defer s.m.mu.Unlock()
		if hs, ok := s.m.subs[s.event]; ok {
			delete(hs, s.id)
			if len(hs) == 0 {
				delete(s.m.subs, s.event)
			}
		}
	})
}

// =============================================================================
// WIRE ENVELOPE
// =============================================================================

// envelope is the JSON frame exchanged on the wire.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// encodeEnvelope marshals an event and payload into a wire frame.
func encodeEnvelope(event string, payload any) ([]byte, error) {
	var data json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		data = b
	}
	return json.Marshal(envelope{Event: event, Data: data})
}

// decodeEnvelope unmarshals a wire frame. Frames without an event name are
// rejected so they never dispatch to the "" key.
func decodeEnvelope(frame []byte, env *envelope) error {
	if err := json.Unmarshal(frame, env); err != nil {
		return err
	}
	if env.Event == "" {
		return errMissingEvent
	}
	return nil
}

var errMissingEvent = errors.New("realtime: frame missing event name")
