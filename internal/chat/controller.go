// Copyright (c) 2025 Fixonway
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	"github.com/fixonway/fixonway-tui/internal/model"
	"github.com/fixonway/fixonway-tui/internal/realtime"
)

// =============================================================================
// CONVERSATION STATE
// =============================================================================

// ConvState is the active-conversation state machine.
//
//	Idle -> Joining -> LoadingHistory -> Open -> Idle
//
// Joining may skip straight to Open when the join confirmation carries the
// initial history. Switching conversations from any state abandons the
// in-flight request for the previous chat.
type ConvState int

const (
	ConvIdle           ConvState = iota // no conversation open
	ConvJoining                         // join request in flight
	ConvLoadingHistory                  // joined; history request in flight
	ConvOpen                            // transcript loaded, live updates applied
)

// String returns the string representation of the state.
func (s ConvState) String() string {
	switch s {
	case ConvIdle:
		return "idle"
	case ConvJoining:
		return "joining"
	case ConvLoadingHistory:
		return "loading"
	case ConvOpen:
		return "open"
	default:
		return "unknown"
	}
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller holds the active conversation: which chat is open, its
// transcript, and the tag of the one request that may be in flight.
//
// Requests are tagged with a sequence number; a response whose tag no longer
// matches is stale and discarded. Event subscriptions for join and history
// responses are scoped to the request and deregistered on every transition
// out of the waiting state, so a conversation switch can never leave a
// handler bound to a dead chat id.
//
// All methods must be called with the owning Service's lock held.
type Controller struct {
	state       ConvState
	chatID      string
	counterpart model.User
	transcript  Transcript

	// In-flight request tag. seq increments on every new request; the
	// response handler closes over the seq it was issued for.
	seq     uint64
	pending realtime.Subscription
	timer   *time.Timer

	lastError string
}

// emit is a deferred channel send, executed by the Service after the lock
// is released so a synchronous test bus cannot re-enter the core.
type emit struct {
	event   string
	payload any
}

// cancelInflight drops the pending request subscription and timer. Called
// on every transition that abandons a wait.
func (c *Controller) cancelInflight() {
	if c.pending != nil {
		c.pending.Unsubscribe()
		c.pending = nil
	}
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// beginJoin moves to Joining for the given counterpart and invalidates any
// outstanding request. Returns the new request tag.
func (c *Controller) beginJoin(counterpart model.User) uint64 {
	c.cancelInflight()
	c.seq++
	c.state = ConvJoining
	c.chatID = ""
	c.counterpart = counterpart
	c.transcript.Clear()
	c.lastError = ""
	return c.seq
}

// beginSelect moves to LoadingHistory for a known roster entry: the chat id
// is already established, so no join round-trip is needed. The transcript
// is cleared to the transient empty state; the caller may pre-paint it from
// the local cache. Returns the new request tag.
func (c *Controller) beginSelect(chat model.Chat) uint64 {
	c.cancelInflight()
	c.seq++
	c.state = ConvLoadingHistory
	c.chatID = chat.ChatID
	c.counterpart = chat.Counterpart
	c.transcript.Clear()
	c.lastError = ""
	return c.seq
}

// beginHistory moves Joining -> LoadingHistory once a join confirmed a chat
// id without inline history. Returns the new request tag.
func (c *Controller) beginHistory() uint64 {
	c.cancelInflight()
	c.seq++
	c.state = ConvLoadingHistory
	return c.seq
}

// matches reports whether a response tag is still current.
func (c *Controller) matches(seq uint64) bool {
	return seq == c.seq
}

// applyJoined consumes a join confirmation for the current request: adopts
// the chat id and either opens directly (inline history present) or asks
// the caller to request it.
func (c *Controller) applyJoined(p realtime.ChatJoinedPayload) (needHistory bool) {
	c.cancelInflight()
	c.chatID = p.ChatID
	if p.Messages != nil {
		c.transcript.Replace(p.Messages)
		c.state = ConvOpen
		return false
	}
	return true
}

// applyHistory consumes a history response for the current request. The
// transcript is replaced wholesale.
func (c *Controller) applyHistory(msgs []model.Message) {
	c.cancelInflight()
	c.transcript.Replace(msgs)
	c.state = ConvOpen
}

// applyFailure reverts to the last known-good state after an explicit error
// or a timeout. A join that never confirmed returns to Idle; a failed
// history load keeps the conversation open on whatever is already painted
// (cached or empty) rather than corrupting state. A failed send changes
// nothing: the optimistic entry stays pending.
func (c *Controller) applyFailure(message string) {
	c.cancelInflight()
	c.lastError = message
	switch c.state {
	case ConvJoining:
		c.state = ConvIdle
		c.chatID = ""
		c.counterpart = model.User{}
		c.transcript.Clear()
	case ConvLoadingHistory:
		c.state = ConvOpen
	}
}

// close returns to Idle and discards the conversation window. Roster state
// is untouched.
func (c *Controller) close() {
	c.cancelInflight()
	c.state = ConvIdle
	c.chatID = ""
	c.counterpart = model.User{}
	c.transcript.Clear()
	c.lastError = ""
}

// isViewing reports whether the given chat is the one on screen (open or
// being opened), which suppresses its unread flag.
func (c *Controller) isViewing(chatID string) bool {
	return chatID != "" && c.chatID == chatID
}
