// Copyright (c) 2025 Fixonway
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"sort"
	"time"

	"github.com/fixonway/fixonway-tui/internal/model"
)

// reconcileWindow bounds how far apart a local pending message and its
// server echo may be timestamped and still be treated as the same logical
// message. The server does not round-trip the client's temporary id, so the
// match is sender + chat + content within this window.
const reconcileWindow = 2 * time.Minute

// =============================================================================
// TRANSCRIPT
// =============================================================================

// Transcript is the ordered message sequence of the active conversation.
// Two invariants hold after every operation: messages are sorted by creation
// time ascending, and no two entries represent the same logical message.
type Transcript struct {
	msgs []model.Message
}

// Replace swaps in a full history response. The input is sorted defensively;
// servers are expected to return ascending order but the transcript owns the
// invariant.
func (t *Transcript) Replace(msgs []model.Message) {
	t.msgs = make([]model.Message, len(msgs))
	copy(t.msgs, msgs)
	for i := range t.msgs {
		if t.msgs[i].Delivery != model.DeliveryConfirmed && !t.msgs[i].HasTempID() {
			t.msgs[i].Delivery = model.DeliveryConfirmed
		}
	}
	sort.SliceStable(t.msgs, func(i, j int) bool {
		return t.msgs[i].CreatedAt.Before(t.msgs[j].CreatedAt)
	})
}

// Clear empties the transcript (the transient state while switching
// conversations).
func (t *Transcript) Clear() {
	t.msgs = nil
}

// Append inserts a message in timestamp order. Messages with equal
// timestamps keep arrival order.
func (t *Transcript) Append(msg model.Message) {
	i := sort.Search(len(t.msgs), func(i int) bool {
		return t.msgs[i].CreatedAt.After(msg.CreatedAt)
	})
	t.msgs = append(t.msgs, model.Message{})
	copy(t.msgs[i+1:], t.msgs[i:])
	t.msgs[i] = msg
}

// Contains reports whether a message with the given id is present.
func (t *Transcript) Contains(id string) bool {
	for i := range t.msgs {
		if t.msgs[i].ID == id {
			return true
		}
	}
	return false
}

// Reconcile applies an incoming confirmed message, collapsing it with any
// existing entry for the same logical message. Exactly one of three things
// happens:
//
//  1. The server id is already present: the entry is marked confirmed and
//     nothing is added (duplicate broadcast).
//  2. An optimistic pending entry matches by sender, chat, content, and
//     time window: it adopts the server id and timestamp and is confirmed.
//  3. Otherwise the message is appended in order.
//
// Returns true when the transcript changed.
func (t *Transcript) Reconcile(msg model.Message) bool {
	msg.Delivery = model.DeliveryConfirmed

	// Case 1: already known by server id.
	for i := range t.msgs {
		if msg.ID != "" && t.msgs[i].ID == msg.ID {
			if t.msgs[i].Delivery != model.DeliveryConfirmed {
				t.msgs[i].Delivery = model.DeliveryConfirmed
				return true
			}
			return false
		}
	}

	// Case 2: promote the oldest matching pending entry.
	for i := range t.msgs {
		if t.matchesPending(t.msgs[i], msg) {
			t.msgs[i].ID = msg.ID
			t.msgs[i].CreatedAt = msg.CreatedAt
			t.msgs[i].Delivery = model.DeliveryConfirmed
			t.resort()
			return true
		}
	}

	// Case 3: genuinely new.
	t.Append(msg)
	return true
}

// matchesPending reports whether existing is the optimistic counterpart of
// the incoming confirmed message.
func (t *Transcript) matchesPending(existing, incoming model.Message) bool {
	if existing.Delivery != model.DeliveryPending {
		return false
	}
	if existing.ChatID != incoming.ChatID || existing.SenderID != incoming.SenderID {
		return false
	}
	if existing.Content != incoming.Content {
		return false
	}
	delta := incoming.CreatedAt.Sub(existing.CreatedAt)
	if delta < 0 {
		delta = -delta
	}
	return delta <= reconcileWindow
}

// resort restores timestamp order after an in-place timestamp update.
func (t *Transcript) resort() {
	sort.SliceStable(t.msgs, func(i, j int) bool {
		return t.msgs[i].CreatedAt.Before(t.msgs[j].CreatedAt)
	})
}

// Messages returns a copy of the ordered sequence.
func (t *Transcript) Messages() []model.Message {
	out := make([]model.Message, len(t.msgs))
	copy(out, t.msgs)
	return out
}

// Len returns the number of messages.
func (t *Transcript) Len() int {
	return len(t.msgs)
}

// Last returns the most recent message, or nil if empty.
func (t *Transcript) Last() *model.Message {
	if len(t.msgs) == 0 {
		return nil
	}
	m := t.msgs[len(t.msgs)-1]
	return &m
}

// PendingCount returns the number of unconfirmed entries.
func (t *Transcript) PendingCount() int {
	n := 0
	for i := range t.msgs {
		if t.msgs[i].Delivery == model.DeliveryPending {
			n++
		}
	}
	return n
}
