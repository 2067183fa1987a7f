// Copyright (c) 2025 Fixonway
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fixonway/fixonway-tui/internal/model"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func confirmed(id, chatID, sender, content string, at time.Time) model.Message {
	return model.Message{
		ID:        id,
		ChatID:    chatID,
		SenderID:  sender,
		Content:   content,
		CreatedAt: at,
		Delivery:  model.DeliveryConfirmed,
	}
}

func TestTranscriptReplaceSortsAscending(t *testing.T) {
	var tr Transcript
	tr.Replace([]model.Message{
		confirmed("m3", "c1", "u2", "third", t0.Add(2*time.Minute)),
		confirmed("m1", "c1", "u1", "first", t0),
		confirmed("m2", "c1", "u2", "second", t0.Add(time.Minute)),
	})

	got := tr.Messages()
	require.Len(t, got, 3)
	require.Equal(t, "m1", got[0].ID)
	require.Equal(t, "m2", got[1].ID)
	require.Equal(t, "m3", got[2].ID)
}

func TestTranscriptReplaceMarksServerMessagesConfirmed(t *testing.T) {
	var tr Transcript
	msg := confirmed("m1", "c1", "u1", "hello", t0)
	msg.Delivery = model.DeliveryPending // as decoded off the wire
	tr.Replace([]model.Message{msg})

	require.Equal(t, 0, tr.PendingCount())
}

func TestTranscriptAppendKeepsOrder(t *testing.T) {
	var tr Transcript
	tr.Append(confirmed("m2", "c1", "u1", "b", t0.Add(time.Minute)))
	tr.Append(confirmed("m1", "c1", "u1", "a", t0))
	tr.Append(confirmed("m3", "c1", "u1", "c", t0.Add(2*time.Minute)))

	got := tr.Messages()
	require.Equal(t, "m1", got[0].ID)
	require.Equal(t, "m2", got[1].ID)
	require.Equal(t, "m3", got[2].ID)
}

func TestTranscriptAppendEqualTimestampsKeepArrivalOrder(t *testing.T) {
	var tr Transcript
	tr.Append(confirmed("m1", "c1", "u1", "a", t0))
	tr.Append(confirmed("m2", "c1", "u1", "b", t0))

	got := tr.Messages()
	require.Equal(t, "m1", got[0].ID)
	require.Equal(t, "m2", got[1].ID)
}

func TestTranscriptReconcilePromotesPending(t *testing.T) {
	var tr Transcript
	pending := model.NewPendingMessage("c1", "u1", "hi there")
	pending.CreatedAt = t0
	tr.Append(pending)
	require.Equal(t, 1, tr.PendingCount())

	changed := tr.Reconcile(confirmed("srv1", "c1", "u1", "hi there", t0.Add(3*time.Second)))
	require.True(t, changed)
	require.Equal(t, 1, tr.Len(), "echo must collapse into the pending entry")
	require.Equal(t, 0, tr.PendingCount())

	got := tr.Messages()[0]
	require.Equal(t, "srv1", got.ID, "pending entry adopts the server id")
	require.Equal(t, t0.Add(3*time.Second), got.CreatedAt, "pending entry adopts the server timestamp")
}

func TestTranscriptReconcilePromotesOldestPendingFirst(t *testing.T) {
	var tr Transcript
	p1 := model.NewPendingMessage("c1", "u1", "same text")
	p1.CreatedAt = t0
	p2 := model.NewPendingMessage("c1", "u1", "same text")
	p2.CreatedAt = t0.Add(time.Second)
	tr.Append(p1)
	tr.Append(p2)

	tr.Reconcile(confirmed("srv1", "c1", "u1", "same text", t0.Add(2*time.Second)))
	require.Equal(t, 1, tr.PendingCount())
	require.True(t, tr.Contains("srv1"))
	// The promoted entry adopts the server timestamp (t0+2s) and re-sorts
	// behind the still-pending p2 (t0+1s).
	require.Equal(t, p2.ID, tr.Messages()[0].ID, "the later pending entry stays")
	require.Equal(t, "srv1", tr.Messages()[1].ID)
}

func TestTranscriptReconcileDuplicateBroadcastIsNoop(t *testing.T) {
	var tr Transcript
	tr.Append(confirmed("srv1", "c1", "u1", "hello", t0))

	changed := tr.Reconcile(confirmed("srv1", "c1", "u1", "hello", t0))
	require.False(t, changed)
	require.Equal(t, 1, tr.Len())
}

func TestTranscriptReconcileAppendsForeignMessage(t *testing.T) {
	var tr Transcript
	pending := model.NewPendingMessage("c1", "u1", "mine")
	pending.CreatedAt = t0
	tr.Append(pending)

	tr.Reconcile(confirmed("srv2", "c1", "u2", "theirs", t0.Add(time.Second)))
	require.Equal(t, 2, tr.Len())
	require.Equal(t, 1, tr.PendingCount(), "a different sender never consumes a pending entry")
}

func TestTranscriptReconcileRespectsTimeWindow(t *testing.T) {
	var tr Transcript
	pending := model.NewPendingMessage("c1", "u1", "old draft")
	pending.CreatedAt = t0
	tr.Append(pending)

	tr.Reconcile(confirmed("srv1", "c1", "u1", "old draft", t0.Add(reconcileWindow+time.Second)))
	require.Equal(t, 2, tr.Len(), "an echo outside the window is a new message")
	require.Equal(t, 1, tr.PendingCount())
}

func TestTranscriptClear(t *testing.T) {
	var tr Transcript
	tr.Append(confirmed("m1", "c1", "u1", "a", t0))
	tr.Clear()
	require.Equal(t, 0, tr.Len())
	require.Nil(t, tr.Last())
}
