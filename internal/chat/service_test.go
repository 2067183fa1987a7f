// Copyright (c) 2025 Fixonway
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fixonway/fixonway-tui/internal/model"
	"github.com/fixonway/fixonway-tui/internal/realtime"
)

var (
	me   = model.User{ID: "me", FullName: "Mara Voss"}
	dana = model.User{ID: "u-dana", FullName: "Dana Reyes"}
	eli  = model.User{ID: "u-eli", FullName: "Eli Park"}
)

func newTestService(t *testing.T, opts Options) (*Service, *realtime.Bus) {
	t.Helper()
	bus := realtime.NewBus()
	svc := NewService(bus, me, opts)
	t.Cleanup(svc.Close)
	return svc, bus
}

func drainNotices(svc *Service) {
	for {
		select {
		case <-svc.Notices():
		default:
			return
		}
	}
}

func TestServiceLoadRoster(t *testing.T) {
	svc, bus := newTestService(t, Options{})

	svc.LoadRoster()
	require.True(t, svc.Roster().Loading)

	out := bus.EmittedNamed(realtime.EventGetAllChats)
	require.Len(t, out, 1)
	var p realtime.GetAllChatsPayload
	require.NoError(t, json.Unmarshal(out[0].Data, &p))
	require.Equal(t, "me", p.UserID)

	require.NoError(t, bus.Inject(realtime.EventAllChats, []model.Chat{
		{ChatID: "c-dana", Counterpart: dana},
		{ChatID: "c-eli", Counterpart: eli, Unread: true},
	}))

	snap := svc.Roster()
	require.False(t, snap.Loading)
	require.Len(t, snap.Chats, 2)
	require.Equal(t, 1, snap.Unread)
}

func TestServiceOpenConversationFullFlow(t *testing.T) {
	svc, bus := newTestService(t, Options{})

	svc.OpenConversation(dana)
	require.Equal(t, ConvJoining, svc.Conversation().State)
	require.Equal(t, 1, bus.SubscriberCount(realtime.EventChatJoined))

	out := bus.EmittedNamed(realtime.EventJoinChat)
	require.Len(t, out, 1)
	var join realtime.JoinChatPayload
	require.NoError(t, json.Unmarshal(out[0].Data, &join))
	require.Equal(t, "me", join.UserID)
	require.Equal(t, "u-dana", join.OtherUserID)

	// Confirmation without inline history: the client asks for it.
	require.NoError(t, bus.Inject(realtime.EventChatJoined,
		realtime.ChatJoinedPayload{ChatID: "c-dana"}))

	conv := svc.Conversation()
	require.Equal(t, ConvLoadingHistory, conv.State)
	require.Equal(t, "c-dana", conv.ChatID)
	require.Equal(t, 0, bus.SubscriberCount(realtime.EventChatJoined),
		"join handler must be dropped once the join resolves")
	require.Len(t, bus.EmittedNamed(realtime.EventGetMessages), 1)

	require.NoError(t, bus.Inject(realtime.EventChatMessages, realtime.ChatMessagesPayload{
		ChatID: "c-dana",
		Messages: []model.Message{
			confirmed("m1", "c-dana", "u-dana", "hi, about the sink repair", t0),
			confirmed("m2", "c-dana", "me", "when can you come by?", t0.Add(time.Minute)),
		},
	}))

	conv = svc.Conversation()
	require.Equal(t, ConvOpen, conv.State)
	require.Len(t, conv.Messages, 2)
	require.Equal(t, "m1", conv.Messages[0].ID)
	require.Equal(t, 0, bus.SubscriberCount(realtime.EventChatMessages),
		"history handler must be dropped once the load resolves")

	// The joined chat is now at the front of the roster, read.
	ros := svc.Roster()
	require.Len(t, ros.Chats, 1)
	require.Equal(t, "c-dana", ros.Chats[0].ChatID)
	require.False(t, ros.Chats[0].Unread)
}

func TestServiceJoinWithInlineHistorySkipsLoad(t *testing.T) {
	svc, bus := newTestService(t, Options{})

	svc.OpenConversation(dana)
	require.NoError(t, bus.Inject(realtime.EventChatJoined, realtime.ChatJoinedPayload{
		ChatID:   "c-dana",
		Messages: []model.Message{confirmed("m1", "c-dana", "u-dana", "hello", t0)},
	}))

	conv := svc.Conversation()
	require.Equal(t, ConvOpen, conv.State)
	require.Len(t, conv.Messages, 1)
	require.Empty(t, bus.EmittedNamed(realtime.EventGetMessages))
}

func TestServiceSelectConversationSkipsJoin(t *testing.T) {
	svc, bus := newTestService(t, Options{})
	require.NoError(t, bus.Inject(realtime.EventAllChats, []model.Chat{
		{ChatID: "c-eli", Counterpart: eli, Unread: true},
	}))

	svc.SelectConversation(svc.Roster().Chats[0])

	require.Empty(t, bus.EmittedNamed(realtime.EventJoinChat))
	require.Len(t, bus.EmittedNamed(realtime.EventGetMessages), 1)
	require.Equal(t, ConvLoadingHistory, svc.Conversation().State)
	require.False(t, svc.Roster().Chats[0].Unread, "opening a chat clears its unread flag")

	require.NoError(t, bus.Inject(realtime.EventChatMessages, realtime.ChatMessagesPayload{
		ChatID:   "c-eli",
		Messages: []model.Message{confirmed("m1", "c-eli", "u-eli", "quote attached", t0)},
	}))
	require.Equal(t, ConvOpen, svc.Conversation().State)
}

// Rapid switching: responses for an abandoned conversation must never land
// in the one now on screen.
func TestServiceRapidSwitchDiscardsStaleResponses(t *testing.T) {
	svc, bus := newTestService(t, Options{})

	svc.OpenConversation(dana)
	svc.OpenConversation(eli)
	require.Equal(t, 1, bus.SubscriberCount(realtime.EventChatJoined),
		"switching replaces the pending join handler, never stacks it")

	// Late confirmation for the abandoned join. The roster maps c-dana to
	// dana, not eli, so it is discarded even though the state is Joining.
	require.NoError(t, bus.Inject(realtime.EventAllChats, []model.Chat{
		{ChatID: "c-dana", Counterpart: dana},
	}))
	require.NoError(t, bus.Inject(realtime.EventChatJoined,
		realtime.ChatJoinedPayload{ChatID: "c-dana"}))

	conv := svc.Conversation()
	require.Equal(t, ConvJoining, conv.State)
	require.Equal(t, "u-eli", conv.Counterpart.ID)
	require.Empty(t, conv.ChatID)

	// The current join still resolves normally.
	require.NoError(t, bus.Inject(realtime.EventChatJoined,
		realtime.ChatJoinedPayload{ChatID: "c-eli"}))
	require.Equal(t, "c-eli", svc.Conversation().ChatID)

	// A history response for the abandoned chat is likewise dropped.
	require.NoError(t, bus.Inject(realtime.EventChatMessages, realtime.ChatMessagesPayload{
		ChatID:   "c-dana",
		Messages: []model.Message{confirmed("m9", "c-dana", "u-dana", "stale", t0)},
	}))
	require.Empty(t, svc.Conversation().Messages)
}

func TestServiceOptimisticSendAndEcho(t *testing.T) {
	svc, bus := newTestService(t, Options{})
	openChat(t, svc, bus, "c-dana", dana)

	svc.SendMessage("  can you do tuesday?  ")

	conv := svc.Conversation()
	require.Len(t, conv.Messages, 1)
	sent := conv.Messages[0]
	require.True(t, sent.IsPending())
	require.Equal(t, "can you do tuesday?", sent.Content, "whitespace is trimmed before send")

	out := bus.EmittedNamed(realtime.EventSendMessage)
	require.Len(t, out, 1)
	var wire model.Message
	require.NoError(t, json.Unmarshal(out[0].Data, &wire))
	require.Equal(t, "can you do tuesday?", wire.Content)
	require.Equal(t, "c-dana", wire.ChatID)

	// Server echo: same content, server id, server timestamp.
	require.NoError(t, bus.Inject(realtime.EventNewMessage,
		confirmed("srv1", "c-dana", "me", "can you do tuesday?", time.Now().UTC())))

	conv = svc.Conversation()
	require.Len(t, conv.Messages, 1, "the echo collapses into the optimistic entry")
	require.Equal(t, "srv1", conv.Messages[0].ID)
	require.False(t, conv.Messages[0].IsPending())
}

func TestServiceSendRequiresOpenConversation(t *testing.T) {
	svc, bus := newTestService(t, Options{})

	svc.SendMessage("hello?")
	require.Empty(t, bus.EmittedNamed(realtime.EventSendMessage))

	svc.SendMessage("   ")
	require.Empty(t, bus.EmittedNamed(realtime.EventSendMessage))
}

// A message for another conversation updates the roster only; the open
// transcript must not change.
func TestServiceForeignMessageIsolation(t *testing.T) {
	svc, bus := newTestService(t, Options{})
	require.NoError(t, bus.Inject(realtime.EventAllChats, []model.Chat{
		{ChatID: "c-dana", Counterpart: dana},
		{ChatID: "c-eli", Counterpart: eli},
	}))
	openChat(t, svc, bus, "c-dana", dana)

	require.NoError(t, bus.Inject(realtime.EventNewMessage,
		confirmed("m7", "c-eli", "u-eli", "are you there?", time.Now().UTC())))

	require.Empty(t, svc.Conversation().Messages)
	ros := svc.Roster()
	require.Equal(t, "c-eli", ros.Chats[0].ChatID, "activity promotes the other chat")
	require.True(t, ros.Chats[0].Unread)
	require.Equal(t, 1, ros.Unread)
}

func TestServiceIncomingForActiveChatStaysRead(t *testing.T) {
	svc, bus := newTestService(t, Options{})
	openChat(t, svc, bus, "c-dana", dana)

	require.NoError(t, bus.Inject(realtime.EventNewMessage,
		confirmed("m5", "c-dana", "u-dana", "yes, tuesday works", time.Now().UTC())))

	conv := svc.Conversation()
	require.Len(t, conv.Messages, 1)
	require.Equal(t, 0, svc.Roster().Unread)
}

func TestServiceErrorDuringJoinRevertsToIdle(t *testing.T) {
	svc, bus := newTestService(t, Options{})

	svc.OpenConversation(dana)
	drainNotices(svc)
	require.NoError(t, bus.Inject(realtime.EventChatError,
		realtime.ErrorPayload{Message: "user not found"}))

	conv := svc.Conversation()
	require.Equal(t, ConvIdle, conv.State)
	require.Equal(t, "user not found", conv.Err)
	require.Equal(t, 0, bus.SubscriberCount(realtime.EventChatJoined))

	var sawErr bool
	for len(svc.Notices()) > 0 {
		if n := <-svc.Notices(); n.Kind == NoticeError {
			sawErr = true
			require.Equal(t, "user not found", n.Err)
		}
	}
	require.True(t, sawErr)
}

func TestServiceErrorDuringHistoryKeepsConversation(t *testing.T) {
	svc, bus := newTestService(t, Options{})
	require.NoError(t, bus.Inject(realtime.EventAllChats, []model.Chat{
		{ChatID: "c-eli", Counterpart: eli},
	}))
	svc.SelectConversation(svc.Roster().Chats[0])

	require.NoError(t, bus.Inject(realtime.EventError,
		realtime.ErrorPayload{Message: "history unavailable"}))

	conv := svc.Conversation()
	require.Equal(t, ConvOpen, conv.State, "a failed load leaves a usable, if empty, conversation")
	require.Equal(t, "c-eli", conv.ChatID)
	require.Equal(t, "history unavailable", conv.Err)
}

func TestServiceJoinTimeout(t *testing.T) {
	svc, _ := newTestService(t, Options{RequestTimeout: 20 * time.Millisecond})

	svc.OpenConversation(dana)

	require.Eventually(t, func() bool {
		return svc.Conversation().State == ConvIdle
	}, time.Second, 5*time.Millisecond)
	require.Equal(t, "request timed out", svc.Conversation().Err)
}

func TestServiceTimeoutAfterResolutionIsIgnored(t *testing.T) {
	svc, bus := newTestService(t, Options{RequestTimeout: 20 * time.Millisecond})

	openChat(t, svc, bus, "c-dana", dana)

	time.Sleep(60 * time.Millisecond)
	conv := svc.Conversation()
	require.Equal(t, ConvOpen, conv.State)
	require.Empty(t, conv.Err)
}

// A timer left over from an abandoned request must never abort the request
// that replaced it, even when it fires in the window where the new one is
// already in flight.
func TestServiceStaleTimerCannotAbortReplacement(t *testing.T) {
	svc, bus := newTestService(t, Options{})

	svc.OpenConversation(dana)
	svc.mu.Lock()
	abandoned := svc.conv.seq
	svc.mu.Unlock()

	// The user moves on before the join resolves.
	svc.SelectConversation(model.Chat{ChatID: "c-eli", Counterpart: eli})
	require.Equal(t, ConvLoadingHistory, svc.Conversation().State)
	drainNotices(svc)

	svc.onTimeout(abandoned)

	conv := svc.Conversation()
	require.Equal(t, ConvLoadingHistory, conv.State,
		"the replacement request stays in flight")
	require.Empty(t, conv.Err)

	// And the replacement still resolves normally.
	require.NoError(t, bus.Inject(realtime.EventChatMessages,
		realtime.ChatMessagesPayload{ChatID: "c-eli"}))
	require.Equal(t, ConvOpen, svc.Conversation().State)
}

func TestServiceCloseConversation(t *testing.T) {
	svc, bus := newTestService(t, Options{})
	openChat(t, svc, bus, "c-dana", dana)

	svc.CloseConversation()

	conv := svc.Conversation()
	require.Equal(t, ConvIdle, conv.State)
	require.Empty(t, conv.ChatID)
	require.Empty(t, conv.Messages)

	// Closing the pane leaves the roster intact.
	ros := svc.Roster()
	require.Len(t, ros.Chats, 1)
	require.Equal(t, "c-dana", ros.Chats[0].ChatID)
}

func TestServiceCloseDropsAllSubscriptions(t *testing.T) {
	bus := realtime.NewBus()
	svc := NewService(bus, me, Options{})
	svc.OpenConversation(dana)

	svc.Close()

	for _, ev := range []string{
		realtime.EventAllChats,
		realtime.EventNewMessage,
		realtime.EventError,
		realtime.EventChatError,
		realtime.EventChatJoined,
		realtime.EventChatMessages,
	} {
		require.Zero(t, bus.SubscriberCount(ev), ev)
	}
}

// openChat drives a conversation to Open through the normal join + history
// exchange.
func openChat(t *testing.T, svc *Service, bus *realtime.Bus, chatID string, counterpart model.User) {
	t.Helper()
	svc.OpenConversation(counterpart)
	require.NoError(t, bus.Inject(realtime.EventChatJoined,
		realtime.ChatJoinedPayload{ChatID: chatID}))
	require.NoError(t, bus.Inject(realtime.EventChatMessages,
		realtime.ChatMessagesPayload{ChatID: chatID, Messages: []model.Message{}}))
	require.Equal(t, ConvOpen, svc.Conversation().State)
	drainNotices(svc)
}
