// Copyright (c) 2025 Fixonway
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/fixonway/fixonway-tui/internal/model"
	"github.com/fixonway/fixonway-tui/internal/realtime"
)

// =============================================================================
// NOTICES
// =============================================================================

// NoticeKind classifies a change notification sent to the presentation
// layer.
type NoticeKind int

const (
	NoticeRoster       NoticeKind = iota // roster contents or loading flag changed
	NoticeConversation                   // active conversation changed
	NoticeError                          // a user-facing error message
	NoticeTransport                      // the underlying connection changed state
)

// Notice is a coarse change notification. The UI reacts by re-reading the
// relevant snapshot; notices carry no domain data beyond the error text.
type Notice struct {
	Kind      NoticeKind
	Err       string
	Transport realtime.State
}

// =============================================================================
// STORAGE HOOK
// =============================================================================

// Store is the optional local cache. Writes happen after server-confirmed
// data arrives; reads pre-paint a conversation while history loads. A nil
// Store disables caching.
type Store interface {
	SaveRoster(chats []model.Chat) error
	LoadRoster() ([]model.Chat, error)
	SaveMessages(chatID string, msgs []model.Message) error
	SaveMessage(msg model.Message) error
	LoadMessages(chatID string) ([]model.Message, error)
}

// =============================================================================
// SERVICE
// =============================================================================

// DefaultRequestTimeout bounds how long a join or history request may stay
// in flight before it is treated as failed.
const DefaultRequestTimeout = 10 * time.Second

// Service is the client core: it owns the roster and the active
// conversation, translates user intents into channel emissions, and applies
// inbound events to state. The presentation layer reads snapshots and
// listens on Notices; it never touches the channel directly.
type Service struct {
	mu   sync.Mutex
	ch   realtime.Channel
	user model.User

	roster Roster
	conv   Controller

	rosterLoading bool
	rosterErr     string

	store   Store
	timeout time.Duration

	notices chan Notice
	subs    []realtime.Subscription
	closed  bool
}

// Options configures a Service. Zero values select defaults.
type Options struct {
	// Store enables the local transcript cache.
	Store Store
	// RequestTimeout overrides DefaultRequestTimeout.
	RequestTimeout time.Duration
}

// NewService wires a Service onto the channel and registers its lifetime
// subscriptions. The caller owns the channel and closes it after Close.
func NewService(ch realtime.Channel, user model.User, opts Options) *Service {
	s := &Service{
		ch:      ch,
		user:    user,
		store:   opts.Store,
		timeout: opts.RequestTimeout,
		notices: make(chan Notice, 32),
	}
	if s.timeout <= 0 {
		s.timeout = DefaultRequestTimeout
	}
	s.subs = append(s.subs,
		ch.Subscribe(realtime.EventAllChats, s.onAllChats),
		ch.Subscribe(realtime.EventNewMessage, s.onNewMessage),
		ch.Subscribe(realtime.EventError, s.onError),
		ch.Subscribe(realtime.EventChatError, s.onError),
	)
	if n, ok := ch.(realtime.Notifier); ok {
		n.OnStateChange(func(st realtime.State) {
			s.notify(Notice{Kind: NoticeTransport, Transport: st})
		})
	}
	if s.store != nil {
		if cached, err := s.store.LoadRoster(); err == nil && len(cached) > 0 {
			s.roster.Replace(cached)
		}
	}
	return s
}

// Notices returns the change-notification stream. The channel is buffered
// and never blocks the core; a slow reader loses coalescable notices, not
// state.
func (s *Service) Notices() <-chan Notice { return s.notices }

// Close deregisters every subscription and stops any in-flight request
// timer. The Service must not be used afterwards.
func (s *Service) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.conv.cancelInflight()
	subs := s.subs
	s.subs = nil
	s.mu.Unlock()

	for _, sub := range subs {
		sub.Unsubscribe()
	}
}

func (s *Service) notify(n Notice) {
	select {
	case s.notices <- n:
	default:
	}
}

// send executes deferred emissions outside the lock. Emission failures
// surface as error notices; optimistic state is already applied and stays.
func (s *Service) send(emits ...emit) {
	for _, e := range emits {
		if err := s.ch.Emit(e.event, e.payload); err != nil {
			s.notify(Notice{Kind: NoticeError, Err: "connection unavailable: " + err.Error()})
		}
	}
}

// =============================================================================
// SNAPSHOTS
// =============================================================================

// RosterSnapshot is the roster pane's read model.
type RosterSnapshot struct {
	Chats   []model.Chat
	Loading bool
	Err     string
	Unread  int
}

// ConversationSnapshot is the conversation pane's read model.
type ConversationSnapshot struct {
	State       ConvState
	ChatID      string
	Counterpart model.User
	Messages    []model.Message
	Err         string
}

// Roster returns a copy of the roster pane state.
func (s *Service) Roster() RosterSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return RosterSnapshot{
		Chats:   s.roster.Chats(),
		Loading: s.rosterLoading,
		Err:     s.rosterErr,
		Unread:  s.roster.UnreadCount(),
	}
}

// Conversation returns a copy of the active conversation state.
func (s *Service) Conversation() ConversationSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ConversationSnapshot{
		State:       s.conv.state,
		ChatID:      s.conv.chatID,
		Counterpart: s.conv.counterpart,
		Messages:    s.conv.transcript.Messages(),
		Err:         s.conv.lastError,
	}
}

// =============================================================================
// OPERATIONS
// =============================================================================

// LoadRoster requests the full chat list. Idempotent; safe to call again on
// reconnect.
func (s *Service) LoadRoster() {
	s.mu.Lock()
	s.rosterLoading = true
	s.rosterErr = ""
	userID := s.user.ID
	s.mu.Unlock()

	s.notify(Notice{Kind: NoticeRoster})
	s.send(emit{realtime.EventGetAllChats, realtime.GetAllChatsPayload{UserID: userID}})
}

// OpenConversation starts (or resumes) the conversation with the given
// counterpart. The server resolves the user pair to a chat id; any request
// in flight for a previous conversation is abandoned.
func (s *Service) OpenConversation(counterpart model.User) {
	s.mu.Lock()
	seq := s.conv.beginJoin(counterpart)
	s.conv.pending = s.ch.Subscribe(realtime.EventChatJoined, func(data json.RawMessage) {
		s.onChatJoined(seq, data)
	})
	s.conv.timer = time.AfterFunc(s.timeout, func() { s.onTimeout(seq) })
	userID := s.user.ID
	s.mu.Unlock()

	s.notify(Notice{Kind: NoticeConversation})
	s.send(emit{realtime.EventJoinChat, realtime.JoinChatPayload{
		UserID:      userID,
		OtherUserID: counterpart.ID,
	}})
}

// SelectConversation opens a chat already present in the roster. The chat
// id is known, so this skips the join round-trip and requests history
// directly. The unread flag clears immediately.
func (s *Service) SelectConversation(chat model.Chat) {
	s.mu.Lock()
	seq := s.conv.beginSelect(chat)
	if s.store != nil {
		if cached, err := s.store.LoadMessages(chat.ChatID); err == nil && len(cached) > 0 {
			s.conv.transcript.Replace(cached)
		}
	}
	s.roster.MarkRead(chat.ChatID)
	s.conv.pending = s.ch.Subscribe(realtime.EventChatMessages, func(data json.RawMessage) {
		s.onChatMessages(seq, data)
	})
	s.conv.timer = time.AfterFunc(s.timeout, func() { s.onTimeout(seq) })
	s.mu.Unlock()

	s.notify(Notice{Kind: NoticeRoster})
	s.notify(Notice{Kind: NoticeConversation})
	s.send(emit{realtime.EventGetMessages, realtime.GetMessagesPayload{ChatID: chat.ChatID}})
}

// SendMessage appends an optimistic pending entry and emits it. No-op
// unless a conversation is open. The entry is confirmed when the server
// echoes it back through the broadcast event.
func (s *Service) SendMessage(content string) {
	content = strings.TrimSpace(content)
	if content == "" {
		return
	}

	s.mu.Lock()
	if s.conv.state != ConvOpen || s.conv.chatID == "" {
		s.mu.Unlock()
		return
	}
	msg := model.NewPendingMessage(s.conv.chatID, s.user.ID, content)
	s.conv.transcript.Append(msg)
	s.roster.Activity(msg, true)
	s.mu.Unlock()

	s.notify(Notice{Kind: NoticeConversation})
	s.notify(Notice{Kind: NoticeRoster})
	s.send(emit{realtime.EventSendMessage, msg})
}

// CloseConversation returns the conversation pane to Idle. The roster and
// its live updates are unaffected.
func (s *Service) CloseConversation() {
	s.mu.Lock()
	s.conv.close()
	s.mu.Unlock()
	s.notify(Notice{Kind: NoticeConversation})
}

// =============================================================================
// INBOUND EVENT HANDLERS
// =============================================================================

func (s *Service) onAllChats(data json.RawMessage) {
	var chats []model.Chat
	if err := json.Unmarshal(data, &chats); err != nil {
		s.notify(Notice{Kind: NoticeError, Err: "malformed chat list"})
		return
	}
	for i := range chats {
		if chats[i].LastMessage != nil {
			chats[i].LastMessage.Delivery = model.DeliveryConfirmed
		}
	}

	s.mu.Lock()
	s.roster.Replace(chats)
	s.rosterLoading = false
	s.rosterErr = ""
	s.mu.Unlock()

	if s.store != nil {
		_ = s.store.SaveRoster(chats)
	}
	s.notify(Notice{Kind: NoticeRoster})
}

// onChatJoined is scoped to one join request via its tag. Stale
// confirmations (tag mismatch, or a chat id the roster maps to a different
// counterpart) are discarded without touching state.
func (s *Service) onChatJoined(seq uint64, data json.RawMessage) {
	var p realtime.ChatJoinedPayload
	if err := json.Unmarshal(data, &p); err != nil || p.ChatID == "" {
		return
	}

	s.mu.Lock()
	if !s.conv.matches(seq) || s.conv.state != ConvJoining {
		s.mu.Unlock()
		return
	}
	if known := s.roster.Find(p.ChatID); known != nil &&
		!known.Counterpart.IsZero() && known.Counterpart.ID != s.conv.counterpart.ID {
		s.mu.Unlock()
		return
	}
	needHistory := s.conv.applyJoined(p)
	s.roster.Joined(p.ChatID, s.conv.counterpart)
	var emits []emit
	if needHistory {
		next := s.conv.beginHistory()
		s.conv.pending = s.ch.Subscribe(realtime.EventChatMessages, func(data json.RawMessage) {
			s.onChatMessages(next, data)
		})
		s.conv.timer = time.AfterFunc(s.timeout, func() { s.onTimeout(next) })
		emits = append(emits, emit{realtime.EventGetMessages, realtime.GetMessagesPayload{ChatID: p.ChatID}})
	}
	chatID := s.conv.chatID
	msgs := s.conv.transcript.Messages()
	s.mu.Unlock()

	if !needHistory && s.store != nil {
		_ = s.store.SaveMessages(chatID, msgs)
	}
	s.notify(Notice{Kind: NoticeRoster})
	s.notify(Notice{Kind: NoticeConversation})
	s.send(emits...)
}

// onChatMessages is scoped to one history request via its tag. A response
// carrying a different chat id than the one on screen is stale and
// discarded.
func (s *Service) onChatMessages(seq uint64, data json.RawMessage) {
	var p realtime.ChatMessagesPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}

	s.mu.Lock()
	if !s.conv.matches(seq) || s.conv.state != ConvLoadingHistory {
		s.mu.Unlock()
		return
	}
	if derived := p.DerivedChatID(); derived != "" && derived != s.conv.chatID {
		s.mu.Unlock()
		return
	}
	s.conv.applyHistory(p.Messages)
	chatID := s.conv.chatID
	msgs := s.conv.transcript.Messages()
	s.mu.Unlock()

	if s.store != nil {
		_ = s.store.SaveMessages(chatID, msgs)
	}
	s.notify(Notice{Kind: NoticeConversation})
}

// onNewMessage applies a broadcast message to the transcript when it
// belongs to the open conversation (reconciling an optimistic echo), and to
// the roster in every case. Messages for other chats never touch the
// conversation pane.
func (s *Service) onNewMessage(data json.RawMessage) {
	var msg model.Message
	if err := json.Unmarshal(data, &msg); err != nil || msg.ChatID == "" {
		return
	}
	msg.Delivery = model.DeliveryConfirmed

	s.mu.Lock()
	viewing := s.conv.isViewing(msg.ChatID)
	if viewing && s.conv.state == ConvOpen {
		s.conv.transcript.Reconcile(msg)
	}
	s.roster.Activity(msg, viewing)
	s.mu.Unlock()

	if s.store != nil {
		_ = s.store.SaveMessage(msg)
	}
	if viewing {
		s.notify(Notice{Kind: NoticeConversation})
	}
	s.notify(Notice{Kind: NoticeRoster})
}

// onError handles both error event names the server uses. An in-flight
// join or history request is treated as failed; otherwise the message is
// surfaced without a state change.
func (s *Service) onError(data json.RawMessage) {
	var p realtime.ErrorPayload
	_ = json.Unmarshal(data, &p)
	if p.Message == "" {
		p.Message = "server error"
	}
	s.fail(p.Message)
}

// onTimeout fires when a tagged request outlives the deadline. The tag
// check and the failure must happen under one lock acquisition: a timer
// that re-checked after unlocking could kill a request issued in the
// window between the check and the kill.
func (s *Service) onTimeout(seq uint64) {
	const message = "request timed out"

	s.mu.Lock()
	if !s.conv.matches(seq) ||
		(s.conv.state != ConvJoining && s.conv.state != ConvLoadingHistory) {
		s.mu.Unlock()
		return
	}
	s.conv.applyFailure(message)
	s.mu.Unlock()

	s.notify(Notice{Kind: NoticeConversation})
	s.notify(Notice{Kind: NoticeError, Err: message})
}

func (s *Service) fail(message string) {
	s.mu.Lock()
	inflight := s.conv.state == ConvJoining || s.conv.state == ConvLoadingHistory
	if inflight {
		s.conv.applyFailure(message)
	}
	if s.rosterLoading {
		s.rosterLoading = false
		s.rosterErr = message
	}
	s.mu.Unlock()

	if inflight {
		s.notify(Notice{Kind: NoticeConversation})
	}
	s.notify(Notice{Kind: NoticeRoster})
	s.notify(Notice{Kind: NoticeError, Err: message})
}
