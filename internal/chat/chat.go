// Package chat owns one conversation's message timeline.
//
// The timeline is optimistic: a sent message appears immediately with
// status pending, then settles to confirmed or failed as persistence
// resolves. Failed messages stay visible so the user can retry or remove
// them; the timeline never silently diverges from what was shown.
//
// Thread safety: Session is safe for concurrent use. The Bubble Tea event
// loop is the usual single caller, but background commands read snapshots.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/classistant/classistant/internal/api"
)

// Sender identifies who authored a message.
type Sender string

// Message senders. SenderOther covers participants in shared chats whose
// senderId matches neither the current user nor the assistant.
const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
	SenderOther     Sender = "other"
)

// Status tracks an optimistic message through persistence.
type Status string

// Message statuses.
const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusFailed    Status = "failed"
)

// ErrMessageNotFound indicates the referenced message is not in the
// timeline (or is not in a retryable state).
var ErrMessageNotFound = errors.New("message not found")

// Message is one timeline entry. Immutable once confirmed except for the
// Status transitions of the optimistic path.
type Message struct {
	ID        uuid.UUID
	Sender    Sender
	Text      string
	Status    Status
	FileID    string // generated artifact reference, when the message announces an aid
	CreatedAt time.Time
}

// ConversationStore persists and lists messages.
type ConversationStore interface {
	ListMessages(ctx context.Context, chatID string) ([]api.ChatMessage, error)
	AppendMessage(ctx context.Context, req api.AppendMessageRequest) (string, error)
}

// Assistant produces a reply to the user's latest message.
type Assistant interface {
	Reply(ctx context.Context, chatID, userMessage string) (string, error)
}

// Session is one conversation between the user and the assistant.
type Session struct {
	chat      api.Chat
	userID    string
	store     ConversationStore
	assistant Assistant
	logger    *slog.Logger
	now       func() time.Time

	mu       sync.RWMutex
	messages []Message
}

// NewSession creates a session for one chat thread.
func NewSession(chat api.Chat, userID string, store ConversationStore, assistant Assistant, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		chat:      chat,
		userID:    userID,
		store:     store,
		assistant: assistant,
		logger:    logger,
		now:       time.Now,
	}
}

// ID returns the chat id.
func (s *Session) ID() string { return s.chat.ChatID }

// Title returns the chat title.
func (s *Session) Title() string { return s.chat.Title }

// WelcomeText is the synthesized greeting shown when history cannot load.
func (s *Session) WelcomeText() string {
	return fmt.Sprintf("Welcome to %s! How can I assist you today?", s.chat.Title)
}

// Load fetches the persisted history and replaces the timeline.
//
// Degraded mode is explicit policy, not an error path: any fetch failure
// yields a single synthesized welcome message and a nil error, so callers
// always have something to render.
func (s *Session) Load(ctx context.Context) []Message {
	history, err := s.store.ListMessages(ctx, s.chat.ChatID)
	if err != nil {
		s.logger.Warn("history load failed, using welcome fallback",
			"chat_id", s.chat.ChatID,
			"error", err)
		welcome := Message{
			ID:        uuid.New(),
			Sender:    SenderAssistant,
			Text:      s.WelcomeText(),
			Status:    StatusConfirmed,
			CreatedAt: s.now(),
		}
		s.replace([]Message{welcome})
		return s.Messages()
	}

	loaded := make([]Message, 0, len(history))
	for _, m := range history {
		loaded = append(loaded, Message{
			ID:        uuid.New(),
			Sender:    s.senderOf(m.SenderID),
			Text:      m.Text,
			Status:    StatusConfirmed,
			FileID:    m.GeneratedFileID,
			CreatedAt: s.now(),
		})
	}
	s.replace(loaded)
	return s.Messages()
}

// senderOf maps a persisted senderId onto a timeline sender. Shared chats
// carry messages from other participants; those must not render as the
// current user's own. Without a configured user id every non-assistant
// sender is assumed to be the user.
func (s *Session) senderOf(senderID string) Sender {
	switch {
	case senderID == api.SenderAssistant:
		return SenderAssistant
	case s.userID == "" || senderID == s.userID:
		return SenderUser
	default:
		return SenderOther
	}
}

// Send appends the user's message optimistically, persists it, then
// requests and appends the assistant's reply.
//
// The user message stays in the timeline whatever happens: pending while
// persistence is in flight, then confirmed or failed. A persistence
// failure does not block the reply request; a reply failure returns an
// error with the user message already placed. The user message always
// precedes its reply.
func (s *Session) Send(ctx context.Context, text string) (Message, error) {
	userMsg := Message{
		ID:        uuid.New(),
		Sender:    SenderUser,
		Text:      text,
		Status:    StatusPending,
		CreatedAt: s.now(),
	}
	s.append(userMsg)

	if _, err := s.store.AppendMessage(ctx, api.AppendMessageRequest{
		Text:   text,
		ChatID: s.chat.ChatID,
	}); err != nil {
		s.setStatus(userMsg.ID, StatusFailed)
		s.logger.Warn("message persist failed",
			"chat_id", s.chat.ChatID,
			"message_id", userMsg.ID,
			"error", err)
	} else {
		s.setStatus(userMsg.ID, StatusConfirmed)
	}

	replyText, err := s.assistant.Reply(ctx, s.chat.ChatID, text)
	if err != nil {
		return Message{}, fmt.Errorf("assistant reply: %w", err)
	}

	reply := Message{
		ID:        uuid.New(),
		Sender:    SenderAssistant,
		Text:      replyText,
		Status:    StatusConfirmed,
		CreatedAt: s.now(),
	}
	s.append(reply)
	return reply, nil
}

// Retry re-persists a failed message. Returns ErrMessageNotFound when the
// id does not reference a failed message.
func (s *Session) Retry(ctx context.Context, id uuid.UUID) error {
	msg, ok := s.find(id)
	if !ok || msg.Status != StatusFailed {
		return ErrMessageNotFound
	}

	s.setStatus(id, StatusPending)
	if _, err := s.store.AppendMessage(ctx, api.AppendMessageRequest{
		Text:   msg.Text,
		ChatID: s.chat.ChatID,
	}); err != nil {
		s.setStatus(id, StatusFailed)
		return fmt.Errorf("retry message persist: %w", err)
	}
	s.setStatus(id, StatusConfirmed)
	return nil
}

// Remove drops a failed message from the timeline. Only failed messages
// can be removed; confirmed history is immutable.
func (s *Session) Remove(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, m := range s.messages {
		if m.ID == id {
			if m.Status != StatusFailed {
				return ErrMessageNotFound
			}
			s.messages = append(s.messages[:i], s.messages[i+1:]...)
			return nil
		}
	}
	return ErrMessageNotFound
}

// Append adds an already-persisted message to the timeline, e.g. the
// orchestrator's aid announcement.
func (s *Session) Append(sender Sender, text, fileID string) Message {
	msg := Message{
		ID:        uuid.New(),
		Sender:    sender,
		Text:      text,
		Status:    StatusConfirmed,
		FileID:    fileID,
		CreatedAt: s.now(),
	}
	s.append(msg)
	return msg
}

// Messages returns a snapshot of the timeline in order.
func (s *Session) Messages() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *Session) append(m Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, m)
}

func (s *Session) replace(msgs []Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = msgs
}

func (s *Session) setStatus(id uuid.UUID, status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.messages {
		if s.messages[i].ID == id {
			s.messages[i].Status = status
			return
		}
	}
}

func (s *Session) find(id uuid.UUID) (Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.messages {
		if m.ID == id {
			return m, true
		}
	}
	return Message{}, false
}
