package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// SenderAssistant is the reserved senderId the backend uses for assistant
// and system messages.
const SenderAssistant = "ai"

// Chat is one conversation thread.
type Chat struct {
	ChatID string `json:"chatId"`
	Title  string `json:"title"`
}

// ChatMessage is a persisted message as the backend returns it, ordered by
// server-assigned order.
type ChatMessage struct {
	SenderID        string `json:"senderId"`
	Text            string `json:"text"`
	GeneratedFileID string `json:"generatedFileId,omitempty"`
}

// AppendMessageRequest is the payload for persisting one message.
// SenderID is empty for the current user (the backend fills it from the
// token) and SenderAssistant for system/assistant messages.
type AppendMessageRequest struct {
	Text            string `json:"text"`
	ChatID          string `json:"chatId"`
	SenderID        string `json:"senderId,omitempty"`
	GeneratedFileID string `json:"generatedFileId,omitempty"`
}

// ListChats returns all conversation threads for the current user.
func (c *Client) ListChats(ctx context.Context) ([]Chat, error) {
	var chats []Chat
	if err := c.do(ctx, http.MethodGet, "/chats/", nil, &chats); err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	return chats, nil
}

// CreateChat creates a new conversation thread.
func (c *Client) CreateChat(ctx context.Context, title string) (Chat, error) {
	var chat Chat
	req := struct {
		Title string `json:"title"`
	}{Title: title}
	if err := c.do(ctx, http.MethodPost, "/chats/", req, &chat); err != nil {
		return Chat{}, fmt.Errorf("create chat: %w", err)
	}
	if chat.Title == "" {
		chat.Title = title
	}
	return chat, nil
}

// ListMessages returns the ordered message history for one chat.
func (c *Client) ListMessages(ctx context.Context, chatID string) ([]ChatMessage, error) {
	var msgs []ChatMessage
	path := "/messages/" + url.PathEscape(chatID)
	if err := c.do(ctx, http.MethodGet, path, nil, &msgs); err != nil {
		return nil, fmt.Errorf("list messages for chat %s: %w", chatID, err)
	}
	return msgs, nil
}

// AppendMessage persists one message and returns its server id.
func (c *Client) AppendMessage(ctx context.Context, req AppendMessageRequest) (string, error) {
	var resp struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/messages/", req, &resp); err != nil {
		return "", fmt.Errorf("append message to chat %s: %w", req.ChatID, err)
	}
	return resp.ID, nil
}
