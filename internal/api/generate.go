package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// DefaultRAG is sent when no retrieval context accompanies a generation
// request; the backend expects the literal placeholder.
const DefaultRAG = "no info"

type generateRequest struct {
	Topic string `json:"topic"`
	RAG   string `json:"rag"`
}

type generateResponse struct {
	JSONData json.RawMessage `json:"jsonData"`
}

// GenerateSummary asks the backend to produce narrated visual summary
// content for a topic. rag defaults to DefaultRAG when empty.
func (c *Client) GenerateSummary(ctx context.Context, topic, rag string) (json.RawMessage, error) {
	return c.generate(ctx, "/visualsummary/", topic, rag)
}

// GenerateQuiz asks the backend to produce quiz content for a topic.
// rag defaults to DefaultRAG when empty.
func (c *Client) GenerateQuiz(ctx context.Context, topic, rag string) (json.RawMessage, error) {
	return c.generate(ctx, "/quiz/", topic, rag)
}

func (c *Client) generate(ctx context.Context, path, topic, rag string) (json.RawMessage, error) {
	if err := c.genLimit.Wait(ctx); err != nil {
		return nil, fmt.Errorf("generation rate limit: %w", err)
	}
	if rag == "" {
		rag = DefaultRAG
	}

	var resp generateResponse
	if err := c.do(ctx, http.MethodPost, path, generateRequest{Topic: topic, RAG: rag}, &resp); err != nil {
		return nil, fmt.Errorf("generate %s for topic %q: %w", path, topic, err)
	}
	return resp.JSONData, nil
}

// Reply sends the user's message to the assistant and returns its reply.
// The backend keeps the conversational memory; the client only passes the
// chat id and the new message.
func (c *Client) Reply(ctx context.Context, chatID, userMessage string) (string, error) {
	req := struct {
		ChatID      string `json:"chatId"`
		UserMessage string `json:"userMessage"`
	}{ChatID: chatID, UserMessage: userMessage}

	var resp struct {
		Response string `json:"response"`
	}
	if err := c.do(ctx, http.MethodPost, "/chat_with_memory/", req, &resp); err != nil {
		return "", fmt.Errorf("assistant reply for chat %s: %w", chatID, err)
	}
	return resp.Response, nil
}
