// Package api is the typed client for the Classistant backend.
//
// Every call is a bearer-token-authenticated JSON request. The package only
// shapes requests and responses; conversation, pipeline, and player logic
// live with their owning components.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/classistant/classistant/internal/auth"
)

const tracerName = "github.com/classistant/classistant/internal/api"

// Generation rate limit: these calls render images and audio server-side,
// so the client allows one call per 10 seconds with a burst of one.
const generateInterval = 10 * time.Second

// Client is the Classistant backend client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     auth.TokenSource
	logger     *slog.Logger
	tracer     trace.Tracer
	genLimit   *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client (tests, custom transports).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithGenerateLimit overrides the generation-call rate limiter.
func WithGenerateLimit(l *rate.Limiter) Option {
	return func(c *Client) { c.genLimit = l }
}

// New creates a backend client.
//
// Parameters:
//   - baseURL: backend root, e.g. "https://api.classistant.app"
//   - tokens: bearer token source (required)
//   - logger: logger for request diagnostics (nil = slog.Default)
func New(baseURL string, tokens auth.TokenSource, logger *slog.Logger, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("api: base URL is required")
	}
	if tokens == nil {
		return nil, fmt.Errorf("api: token source is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		tokens:     tokens,
		logger:     logger,
		tracer:     otel.Tracer(tracerName),
		genLimit:   rate.NewLimiter(rate.Every(generateInterval), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// StatusError is returned for non-2xx backend responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend error (status %d): %s", e.StatusCode, e.Body)
}

// IsNotFound reports whether err is a backend 404.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

// do executes one JSON request against the backend.
//
// body is marshaled as the request body when non-nil; result, when non-nil,
// receives the decoded response. Non-2xx responses become *StatusError.
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	ctx, span := c.tracer.Start(ctx, method+" "+path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", path),
		))
	defer span.End()

	err := c.doOnce(ctx, method, path, body, result)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (c *Client) doOnce(ctx context.Context, method, path string, body, result any) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("acquire token: %w", err)
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Debug("backend request failed",
			"method", method,
			"path", path,
			"status", resp.StatusCode)
		return &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}
