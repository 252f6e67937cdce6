// Package auth holds the explicit identity state shared across components.
//
// The current user and bearer token travel as an injected [Session] and
// [TokenSource] instead of ambient globals: populated at startup, passed to
// every component that needs them, and closed on shutdown.
package auth

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNoToken indicates the token source has no credential to offer.
var ErrNoToken = errors.New("no auth token available")

// Session identifies the signed-in user for the lifetime of the process.
type Session struct {
	UserID      string
	DisplayName string
	Email       string
	Role        string // "student" or "teacher"; drives upload file kinds
}

// TokenSource supplies the bearer token for backend requests. Implementations
// must be safe for concurrent use; the REST client calls Token on every
// request.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticTokenSource returns a fixed token. Used when the token arrives via
// configuration or environment.
type StaticTokenSource struct {
	token string
}

// NewStaticTokenSource creates a source for a fixed token.
func NewStaticTokenSource(token string) *StaticTokenSource {
	return &StaticTokenSource{token: token}
}

// Token implements TokenSource.
func (s *StaticTokenSource) Token(context.Context) (string, error) {
	if s.token == "" {
		return "", ErrNoToken
	}
	return s.token, nil
}

// RefreshFunc fetches a fresh token from the identity provider.
type RefreshFunc func(ctx context.Context) (string, error)

// DefaultRefreshInterval is how often a RefreshingTokenSource re-fetches.
// Identity tokens expire hourly; refreshing well inside that window keeps
// long chat sessions from hitting 401s mid-request.
const DefaultRefreshInterval = 45 * time.Minute

// RefreshingTokenSource caches a token and re-fetches it on a timer.
// The zero value is not usable; construct with NewRefreshingTokenSource
// and release with Close.
type RefreshingTokenSource struct {
	refresh  RefreshFunc
	interval time.Duration

	mu    sync.RWMutex
	token string

	stop chan struct{}
	once sync.Once
}

// NewRefreshingTokenSource creates a source seeded with initial and
// refreshed every interval (DefaultRefreshInterval when interval <= 0).
// The background refresh keeps the last good token on failure.
func NewRefreshingTokenSource(initial string, refresh RefreshFunc, interval time.Duration) *RefreshingTokenSource {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	s := &RefreshingTokenSource{
		refresh:  refresh,
		interval: interval,
		token:    initial,
		stop:     make(chan struct{}),
	}
	go s.loop()
	return s
}

// Token implements TokenSource.
func (s *RefreshingTokenSource) Token(context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return "", ErrNoToken
	}
	return s.token, nil
}

// Close stops the background refresh. Idempotent.
func (s *RefreshingTokenSource) Close() {
	s.once.Do(func() { close(s.stop) })
}

func (s *RefreshingTokenSource) loop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			token, err := s.refresh(ctx)
			cancel()
			if err != nil || token == "" {
				// Keep the previous token; the next tick retries.
				continue
			}
			s.mu.Lock()
			s.token = token
			s.mu.Unlock()
		}
	}
}
