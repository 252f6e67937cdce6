package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os/exec"
	"strings"

	"github.com/classistant/classistant/internal/api"
	"github.com/classistant/classistant/internal/auth"
	"github.com/classistant/classistant/internal/config"
	"github.com/classistant/classistant/internal/log"
	"github.com/classistant/classistant/internal/observability"
	"github.com/classistant/classistant/internal/state"
	"github.com/classistant/classistant/internal/summary"
)

// app bundles the collaborators every command needs: validated config, a
// logger, the backend client, and local client state.
type app struct {
	cfg    *config.Config
	logger log.Logger
	client *api.Client
	state  *state.Store

	tokenClose    func()
	traceShutdown func(context.Context) error
}

// newApp loads config and wires the shared dependency graph.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := log.New(log.Config{Level: level, JSON: cfg.LogJSON})

	traceShutdown := func(context.Context) error { return nil }
	if cfg.OTLPEndpoint != "" {
		traceShutdown, err = observability.Setup(ctx, observability.Config{
			Endpoint:    cfg.OTLPEndpoint,
			ServiceName: "classistant",
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("setup tracing: %w", err)
		}
	}

	tokens, tokenClose, err := tokenSource(ctx, cfg)
	if err != nil {
		return nil, err
	}
	client, err := api.New(cfg.BaseURL, tokens, logger,
		api.WithHTTPClient(backendHTTPClient(cfg)))
	if err != nil {
		tokenClose()
		return nil, err
	}

	stateDir, err := config.Dir()
	if err != nil {
		return nil, err
	}
	stateStore, err := state.NewStore(stateDir)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:           cfg,
		logger:        logger,
		client:        client,
		state:         stateStore,
		tokenClose:    tokenClose,
		traceShutdown: traceShutdown,
	}, nil
}

// close flushes whatever the app still owns.
func (a *app) close(ctx context.Context) {
	a.tokenClose()
	if err := a.traceShutdown(ctx); err != nil {
		a.logger.Warn("trace flush failed", "error", err)
	}
}

// backendHTTPClient applies the configured request timeout to every
// backend call.
func backendHTTPClient(cfg *config.Config) *http.Client {
	return &http.Client{Timeout: cfg.RequestTimeout}
}

// tokenSource picks the credential strategy: a static token from the
// environment, or a refreshing source fed by an external command when
// token_command is configured. The returned func releases the source.
func tokenSource(ctx context.Context, cfg *config.Config) (auth.TokenSource, func(), error) {
	if cfg.TokenCommand == "" {
		if err := cfg.ValidateToken(); err != nil {
			return nil, nil, fmt.Errorf("%w\n\nPlease run:\n  export CLASSISTANT_TOKEN=your-token", err)
		}
		return auth.NewStaticTokenSource(cfg.Token), func() {}, nil
	}

	refresh := commandTokenFunc(cfg.TokenCommand)
	initial := cfg.Token
	if initial == "" {
		var err error
		initial, err = refresh(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("fetch initial token: %w", err)
		}
	}
	src := auth.NewRefreshingTokenSource(initial, refresh, auth.DefaultRefreshInterval)
	return src, src.Close, nil
}

// commandTokenFunc runs the configured command and returns its trimmed
// stdout as the bearer token.
func commandTokenFunc(command string) auth.RefreshFunc {
	parts := strings.Fields(command)
	return func(ctx context.Context) (string, error) {
		if len(parts) == 0 {
			return "", fmt.Errorf("token command is empty")
		}
		out, err := exec.CommandContext(ctx, parts[0], parts[1:]...).Output()
		if err != nil {
			return "", fmt.Errorf("run token command %q: %w", parts[0], err)
		}
		token := strings.TrimSpace(string(out))
		if token == "" {
			return "", fmt.Errorf("token command %q produced no output", parts[0])
		}
		return token, nil
	}
}

// identity resolves the signed-in user. Lookup failure is not fatal;
// callers degrade to their defaults.
func (a *app) identity(ctx context.Context) (auth.Session, bool) {
	if a.cfg.UserID == "" {
		return auth.Session{}, false
	}
	user, err := a.client.GetUser(ctx, a.cfg.UserID)
	if err != nil {
		a.logger.Warn("user lookup failed", "user_id", a.cfg.UserID, "error", err)
		return auth.Session{}, false
	}
	return auth.Session{
		UserID:      user.UID,
		DisplayName: user.DisplayName,
		Email:       user.Email,
		Role:        user.Role,
	}, true
}

// audioDriver builds the narration driver from config. An empty command
// disables playback entirely.
func (a *app) audioDriver() summary.Driver {
	command := strings.Fields(a.cfg.AudioCommand)
	if len(command) == 0 {
		return summary.NopDriver{}
	}
	driver, err := summary.NewExecDriver(command, a.logger)
	if err != nil {
		a.logger.Warn("audio disabled", "error", err)
		return summary.NopDriver{}
	}
	return driver
}

// currentChat resolves the chat to open: the saved one when it still
// exists, otherwise the most recent, otherwise a freshly created one.
func (a *app) currentChat(ctx context.Context) (api.Chat, error) {
	savedID, err := a.state.LoadCurrentChatID()
	if err != nil {
		return api.Chat{}, err
	}

	chats, err := a.client.ListChats(ctx)
	if err != nil {
		return api.Chat{}, fmt.Errorf("list chats: %w", err)
	}

	if savedID != "" {
		for _, c := range chats {
			if c.ChatID == savedID {
				return c, nil
			}
		}
		a.logger.Warn("saved chat no longer exists", "chat_id", savedID)
	}

	if len(chats) > 0 {
		picked := chats[len(chats)-1]
		if err := a.state.SaveCurrentChatID(picked.ChatID); err != nil {
			return api.Chat{}, err
		}
		return picked, nil
	}

	created, err := a.client.CreateChat(ctx, "Study Session")
	if err != nil {
		return api.Chat{}, fmt.Errorf("create chat: %w", err)
	}
	if err := a.state.SaveCurrentChatID(created.ChatID); err != nil {
		return api.Chat{}, err
	}
	return created, nil
}
