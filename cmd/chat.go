package cmd

import (
	"fmt"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"

	"github.com/classistant/classistant/internal/aid"
	"github.com/classistant/classistant/internal/chat"
	"github.com/classistant/classistant/internal/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open the assistant chat (default)",
	RunE:  runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	current, err := a.currentChat(ctx)
	if err != nil {
		return err
	}

	// Identity is informational only; a failed lookup never blocks the chat.
	if who, ok := a.identity(ctx); ok {
		a.logger.Info("signed in",
			"user", who.DisplayName,
			"role", who.Role)
	}

	// Rebuild the aid registry from the persisted artifact listing.
	registry := aid.NewRegistry()
	if files, err := a.client.ListFiles(ctx); err == nil {
		registry.Restore(files)
	} else {
		a.logger.Warn("aid restore failed, starting with empty gallery", "error", err)
	}

	session := chat.NewSession(current, a.cfg.UserID, a.client, a.client, a.logger)
	orchestrator := aid.NewOrchestrator(a.client, a.client, a.client, registry,
		current.ChatID, current.Title, a.logger)

	model, err := tui.New(ctx, tui.Deps{
		Session:      session,
		Orchestrator: orchestrator,
		Registry:     registry,
		Store:        a.client,
		Audio:        a.audioDriver(),
		Logger:       a.logger,
	})
	if err != nil {
		return err
	}

	program := tea.NewProgram(model, tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
