package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage conversation threads",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your conversations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runSessionsList(cmd.Context())
	},
}

var sessionsNewCmd = &cobra.Command{
	Use:   "new <title>",
	Short: "Start a new conversation and switch to it",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSessionsNew(cmd.Context(), strings.Join(args, " "))
	},
}

var sessionsUseCmd = &cobra.Command{
	Use:   "use <chat-id>",
	Short: "Switch the active conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSessionsUse(cmd.Context(), args[0])
	},
}

func init() {
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsNewCmd)
	sessionsCmd.AddCommand(sessionsUseCmd)
	rootCmd.AddCommand(sessionsCmd)
}

func runSessionsList(ctx context.Context) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	chats, err := a.client.ListChats(ctx)
	if err != nil {
		return fmt.Errorf("list chats: %w", err)
	}
	if len(chats) == 0 {
		fmt.Println("No conversations yet. Start one with: classistant sessions new <title>")
		return nil
	}

	current, err := a.state.LoadCurrentChatID()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\t")
	for _, c := range chats {
		marker := ""
		if c.ChatID == current {
			marker = "(active)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", c.ChatID, c.Title, marker)
	}
	return w.Flush()
}

func runSessionsNew(ctx context.Context, title string) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	created, err := a.client.CreateChat(ctx, title)
	if err != nil {
		return fmt.Errorf("create chat: %w", err)
	}
	if err := a.state.SaveCurrentChatID(created.ChatID); err != nil {
		return err
	}

	fmt.Printf("Created %q (%s) and made it active.\n", created.Title, created.ChatID)
	return nil
}

func runSessionsUse(ctx context.Context, chatID string) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	chats, err := a.client.ListChats(ctx)
	if err != nil {
		return fmt.Errorf("list chats: %w", err)
	}
	for _, c := range chats {
		if c.ChatID == chatID {
			if err := a.state.SaveCurrentChatID(chatID); err != nil {
				return err
			}
			fmt.Printf("Switched to %q.\n", c.Title)
			return nil
		}
	}
	return fmt.Errorf("no conversation with id %s", chatID)
}
