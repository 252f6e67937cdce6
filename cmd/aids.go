package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/classistant/classistant/internal/aid"
)

var aidsCmd = &cobra.Command{
	Use:   "aids",
	Short: "Browse generated learning aids",
}

var aidsListCmd = &cobra.Command{
	Use:   "list [filter]",
	Short: "List generated learning aids",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := ""
		if len(args) > 0 {
			query = args[0]
		}
		return runAidsList(cmd.Context(), query)
	},
}

func init() {
	aidsCmd.AddCommand(aidsListCmd)
	rootCmd.AddCommand(aidsCmd)
}

func runAidsList(ctx context.Context, query string) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	files, err := a.client.ListFiles(ctx)
	if err != nil {
		return fmt.Errorf("list artifacts: %w", err)
	}

	registry := aid.NewRegistry()
	registry.Restore(files)

	aids := aid.Filter(registry.All(), query)
	aid.SortAids(aids, aid.SortNewest)

	if len(aids) == 0 {
		fmt.Println("No learning aids yet. Create one from the chat with /quiz or /summary.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TYPE\tTITLE\tARTIFACT")
	for _, item := range aids {
		fmt.Fprintf(w, "%s\t%s\t%s\n", item.Type.DisplayName(), item.Title, item.FileID)
	}
	return w.Flush()
}
