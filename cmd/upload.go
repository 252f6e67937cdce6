package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Attach a document to the current chat",
	Long: "Registers a document with the backend for the active chat. The file\n" +
		"kind follows the signed-in user's role: teachers produce teacher\n" +
		"uploads, everyone else student uploads.",
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

func init() {
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	path := args[0]
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	current, err := a.currentChat(ctx)
	if err != nil {
		return err
	}

	role := "student"
	if who, ok := a.identity(ctx); ok && who.Role != "" {
		role = who.Role
	}

	name := filepath.Base(path)
	fileID, err := a.client.UploadFile(ctx, current.ChatID, name, role)
	if err != nil {
		return fmt.Errorf("upload %s: %w", path, err)
	}

	fmt.Fprintf(os.Stdout, "Uploaded %s (file %s) to %s\n", name, fileID, current.Title)
	return nil
}
