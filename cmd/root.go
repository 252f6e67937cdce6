package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "classistant",
	Short: "Classistant - your course assistant in the terminal",
	Long: `Classistant is a terminal client for the Classistant learning
assistant. Chat with Tibby about your course, then turn any topic into a
quiz, a narrated visual summary, or a mind map without leaving the
conversation.

Running classistant with no arguments opens the chat.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd, args)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
