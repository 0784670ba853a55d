package cmd

import (
	"LOTR_RAG/client/lotr-cli/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open an interactive chat with the loremaster",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := tea.NewProgram(tui.New(newClient(), timeout), tea.WithAltScreen()).Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
