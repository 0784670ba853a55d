package cmd

import (
	"fmt"
	"os"
	"time"

	"LOTR_RAG/client/lotr-cli/chatclient"

	"github.com/spf13/cobra"
)

var (
	serverURL string
	timeout   time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "lotr-cli",
	Short: "A CLI client for the Lord of the Rings chatbot",
	Long:  `A command-line interface for asking the Middle-earth loremaster questions, interactively or one at a time.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Whoops. There was an error while executing your CLI: %s\n", err)
		os.Exit(1)
	}
}

func newClient() *chatclient.Client {
	return chatclient.New(serverURL, timeout)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "base URL of the chat service")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "timeout for a single question")
}
