package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a single question and print the answer",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.Join(args, " ")

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		reply, err := newClient().Chat(ctx, question)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, reply.Message)
		if reply.Sources > 0 {
			fmt.Fprintf(out, "\nBased on %d sources\n", reply.Sources)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
}
