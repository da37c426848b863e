package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/longkey1/thoughtrelay/internal/client"
	"github.com/longkey1/thoughtrelay/internal/relay"
)

var (
	historyServerURL string
	historyTimeout   time.Duration
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print the conversation of a running relay",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if historyServerURL == "" {
			return fmt.Errorf("--server is required")
		}
		turns, err := client.New(historyServerURL, historyTimeout).History(cmd.Context())
		if err != nil {
			return fmt.Errorf("history request failed: %w", err)
		}
		printHistory(cmd.OutOrStdout(), turns)
		return nil
	},
}

func printHistory(w io.Writer, turns []relay.Turn) {
	if len(turns) == 0 {
		fmt.Fprintln(w, "(empty)")
		return
	}
	for _, turn := range turns {
		fmt.Fprintf(w, "[%s]\n%s\n\n", turn.Role, turn.Content)
	}
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().StringVar(&historyServerURL, "server", "", "Base URL of a running relay (e.g., http://localhost:8000)")
	historyCmd.Flags().DurationVar(&historyTimeout, "timeout", 30*time.Second, "HTTP timeout")
}
