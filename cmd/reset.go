package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/longkey1/thoughtrelay/internal/client"
)

var (
	resetServerURL string
	resetTimeout   time.Duration
)

// resetCmd represents the reset command
var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear the conversation of a running relay",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if resetServerURL == "" {
			return fmt.Errorf("--server is required")
		}
		msg, err := client.New(resetServerURL, resetTimeout).Reset(cmd.Context())
		if err != nil {
			return fmt.Errorf("reset request failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), msg)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)

	resetCmd.Flags().StringVar(&resetServerURL, "server", "", "Base URL of a running relay (e.g., http://localhost:8000)")
	resetCmd.Flags().DurationVar(&resetTimeout, "timeout", 30*time.Second, "HTTP timeout")
}
