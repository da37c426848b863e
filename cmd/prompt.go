/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/longkey1/thoughtrelay/internal/relay/config"
	"github.com/longkey1/thoughtrelay/internal/relay/prompt"
)

var versionOnly bool

// promptCmd represents the prompt command
var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Show the effective system instruction",
	Long: `Show the system instruction prepended to every request, and its version.

The built-in instruction is used unless prompt_file points to a TOML file
with the following structure:
system = "System instruction text"
version = "optional version label"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		p, err := prompt.Resolve(cfg.PromptFile)
		if err != nil {
			return fmt.Errorf("loading prompt: %w", err)
		}

		out := cmd.OutOrStdout()
		if versionOnly {
			fmt.Fprintln(out, p.Version)
			return nil
		}

		source := "built-in"
		if cfg.PromptFile != "" {
			source = cfg.PromptFile
		}
		fmt.Fprintf(out, "Version: %s\n", p.Version)
		fmt.Fprintf(out, "Source: %s\n\n", source)
		fmt.Fprintln(out, p.System)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(promptCmd)

	promptCmd.Flags().BoolVar(&versionOnly, "version-only", false, "Print only the instruction version")
}
