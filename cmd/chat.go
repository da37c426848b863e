/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/longkey1/thoughtrelay/internal/client"
	"github.com/longkey1/thoughtrelay/internal/relay"
	"github.com/longkey1/thoughtrelay/internal/relay/chat"
	"github.com/longkey1/thoughtrelay/internal/relay/config"
)

var (
	model      string
	useEditor  bool
	serverURL  string
	showSteps  bool
	clientWait time.Duration
)

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Send a message and print the answer with its reasoning steps",
	Long: `Send a message to the LLM and print the answer followed by the numbered
reasoning steps extracted from the reply.

Without --server the exchange runs in-process against the configured provider
with an empty conversation. With --server it is sent to a running
'thoughtrelay serve' and joins that server's conversation.

If no message is provided as an argument, it reads from stdin.
If --editor flag is set, it opens the default editor (from EDITOR environment variable) to compose the message.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var message string
		var err error
		if useEditor {
			message, err = getMessageFromEditor()
			if err != nil {
				return fmt.Errorf("getting message from editor: %w", err)
			}
		} else if len(args) > 0 {
			message = strings.Join(args, " ")
		} else {
			input, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("reading from stdin: %w", err)
			}
			message = string(input)
		}

		var result chat.Result
		if serverURL != "" {
			result, err = client.New(serverURL, clientWait).Chat(cmd.Context(), message)
			if err != nil {
				return fmt.Errorf("chat request failed: %w", err)
			}
		} else {
			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			// Apply model with priority: flag > env > config file
			if cmd.Flags().Changed("model") {
				if _, _, err := relay.ParseModelString(model); err != nil {
					return fmt.Errorf("invalid model from flag: %w", err)
				}
				cfg.Model = model
				if err := cfg.Validate(); err != nil {
					return err
				}
			}

			log, closeLog, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer closeLog()

			orchestrator, err := newOrchestrator(cfg, log)
			if err != nil {
				return err
			}
			result, err = orchestrator.Exchange(cmd.Context(), message)
			if err != nil {
				return fmt.Errorf("chat request failed: %w", err)
			}
		}

		printResult(cmd.OutOrStdout(), result, showSteps)
		return nil
	},
}

// printResult writes the answer and, if steps is set, the numbered reasoning.
func printResult(w io.Writer, result chat.Result, steps bool) {
	fmt.Fprintln(w, result.Text)
	if !steps || len(result.Reasoning) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Reasoning:")
	for _, step := range result.Reasoning {
		fmt.Fprintf(w, "  %d. %s\n", step.ID, step.Title)
		if step.Details != "" {
			fmt.Fprintf(w, "     %s\n", step.Details)
		}
	}
}

// getMessageFromEditor opens the default editor and returns the edited message
func getMessageFromEditor() (string, error) {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		return "", fmt.Errorf("EDITOR environment variable is not set")
	}

	// Create a temporary file
	tmpFile, err := os.CreateTemp("", "thoughtrelay-*.txt")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %v", err)
	}
	tmpFile.Close()
	defer os.Remove(tmpFile.Name())

	// Open the editor
	cmd := exec.Command(editor, tmpFile.Name())
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("failed to open editor: %v", err)
	}

	// Read the edited content
	content, err := os.ReadFile(tmpFile.Name())
	if err != nil {
		return "", fmt.Errorf("failed to read edited content: %v", err)
	}

	return string(content), nil
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringVarP(&model, "model", "m", "", "Model to use (format: provider:model, e.g., openai:gpt-4)")
	chatCmd.Flags().BoolVarP(&useEditor, "editor", "e", false, "Use default editor (from EDITOR environment variable) to compose message")
	chatCmd.Flags().StringVar(&serverURL, "server", "", "Base URL of a running relay (e.g., http://localhost:8000)")
	chatCmd.Flags().BoolVar(&showSteps, "steps", true, "Print the reasoning steps after the answer")
	chatCmd.Flags().DurationVar(&clientWait, "timeout", 2*time.Minute, "HTTP timeout when using --server")
}
