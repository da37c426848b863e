package prompt

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// Prompt represents the structure of a TOML prompt file that overrides the
// built-in system instruction.
type Prompt struct {
	System  string `toml:"system"`
	Version string `toml:"version,omitempty"`
}

// LoadPrompt loads a prompt file and returns its contents
func LoadPrompt(filePath string) (*Prompt, error) {
	var prompt Prompt
	if _, err := toml.DecodeFile(filePath, &prompt); err != nil {
		return nil, fmt.Errorf("error decoding prompt file: %w", err)
	}
	if strings.TrimSpace(prompt.System) == "" {
		return nil, fmt.Errorf("prompt file %s has an empty system instruction", filePath)
	}
	if prompt.Version == "" {
		prompt.Version = "custom"
	}
	return &prompt, nil
}

// Resolve returns the system instruction to use. An empty path yields the
// built-in instruction.
func Resolve(path string) (*Prompt, error) {
	if path == "" {
		return Default(), nil
	}
	return LoadPrompt(path)
}

// Default returns the built-in system instruction.
func Default() *Prompt {
	return &Prompt{System: SystemInstruction, Version: SystemInstructionVersion}
}
