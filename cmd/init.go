package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/longkey1/thoughtrelay/internal/relay/config"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the configuration file",
	Long: `Initialize the configuration file with default settings.
The config file will be created at $HOME/.config/thoughtrelay/config.toml by default.
You can specify a different location using the --config option.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configFile := cfgFile
		if configFile == "" {
			dir, err := userConfigDir()
			if err != nil {
				return fmt.Errorf("failed to get home directory: %v", err)
			}
			configFile = filepath.Join(dir, "config.toml")
		}

		if err := writeDefaultConfig(configFile); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Configuration file created at: %s\n", configFile)
		return nil
	},
}

// writeDefaultConfig encodes the default configuration to path. It refuses
// to overwrite an existing file.
func writeDefaultConfig(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %v", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("config file already exists at: %s", path)
		}
		return fmt.Errorf("failed to create config file: %v", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(config.NewDefaultConfig()); err != nil {
		return fmt.Errorf("failed to encode config: %v", err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(initCmd)
}
