/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/longkey1/thoughtrelay/internal/relay/config"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "thoughtrelay",
	Short: "A chat relay that returns an LLM answer with its reasoning steps",
	Long: `thoughtrelay relays chat messages to an LLM provider and splits each reply
into the answer text and a list of reasoning steps.

Run 'thoughtrelay serve' to expose POST /chat and POST /reset over HTTP, or
'thoughtrelay chat' for a one-off exchange from the terminal.
You can configure the tool using a TOML configuration file.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/thoughtrelay/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// userConfigDir returns $HOME/.config/thoughtrelay.
func userConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "thoughtrelay"), nil
}

// bindEnv maps THOUGHTRELAY_<KEY> onto every config key.
func bindEnv(v *viper.Viper) error {
	v.SetEnvPrefix("THOUGHTRELAY")
	v.AutomaticEnv()

	for _, key := range []string{
		"openai_base_url", "openai_token",
		"anthropic_base_url", "anthropic_token",
		"gemini_base_url", "gemini_token",
		"listen_addr", "allowed_origins", "log_level",
	} {
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("binding env for %s: %w", key, err)
		}
	}
	return nil
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	config.SetDefaults(viper.GetViper())
	cobra.CheckErr(bindEnv(viper.GetViper()))

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
		}
	} else {
		userDir, err := userConfigDir()
		cobra.CheckErr(err)

		viper.SetConfigType("toml")
		viper.SetConfigName("config")

		// System-wide config first (lower priority)
		viper.AddConfigPath("/etc/thoughtrelay")
		systemConfigLoaded := viper.ReadInConfig() == nil
		if systemConfigLoaded && verbose {
			fmt.Fprintln(os.Stderr, "Loaded system-wide config:", viper.ConfigFileUsed())
		}

		// User config (higher priority)
		viper.AddConfigPath(userDir)
		if systemConfigLoaded {
			if err := viper.MergeInConfig(); err != nil {
				if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
					fmt.Fprintf(os.Stderr, "Error merging user config file: %v\n", err)
				}
			} else if verbose {
				fmt.Fprintln(os.Stderr, "Merged user config:", viper.ConfigFileUsed())
			}
		} else if err := viper.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
			}
		}
	}

	if verbose {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		fmt.Fprintln(os.Stderr, "  THOUGHTRELAY_MODEL:", viper.GetString("model"))
		fmt.Fprintln(os.Stderr, "  THOUGHTRELAY_LISTEN_ADDR:", viper.GetString("listen_addr"))
		fmt.Fprintln(os.Stderr, "  THOUGHTRELAY_ALLOWED_ORIGINS:", viper.GetStringSlice("allowed_origins"))
	}
}
