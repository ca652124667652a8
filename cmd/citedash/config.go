package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/matsen/citedash/internal/config"
)

func init() {
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the configuration",
	Long: `Inspect the configuration.

Usage:
  citedash config path    # Print the config file location
  citedash config show    # Print the effective config (defaults applied)`,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if humanOutput {
			fmt.Println(config.Path())
			return nil
		}
		return outputJSON(map[string]string{"path": config.Path()})
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg := *mustLoadConfig()
	if cfg.GitHubToken != "" {
		cfg.GitHubToken = "(set)"
	}

	if humanOutput {
		out, err := yaml.Marshal(cfg)
		if err != nil {
			exitWithError(ExitError, "encoding config: %v", err)
		}
		fmt.Print(string(out))
		return nil
	}
	return outputJSON(cfg)
}
