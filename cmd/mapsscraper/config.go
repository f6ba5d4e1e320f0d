package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Islam-amara1/mapsscraper/pkg/config"
	"github.com/Islam-amara1/mapsscraper/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage Maps Scraper configuration files.

Configuration is assembled from, in order of priority:
  - Command line flags (highest)
  - Environment variables
  - Configuration file
  - Default values (lowest)`,
}

// configInitCmd represents the config init command
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a configuration file with the default settings",
	RunE:  runConfigInit,
}

// configShowCmd represents the config show command
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Show the configuration the scraper would actually run with, after
merging the config file, environment variables and flags.`,
	RunE: runConfigShow,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = ".mapsscraper.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		ui.PrintError("Configuration file already exists", path)
		return fmt.Errorf("refusing to overwrite %s", path)
	}

	if err := config.DefaultConfig().Save(path); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	ui.PrintSuccess("Created " + path)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("rendering configuration: %w", err)
	}
	fmt.Print(string(data))
	return nil
}
