package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/Islam-amara1/mapsscraper/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	quiet      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mapsscraper",
	Short: "Scrape business listings from Google Maps search results",
	Long: `Maps Scraper collects business listings (name, rating, reviews,
category, address, phone, website) from Google Maps search results.

Features:
  - Stealth Chrome automation that passes basic bot checks
  - Incremental feed scrolling with duplicate-free collection
  - Randomized pacing and bounded retries for flaky page states
  - CSV, JSON and Excel export
  - Bulk runs over a query file, optionally in parallel
  - Neighborhood lookup for splitting city-wide scrapes`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cmd.Name() != "version" && cmd.Name() != "help" && cmd.Name() != "completion" && !quiet {
			ui.PrintBanner()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./.mapsscraper.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress the banner and info output")

	rootCmd.SetVersionTemplate(`Maps Scraper {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
