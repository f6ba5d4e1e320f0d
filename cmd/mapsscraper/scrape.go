package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Islam-amara1/mapsscraper/pkg/config"
	"github.com/Islam-amara1/mapsscraper/pkg/export"
	"github.com/Islam-amara1/mapsscraper/pkg/logger"
	"github.com/Islam-amara1/mapsscraper/pkg/models"
	"github.com/Islam-amara1/mapsscraper/pkg/scraper"
	"github.com/Islam-amara1/mapsscraper/pkg/ui"
)

const timeRound = 100 * time.Millisecond

var (
	// Scrape command flags
	scrapeLocation  string
	scrapeLimit     int
	scrapeFormat    string
	scrapeOutputDir string
	scrapeHeadless  bool
	scrapeNoTable   bool
)

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape <query>",
	Short: "Scrape businesses matching a query in a location",
	Long: `Scrape business listings from Google Maps for a search query scoped
to a location. Results are deduplicated and written to the configured
output directory.

A run that reaches the end of the result feed before hitting the limit
still succeeds with whatever it collected. Interrupting with Ctrl-C
exports the partial results before exiting.`,
	Example: `  # Collect up to 50 dentists in Cairo (default limit)
  mapsscraper scrape dentists --location "Cairo, Egypt"

  # A larger run exported as both CSV and Excel
  mapsscraper scrape "coffee shops" -l "Giza, Egypt" -n 200 -o all

  # Headless run into a custom directory
  mapsscraper scrape pharmacies -l "Alexandria, Egypt" --headless --output-dir ./out`,
	Args: cobra.ExactArgs(1),
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	scrapeCmd.Flags().StringVarP(&scrapeLocation, "location", "l", "", "location to search in (required)")
	scrapeCmd.Flags().IntVarP(&scrapeLimit, "limit", "n", 0, "maximum listings to collect (default from config)")
	scrapeCmd.Flags().StringVarP(&scrapeFormat, "output", "o", "", "output format: csv, json, excel or all")
	scrapeCmd.Flags().StringVar(&scrapeOutputDir, "output-dir", "", "directory for result files")
	scrapeCmd.Flags().BoolVar(&scrapeHeadless, "headless", false, "run Chrome without a visible window")
	scrapeCmd.Flags().BoolVar(&scrapeNoTable, "no-table", false, "skip printing the results table")
	scrapeCmd.MarkFlagRequired("location")
}

func runScrape(cmd *cobra.Command, args []string) error {
	query := strings.TrimSpace(args[0])

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}

	format, err := export.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}

	if !quiet {
		ui.PrintInfo("Query", query)
		ui.PrintInfo("Location", scrapeLocation)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := scraper.New(cfg).Run(ctx, scraper.Request{
		Query:    query,
		Location: scrapeLocation,
		Limit:    scrapeLimit,
	})
	interrupted := errors.Is(err, context.Canceled)
	if err != nil && !interrupted {
		ui.PrintError("Scrape failed", err.Error())
		return err
	}

	if interrupted {
		ui.PrintWarning("Interrupted, exporting partial results")
	}
	if result.Exhausted {
		ui.PrintWarning(fmt.Sprintf("Result feed exhausted after %d listings", len(result.Records)))
	}

	if !scrapeNoTable && len(result.Records) > 0 {
		ui.WriteResultsTable(os.Stdout, resultRows(result.Records))
	}

	exporter, err := export.New(cfg.Output.Directory)
	if err != nil {
		return err
	}
	paths, err := exporter.Export(result.Records, query, scrapeLocation, format)
	if err != nil {
		return fmt.Errorf("exporting results: %w", err)
	}

	ui.PrintSuccess(fmt.Sprintf("Collected %d unique businesses (%d attempted) in %s",
		len(result.Records), result.Attempted, result.Elapsed.Round(timeRound)))
	for _, p := range paths {
		ui.PrintInfo("Saved", p)
	}
	return nil
}

// loadConfig assembles the effective configuration from file, env and
// the flags of this invocation.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	return config.Load(configFile, commandFlags(cmd))
}

// commandFlags collects this invocation's overrides in the shape the
// config merge expects. -o/--output selects the export format; the
// directory only moves on an explicit --output-dir.
func commandFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	if scrapeLimit > 0 {
		flags["limit"] = scrapeLimit
	}
	if scrapeOutputDir != "" {
		flags["output-dir"] = scrapeOutputDir
	}
	if scrapeFormat != "" {
		flags["format"] = scrapeFormat
	}
	if cmd.Flags().Changed("headless") {
		flags["headless"] = scrapeHeadless
	}
	if bulkWorkers > 0 {
		flags["workers"] = bulkWorkers
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}
	return flags
}

func resultRows(records []models.Business) []ui.ResultRow {
	rows := make([]ui.ResultRow, len(records))
	for i, b := range records {
		row := ui.ResultRow{
			Name:     b.Name,
			Category: b.Category,
			Address:  b.Address,
			Phone:    b.Phone,
		}
		if b.Rating != nil {
			row.Rating = strconv.FormatFloat(*b.Rating, 'f', 1, 64)
		}
		if b.ReviewCount != nil {
			row.Reviews = strconv.Itoa(*b.ReviewCount)
		}
		rows[i] = row
	}
	return rows
}
