package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Islam-amara1/mapsscraper/pkg/export"
	"github.com/Islam-amara1/mapsscraper/pkg/logger"
	"github.com/Islam-amara1/mapsscraper/pkg/scraper"
	"github.com/Islam-amara1/mapsscraper/pkg/ui"
)

var bulkWorkers int

// bulkCmd represents the bulk command
var bulkCmd = &cobra.Command{
	Use:   "bulk <file>",
	Short: "Run many scrapes from a query file",
	Long: `Run a scrape for every line of a query file. Each line has the form

  query | location

Blank lines and lines starting with # are skipped. Every query gets its
own isolated browser session; --workers runs several sessions in
parallel. Results are exported per query, and a summary table reports
the outcome of the whole run.`,
	Example: `  # One query per district, sequentially
  mapsscraper bulk queries.txt

  # Three sessions in parallel, Excel output
  mapsscraper bulk queries.txt --workers 3 -o excel`,
	Args: cobra.ExactArgs(1),
	RunE: runBulk,
}

func init() {
	rootCmd.AddCommand(bulkCmd)

	bulkCmd.Flags().IntVarP(&bulkWorkers, "workers", "w", 0, "parallel sessions (default from config)")
	bulkCmd.Flags().IntVarP(&scrapeLimit, "limit", "n", 0, "maximum listings per query (default from config)")
	bulkCmd.Flags().StringVarP(&scrapeFormat, "output", "o", "", "output format: csv, json, excel or all")
	bulkCmd.Flags().StringVar(&scrapeOutputDir, "output-dir", "", "directory for result files")
	bulkCmd.Flags().BoolVar(&scrapeHeadless, "headless", false, "run Chrome without a visible window")
}

func runBulk(cmd *cobra.Command, args []string) error {
	items, err := scraper.ParseBulkFile(args[0])
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return fmt.Errorf("no queries in %s", args[0])
	}

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
	exporter, err := export.New(cfg.Output.Directory)
	if err != nil {
		return err
	}

	if !quiet {
		ui.PrintInfo("Queries", fmt.Sprintf("%d", len(items)))
		ui.PrintInfo("Workers", fmt.Sprintf("%d", cfg.Search.BulkWorkers))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results := scraper.New(cfg).RunBulk(ctx, items, cfg.Search.BulkWorkers)

	var summary []ui.SummaryRow
	failures := 0
	for _, r := range results {
		row := ui.SummaryRow{Query: r.Item.Query, Location: r.Item.Location}
		switch {
		case r.Err != nil && !errors.Is(r.Err, context.Canceled):
			failures++
			row.Status = "failed"
		case errors.Is(r.Err, context.Canceled):
			row.Status = "interrupted"
		case r.Result.Exhausted:
			row.Status = "exhausted"
		default:
			row.Status = "ok"
		}
		if r.Result != nil {
			row.Collected = len(r.Result.Records)
			row.Attempted = r.Result.Attempted
			if len(r.Result.Records) > 0 {
				if _, err := exporter.Export(r.Result.Records, r.Item.Query, r.Item.Location, format); err != nil {
					ui.PrintError("Export failed", err.Error())
				}
			}
		}
		summary = append(summary, row)
	}

	ui.WriteBulkSummary(os.Stdout, summary)
	if failures > 0 {
		return fmt.Errorf("%d of %d queries failed", failures, len(items))
	}
	return nil
}
