package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Islam-amara1/mapsscraper/pkg/geo"
	"github.com/Islam-amara1/mapsscraper/pkg/ui"
)

var districtsQuery string

// districtsCmd represents the districts command
var districtsCmd = &cobra.Command{
	Use:   "districts <city>",
	Short: "List the neighborhoods of a city",
	Long: `Look up the neighborhoods of a city through OpenStreetMap. With
--query the output is a ready-to-use bulk file, one "query | location"
line per neighborhood.`,
	Example: `  # Just the neighborhood names
  mapsscraper districts "Cairo"

  # A bulk file for scraping cafes district by district
  mapsscraper districts "Cairo" --query cafes > queries.txt`,
	Args: cobra.ExactArgs(1),
	RunE: runDistricts,
}

func init() {
	rootCmd.AddCommand(districtsCmd)

	districtsCmd.Flags().StringVar(&districtsQuery, "query", "", "emit bulk-file lines pairing this query with each neighborhood")
}

func runDistricts(cmd *cobra.Command, args []string) error {
	city := args[0]

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	names, err := geo.NewClient().Neighborhoods(ctx, city)
	if err != nil {
		return fmt.Errorf("looking up neighborhoods of %s: %w", city, err)
	}
	if len(names) == 0 {
		ui.PrintWarning("No neighborhoods found", city)
		return nil
	}

	for _, name := range names {
		if districtsQuery != "" {
			fmt.Printf("%s | %s, %s\n", districtsQuery, name, city)
		} else {
			fmt.Println(name)
		}
	}
	return nil
}
