package ui

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// ResultRow is one business rendered in the results table. Numeric
// fields arrive preformatted so absent values stay blank.
type ResultRow struct {
	Name     string
	Rating   string
	Reviews  string
	Category string
	Address  string
	Phone    string
}

// WriteResultsTable renders collected businesses as an aligned table.
func WriteResultsTable(w io.Writer, rows []ResultRow) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tNAME\tRATING\tREVIEWS\tCATEGORY\tADDRESS\tPHONE")
	for i, r := range rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			i+1, truncate(r.Name, 32), r.Rating, r.Reviews,
			truncate(r.Category, 24), truncate(r.Address, 40), r.Phone)
	}
	tw.Flush()
}

// SummaryRow is one line of the bulk run report.
type SummaryRow struct {
	Query     string
	Location  string
	Collected int
	Attempted int
	Status    string
}

// WriteBulkSummary renders the per-query outcome of a bulk run.
func WriteBulkSummary(w io.Writer, rows []SummaryRow) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "QUERY\tLOCATION\tCOLLECTED\tATTEMPTED\tSTATUS")
	total := 0
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n",
			r.Query, truncate(r.Location, 32), r.Collected, r.Attempted, r.Status)
		total += r.Collected
	}
	fmt.Fprintf(tw, "\tTOTAL\t%d\t\t\n", total)
	tw.Flush()
}

// truncate shortens s to max characters. Counting runes, not bytes,
// keeps multibyte names (Arabic, CJK) from being cut mid-sequence.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return strings.TrimSpace(string(runes[:max-3])) + "..."
}
