// Package export writes collected business records to CSV, JSON and
// Excel files under a configurable output directory.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Islam-amara1/mapsscraper/pkg/errors"
	"github.com/Islam-amara1/mapsscraper/pkg/models"
)

// Format selects an output encoding.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
	FormatExcel Format = "excel"
	FormatAll   Format = "all"
)

// ParseFormat validates a format string from config or flags.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatCSV, FormatJSON, FormatExcel, FormatAll:
		return Format(strings.ToLower(s)), nil
	default:
		return "", fmt.Errorf("unknown output format %q (want csv, json, excel or all)", s)
	}
}

var header = []string{
	"name", "rating", "review_count", "category",
	"address", "phone", "website", "hours", "map_url",
}

// Exporter writes result files into one directory.
type Exporter struct {
	dir string
	now func() time.Time
}

// New creates an Exporter rooted at dir, creating it if needed.
func New(dir string) (*Exporter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	return &Exporter{dir: dir, now: time.Now}, nil
}

// Export writes records in the given format and returns the paths of
// the files written. FormatAll writes every format.
func (e *Exporter) Export(records []models.Business, query, location string, format Format) ([]string, error) {
	base := e.baseName(query, location)

	var paths []string
	write := func(f Format) error {
		var (
			path string
			err  error
		)
		switch f {
		case FormatCSV:
			path, err = e.toCSV(records, base)
		case FormatJSON:
			path, err = e.toJSON(records, base)
		case FormatExcel:
			path, err = e.toExcel(records, base)
		}
		if err != nil {
			return err
		}
		paths = append(paths, path)
		return nil
	}

	if format == FormatAll {
		for _, f := range []Format{FormatCSV, FormatJSON, FormatExcel} {
			if err := write(f); err != nil {
				return paths, err
			}
		}
		return paths, nil
	}
	if err := write(format); err != nil {
		return nil, err
	}
	return paths, nil
}

func (e *Exporter) toCSV(records []models.Business, base string) (string, error) {
	path := filepath.Join(e.dir, base+".csv")
	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrap(errors.TypeUnknown, "export.toCSV", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return "", errors.Wrap(errors.TypeUnknown, "export.toCSV", err)
	}
	for i := range records {
		if err := w.Write(row(&records[i])); err != nil {
			return "", errors.Wrap(errors.TypeUnknown, "export.toCSV", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", errors.Wrap(errors.TypeUnknown, "export.toCSV", err)
	}
	return path, nil
}

func (e *Exporter) toJSON(records []models.Business, base string) (string, error) {
	path := filepath.Join(e.dir, base+".json")
	// Encode an empty slice as [], not null.
	if records == nil {
		records = []models.Business{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", errors.Wrap(errors.TypeUnknown, "export.toJSON", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", errors.Wrap(errors.TypeUnknown, "export.toJSON", err)
	}
	return path, nil
}

func (e *Exporter) toExcel(records []models.Business, base string) (string, error) {
	path := filepath.Join(e.dir, base+".xlsx")
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Results"
	f.SetSheetName(f.GetSheetName(0), sheet)

	for col, title := range header {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, title); err != nil {
			return "", errors.Wrap(errors.TypeUnknown, "export.toExcel", err)
		}
	}
	for i := range records {
		for col, value := range row(&records[i]) {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return "", errors.Wrap(errors.TypeUnknown, "export.toExcel", err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return "", errors.Wrap(errors.TypeUnknown, "export.toExcel", err)
	}
	return path, nil
}

// row renders one record as strings, leaving absent numerics empty so
// downstream tools do not mistake them for zero values.
func row(b *models.Business) []string {
	rating := ""
	if b.Rating != nil {
		rating = strconv.FormatFloat(*b.Rating, 'f', -1, 64)
	}
	reviews := ""
	if b.ReviewCount != nil {
		reviews = strconv.Itoa(*b.ReviewCount)
	}
	return []string{
		b.Name, rating, reviews, b.Category,
		b.Address, b.Phone, b.Website, b.Hours, b.MapURL,
	}
}

// baseName builds a timestamped, filesystem-safe file stem like
// cafes_cairo_20250118_153012.
func (e *Exporter) baseName(query, location string) string {
	stamp := e.now().Format("20060102_150405")
	return fmt.Sprintf("%s_%s_%s", slug(query), slug(location), stamp)
}

func slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_' || r == ',':
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), "_")
	for strings.Contains(out, "__") {
		out = strings.ReplaceAll(out, "__", "_")
	}
	if out == "" {
		out = "results"
	}
	return out
}
