package scraper

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
)

// BulkItem is one query in a bulk run.
type BulkItem struct {
	Query    string
	Location string
}

// BulkResult pairs an item with its outcome. Index preserves the input
// file order regardless of which worker finished first.
type BulkResult struct {
	Index  int
	Item   BulkItem
	Result *Result
	Err    error
}

// ParseBulkFile reads "query | location" lines. Blank lines and lines
// starting with # are skipped.
func ParseBulkFile(path string) ([]BulkItem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening bulk file: %w", err)
	}
	defer f.Close()

	var items []BulkItem
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		parts := strings.SplitN(text, "|", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("line %d: want \"query | location\", got %q", line, text)
		}
		item := BulkItem{
			Query:    strings.TrimSpace(parts[0]),
			Location: strings.TrimSpace(parts[1]),
		}
		if item.Query == "" || item.Location == "" {
			return nil, fmt.Errorf("line %d: empty query or location in %q", line, text)
		}
		items = append(items, item)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading bulk file: %w", err)
	}
	return items, nil
}

// RunBulk scrapes every item, driving up to workers sessions in
// parallel. Each worker opens its own isolated session per item.
// Results come back indexed by input position; cancellation stops the
// remaining items but the finished ones keep their results.
func (s *Scraper) RunBulk(ctx context.Context, items []BulkItem, workers int) []BulkResult {
	if workers < 1 {
		workers = 1
	}
	if workers > len(items) {
		workers = len(items)
	}

	results := make([]BulkResult, len(items))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				item := items[i]
				res, err := s.Run(ctx, Request{
					Query:    item.Query,
					Location: item.Location,
				})
				results[i] = BulkResult{Index: i, Item: item, Result: res, Err: err}
			}
		}()
	}

	for i := range items {
		select {
		case jobs <- i:
		case <-ctx.Done():
			results[i] = BulkResult{Index: i, Item: items[i], Err: ctx.Err()}
			for j := i + 1; j < len(items); j++ {
				results[j] = BulkResult{Index: j, Item: items[j], Err: ctx.Err()}
			}
			close(jobs)
			wg.Wait()
			return results
		}
	}
	close(jobs)
	wg.Wait()
	return results
}
