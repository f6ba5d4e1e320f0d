package scraper

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Islam-amara1/mapsscraper/pkg/browser"
	"github.com/Islam-amara1/mapsscraper/pkg/config"
	"github.com/Islam-amara1/mapsscraper/pkg/maps"
)

// Fixture selectors mirror the live result page markers.
const (
	feedSel = `div[role="feed"]`
	endSel  = `span.HlvSq`
	nameSel = `h1.DUwDvf`
	addrSel = `button[data-item-id="address"]`
)

type fakeSession struct {
	list   browser.DomReader
	detail browser.DomReader
	closed bool
}

func (s *fakeSession) List() browser.DomReader   { return s.list }
func (s *fakeSession) Detail() browser.DomReader { return s.detail }
func (s *fakeSession) Close()                    { s.closed = true }

// listing is one fixture business on the fake results page.
type listing struct {
	url     string
	name    string
	address string
}

// newFixtureSession wires a feed tab listing the given businesses and a
// detail tab that can render each of them.
func newFixtureSession(query, location string, listings []listing) *fakeSession {
	var hrefs []string
	detail := browser.NewFakeDOM()
	for _, l := range listings {
		hrefs = append(hrefs, l.url)
		page := &browser.FakePage{
			Visible: map[string]bool{"h1": true},
		}
		if l.name != "" {
			page.Texts = map[string]string{nameSel: l.name}
			if l.address != "" {
				page.Texts[addrSel] = l.address
			}
		}
		detail.AddPage(l.url, page)
	}

	feed := browser.NewFakeDOM()
	feed.AddPage(maps.SearchURL(query, location), &browser.FakePage{
		Visible:        map[string]bool{feedSel: true},
		HrefBatches:    [][]string{hrefs},
		EndSelector:    endSel,
		EndMarkerAfter: 1,
	})

	return &fakeSession{list: feed, detail: detail}
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Pacing.MinDelay = 0
	cfg.Pacing.MaxDelay = 0
	cfg.Retry.MaxAttempts = 2
	return cfg
}

func fixedFactory(sess Session) SessionFactory {
	return func(ctx context.Context, cfg *config.Config) (Session, error) {
		return sess, nil
	}
}

func TestRunCollectsListingsInOrder(t *testing.T) {
	sess := newFixtureSession("cafes", "Cairo", []listing{
		{"https://www.google.com/maps/place/A", "Alpha Cafe", "1 First St"},
		{"https://www.google.com/maps/place/B", "Beta Cafe", "2 Second St"},
		{"https://www.google.com/maps/place/C", "Gamma Cafe", "3 Third St"},
	})
	s := NewWithFactory(testConfig(), fixedFactory(sess))

	result, err := s.Run(context.Background(), Request{Query: "cafes", Location: "Cairo", Limit: 10})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []string{"Alpha Cafe", "Beta Cafe", "Gamma Cafe"}
	if len(result.Records) != len(want) {
		t.Fatalf("got %d records, want %d", len(result.Records), len(want))
	}
	for i, name := range want {
		if result.Records[i].Name != name {
			t.Errorf("record %d = %q, want %q (discovery order)", i, result.Records[i].Name, name)
		}
	}
	if result.Attempted != 3 || result.Succeeded != 3 {
		t.Errorf("Attempted = %d, Succeeded = %d, want 3 and 3", result.Attempted, result.Succeeded)
	}
	if !result.Exhausted {
		t.Error("feed end marker did not register as exhaustion")
	}
	if result.SessionID == "" {
		t.Error("missing session id")
	}
	if !sess.closed {
		t.Error("session was not closed")
	}
}

func TestRunSkipsBrokenListing(t *testing.T) {
	sess := newFixtureSession("cafes", "Cairo", []listing{
		{"https://www.google.com/maps/place/A", "Alpha Cafe", "1 First St"},
		{"https://www.google.com/maps/place/B", "", ""}, // renders without a name
		{"https://www.google.com/maps/place/C", "Gamma Cafe", "3 Third St"},
	})
	s := NewWithFactory(testConfig(), fixedFactory(sess))

	result, err := s.Run(context.Background(), Request{Query: "cafes", Location: "Cairo", Limit: 10})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Attempted != 3 || result.Succeeded != 2 {
		t.Errorf("Attempted = %d, Succeeded = %d, want 3 and 2", result.Attempted, result.Succeeded)
	}
	if len(result.Records) != 2 {
		t.Fatalf("got %d records, want the 2 healthy listings", len(result.Records))
	}
	if result.Records[0].Name != "Alpha Cafe" || result.Records[1].Name != "Gamma Cafe" {
		t.Errorf("records = %q, %q", result.Records[0].Name, result.Records[1].Name)
	}
}

func TestRunDeduplicatesAcrossListings(t *testing.T) {
	// Two feed entries resolving to the same place.
	sess := newFixtureSession("cafes", "Cairo", []listing{
		{"https://www.google.com/maps/place/A", "Alpha Cafe", "1 First St"},
		{"https://www.google.com/maps/place/A2", "Alpha Cafe", "1 First St"},
	})
	s := NewWithFactory(testConfig(), fixedFactory(sess))

	result, err := s.Run(context.Background(), Request{Query: "cafes", Location: "Cairo", Limit: 10})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Succeeded != 2 {
		t.Errorf("Succeeded = %d, want 2", result.Succeeded)
	}
	if len(result.Records) != 1 {
		t.Errorf("got %d records, want 1 after deduplication", len(result.Records))
	}
}

func TestRunRespectsLimit(t *testing.T) {
	sess := newFixtureSession("cafes", "Cairo", []listing{
		{"https://www.google.com/maps/place/A", "Alpha Cafe", "1 First St"},
		{"https://www.google.com/maps/place/B", "Beta Cafe", "2 Second St"},
		{"https://www.google.com/maps/place/C", "Gamma Cafe", "3 Third St"},
	})
	s := NewWithFactory(testConfig(), fixedFactory(sess))

	result, err := s.Run(context.Background(), Request{Query: "cafes", Location: "Cairo", Limit: 2})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Records) != 2 {
		t.Errorf("got %d records, want 2", len(result.Records))
	}
	if result.Exhausted {
		t.Error("limit hit must not read as exhaustion")
	}
}

// cancellingReader cancels the run after its first successful
// navigation, simulating an interrupt mid-scrape.
type cancellingReader struct {
	browser.DomReader
	cancel context.CancelFunc
	navs   int
}

func (r *cancellingReader) Navigate(ctx context.Context, url string) error {
	r.navs++
	if r.navs > 1 {
		r.cancel()
	}
	return r.DomReader.Navigate(ctx, url)
}

func TestRunCancellationKeepsPartialResults(t *testing.T) {
	sess := newFixtureSession("cafes", "Cairo", []listing{
		{"https://www.google.com/maps/place/A", "Alpha Cafe", "1 First St"},
		{"https://www.google.com/maps/place/B", "Beta Cafe", "2 Second St"},
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sess.detail = &cancellingReader{DomReader: sess.detail, cancel: cancel}

	s := NewWithFactory(testConfig(), fixedFactory(sess))
	result, err := s.Run(ctx, Request{Query: "cafes", Location: "Cairo", Limit: 10})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(result.Records) != 1 || result.Records[0].Name != "Alpha Cafe" {
		t.Errorf("partial records = %+v, want the first listing only", result.Records)
	}
}

func TestRunValidatesRequest(t *testing.T) {
	s := NewWithFactory(testConfig(), fixedFactory(&fakeSession{}))
	if _, err := s.Run(context.Background(), Request{Query: "", Location: "Cairo"}); err == nil {
		t.Error("empty query accepted")
	}
	if _, err := s.Run(context.Background(), Request{Query: "cafes", Location: " "}); err == nil {
		t.Error("blank location accepted")
	}
}

func TestRunPropagatesLaunchFailure(t *testing.T) {
	wantErr := errors.New("chrome not found")
	s := NewWithFactory(testConfig(), func(ctx context.Context, cfg *config.Config) (Session, error) {
		return nil, wantErr
	})
	_, err := s.Run(context.Background(), Request{Query: "cafes", Location: "Cairo"})
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want launch error", err)
	}
}

func TestRunBulkPreservesOrder(t *testing.T) {
	queries := []BulkItem{
		{Query: "cafes", Location: "Zamalek"},
		{Query: "cafes", Location: "Maadi"},
		{Query: "cafes", Location: "Heliopolis"},
	}
	s := NewWithFactory(testConfig(), func(ctx context.Context, cfg *config.Config) (Session, error) {
		return nil, fmt.Errorf("no display")
	})
	// Even with every session failing to open, each item must come back
	// in input position with its own error.
	results := s.RunBulk(context.Background(), queries, 2)

	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	for i, r := range results {
		if r.Index != i {
			t.Errorf("result %d has index %d", i, r.Index)
		}
		if r.Item.Location != queries[i].Location {
			t.Errorf("result %d is for %q, want %q", i, r.Item.Location, queries[i].Location)
		}
		if r.Err == nil {
			t.Errorf("result %d missing the session error", i)
		}
	}
}

func TestRunBulkScrapesEachItem(t *testing.T) {
	items := []BulkItem{
		{Query: "cafes", Location: "Zamalek"},
		{Query: "cafes", Location: "Maadi"},
	}
	s := NewWithFactory(testConfig(), func(ctx context.Context, cfg *config.Config) (Session, error) {
		// The factory has no request context, so fixtures for every
		// item live in one session lookup table keyed by search URL.
		sess := newFixtureSession("cafes", "Zamalek", []listing{
			{"https://www.google.com/maps/place/Z", "Zamalek Roastery", "1 Nile St"},
		})
		maadi := newFixtureSession("cafes", "Maadi", []listing{
			{"https://www.google.com/maps/place/M", "Maadi Beans", "2 Road 9"},
		})
		feed := sess.list.(*browser.FakeDOM)
		for url, page := range maadi.list.(*browser.FakeDOM).Pages {
			feed.AddPage(url, page)
		}
		detail := sess.detail.(*browser.FakeDOM)
		for url, page := range maadi.detail.(*browser.FakeDOM).Pages {
			detail.AddPage(url, page)
		}
		return sess, nil
	})

	results := s.RunBulk(context.Background(), items, 1)
	for i, r := range results {
		if r.Err != nil {
			t.Fatalf("item %d failed: %v", i, r.Err)
		}
		if len(r.Result.Records) != 1 {
			t.Errorf("item %d collected %d records, want 1", i, len(r.Result.Records))
		}
	}
	if results[0].Result.Records[0].Name != "Zamalek Roastery" {
		t.Errorf("first item record = %q", results[0].Result.Records[0].Name)
	}
	if results[1].Result.Records[0].Name != "Maadi Beans" {
		t.Errorf("second item record = %q", results[1].Result.Records[0].Name)
	}
}
