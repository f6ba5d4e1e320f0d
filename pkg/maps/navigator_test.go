package maps

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Islam-amara1/mapsscraper/pkg/browser"
)

// newFeedFixture builds a fake results page whose listings appear batch
// by batch as the feed is scrolled.
func newFeedFixture(batches [][]string, endMarkerAfter int) (*browser.FakeDOM, *browser.FakePage, string) {
	dom := browser.NewFakeDOM()
	page := &browser.FakePage{
		Visible:        map[string]bool{feedSelector: true},
		HrefBatches:    batches,
		EndMarkerAfter: endMarkerAfter,
		EndSelector:    endOfResultsSelector,
	}
	target := SearchURL("cafes", "Cairo")
	dom.AddPage(target, page)
	return dom, page, target
}

func listingURLs(prefix string, n int) []string {
	urls := make([]string, n)
	for i := range urls {
		urls[i] = prefix + string(rune('a'+i))
	}
	return urls
}

func collectAll(t *testing.T, it *ListingIterator) []string {
	t.Helper()
	var got []string
	for it.Next(context.Background()) {
		got = append(got, it.URL())
	}
	return got
}

func TestSearchURL(t *testing.T) {
	got := SearchURL("coffee shops", "Giza, Egypt")
	want := "https://www.google.com/maps/search/coffee+shops+in+Giza%2C+Egypt"
	if got != want {
		t.Errorf("SearchURL = %q, want %q", got, want)
	}
}

func TestSearchWaitsForFeed(t *testing.T) {
	dom := browser.NewFakeDOM()
	dom.AddPage(SearchURL("cafes", "Cairo"), &browser.FakePage{})

	nav := NewNavigator(dom, NavigatorOptions{NavigationTimeout: 10 * time.Millisecond})
	if err := nav.Search(context.Background(), "cafes", "Cairo"); err == nil {
		t.Fatal("Search succeeded against a page without a results feed")
	}
}

func TestListingsDOMOrder(t *testing.T) {
	urls := listingURLs("https://maps.test/place/", 10)
	batches := [][]string{urls[:2], urls[2:4], urls[4:6], urls[6:8], urls[8:]}
	dom, _, _ := newFeedFixture(batches, -1)

	nav := NewNavigator(dom, NavigatorOptions{StallLimit: 3})
	if err := nav.Search(context.Background(), "cafes", "Cairo"); err != nil {
		t.Fatalf("Search: %v", err)
	}

	it := nav.Listings(40)
	got := collectAll(t, it)

	if it.Err() != nil {
		t.Fatalf("iterator error: %v", it.Err())
	}
	if !it.Exhausted() {
		t.Error("iterator did not report exhaustion after the feed stalled")
	}
	if len(got) != len(urls) {
		t.Fatalf("got %d listings, want %d", len(got), len(urls))
	}
	for i, u := range urls {
		if got[i] != u {
			t.Errorf("listing %d = %q, want %q (DOM order)", i, got[i], u)
		}
	}
}

func TestListingsRespectsLimit(t *testing.T) {
	urls := listingURLs("https://maps.test/place/", 10)
	dom, _, _ := newFeedFixture([][]string{urls}, -1)

	nav := NewNavigator(dom, NavigatorOptions{StallLimit: 3})
	if err := nav.Search(context.Background(), "cafes", "Cairo"); err != nil {
		t.Fatalf("Search: %v", err)
	}

	it := nav.Listings(3)
	got := collectAll(t, it)

	if len(got) != 3 {
		t.Fatalf("got %d listings, want 3", len(got))
	}
	if it.Exhausted() {
		t.Error("hitting the limit must not count as exhaustion")
	}
	if it.Err() != nil {
		t.Errorf("iterator error: %v", it.Err())
	}
}

func TestListingsEndOfResultsMarker(t *testing.T) {
	urls := listingURLs("https://maps.test/place/", 2)
	dom, page, _ := newFeedFixture([][]string{urls}, 1)

	nav := NewNavigator(dom, NavigatorOptions{StallLimit: 3})
	if err := nav.Search(context.Background(), "cafes", "Cairo"); err != nil {
		t.Fatalf("Search: %v", err)
	}

	it := nav.Listings(10)
	got := collectAll(t, it)

	if len(got) != 2 {
		t.Fatalf("got %d listings, want 2", len(got))
	}
	if !it.Exhausted() {
		t.Error("end-of-results marker did not end iteration")
	}
	// The marker stops iteration before any stall scrolls happen; only
	// the initial nudge has touched the feed.
	if page.Scrolls() != 1 {
		t.Errorf("feed scrolled %d times, want 1", page.Scrolls())
	}
}

func TestListingsDeduplicates(t *testing.T) {
	dom, _, _ := newFeedFixture([][]string{
		{"https://maps.test/place/a", "https://maps.test/place/b"},
		{"https://maps.test/place/b", "https://maps.test/place/c"},
	}, -1)

	nav := NewNavigator(dom, NavigatorOptions{StallLimit: 2})
	if err := nav.Search(context.Background(), "cafes", "Cairo"); err != nil {
		t.Fatalf("Search: %v", err)
	}

	got := collectAll(t, nav.Listings(10))
	want := []string{
		"https://maps.test/place/a",
		"https://maps.test/place/b",
		"https://maps.test/place/c",
	}
	if len(got) != len(want) {
		t.Fatalf("got %d listings %v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("listing %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestListingsRequiresSearch(t *testing.T) {
	dom := browser.NewFakeDOM()
	nav := NewNavigator(dom, NavigatorOptions{})

	it := nav.Listings(5)
	if it.Next(context.Background()) {
		t.Fatal("Next succeeded without a prior Search")
	}
	if it.Err() == nil {
		t.Error("expected an error for iteration without Search")
	}
}

type failingWaiter struct{ err error }

func (w failingWaiter) Wait(ctx context.Context) error { return w.err }

func TestListingsStopsWhenWaiterFails(t *testing.T) {
	dom, _, _ := newFeedFixture([][]string{{"https://maps.test/place/a"}}, -1)

	wantErr := errors.New("paused session torn down")
	nav := NewNavigator(dom, NavigatorOptions{
		StallLimit: 5,
		Waiter:     failingWaiter{err: wantErr},
	})
	if err := nav.Search(context.Background(), "cafes", "Cairo"); err != nil {
		t.Fatalf("Search: %v", err)
	}

	it := nav.Listings(10)
	got := collectAll(t, it)

	if len(got) != 1 {
		t.Fatalf("got %d listings before failure, want 1", len(got))
	}
	if !errors.Is(it.Err(), wantErr) {
		t.Errorf("iterator error = %v, want %v", it.Err(), wantErr)
	}
	if it.Exhausted() {
		t.Error("waiter failure must not read as exhaustion")
	}
}

func TestListingsCancellation(t *testing.T) {
	dom, _, _ := newFeedFixture([][]string{{"https://maps.test/place/a"}}, -1)

	nav := NewNavigator(dom, NavigatorOptions{StallLimit: 5})
	if err := nav.Search(context.Background(), "cafes", "Cairo"); err != nil {
		t.Fatalf("Search: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	it := nav.Listings(10)
	if !it.Next(ctx) {
		t.Fatalf("first Next failed: %v", it.Err())
	}
	cancel()
	if it.Next(ctx) {
		t.Fatal("Next succeeded after cancellation")
	}
	if !errors.Is(it.Err(), context.Canceled) {
		t.Errorf("iterator error = %v, want context.Canceled", it.Err())
	}
}
