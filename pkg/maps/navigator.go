// Package maps drives the Google Maps UI: issuing searches, walking the
// infinitely-scrolling result feed, and extracting business fields from
// listing detail panels.
package maps

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/Islam-amara1/mapsscraper/pkg/browser"
	"github.com/Islam-amara1/mapsscraper/pkg/errors"
	"github.com/Islam-amara1/mapsscraper/pkg/logger"
)

const baseSearchURL = "https://www.google.com/maps/search/"

// Waiter pauses between feed scrolls; pacing.Pacer satisfies this.
type Waiter interface {
	Wait(ctx context.Context) error
}

// NavigatorOptions tunes feed traversal.
type NavigatorOptions struct {
	// StallLimit is how many consecutive scrolls may surface nothing
	// new before the feed counts as exhausted.
	StallLimit int
	// ScrollStep is the pixel distance of one feed scroll.
	ScrollStep int
	// NavigationTimeout bounds the wait for the results panel.
	NavigationTimeout time.Duration
	// Waiter, when set, runs between scrolls.
	Waiter Waiter
	// Logger for traversal progress.
	Logger logger.Logger
}

// Navigator turns (query, location) into a bounded stream of listing
// URLs by scrolling the results feed and diffing what is rendered.
type Navigator struct {
	dom        browser.DomReader
	stallLimit int
	scrollStep int
	navTimeout time.Duration
	waiter     Waiter
	log        logger.Logger
	searched   bool
}

// NewNavigator creates a Navigator over one feed tab.
func NewNavigator(dom browser.DomReader, opts NavigatorOptions) *Navigator {
	if opts.StallLimit <= 0 {
		opts.StallLimit = 3
	}
	if opts.ScrollStep <= 0 {
		opts.ScrollStep = 5000
	}
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = 15 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logger.GetLogger()
	}
	return &Navigator{
		dom:        dom,
		stallLimit: opts.StallLimit,
		scrollStep: opts.ScrollStep,
		navTimeout: opts.NavigationTimeout,
		waiter:     opts.Waiter,
		log:        opts.Logger,
	}
}

// SearchURL builds the maps search URL for a query and location.
func SearchURL(query, location string) string {
	term := fmt.Sprintf("%s in %s", query, location)
	return baseSearchURL + url.QueryEscape(term)
}

// Search loads the results page for the query and waits for the feed to
// render. Failure to render within the timeout is a navigation error.
func (n *Navigator) Search(ctx context.Context, query, location string) error {
	target := SearchURL(query, location)
	n.log.InfoWithFields("searching", map[string]interface{}{
		"query":    query,
		"location": location,
	})

	if err := n.dom.Navigate(ctx, target); err != nil {
		return errors.Wrap(errors.TypeNavigation, "navigator.Search", err)
	}
	if err := n.dom.WaitVisible(ctx, feedSelector, n.navTimeout); err != nil {
		return errors.Wrapf(errors.TypeNavigation, "navigator.Search", err,
			"results panel never rendered")
	}

	// Nudge the feed once so lazy loading starts early.
	if err := n.dom.ScrollBy(ctx, feedSelector, n.scrollStep); err != nil {
		n.log.WithError(err).Debug("initial feed nudge failed")
	}

	n.searched = true
	return nil
}

// Listings returns a pull-based iterator over listing URLs, bounded by
// limit. The iterator is only valid after a successful Search and is
// restarted by calling Search again.
func (n *Navigator) Listings(limit int) *ListingIterator {
	return &ListingIterator{
		nav:   n,
		limit: limit,
		seen:  make(map[string]bool),
	}
}

// ListingIterator walks the feed lazily in DOM order. Usage mirrors
// bufio.Scanner: Next, then URL, then Err once Next returns false.
type ListingIterator struct {
	nav     *Navigator
	limit   int
	seen    map[string]bool
	queue   []string
	current string

	yielded   int
	stalls    int
	exhausted bool
	err       error
}

// Next advances to the next unseen listing. It returns false when the
// limit is reached, the feed is exhausted, or a terminal error occurred.
func (it *ListingIterator) Next(ctx context.Context) bool {
	if it.err != nil || it.exhausted || it.yielded >= it.limit {
		return false
	}
	if !it.nav.searched {
		it.err = errors.New(errors.TypeNavigation, "navigator.Listings", "no search issued")
		return false
	}

	for {
		if len(it.queue) > 0 {
			it.current = it.queue[0]
			it.queue = it.queue[1:]
			it.yielded++
			return true
		}

		if err := ctx.Err(); err != nil {
			it.err = err
			return false
		}

		fresh, err := it.collect(ctx)
		if err != nil {
			// Scroll-time read failures are usually the feed re-rendering;
			// count them against the stall budget instead of aborting.
			it.nav.log.WithError(err).Debug("feed read failed, counting as stall")
			it.stalls++
		} else if len(fresh) > 0 {
			it.stalls = 0
			it.queue = fresh
			continue
		} else {
			if atEnd, _ := it.nav.dom.Exists(ctx, endOfResultsSelector); atEnd {
				it.nav.log.DebugWithFields("end of results reached", map[string]interface{}{
					"yielded": it.yielded,
				})
				it.exhausted = true
				return false
			}
			it.stalls++
		}

		if it.stalls >= it.nav.stallLimit {
			it.nav.log.DebugWithFields("feed stalled, treating as exhausted", map[string]interface{}{
				"stalls":  it.stalls,
				"yielded": it.yielded,
			})
			it.exhausted = true
			return false
		}

		if err := it.nav.dom.ScrollBy(ctx, feedSelector, it.nav.scrollStep); err != nil {
			it.nav.log.WithError(err).Debug("feed scroll failed")
		}
		if it.nav.waiter != nil {
			if err := it.nav.waiter.Wait(ctx); err != nil {
				it.err = err
				return false
			}
		}
	}
}

// collect reads the currently rendered listing links and returns the
// unseen ones in DOM order, capped at what the limit still allows.
func (it *ListingIterator) collect(ctx context.Context) ([]string, error) {
	hrefs, err := it.nav.dom.Hrefs(ctx, listingLinkSelector)
	if err != nil {
		return nil, err
	}

	budget := it.limit - it.yielded - len(it.queue)
	var fresh []string
	for _, href := range hrefs {
		if href == "" || it.seen[href] {
			continue
		}
		it.seen[href] = true
		fresh = append(fresh, href)
		if len(fresh) >= budget {
			break
		}
	}
	return fresh, nil
}

// URL returns the listing URL produced by the last successful Next.
func (it *ListingIterator) URL() string {
	return it.current
}

// Err returns the terminal error, if any. Exhaustion is not an error.
func (it *ListingIterator) Err() error {
	return it.err
}

// Exhausted reports whether the feed ran out before the limit.
func (it *ListingIterator) Exhausted() bool {
	return it.exhausted
}
