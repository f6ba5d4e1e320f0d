// Package scraper orchestrates a scrape end to end: it opens a stealth
// browser session, walks the results feed for a query, extracts each
// listing behind a bounded retry loop, and collects unique records.
//
// A single Run drives two tabs from one session: the feed tab keeps its
// scroll position while the detail tab navigates listing by listing.
// Cancellation is honored at pacing boundaries, and whatever the sink
// holds at that point is returned for export.
package scraper
