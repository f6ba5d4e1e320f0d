package scraper

import (
	"context"

	"github.com/Islam-amara1/mapsscraper/pkg/browser"
	"github.com/Islam-amara1/mapsscraper/pkg/config"
)

// Session is the browser surface a scrape runs against: one tab holding
// the results feed and one for listing details.
type Session interface {
	List() browser.DomReader
	Detail() browser.DomReader
	Close()
}

// SessionFactory opens a Session. Production uses browser.Open; tests
// substitute fakes.
type SessionFactory func(ctx context.Context, cfg *config.Config) (Session, error)
