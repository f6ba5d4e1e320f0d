package scraper

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Islam-amara1/mapsscraper/pkg/browser"
	"github.com/Islam-amara1/mapsscraper/pkg/config"
	"github.com/Islam-amara1/mapsscraper/pkg/errors"
	"github.com/Islam-amara1/mapsscraper/pkg/logger"
	"github.com/Islam-amara1/mapsscraper/pkg/maps"
	"github.com/Islam-amara1/mapsscraper/pkg/models"
	"github.com/Islam-amara1/mapsscraper/pkg/pacing"
	"github.com/Islam-amara1/mapsscraper/pkg/retry"
	"github.com/Islam-amara1/mapsscraper/pkg/sink"
)

// Request describes one scrape.
type Request struct {
	// Query is the business search term, like "dentists".
	Query string
	// Location scopes the search, like "Cairo, Egypt".
	Location string
	// Limit caps collected listings. Zero means the configured default.
	Limit int
}

// Result is what a finished (or interrupted) scrape produced.
type Result struct {
	SessionID string
	Query     string
	Location  string
	// Records are the unique businesses collected, in discovery order.
	Records []models.Business
	// Attempted counts listings whose extraction was started.
	Attempted int
	// Succeeded counts listings that extracted cleanly, duplicates
	// included.
	Succeeded int
	// Exhausted is true when the feed ran out before the limit.
	Exhausted bool
	Elapsed   time.Duration
}

// Scraper runs scrape requests against browser sessions.
type Scraper struct {
	cfg     *config.Config
	factory SessionFactory
	logger  logger.Logger
}

// New creates a Scraper that opens real Chrome sessions.
func New(cfg *config.Config) *Scraper {
	return NewWithFactory(cfg, func(ctx context.Context, cfg *config.Config) (Session, error) {
		return browser.Open(ctx, cfg)
	})
}

// NewWithFactory creates a Scraper with a custom session source.
func NewWithFactory(cfg *config.Config, factory SessionFactory) *Scraper {
	return &Scraper{
		cfg:     cfg,
		factory: factory,
		logger:  logger.GetLogger(),
	}
}

// Run executes one scrape. Soft exhaustion and cancellation are not
// errors: the partial Result is returned alongside a nil or ctx error
// so callers can still export what was collected.
func (s *Scraper) Run(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("query must not be empty")
	}
	if strings.TrimSpace(req.Location) == "" {
		return nil, fmt.Errorf("location must not be empty")
	}
	limit := req.Limit
	if limit <= 0 {
		limit = s.cfg.Search.DefaultLimit
	}

	result := &Result{
		SessionID: uuid.NewString(),
		Query:     req.Query,
		Location:  req.Location,
	}
	log := s.logger.WithField("session_id", result.SessionID)
	start := time.Now()
	defer func() { result.Elapsed = time.Since(start) }()

	session, err := s.factory(ctx, s.cfg)
	if err != nil {
		return result, err
	}
	defer session.Close()

	pacer := pacing.New(s.cfg.Pacing.MinDelay, s.cfg.Pacing.MaxDelay)
	retryCfg := &retry.Config{
		MaxAttempts: s.cfg.Retry.MaxAttempts,
		Waiter:      pacer,
		Logger:      log,
	}

	nav := maps.NewNavigator(session.List(), maps.NavigatorOptions{
		StallLimit:        s.cfg.Search.ScrollStallLimit,
		ScrollStep:        s.cfg.Search.ScrollStep,
		NavigationTimeout: s.cfg.Browser.NavigationTimeout,
		Waiter:            pacer,
		Logger:            log,
	})

	searchRes := retry.Do(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, nav.Search(ctx, req.Query, req.Location)
	}, retryCfg)
	if searchRes.Outcome != retry.Success {
		return result, searchRes.Err
	}

	extractor := maps.NewExtractor(session.Detail(), maps.ExtractorOptions{
		DetailTimeout: s.cfg.Browser.DetailTimeout,
		Logger:        log,
	})
	collected := sink.New()

	it := nav.Listings(limit)
	for it.Next(ctx) {
		listingURL := it.URL()
		result.Attempted++

		res := retry.Do(ctx, func(ctx context.Context) (*models.Business, error) {
			return extractor.Extract(ctx, listingURL)
		}, retryCfg)

		switch {
		case res.Outcome == retry.Success:
			result.Succeeded++
			if !collected.Add(*res.Value) {
				log.WithField("name", res.Value.Name).Debug("duplicate listing dropped")
			}
		case res.Outcome == retry.Cancelled,
			stderrors.Is(res.Err, context.Canceled):
			result.Records = collected.Snapshot()
			return result, context.Canceled
		default:
			// One bad listing never aborts the run.
			log.WithError(res.Err).WarnWithFields("listing skipped", map[string]interface{}{
				"url":      listingURL,
				"attempts": res.Attempts,
			})
		}
	}

	result.Records = collected.Snapshot()
	result.Exhausted = it.Exhausted()

	if err := it.Err(); err != nil {
		if stderrors.Is(err, context.Canceled) {
			return result, context.Canceled
		}
		return result, errors.Wrap(errors.TypeNavigation, "scraper.Run", err)
	}

	log.InfoWithFields("scrape finished", map[string]interface{}{
		"attempted": result.Attempted,
		"collected": len(result.Records),
		"exhausted": result.Exhausted,
	})
	return result, nil
}
