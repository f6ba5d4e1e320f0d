package maps

import (
	"context"
	"strings"
	"time"

	"github.com/Islam-amara1/mapsscraper/pkg/browser"
	"github.com/Islam-amara1/mapsscraper/pkg/errors"
	"github.com/Islam-amara1/mapsscraper/pkg/logger"
	"github.com/Islam-amara1/mapsscraper/pkg/models"
)

// ExtractorOptions tunes detail-panel extraction.
type ExtractorOptions struct {
	// DetailTimeout bounds the wait for a detail panel to render.
	DetailTimeout time.Duration
	// Logger for per-field diagnostics.
	Logger logger.Logger
}

// Extractor reads business fields out of a listing detail panel. Only a
// missing name fails the whole record; every other field degrades to
// absent on its own.
type Extractor struct {
	dom     browser.DomReader
	timeout time.Duration
	log     logger.Logger
}

// NewExtractor creates an Extractor over one detail tab.
func NewExtractor(dom browser.DomReader, opts ExtractorOptions) *Extractor {
	if opts.DetailTimeout <= 0 {
		opts.DetailTimeout = 20 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logger.GetLogger()
	}
	return &Extractor{dom: dom, timeout: opts.DetailTimeout, log: opts.Logger}
}

// Extract navigates to a listing URL and pulls its business record.
func (e *Extractor) Extract(ctx context.Context, listingURL string) (*models.Business, error) {
	if err := e.dom.Navigate(ctx, listingURL); err != nil {
		return nil, errors.Wrap(errors.TypeNavigation, "extractor.Extract", err)
	}
	if err := e.dom.WaitVisible(ctx, "h1", e.timeout); err != nil {
		return nil, errors.Wrapf(errors.TypeExtraction, "extractor.Extract", err,
			"detail panel never rendered")
	}

	name := e.firstText(ctx, nameSelectors)
	if name == "" {
		return nil, errors.New(errors.TypeExtraction, "extractor.Extract",
			"listing has no readable name")
	}

	biz := &models.Business{Name: name, MapURL: listingURL}
	if loc, err := e.dom.Location(ctx); err == nil && loc != "" {
		biz.MapURL = loc
	}

	// Each field below is read in isolation. A selector miss or parse
	// failure leaves that field absent and moves on.
	if raw := e.firstText(ctx, ratingSelectors); raw != "" {
		biz.Rating = parseRating(raw)
	}
	if raw := e.firstText(ctx, reviewCountSelectors); raw != "" {
		biz.ReviewCount = parseReviewCount(raw)
	}
	biz.Category = e.firstText(ctx, categorySelectors)
	biz.Address = cleanAddress(e.firstText(ctx, addressSelectors))
	biz.Phone = e.extractPhone(ctx)
	biz.Website = e.extractWebsite(ctx)
	biz.Hours = e.extractHours(ctx)

	e.log.DebugWithFields("extracted listing", map[string]interface{}{
		"name":       biz.Name,
		"has_rating": biz.HasRating(),
	})
	return biz, nil
}

// firstText walks a selector chain and returns the first non-empty text.
func (e *Extractor) firstText(ctx context.Context, selectors []string) string {
	for _, sel := range selectors {
		value, found, err := e.dom.Text(ctx, sel)
		if err != nil || !found {
			continue
		}
		value = strings.TrimSpace(value)
		if value != "" {
			return value
		}
	}
	return ""
}

func (e *Extractor) extractPhone(ctx context.Context) string {
	if raw := e.firstText(ctx, phoneSelectors); raw != "" {
		return cleanPhone(raw)
	}
	// Some layouts only carry the number inside a tel: anchor.
	if href, found, err := e.dom.Attr(ctx, phoneHrefSelector, "href"); err == nil && found {
		return cleanPhone(href)
	}
	return ""
}

func (e *Extractor) extractWebsite(ctx context.Context) string {
	for _, sel := range websiteSelectors {
		href, found, err := e.dom.Attr(ctx, sel, "href")
		if err != nil || !found {
			continue
		}
		href = strings.TrimSpace(href)
		if href != "" && !strings.Contains(href, "google.com") {
			return href
		}
	}
	return ""
}

func (e *Extractor) extractHours(ctx context.Context) string {
	if label, found, err := e.dom.Attr(ctx, hoursAriaSelector, "aria-label"); err == nil && found {
		if cleaned := cleanHours(label); cleaned != "" {
			return cleaned
		}
	}
	if value, found, err := e.dom.Text(ctx, hoursTextSelector); err == nil && found {
		return cleanHours(value)
	}
	return ""
}
