// Package browser owns the Chrome session used for scraping. It launches
// the browser through chromedp with an anti-automation posture: rotated
// user agent and window size, automation flags disabled, and an init
// script that masks the usual headless fingerprints on every document.
package browser

import (
	"context"
	"math/rand"
	"sync"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"

	"github.com/Islam-amara1/mapsscraper/pkg/config"
	"github.com/Islam-amara1/mapsscraper/pkg/errors"
	"github.com/Islam-amara1/mapsscraper/pkg/logger"
)

// stealthScript runs on every new document before page scripts do. It
// hides the navigator properties headless Chrome leaks.
const stealthScript = `
Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
Object.defineProperty(navigator, 'languages', { get: () => ['en-US', 'en'] });
Object.defineProperty(navigator, 'platform', { get: () => 'Win32' });
Object.defineProperty(navigator, 'hardwareConcurrency', { get: () => 8 });
Object.defineProperty(navigator, 'deviceMemory', { get: () => 8 });
Object.defineProperty(navigator, 'plugins', {
    get: () => [
        { name: 'Chrome PDF Plugin', filename: 'internal-pdf-viewer', description: 'Portable Document Format', length: 1 },
        { name: 'Chrome PDF Viewer', filename: 'mhjfbmdgcfjbbpaeojofohoefgiehjai', description: 'Portable Document Format', length: 1 },
        { name: 'Native Client', filename: 'internal-nacl-plugin', description: 'Native Client Executable', length: 1 }
    ]
});
const originalQuery = window.navigator.permissions.query;
window.navigator.permissions.query = (parameters) => (
    parameters.name === 'notifications'
        ? Promise.resolve({ state: Notification.permission })
        : originalQuery(parameters)
);
window.chrome = { runtime: {}, loadTimes: function() {}, csi: function() {}, app: {} };
`

// blockedURLPatterns covers images, media, fonts and the Maps photo and
// tile services, which dominate page weight but carry no listing data.
var blockedURLPatterns = []string{
	"*.png", "*.jpg", "*.jpeg", "*.gif", "*.svg", "*.ico", "*.webp",
	"*.woff", "*.woff2", "*.ttf", "*.otf",
	"*maps.googleapis.com/maps/vt*",
	"*maps.googleapis.com/maps/api/js/GeoPhotoService*",
}

// Session is one isolated browser instance holding two tabs: one for the
// result feed and one for listing detail pages. It is not safe for
// concurrent page actions; a single logical thread must drive it.
type Session struct {
	ID string

	listTab   context.Context
	detailTab context.Context

	cancels   []context.CancelFunc
	closeOnce sync.Once
	log       logger.Logger
}

// Open launches a stealth-configured Chrome and prepares both tabs.
// Every successful Open must be paired with exactly one Close.
func Open(ctx context.Context, cfg *config.Config) (*Session, error) {
	b := cfg.Browser

	userAgent := b.UserAgents[rand.Intn(len(b.UserAgents))]
	viewport := b.Viewports[rand.Intn(len(b.Viewports))]

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", b.Headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("lang", "en-US"),
		chromedp.UserAgent(userAgent),
		chromedp.WindowSize(viewport.Width, viewport.Height),
	)

	s := &Session{
		ID:  uuid.NewString(),
		log: logger.GetLogger().WithField("component", "browser"),
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	s.cancels = append(s.cancels, cancelAlloc)

	listTab, cancelList := chromedp.NewContext(allocCtx)
	s.cancels = append(s.cancels, cancelList)

	// The first Run starts the Chrome process.
	if err := chromedp.Run(listTab, prepareTab(b.BlockImages)...); err != nil {
		s.Close()
		return nil, errors.Wrap(errors.TypeLaunch, "browser.Open", err)
	}

	detailTab, cancelDetail := chromedp.NewContext(listTab)
	s.cancels = append(s.cancels, cancelDetail)

	if err := chromedp.Run(detailTab, prepareTab(b.BlockImages)...); err != nil {
		s.Close()
		return nil, errors.Wrap(errors.TypeLaunch, "browser.Open", err)
	}

	s.listTab = listTab
	s.detailTab = detailTab

	s.log.DebugWithFields("browser session opened", map[string]interface{}{
		"session_id": s.ID,
		"headless":   b.Headless,
		"user_agent": userAgent,
		"viewport_w": viewport.Width,
		"viewport_h": viewport.Height,
	})

	return s, nil
}

// prepareTab installs the stealth init script and, optionally, the
// resource blocking rules on one tab.
func prepareTab(blockImages bool) []chromedp.Action {
	actions := []chromedp.Action{
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(stealthScript).Do(ctx)
			return err
		}),
	}

	if blockImages {
		actions = append(actions, chromedp.ActionFunc(func(ctx context.Context) error {
			if err := network.Enable().Do(ctx); err != nil {
				return err
			}
			return network.SetBlockedURLS(blockedURLPatterns).Do(ctx)
		}))
	}

	return actions
}

// List returns a DomReader bound to the result-feed tab.
func (s *Session) List() DomReader {
	return &tabReader{tab: s.listTab}
}

// Detail returns a DomReader bound to the detail tab, so listing pages
// never replace the loaded feed.
func (s *Session) Detail() DomReader {
	return &tabReader{tab: s.detailTab}
}

// Close tears the whole session down. Safe to call more than once; only
// the first call does anything.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		for i := len(s.cancels) - 1; i >= 0; i-- {
			s.cancels[i]()
		}
		if s.log != nil {
			s.log.DebugWithFields("browser session closed", map[string]interface{}{
				"session_id": s.ID,
			})
		}
	})
}
