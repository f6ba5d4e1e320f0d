package browser

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// FakeDOM is an in-memory DomReader used by tests. Pages are keyed by
// URL; the feed page can reveal listing hrefs batch by batch as it is
// scrolled, which is enough to exercise the scroll/diff/stall logic
// without a browser.
type FakeDOM struct {
	mu sync.Mutex

	// Pages maps URL to page fixture. Navigate to an unknown URL uses
	// an empty page rather than failing, like a real 404 render.
	Pages map[string]*FakePage

	// NavigateErr, when set, fails every navigation.
	NavigateErr error

	current    *FakePage
	currentURL string
	empty      FakePage
}

// FakePage is one renderable document fixture.
type FakePage struct {
	// Texts maps selector to inner text.
	Texts map[string]string
	// Attrs maps selector to attribute name to value.
	Attrs map[string]map[string]string
	// Visible lists selectors WaitVisible should accept even when they
	// carry no text.
	Visible map[string]bool
	// HrefBatches are listing hrefs revealed progressively: batch 0 is
	// rendered immediately, batch i after i scrolls.
	HrefBatches [][]string
	// EndMarkerAfter shows the end-of-results selector once the given
	// number of scrolls happened. Negative means never.
	EndMarkerAfter int

	// EndSelector is the selector treated as the end-of-results marker.
	EndSelector string

	scrolls int
	clicks  []string
}

// NewFakeDOM creates an empty fake document tree.
func NewFakeDOM() *FakeDOM {
	return &FakeDOM{Pages: make(map[string]*FakePage)}
}

// AddPage registers a fixture page under a URL.
func (d *FakeDOM) AddPage(url string, page *FakePage) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if page.EndMarkerAfter == 0 {
		page.EndMarkerAfter = -1
	}
	d.Pages[url] = page
}

func (d *FakeDOM) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.NavigateErr != nil {
		return d.NavigateErr
	}
	if page, ok := d.Pages[url]; ok {
		d.current = page
	} else {
		d.current = &d.empty
	}
	d.currentURL = url
	return nil
}

func (d *FakeDOM) WaitVisible(ctx context.Context, sel string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	page := d.current
	if page == nil {
		return fmt.Errorf("no document loaded")
	}
	if page.Visible[sel] {
		return nil
	}
	if _, ok := page.Texts[sel]; ok {
		return nil
	}
	return fmt.Errorf("selector %q not visible within %v", sel, timeout)
}

func (d *FakeDOM) Exists(ctx context.Context, sel string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	page := d.current
	if page == nil {
		return false, nil
	}
	if sel == page.EndSelector {
		return page.EndMarkerAfter >= 0 && page.scrolls >= page.EndMarkerAfter, nil
	}
	if page.Visible[sel] {
		return true, nil
	}
	_, ok := page.Texts[sel]
	return ok, nil
}

func (d *FakeDOM) Text(ctx context.Context, sel string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.current == nil {
		return "", false, nil
	}
	v, ok := d.current.Texts[sel]
	return v, ok, nil
}

func (d *FakeDOM) Attr(ctx context.Context, sel, name string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.current == nil {
		return "", false, nil
	}
	attrs, ok := d.current.Attrs[sel]
	if !ok {
		return "", false, nil
	}
	v, ok := attrs[name]
	return v, ok, nil
}

func (d *FakeDOM) Hrefs(ctx context.Context, sel string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	page := d.current
	if page == nil {
		return nil, nil
	}
	revealed := page.scrolls + 1
	if revealed > len(page.HrefBatches) {
		revealed = len(page.HrefBatches)
	}
	var hrefs []string
	for _, batch := range page.HrefBatches[:revealed] {
		hrefs = append(hrefs, batch...)
	}
	return hrefs, nil
}

func (d *FakeDOM) ScrollBy(ctx context.Context, sel string, pixels int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.current == nil {
		return fmt.Errorf("no document loaded")
	}
	d.current.scrolls++
	return nil
}

func (d *FakeDOM) Click(ctx context.Context, sel string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.current == nil {
		return fmt.Errorf("no document loaded")
	}
	d.current.clicks = append(d.current.clicks, sel)
	return nil
}

func (d *FakeDOM) Location(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.currentURL, nil
}

// Scrolls reports how many times the given page was scrolled.
func (p *FakePage) Scrolls() int {
	return p.scrolls
}
