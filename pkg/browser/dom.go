package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// DomReader is the narrow capability the scraping core needs from a
// browser tab: navigate, wait, read, scroll, click. Everything above
// this package depends on the interface only, so the navigator and the
// extractor can be exercised against a fixture DOM in tests.
type DomReader interface {
	// Navigate loads a URL and returns once the document is committed.
	Navigate(ctx context.Context, url string) error
	// WaitVisible blocks until the selector matches a visible node or
	// the timeout elapses.
	WaitVisible(ctx context.Context, sel string, timeout time.Duration) error
	// Exists reports whether the selector currently matches a node.
	Exists(ctx context.Context, sel string) (bool, error)
	// Text returns the trimmed inner text of the first match, and
	// whether a match was found at all.
	Text(ctx context.Context, sel string) (string, bool, error)
	// Attr returns an attribute of the first match, and whether both
	// the node and the attribute exist.
	Attr(ctx context.Context, sel, name string) (string, bool, error)
	// Hrefs returns the href of every match, in DOM order.
	Hrefs(ctx context.Context, sel string) ([]string, error)
	// ScrollBy advances the scroll position of the selected container.
	ScrollBy(ctx context.Context, sel string, pixels int) error
	// Click clicks the first match.
	Click(ctx context.Context, sel string) error
	// Location returns the tab's current URL.
	Location(ctx context.Context) (string, error)
}

// tabReader implements DomReader against one chromedp tab context. The
// tab context descends from the context passed to Open, so cancelling
// the run tears the reads down with it.
type tabReader struct {
	tab context.Context
}

func (r *tabReader) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return chromedp.Run(r.tab, chromedp.Navigate(url))
}

func (r *tabReader) WaitVisible(ctx context.Context, sel string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	waitCtx, cancel := context.WithTimeout(r.tab, timeout)
	defer cancel()
	return chromedp.Run(waitCtx, chromedp.WaitVisible(sel, chromedp.ByQuery))
}

func (r *tabReader) Exists(ctx context.Context, sel string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var found bool
	script := fmt.Sprintf(`document.querySelector(%q) !== null`, sel)
	if err := chromedp.Run(r.tab, chromedp.Evaluate(script, &found)); err != nil {
		return false, err
	}
	return found, nil
}

// textResult carries one query result across the JS boundary.
type textResult struct {
	Found bool   `json:"found"`
	Value string `json:"value"`
}

func (r *tabReader) Text(ctx context.Context, sel string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	script := fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		return { found: !!el, value: el ? el.innerText.trim() : '' };
	})()`, sel)

	var res textResult
	if err := chromedp.Run(r.tab, chromedp.Evaluate(script, &res)); err != nil {
		return "", false, err
	}
	return res.Value, res.Found, nil
}

func (r *tabReader) Attr(ctx context.Context, sel, name string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	script := fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		const v = el ? el.getAttribute(%q) : null;
		return { found: v !== null, value: v === null ? '' : v };
	})()`, sel, name)

	var res textResult
	if err := chromedp.Run(r.tab, chromedp.Evaluate(script, &res)); err != nil {
		return "", false, err
	}
	return res.Value, res.Found, nil
}

func (r *tabReader) Hrefs(ctx context.Context, sel string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	script := fmt.Sprintf(
		`Array.from(document.querySelectorAll(%q)).map(a => a.href || '')`, sel)

	var hrefs []string
	if err := chromedp.Run(r.tab, chromedp.Evaluate(script, &hrefs)); err != nil {
		return nil, err
	}
	return hrefs, nil
}

func (r *tabReader) ScrollBy(ctx context.Context, sel string, pixels int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	script := fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		if (el) { el.scrollTop += %d; return true; }
		return false;
	})()`, sel, pixels)

	var scrolled bool
	if err := chromedp.Run(r.tab, chromedp.Evaluate(script, &scrolled)); err != nil {
		return err
	}
	if !scrolled {
		return fmt.Errorf("scroll container %q not found", sel)
	}
	return nil
}

func (r *tabReader) Click(ctx context.Context, sel string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return chromedp.Run(r.tab, chromedp.Click(sel, chromedp.ByQuery))
}

func (r *tabReader) Location(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var url string
	if err := chromedp.Run(r.tab, chromedp.Location(&url)); err != nil {
		return "", err
	}
	return url, nil
}
