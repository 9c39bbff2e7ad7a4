// Package browser wraps chromedp into the handful of blocking primitives the
// discovery automations need. Nothing above this package talks to CDP
// directly.
package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/chromedp/chromedp"
	"golang.org/x/time/rate"
)

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0 Safari/537.36"

// waitTimeout is the hard cap on element waits.
const waitTimeout = 15 * time.Second

type Options struct {
	Headless   bool
	ChromePath string
	UserAgent  string

	// NavPerSec throttles navigations across the whole session.
	NavPerSec float64
}

// Driver owns one browser context for the lifetime of a run.
type Driver struct {
	ctx         context.Context
	cancelAlloc context.CancelFunc
	cancelCtx   context.CancelFunc
	limiter     *rate.Limiter
}

func New(parent context.Context, opts Options) (*Driver, error) {
	ua := opts.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(ua),
	)
	if opts.ChromePath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ChromePath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, allocOpts...)
	bctx, cancelCtx := chromedp.NewContext(allocCtx)

	if err := chromedp.Run(bctx, chromedp.Navigate("about:blank")); err != nil {
		cancelCtx()
		cancelAlloc()
		return nil, fmt.Errorf("start chrome: %w", err)
	}

	navPerSec := opts.NavPerSec
	if navPerSec <= 0 {
		navPerSec = 0.5
	}

	return &Driver{
		ctx:         bctx,
		cancelAlloc: cancelAlloc,
		cancelCtx:   cancelCtx,
		limiter:     rate.NewLimiter(rate.Limit(navPerSec), 1),
	}, nil
}

func (d *Driver) Close() {
	d.cancelCtx()
	d.cancelAlloc()
}

// Navigate is rate-limited; bursty navigation is the loudest automation tell.
func (d *Driver) Navigate(ctx context.Context, url string) error {
	if err := d.limiter.Wait(ctx); err != nil {
		return err
	}
	if err := chromedp.Run(d.ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

func (d *Driver) CurrentURL(ctx context.Context) (string, error) {
	var u string
	if err := chromedp.Run(d.ctx, chromedp.Location(&u)); err != nil {
		return "", fmt.Errorf("current url: %w", err)
	}
	return u, nil
}

// WaitVisible blocks until the selector renders or the hard timeout fires.
func (d *Driver) WaitVisible(ctx context.Context, sel string) error {
	wctx, cancel := context.WithTimeout(d.ctx, waitTimeout)
	defer cancel()
	if err := chromedp.Run(wctx, chromedp.WaitVisible(sel, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("wait visible %q: %w", sel, err)
	}
	return nil
}

func (d *Driver) Fill(ctx context.Context, sel, value string) error {
	if err := chromedp.Run(d.ctx,
		chromedp.WaitVisible(sel, chromedp.ByQuery),
		chromedp.SetValue(sel, value, chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("fill %q: %w", sel, err)
	}
	return nil
}

func (d *Driver) Click(ctx context.Context, sel string) error {
	if err := chromedp.Run(d.ctx,
		chromedp.ScrollIntoView(sel, chromedp.ByQuery),
		chromedp.Click(sel, chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("click %q: %w", sel, err)
	}
	return nil
}

// OuterHTML returns the rendered HTML under sel ("html" for the whole page).
func (d *Driver) OuterHTML(ctx context.Context, sel string) (string, error) {
	var html string
	if err := chromedp.Run(d.ctx, chromedp.OuterHTML(sel, &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("outer html %q: %w", sel, err)
	}
	return html, nil
}

// Snapshot returns the page's visible text, the flat dump the snapshot
// parser consumes.
func (d *Driver) Snapshot(ctx context.Context) (string, error) {
	var text string
	if err := chromedp.Run(d.ctx,
		chromedp.EvaluateAsDevTools(`document.body.innerText`, &text),
	); err != nil {
		return "", fmt.Errorf("snapshot: %w", err)
	}
	return text, nil
}

// Evaluate runs js and unmarshals its value into out (pass nil to ignore).
func (d *Driver) Evaluate(ctx context.Context, js string, out any) error {
	if err := chromedp.Run(d.ctx, chromedp.EvaluateAsDevTools(js, out)); err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}
	return nil
}

// ClickInRow clicks the first clickable element inside the idx-th element
// matching rowSel whose visible text matches any of wants. Scoping matters:
// a results grid shows one such control per row and clicking the wrong one
// acts on a different row's data.
func (d *Driver) ClickInRow(ctx context.Context, rowSel string, idx int, wants ...string) (bool, error) {
	wantsJSON, err := json.Marshal(wants)
	if err != nil {
		return false, err
	}
	js := fmt.Sprintf(`(() => {
		const wants = %s.map(w => w.toLowerCase());
		const row = document.querySelectorAll(%q)[%d];
		if (!row) return false;
		const els = Array.from(row.querySelectorAll('a, button, span'));
		const el = els.find(e => {
			const t = (e.textContent || '').trim().toLowerCase();
			return wants.some(w => t.includes(w));
		});
		if (!el) return false;
		el.scrollIntoView({behavior: 'instant', block: 'center'});
		el.click();
		return true;
	})()`, wantsJSON, rowSel, idx)

	var clicked bool
	if err := chromedp.Run(d.ctx, chromedp.EvaluateAsDevTools(js, &clicked)); err != nil {
		return false, fmt.Errorf("click in row %d: %w", idx, err)
	}
	return clicked, nil
}

func (d *Driver) ScrollBy(ctx context.Context, px int) error {
	return d.Evaluate(ctx, fmt.Sprintf(`window.scrollBy(0, %d)`, px), nil)
}

// Sleep pauses a random interval in [min, max); think-time jitter between
// actions.
func (d *Driver) Sleep(ctx context.Context, min, max time.Duration) {
	d0 := min
	if max > min {
		d0 += time.Duration(rand.Int63n(int64(max - min)))
	}
	select {
	case <-ctx.Done():
	case <-time.After(d0):
	}
}
