package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
)

// Cookie is the portable subset of a CDP cookie, enough to resurrect an
// authenticated session.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	HTTPOnly bool    `json:"http_only"`
	Secure   bool    `json:"secure"`
}

// Cookies reads every cookie in the browser's jar.
func (d *Driver) Cookies(ctx context.Context) ([]Cookie, error) {
	var out []Cookie
	err := chromedp.Run(d.ctx, chromedp.ActionFunc(func(cctx context.Context) error {
		raw, err := storage.GetCookies().Do(cctx)
		if err != nil {
			return err
		}
		for _, c := range raw {
			out = append(out, Cookie{
				Name:     c.Name,
				Value:    c.Value,
				Domain:   c.Domain,
				Path:     c.Path,
				Expires:  c.Expires,
				HTTPOnly: c.HTTPOnly,
				Secure:   c.Secure,
			})
		}
		return nil
	}))
	if err != nil {
		return nil, fmt.Errorf("get cookies: %w", err)
	}
	return out, nil
}

// SetCookies loads a saved jar back into the browser. Already-expired
// cookies are skipped rather than rejected.
func (d *Driver) SetCookies(ctx context.Context, cookies []Cookie) error {
	params := make([]*network.CookieParam, 0, len(cookies))
	now := time.Now()
	for _, c := range cookies {
		p := &network.CookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
		}
		if c.Expires > 0 {
			exp := time.Unix(int64(c.Expires), 0)
			if exp.Before(now) {
				continue
			}
			t := cdp.TimeSinceEpoch(exp)
			p.Expires = &t
		}
		params = append(params, p)
	}
	if len(params) == 0 {
		return nil
	}
	err := chromedp.Run(d.ctx, chromedp.ActionFunc(func(cctx context.Context) error {
		return storage.SetCookies(params).Do(cctx)
	}))
	if err != nil {
		return fmt.Errorf("set cookies: %w", err)
	}
	return nil
}
