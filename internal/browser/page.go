package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// Page is the subset of page operations the login handshake and the
// ranking extractor drive. Every call is bounded by ctx and by the page's
// own navigation timeout.
type Page interface {
	// Navigate loads url and waits for the load event.
	Navigate(ctx context.Context, url string) error

	// WaitElement blocks until selector matches an element or timeout passes.
	WaitElement(ctx context.Context, selector string, timeout time.Duration) error

	// Fill replaces the value of the input matched by selector.
	Fill(ctx context.Context, selector, value string) error

	// Click clicks the element matched by selector.
	Click(ctx context.Context, selector string) error

	// URL returns the page's current URL.
	URL(ctx context.Context) (string, error)

	// HTML returns the rendered document.
	HTML(ctx context.Context) (string, error)

	// Close closes the page.
	Close() error
}

// rodPage implements Page on top of a Rod page.
type rodPage struct {
	page    *rod.Page
	timeout time.Duration
}

func newRodPage(page *rod.Page, timeout time.Duration) *rodPage {
	return &rodPage{page: page, timeout: timeout}
}

// bounded returns a page clone bound to ctx and limited to d. The returned
// cancel func must be called once the call using the clone returns.
func (p *rodPage) bounded(ctx context.Context, d time.Duration) (*rod.Page, context.CancelFunc) {
	if d <= 0 {
		return p.page.Context(ctx), func() {}
	}
	tctx, cancel := context.WithTimeout(ctx, d)
	return p.page.Context(tctx), cancel
}

func (p *rodPage) Navigate(ctx context.Context, url string) error {
	pg, cancel := p.bounded(ctx, p.timeout)
	defer cancel()
	if err := pg.Navigate(url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	if err := pg.WaitLoad(); err != nil {
		return fmt.Errorf("wait load %s: %w", url, err)
	}
	return nil
}

func (p *rodPage) WaitElement(ctx context.Context, selector string, timeout time.Duration) error {
	pg, cancel := p.bounded(ctx, timeout)
	defer cancel()
	if _, err := pg.Element(selector); err != nil {
		return fmt.Errorf("element not found: %s: %w", selector, err)
	}
	return nil
}

func (p *rodPage) Fill(ctx context.Context, selector, value string) error {
	pg, cancel := p.bounded(ctx, p.timeout)
	defer cancel()
	el, err := pg.Element(selector)
	if err != nil {
		return fmt.Errorf("element not found: %s: %w", selector, err)
	}
	if err := el.SelectAllText(); err != nil {
		return fmt.Errorf("select %s: %w", selector, err)
	}
	return el.Input(value)
}

func (p *rodPage) Click(ctx context.Context, selector string) error {
	pg, cancel := p.bounded(ctx, p.timeout)
	defer cancel()
	el, err := pg.Element(selector)
	if err != nil {
		return fmt.Errorf("element not found: %s: %w", selector, err)
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (p *rodPage) URL(ctx context.Context) (string, error) {
	info, err := p.page.Context(ctx).Info()
	if err != nil {
		return "", err
	}
	return info.URL, nil
}

func (p *rodPage) HTML(ctx context.Context) (string, error) {
	pg, cancel := p.bounded(ctx, p.timeout)
	defer cancel()
	return pg.HTML()
}

func (p *rodPage) Close() error {
	return p.page.Close()
}
