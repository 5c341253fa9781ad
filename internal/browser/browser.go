package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// Mode records where a session's browser runs.
type Mode string

const (
	ModeRemote Mode = "remote"
	ModeLocal  Mode = "local"
)

// PageOptions configures the browsing context opened for a session.
type PageOptions struct {
	Width             int
	Height            int
	UserAgent         string
	Stealth           bool
	NavigationTimeout time.Duration
}

// Browser is an open connection to one browser instance.
type Browser interface {
	// NewPage opens a fresh browsing context with one page in it.
	NewPage(ctx context.Context, opts PageOptions) (Page, error)

	// Close releases the browsing context and everything the connection owns.
	Close() error
}

// Backend opens browsers in one execution mode.
type Backend interface {
	Mode() Mode
	Open(ctx context.Context) (Browser, error)
}

// rodBrowser implements Browser over a connected Rod browser. When owned is
// set the whole browser process is shut down on Close; otherwise only the
// browsing context this session created is disposed.
type rodBrowser struct {
	browser   *rod.Browser
	incognito *rod.Browser
	owned     bool
	cleanup   []func() error
}

func (b *rodBrowser) NewPage(ctx context.Context, opts PageOptions) (Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	inc, err := b.browser.Incognito()
	if err != nil {
		return nil, fmt.Errorf("create browsing context: %w", err)
	}
	b.incognito = inc

	var page *rod.Page
	if opts.Stealth {
		page, err = stealth.Page(inc)
	} else {
		page, err = inc.Page(proto.TargetCreateTarget{URL: "about:blank"})
	}
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}

	err = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             opts.Width,
		Height:            opts.Height,
		DeviceScaleFactor: 1,
	})
	if err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("set viewport: %w", err)
	}

	if opts.UserAgent != "" {
		err = page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: opts.UserAgent})
		if err != nil {
			_ = page.Close()
			return nil, fmt.Errorf("set user agent: %w", err)
		}
	}

	return newRodPage(page, opts.NavigationTimeout), nil
}

func (b *rodBrowser) Close() error {
	var errs []error
	if b.incognito != nil {
		errs = append(errs, b.incognito.Close())
		b.incognito = nil
	}
	if b.owned {
		errs = append(errs, b.browser.Close())
	}
	// Run in reverse order of acquisition.
	for i := len(b.cleanup) - 1; i >= 0; i-- {
		errs = append(errs, b.cleanup[i]())
	}
	b.cleanup = nil
	return errors.Join(errs...)
}
