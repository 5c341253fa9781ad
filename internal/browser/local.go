package browser

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"

	"github.com/IshaanNene/cafepulse/internal/config"
)

// LocalBackend launches a Chromium process on this host.
type LocalBackend struct {
	cfg    config.BrowserConfig
	logger *slog.Logger
}

// NewLocalBackend creates a backend that launches Chromium locally.
func NewLocalBackend(cfg config.BrowserConfig, logger *slog.Logger) *LocalBackend {
	return &LocalBackend{
		cfg:    cfg,
		logger: logger.With("component", "local_browser"),
	}
}

func (l *LocalBackend) Mode() Mode { return ModeLocal }

// Open launches Chromium with sandboxing disabled, which containers need.
func (l *LocalBackend) Open(ctx context.Context) (Browser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ln := launcher.New().
		Headless(l.cfg.Headless).
		NoSandbox(true).
		Set("disable-dev-shm-usage").
		Set("disable-gpu").
		Set("disable-blink-features", "AutomationControlled").
		Set("window-size", fmt.Sprintf("%d,%d", l.cfg.ViewportWidth, l.cfg.ViewportHeight))
	if l.cfg.Bin != "" {
		ln = ln.Bin(l.cfg.Bin)
	}

	controlURL, err := ln.Launch()
	if err != nil {
		ln.Kill()
		return nil, fmt.Errorf("launch chromium: %w", err)
	}

	connCtx, stop := context.WithCancel(context.Background())
	b := rod.New().Context(connCtx).ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		stop()
		ln.Kill()
		ln.Cleanup()
		return nil, fmt.Errorf("connect chromium: %w", err)
	}

	l.logger.Info("local browser launched", "pid", ln.PID(), "headless", l.cfg.Headless)

	return &rodBrowser{
		browser: b,
		owned:   true,
		cleanup: []func() error{
			func() error {
				ln.Kill()
				ln.Cleanup()
				return nil
			},
			func() error {
				stop()
				return nil
			},
		},
	}, nil
}
