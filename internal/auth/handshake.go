// Package auth drives the portal's login form through a browser page and
// waits out a second factor the user completes by hand.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/IshaanNene/cafepulse/internal/browser"
	"github.com/IshaanNene/cafepulse/internal/config"
	"github.com/IshaanNene/cafepulse/internal/observability"
)

// Result is the outcome of one login attempt.
type Result string

const (
	Success Result = "success"
	Failure Result = "failure"
	Timeout Result = "timeout"
)

// Credentials holds the two login secrets.
type Credentials struct {
	Username string
	Password string
}

// FormLoadError means the login form never rendered.
type FormLoadError struct {
	URL string
	Err error
}

func (e *FormLoadError) Error() string {
	return fmt.Sprintf("login form did not load at %s: %v", e.URL, e.Err)
}

func (e *FormLoadError) Unwrap() error { return e.Err }

type state int

const (
	stateFormLoading state = iota
	stateCredentialsEntered
	stateSubmitted
	stateChallenge
	stateResolved
)

func (s state) String() string {
	switch s {
	case stateFormLoading:
		return "form_loading"
	case stateCredentialsEntered:
		return "credentials_entered"
	case stateSubmitted:
		return "submitted"
	case stateChallenge:
		return "auth_challenge"
	case stateResolved:
		return "resolved"
	}
	return "unknown"
}

// WaitFunc blocks for d or until ctx is done.
type WaitFunc func(ctx context.Context, d time.Duration) error

// Handshake runs the login state machine.
type Handshake struct {
	cfg     config.AuthConfig
	wait    WaitFunc
	logger  *slog.Logger
	metrics *observability.Metrics
}

// Option configures a Handshake.
type Option func(*Handshake)

// WithWait replaces the pause and poll timer.
func WithWait(fn WaitFunc) Option {
	return func(h *Handshake) { h.wait = fn }
}

// WithMetrics records handshake results.
func WithMetrics(m *observability.Metrics) Option {
	return func(h *Handshake) { h.metrics = m }
}

// New creates a Handshake.
func New(cfg config.AuthConfig, logger *slog.Logger, opts ...Option) *Handshake {
	h := &Handshake{
		cfg:    cfg,
		wait:   sleep,
		logger: logger.With("component", "auth"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Login fills and submits the login form on page, then classifies where the
// browser ends up. A URL still carrying a login or challenge marker after
// submit is polled until it clears or the poll budget runs out.
//
// A non-nil error means the attempt could not run to a verdict: the form
// never loaded, a page step failed, or ctx was cancelled. The Result is
// Failure in that case.
func (h *Handshake) Login(ctx context.Context, page browser.Page, creds Credentials) (Result, error) {
	result, err := h.run(ctx, page, creds)
	if err != nil {
		result = Failure
	}
	h.metrics.Handshake(string(result))
	return result, err
}

func (h *Handshake) run(ctx context.Context, page browser.Page, creds Credentials) (Result, error) {
	var (
		st      = stateFormLoading
		current string
		polls   int
	)

	for {
		h.logger.Debug("handshake state", "state", st)

		switch st {
		case stateFormLoading:
			if err := page.Navigate(ctx, h.cfg.LoginURL); err != nil {
				return Failure, &FormLoadError{URL: h.cfg.LoginURL, Err: err}
			}
			if err := page.WaitElement(ctx, h.cfg.IDSelector, h.cfg.FormTimeout); err != nil {
				return Failure, &FormLoadError{URL: h.cfg.LoginURL, Err: err}
			}
			st = stateCredentialsEntered

		case stateCredentialsEntered:
			if err := page.Fill(ctx, h.cfg.IDSelector, creds.Username); err != nil {
				return Failure, fmt.Errorf("enter username: %w", err)
			}
			if err := h.wait(ctx, h.cfg.TypePause); err != nil {
				return Failure, err
			}
			if err := page.Fill(ctx, h.cfg.PWSelector, creds.Password); err != nil {
				return Failure, fmt.Errorf("enter password: %w", err)
			}
			if err := h.wait(ctx, h.cfg.TypePause); err != nil {
				return Failure, err
			}
			st = stateSubmitted

		case stateSubmitted:
			if err := page.Click(ctx, h.cfg.SubmitSelector); err != nil {
				return Failure, fmt.Errorf("submit login: %w", err)
			}
			if err := h.wait(ctx, h.cfg.SubmitPause); err != nil {
				return Failure, err
			}
			u, err := page.URL(ctx)
			if err != nil {
				return Failure, fmt.Errorf("read url: %w", err)
			}
			current = u
			if h.hasMarker(current) {
				h.logger.Info("additional verification required, waiting", "limit", h.cfg.PollLimit)
				st = stateChallenge
			} else {
				st = stateResolved
			}

		case stateChallenge:
			if polls >= h.cfg.PollLimit {
				h.logger.Warn("verification not completed in time", "polls", polls)
				return Timeout, nil
			}
			if err := h.wait(ctx, h.cfg.PollInterval); err != nil {
				return Failure, err
			}
			polls++
			u, err := page.URL(ctx)
			if err != nil {
				return Failure, fmt.Errorf("read url: %w", err)
			}
			current = u
			if !h.hasMarker(current) {
				h.logger.Info("verification completed", "polls", polls)
				st = stateResolved
			}

		case stateResolved:
			if h.onTargetDomain(current) && !h.hasMarker(current) {
				h.logger.Info("login succeeded")
				return Success, nil
			}
			h.logger.Warn("login failed", "url", current)
			return Failure, nil
		}
	}
}

func (h *Handshake) hasMarker(raw string) bool {
	for _, m := range h.cfg.Markers {
		if m != "" && strings.Contains(raw, m) {
			return true
		}
	}
	return false
}

func (h *Handshake) onTargetDomain(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	domain := strings.ToLower(h.cfg.TargetDomain)
	return host == domain || strings.HasSuffix(host, "."+domain)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
