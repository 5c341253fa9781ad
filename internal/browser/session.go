package browser

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/IshaanNene/cafepulse/internal/config"
	"github.com/IshaanNene/cafepulse/internal/observability"
	"github.com/IshaanNene/cafepulse/internal/types"
)

// Session is one acquired browser with a single page. The caller owns it
// until Release; no session outlives the run that acquired it.
type Session struct {
	ID   string
	Mode Mode

	browser  Browser
	page     Page
	logger   *slog.Logger
	once     sync.Once
	released atomic.Bool
}

// Page returns the session's page. It must not be used after Release.
func (s *Session) Page() Page { return s.page }

// Connected reports whether the session has not been released yet.
func (s *Session) Connected() bool { return !s.released.Load() }

// Release closes the page and every resource behind it. It is safe to call
// more than once; teardown errors are logged and swallowed.
func (s *Session) Release() {
	s.once.Do(func() {
		s.released.Store(true)
		if err := s.page.Close(); err != nil {
			s.logger.Debug("page close failed", "error", err)
		}
		if err := s.browser.Close(); err != nil {
			s.logger.Debug("browser close failed", "error", err)
		}
		s.logger.Info("browser session released")
	})
}

// Manager acquires browser sessions, preferring the remote backend when one
// is configured and falling back to a local launch.
type Manager struct {
	remote   Backend
	local    Backend
	pageOpts PageOptions
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// ManagerOption configures the Manager.
type ManagerOption func(*Manager)

// WithRemoteBackend overrides the remote backend. Passing nil disables the
// remote path.
func WithRemoteBackend(b Backend) ManagerOption {
	return func(m *Manager) { m.remote = b }
}

// WithLocalBackend overrides the local backend.
func WithLocalBackend(b Backend) ManagerOption {
	return func(m *Manager) { m.local = b }
}

// WithMetrics records acquisition outcomes.
func WithMetrics(metrics *observability.Metrics) ManagerOption {
	return func(m *Manager) { m.metrics = metrics }
}

// NewManager creates a Manager from configuration.
func NewManager(cfg *config.Config, logger *slog.Logger, opts ...ManagerOption) *Manager {
	m := &Manager{
		local: NewLocalBackend(cfg.Browser, logger),
		pageOpts: PageOptions{
			Width:             cfg.Browser.ViewportWidth,
			Height:            cfg.Browser.ViewportHeight,
			UserAgent:         cfg.Browser.UserAgent,
			Stealth:           cfg.Browser.Stealth,
			NavigationTimeout: cfg.Browser.NavigationTimeout,
		},
		logger: logger.With("component", "session_manager"),
	}
	if cfg.Remote.Configured() {
		m.remote = NewRemoteBackend(cfg.Remote, logger)
	}

	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Acquire returns a connected session. The remote backend is tried first
// when configured; any failure there is logged and the local backend is
// used instead. If both fail an *types.AcquisitionError is returned and
// nothing is left open.
func (m *Manager) Acquire(ctx context.Context) (*Session, error) {
	var remoteErr error
	if m.remote != nil {
		s, err := m.open(ctx, m.remote)
		if err == nil {
			return s, nil
		}
		remoteErr = err
		m.logger.Warn("remote browser unavailable, falling back to local", "error", err)

		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, &types.AcquisitionError{Remote: remoteErr, Local: ctxErr}
		}
	}

	if m.local == nil {
		return nil, &types.AcquisitionError{Remote: remoteErr, Local: fmt.Errorf("no local backend")}
	}
	s, err := m.open(ctx, m.local)
	if err != nil {
		m.logger.Error("browser acquisition failed", "error", err)
		return nil, &types.AcquisitionError{Remote: remoteErr, Local: err}
	}
	return s, nil
}

// Release releases s. A nil session is ignored.
func (m *Manager) Release(s *Session) {
	if s != nil {
		s.Release()
	}
}

func (m *Manager) open(ctx context.Context, backend Backend) (*Session, error) {
	mode := backend.Mode()

	b, err := backend.Open(ctx)
	if err != nil {
		m.metrics.Acquisition(string(mode), "failed")
		return nil, err
	}

	page, err := b.NewPage(ctx, m.pageOpts)
	if err != nil {
		if cerr := b.Close(); cerr != nil {
			m.logger.Debug("close after page failure", "mode", mode, "error", cerr)
		}
		m.metrics.Acquisition(string(mode), "failed")
		return nil, fmt.Errorf("open page: %w", err)
	}

	id := uuid.NewString()
	m.metrics.Acquisition(string(mode), "ok")
	m.logger.Info("browser session acquired", "session", id, "mode", mode)

	return &Session{
		ID:      id,
		Mode:    mode,
		browser: b,
		page:    page,
		logger:  m.logger.With("session", id, "mode", mode),
	}, nil
}
