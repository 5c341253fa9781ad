// Package orchestrator runs the on-demand ranking chain: acquire a browser,
// log in, read both rankings, release the browser.
package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/IshaanNene/cafepulse/internal/auth"
	"github.com/IshaanNene/cafepulse/internal/browser"
	"github.com/IshaanNene/cafepulse/internal/config"
	"github.com/IshaanNene/cafepulse/internal/history"
	"github.com/IshaanNene/cafepulse/internal/observability"
	"github.com/IshaanNene/cafepulse/internal/types"
)

// Status categorizes how a run ended.
type Status string

const (
	StatusCompleted         Status = "completed"
	StatusNotConfigured     Status = "not_configured"
	StatusDisabled          Status = "disabled"
	StatusAcquisitionFailed Status = "acquisition_failed"
	StatusAuthFailed        Status = "auth_failed"
	StatusAuthTimeout       Status = "auth_timeout"
	StatusCancelled         Status = "cancelled"
)

// Outcome is the structured result of one run. Cause is a short human
// readable explanation for any status other than completed.
type Outcome struct {
	RunID    string                 `json:"run_id,omitempty"`
	Status   Status                 `json:"status"`
	Cause    string                 `json:"cause,omitempty"`
	Mode     browser.Mode           `json:"mode,omitempty"`
	Snapshot *types.RankingSnapshot `json:"data,omitempty"`
	Duration time.Duration          `json:"duration_ns"`
}

// OK reports whether the run completed.
func (o Outcome) OK() bool { return o.Status == StatusCompleted }

// Acquirer hands out browser sessions.
type Acquirer interface {
	Acquire(ctx context.Context) (*browser.Session, error)
}

// Authenticator logs a page in.
type Authenticator interface {
	Login(ctx context.Context, page browser.Page, creds auth.Credentials) (auth.Result, error)
}

// Fetcher reads one ranking through an authenticated page.
type Fetcher interface {
	Fetch(ctx context.Context, page browser.Page, metric types.Metric, start *time.Time) []types.RankingRow
}

// Runner executes ranking runs.
type Runner struct {
	sessions Acquirer
	auth     Authenticator
	fetcher  Fetcher
	store    *history.Store
	creds    auth.Credentials
	disabled bool
	now      func() time.Time
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// New creates a Runner.
func New(cfg *config.Config, sessions Acquirer, authn Authenticator, fetcher Fetcher,
	store *history.Store, logger *slog.Logger, metrics *observability.Metrics) *Runner {
	return &Runner{
		sessions: sessions,
		auth:     authn,
		fetcher:  fetcher,
		store:    store,
		creds:    auth.Credentials{Username: cfg.Auth.Username, Password: cfg.Auth.Password},
		disabled: cfg.Disabled,
		now:      time.Now,
		logger:   logger.With("component", "runner"),
		metrics:  metrics,
	}
}

// Run executes the chain for the default start date.
func (r *Runner) Run(ctx context.Context) Outcome {
	return r.RunFrom(ctx, nil)
}

// RunFrom executes the chain for the month starting at start (nil for the
// previous month). The session is always released before it returns. The
// stored snapshot is only replaced when the run completes.
func (r *Runner) RunFrom(ctx context.Context, start *time.Time) Outcome {
	if r.disabled {
		return Outcome{Status: StatusDisabled, Cause: types.ErrDisabled.Error()}
	}
	if r.creds.Username == "" || r.creds.Password == "" {
		return Outcome{Status: StatusNotConfigured, Cause: types.ErrNotConfigured.Error()}
	}

	began := r.now()
	rec := history.RunRecord{RunID: uuid.NewString(), Status: "running", StartedAt: began}
	r.store.RecordRun(history.JobRankings, rec)
	logger := r.logger.With("run", rec.RunID)

	out := r.run(ctx, logger, start)
	out.RunID = rec.RunID
	out.Duration = r.now().Sub(began)

	rec.Status = string(out.Status)
	rec.Cause = out.Cause
	rec.FinishedAt = began.Add(out.Duration)
	rec.Duration = out.Duration
	r.store.RecordRun(history.JobRankings, rec)
	r.metrics.Run(string(out.Status), out.Duration)

	logger.Info("ranking run finished", "status", out.Status, "duration", out.Duration)
	return out
}

func (r *Runner) run(ctx context.Context, logger *slog.Logger, start *time.Time) Outcome {
	session, err := r.sessions.Acquire(ctx)
	if err != nil {
		logger.Error("browser acquisition failed", "error", err)
		return Outcome{Status: StatusAcquisitionFailed, Cause: "no browser could be started"}
	}
	defer session.Release()

	logger = logger.With("session", session.ID, "mode", session.Mode)
	page := session.Page()

	result, err := r.auth.Login(ctx, page, r.creds)
	if err != nil {
		logger.Error("login did not complete", "error", &types.AuthError{Outcome: string(auth.Failure), Err: err})
		if ctx.Err() != nil {
			return Outcome{Status: StatusCancelled, Cause: "run cancelled", Mode: session.Mode}
		}
		var formErr *auth.FormLoadError
		if errors.As(err, &formErr) {
			return Outcome{Status: StatusAuthFailed, Cause: "login form did not load", Mode: session.Mode}
		}
		return Outcome{Status: StatusAuthFailed, Cause: "login could not be completed", Mode: session.Mode}
	}

	if result != auth.Success {
		logger.Warn("login unsuccessful", "error", &types.AuthError{Outcome: string(result)})
	}
	switch result {
	case auth.Timeout:
		return Outcome{Status: StatusAuthTimeout, Cause: "additional verification was not completed in time", Mode: session.Mode}
	case auth.Failure:
		return Outcome{Status: StatusAuthFailed, Cause: "login was rejected", Mode: session.Mode}
	}

	posts := r.fetcher.Fetch(ctx, page, types.MetricPosts, start)
	comments := r.fetcher.Fetch(ctx, page, types.MetricComments, start)
	if ctx.Err() != nil {
		return Outcome{Status: StatusCancelled, Cause: "run cancelled", Mode: session.Mode}
	}

	snap := types.RankingSnapshot{Posts: posts, Comments: comments, CollectedAt: r.now()}
	r.store.ReplaceRankings(snap)

	logger.Info("rankings collected", "posts", len(posts), "comments", len(comments))
	return Outcome{Status: StatusCompleted, Mode: session.Mode, Snapshot: &snap}
}
