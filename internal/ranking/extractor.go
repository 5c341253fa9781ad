// Package ranking reads the portal's monthly member rankings through an
// authenticated browser page and normalizes them into ranked rows.
package ranking

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
	"github.com/IshaanNene/cafepulse/internal/pipeline"
	"github.com/IshaanNene/cafepulse/internal/types"
)

const dateLayout = "2006-01-02"

// DefaultStartDate returns the first day of the month before now.
// In January that is December 1st of the previous year.
func DefaultStartDate(now time.Time) time.Time {
	year, month := now.Year(), now.Month()-1
	if month < time.January {
		year, month = year-1, time.December
	}
	return time.Date(year, month, 1, 0, 0, 0, 0, now.Location())
}

// StatURL builds the monthly ranking URL for one metric.
func StatURL(base, cafeID string, metric types.Metric, start time.Time) string {
	endpoint := "memberCreate"
	if metric == types.MetricComments {
		endpoint = "memberComment"
	}

	q := url.Values{}
	q.Set("service", "CAFE")
	q.Set("timeDimension", "MONTH")
	q.Set("startDate", start.Format(dateLayout))
	q.Set("memberId", "멤버")
	q.Set("exclude", "member,board,dashBoard")

	return fmt.Sprintf("%s/api/cafe/%s/rank/%s?%s",
		strings.TrimRight(base, "/"), url.PathEscape(cafeID), endpoint, q.Encode())
}

// Extractor fetches ranking documents with an authenticated page.
type Extractor struct {
	cfg      config.RankingConfig
	cafeID   string
	locator  Locator
	pipeline *pipeline.Pipeline
	wait     func(ctx context.Context, d time.Duration) error
	now      func() time.Time
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithMetrics records extracted rows and failures.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Extractor) { e.metrics = m }
}

// WithClock replaces the clock used for the default start date.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) { e.now = now }
}

// WithWait replaces the settle delay timer.
func WithWait(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(e *Extractor) { e.wait = fn }
}

// NewExtractor creates an Extractor for cafeID.
func NewExtractor(cfg config.RankingConfig, cafeID string, logger *slog.Logger, opts ...Option) (*Extractor, error) {
	loc, err := NewLocator(cfg.SelectorType, cfg.PayloadSelector)
	if err != nil {
		return nil, err
	}

	e := &Extractor{
		cfg:      cfg,
		cafeID:   cafeID,
		locator:  loc,
		pipeline: pipeline.Default(cfg, logger),
		wait:     settle,
		now:      time.Now,
		logger:   logger.With("component", "ranking"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Limit returns the row cap for metric.
func (e *Extractor) Limit(metric types.Metric) int {
	if metric == types.MetricComments {
		return e.cfg.CommentLimit
	}
	return e.cfg.PostLimit
}

// Fetch navigates page to the ranking for metric and returns its rows.
// A nil start selects DefaultStartDate. Any failure is logged and yields an
// empty, non-nil slice.
func (e *Extractor) Fetch(ctx context.Context, page browser.Page, metric types.Metric, start *time.Time) []types.RankingRow {
	date := DefaultStartDate(e.now())
	if start != nil {
		date = *start
	}
	target := StatURL(e.cfg.StatBaseURL, e.cafeID, metric, date)

	e.logger.Info("fetching rankings", "metric", metric, "start", date.Format(dateLayout))

	rows, err := e.fetch(ctx, page, metric, target)
	if err != nil {
		e.logger.Warn("ranking extraction failed", "error", err)
		e.metrics.ExtractionFailed(string(metric))
		return []types.RankingRow{}
	}

	e.metrics.Rows(string(metric), len(rows))
	e.logger.Info("rankings extracted", "metric", metric, "rows", len(rows))
	return rows
}

func (e *Extractor) fetch(ctx context.Context, page browser.Page, metric types.Metric, target string) ([]types.RankingRow, error) {
	wrap := func(err error) error {
		return &types.ExtractionError{URL: target, Metric: metric, Err: err}
	}

	if err := page.Navigate(ctx, target); err != nil {
		return nil, wrap(err)
	}
	if err := e.wait(ctx, e.cfg.SettleDelay); err != nil {
		return nil, wrap(err)
	}

	html, err := page.HTML(ctx)
	if err != nil {
		return nil, wrap(err)
	}
	payload, err := e.locator.Locate(html)
	if err != nil {
		return nil, wrap(err)
	}

	rows, skipped, err := Parse([]byte(payload), metric, e.Limit(metric), e.pipeline)
	if err != nil {
		return nil, wrap(err)
	}
	for _, s := range skipped {
		e.logger.Debug("row skipped", "metric", metric, "error", s)
	}
	return rows, nil
}

func settle(ctx context.Context, d time.Duration) error {
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
