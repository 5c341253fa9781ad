// Package collector runs the nickname harvest on a fixed cadence.
package collector

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/IshaanNene/cafepulse/internal/config"
	"github.com/IshaanNene/cafepulse/internal/history"
	"github.com/IshaanNene/cafepulse/internal/types"
)

// Harvester produces one nickname entry per call.
type Harvester interface {
	Harvest(ctx context.Context) (types.NicknameEntry, error)
}

// Collector appends a nickname entry to the history on every tick.
type Collector struct {
	harvester  Harvester
	store      *history.Store
	interval   time.Duration
	runOnStart bool
	disabled   bool
	now        func() time.Time
	logger     *slog.Logger
}

// New creates a Collector.
func New(cfg *config.Config, harvester Harvester, store *history.Store, logger *slog.Logger) *Collector {
	return &Collector{
		harvester:  harvester,
		store:      store,
		interval:   cfg.Collector.Interval,
		runOnStart: cfg.Collector.RunOnStart,
		disabled:   cfg.Disabled,
		now:        time.Now,
		logger:     logger.With("component", "collector"),
	}
}

// Run collects once at start when configured, then on every interval
// until ctx is cancelled. Harvest failures are logged and do not stop the
// loop.
func (c *Collector) Run(ctx context.Context) error {
	c.logger.Info("collector started", "interval", c.interval, "run_on_start", c.runOnStart)

	if c.runOnStart {
		c.tick(ctx)
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("collector stopped")
			return nil
		case <-ticker.C:
			c.tick(ctx)
		}
	}
}

func (c *Collector) tick(ctx context.Context) {
	if _, err := c.CollectOnce(ctx); err != nil && ctx.Err() == nil {
		c.logger.Debug("scheduled collection skipped", "error", err)
	}
}

// CollectOnce runs one harvest and stores the entry on success. It returns
// types.ErrDisabled without calling the portal when collection is disabled.
func (c *Collector) CollectOnce(ctx context.Context) (types.NicknameEntry, error) {
	if c.disabled {
		return types.NicknameEntry{}, types.ErrDisabled
	}

	rec := history.RunRecord{RunID: uuid.NewString(), StartedAt: c.now()}
	logger := c.logger.With("run", rec.RunID)

	entry, err := c.harvester.Harvest(ctx)
	rec.FinishedAt = c.now()
	rec.Duration = rec.FinishedAt.Sub(rec.StartedAt)

	if err != nil {
		rec.Status = "failed"
		rec.Cause = err.Error()
		c.store.RecordRun(history.JobNicknames, rec)
		logger.Warn("nickname collection failed", "error", err)
		return types.NicknameEntry{}, err
	}

	rec.Status = "completed"
	c.store.AppendNicknames(entry)
	c.store.RecordRun(history.JobNicknames, rec)
	logger.Info("nickname collection completed", "count", entry.Count)
	return entry, nil
}
