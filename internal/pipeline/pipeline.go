package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/IshaanNene/cafepulse/internal/config"
	"github.com/IshaanNene/cafepulse/internal/types"
)

// Middleware inspects a ranking row and returns the row to keep.
// Return nil to drop the row from the pipeline.
type Middleware interface {
	// Name returns the middleware's identifier.
	Name() string

	// Process examines a row. Return nil to drop it. Middlewares that
	// change a row return a new value and leave the input untouched.
	Process(row *types.RankingRow) (*types.RankingRow, error)
}

// Pipeline chains middleware processors together.
type Pipeline struct {
	middlewares []Middleware
	logger      *slog.Logger
}

// New creates a new Pipeline.
func New(logger *slog.Logger) *Pipeline {
	return &Pipeline{
		logger: logger.With("component", "pipeline"),
	}
}

// Default builds the row filter chain the ranking extractor runs: require a
// nickname, then the configured exact-match exclusions. Rows pass through
// unmodified.
func Default(cfg config.RankingConfig, logger *slog.Logger) *Pipeline {
	p := New(logger)
	p.Use(&RequireNickname{})
	p.Use(NewBlockedNames(cfg.BlockedNames))
	p.Use(NewBlockedLevels(cfg.BlockedLevels))
	return p
}

// Use adds a middleware to the pipeline chain.
func (p *Pipeline) Use(mw Middleware) {
	p.middlewares = append(p.middlewares, mw)
	p.logger.Debug("middleware added", "name", mw.Name(), "position", len(p.middlewares))
}

// Process runs the row through all middleware in order. A nil row with a
// nil error means it was dropped.
func (p *Pipeline) Process(row *types.RankingRow) (*types.RankingRow, error) {
	current := row

	for _, mw := range p.middlewares {
		result, err := mw.Process(current)
		if err != nil {
			return nil, fmt.Errorf("stage %s: %w", mw.Name(), err)
		}
		if result == nil {
			p.logger.Debug("row dropped", "stage", mw.Name(), "member", row.MemberID)
			return nil, nil
		}
		current = result
	}

	return current, nil
}

// Len returns the number of middleware in the chain.
func (p *Pipeline) Len() int {
	return len(p.middlewares)
}
