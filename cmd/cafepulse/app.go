package main

import (
	"fmt"
	"log/slog"

	"github.com/IshaanNene/cafepulse/internal/api"
	"github.com/IshaanNene/cafepulse/internal/auth"
	"github.com/IshaanNene/cafepulse/internal/browser"
	"github.com/IshaanNene/cafepulse/internal/collector"
	"github.com/IshaanNene/cafepulse/internal/config"
	"github.com/IshaanNene/cafepulse/internal/history"
	"github.com/IshaanNene/cafepulse/internal/observability"
	"github.com/IshaanNene/cafepulse/internal/orchestrator"
	"github.com/IshaanNene/cafepulse/internal/portal"
	"github.com/IshaanNene/cafepulse/internal/ranking"
)

// app holds the wired components shared by the subcommands.
type app struct {
	store     *history.Store
	portal    *portal.Client
	collector *collector.Collector
	runner    *orchestrator.Runner
	server    *api.Server
}

func newApp(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (*app, error) {
	store := history.NewStore(cfg.Collector.History, logger, metrics)

	client := portal.NewClient(cfg.Portal, logger, portal.WithMetrics(metrics))

	extractor, err := ranking.NewExtractor(cfg.Ranking, cfg.Portal.CafeID, logger, ranking.WithMetrics(metrics))
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ranking extractor: %w", err)
	}

	sessions := browser.NewManager(cfg, logger, browser.WithMetrics(metrics))
	handshake := auth.New(cfg.Auth, logger, auth.WithMetrics(metrics))

	a := &app{
		store:     store,
		portal:    client,
		collector: collector.New(cfg, client, store, logger),
		runner:    orchestrator.New(cfg, sessions, handshake, extractor, store, logger, metrics),
	}
	a.server = api.NewServer(cfg, store, a.collector, a.runner, metrics, logger)
	return a, nil
}

func (a *app) close() {
	_ = a.portal.Close()
}
