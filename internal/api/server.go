package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/IshaanNene/cafepulse/internal/config"
	"github.com/IshaanNene/cafepulse/internal/dashboard"
	"github.com/IshaanNene/cafepulse/internal/history"
	"github.com/IshaanNene/cafepulse/internal/observability"
	"github.com/IshaanNene/cafepulse/internal/orchestrator"
	"github.com/IshaanNene/cafepulse/internal/types"
)

// NicknameCollector runs one nickname harvest.
type NicknameCollector interface {
	CollectOnce(ctx context.Context) (types.NicknameEntry, error)
}

// RankingRunner runs one login and ranking extraction.
type RankingRunner interface {
	RunFrom(ctx context.Context, start *time.Time) orchestrator.Outcome
}

// Server exposes the collected data and the on-demand triggers over HTTP.
type Server struct {
	router    *chi.Mux
	cfg       *config.Config
	store     *history.Store
	collector NicknameCollector
	runner    RankingRunner
	metrics   *observability.Metrics
	logger    *slog.Logger
	started   time.Time
}

// NewServer creates a new API server.
func NewServer(cfg *config.Config, store *history.Store, collector NicknameCollector,
	runner RankingRunner, metrics *observability.Metrics, logger *slog.Logger) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		cfg:       cfg,
		store:     store,
		collector: collector,
		runner:    runner,
		metrics:   metrics,
		logger:    logger.With("component", "api_server"),
		started:   time.Now(),
	}

	s.registerRoutes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("API server starting", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("API server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	if s.cfg.Server.Dashboard {
		r.Get("/", dashboard.Handler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/status", s.handleStatus)
		r.Get("/history", s.handleHistory)
		r.Get("/rankings", s.handleRankings)

		// Triggers also answer GET so they can be opened from a browser.
		r.Get("/collect", s.handleCollect)
		r.Post("/collect", s.handleCollect)
		r.Get("/rankings/refresh", s.handleRefresh)
		r.Post("/rankings/refresh", s.handleRefresh)
	})

	if s.cfg.Metrics.Enabled {
		r.Handle(s.cfg.Metrics.Path, s.metrics.Handler())
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": config.Version,
		"uptime":  time.Since(s.started).Round(time.Second).String(),
		"history": s.store.Len(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	v := s.store.View()
	latest, _ := v.Latest()

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"latest":   latest,
		"rankings": v.Rankings,
		"runs":     v.Runs,
		"history":  len(v.Nicknames),
		"config": map[string]any{
			"cafe_id":                s.cfg.Portal.CafeID,
			"interval":               s.cfg.Collector.Interval.String(),
			"remote_configured":      s.cfg.Remote.Configured(),
			"credentials_configured": s.cfg.Auth.Configured(),
			"disabled":               s.cfg.Disabled,
		},
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	v := s.store.View()
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"history":  v.Nicknames,
		"count":    len(v.Nicknames),
		"capacity": s.store.Capacity(),
	})
}

func (s *Server) handleRankings(w http.ResponseWriter, r *http.Request) {
	snap := s.store.View().Rankings
	if snap.IsZero() {
		s.jsonResponse(w, http.StatusOK, map[string]any{"status": "empty", "data": nil})
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"status": "ok", "data": snap})
}

func (s *Server) handleCollect(w http.ResponseWriter, r *http.Request) {
	entry, err := s.collector.CollectOnce(r.Context())
	switch {
	case errors.Is(err, types.ErrDisabled):
		s.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "disabled", "cause": err.Error()})
	case err != nil:
		s.jsonResponse(w, http.StatusBadGateway, map[string]string{"status": "failed", "cause": "nickname listing could not be read"})
	default:
		s.jsonResponse(w, http.StatusOK, map[string]any{"status": "completed", "data": entry})
	}
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var start *time.Time
	if raw := r.URL.Query().Get("start"); raw != "" {
		t, err := time.ParseInLocation("2006-01-02", raw, time.Local)
		if err != nil {
			s.jsonResponse(w, http.StatusBadRequest, map[string]string{"error": "start must be YYYY-MM-DD"})
			return
		}
		start = &t
	}

	out := s.runner.RunFrom(r.Context(), start)
	s.jsonResponse(w, outcomeStatus(out.Status), out)
}

func outcomeStatus(st orchestrator.Status) int {
	switch st {
	case orchestrator.StatusCompleted:
		return http.StatusOK
	case orchestrator.StatusNotConfigured, orchestrator.StatusDisabled:
		return http.StatusServiceUnavailable
	case orchestrator.StatusAuthFailed, orchestrator.StatusAuthTimeout, orchestrator.StatusAcquisitionFailed:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		s.logger.Debug("write response failed", "error", err)
	}
}
