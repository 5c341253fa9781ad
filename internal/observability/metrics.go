package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cafepulse"

// Metrics tracks operational metrics for collection runs. A nil *Metrics is
// valid and records nothing, so components can be built without metrics in
// tests.
type Metrics struct {
	registry *prometheus.Registry

	acquisitions *prometheus.CounterVec
	handshakes   *prometheus.CounterVec
	rows         *prometheus.CounterVec
	extractFails *prometheus.CounterVec
	harvests     *prometheus.CounterVec
	runs         *prometheus.CounterVec
	runDuration  prometheus.Histogram
	historySize  prometheus.Gauge
}

// NewMetrics creates a Metrics instance backed by its own registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		acquisitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "browser_acquisitions_total",
			Help:      "Browser session acquisitions by execution mode and outcome.",
		}, []string{"mode", "outcome"}),
		handshakes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_handshakes_total",
			Help:      "Login handshakes by result.",
		}, []string{"result"}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ranking_rows_total",
			Help:      "Ranking rows emitted by metric.",
		}, []string{"metric"}),
		extractFails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ranking_extraction_failures_total",
			Help:      "Statistics documents that were missing or malformed.",
		}, []string{"metric"}),
		harvests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nickname_harvests_total",
			Help:      "Nickname harvests by outcome.",
		}, []string{"outcome"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ranking_runs_total",
			Help:      "On-demand ranking runs by status.",
		}, []string{"status"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ranking_run_duration_seconds",
			Help:      "Wall time of on-demand ranking runs.",
			Buckets:   []float64{5, 10, 20, 40, 60, 90, 120, 180},
		}),
		historySize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "nickname_history_entries",
			Help:      "Entries currently held in the nickname history.",
		}),
	}

	reg.MustRegister(
		m.acquisitions, m.handshakes, m.rows, m.extractFails,
		m.harvests, m.runs, m.runDuration, m.historySize,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves metrics in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry (for tests and extra collectors).
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Acquisition(mode, outcome string) {
	if m == nil {
		return
	}
	m.acquisitions.WithLabelValues(mode, outcome).Inc()
}

func (m *Metrics) Handshake(result string) {
	if m == nil {
		return
	}
	m.handshakes.WithLabelValues(result).Inc()
}

func (m *Metrics) Rows(metric string, n int) {
	if m == nil {
		return
	}
	m.rows.WithLabelValues(metric).Add(float64(n))
}

func (m *Metrics) ExtractionFailed(metric string) {
	if m == nil {
		return
	}
	m.extractFails.WithLabelValues(metric).Inc()
}

func (m *Metrics) Harvest(outcome string) {
	if m == nil {
		return
	}
	m.harvests.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Run(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(status).Inc()
	m.runDuration.Observe(d.Seconds())
}

func (m *Metrics) HistorySize(n int) {
	if m == nil {
		return
	}
	m.historySize.Set(float64(n))
}
