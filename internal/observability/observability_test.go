package observability

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IshaanNene/cafepulse/internal/config"
)

func TestMetricsCountersAndHandler(t *testing.T) {
	m := NewMetrics()
	m.Acquisition("local", "ok")
	m.Acquisition("remote", "failed")
	m.Handshake("success")
	m.Rows("posts", 5)
	m.Harvest("ok")
	m.Run("completed", 3*time.Second)
	m.HistorySize(4)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.acquisitions.WithLabelValues("local", "ok")))
	assert.Equal(t, float64(5), testutil.ToFloat64(m.rows.WithLabelValues("posts")))
	assert.Equal(t, float64(4), testutil.ToFloat64(m.historySize))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "cafepulse_browser_acquisitions_total")
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.Acquisition("local", "ok")
	m.Run("failed", time.Second)
	assert.Nil(t, m.Registry())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 404, rec.Code)
}

func TestNewLoggerWritesToRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cafepulse.log")
	logger, closer := NewLogger(config.LoggingConfig{Level: "info", Format: "json", Output: path, MaxSizeMB: 1}, false)

	logger.Info("hello", "nick", "수산나")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.Contains(t, string(data), "수산나")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", parseLevel("debug").String())
	assert.Equal(t, "INFO", parseLevel("bogus").String())
}
