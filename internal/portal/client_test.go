package portal

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IshaanNene/cafepulse/internal/config"
	"github.com/IshaanNene/cafepulse/internal/observability"
	"github.com/IshaanNene/cafepulse/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

var fixedNow = time.Date(2026, time.March, 3, 9, 0, 0, 0, time.UTC)

func listBody(names ...string) string {
	var parts []string
	for _, n := range names {
		parts = append(parts, fmt.Sprintf(`{"articleId":1,"writerNickname":%q}`, n))
	}
	return `{"message":{"status":"200","result":{"articleList":[` + strings.Join(parts, ",") + `]}}}`
}

func newTestClient(srvURL string) *Client {
	cfg := config.DefaultConfig().Portal
	cfg.ListURL = srvURL + "/cafe-web/cafe2/ArticleListV2dot1.json"
	return NewClient(cfg, testLogger, WithClock(func() time.Time { return fixedNow }))
}

func TestHarvestDedupesAndStopsAtLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "30169141", q.Get("search.clubid"))
		assert.Equal(t, "lastArticle", q.Get("search.queryType"))
		assert.Equal(t, "1", q.Get("search.page"))
		assert.Equal(t, "50", q.Get("search.perPage"))
		assert.Contains(t, r.Header.Get("User-Agent"), "Chrome")

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		fmt.Fprint(w, listBody("하늘", "바다", "하늘", "", "산", "바다", "강", "들", "숲"))
	}))
	defer srv.Close()

	entry, err := newTestClient(srv.URL).Harvest(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"하늘", "바다", "산", "강", "들"}, entry.Nicknames)
	assert.Equal(t, 5, entry.Count)
	assert.Equal(t, fixedNow, entry.CollectedAt)
}

func TestHarvestFewerThanLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, listBody("a", "a", "b"))
	}))
	defer srv.Close()

	entry, err := newTestClient(srv.URL).Harvest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, entry.Nicknames)
	assert.Equal(t, 2, entry.Count)
}

func TestHarvestDecodesCompressedBodies(t *testing.T) {
	body := listBody("gzip-user", "br-user")

	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	_, _ = gw.Write([]byte(body))
	_ = gw.Close()

	var br bytes.Buffer
	bw := brotli.NewWriter(&br)
	_, _ = bw.Write([]byte(body))
	_ = bw.Close()

	for enc, payload := range map[string][]byte{"gzip": gz.Bytes(), "br": br.Bytes()} {
		t.Run(enc, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "gzip, deflate, br", r.Header.Get("Accept-Encoding"))
				w.Header().Set("Content-Encoding", enc)
				_, _ = w.Write(payload)
			}))
			defer srv.Close()

			entry, err := newTestClient(srv.URL).Harvest(context.Background())
			require.NoError(t, err)
			assert.Equal(t, []string{"gzip-user", "br-user"}, entry.Nicknames)
		})
	}
}

type closeTracker struct {
	io.Reader
	closed bool
}

func (c *closeTracker) Close() error {
	c.closed = true
	return nil
}

func TestDecompressReaderReturnsCloser(t *testing.T) {
	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	_, _ = gw.Write([]byte("payload"))
	_ = gw.Close()

	for _, enc := range []string{"gzip", "deflate", "br", ""} {
		t.Run("encoding="+enc, func(t *testing.T) {
			resp := &http.Response{Header: http.Header{}}
			resp.Header.Set("Content-Encoding", enc)

			var src io.Reader = strings.NewReader("")
			if enc == "gzip" {
				src = bytes.NewReader(gz.Bytes())
			}
			body := &closeTracker{Reader: src}

			rc, err := decompressReader(resp, body)
			require.NoError(t, err)
			require.NotNil(t, rc)
			assert.NoError(t, rc.Close())
			assert.False(t, body.closed, "closing the decoder must leave the response body to its owner")
		})
	}
}

func TestHarvestFailures(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantStatus int
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			},
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name: "malformed json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"message":`)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "corrupt gzip header",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Encoding", "gzip")
				fmt.Fprint(w, "not gzip at all")
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "truncated gzip stream",
			handler: func(w http.ResponseWriter, r *http.Request) {
				var gz bytes.Buffer
				gw := gzip.NewWriter(&gz)
				_, _ = gw.Write([]byte(listBody("a", "b", "c")))
				_ = gw.Close()
				w.Header().Set("Content-Encoding", "gzip")
				_, _ = w.Write(gz.Bytes()[:gz.Len()/2])
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "html instead of json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `<html><body>blocked</body></html>`)
			},
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			metrics := observability.NewMetrics()
			c := newTestClient(srv.URL)
			c.metrics = metrics

			entry, err := c.Harvest(context.Background())
			require.Error(t, err)
			assert.Empty(t, entry.Nicknames)

			var hErr *types.HarvestError
			require.ErrorAs(t, err, &hErr)
			assert.Equal(t, tt.wantStatus, hErr.StatusCode)
			assert.Contains(t, hErr.URL, "search.clubid=30169141")
		})
	}
}

func TestHarvestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	_, err := newTestClient(srv.URL).Harvest(context.Background())
	var hErr *types.HarvestError
	require.ErrorAs(t, err, &hErr)
	assert.Zero(t, hErr.StatusCode)
}

func TestHarvestEmptyList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"message":{"result":{}}}`)
	}))
	defer srv.Close()

	entry, err := newTestClient(srv.URL).Harvest(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entry.Nicknames)
	assert.Equal(t, 0, entry.Count)
}
