// Package portal reads the community's public article list to collect the
// nicknames of recent authors.
package portal

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/IshaanNene/cafepulse/internal/config"
	"github.com/IshaanNene/cafepulse/internal/observability"
	"github.com/IshaanNene/cafepulse/internal/types"
)

// articleList is the part of the listing response the client reads.
type articleList struct {
	Message struct {
		Result struct {
			ArticleList []struct {
				WriterNickname string `json:"writerNickname"`
			} `json:"articleList"`
		} `json:"result"`
	} `json:"message"`
}

// Client calls the public article listing endpoint.
type Client struct {
	client  *http.Client
	cfg     config.PortalConfig
	now     func() time.Time
	logger  *slog.Logger
	metrics *observability.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithMetrics records harvest outcomes.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithClock replaces the clock used to stamp entries.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient creates a portal client.
func NewClient(cfg config.PortalConfig, logger *slog.Logger, opts ...Option) *Client {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        4,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		DisableCompression:  true, // decoded in decompressReader, brotli included
	}

	c := &Client{
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		cfg:    cfg,
		now:    time.Now,
		logger: logger.With("component", "portal"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListURL returns the article list URL for the configured cafe.
func (c *Client) ListURL() string {
	q := url.Values{}
	q.Set("search.clubid", c.cfg.CafeID)
	q.Set("search.queryType", "lastArticle")
	q.Set("search.page", "1")
	q.Set("search.perPage", strconv.Itoa(c.cfg.PageSize))
	return c.cfg.ListURL + "?" + q.Encode()
}

// Harvest fetches the latest articles and returns up to the configured
// number of distinct author nicknames, in list order. Any failure is
// returned as *types.HarvestError.
func (c *Client) Harvest(ctx context.Context) (types.NicknameEntry, error) {
	entry, err := c.harvest(ctx)
	if err != nil {
		c.metrics.Harvest("failed")
		c.logger.Warn("nickname harvest failed", "error", err)
		return types.NicknameEntry{}, err
	}
	c.metrics.Harvest("ok")
	c.logger.Info("nicknames collected", "count", entry.Count, "nicknames", entry.Nicknames)
	return entry, nil
}

func (c *Client) harvest(ctx context.Context) (types.NicknameEntry, error) {
	target := c.ListURL()
	fail := func(status int, err error) (types.NicknameEntry, error) {
		return types.NicknameEntry{}, &types.HarvestError{URL: target, StatusCode: status, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fail(0, err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", "ko-KR,ko;q=0.9,en-US;q=0.8")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")

	resp, err := c.client.Do(req)
	if err != nil {
		return fail(0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
		return fail(resp.StatusCode, fmt.Errorf("unexpected status %s", resp.Status))
	}

	decoded, err := decompressReader(resp, resp.Body)
	if err != nil {
		return fail(resp.StatusCode, err)
	}
	defer decoded.Close()

	var reader io.Reader = decoded
	if c.cfg.MaxBodySize > 0 {
		reader = io.LimitReader(reader, c.cfg.MaxBodySize)
	}

	var list articleList
	if err := json.NewDecoder(reader).Decode(&list); err != nil {
		return fail(resp.StatusCode, fmt.Errorf("decode article list: %w", err))
	}

	return types.NewNicknameEntry(firstUnique(list, c.cfg.NicknameLimit), c.now()), nil
}

// firstUnique walks the list in order and stops once limit distinct
// non-empty nicknames are collected.
func firstUnique(list articleList, limit int) []string {
	seen := make(map[string]struct{}, limit)
	out := make([]string, 0, limit)
	for _, a := range list.Message.Result.ArticleList {
		if len(out) >= limit {
			break
		}
		n := a.WriterNickname
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// decompressReader wraps a reader with the decoder for the response's
// Content-Encoding. Closing the result releases the decoder, not reader.
func decompressReader(resp *http.Response, reader io.Reader) (io.ReadCloser, error) {
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		return gzip.NewReader(reader)
	case "deflate":
		return flate.NewReader(reader), nil
	case "br":
		return io.NopCloser(brotli.NewReader(reader)), nil
	default:
		return io.NopCloser(reader), nil
	}
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
