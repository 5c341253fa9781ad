package auth

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IshaanNene/cafepulse/internal/config"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

const (
	loginURL     = "https://nid.naver.com/nidlogin.login"
	challengeURL = "https://nid.naver.com/login/ext/deviceConfirm"
	homeURL      = "https://www.naver.com/"
)

// scriptedPage returns urls in order from URL, repeating the last one.
type scriptedPage struct {
	urls     []string
	urlCalls int
	waitErr  error
	filled   map[string]string
	clicked  []string
	visited  []string
}

func (p *scriptedPage) Navigate(_ context.Context, u string) error {
	p.visited = append(p.visited, u)
	return nil
}

func (p *scriptedPage) WaitElement(context.Context, string, time.Duration) error { return p.waitErr }

func (p *scriptedPage) Fill(_ context.Context, sel, v string) error {
	if p.filled == nil {
		p.filled = map[string]string{}
	}
	p.filled[sel] = v
	return nil
}

func (p *scriptedPage) Click(_ context.Context, sel string) error {
	p.clicked = append(p.clicked, sel)
	return nil
}

func (p *scriptedPage) URL(context.Context) (string, error) {
	i := p.urlCalls
	if i >= len(p.urls) {
		i = len(p.urls) - 1
	}
	p.urlCalls++
	return p.urls[i], nil
}

func (p *scriptedPage) HTML(context.Context) (string, error) { return "", nil }
func (p *scriptedPage) Close() error                         { return nil }

type waitRecorder struct {
	calls []time.Duration
}

func (w *waitRecorder) wait(ctx context.Context, d time.Duration) error {
	w.calls = append(w.calls, d)
	return ctx.Err()
}

func (w *waitRecorder) polls(interval time.Duration) int {
	n := 0
	for _, d := range w.calls {
		if d == interval {
			n++
		}
	}
	return n
}

func testConfig(limit int) config.AuthConfig {
	cfg := config.DefaultConfig().Auth
	cfg.PollLimit = limit
	// Distinct durations so the recorder can tell polls from pauses.
	cfg.TypePause = time.Second
	cfg.SubmitPause = 3 * time.Second
	cfg.PollInterval = 2 * time.Second
	return cfg
}

var creds = Credentials{Username: "alice", Password: "hunter2"}

func TestLoginSuccessWithoutChallenge(t *testing.T) {
	rec := &waitRecorder{}
	page := &scriptedPage{urls: []string{homeURL}}

	h := New(testConfig(30), testLogger, WithWait(rec.wait))
	result, err := h.Login(context.Background(), page, creds)
	require.NoError(t, err)

	assert.Equal(t, Success, result)
	assert.Equal(t, []string{loginURL}, page.visited)
	assert.Equal(t, "alice", page.filled["#id"])
	assert.Equal(t, "hunter2", page.filled["#pw"])
	assert.Equal(t, []string{`#log\.login`}, page.clicked)
	assert.Equal(t, 0, rec.polls(2*time.Second))
}

func TestLoginTimesOutAfterExactlyNPolls(t *testing.T) {
	for _, limit := range []int{1, 3, 30} {
		rec := &waitRecorder{}
		page := &scriptedPage{urls: []string{challengeURL}}

		h := New(testConfig(limit), testLogger, WithWait(rec.wait))
		result, err := h.Login(context.Background(), page, creds)
		require.NoError(t, err)

		assert.Equal(t, Timeout, result, "limit %d", limit)
		assert.Equal(t, limit, rec.polls(2*time.Second), "limit %d", limit)
		// One read after submit plus one per poll.
		assert.Equal(t, limit+1, page.urlCalls, "limit %d", limit)
	}
}

func TestLoginExitsAtFirstClearPoll(t *testing.T) {
	rec := &waitRecorder{}
	page := &scriptedPage{urls: []string{
		challengeURL, // after submit
		challengeURL, // poll 1
		challengeURL, // poll 2
		homeURL,      // poll 3
	}}

	h := New(testConfig(30), testLogger, WithWait(rec.wait))
	result, err := h.Login(context.Background(), page, creds)
	require.NoError(t, err)

	assert.Equal(t, Success, result)
	assert.Equal(t, 3, rec.polls(2*time.Second))
	assert.Equal(t, 4, page.urlCalls)
}

func TestLoginFailureOffTargetDomain(t *testing.T) {
	page := &scriptedPage{urls: []string{"https://example.com/welcome"}}
	h := New(testConfig(30), testLogger, WithWait((&waitRecorder{}).wait))

	result, err := h.Login(context.Background(), page, creds)
	require.NoError(t, err)
	assert.Equal(t, Failure, result)
}

func TestLoginFailureWhenChallengeClearsElsewhere(t *testing.T) {
	page := &scriptedPage{urls: []string{challengeURL, "https://phishy.example/"}}
	h := New(testConfig(30), testLogger, WithWait((&waitRecorder{}).wait))

	result, err := h.Login(context.Background(), page, creds)
	require.NoError(t, err)
	assert.Equal(t, Failure, result)
}

func TestLoginFormLoadError(t *testing.T) {
	page := &scriptedPage{urls: []string{homeURL}, waitErr: context.DeadlineExceeded}
	h := New(testConfig(30), testLogger, WithWait((&waitRecorder{}).wait))

	result, err := h.Login(context.Background(), page, creds)
	require.Error(t, err)
	assert.Equal(t, Failure, result)

	var formErr *FormLoadError
	require.ErrorAs(t, err, &formErr)
	assert.Equal(t, loginURL, formErr.URL)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, page.filled)
}

func TestLoginAbortsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	polls := 0
	wait := func(ctx context.Context, d time.Duration) error {
		if d == 2*time.Second {
			polls++
			if polls == 2 {
				cancel()
			}
		}
		return ctx.Err()
	}

	page := &scriptedPage{urls: []string{challengeURL}}
	h := New(testConfig(30), testLogger, WithWait(wait))

	result, err := h.Login(ctx, page, creds)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, Failure, result)
	assert.Equal(t, 2, polls)
}

func TestMarkersAndDomain(t *testing.T) {
	h := New(testConfig(30), testLogger)

	assert.True(t, h.hasMarker(loginURL))
	assert.True(t, h.hasMarker("https://nid.naver.com/user2/help/auth"))
	assert.False(t, h.hasMarker(homeURL))

	assert.True(t, h.onTargetDomain(homeURL))
	assert.True(t, h.onTargetDomain("https://naver.com"))
	assert.False(t, h.onTargetDomain("https://notnaver.com/"))
	assert.False(t, h.onTargetDomain("https://example.com/?next=naver.com"))
}

func TestSleepHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := sleep(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)

	assert.NoError(t, sleep(context.Background(), time.Millisecond))
}
