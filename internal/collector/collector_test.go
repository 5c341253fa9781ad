package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/IshaanNene/cafepulse/internal/config"
	"github.com/IshaanNene/cafepulse/internal/history"
	"github.com/IshaanNene/cafepulse/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

type fakeHarvester struct {
	calls atomic.Int32
	err   error
}

func (f *fakeHarvester) Harvest(context.Context) (types.NicknameEntry, error) {
	n := f.calls.Add(1)
	if f.err != nil {
		return types.NicknameEntry{}, f.err
	}
	return types.NewNicknameEntry([]string{fmt.Sprintf("user%d", n)}, time.Now()), nil
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Collector.Interval = 10 * time.Millisecond
	return cfg
}

func TestCollectOnceStoresEntry(t *testing.T) {
	store := history.NewStore(history.DefaultCapacity, testLogger, nil)
	h := &fakeHarvester{}
	c := New(testConfig(), h, store, testLogger)

	entry, err := c.CollectOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"user1"}, entry.Nicknames)

	v := store.View()
	require.Len(t, v.Nicknames, 1)
	run := v.Runs[history.JobNicknames]
	assert.Equal(t, "completed", run.Status)
	assert.NotEmpty(t, run.RunID)
}

func TestCollectOnceFailureStoresNothing(t *testing.T) {
	store := history.NewStore(history.DefaultCapacity, testLogger, nil)
	h := &fakeHarvester{err: &types.HarvestError{URL: "x", StatusCode: 503, Err: errors.New("unavailable")}}
	c := New(testConfig(), h, store, testLogger)

	_, err := c.CollectOnce(context.Background())
	require.Error(t, err)

	v := store.View()
	assert.Empty(t, v.Nicknames)
	assert.Equal(t, "failed", v.Runs[history.JobNicknames].Status)
	assert.Contains(t, v.Runs[history.JobNicknames].Cause, "503")
}

func TestCollectOnceDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Disabled = true
	h := &fakeHarvester{}
	c := New(cfg, h, history.NewStore(0, testLogger, nil), testLogger)

	_, err := c.CollectOnce(context.Background())
	assert.ErrorIs(t, err, types.ErrDisabled)
	assert.Zero(t, h.calls.Load())
}

func TestRunCollectsUntilCancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := history.NewStore(history.DefaultCapacity, testLogger, nil)
	h := &fakeHarvester{}
	c := New(testConfig(), h, store, testLogger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	require.Eventually(t, func() bool { return h.calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("collector did not stop")
	}
	assert.GreaterOrEqual(t, store.Len(), 3)
}

func TestRunOnStart(t *testing.T) {
	defer goleak.VerifyNone(t)

	cfg := testConfig()
	cfg.Collector.Interval = time.Hour

	h := &fakeHarvester{}
	c := New(cfg, h, history.NewStore(0, testLogger, nil), testLogger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = c.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return h.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
	assert.Equal(t, int32(1), h.calls.Load())
}

func TestRunKeepsGoingAfterFailures(t *testing.T) {
	h := &fakeHarvester{err: errors.New("boom")}
	c := New(testConfig(), h, history.NewStore(0, testLogger, nil), testLogger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = c.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return h.calls.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	<-done
}
