package stream_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"cryptointel/config"
	"cryptointel/database"
	"cryptointel/market"
	"cryptointel/setup"
	"cryptointel/stream"
)

func TestRunEmitsEachFeedbackOnce(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Database.Path = filepath.Join(dir, "stream.db")
	cfg.Audit.LogPath = filepath.Join(dir, "decisions.log")
	cfg.Simulation.Feedback = true
	cfg.Agents.Hunter.Watchlist = []string{"BTC"}

	src := market.NewStatic(market.Snapshot{
		Symbol:         "BTC",
		Price:          70000,
		PriceChange24h: 6,
		Volume24h:      3e10,
		AvgVolume:      1e10,
		Volatility:     0.03,
		At:             time.Now(),
	})

	sys, err := setup.Initialize(context.Background(), cfg, zaptest.NewLogger(t), setup.WithSource(src))
	require.NoError(t, err)
	defer sys.Cleanup()

	events := collectAll(stream.NewRunner(sys, time.Millisecond, 2, nil).Run(context.Background()))

	seen := map[int64]int{}
	for _, e := range events {
		require.NotEqual(t, stream.EventError, e.Type, e.Message)
		if e.Type != stream.EventFeedback {
			continue
		}
		fb, ok := e.Payload.(database.Feedback)
		require.True(t, ok)
		seen[fb.ID]++
	}

	stats, err := sys.Store.Stats(context.Background())
	require.NoError(t, err)
	require.NotZero(t, stats.Feedback)
	assert.Len(t, seen, stats.Feedback)
	for id, n := range seen {
		assert.Equal(t, 1, n, "feedback %d emitted %d times", id, n)
	}
}

func collectAll(ch <-chan stream.Event) []stream.Event {
	var out []stream.Event
	for e := range ch {
		out = append(out, e)
	}
	return out
}
