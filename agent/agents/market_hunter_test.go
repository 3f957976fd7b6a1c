package agents

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptointel/agent"
	"cryptointel/config"
	"cryptointel/database"
	"cryptointel/market"
)

func newTestHunter(t *testing.T, deps agent.Deps, watchlist ...string) *MarketHunter {
	t.Helper()
	src := market.NewStatic(bullSnapshot("BTC"), quietSnapshot("ETH"))
	return NewMarketHunter(deps, src, config.HunterConfig{
		Watchlist:     watchlist,
		MinConfidence: 0.6,
		WhaleFlow:     1e6,
		Concurrency:   2,
	})
}

func TestMarketHunterCanHandle(t *testing.T) {
	h := newTestHunter(t, newTestDeps(t), "BTC")

	assert.True(t, h.CanHandle(&agent.Task{Type: agent.TaskTypeHunt}))
	assert.False(t, h.CanHandle(&agent.Task{Type: agent.TaskTypeOptimize}))
	assert.Equal(t, agent.RoleHunter, h.Role())
}

func TestMarketHunterExecute(t *testing.T) {
	deps := newTestDeps(t)
	h := newTestHunter(t, deps, "BTC", "ETH", "DOGE")
	ctx := context.Background()

	res, err := h.Execute(ctx, &agent.Task{ID: "t1", Type: agent.TaskTypeHunt, Cycle: 1})
	require.NoError(t, err)
	assert.True(t, res.Success)

	assert.Len(t, res.Market, 2, "unknown symbols are skipped")
	require.Len(t, res.Discoveries, 2)
	require.Len(t, res.Suggestions, 2)

	for i, sg := range res.Suggestions {
		assert.Equal(t, MarketHunterName, sg.AgentID)
		assert.Equal(t, database.SuggestionAlphaOpportunity, sg.Type)
		assert.Equal(t, res.Discoveries[i].ID, sg.Data["discovery_id"])
		assert.Equal(t, "BTC", sg.Data["symbol"])
	}

	stored, err := deps.Store.ListAlphaDiscoveries(ctx, database.DiscoveryFilter{Symbol: "BTC"})
	require.NoError(t, err)
	assert.Len(t, stored, 2)

	pending, err := deps.Store.ListSuggestions(ctx, database.SuggestionFilter{Status: database.SuggestionPending})
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	assert.Equal(t, 1.0, testutil.ToFloat64(deps.Metrics.Discoveries.WithLabelValues(string(database.DiscoveryMomentum))))
	assert.Equal(t, 2.0, testutil.ToFloat64(deps.Metrics.Suggestions.WithLabelValues(MarketHunterName, database.SuggestionAlphaOpportunity)))

	records, err := deps.Store.ListPerformance(ctx, MarketHunterName, database.MetricDiscoveries, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 2.0, records[0].Value)
}

func TestMarketHunterRespectsThreshold(t *testing.T) {
	deps := newTestDeps(t)
	h := newTestHunter(t, deps, "BTC")

	th := deps.Thresholds.Get(MarketHunterName)
	th.Value = 0.75
	deps.Thresholds.Set(MarketHunterName, th)

	res, err := h.Execute(context.Background(), &agent.Task{Type: agent.TaskTypeHunt})
	require.NoError(t, err)

	assert.Len(t, res.Discoveries, 2, "every discovery is logged")
	require.Len(t, res.Suggestions, 1)
	assert.Equal(t, string(database.DiscoveryMomentum), res.Suggestions[0].Data["kind"])
}

func TestMarketHunterNoData(t *testing.T) {
	h := newTestHunter(t, newTestDeps(t), "DOGE", "PEPE")

	res, err := h.Execute(context.Background(), &agent.Task{Type: agent.TaskTypeHunt})
	require.Error(t, err)
	assert.ErrorIs(t, err, market.ErrUnknownSymbol)
	assert.False(t, res.Success)
}

func TestMarketHunterConcurrentScanIsReproducible(t *testing.T) {
	watchlist := []string{"BTC", "ETH", "SOL", "AVAX", "LINK", "DOT", "ADA"}

	scan := func() [][]market.Snapshot {
		h := NewMarketHunter(newTestDeps(t), market.NewSimulated(42), config.HunterConfig{
			Watchlist:     watchlist,
			MinConfidence: 0.6,
			WhaleFlow:     1e6,
			Concurrency:   4,
		})
		var cycles [][]market.Snapshot
		for i := 1; i <= 3; i++ {
			res, err := h.Execute(context.Background(), &agent.Task{ID: "scan", Type: agent.TaskTypeHunt, Cycle: i})
			require.NoError(t, err)
			require.Len(t, res.Market, len(watchlist))
			for j := range res.Market {
				res.Market[j].At = time.Time{}
			}
			cycles = append(cycles, res.Market)
		}
		return cycles
	}

	assert.Equal(t, scan(), scan())
}
