package setup

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"cryptointel/agent"
	"cryptointel/agent/agents"
	"cryptointel/config"
	"cryptointel/core/audit"
	"cryptointel/database"
	"cryptointel/market"
)

func testConfig(t *testing.T, feedback bool) *config.Config {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.Database.Path = filepath.Join(dir, "agentic.db")
	cfg.Audit.LogPath = filepath.Join(dir, "decisions.log")
	cfg.Simulation.Feedback = feedback
	cfg.Agents.Hunter.Watchlist = []string{"BTC"}
	return cfg
}

func staticMarket() market.Source {
	return market.NewStatic(market.Snapshot{
		Symbol:         "BTC",
		Price:          70000,
		PriceChange24h: 6,
		Volume24h:      3e10,
		AvgVolume:      1e10,
		Volatility:     0.03,
		At:             time.Now(),
	})
}

func TestInitialize(t *testing.T) {
	sys, err := Initialize(context.Background(), testConfig(t, true), zaptest.NewLogger(t), WithSource(staticMarket()))
	require.NoError(t, err)
	defer sys.Cleanup()

	names := make([]string, 0)
	for _, a := range sys.Registry.List() {
		names = append(names, a.Name())
	}
	assert.ElementsMatch(t, []string{
		agents.MarketHunterName,
		agents.StrategicOrchestratorName,
		agents.FeedbackSimulatorName,
		agents.PerformanceOptimizerName,
	}, names)

	assert.Equal(t, 0.6, sys.Thresholds.Get(agents.MarketHunterName).Value)
	assert.Equal(t, 0.65, sys.Thresholds.Get(agents.StrategicOrchestratorName).Value)
	assert.NotNil(t, sys.Orchestrator.Goals())
	require.NoError(t, sys.Store.Ping(context.Background()))
}

func TestInitializeWithoutSimulatedFeedback(t *testing.T) {
	sys, err := Initialize(context.Background(), testConfig(t, false), nil, WithSource(staticMarket()))
	require.NoError(t, err)
	defer sys.Cleanup()

	_, err = sys.Registry.Get(agents.FeedbackSimulatorName)
	assert.Error(t, err)
	assert.Len(t, sys.Registry.List(), 3)
}

func TestInitializeRejectsNilConfig(t *testing.T) {
	_, err := Initialize(context.Background(), nil, nil)
	assert.Error(t, err)
}

func TestRunCycleEndToEnd(t *testing.T) {
	cfg := testConfig(t, true)
	sys, err := Initialize(context.Background(), cfg, zaptest.NewLogger(t), WithSource(staticMarket()))
	require.NoError(t, err)
	defer sys.Cleanup()

	ctx := context.Background()
	report, err := sys.RunCycle(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Cycle)
	assert.Len(t, report.Discoveries, 2)
	assert.Len(t, report.Accepted, 2)
	require.NotNil(t, report.Decision)
	assert.Equal(t, database.DecisionAllocate, report.Decision.DecisionType)
	assert.Len(t, report.Feedback, 2, "the simulated reviewer resolves what was accepted")
	assert.Empty(t, report.Errors)

	// review runs before optimize, so this cycle's feedback is already consumed
	assert.Equal(t, report.Feedback[1].ID, sys.Optimizer.Cursor())

	stats, err := sys.Store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Decisions)
	assert.Equal(t, 2, stats.Feedback)

	// stop the bus so its feedback entries are flushed
	sys.Cleanup()
	entries, err := sys.Audit.Read()
	require.NoError(t, err)
	actions := map[string]int{}
	for _, e := range entries {
		actions[e.Action]++
	}
	assert.Equal(t, 2, actions[audit.ActionDiscovery])
	assert.Equal(t, 1, actions[audit.ActionDecision])
	assert.Equal(t, 2, actions[audit.ActionFeedback])
}

func TestRecordFeedback(t *testing.T) {
	sys, err := Initialize(context.Background(), testConfig(t, false), zaptest.NewLogger(t), WithSource(staticMarket()))
	require.NoError(t, err)
	defer sys.Cleanup()

	ctx := context.Background()
	report, err := sys.RunCycle(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, report.Accepted)

	fb := &database.Feedback{SuggestionID: report.Accepted[0], Outcome: database.OutcomePositive, Score: 1}
	require.NoError(t, sys.RecordFeedback(ctx, fb))
	assert.Equal(t, agents.MarketHunterName, fb.AgentID)

	report, err = sys.RunCycle(ctx)
	require.NoError(t, err)
	var hunter *agent.ThresholdChange
	for i := range report.Adjustments {
		if report.Adjustments[i].AgentID == agents.MarketHunterName {
			hunter = &report.Adjustments[i]
		}
	}
	require.NotNil(t, hunter)
	assert.InDelta(t, 0.55, hunter.After, 1e-9)
}

func TestWithStoreAndCleanup(t *testing.T) {
	cfg := testConfig(t, false)
	store, err := database.Open(cfg.Database.Path)
	require.NoError(t, err)

	sys, err := Initialize(context.Background(), cfg, nil, WithStore(store), WithSource(staticMarket()))
	require.NoError(t, err)
	assert.Same(t, store, sys.Store)

	sys.Cleanup()
	assert.Nil(t, sys.Store)
	assert.Error(t, store.Ping(context.Background()), "cleanup closes the store")

	// idempotent
	sys.Cleanup()
}
