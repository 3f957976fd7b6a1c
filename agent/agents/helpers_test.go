package agents

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"cryptointel/agency"
	"cryptointel/agent"
	"cryptointel/config"
	"cryptointel/database"
	"cryptointel/market"
	"cryptointel/metrics"
)

func newTestDeps(t *testing.T) agent.Deps {
	t.Helper()

	store, err := database.Open(filepath.Join(t.TempDir(), "agents.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return agent.Deps{
		Store:      store,
		Logger:     zaptest.NewLogger(t),
		Metrics:    metrics.New(),
		Reputation: agency.NewReputationModel(24*time.Hour, 0.5),
		Thresholds: agency.NewThresholdBook(agency.Threshold{
			Value:  0.6,
			Min:    0.5,
			Max:    0.95,
			Step:   0.05,
			Target: 0.7,
		}),
	}
}

func testOptimizerConfig() config.OptimizerConfig {
	return config.OptimizerConfig{TargetAccuracy: 0.7, Step: 0.05, MinThreshold: 0.5, MaxThreshold: 0.95}
}

func testOrchestratorConfig() config.OrchestratorConfig {
	return config.OrchestratorConfig{
		MaxAccepted:   3,
		MinConfidence: 0.65,
		MaxAge:        time.Hour,
		Goals: []config.GoalConfig{
			{
				Description: "Grow portfolio alpha",
				Priority:    0.9,
				Children: []config.GoalConfig{
					{Description: "Surface high-confidence opportunities", Priority: 0.8},
					{Description: "Keep drawdown under control", Priority: 0.6},
				},
			},
		},
	}
}

// bullSnapshot trips the volume breakout (0.72) and momentum (0.81) detectors
func bullSnapshot(symbol string) market.Snapshot {
	return market.Snapshot{
		Symbol:         symbol,
		Price:          100,
		PriceChange24h: 6,
		Volume24h:      3e6,
		AvgVolume:      1e6,
		Volatility:     0.03,
		At:             time.Now(),
	}
}

// quietSnapshot trips no detector
func quietSnapshot(symbol string) market.Snapshot {
	return market.Snapshot{
		Symbol:         symbol,
		Price:          10,
		PriceChange24h: 0.5,
		Volume24h:      1e6,
		AvgVolume:      1e6,
		Volatility:     0.01,
		At:             time.Now(),
	}
}

func logAlpha(t *testing.T, store *database.Store, agentID string, confidence float64, createdAt time.Time) *database.Suggestion {
	t.Helper()
	sg := &database.Suggestion{
		AgentID:    agentID,
		Type:       database.SuggestionAlphaOpportunity,
		Data:       map[string]interface{}{"expected_value": 0.02},
		Confidence: confidence,
		Urgency:    agency.UrgencyFor(confidence),
		Rationale:  "test",
		CreatedAt:  createdAt,
	}
	require.NoError(t, store.LogSuggestion(context.Background(), sg))
	return sg
}
