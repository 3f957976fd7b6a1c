package agency

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		in   MarketConditions
		want Regime
	}{
		{"capitulation", MarketConditions{PriceChange24h: -15, Volatility: 0.1, VolumeRatio: 2, Sentiment: -0.8}, RegimeCapitulation},
		{"euphoria", MarketConditions{PriceChange24h: 20, Volatility: 0.03, VolumeRatio: 1.5, Sentiment: 0.8}, RegimeEuphoria},
		{"rally without sentiment is bull", MarketConditions{PriceChange24h: 20, Volatility: 0.03, VolumeRatio: 1.5, Sentiment: 0.2}, RegimeBull},
		{"volatile", MarketConditions{PriceChange24h: 1, Volatility: 0.07, VolumeRatio: 1}, RegimeVolatile},
		{"sharp drop without panic volatility", MarketConditions{PriceChange24h: -12, Volatility: 0.05, VolumeRatio: 1}, RegimeBear},
		{"bull", MarketConditions{PriceChange24h: 5, Volatility: 0.02, VolumeRatio: 1.1}, RegimeBull},
		{"rise on thin volume is crab", MarketConditions{PriceChange24h: 5, Volatility: 0.02, VolumeRatio: 0.8}, RegimeCrab},
		{"bear", MarketConditions{PriceChange24h: -5, Volatility: 0.02, VolumeRatio: 1}, RegimeBear},
		{"crab", MarketConditions{PriceChange24h: 0.5, Volatility: 0.01, VolumeRatio: 1}, RegimeCrab},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.in)
			assert.Equal(t, tt.want, got.Regime)
			assert.GreaterOrEqual(t, got.Confidence, 0.5)
			assert.LessOrEqual(t, got.Confidence, 0.95)
			assert.Equal(t, Profile(tt.want), got.Profile)
		})
	}
}

func TestClassifyConfidence(t *testing.T) {
	// Flat market sits at the centre of the crab band
	flat := Classify(MarketConditions{VolumeRatio: 1})
	assert.InDelta(t, 0.95, flat.Confidence, 1e-9)

	// Halfway past the trend threshold
	bull := Classify(MarketConditions{PriceChange24h: 4.5, Volatility: 0.01, VolumeRatio: 1})
	assert.Equal(t, RegimeBull, bull.Regime)
	assert.InDelta(t, 0.725, bull.Confidence, 1e-9)

	// Barely volatile
	vol := Classify(MarketConditions{Volatility: 0.0600001, VolumeRatio: 1})
	assert.Equal(t, RegimeVolatile, vol.Regime)
	assert.InDelta(t, 0.5, vol.Confidence, 1e-3)
}

func TestProfileUnknownFallsBackToCrab(t *testing.T) {
	assert.Equal(t, Profile(RegimeCrab), Profile(Regime("sideways")))
	assert.Equal(t, "trend_follow", Profile(RegimeBull).Strategy)
}

func TestAggregate(t *testing.T) {
	assert.Equal(t, MarketConditions{}, Aggregate(nil))

	agg := Aggregate([]MarketConditions{
		{PriceChange24h: 4, Volatility: 0.02, VolumeRatio: 1, Sentiment: 0.5},
		{PriceChange24h: -2, Volatility: 0.04, VolumeRatio: 3, Sentiment: -0.1},
	})
	assert.InDelta(t, 1.0, agg.PriceChange24h, 1e-9)
	assert.InDelta(t, 0.03, agg.Volatility, 1e-9)
	assert.InDelta(t, 2.0, agg.VolumeRatio, 1e-9)
	assert.InDelta(t, 0.2, agg.Sentiment, 1e-9)
}
