package agency

import (
	"math"
)

// Regime is a coarse market classification
type Regime string

const (
	RegimeCapitulation Regime = "capitulation"
	RegimeEuphoria     Regime = "euphoria"
	RegimeVolatile     Regime = "volatile"
	RegimeBull         Regime = "bull"
	RegimeBear         Regime = "bear"
	RegimeCrab         Regime = "crab"
)

// Classification thresholds
const (
	capitulationVolatility = 0.08
	capitulationDrop       = -10.0
	euphoriaRally          = 15.0
	euphoriaSentiment      = 0.6
	volatileVolatility     = 0.06
	trendMove              = 3.0
)

// MarketConditions are the four scalar inputs to regime classification
type MarketConditions struct {
	PriceChange24h float64 `json:"price_change_24h"` // percent
	Volatility     float64 `json:"volatility"`       // fraction, 0.05 = 5%
	VolumeRatio    float64 `json:"volume_ratio"`     // current / average
	Sentiment      float64 `json:"sentiment"`        // -1..1
}

// RegimeAssessment is the result of classifying market conditions
type RegimeAssessment struct {
	Regime     Regime           `json:"regime"`
	Confidence float64          `json:"confidence"`
	Conditions MarketConditions `json:"conditions"`
	Profile    StrategyProfile  `json:"profile"`
}

// StrategyProfile is the playbook attached to a regime
type StrategyProfile struct {
	Strategy       string  `json:"strategy"`
	RiskMultiplier float64 `json:"risk_multiplier"`
	MaxPosition    float64 `json:"max_position"` // fraction of portfolio
}

var profiles = map[Regime]StrategyProfile{
	RegimeCapitulation: {Strategy: "accumulate_quality", RiskMultiplier: 0.4, MaxPosition: 0.05},
	RegimeEuphoria:     {Strategy: "take_profit", RiskMultiplier: 0.6, MaxPosition: 0.08},
	RegimeVolatile:     {Strategy: "reduce_exposure", RiskMultiplier: 0.5, MaxPosition: 0.06},
	RegimeBull:         {Strategy: "trend_follow", RiskMultiplier: 1.2, MaxPosition: 0.15},
	RegimeBear:         {Strategy: "defensive_hedge", RiskMultiplier: 0.7, MaxPosition: 0.08},
	RegimeCrab:         {Strategy: "range_trade", RiskMultiplier: 0.9, MaxPosition: 0.10},
}

// Classify maps market conditions to a regime. The first matching rule wins.
func Classify(c MarketConditions) RegimeAssessment {
	regime, margin := classify(c)
	return RegimeAssessment{
		Regime:     regime,
		Confidence: confidenceFromMargin(margin),
		Conditions: c,
		Profile:    Profile(regime),
	}
}

// Profile returns the strategy profile for a regime
func Profile(r Regime) StrategyProfile {
	if p, ok := profiles[r]; ok {
		return p
	}
	return profiles[RegimeCrab]
}

// Aggregate averages a set of conditions
func Aggregate(samples []MarketConditions) MarketConditions {
	if len(samples) == 0 {
		return MarketConditions{}
	}

	var agg MarketConditions
	for _, s := range samples {
		agg.PriceChange24h += s.PriceChange24h
		agg.Volatility += s.Volatility
		agg.VolumeRatio += s.VolumeRatio
		agg.Sentiment += s.Sentiment
	}
	n := float64(len(samples))
	agg.PriceChange24h /= n
	agg.Volatility /= n
	agg.VolumeRatio /= n
	agg.Sentiment /= n
	return agg
}

// classify returns the regime and a normalized margin past its deciding threshold
func classify(c MarketConditions) (Regime, float64) {
	switch {
	case c.Volatility > capitulationVolatility && c.PriceChange24h < capitulationDrop:
		return RegimeCapitulation, math.Min(
			(c.Volatility-capitulationVolatility)/capitulationVolatility,
			(capitulationDrop-c.PriceChange24h)/-capitulationDrop,
		)
	case c.PriceChange24h > euphoriaRally && c.Sentiment > euphoriaSentiment:
		return RegimeEuphoria, math.Min(
			(c.PriceChange24h-euphoriaRally)/euphoriaRally,
			(c.Sentiment-euphoriaSentiment)/(1-euphoriaSentiment),
		)
	case c.Volatility > volatileVolatility:
		return RegimeVolatile, (c.Volatility - volatileVolatility) / volatileVolatility
	case c.PriceChange24h > trendMove && c.VolumeRatio >= 1:
		return RegimeBull, (c.PriceChange24h - trendMove) / trendMove
	case c.PriceChange24h < -trendMove:
		return RegimeBear, (-trendMove - c.PriceChange24h) / trendMove
	default:
		// Distance from the nearest trend boundary
		return RegimeCrab, (trendMove - math.Abs(c.PriceChange24h)) / trendMove
	}
}

func confidenceFromMargin(margin float64) float64 {
	if math.IsNaN(margin) || margin < 0 {
		margin = 0
	}
	return math.Min(0.95, 0.5+0.45*math.Min(margin, 1))
}
