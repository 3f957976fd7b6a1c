package agents

import (
	"fmt"
	"math"

	"cryptointel/database"
	"cryptointel/market"
)

// Detector thresholds
const (
	whaleShare          = 0.6 // fraction of the whale flow threshold that counts
	breakoutVolume      = 2.0
	momentumMove        = 5.0
	momentumVolume      = 1.2
	reversionMove       = 8.0
	maxSignalConfidence = 0.95
)

// Signal is one detector hit on a snapshot
type Signal struct {
	Kind          database.DiscoveryKind `json:"kind"`
	Confidence    float64                `json:"confidence"`
	ExpectedValue float64                `json:"expected_value"` // fractional return
	Timeframe     string                 `json:"timeframe"`
	Direction     string                 `json:"direction"` // long or short
	Reason        string                 `json:"reason"`
}

// Detect runs every detector against a snapshot. whaleThreshold is the USD
// net flow that counts as a full whale signal.
func Detect(s market.Snapshot, whaleThreshold float64) []Signal {
	var out []Signal
	vr := s.VolumeRatio()
	move := math.Abs(s.PriceChange24h)

	if whaleThreshold > 0 && s.WhaleNetFlow > whaleShare*whaleThreshold {
		ratio := s.WhaleNetFlow / whaleThreshold
		out = append(out, Signal{
			Kind:          database.DiscoveryWhaleAccumulation,
			Confidence:    capConfidence(0.45 + 0.25*ratio),
			ExpectedValue: 0.03 * math.Min(ratio, 3),
			Timeframe:     "24h",
			Direction:     "long",
			Reason:        fmt.Sprintf("whale net inflow $%.0f (%.1fx threshold)", s.WhaleNetFlow, ratio),
		})
	}

	if vr >= breakoutVolume {
		out = append(out, Signal{
			Kind:          database.DiscoveryVolumeBreakout,
			Confidence:    capConfidence(0.5 + 0.1*(vr-breakoutVolume) + 0.02*move),
			ExpectedValue: 0.015 * math.Min(vr, 5),
			Timeframe:     "4h",
			Direction:     direction(s.PriceChange24h),
			Reason:        fmt.Sprintf("volume %.1fx average with %+.1f%% move", vr, s.PriceChange24h),
		})
	}

	if move >= momentumMove && vr >= momentumVolume {
		out = append(out, Signal{
			Kind:          database.DiscoveryMomentum,
			Confidence:    capConfidence(0.45 + 0.03*move + 0.1*(vr-momentumVolume)),
			ExpectedValue: move / 100 * 0.5,
			Timeframe:     "1d",
			Direction:     direction(s.PriceChange24h),
			Reason:        fmt.Sprintf("%+.1f%% on %.1fx volume", s.PriceChange24h, vr),
		})
	}

	if move >= reversionMove && vr < 1 {
		out = append(out, Signal{
			Kind:          database.DiscoveryMeanReversion,
			Confidence:    math.Min(0.9, 0.4+0.025*move),
			ExpectedValue: move / 100 * 0.4,
			Timeframe:     "3d",
			Direction:     direction(-s.PriceChange24h),
			Reason:        fmt.Sprintf("%+.1f%% on thin volume (%.1fx)", s.PriceChange24h, vr),
		})
	}

	return out
}

func direction(change float64) string {
	if change < 0 {
		return "short"
	}
	return "long"
}

func capConfidence(v float64) float64 {
	return math.Max(0, math.Min(maxSignalConfidence, v))
}
