package agency

import (
	"sort"
	"time"
)

// Urgency levels carried by suggestions
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

var urgencyWeights = map[Urgency]float64{
	UrgencyLow:      0.25,
	UrgencyMedium:   0.5,
	UrgencyHigh:     0.75,
	UrgencyCritical: 1.0,
}

// UrgencyWeight returns the ranking weight; unknown levels weigh as low
func UrgencyWeight(u Urgency) float64 {
	if w, ok := urgencyWeights[u]; ok {
		return w
	}
	return urgencyWeights[UrgencyLow]
}

// UrgencyFor buckets a score in [0,1] into an urgency level
func UrgencyFor(score float64) Urgency {
	switch {
	case score >= 0.9:
		return UrgencyCritical
	case score >= 0.75:
		return UrgencyHigh
	case score >= 0.5:
		return UrgencyMedium
	default:
		return UrgencyLow
	}
}

// Candidate is the part of a suggestion that ranking looks at
type Candidate struct {
	ID         string
	AgentID    string
	Confidence float64
	Urgency    Urgency
	CreatedAt  time.Time
}

// Ranked is a scored candidate
type Ranked struct {
	Candidate
	Reputation float64 `json:"reputation"`
	Score      float64 `json:"score"`
}

// ReputationSource supplies per-agent reputation scores
type ReputationSource interface {
	Score(agentID string) float64
}

// Rank scores candidates by confidence × urgency × reputation, best first.
// A nil source treats every agent as fully trusted.
func Rank(candidates []Candidate, rep ReputationSource) []Ranked {
	ranked := make([]Ranked, 0, len(candidates))
	for _, c := range candidates {
		r := 1.0
		if rep != nil {
			r = rep.Score(c.AgentID)
		}
		ranked = append(ranked, Ranked{
			Candidate:  c,
			Reputation: r,
			Score:      clamp01(c.Confidence) * UrgencyWeight(c.Urgency) * r,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return ranked
}

// Top returns at most n of the best ranked candidates
func Top(candidates []Candidate, rep ReputationSource, n int) []Ranked {
	ranked := Rank(candidates, rep)
	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
