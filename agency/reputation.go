package agency

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"
)

// Tier buckets an agent's reputation
type Tier string

const (
	TierTrusted   Tier = "trusted"
	TierNeutral   Tier = "neutral"
	TierProbation Tier = "probation"
)

// AgentReputation is a point-in-time view of one agent
type AgentReputation struct {
	AgentID      string    `json:"agent_id"`
	Score        float64   `json:"score"`
	Confidence   float64   `json:"confidence"`
	Tier         Tier      `json:"tier"`
	Observations int       `json:"observations"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type reputationState struct {
	sum          float64 // decayed weighted outcome sum
	weight       float64 // decayed weight sum
	observations int
	updatedAt    time.Time
}

// ReputationModel keeps an exponentially decayed weighted average of
// outcomes per agent. Older observations lose half their weight every
// half-life.
type ReputationModel struct {
	halfLife time.Duration
	def      float64
	agents   map[string]*reputationState
	mu       sync.RWMutex
}

// NewReputationModel creates a model. defaultScore is reported for agents
// with no history.
func NewReputationModel(halfLife time.Duration, defaultScore float64) *ReputationModel {
	if halfLife <= 0 {
		halfLife = 24 * time.Hour
	}
	return &ReputationModel{
		halfLife: halfLife,
		def:      clamp01(defaultScore),
		agents:   make(map[string]*reputationState),
	}
}

// Record adds an outcome in [0,1] with the given weight at time at
func (m *ReputationModel) Record(agentID string, outcome, weight float64, at time.Time) error {
	if agentID == "" {
		return fmt.Errorf("agent id is required")
	}
	if weight <= 0 || math.IsNaN(weight) {
		return fmt.Errorf("weight must be positive, got %v", weight)
	}
	if math.IsNaN(outcome) {
		return fmt.Errorf("outcome is NaN")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.agents[agentID]
	if !ok {
		st = &reputationState{updatedAt: at}
		m.agents[agentID] = st
	}

	d := m.decay(st.updatedAt, at)
	st.sum = d*st.sum + weight*clamp01(outcome)
	st.weight = d*st.weight + weight
	st.observations++
	if at.After(st.updatedAt) {
		st.updatedAt = at
	}
	return nil
}

// Score returns the agent's reputation in [0,1]
func (m *ReputationModel) Score(agentID string) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.score(agentID)
}

// Confidence reports how much decayed evidence backs the score, in [0,1)
func (m *ReputationModel) Confidence(agentID string, now time.Time) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st, ok := m.agents[agentID]
	if !ok {
		return 0
	}
	w := st.weight * m.decay(st.updatedAt, now)
	return 1 - math.Exp(-w)
}

// Tier returns the agent's reputation bucket
func (m *ReputationModel) Tier(agentID string) Tier {
	return TierFor(m.Score(agentID))
}

// Snapshot returns every known agent ordered by score
func (m *ReputationModel) Snapshot(now time.Time) []AgentReputation {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]AgentReputation, 0, len(m.agents))
	for id, st := range m.agents {
		score := m.score(id)
		out = append(out, AgentReputation{
			AgentID:      id,
			Score:        score,
			Confidence:   1 - math.Exp(-st.weight*m.decay(st.updatedAt, now)),
			Tier:         TierFor(score),
			Observations: st.observations,
			UpdatedAt:    st.updatedAt,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].AgentID < out[j].AgentID
	})
	return out
}

// TierFor maps a score to its tier
func TierFor(score float64) Tier {
	switch {
	case score >= 0.75:
		return TierTrusted
	case score >= 0.5:
		return TierNeutral
	default:
		return TierProbation
	}
}

func (m *ReputationModel) score(agentID string) float64 {
	st, ok := m.agents[agentID]
	if !ok || st.weight == 0 {
		return m.def
	}
	return st.sum / st.weight
}

// decay returns 0.5^(Δt/halfLife); observations out of order do not decay
func (m *ReputationModel) decay(from, to time.Time) float64 {
	dt := to.Sub(from)
	if dt <= 0 {
		return 1
	}
	return math.Pow(0.5, float64(dt)/float64(m.halfLife))
}
