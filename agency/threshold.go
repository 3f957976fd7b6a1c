package agency

import (
	"sort"
	"sync"
)

// Threshold is a confidence cut-off that tightens when accuracy falls
// short of its target and relaxes when accuracy meets it.
type Threshold struct {
	Value  float64 `json:"value"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Step   float64 `json:"step"`
	Target float64 `json:"target"`
}

// Accepts reports whether a confidence clears the threshold
func (t Threshold) Accepts(confidence float64) bool {
	return confidence >= t.Value
}

// Adapt moves the threshold one step based on observed accuracy and
// returns the adjusted copy
func (t Threshold) Adapt(accuracy float64) Threshold {
	if accuracy >= t.Target {
		t.Value -= t.Step
	} else {
		t.Value += t.Step
	}
	t.Value = clamp(t.Value, t.Min, t.Max)
	return t
}

// ThresholdBook holds one threshold per agent
type ThresholdBook struct {
	base       Threshold
	thresholds map[string]Threshold
	mu         sync.RWMutex
}

// NewThresholdBook creates a book; agents start from base
func NewThresholdBook(base Threshold) *ThresholdBook {
	base.Value = clamp(base.Value, base.Min, base.Max)
	return &ThresholdBook{
		base:       base,
		thresholds: make(map[string]Threshold),
	}
}

// Get returns the agent's threshold
func (b *ThresholdBook) Get(agentID string) Threshold {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if t, ok := b.thresholds[agentID]; ok {
		return t
	}
	return b.base
}

// Set stores a threshold for an agent
func (b *ThresholdBook) Set(agentID string, t Threshold) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.thresholds[agentID] = t
}

// Seed sets an agent's starting value if it has none yet
func (b *ThresholdBook) Seed(agentID string, value float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.thresholds[agentID]; ok {
		return
	}
	t := b.base
	t.Value = clamp(value, t.Min, t.Max)
	b.thresholds[agentID] = t
}

// Adapt applies accuracy to an agent's threshold and returns old and new values
func (b *ThresholdBook) Adapt(agentID string, accuracy float64) (before, after Threshold) {
	b.mu.Lock()
	defer b.mu.Unlock()

	before, ok := b.thresholds[agentID]
	if !ok {
		before = b.base
	}
	after = before.Adapt(accuracy)
	b.thresholds[agentID] = after
	return before, after
}

// Agents lists agents with explicit thresholds
func (b *ThresholdBook) Agents() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	ids := make([]string, 0, len(b.thresholds))
	for id := range b.thresholds {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
