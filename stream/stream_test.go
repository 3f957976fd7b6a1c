package stream

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"cryptointel/agency"
	"cryptointel/agent"
	"cryptointel/database"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeCycles struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeCycles) RunCycle(ctx context.Context) (*agent.CycleReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return &agent.CycleReport{
		Cycle:     f.calls,
		StartedAt: time.Now(),
		Discoveries: []database.AlphaDiscovery{
			{AgentID: "market-hunter", Symbol: "BTC", Kind: database.DiscoveryMomentum, Confidence: 0.7},
		},
	}, f.err
}

func (f *fakeCycles) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func collect(ch <-chan Event) []Event {
	var out []Event
	for e := range ch {
		out = append(out, e)
	}
	return out
}

func TestRunStopsAfterCycles(t *testing.T) {
	fake := &fakeCycles{}
	r := NewRunner(fake, time.Millisecond, 3, nil)

	events := collect(r.Run(context.Background()))

	assert.Equal(t, 3, fake.Calls())
	require.Len(t, events, 6)
	assert.Equal(t, EventCycle, events[0].Type)
	assert.Equal(t, EventDiscovery, events[1].Type)
	assert.Equal(t, 3, events[5].Cycle)
}

func TestRunStopsOnCancel(t *testing.T) {
	fake := &fakeCycles{}
	r := NewRunner(fake, 5*time.Millisecond, 0, nil)

	ctx, cancel := context.WithCancel(context.Background())
	ch := r.Run(ctx)

	seen := 0
	for range ch {
		seen++
		if seen == 4 {
			cancel()
			break
		}
	}
	// Drain until the runner closes the channel
	for range ch {
	}
	cancel()

	assert.GreaterOrEqual(t, fake.Calls(), 2)
}

func TestRunReportsCycleError(t *testing.T) {
	fake := &fakeCycles{err: errors.New("boom")}
	r := NewRunner(fake, time.Millisecond, 1, nil)

	events := collect(r.Run(context.Background()))

	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, EventError, last.Type)
	assert.Equal(t, "boom", last.Message)
	assert.Equal(t, 1, last.Cycle)
}

func TestEventsOrder(t *testing.T) {
	report := &agent.CycleReport{
		Cycle: 7,
		Discoveries: []database.AlphaDiscovery{
			{AgentID: "market-hunter", Symbol: "ETH", Kind: database.DiscoveryVolumeBreakout, Confidence: 0.8},
		},
		Suggestions: []database.Suggestion{
			{ID: "s1", AgentID: "market-hunter", Urgency: agency.UrgencyHigh, Confidence: 0.8, Rationale: "ETH breakout"},
		},
		Decision: &database.StrategicDecision{AgentID: "strategic-orchestrator", DecisionType: database.DecisionAllocate, Rationale: "bull"},
		Feedback: []database.Feedback{
			{SuggestionID: "s1", AgentID: "market-hunter", Outcome: database.OutcomePositive, Score: 0.9},
		},
		Adjustments: []agent.ThresholdChange{
			{AgentID: "market-hunter", Before: 0.6, After: 0.55, Accuracy: 1, Samples: 1},
			{AgentID: "strategic-orchestrator", Before: 0.5, After: 0.5, Accuracy: 1, Samples: 1},
		},
		Errors: []string{"performance-optimizer: db locked"},
	}

	events := Events(report)

	var types []EventType
	for _, e := range events {
		types = append(types, e.Type)
		assert.Equal(t, 7, e.Cycle)
	}
	assert.Equal(t, []EventType{
		EventCycle, EventDiscovery, EventSuggestion, EventDecision,
		EventFeedback, EventOptimization, EventOptimization, EventError,
	}, types)

	assert.Contains(t, events[5].Message, "0.60 -> 0.55")
	assert.Contains(t, events[6].Message, "held at 0.50")
	assert.Equal(t, 0.8, events[2].Confidence)
}
