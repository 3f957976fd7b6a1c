package agents

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"go.uber.org/zap"

	"cryptointel/agent"
	"cryptointel/database"
)

// FeedbackSimulatorName is the simulated reviewer's registry name
const FeedbackSimulatorName = "feedback-simulator"

// reviewBatch bounds how many unreviewed suggestions are judged per cycle
const reviewBatch = 50

// FeedbackSimulator stands in for a human reviewer. It resolves accepted
// alpha suggestions into feedback, biased towards positive outcomes for
// confident suggestions.
type FeedbackSimulator struct {
	*agent.BaseAgent
	rng *rand.Rand
	mu  sync.Mutex
}

// NewFeedbackSimulator creates a reviewer with its own seeded generator
func NewFeedbackSimulator(deps agent.Deps, seed uint64) *FeedbackSimulator {
	return &FeedbackSimulator{
		BaseAgent: agent.NewBaseAgent(FeedbackSimulatorName, agent.RoleReviewer, deps),
		rng:       rand.New(rand.NewPCG(seed, seed+1)),
	}
}

// CanHandle accepts review tasks
func (f *FeedbackSimulator) CanHandle(task *agent.Task) bool {
	return task.Type == agent.TaskTypeReview
}

// Execute reviews accepted suggestions that have no feedback yet
func (f *FeedbackSimulator) Execute(ctx context.Context, task *agent.Task) (*agent.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	res := f.NewResult(task)
	store := f.Store()

	accepted, err := store.ListSuggestions(ctx, database.SuggestionFilter{
		Status:     database.SuggestionAccepted,
		Type:       database.SuggestionAlphaOpportunity,
		Unreviewed: true,
		Limit:      reviewBatch,
	})
	if err != nil {
		return f.Fail(res, err)
	}

	for _, sg := range accepted {
		fb := f.judge(sg)
		if err := agent.RecordFeedback(ctx, f.Deps(), fb); err != nil {
			return f.Fail(res, fmt.Errorf("failed to record feedback: %w", err))
		}
		res.Feedback = append(res.Feedback, *fb)

		f.resolveDiscovery(ctx, sg, fb.Outcome)
	}

	positive := 0
	for _, fb := range res.Feedback {
		if fb.Outcome == database.OutcomePositive {
			positive++
		}
	}
	res.Summary = fmt.Sprintf("reviewed %d accepted suggestions: %d positive", len(res.Feedback), positive)
	f.Logger().Info("review complete",
		zap.Int("reviewed", len(res.Feedback)),
		zap.Int("positive", positive))

	return res, nil
}

// judge draws an outcome. P(positive) grows with confidence; a small share
// of verdicts are neutral.
func (f *FeedbackSimulator) judge(sg database.Suggestion) *database.Feedback {
	fb := &database.Feedback{
		SuggestionID: sg.ID,
		AgentID:      sg.AgentID,
	}

	pPositive := 0.2 + 0.7*sg.Confidence
	switch roll := f.rng.Float64(); {
	case roll < 0.1:
		fb.Outcome = database.OutcomeNeutral
		fb.Comment = "inconclusive"
	case roll < 0.1+0.9*pPositive:
		fb.Outcome = database.OutcomePositive
		fb.Score = 0.3 + 0.7*f.rng.Float64()
		fb.Comment = "played out"
	default:
		fb.Outcome = database.OutcomeNegative
		fb.Score = -(0.3 + 0.7*f.rng.Float64())
		fb.Comment = "did not play out"
	}
	return fb
}

// resolveDiscovery marks the discovery behind a suggestion by the verdict
func (f *FeedbackSimulator) resolveDiscovery(ctx context.Context, sg database.Suggestion, outcome database.FeedbackOutcome) {
	id, ok := sg.Data["discovery_id"].(string)
	if !ok || id == "" || outcome == database.OutcomeNeutral {
		return
	}

	status := database.DiscoveryValidated
	if outcome == database.OutcomeNegative {
		status = database.DiscoveryInvalidated
	}
	if err := f.Store().UpdateDiscoveryStatus(ctx, id, status); err != nil {
		f.Logger().Warn("discovery not resolved", zap.String("discovery", id), zap.Error(err))
	}
}
