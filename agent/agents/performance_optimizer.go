package agents

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"cryptointel/agency"
	"cryptointel/agent"
	"cryptointel/config"
	"cryptointel/core/audit"
	"cryptointel/database"
)

// PerformanceOptimizerName is the optimizer's registry name
const PerformanceOptimizerName = "performance-optimizer"

// tally counts feedback outcomes for one agent
type tally struct {
	positive int
	negative int
	neutral  int
}

func (t tally) samples() int {
	return t.positive + t.negative
}

// accuracy is positive / (positive + negative); neutral verdicts do not count
func (t tally) accuracy() float64 {
	if t.samples() == 0 {
		return 0
	}
	return float64(t.positive) / float64(t.samples())
}

// PerformanceOptimizer turns new feedback into reputation updates and
// threshold adjustments
type PerformanceOptimizer struct {
	*agent.BaseAgent
	cfg    config.OptimizerConfig
	cursor int64 // last feedback ID consumed
	mu     sync.Mutex
}

// NewPerformanceOptimizer creates the optimizer
func NewPerformanceOptimizer(deps agent.Deps, cfg config.OptimizerConfig) *PerformanceOptimizer {
	return &PerformanceOptimizer{
		BaseAgent: agent.NewBaseAgent(PerformanceOptimizerName, agent.RoleOptimizer, deps),
		cfg:       cfg,
	}
}

// CanHandle accepts optimize tasks
func (o *PerformanceOptimizer) CanHandle(task *agent.Task) bool {
	return task.Type == agent.TaskTypeOptimize
}

// Cursor returns the ID of the last feedback consumed
func (o *PerformanceOptimizer) Cursor() int64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cursor
}

// observation is one reputation sample waiting to be applied
type observation struct {
	agentID string
	outcome float64
	fb      database.Feedback
}

// Execute consumes feedback recorded since the previous run. Thresholds,
// reputation and the cursor only move once every record for the run has
// been written, so a failed run is replayed in full.
func (o *PerformanceOptimizer) Execute(ctx context.Context, task *agent.Task) (*agent.Result, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	res := o.NewResult(task)
	store := o.Store()

	feedback, err := store.ListFeedback(ctx, database.FeedbackFilter{AfterID: o.cursor})
	if err != nil {
		return o.Fail(res, err)
	}

	tallies := make(map[string]*tally)
	var observations []observation
	count := func(agentID string, fb database.Feedback) {
		t, ok := tallies[agentID]
		if !ok {
			t = &tally{}
			tallies[agentID] = t
		}
		switch fb.Outcome {
		case database.OutcomePositive:
			t.positive++
		case database.OutcomeNegative:
			t.negative++
		default:
			t.neutral++
		}
		observations = append(observations, observation{agentID: agentID, outcome: (fb.Score + 1) / 2, fb: fb})
	}

	cursor := o.cursor
	for _, fb := range feedback {
		cursor = fb.ID
		count(fb.AgentID, fb)

		// Accepted suggestions also grade the agent that accepted them
		sg, err := store.GetSuggestion(ctx, fb.SuggestionID)
		if err != nil {
			o.Logger().Warn("suggestion lookup failed", zap.String("suggestion", fb.SuggestionID), zap.Error(err))
			continue
		}
		if sg.Status == database.SuggestionAccepted && sg.Type == database.SuggestionAlphaOpportunity {
			count(StrategicOrchestratorName, fb)
		}
	}

	agentIDs := make([]string, 0, len(tallies))
	for id := range tallies {
		if tallies[id].samples() > 0 {
			agentIDs = append(agentIDs, id)
		}
	}
	sort.Strings(agentIDs)

	for _, id := range agentIDs {
		change := o.plan(id, *tallies[id])
		if err := o.persist(ctx, task, change, *tallies[id]); err != nil {
			return o.Fail(res, err)
		}
		res.Adjustments = append(res.Adjustments, change)

		if !change.Moved() {
			continue
		}
		sg, err := o.suggestAdjustment(ctx, change)
		if err != nil {
			return o.Fail(res, err)
		}
		res.Suggestions = append(res.Suggestions, *sg)
	}

	o.commit(ctx, task, res.Adjustments, observations)
	o.cursor = cursor
	o.publishGauges()

	moved := 0
	for _, c := range res.Adjustments {
		if c.Moved() {
			moved++
		}
	}
	res.Metadata["cursor"] = o.cursor
	res.Metadata["consumed"] = len(feedback)
	res.Summary = fmt.Sprintf("processed %d feedback for %d agents, %d thresholds moved",
		len(feedback), len(res.Adjustments), moved)

	o.Logger().Info("optimization complete",
		zap.Int("feedback", len(feedback)),
		zap.Int("agents", len(res.Adjustments)),
		zap.Int("moved", moved),
		zap.Int64("cursor", o.cursor))

	return res, nil
}

// plan computes the threshold step for an agent without applying it
func (o *PerformanceOptimizer) plan(agentID string, t tally) agent.ThresholdChange {
	change := agent.ThresholdChange{
		AgentID:  agentID,
		Accuracy: t.accuracy(),
		Samples:  t.samples(),
	}
	if th := o.Deps().Thresholds; th != nil {
		before := th.Get(agentID)
		change.Before, change.After = before.Value, before.Adapt(change.Accuracy).Value
	}
	return change
}

// persist records the accuracy and planned threshold samples
func (o *PerformanceOptimizer) persist(ctx context.Context, task *agent.Task, c agent.ThresholdChange, t tally) error {
	detail := map[string]interface{}{
		"cycle":    task.Cycle,
		"positive": t.positive,
		"negative": t.negative,
		"neutral":  t.neutral,
		"target":   o.cfg.TargetAccuracy,
	}
	if err := o.RecordMetric(ctx, c.AgentID, database.MetricAccuracy, c.Accuracy, detail); err != nil {
		return err
	}
	return o.RecordMetric(ctx, c.AgentID, database.MetricThreshold, c.After, detail)
}

// commit applies the planned threshold steps and the reputation samples
func (o *PerformanceOptimizer) commit(ctx context.Context, task *agent.Task, changes []agent.ThresholdChange, observations []observation) {
	deps := o.Deps()

	if deps.Thresholds != nil {
		for _, c := range changes {
			deps.Thresholds.Adapt(c.AgentID, c.Accuracy)
			if c.Moved() {
				o.Audit(audit.ActionAdjust, c.AgentID, c.Accuracy, map[string]interface{}{
					"before":  c.Before,
					"after":   c.After,
					"samples": c.Samples,
				})
			}
		}
	}

	if deps.Reputation == nil {
		return
	}
	for _, obs := range observations {
		if err := deps.Reputation.Record(obs.agentID, obs.outcome, 1, obs.fb.CreatedAt); err != nil {
			o.Logger().Warn("reputation not recorded", zap.String("agent", obs.agentID), zap.Error(err))
		}
	}
	for _, c := range changes {
		err := o.RecordMetric(ctx, c.AgentID, database.MetricReputation, deps.Reputation.Score(c.AgentID),
			map[string]interface{}{"cycle": task.Cycle})
		if err != nil {
			o.Logger().Warn("metric not recorded", zap.String("agent", c.AgentID), zap.Error(err))
		}
	}
}

// suggestAdjustment records a threshold move for human review
func (o *PerformanceOptimizer) suggestAdjustment(ctx context.Context, c agent.ThresholdChange) (*database.Suggestion, error) {
	verb := "raised"
	if c.After < c.Before {
		verb = "lowered"
	}

	// More samples, more confidence in the move
	confidence := math.Min(0.95, 0.5+0.05*float64(c.Samples))
	urgency := agency.UrgencyMedium
	if c.Accuracy < o.cfg.TargetAccuracy/2 {
		urgency = agency.UrgencyHigh
	}

	sg := &database.Suggestion{
		Type: database.SuggestionThresholdAdjustment,
		Data: map[string]interface{}{
			"agent":    c.AgentID,
			"before":   c.Before,
			"after":    c.After,
			"accuracy": c.Accuracy,
			"samples":  c.Samples,
			"target":   o.cfg.TargetAccuracy,
		},
		Confidence: confidence,
		Urgency:    urgency,
		Rationale: fmt.Sprintf("%s threshold %s %.2f -> %.2f: accuracy %.0f%% over %d samples vs %.0f%% target",
			c.AgentID, verb, c.Before, c.After, c.Accuracy*100, c.Samples, o.cfg.TargetAccuracy*100),
	}
	if err := o.Suggest(ctx, sg); err != nil {
		return nil, err
	}
	return sg, nil
}

// publishGauges mirrors reputation and thresholds into the metrics registry
func (o *PerformanceOptimizer) publishGauges() {
	deps := o.Deps()
	if deps.Metrics == nil {
		return
	}
	if deps.Reputation != nil {
		for _, r := range deps.Reputation.Snapshot(time.Now()) {
			deps.Metrics.Reputation.WithLabelValues(r.AgentID).Set(r.Score)
		}
	}
	if deps.Thresholds != nil {
		for _, id := range deps.Thresholds.Agents() {
			deps.Metrics.Threshold.WithLabelValues(id).Set(deps.Thresholds.Get(id).Value)
		}
	}
}
