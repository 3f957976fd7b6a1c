package agents

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"cryptointel/agency"
	"cryptointel/agent"
	"cryptointel/config"
	"cryptointel/core/audit"
	"cryptointel/database"
	"cryptointel/market"
)

// StrategicOrchestratorName is the orchestrator's registry name
const StrategicOrchestratorName = "strategic-orchestrator"

// progressPerCycle is how far a full allocation moves the focus goal
const progressPerCycle = 0.1

// StrategicOrchestrator reads the regime, accepts the best pending
// suggestions and records a strategic decision
type StrategicOrchestrator struct {
	*agent.BaseAgent
	cfg   config.OrchestratorConfig
	goals *agency.GoalHierarchy
	now   func() time.Time
}

// NewStrategicOrchestrator creates the orchestrator and its goal hierarchy
func NewStrategicOrchestrator(deps agent.Deps, cfg config.OrchestratorConfig) (*StrategicOrchestrator, error) {
	if cfg.MaxAccepted < 1 {
		cfg.MaxAccepted = 1
	}

	goals := agency.NewGoalHierarchy()
	if err := addGoals(goals, "", cfg.Goals); err != nil {
		return nil, fmt.Errorf("failed to build goal hierarchy: %w", err)
	}
	if deps.Thresholds != nil {
		deps.Thresholds.Seed(StrategicOrchestratorName, cfg.MinConfidence)
	}

	return &StrategicOrchestrator{
		BaseAgent: agent.NewBaseAgent(StrategicOrchestratorName, agent.RoleOrchestrator, deps),
		cfg:       cfg,
		goals:     goals,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

func addGoals(h *agency.GoalHierarchy, parent string, goals []config.GoalConfig) error {
	for _, g := range goals {
		id, err := h.AddGoal(agency.Goal{Description: g.Description, Priority: g.Priority, ParentID: parent})
		if err != nil {
			return err
		}
		if err := addGoals(h, id, g.Children); err != nil {
			return err
		}
	}
	return nil
}

// Goals returns the orchestrator's goal hierarchy
func (o *StrategicOrchestrator) Goals() *agency.GoalHierarchy {
	return o.goals
}

// CanHandle accepts strategize tasks
func (o *StrategicOrchestrator) CanHandle(task *agent.Task) bool {
	return task.Type == agent.TaskTypeStrategize
}

// Execute classifies the regime and allocates to the top suggestions
func (o *StrategicOrchestrator) Execute(ctx context.Context, task *agent.Task) (*agent.Result, error) {
	res := o.NewResult(task)
	store := o.Store()
	now := o.now()

	assessment := agency.Classify(agency.Aggregate(market.Conditions(task.Market)))
	res.Regime = &assessment

	expired, err := store.ExpireSuggestions(ctx, now.Add(-o.cfg.MaxAge))
	if err != nil {
		return o.Fail(res, err)
	}
	res.Expired = expired
	if expired > 0 {
		o.Audit(audit.ActionExpire, "", 0, map[string]interface{}{"count": expired})
	}

	pending, err := store.ListSuggestions(ctx, database.SuggestionFilter{
		Status: database.SuggestionPending,
		Type:   database.SuggestionAlphaOpportunity,
	})
	if err != nil {
		return o.Fail(res, err)
	}

	byID := make(map[string]database.Suggestion, len(pending))
	cands := make([]agency.Candidate, 0, len(pending))
	for _, sg := range pending {
		byID[sg.ID] = sg
		cands = append(cands, sg.Candidate())
	}

	var rep agency.ReputationSource
	if r := o.Deps().Reputation; r != nil {
		rep = r
	}
	ranked := agency.Rank(cands, rep)

	limit := o.allocationLimit(assessment.Profile)
	threshold := o.Threshold()
	scores := make(map[string]interface{}, len(ranked))
	var impact, confSum float64

	for _, r := range ranked {
		scores[r.ID] = r.Score
		if len(res.Accepted) >= limit || !threshold.Accepts(r.Confidence) {
			continue
		}
		if err := store.UpdateSuggestionStatus(ctx, r.ID, database.SuggestionAccepted); err != nil {
			return o.Fail(res, err)
		}
		res.Accepted = append(res.Accepted, r.ID)
		confSum += r.Confidence
		if ev, ok := byID[r.ID].Data["expected_value"].(float64); ok {
			impact += ev * assessment.Profile.RiskMultiplier
		}
		o.Audit(audit.ActionAccept, r.ID, r.Confidence, map[string]interface{}{
			"score":      r.Score,
			"reputation": r.Reputation,
			"agent":      r.AgentID,
		})
	}

	decision := &database.StrategicDecision{
		AgentID:        o.Name(),
		DecisionType:   database.DecisionHold,
		Regime:         assessment.Regime,
		Strategy:       assessment.Profile.Strategy,
		Confidence:     assessment.Confidence,
		ExpectedImpact: impact,
		SuggestionIDs:  res.Accepted,
		Data: map[string]interface{}{
			"pending":         len(pending),
			"limit":           limit,
			"threshold":       threshold.Value,
			"risk_multiplier": assessment.Profile.RiskMultiplier,
			"max_position":    assessment.Profile.MaxPosition,
			"conditions":      assessment.Conditions,
			"scores":          scores,
			"cycle":           task.Cycle,
		},
	}
	if n := len(res.Accepted); n > 0 {
		decision.DecisionType = database.DecisionAllocate
		decision.Confidence = (assessment.Confidence + confSum/float64(n)) / 2
	}
	decision.Rationale = fmt.Sprintf("%s regime (%.0f%% confidence): accepted %d of %d pending above %.2f, %d expired; %s",
		assessment.Regime, assessment.Confidence*100, len(res.Accepted), len(pending), threshold.Value,
		expired, assessment.Profile.Strategy)

	if err := store.LogStrategicDecision(ctx, decision); err != nil {
		return o.Fail(res, err)
	}
	res.Decision = decision
	if m := o.Deps().Metrics; m != nil {
		m.Decisions.WithLabelValues(decision.DecisionType, string(decision.Regime)).Inc()
	}
	o.Audit(audit.ActionDecision, decision.ID, decision.Confidence, map[string]interface{}{
		"type":     decision.DecisionType,
		"regime":   string(decision.Regime),
		"accepted": len(res.Accepted),
	})

	if goal, ok := o.advanceGoal(len(res.Accepted), limit, now); ok {
		res.Metadata["goal"] = goal.Description
		res.Metadata["goal_progress"] = goal.Progress
	}

	if err := o.RecordMetric(ctx, "", database.MetricAccepted, float64(len(res.Accepted)), map[string]interface{}{
		"cycle":   task.Cycle,
		"regime":  string(assessment.Regime),
		"pending": len(pending),
	}); err != nil {
		o.Logger().Warn("metric not recorded", zap.Error(err))
	}

	res.Summary = decision.Rationale
	o.Logger().Info("decision logged",
		zap.String("type", decision.DecisionType),
		zap.String("regime", string(decision.Regime)),
		zap.Int("accepted", len(res.Accepted)),
		zap.Int("pending", len(pending)),
		zap.Int("expired", expired))

	return res, nil
}

// allocationLimit shrinks MaxAccepted in defensive regimes
func (o *StrategicOrchestrator) allocationLimit(p agency.StrategyProfile) int {
	limit := int(math.Ceil(float64(o.cfg.MaxAccepted) * math.Min(1, p.RiskMultiplier)))
	if limit < 1 {
		limit = 1
	}
	return limit
}

// advanceGoal moves the highest-priority active leaf goal by the share of
// the allocation limit that was used
func (o *StrategicOrchestrator) advanceGoal(accepted, limit int, now time.Time) (agency.Goal, bool) {
	if accepted == 0 {
		return agency.Goal{}, false
	}

	for _, g := range o.goals.Active(now) {
		if len(g.Children) > 0 {
			continue
		}
		delta := progressPerCycle * float64(accepted) / float64(limit)
		if err := o.goals.AddProgress(g.ID, delta); err != nil {
			o.Logger().Warn("goal not advanced", zap.String("goal", g.ID), zap.Error(err))
			return agency.Goal{}, false
		}
		updated, err := o.goals.Get(g.ID)
		if err != nil {
			return agency.Goal{}, false
		}
		return updated, true
	}
	return agency.Goal{}, false
}
