package agent

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"cryptointel/agency"
	"cryptointel/core/audit"
	"cryptointel/database"
	"cryptointel/metrics"
)

// Deps are the shared services every agent is built with
type Deps struct {
	Store      *database.Store
	Logger     *zap.Logger
	Metrics    *metrics.Metrics
	Audit      *audit.Logger
	Reputation *agency.ReputationModel
	Thresholds *agency.ThresholdBook
	Bus        *FeedbackBus
}

// BaseAgent provides common agent functionality
type BaseAgent struct {
	name string
	role Role
	deps Deps
	log  *zap.Logger
}

// NewBaseAgent creates a new base agent
func NewBaseAgent(name string, role Role, deps Deps) *BaseAgent {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BaseAgent{
		name: name,
		role: role,
		deps: deps,
		log:  logger.Named(name),
	}
}

// Name returns the agent name
func (a *BaseAgent) Name() string {
	return a.name
}

// Role returns the agent's role
func (a *BaseAgent) Role() Role {
	return a.role
}

// Store returns the database
func (a *BaseAgent) Store() *database.Store {
	return a.deps.Store
}

// Logger returns the agent's named logger
func (a *BaseAgent) Logger() *zap.Logger {
	return a.log
}

// Deps returns the shared services
func (a *BaseAgent) Deps() Deps {
	return a.deps
}

// Suggest logs a suggestion authored by this agent
func (a *BaseAgent) Suggest(ctx context.Context, sg *database.Suggestion) error {
	if a.deps.Store == nil {
		return fmt.Errorf("database not available")
	}

	sg.AgentID = a.name
	if err := a.deps.Store.LogSuggestion(ctx, sg); err != nil {
		return fmt.Errorf("failed to log suggestion: %w", err)
	}

	if a.deps.Metrics != nil {
		a.deps.Metrics.Suggestions.WithLabelValues(a.name, sg.Type).Inc()
	}
	a.Audit(audit.ActionSuggestion, sg.ID, sg.Confidence, map[string]interface{}{
		"type":    sg.Type,
		"urgency": string(sg.Urgency),
	})
	a.log.Debug("suggestion logged",
		zap.String("id", sg.ID),
		zap.String("type", sg.Type),
		zap.Float64("confidence", sg.Confidence))

	return nil
}

// RecordMetric stores a performance sample for this agent or, when
// agentID is set, on behalf of another agent
func (a *BaseAgent) RecordMetric(ctx context.Context, agentID, metric string, value float64, detail map[string]interface{}) error {
	if a.deps.Store == nil {
		return fmt.Errorf("database not available")
	}
	if agentID == "" {
		agentID = a.name
	}

	rec := &database.PerformanceRecord{
		AgentID: agentID,
		Metric:  metric,
		Value:   value,
		Context: detail,
	}
	if err := a.deps.Store.LogPerformance(ctx, rec); err != nil {
		return fmt.Errorf("failed to record metric: %w", err)
	}
	return nil
}

// Audit writes an entry to the decision trail. Failures are logged, not returned.
func (a *BaseAgent) Audit(action, subject string, confidence float64, detail map[string]interface{}) {
	if !a.deps.Audit.Enabled() {
		return
	}
	err := a.deps.Audit.Log(audit.Entry{
		Agent:      a.name,
		Action:     action,
		Subject:    subject,
		Confidence: confidence,
		Detail:     detail,
	})
	if err != nil {
		a.log.Warn("audit write failed", zap.Error(err))
	}
}

// Threshold returns this agent's adaptive threshold
func (a *BaseAgent) Threshold() agency.Threshold {
	if a.deps.Thresholds == nil {
		return agency.Threshold{}
	}
	return a.deps.Thresholds.Get(a.name)
}

// NewResult starts a successful result for task
func (a *BaseAgent) NewResult(task *Task) *Result {
	return &Result{
		TaskID:   task.ID,
		Agent:    a.name,
		Success:  true,
		Metadata: make(map[string]interface{}),
	}
}

// Fail marks the result failed with err and returns both
func (a *BaseAgent) Fail(res *Result, err error) (*Result, error) {
	res.Success = false
	res.Error = err.Error()
	res.CompletedAt = time.Now()
	a.log.Error("task failed", zap.String("task_id", res.TaskID), zap.Error(err))
	return res, err
}
