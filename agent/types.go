package agent

import (
	"context"
	"time"

	"cryptointel/agency"
	"cryptointel/database"
	"cryptointel/market"
)

// Agent represents an autonomous agent that can execute tasks
type Agent interface {
	// Name returns the agent's unique name
	Name() string

	// Role returns what the agent does in a cycle
	Role() Role

	// CanHandle checks if the agent can handle a specific task
	CanHandle(task *Task) bool

	// Execute executes a task and returns the result
	Execute(ctx context.Context, task *Task) (*Result, error)
}

// Role describes an agent's place in the cycle
type Role string

const (
	RoleHunter       Role = "hunter"
	RoleOrchestrator Role = "orchestrator"
	RoleReviewer     Role = "reviewer"
	RoleOptimizer    Role = "optimizer"
)

// TaskType constants; a cycle runs them in this order
const (
	TaskTypeHunt       = "hunt"
	TaskTypeStrategize = "strategize"
	TaskTypeReview     = "review"
	TaskTypeOptimize   = "optimize"
)

// CycleSteps is the task sequence of one cycle
var CycleSteps = []string{TaskTypeHunt, TaskTypeStrategize, TaskTypeReview, TaskTypeOptimize}

// Task represents a task to be executed by an agent
type Task struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Cycle     int                    `json:"cycle"`
	Input     map[string]interface{} `json:"input,omitempty"`
	Market    []market.Snapshot      `json:"market,omitempty"` // snapshots gathered earlier in the cycle
	Accepted  []string               `json:"accepted,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
	Status    TaskStatus             `json:"status"`
	AgentName string                 `json:"agent_name"`
}

// TaskStatus represents the status of a task
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
)

// Result represents the result of task execution
type Result struct {
	TaskID      string                      `json:"task_id"`
	Agent       string                      `json:"agent"`
	Success     bool                        `json:"success"`
	Summary     string                      `json:"summary"`
	Error       string                      `json:"error,omitempty"`
	Market      []market.Snapshot           `json:"market,omitempty"`
	Discoveries []database.AlphaDiscovery   `json:"discoveries,omitempty"`
	Suggestions []database.Suggestion       `json:"suggestions,omitempty"`
	Decision    *database.StrategicDecision `json:"decision,omitempty"`
	Regime      *agency.RegimeAssessment    `json:"regime,omitempty"`
	Accepted    []string                    `json:"accepted,omitempty"`
	Expired     int                         `json:"expired,omitempty"`
	Feedback    []database.Feedback         `json:"feedback,omitempty"` // feedback produced by this task
	Adjustments []ThresholdChange           `json:"adjustments,omitempty"`
	Metadata    map[string]interface{}      `json:"metadata,omitempty"`
	CompletedAt time.Time                   `json:"completed_at"`
	Duration    time.Duration               `json:"duration"`
}

// ThresholdChange records one adaptive threshold step
type ThresholdChange struct {
	AgentID  string  `json:"agent_id"`
	Before   float64 `json:"before"`
	After    float64 `json:"after"`
	Accuracy float64 `json:"accuracy"`
	Samples  int     `json:"samples"`
}

// Moved reports whether the threshold changed
func (c ThresholdChange) Moved() bool {
	return c.Before != c.After
}

// AgentInfo provides information about an agent
type AgentInfo struct {
	Name   string `json:"name"`
	Role   Role   `json:"role"`
	Status string `json:"status"` // "available", "busy"
}

// CycleReport aggregates the results of one cycle
type CycleReport struct {
	Cycle       int                         `json:"cycle"`
	StartedAt   time.Time                   `json:"started_at"`
	Duration    time.Duration               `json:"duration"`
	Market      []market.Snapshot           `json:"market,omitempty"`
	Discoveries []database.AlphaDiscovery   `json:"discoveries,omitempty"`
	Suggestions []database.Suggestion       `json:"suggestions,omitempty"`
	Regime      *agency.RegimeAssessment    `json:"regime,omitempty"`
	Decision    *database.StrategicDecision `json:"decision,omitempty"`
	Accepted    []string                    `json:"accepted,omitempty"`
	Expired     int                         `json:"expired,omitempty"`
	Feedback    []database.Feedback         `json:"feedback,omitempty"`
	Adjustments []ThresholdChange           `json:"adjustments,omitempty"`
	Results     []*Result                   `json:"results"`
	Errors      []string                    `json:"errors,omitempty"`
}

// merge folds a step result into the report
func (r *CycleReport) merge(res *Result) {
	r.Results = append(r.Results, res)
	if res.Error != "" {
		r.Errors = append(r.Errors, res.Agent+": "+res.Error)
	}
	r.Market = append(r.Market, res.Market...)
	r.Discoveries = append(r.Discoveries, res.Discoveries...)
	r.Suggestions = append(r.Suggestions, res.Suggestions...)
	r.Accepted = append(r.Accepted, res.Accepted...)
	r.Expired += res.Expired
	r.Feedback = append(r.Feedback, res.Feedback...)
	r.Adjustments = append(r.Adjustments, res.Adjustments...)
	if res.Decision != nil {
		r.Decision = res.Decision
	}
	if res.Regime != nil {
		r.Regime = res.Regime
	}
}
