package database

import (
	"time"

	"cryptointel/agency"
)

// SuggestionStatus tracks review of a suggestion
type SuggestionStatus string

const (
	SuggestionPending  SuggestionStatus = "pending"
	SuggestionAccepted SuggestionStatus = "accepted"
	SuggestionRejected SuggestionStatus = "rejected"
	SuggestionExpired  SuggestionStatus = "expired"
)

// Suggestion types
const (
	SuggestionAlphaOpportunity    = "alpha_opportunity"
	SuggestionThresholdAdjustment = "threshold_adjustment"
	SuggestionRiskAlert           = "risk_alert"
)

// Suggestion is an agent recommendation persisted for review
type Suggestion struct {
	ID         string                 `json:"id"`
	AgentID    string                 `json:"agent_id" validate:"required"`
	Type       string                 `json:"type" validate:"required"`
	Data       map[string]interface{} `json:"data,omitempty"`
	Confidence float64                `json:"confidence" validate:"gte=0,lte=1"`
	Urgency    agency.Urgency         `json:"urgency" validate:"oneof=low medium high critical"`
	Rationale  string                 `json:"rationale"`
	Status     SuggestionStatus       `json:"status" validate:"omitempty,oneof=pending accepted rejected expired"`
	CreatedAt  time.Time              `json:"created_at"`
	ReviewedAt *time.Time             `json:"reviewed_at,omitempty"`
}

// Candidate converts the suggestion for ranking
func (s Suggestion) Candidate() agency.Candidate {
	return agency.Candidate{
		ID:         s.ID,
		AgentID:    s.AgentID,
		Confidence: s.Confidence,
		Urgency:    s.Urgency,
		CreatedAt:  s.CreatedAt,
	}
}

// SuggestionFilter narrows ListSuggestions
type SuggestionFilter struct {
	AgentID       string
	Status        SuggestionStatus
	Type          string
	MinConfidence float64
	Unreviewed    bool // only suggestions with no feedback yet
	Limit         int
}

// PerformanceRecord is one metric sample for an agent
type PerformanceRecord struct {
	ID         int64                  `json:"id"`
	AgentID    string                 `json:"agent_id" validate:"required"`
	Metric     string                 `json:"metric" validate:"required"`
	Value      float64                `json:"value"`
	Context    map[string]interface{} `json:"context,omitempty"`
	RecordedAt time.Time              `json:"recorded_at"`
}

// Performance metric names
const (
	MetricAccuracy    = "accuracy"
	MetricThreshold   = "threshold"
	MetricReputation  = "reputation"
	MetricDiscoveries = "discoveries"
	MetricAccepted    = "accepted"
)

// DiscoveryKind classifies an alpha discovery
type DiscoveryKind string

const (
	DiscoveryWhaleAccumulation DiscoveryKind = "whale_accumulation"
	DiscoveryVolumeBreakout    DiscoveryKind = "volume_breakout"
	DiscoveryMomentum          DiscoveryKind = "momentum"
	DiscoveryMeanReversion     DiscoveryKind = "mean_reversion"
)

// DiscoveryStatus tracks whether a discovery held up
type DiscoveryStatus string

const (
	DiscoveryOpen        DiscoveryStatus = "open"
	DiscoveryValidated   DiscoveryStatus = "validated"
	DiscoveryInvalidated DiscoveryStatus = "invalidated"
)

// AlphaDiscovery is a claimed trading opportunity
type AlphaDiscovery struct {
	ID            string                 `json:"id"`
	AgentID       string                 `json:"agent_id" validate:"required"`
	Symbol        string                 `json:"symbol" validate:"required"`
	Kind          DiscoveryKind          `json:"kind" validate:"oneof=whale_accumulation volume_breakout momentum mean_reversion"`
	ExpectedValue float64                `json:"expected_value"`
	Confidence    float64                `json:"confidence" validate:"gte=0,lte=1"`
	Timeframe     string                 `json:"timeframe"`
	Data          map[string]interface{} `json:"data,omitempty"`
	Status        DiscoveryStatus        `json:"status" validate:"omitempty,oneof=open validated invalidated"`
	DiscoveredAt  time.Time              `json:"discovered_at"`
}

// DiscoveryFilter narrows ListAlphaDiscoveries
type DiscoveryFilter struct {
	AgentID string
	Symbol  string
	Kind    DiscoveryKind
	Status  DiscoveryStatus
	Limit   int
}

// StrategicDecision records what the orchestrator chose and why
type StrategicDecision struct {
	ID             string                 `json:"id"`
	AgentID        string                 `json:"agent_id" validate:"required"`
	DecisionType   string                 `json:"decision_type" validate:"required"`
	Regime         agency.Regime          `json:"regime"`
	Strategy       string                 `json:"strategy"`
	Rationale      string                 `json:"rationale"`
	Confidence     float64                `json:"confidence" validate:"gte=0,lte=1"`
	ExpectedImpact float64                `json:"expected_impact"`
	SuggestionIDs  []string               `json:"suggestion_ids,omitempty"`
	Data           map[string]interface{} `json:"data,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
}

// Decision types
const (
	DecisionAllocate = "allocate"
	DecisionHold     = "hold"
)

// FeedbackOutcome is the verdict on a suggestion
type FeedbackOutcome string

const (
	OutcomePositive FeedbackOutcome = "positive"
	OutcomeNegative FeedbackOutcome = "negative"
	OutcomeNeutral  FeedbackOutcome = "neutral"
)

// Valid reports whether o is a known outcome
func (o FeedbackOutcome) Valid() bool {
	switch o {
	case OutcomePositive, OutcomeNegative, OutcomeNeutral:
		return true
	}
	return false
}

// DefaultScore is the score used when a reviewer gives only an outcome
func (o FeedbackOutcome) DefaultScore() float64 {
	switch o {
	case OutcomePositive:
		return 1
	case OutcomeNegative:
		return -1
	default:
		return 0
	}
}

// Feedback is a verdict recorded against a suggestion
type Feedback struct {
	ID           int64           `json:"id"`
	SuggestionID string          `json:"suggestion_id" validate:"required"`
	AgentID      string          `json:"agent_id"`
	Outcome      FeedbackOutcome `json:"outcome" validate:"oneof=positive negative neutral"`
	Score        float64         `json:"score" validate:"gte=-1,lte=1"`
	Comment      string          `json:"comment,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// FeedbackFilter narrows ListFeedback
type FeedbackFilter struct {
	SuggestionID string
	AgentID      string
	AfterID      int64 // only feedback with a larger ID
	Limit        int
}

// Stats summarizes the database
type Stats struct {
	Suggestions         int                `json:"suggestions"`
	PendingSuggestions  int                `json:"pending_suggestions"`
	AcceptedSuggestions int                `json:"accepted_suggestions"`
	Discoveries         int                `json:"discoveries"`
	Decisions           int                `json:"decisions"`
	Feedback            int                `json:"feedback"`
	PerformanceRecords  int                `json:"performance_records"`
	AgentConfidence     map[string]float64 `json:"agent_confidence"`
}
