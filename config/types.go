package config

import (
	"time"
)

// Config represents the application configuration
type Config struct {
	Database   DatabaseConfig   `yaml:"database" toml:"database"`
	Logging    LoggingConfig    `yaml:"logging" toml:"logging"`
	Audit      AuditConfig      `yaml:"audit" toml:"audit"`
	Simulation SimulationConfig `yaml:"simulation" toml:"simulation"`
	Reputation ReputationConfig `yaml:"reputation" toml:"reputation"`
	Agents     AgentsConfig     `yaml:"agents" toml:"agents"`
	Dashboard  DashboardConfig  `yaml:"dashboard" toml:"dashboard"`
	Stream     StreamConfig     `yaml:"stream" toml:"stream"`
}

// DatabaseConfig points at the SQLite file holding agent records
type DatabaseConfig struct {
	Path string `yaml:"path" toml:"path" validate:"required"`
}

// LoggingConfig controls the zap logger
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" toml:"format" validate:"oneof=json console"`
}

// AuditConfig defines decision audit settings
type AuditConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	LogPath string `yaml:"log_path" toml:"log_path" validate:"required_if=Enabled true"`
}

// SimulationConfig seeds the simulated market
type SimulationConfig struct {
	Seed uint64 `yaml:"seed" toml:"seed"`
	// Feedback turns on the simulated reviewer that resolves accepted suggestions.
	Feedback bool `yaml:"feedback" toml:"feedback"`
}

// ReputationConfig tunes the decayed reputation average
type ReputationConfig struct {
	HalfLife time.Duration `yaml:"half_life" toml:"half_life" validate:"gt=0"`
	Default  float64       `yaml:"default" toml:"default" validate:"gte=0,lte=1"`
}

// AgentsConfig groups per-agent settings
type AgentsConfig struct {
	Hunter       HunterConfig       `yaml:"hunter" toml:"hunter"`
	Orchestrator OrchestratorConfig `yaml:"orchestrator" toml:"orchestrator"`
	Optimizer    OptimizerConfig    `yaml:"optimizer" toml:"optimizer"`
}

// HunterConfig defines what the market hunter scans
type HunterConfig struct {
	Watchlist     []string `yaml:"watchlist" toml:"watchlist" validate:"min=1,dive,required"`
	MinConfidence float64  `yaml:"min_confidence" toml:"min_confidence" validate:"gte=0,lte=1"`
	WhaleFlow     float64  `yaml:"whale_flow_threshold" toml:"whale_flow_threshold" validate:"gt=0"`
	Concurrency   int      `yaml:"concurrency" toml:"concurrency" validate:"gte=1"`
}

// OrchestratorConfig bounds strategic decisions
type OrchestratorConfig struct {
	MaxAccepted   int           `yaml:"max_accepted" toml:"max_accepted" validate:"gte=1"`
	MinConfidence float64       `yaml:"min_confidence" toml:"min_confidence" validate:"gte=0,lte=1"`
	MaxAge        time.Duration `yaml:"max_suggestion_age" toml:"max_suggestion_age" validate:"gt=0"`
	Goals         []GoalConfig  `yaml:"goals" toml:"goals" validate:"dive"`
}

// GoalConfig seeds the goal hierarchy
type GoalConfig struct {
	Description string       `yaml:"description" toml:"description" validate:"required"`
	Priority    float64      `yaml:"priority" toml:"priority" validate:"gte=0,lte=1"`
	Children    []GoalConfig `yaml:"children,omitempty" toml:"children" validate:"dive"`
}

// OptimizerConfig drives the adaptive thresholds
type OptimizerConfig struct {
	TargetAccuracy float64 `yaml:"target_accuracy" toml:"target_accuracy" validate:"gte=0,lte=1"`
	Step           float64 `yaml:"step" toml:"step" validate:"gt=0,lt=1"`
	MinThreshold   float64 `yaml:"min_threshold" toml:"min_threshold" validate:"gte=0,lte=1"`
	MaxThreshold   float64 `yaml:"max_threshold" toml:"max_threshold" validate:"gte=0,lte=1,gtefield=MinThreshold"`
}

// DashboardConfig defines the HTTP dashboard
type DashboardConfig struct {
	Addr string `yaml:"addr" toml:"addr" validate:"required"`
}

// StreamConfig paces the streaming demo
type StreamConfig struct {
	Interval time.Duration `yaml:"interval" toml:"interval" validate:"gt=0"`
	Cycles   int           `yaml:"cycles" toml:"cycles" validate:"gte=0"`
}
