// Package setup wires configuration into a running agent system.
package setup

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"cryptointel/agency"
	"cryptointel/agent"
	"cryptointel/agent/agents"
	"cryptointel/config"
	"cryptointel/core/audit"
	"cryptointel/database"
	"cryptointel/market"
	"cryptointel/metrics"
)

// Bootstrap contains all initialized components
type Bootstrap struct {
	Config       *config.Config
	Logger       *zap.Logger
	Store        *database.Store
	Metrics      *metrics.Metrics
	Audit        *audit.Logger
	Reputation   *agency.ReputationModel
	Thresholds   *agency.ThresholdBook
	Bus          *agent.FeedbackBus
	Source       market.Source
	Registry     *agent.Registry
	Coordinator  *agent.Coordinator
	Orchestrator *agents.StrategicOrchestrator
	Optimizer    *agents.PerformanceOptimizer

	cancel context.CancelFunc
}

// Option customizes Initialize
type Option func(*options)

type options struct {
	source market.Source
	store  *database.Store
}

// WithSource replaces the simulated market
func WithSource(src market.Source) Option {
	return func(o *options) { o.source = src }
}

// WithStore uses an already open store instead of opening cfg.Database.Path.
// Cleanup still closes it.
func WithStore(store *database.Store) Option {
	return func(o *options) { o.store = store }
}

// Initialize bootstraps the agent system. The feedback bus runs until
// Cleanup is called.
func Initialize(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...Option) (*Bootstrap, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	b := &Bootstrap{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.New(),
		Audit:   audit.New(cfg.Audit.LogPath, cfg.Audit.Enabled),
	}

	b.Store = o.store
	if b.Store == nil {
		store, err := database.Open(cfg.Database.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		b.Store = store
	}

	b.Source = o.source
	if b.Source == nil {
		b.Source = market.NewSimulated(cfg.Simulation.Seed)
	}

	b.Reputation = agency.NewReputationModel(cfg.Reputation.HalfLife, cfg.Reputation.Default)
	b.Thresholds = agency.NewThresholdBook(agency.Threshold{
		Value:  cfg.Agents.Hunter.MinConfidence,
		Min:    cfg.Agents.Optimizer.MinThreshold,
		Max:    cfg.Agents.Optimizer.MaxThreshold,
		Step:   cfg.Agents.Optimizer.Step,
		Target: cfg.Agents.Optimizer.TargetAccuracy,
	})

	b.Bus = agent.NewFeedbackBus(100, logger)
	busCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	b.cancel = cancel
	b.Bus.RegisterAll(b.auditFeedback)
	b.Bus.Start(busCtx)

	if err := b.initializeAgents(); err != nil {
		b.Cleanup()
		return nil, err
	}

	logger.Info("agent system ready",
		zap.String("database", cfg.Database.Path),
		zap.Int("agents", len(b.Registry.List())),
		zap.Bool("simulated_feedback", cfg.Simulation.Feedback))

	return b, nil
}

// Deps returns the shared services handed to agents
func (b *Bootstrap) Deps() agent.Deps {
	return agent.Deps{
		Store:      b.Store,
		Logger:     b.Logger,
		Metrics:    b.Metrics,
		Audit:      b.Audit,
		Reputation: b.Reputation,
		Thresholds: b.Thresholds,
		Bus:        b.Bus,
	}
}

// RunCycle runs one hunt/strategize/review/optimize cycle
func (b *Bootstrap) RunCycle(ctx context.Context) (*agent.CycleReport, error) {
	return b.Coordinator.RunCycle(ctx)
}

// RecordFeedback stores a reviewer verdict and publishes it
func (b *Bootstrap) RecordFeedback(ctx context.Context, fb *database.Feedback) error {
	return agent.RecordFeedback(ctx, b.Deps(), fb)
}

// Cleanup stops the feedback bus and closes the database
func (b *Bootstrap) Cleanup() {
	if b.cancel != nil {
		b.cancel()
		b.Bus.Wait()
		b.cancel = nil
	}
	if b.Store != nil {
		if err := b.Store.Close(); err != nil {
			b.Logger.Warn("database close failed", zap.Error(err))
		}
		b.Store = nil
	}
}

// auditFeedback writes published feedback to the decision trail
func (b *Bootstrap) auditFeedback(_ context.Context, fb *database.Feedback) error {
	b.Logger.Debug("feedback received",
		zap.String("suggestion", fb.SuggestionID),
		zap.String("agent", fb.AgentID),
		zap.String("outcome", string(fb.Outcome)))

	return b.Audit.Log(audit.Entry{
		Agent:      fb.AgentID,
		Action:     audit.ActionFeedback,
		Subject:    fb.SuggestionID,
		Confidence: fb.Score,
		Detail: map[string]interface{}{
			"outcome": string(fb.Outcome),
			"comment": fb.Comment,
		},
	})
}
