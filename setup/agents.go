package setup

import (
	"fmt"

	"cryptointel/agent"
	"cryptointel/agent/agents"
)

// maxConcurrentAgents bounds parallel executions within a cycle step
const maxConcurrentAgents = 4

// initializeAgents registers the cycle's agents and builds the coordinator
func (b *Bootstrap) initializeAgents() error {
	cfg := b.Config
	deps := b.Deps()

	b.Registry = agent.NewRegistry()

	hunter := agents.NewMarketHunter(deps, b.Source, cfg.Agents.Hunter)
	if err := b.Registry.Register(hunter); err != nil {
		return fmt.Errorf("failed to register hunter: %w", err)
	}

	orchestrator, err := agents.NewStrategicOrchestrator(deps, cfg.Agents.Orchestrator)
	if err != nil {
		return fmt.Errorf("failed to create orchestrator: %w", err)
	}
	if err := b.Registry.Register(orchestrator); err != nil {
		return fmt.Errorf("failed to register orchestrator: %w", err)
	}
	b.Orchestrator = orchestrator

	if cfg.Simulation.Feedback {
		reviewer := agents.NewFeedbackSimulator(deps, cfg.Simulation.Seed)
		if err := b.Registry.Register(reviewer); err != nil {
			return fmt.Errorf("failed to register reviewer: %w", err)
		}
	}

	b.Optimizer = agents.NewPerformanceOptimizer(deps, cfg.Agents.Optimizer)
	if err := b.Registry.Register(b.Optimizer); err != nil {
		return fmt.Errorf("failed to register optimizer: %w", err)
	}

	b.Coordinator = agent.NewCoordinator(b.Registry, b.Logger, b.Metrics)
	b.Coordinator.SetMaxConcurrent(maxConcurrentAgents)

	return nil
}
