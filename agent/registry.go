package agent

import (
	"fmt"
	"sort"
	"sync"
)

// Registry manages all available agents
type Registry struct {
	agents map[string]Agent
	busy   map[string]bool
	mu     sync.RWMutex
}

// NewRegistry creates a new agent registry
func NewRegistry() *Registry {
	return &Registry{
		agents: make(map[string]Agent),
		busy:   make(map[string]bool),
	}
}

// Register registers an agent
func (r *Registry) Register(agent Agent) error {
	if agent == nil {
		return fmt.Errorf("agent cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	name := agent.Name()
	if name == "" {
		return fmt.Errorf("agent name cannot be empty")
	}
	if _, exists := r.agents[name]; exists {
		return fmt.Errorf("agent '%s' already registered", name)
	}

	r.agents[name] = agent
	return nil
}

// Get retrieves an agent by name
func (r *Registry) Get(name string) (Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	agent, exists := r.agents[name]
	if !exists {
		return nil, fmt.Errorf("agent '%s' not found", name)
	}

	return agent, nil
}

// List returns all registered agents ordered by name
func (r *Registry) List() []Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	agents := make([]Agent, 0, len(r.agents))
	for _, agent := range r.agents {
		agents = append(agents, agent)
	}
	sortAgents(agents)

	return agents
}

// ListInfo returns information about all agents
func (r *Registry) ListInfo() []AgentInfo {
	agents := r.List()

	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]AgentInfo, 0, len(agents))
	for _, agent := range agents {
		status := "available"
		if r.busy[agent.Name()] {
			status = "busy"
		}
		infos = append(infos, AgentInfo{
			Name:   agent.Name(),
			Role:   agent.Role(),
			Status: status,
		})
	}

	return infos
}

// FindCapable finds agents capable of handling a task, ordered by name
func (r *Registry) FindCapable(task *Task) []Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	capable := make([]Agent, 0)
	for _, agent := range r.agents {
		if agent.CanHandle(task) {
			capable = append(capable, agent)
		}
	}
	sortAgents(capable)

	return capable
}

func (r *Registry) setBusy(name string, busy bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.busy[name] = busy
}

func sortAgents(agents []Agent) {
	sort.Slice(agents, func(i, j int) bool {
		return agents[i].Name() < agents[j].Name()
	})
}
