package agent_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptointel/agent"
)

// mockAgent is a simple mock agent for testing
type mockAgent struct {
	name      string
	role      agent.Role
	canHandle func(*agent.Task) bool
	execute   func(context.Context, *agent.Task) (*agent.Result, error)
	delay     time.Duration
}

func (m *mockAgent) Name() string {
	return m.name
}

func (m *mockAgent) Role() agent.Role {
	return m.role
}

func (m *mockAgent) CanHandle(task *agent.Task) bool {
	if m.canHandle != nil {
		return m.canHandle(task)
	}
	return true
}

func (m *mockAgent) Execute(ctx context.Context, task *agent.Task) (*agent.Result, error) {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.execute != nil {
		return m.execute(ctx, task)
	}
	return &agent.Result{
		TaskID:  task.ID,
		Success: true,
		Summary: "mock result",
		Agent:   m.name,
	}, nil
}

func handles(types ...string) func(*agent.Task) bool {
	return func(task *agent.Task) bool {
		for _, t := range types {
			if task.Type == t {
				return true
			}
		}
		return false
	}
}

func TestNewRegistry(t *testing.T) {
	registry := agent.NewRegistry()

	require.NotNil(t, registry)
	assert.Len(t, registry.List(), 0)
}

func TestRegisterAgent(t *testing.T) {
	registry := agent.NewRegistry()

	err := registry.Register(&mockAgent{name: "test-agent", role: agent.RoleHunter})
	require.NoError(t, err)

	agents := registry.List()
	assert.Len(t, agents, 1)
	assert.Equal(t, "test-agent", agents[0].Name())
}

func TestRegisterAgentInvalid(t *testing.T) {
	registry := agent.NewRegistry()

	assert.Error(t, registry.Register(nil))
	assert.Error(t, registry.Register(&mockAgent{}))
}

func TestRegisterAgentDuplicate(t *testing.T) {
	registry := agent.NewRegistry()

	require.NoError(t, registry.Register(&mockAgent{name: "duplicate"}))

	err := registry.Register(&mockAgent{name: "duplicate"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestGetAgent(t *testing.T) {
	registry := agent.NewRegistry()
	require.NoError(t, registry.Register(&mockAgent{name: "get-test", role: agent.RoleOptimizer}))

	retrieved, err := registry.Get("get-test")
	require.NoError(t, err)
	assert.Equal(t, "get-test", retrieved.Name())
	assert.Equal(t, agent.RoleOptimizer, retrieved.Role())
}

func TestGetAgentNotFound(t *testing.T) {
	registry := agent.NewRegistry()

	_, err := registry.Get("nonexistent")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestListSortedByName(t *testing.T) {
	registry := agent.NewRegistry()
	for _, name := range []string{"charlie", "alpha", "bravo"} {
		require.NoError(t, registry.Register(&mockAgent{name: name}))
	}

	var names []string
	for _, a := range registry.List() {
		names = append(names, a.Name())
	}
	assert.Equal(t, []string{"alpha", "bravo", "charlie"}, names)
}

func TestListInfo(t *testing.T) {
	registry := agent.NewRegistry()
	require.NoError(t, registry.Register(&mockAgent{name: "info-test", role: agent.RoleHunter}))

	infos := registry.ListInfo()
	require.Len(t, infos, 1)
	assert.Equal(t, agent.AgentInfo{Name: "info-test", Role: agent.RoleHunter, Status: "available"}, infos[0])
}

func TestFindCapable(t *testing.T) {
	registry := agent.NewRegistry()
	registry.Register(&mockAgent{name: "hunter", canHandle: handles(agent.TaskTypeHunt)})
	registry.Register(&mockAgent{name: "orchestrator", canHandle: handles(agent.TaskTypeStrategize)})
	registry.Register(&mockAgent{name: "optimizer", canHandle: handles(agent.TaskTypeOptimize)})

	capable := registry.FindCapable(&agent.Task{Type: agent.TaskTypeHunt})
	require.Len(t, capable, 1)
	assert.Equal(t, "hunter", capable[0].Name())

	capable = registry.FindCapable(&agent.Task{Type: agent.TaskTypeOptimize})
	require.Len(t, capable, 1)
	assert.Equal(t, "optimizer", capable[0].Name())

	assert.Empty(t, registry.FindCapable(&agent.Task{Type: agent.TaskTypeReview}))
}

func TestFindCapableMultiple(t *testing.T) {
	registry := agent.NewRegistry()
	registry.Register(&mockAgent{name: "hunter-b", canHandle: handles(agent.TaskTypeHunt)})
	registry.Register(&mockAgent{name: "hunter-a", canHandle: handles(agent.TaskTypeHunt)})

	capable := registry.FindCapable(&agent.Task{Type: agent.TaskTypeHunt})
	require.Len(t, capable, 2, "Both agents should be capable")
	assert.Equal(t, "hunter-a", capable[0].Name())
}

func TestConcurrentRegistration(t *testing.T) {
	registry := agent.NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			registry.Register(&mockAgent{name: fmt.Sprintf("concurrent-%d", index)})
			registry.List()
			registry.ListInfo()
		}(i)
	}
	wg.Wait()

	assert.Len(t, registry.List(), 10)
}
