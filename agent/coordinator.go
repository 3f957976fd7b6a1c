package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"cryptointel/metrics"
)

const defaultHistory = 200

// Coordinator runs agent cycles: hunt, strategize, review, optimize
type Coordinator struct {
	registry   *Registry
	metrics    *metrics.Metrics
	logger     *zap.Logger
	tasks      map[string]*Task
	results    map[string]*Result
	order      []string // task IDs, oldest first
	maxHistory int
	cycle      int
	mu         sync.RWMutex
	cycleMu    sync.Mutex    // one cycle at a time
	semaphore  chan struct{} // bounds concurrent agent executions
	now        func() time.Time
}

// NewCoordinator creates a new agent coordinator
func NewCoordinator(registry *Registry, logger *zap.Logger, m *metrics.Metrics) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	maxConcurrent := 2
	return &Coordinator{
		registry:   registry,
		metrics:    m,
		logger:     logger.Named("coordinator"),
		tasks:      make(map[string]*Task),
		results:    make(map[string]*Result),
		maxHistory: defaultHistory,
		semaphore:  make(chan struct{}, maxConcurrent),
		now:        time.Now,
	}
}

// SetMaxConcurrent sets the maximum concurrent agent executions
func (c *Coordinator) SetMaxConcurrent(max int) {
	if max < 1 {
		max = 1
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.semaphore = make(chan struct{}, max)
}

// Registry returns the agent registry
func (c *Coordinator) Registry() *Registry {
	return c.registry
}

// Cycles returns how many cycles have started
func (c *Coordinator) Cycles() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cycle
}

// RunCycle executes each cycle step through every capable agent. Steps run
// in order; later steps see the market snapshots and accepted suggestions
// of earlier ones. A failing step does not stop the cycle; errors are joined.
func (c *Coordinator) RunCycle(ctx context.Context) (*CycleReport, error) {
	c.cycleMu.Lock()
	defer c.cycleMu.Unlock()

	c.mu.Lock()
	c.cycle++
	n := c.cycle
	c.mu.Unlock()

	start := c.now()
	report := &CycleReport{Cycle: n, StartedAt: start}
	var errs []error

	for _, step := range CycleSteps {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		task := c.newTask(step, n, report)
		agents := c.registry.FindCapable(task)
		if len(agents) == 0 {
			c.logger.Debug("no agent for step", zap.String("step", step))
			continue
		}

		results, err := c.runStep(ctx, task, agents)
		for _, res := range results {
			report.merge(res)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", step, err))
		}
	}

	report.Duration = c.now().Sub(start)
	if c.metrics != nil {
		c.metrics.ObserveCycle(report.Duration, len(errs) > 0)
	}

	c.logger.Info("cycle complete",
		zap.Int("cycle", n),
		zap.Duration("duration", report.Duration),
		zap.Int("discoveries", len(report.Discoveries)),
		zap.Int("suggestions", len(report.Suggestions)),
		zap.Int("accepted", len(report.Accepted)),
		zap.Int("errors", len(errs)))

	return report, errors.Join(errs...)
}

// runStep executes a step on each capable agent concurrently
func (c *Coordinator) runStep(ctx context.Context, task *Task, agents []Agent) ([]*Result, error) {
	if len(agents) == 1 {
		res, err := c.ExecuteTask(ctx, task, agents[0])
		return []*Result{res}, err
	}

	results := make([]*Result, len(agents))
	errs := make([]error, len(agents))
	var g errgroup.Group
	for i, ag := range agents {
		t := *task
		t.ID = uuid.New().String()
		g.Go(func() error {
			results[i], errs[i] = c.ExecuteTask(ctx, &t, ag)
			return nil
		})
	}
	_ = g.Wait()

	return results, errors.Join(errs...)
}

// ExecuteTask executes a task with a specific agent
func (c *Coordinator) ExecuteTask(ctx context.Context, task *Task, agent Agent) (*Result, error) {
	c.mu.RLock()
	sem := c.semaphore
	c.mu.RUnlock()

	select {
	case sem <- struct{}{}:
		defer func() { <-sem }()
	case <-ctx.Done():
		return &Result{TaskID: task.ID, Agent: agent.Name(), Error: ctx.Err().Error()}, ctx.Err()
	}

	c.track(task)
	c.mu.Lock()
	task.Status = TaskInProgress
	task.AgentName = agent.Name()
	c.mu.Unlock()

	c.registry.setBusy(agent.Name(), true)
	defer c.registry.setBusy(agent.Name(), false)

	start := c.now()
	result, err := agent.Execute(ctx, task)
	if result == nil {
		result = &Result{TaskID: task.ID, Agent: agent.Name()}
	}
	if err != nil {
		result.Success = false
		if result.Error == "" {
			result.Error = err.Error()
		}
	}
	result.Duration = c.now().Sub(start)
	result.CompletedAt = c.now()

	c.mu.Lock()
	if err != nil || !result.Success {
		task.Status = TaskFailed
	} else {
		task.Status = TaskCompleted
	}
	c.results[task.ID] = result
	c.mu.Unlock()

	c.logger.Debug("task finished",
		zap.String("task_id", task.ID),
		zap.String("type", task.Type),
		zap.String("agent", agent.Name()),
		zap.String("status", string(task.Status)),
		zap.Duration("duration", result.Duration))

	return result, err
}

// GetTaskStatus returns a task and its result, if any
func (c *Coordinator) GetTaskStatus(taskID string) (*Task, *Result, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	task, ok := c.tasks[taskID]
	if !ok {
		return nil, nil, fmt.Errorf("task not found: %s", taskID)
	}

	return task, c.results[taskID], nil
}

// ListTasks returns retained tasks, oldest first
func (c *Coordinator) ListTasks() []Task {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tasks := make([]Task, 0, len(c.order))
	for _, id := range c.order {
		tasks = append(tasks, *c.tasks[id])
	}

	return tasks
}

func (c *Coordinator) newTask(step string, cycle int, report *CycleReport) *Task {
	return &Task{
		ID:        uuid.New().String(),
		Type:      step,
		Cycle:     cycle,
		Market:    append(report.Market[:0:0], report.Market...),
		Accepted:  append([]string(nil), report.Accepted...),
		CreatedAt: c.now(),
		Status:    TaskPending,
	}
}

// track records a task, dropping the oldest beyond the history limit
func (c *Coordinator) track(task *Task) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.tasks[task.ID]; ok {
		return
	}
	c.tasks[task.ID] = task
	c.order = append(c.order, task.ID)

	for len(c.order) > c.maxHistory {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.tasks, oldest)
		delete(c.results, oldest)
	}
}
