// Package agency holds the scoring models the agents share: the goal
// hierarchy, agent reputation, market regime classification, suggestion
// ranking and adaptive confidence thresholds.
package agency

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// GoalStatus represents the lifecycle of a goal
type GoalStatus string

const (
	GoalActive    GoalStatus = "active"
	GoalCompleted GoalStatus = "completed"
	GoalAbandoned GoalStatus = "abandoned"
)

// ErrGoalNotFound is returned for unknown goal IDs
var ErrGoalNotFound = errors.New("goal not found")

// Goal is a node in the goal hierarchy
type Goal struct {
	ID          string     `json:"id"`
	Description string     `json:"description"`
	Priority    float64    `json:"priority"`
	Progress    float64    `json:"progress"`
	ParentID    string     `json:"parent_id,omitempty"`
	Children    []string   `json:"children,omitempty"`
	Status      GoalStatus `json:"status"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// GoalNode is a nested view of a goal and its subtree
type GoalNode struct {
	Goal     Goal        `json:"goal"`
	Children []*GoalNode `json:"children,omitempty"`
}

// GoalHierarchy is a tree of goals keyed by ID
type GoalHierarchy struct {
	goals map[string]*Goal
	order []string // insertion order, for stable Roots()
	mu    sync.RWMutex
	now   func() time.Time
}

// NewGoalHierarchy creates an empty hierarchy
func NewGoalHierarchy() *GoalHierarchy {
	return &GoalHierarchy{
		goals: make(map[string]*Goal),
		now:   time.Now,
	}
}

// AddGoal inserts a goal, under goal.ParentID when set, and returns its ID
func (h *GoalHierarchy) AddGoal(goal Goal) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if goal.ID == "" {
		goal.ID = uuid.New().String()
	}
	if _, exists := h.goals[goal.ID]; exists {
		return "", fmt.Errorf("goal '%s' already exists", goal.ID)
	}

	var parent *Goal
	if goal.ParentID != "" {
		p, ok := h.goals[goal.ParentID]
		if !ok {
			return "", fmt.Errorf("parent %s: %w", goal.ParentID, ErrGoalNotFound)
		}
		parent = p
	}

	goal.Priority = clamp01(goal.Priority)
	goal.Progress = clamp01(goal.Progress)
	goal.Children = nil
	if goal.Status == "" {
		goal.Status = GoalActive
	}
	if goal.CreatedAt.IsZero() {
		goal.CreatedAt = h.now()
	}

	g := goal
	h.goals[g.ID] = &g
	h.order = append(h.order, g.ID)

	if parent != nil {
		parent.Children = append(parent.Children, g.ID)
		h.recomputeAncestors(parent.ID)
	}

	return g.ID, nil
}

// Get returns a copy of a goal
func (h *GoalHierarchy) Get(id string) (Goal, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	g, ok := h.goals[id]
	if !ok {
		return Goal{}, fmt.Errorf("%s: %w", id, ErrGoalNotFound)
	}
	return copyGoal(g), nil
}

// UpdateProgress sets a goal's progress and rolls it up to the ancestors
func (h *GoalHierarchy) UpdateProgress(id string, progress float64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.updateProgressLocked(id, func(float64) float64 { return progress })
}

// AddProgress increments a goal's progress by delta
func (h *GoalHierarchy) AddProgress(id string, delta float64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.updateProgressLocked(id, func(current float64) float64 { return current + delta })
}

// updateProgressLocked applies next to the goal's progress. Callers hold h.mu.
func (h *GoalHierarchy) updateProgressLocked(id string, next func(float64) float64) error {
	g, ok := h.goals[id]
	if !ok {
		return fmt.Errorf("%s: %w", id, ErrGoalNotFound)
	}
	if g.Status == GoalAbandoned {
		return fmt.Errorf("goal '%s' is abandoned", id)
	}

	g.Progress = clamp01(next(g.Progress))
	if g.Progress >= 1 {
		g.Status = GoalCompleted
	}

	if g.ParentID != "" {
		h.recomputeAncestors(g.ParentID)
	}
	return nil
}

// Abandon marks a goal and its subtree abandoned
func (h *GoalHierarchy) Abandon(id string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	g, ok := h.goals[id]
	if !ok {
		return fmt.Errorf("%s: %w", id, ErrGoalNotFound)
	}

	h.walk(g.ID, func(n *Goal) {
		n.Status = GoalAbandoned
	})
	return nil
}

// Remove deletes a goal and its subtree
func (h *GoalHierarchy) Remove(id string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	g, ok := h.goals[id]
	if !ok {
		return fmt.Errorf("%s: %w", id, ErrGoalNotFound)
	}

	removed := make(map[string]bool)
	h.walk(g.ID, func(n *Goal) {
		removed[n.ID] = true
	})
	for rid := range removed {
		delete(h.goals, rid)
	}

	order := h.order[:0]
	for _, oid := range h.order {
		if !removed[oid] {
			order = append(order, oid)
		}
	}
	h.order = order

	if parent, ok := h.goals[g.ParentID]; ok {
		children := parent.Children[:0]
		for _, cid := range parent.Children {
			if cid != id {
				children = append(children, cid)
			}
		}
		parent.Children = children
		h.recomputeAncestors(parent.ID)
	}
	return nil
}

// Active returns active goals ordered by effective priority
func (h *GoalHierarchy) Active(now time.Time) []Goal {
	h.mu.RLock()
	defer h.mu.RUnlock()

	active := make([]Goal, 0, len(h.goals))
	for _, id := range h.order {
		g := h.goals[id]
		if g.Status == GoalActive {
			active = append(active, copyGoal(g))
		}
	}

	sort.SliceStable(active, func(i, j int) bool {
		pi, pj := EffectivePriority(active[i], now), EffectivePriority(active[j], now)
		if pi != pj {
			return pi > pj
		}
		return active[i].CreatedAt.Before(active[j].CreatedAt)
	})
	return active
}

// Roots returns top-level goals in insertion order
func (h *GoalHierarchy) Roots() []Goal {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var roots []Goal
	for _, id := range h.order {
		if g := h.goals[id]; g.ParentID == "" {
			roots = append(roots, copyGoal(g))
		}
	}
	return roots
}

// Tree returns the nested subtree rooted at id
func (h *GoalHierarchy) Tree(id string) (*GoalNode, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if _, ok := h.goals[id]; !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrGoalNotFound)
	}
	return h.node(id), nil
}

// Len returns the number of goals
func (h *GoalHierarchy) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.goals)
}

// EffectivePriority scales priority by deadline urgency
func EffectivePriority(g Goal, now time.Time) float64 {
	return g.Priority * (1 + deadlineUrgency(g.Deadline, now))
}

func deadlineUrgency(deadline *time.Time, now time.Time) float64 {
	if deadline == nil {
		return 0
	}
	remaining := deadline.Sub(now)
	if remaining <= 0 {
		return 1
	}
	const window = 24 * time.Hour
	if remaining >= window {
		return 0
	}
	return clamp01(1 - float64(remaining)/float64(window))
}

func (h *GoalHierarchy) node(id string) *GoalNode {
	g := h.goals[id]
	n := &GoalNode{Goal: copyGoal(g)}
	for _, cid := range g.Children {
		n.Children = append(n.Children, h.node(cid))
	}
	return n
}

func (h *GoalHierarchy) walk(id string, fn func(*Goal)) {
	g, ok := h.goals[id]
	if !ok {
		return
	}
	fn(g)
	for _, cid := range g.Children {
		h.walk(cid, fn)
	}
}

// recomputeAncestors derives progress bottom-up; caller holds the lock
func (h *GoalHierarchy) recomputeAncestors(id string) {
	for id != "" {
		g, ok := h.goals[id]
		if !ok || len(g.Children) == 0 {
			return
		}

		var weighted, weights, plain float64
		for _, cid := range g.Children {
			c := h.goals[cid]
			weighted += c.Priority * c.Progress
			weights += c.Priority
			plain += c.Progress
		}

		if weights > 0 {
			g.Progress = clamp01(weighted / weights)
		} else {
			g.Progress = clamp01(plain / float64(len(g.Children)))
		}
		if g.Progress >= 1 && g.Status == GoalActive {
			g.Status = GoalCompleted
		}

		id = g.ParentID
	}
}

func copyGoal(g *Goal) Goal {
	c := *g
	if g.Children != nil {
		c.Children = append([]string(nil), g.Children...)
	}
	if g.Deadline != nil {
		d := *g.Deadline
		c.Deadline = &d
	}
	return c
}

func clamp01(v float64) float64 {
	return clamp(v, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
