package agency

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHierarchy(t *testing.T) (*GoalHierarchy, string, string, string) {
	t.Helper()
	h := NewGoalHierarchy()

	root, err := h.AddGoal(Goal{Description: "grow alpha", Priority: 1})
	require.NoError(t, err)
	a, err := h.AddGoal(Goal{Description: "find opportunities", Priority: 0.8, ParentID: root})
	require.NoError(t, err)
	b, err := h.AddGoal(Goal{Description: "limit drawdown", Priority: 0.2, ParentID: root})
	require.NoError(t, err)

	return h, root, a, b
}

func TestAddGoalDefaults(t *testing.T) {
	h := NewGoalHierarchy()

	id, err := h.AddGoal(Goal{Description: "x", Priority: 3, Progress: -1})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	g, err := h.Get(id)
	require.NoError(t, err)
	assert.Equal(t, 1.0, g.Priority)
	assert.Equal(t, 0.0, g.Progress)
	assert.Equal(t, GoalActive, g.Status)
	assert.False(t, g.CreatedAt.IsZero())
}

func TestAddGoalMissingParent(t *testing.T) {
	h := NewGoalHierarchy()

	_, err := h.AddGoal(Goal{Description: "orphan", ParentID: "nope"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrGoalNotFound))
}

func TestAddGoalDuplicateID(t *testing.T) {
	h := NewGoalHierarchy()

	_, err := h.AddGoal(Goal{ID: "g1"})
	require.NoError(t, err)
	_, err = h.AddGoal(Goal{ID: "g1"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestProgressRollsUpWeighted(t *testing.T) {
	h, root, a, b := newHierarchy(t)

	require.NoError(t, h.UpdateProgress(a, 1))

	ga, _ := h.Get(a)
	assert.Equal(t, GoalCompleted, ga.Status)

	gr, _ := h.Get(root)
	assert.InDelta(t, 0.8, gr.Progress, 1e-9)
	assert.Equal(t, GoalActive, gr.Status)

	require.NoError(t, h.UpdateProgress(b, 1))
	gr, _ = h.Get(root)
	assert.InDelta(t, 1.0, gr.Progress, 1e-9)
	assert.Equal(t, GoalCompleted, gr.Status)
}

func TestProgressZeroPriorityChildrenUsePlainMean(t *testing.T) {
	h := NewGoalHierarchy()
	root, _ := h.AddGoal(Goal{ID: "root"})
	_, _ = h.AddGoal(Goal{ID: "c1", ParentID: root})
	_, _ = h.AddGoal(Goal{ID: "c2", ParentID: root})

	require.NoError(t, h.UpdateProgress("c1", 0.5))

	g, _ := h.Get(root)
	assert.InDelta(t, 0.25, g.Progress, 1e-9)
}

func TestAddProgressClamps(t *testing.T) {
	h := NewGoalHierarchy()
	id, _ := h.AddGoal(Goal{Description: "x"})

	require.NoError(t, h.AddProgress(id, 0.7))
	require.NoError(t, h.AddProgress(id, 0.7))

	g, _ := h.Get(id)
	assert.Equal(t, 1.0, g.Progress)
	assert.Equal(t, GoalCompleted, g.Status)
}

func TestAddProgressConcurrent(t *testing.T) {
	h, root, a, _ := newHierarchy(t)

	var wg sync.WaitGroup
	for i := 0; i < 500; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, h.AddProgress(a, 0.001))
		}()
	}
	wg.Wait()

	g, err := h.Get(a)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, g.Progress, 1e-9, "no increment is lost")

	r, err := h.Get(root)
	require.NoError(t, err)
	assert.InDelta(t, 0.4, r.Progress, 1e-9)
}

func TestAbandonSubtree(t *testing.T) {
	h, root, a, b := newHierarchy(t)

	require.NoError(t, h.Abandon(root))

	for _, id := range []string{root, a, b} {
		g, err := h.Get(id)
		require.NoError(t, err)
		assert.Equal(t, GoalAbandoned, g.Status)
	}

	assert.Error(t, h.UpdateProgress(a, 0.5))
	assert.Empty(t, h.Active(time.Now()))
}

func TestRemoveSubtree(t *testing.T) {
	h, root, a, b := newHierarchy(t)
	leaf, err := h.AddGoal(Goal{Description: "leaf", ParentID: a})
	require.NoError(t, err)

	require.NoError(t, h.UpdateProgress(b, 1))
	require.NoError(t, h.Remove(a))

	assert.Equal(t, 2, h.Len())
	_, err = h.Get(leaf)
	assert.ErrorIs(t, err, ErrGoalNotFound)

	gr, _ := h.Get(root)
	assert.Equal(t, []string{b}, gr.Children)
	assert.InDelta(t, 1.0, gr.Progress, 1e-9)
}

func TestActiveOrdersByEffectivePriority(t *testing.T) {
	h := NewGoalHierarchy()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	overdue := now.Add(-time.Hour)
	far := now.Add(72 * time.Hour)

	_, _ = h.AddGoal(Goal{ID: "steady", Priority: 0.9, CreatedAt: now})
	_, _ = h.AddGoal(Goal{ID: "late", Priority: 0.5, Deadline: &overdue, CreatedAt: now})
	_, _ = h.AddGoal(Goal{ID: "later", Priority: 0.5, Deadline: &far, CreatedAt: now})

	active := h.Active(now)
	ids := make([]string, len(active))
	for i, g := range active {
		ids[i] = g.ID
	}

	if diff := cmp.Diff([]string{"late", "steady", "later"}, ids); diff != "" {
		t.Errorf("active order mismatch (-want +got):\n%s", diff)
	}
}

func TestEffectivePriorityDeadlineWindow(t *testing.T) {
	now := time.Now()
	half := now.Add(12 * time.Hour)

	g := Goal{Priority: 0.4, Deadline: &half}
	assert.InDelta(t, 0.6, EffectivePriority(g, now), 1e-9)

	g.Deadline = nil
	assert.InDelta(t, 0.4, EffectivePriority(g, now), 1e-9)
}

func TestTree(t *testing.T) {
	h, root, _, _ := newHierarchy(t)

	tree, err := h.Tree(root)
	require.NoError(t, err)

	var got []string
	for _, c := range tree.Children {
		got = append(got, c.Goal.Description)
	}

	want := []string{"find opportunities", "limit drawdown"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("tree children mismatch (-want +got):\n%s", diff)
	}

	roots := h.Roots()
	require.Len(t, roots, 1)
	assert.Equal(t, root, roots[0].ID)

	_, err = h.Tree("missing")
	assert.ErrorIs(t, err, ErrGoalNotFound)
}

func TestGetReturnsCopy(t *testing.T) {
	h, root, _, _ := newHierarchy(t)

	g, _ := h.Get(root)
	g.Children[0] = "mutated"

	again, _ := h.Get(root)
	assert.NotEqual(t, "mutated", again.Children[0])
}
