package menu

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"cryptointel/config"
	"cryptointel/market"
	"cryptointel/setup"
)

func newTestModel(t *testing.T) Model {
	t.Helper()

	cfg := config.Default()
	cfg.Database.Path = filepath.Join(t.TempDir(), "menu.db")
	cfg.Audit.Enabled = false
	cfg.Agents.Hunter.Watchlist = []string{"SOL"}

	src := market.NewStatic(market.Snapshot{
		Symbol:         "SOL",
		Price:          150,
		PriceChange24h: 7,
		Volume24h:      2.5e9,
		AvgVolume:      1e9,
		Volatility:     0.04,
		At:             time.Now(),
	})

	sys, err := setup.Initialize(context.Background(), cfg, zaptest.NewLogger(t), setup.WithSource(src))
	require.NoError(t, err)
	t.Cleanup(sys.Cleanup)

	return New(context.Background(), sys)
}

func press(t *testing.T, m Model, key tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(key)
	model, ok := next.(Model)
	require.True(t, ok)
	return model, cmd
}

// runSelected presses enter and feeds the action's result back into the model
func runSelected(t *testing.T, m Model) Model {
	t.Helper()
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.True(t, m.busy)
	assert.Contains(t, m.View(), "working...")

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, m.busy, "selection is ignored while busy")

	next, _ := m.Update(cmd())
	return next.(Model)
}

func TestCursorBounds(t *testing.T) {
	m := newTestModel(t)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, m.cursor)

	for i := 0; i < 10; i++ {
		m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	}
	assert.Equal(t, len(m.items)-1, m.cursor)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("k")})
	assert.Equal(t, len(m.items)-2, m.cursor)
	assert.Contains(t, m.View(), "> Show stats")
}

func TestRunCycleThenSuggestions(t *testing.T) {
	m := newTestModel(t)

	m = runSelected(t, m)
	require.NoError(t, m.err)
	assert.False(t, m.busy)
	assert.Contains(t, m.output, "Cycle 1")
	assert.Contains(t, m.View(), "Cycle 1")

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m = runSelected(t, m)
	require.NoError(t, m.err)
	assert.Equal(t, "Show suggestions", m.title)
	assert.Contains(t, m.output, "SOL")

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m = runSelected(t, m)
	require.NoError(t, m.err)
	assert.Equal(t, "Show stats", m.title)
}

func TestQuit(t *testing.T) {
	m := newTestModel(t)

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.View())

	m = newTestModel(t)
	for range m.items {
		m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	}
	_, cmd = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
