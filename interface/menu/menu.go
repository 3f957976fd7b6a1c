// Package menu is the interactive console menu for driving agent cycles.
package menu

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"cryptointel/database"
	"cryptointel/setup"
	"cryptointel/ui"
)

const listLimit = 10

type item struct {
	title  string
	action func(ctx context.Context) (string, error) // nil quits
}

// resultMsg carries the output of a finished action
type resultMsg struct {
	title  string
	output string
	err    error
}

// Model is the bubbletea model behind the menu
type Model struct {
	ctx      context.Context
	items    []item
	cursor   int
	busy     bool
	title    string
	output   string
	err      error
	quitting bool
}

// New builds the menu for a bootstrapped system
func New(ctx context.Context, sys *setup.Bootstrap) Model {
	return Model{
		ctx: ctx,
		items: []item{
			{title: "Run cycle", action: func(ctx context.Context) (string, error) {
				report, err := sys.RunCycle(ctx)
				if report == nil {
					return "", err
				}
				return ui.CycleReport(report), nil
			}},
			{title: "Show suggestions", action: func(ctx context.Context) (string, error) {
				list, err := sys.Store.ListSuggestions(ctx, database.SuggestionFilter{Limit: listLimit})
				if err != nil {
					return "", err
				}
				return ui.Suggestions(list), nil
			}},
			{title: "Show decisions", action: func(ctx context.Context) (string, error) {
				list, err := sys.Store.ListStrategicDecisions(ctx, listLimit)
				if err != nil {
					return "", err
				}
				return ui.Decisions(list), nil
			}},
			{title: "Show stats", action: func(ctx context.Context) (string, error) {
				st, err := sys.Store.Stats(ctx)
				if err != nil {
					return "", err
				}
				return ui.Stats(st) + "\n" + ui.Reputation(sys.Reputation.Snapshot(time.Now())), nil
			}},
			{title: "Quit"},
		},
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.quitting = true
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.items)-1 {
				m.cursor++
			}
		case "enter", " ":
			return m.selectItem()
		}

	case resultMsg:
		m.busy = false
		m.title = msg.title
		m.output = msg.output
		m.err = msg.err
	}

	return m, nil
}

func (m Model) selectItem() (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}

	it := m.items[m.cursor]
	if it.action == nil {
		m.quitting = true
		return m, tea.Quit
	}

	m.busy = true
	m.err = nil
	ctx := m.ctx
	return m, func() tea.Msg {
		out, err := it.action(ctx)
		return resultMsg{title: it.title, output: out, err: err}
	}
}

// View implements tea.Model
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(ui.Title.Render("cryptointel"))
	sb.WriteString("\n\n")

	for i, it := range m.items {
		if i == m.cursor {
			sb.WriteString(ui.Success.Render("> " + it.title))
		} else {
			sb.WriteString("  " + it.title)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	switch {
	case m.busy:
		sb.WriteString(ui.Dim.Render("working..."))
		sb.WriteString("\n")
	case m.err != nil:
		sb.WriteString(ui.Error.Render(fmt.Sprintf("%s failed: %v", m.title, m.err)))
		sb.WriteString("\n")
	case m.output != "":
		sb.WriteString(m.output)
		sb.WriteString("\n")
	}

	sb.WriteString(ui.Dim.Render("up/down to move, enter to select, q to quit"))
	sb.WriteString("\n")
	return sb.String()
}

// Run shows the menu until the user quits or ctx ends
func Run(ctx context.Context, sys *setup.Bootstrap, in io.Reader, out io.Writer) error {
	p := tea.NewProgram(New(ctx, sys),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
	)
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("menu failed: %w", err)
	}
	return nil
}
