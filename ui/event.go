package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"cryptointel/stream"
)

var eventStyles = map[stream.EventType]lipgloss.Style{
	stream.EventCycle:        Banner,
	stream.EventDiscovery:    lipgloss.NewStyle().Foreground(Cyan),
	stream.EventSuggestion:   lipgloss.NewStyle().Foreground(Primary),
	stream.EventDecision:     lipgloss.NewStyle().Foreground(Magenta).Bold(true),
	stream.EventFeedback:     lipgloss.NewStyle().Foreground(Info),
	stream.EventOptimization: lipgloss.NewStyle().Foreground(Warning),
	stream.EventError:        Error,
}

// Event renders one stream event on a single line
func Event(e stream.Event) string {
	if e.Type == stream.EventCycle {
		return "\n" + Banner.Render(e.Message) + " " + Dim.Render(e.At.Local().Format("15:04:05"))
	}

	label := strings.ToUpper(string(e.Type))
	if style, ok := eventStyles[e.Type]; ok {
		label = style.Render(fmt.Sprintf("%-12s", label))
	}

	var sb strings.Builder
	sb.WriteString(label)
	if e.Agent != "" {
		sb.WriteString(" ")
		sb.WriteString(AgentStyle(e.Agent).Render("[" + e.Agent + "]"))
	}
	sb.WriteString(" ")
	sb.WriteString(e.Message)
	if e.Confidence > 0 {
		sb.WriteString(" ")
		sb.WriteString(Dim.Render(Percent(e.Confidence)))
	}
	return sb.String()
}
