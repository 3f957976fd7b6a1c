// Package ui renders agent activity for the terminal.
package ui

import (
	"hash/fnv"

	"github.com/charmbracelet/lipgloss"

	"cryptointel/agency"
	"cryptointel/database"
)

// Palette
var (
	Primary = lipgloss.Color("#8BC34A") // lime
	Info    = lipgloss.Color("#2196F3") // blue
	Warning = lipgloss.Color("#FFC107") // yellow
	Danger  = lipgloss.Color("#e53935") // red
	Muted   = lipgloss.Color("#7f8c8d") // grey
	Magenta = lipgloss.Color("#ba68c8")
	Cyan    = lipgloss.Color("#4db6ac")
	Orange  = lipgloss.Color("#ff8a65")
)

// Text styles
var (
	Title   = lipgloss.NewStyle().Foreground(Primary).Bold(true)
	Heading = lipgloss.NewStyle().Bold(true).Underline(true)
	Dim     = lipgloss.NewStyle().Foreground(Muted)
	Bold    = lipgloss.NewStyle().Bold(true)
	Success = lipgloss.NewStyle().Foreground(Primary)
	Error   = lipgloss.NewStyle().Foreground(Danger).Bold(true)
	Warn    = lipgloss.NewStyle().Foreground(Warning)
	Banner  = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#ffffff")).
		Background(lipgloss.Color("#101F38")).
		Padding(0, 2).
		Bold(true)
	Box = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Muted).
		Padding(0, 1)
)

var agentColors = map[string]lipgloss.Color{
	"market-hunter":          Cyan,
	"strategic-orchestrator": Magenta,
	"feedback-simulator":     Info,
	"performance-optimizer":  Warning,
}

var fallbackColors = []lipgloss.Color{Cyan, Magenta, Info, Warning, Orange, Primary}

// AgentStyle returns the style used for an agent's name. Unknown agents get
// a stable color from their name.
func AgentStyle(name string) lipgloss.Style {
	c, ok := agentColors[name]
	if !ok {
		h := fnv.New32a()
		h.Write([]byte(name))
		c = fallbackColors[h.Sum32()%uint32(len(fallbackColors))]
	}
	return lipgloss.NewStyle().Foreground(c).Bold(true)
}

// UrgencyStyle colors an urgency level
func UrgencyStyle(u agency.Urgency) lipgloss.Style {
	switch u {
	case agency.UrgencyCritical:
		return lipgloss.NewStyle().Foreground(Danger).Bold(true)
	case agency.UrgencyHigh:
		return lipgloss.NewStyle().Foreground(Orange)
	case agency.UrgencyMedium:
		return lipgloss.NewStyle().Foreground(Warning)
	default:
		return Dim
	}
}

// RegimeStyle colors a market regime
func RegimeStyle(r agency.Regime) lipgloss.Style {
	switch r {
	case agency.RegimeBull, agency.RegimeEuphoria:
		return lipgloss.NewStyle().Foreground(Primary).Bold(true)
	case agency.RegimeBear, agency.RegimeCapitulation:
		return lipgloss.NewStyle().Foreground(Danger).Bold(true)
	case agency.RegimeVolatile:
		return lipgloss.NewStyle().Foreground(Orange).Bold(true)
	default:
		return lipgloss.NewStyle().Foreground(Info).Bold(true)
	}
}

// OutcomeStyle colors a feedback outcome
func OutcomeStyle(o database.FeedbackOutcome) lipgloss.Style {
	switch o {
	case database.OutcomePositive:
		return Success
	case database.OutcomeNegative:
		return lipgloss.NewStyle().Foreground(Danger)
	default:
		return Dim
	}
}

// TierStyle colors a reputation tier
func TierStyle(t agency.Tier) lipgloss.Style {
	switch t {
	case agency.TierTrusted:
		return Success
	case agency.TierProbation:
		return lipgloss.NewStyle().Foreground(Danger)
	default:
		return Warn
	}
}
