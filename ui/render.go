package ui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"cryptointel/agency"
	"cryptointel/agent"
	"cryptointel/database"
)

// ShortID returns the first 8 characters of an ID for display
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// Percent formats a fraction as a percentage
func Percent(v float64) string {
	return fmt.Sprintf("%.0f%%", v*100)
}

// CycleReport renders one cycle as a short console summary
func CycleReport(r *agent.CycleReport) string {
	var sb strings.Builder

	sb.WriteString(Banner.Render(fmt.Sprintf("Cycle %d", r.Cycle)))
	sb.WriteString(Dim.Render(fmt.Sprintf("  %s", r.Duration.Round(time.Millisecond))))
	sb.WriteString("\n")

	if r.Regime != nil {
		fmt.Fprintf(&sb, "%s %s (%s confidence) -> %s\n",
			Bold.Render("Regime:"),
			RegimeStyle(r.Regime.Regime).Render(string(r.Regime.Regime)),
			Percent(r.Regime.Confidence),
			r.Regime.Profile.Strategy)
	}

	for _, d := range r.Discoveries {
		fmt.Fprintf(&sb, "  %s %s %s %s\n",
			AgentStyle(d.AgentID).Render("["+d.AgentID+"]"),
			Bold.Render(d.Symbol),
			string(d.Kind),
			Dim.Render(fmt.Sprintf("conf %s, ev %+.2f%%", Percent(d.Confidence), d.ExpectedValue*100)))
	}

	for _, sg := range r.Suggestions {
		sb.WriteString("  ")
		sb.WriteString(SuggestionLine(sg))
		sb.WriteString("\n")
	}

	if r.Decision != nil {
		fmt.Fprintf(&sb, "  %s %s: %s\n",
			AgentStyle(r.Decision.AgentID).Render("["+r.Decision.AgentID+"]"),
			Bold.Render(r.Decision.DecisionType),
			r.Decision.Rationale)
	}

	for _, fb := range r.Feedback {
		fmt.Fprintf(&sb, "  %s %s %s\n",
			Dim.Render("feedback"),
			ShortID(fb.SuggestionID),
			OutcomeStyle(fb.Outcome).Render(fmt.Sprintf("%s (%+.2f)", fb.Outcome, fb.Score)))
	}

	for _, c := range r.Adjustments {
		if !c.Moved() {
			continue
		}
		fmt.Fprintf(&sb, "  %s %s threshold %.2f -> %.2f %s\n",
			AgentStyle(c.AgentID).Render("["+c.AgentID+"]"),
			Warn.Render("adjusted"),
			c.Before, c.After,
			Dim.Render(fmt.Sprintf("(accuracy %s over %d)", Percent(c.Accuracy), c.Samples)))
	}

	for _, e := range r.Errors {
		sb.WriteString("  ")
		sb.WriteString(Error.Render("error: " + e))
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "%s\n", Dim.Render(fmt.Sprintf(
		"%d discoveries, %d suggestions, %d accepted, %d expired, %d feedback",
		len(r.Discoveries), len(r.Suggestions), len(r.Accepted), r.Expired, len(r.Feedback))))

	return sb.String()
}

// SuggestionLine renders a suggestion on one line
func SuggestionLine(sg database.Suggestion) string {
	return fmt.Sprintf("%s %s %s %s %s",
		AgentStyle(sg.AgentID).Render("["+sg.AgentID+"]"),
		UrgencyStyle(sg.Urgency).Render(strings.ToUpper(string(sg.Urgency))),
		Percent(sg.Confidence),
		sg.Rationale,
		Dim.Render(ShortID(sg.ID)))
}

// Suggestions renders a suggestion table
func Suggestions(list []database.Suggestion) string {
	t := NewTable("Suggestions", "ID", "AGENT", "TYPE", "CONF", "URGENCY", "STATUS", "RATIONALE")
	for _, sg := range list {
		t.AddRow(
			ShortID(sg.ID),
			AgentStyle(sg.AgentID).Render(sg.AgentID),
			sg.Type,
			Percent(sg.Confidence),
			UrgencyStyle(sg.Urgency).Render(string(sg.Urgency)),
			string(sg.Status),
			truncate(sg.Rationale, 60),
		)
	}
	return t.String()
}

// Decisions renders strategic decisions
func Decisions(list []database.StrategicDecision) string {
	t := NewTable("Strategic decisions", "WHEN", "TYPE", "REGIME", "STRATEGY", "CONF", "ACCEPTED", "IMPACT")
	for _, d := range list {
		t.AddRow(
			d.CreatedAt.Format("01-02 15:04:05"),
			d.DecisionType,
			RegimeStyle(d.Regime).Render(string(d.Regime)),
			d.Strategy,
			Percent(d.Confidence),
			fmt.Sprintf("%d", len(d.SuggestionIDs)),
			fmt.Sprintf("%+.2f%%", d.ExpectedImpact*100),
		)
	}
	return t.String()
}

// Discoveries renders alpha discoveries
func Discoveries(list []database.AlphaDiscovery) string {
	t := NewTable("Alpha discoveries", "SYMBOL", "KIND", "CONF", "EV", "TIMEFRAME", "STATUS")
	for _, d := range list {
		t.AddRow(
			Bold.Render(d.Symbol),
			string(d.Kind),
			Percent(d.Confidence),
			fmt.Sprintf("%+.2f%%", d.ExpectedValue*100),
			d.Timeframe,
			string(d.Status),
		)
	}
	return t.String()
}

// Reputation renders agent reputation, best first
func Reputation(list []agency.AgentReputation) string {
	t := NewTable("Reputation", "AGENT", "SCORE", "TIER", "CONFIDENCE", "OBSERVATIONS")
	for _, r := range list {
		t.AddRow(
			AgentStyle(r.AgentID).Render(r.AgentID),
			fmt.Sprintf("%.3f", r.Score),
			TierStyle(r.Tier).Render(string(r.Tier)),
			Percent(r.Confidence),
			fmt.Sprintf("%d", r.Observations),
		)
	}
	return t.String()
}

// Stats renders database totals
func Stats(st *database.Stats) string {
	var sb strings.Builder

	t := NewTable("Totals", "RECORD", "COUNT")
	t.AddRow("suggestions", fmt.Sprintf("%d", st.Suggestions))
	t.AddRow("  pending", fmt.Sprintf("%d", st.PendingSuggestions))
	t.AddRow("  accepted", fmt.Sprintf("%d", st.AcceptedSuggestions))
	t.AddRow("alpha discoveries", fmt.Sprintf("%d", st.Discoveries))
	t.AddRow("strategic decisions", fmt.Sprintf("%d", st.Decisions))
	t.AddRow("feedback", fmt.Sprintf("%d", st.Feedback))
	t.AddRow("performance records", fmt.Sprintf("%d", st.PerformanceRecords))
	sb.WriteString(t.String())

	agents := make([]string, 0, len(st.AgentConfidence))
	for id := range st.AgentConfidence {
		agents = append(agents, id)
	}
	sort.Strings(agents)

	conf := NewTable("Mean suggestion confidence", "AGENT", "CONF")
	for _, id := range agents {
		conf.AddRow(AgentStyle(id).Render(id), Percent(st.AgentConfidence[id]))
	}
	sb.WriteString("\n")
	sb.WriteString(conf.String())

	return sb.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
