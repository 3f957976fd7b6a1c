package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"cryptointel/agency"
	"cryptointel/database"
	"cryptointel/setup"
)

// Tool names
const (
	ToolRunCycle        = "run_cycle"
	ToolListSuggestions = "list_suggestions"
	ToolClassifyRegime  = "classify_regime"
	ToolAgentReputation = "agent_reputation"
	ToolSubmitFeedback  = "submit_feedback"
)

const defaultSuggestionLimit = 20

// Tools holds the handlers behind each MCP tool
type Tools struct {
	sys *setup.Bootstrap
}

// NewTools creates tool handlers for a bootstrapped system
func NewTools(sys *setup.Bootstrap) *Tools {
	return &Tools{sys: sys}
}

func runCycleTool() mcp.Tool {
	return mcp.NewTool(ToolRunCycle,
		mcp.WithDescription("Run one hunt, strategize, review and optimize cycle and return its report"),
	)
}

func listSuggestionsTool() mcp.Tool {
	return mcp.NewTool(ToolListSuggestions,
		mcp.WithDescription("List agent suggestions, newest first"),
		mcp.WithString("status",
			mcp.Description("Filter by status"),
			mcp.Enum("pending", "accepted", "rejected", "expired"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of suggestions (default 20)"),
		),
	)
}

func classifyRegimeTool() mcp.Tool {
	return mcp.NewTool(ToolClassifyRegime,
		mcp.WithDescription("Classify market conditions into a regime with its strategy profile"),
		mcp.WithNumber("price_change_24h", mcp.Required(), mcp.Description("24h price change in percent")),
		mcp.WithNumber("volatility", mcp.Required(), mcp.Description("Volatility as a fraction, 0.05 = 5%")),
		mcp.WithNumber("volume_ratio", mcp.Description("24h volume relative to average (default 1)")),
		mcp.WithNumber("sentiment", mcp.Description("Sentiment from -1 to 1 (default 0)")),
	)
}

func agentReputationTool() mcp.Tool {
	return mcp.NewTool(ToolAgentReputation,
		mcp.WithDescription("Show reputation for one agent, or every agent when none is given"),
		mcp.WithString("agent", mcp.Description("Agent name, e.g. market-hunter")),
	)
}

func submitFeedbackTool() mcp.Tool {
	return mcp.NewTool(ToolSubmitFeedback,
		mcp.WithDescription("Record reviewer feedback on a suggestion; the optimizer uses it on the next cycle"),
		mcp.WithString("suggestion_id", mcp.Required(), mcp.Description("Suggestion ID")),
		mcp.WithString("outcome",
			mcp.Required(),
			mcp.Description("Feedback outcome"),
			mcp.Enum("positive", "negative", "neutral"),
		),
		mcp.WithString("comment", mcp.Description("Free-form note")),
	)
}

// RunCycle runs a cycle. Agent failures are part of the report.
func (t *Tools) RunCycle(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report, err := t.sys.RunCycle(ctx)
	if report == nil {
		return mcp.NewToolResultError(fmt.Sprintf("cycle failed: %v", err)), nil
	}
	return jsonResult(report)
}

// ListSuggestions lists stored suggestions
func (t *Tools) ListSuggestions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", defaultSuggestionLimit)
	if limit <= 0 {
		limit = defaultSuggestionLimit
	}

	list, err := t.sys.Store.ListSuggestions(ctx, database.SuggestionFilter{
		Status: database.SuggestionStatus(req.GetString("status", "")),
		Limit:  limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list suggestions: %w", err)
	}
	if list == nil {
		list = []database.Suggestion{}
	}
	return jsonResult(list)
}

// ClassifyRegime classifies the given conditions
func (t *Tools) ClassifyRegime(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	change, err := req.RequireFloat("price_change_24h")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	vol, err := req.RequireFloat("volatility")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sentiment := req.GetFloat("sentiment", 0)
	if sentiment < -1 || sentiment > 1 {
		return mcp.NewToolResultError("sentiment must be between -1 and 1"), nil
	}

	return jsonResult(agency.Classify(agency.MarketConditions{
		PriceChange24h: change,
		Volatility:     vol,
		VolumeRatio:    req.GetFloat("volume_ratio", 1),
		Sentiment:      sentiment,
	}))
}

// AgentReputation reports reputation for one or all agents
func (t *Tools) AgentReputation(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	now := time.Now()
	all := t.sys.Reputation.Snapshot(now)

	id := req.GetString("agent", "")
	if id == "" {
		return jsonResult(all)
	}

	for _, r := range all {
		if r.AgentID == id {
			return jsonResult(r)
		}
	}

	// No history yet
	if _, err := t.sys.Registry.Get(id); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("unknown agent %q", id)), nil
	}
	score := t.sys.Reputation.Score(id)
	return jsonResult(agency.AgentReputation{
		AgentID: id,
		Score:   score,
		Tier:    agency.TierFor(score),
	})
}

// SubmitFeedback records feedback on a suggestion
func (t *Tools) SubmitFeedback(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("suggestion_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	outcome := database.FeedbackOutcome(req.GetString("outcome", ""))
	if !outcome.Valid() {
		return mcp.NewToolResultError("outcome must be positive, negative or neutral"), nil
	}

	fb := &database.Feedback{
		SuggestionID: id,
		Outcome:      outcome,
		Score:        outcome.DefaultScore(),
		Comment:      req.GetString("comment", ""),
	}
	if err := t.sys.RecordFeedback(ctx, fb); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("suggestion %s not found", id)), nil
		}
		return nil, fmt.Errorf("failed to record feedback: %w", err)
	}
	return jsonResult(fb)
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
