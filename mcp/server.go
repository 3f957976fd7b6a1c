// Package mcp exposes the agent system as MCP tools over stdio.
package mcp

import (
	"context"
	"fmt"
	"io"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"cryptointel/setup"
)

// Version is reported to MCP clients
var Version = "dev"

// serverName is the MCP implementation name
const serverName = "cryptointel"

// NewServer creates an MCP server with every tool registered
func NewServer(sys *setup.Bootstrap) *server.MCPServer {
	s := server.NewMCPServer(
		serverName,
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions("Crypto intelligence agents. Run a cycle, review suggestions, and send feedback to tune agent thresholds."),
	)

	t := NewTools(sys)
	s.AddTool(runCycleTool(), t.RunCycle)
	s.AddTool(listSuggestionsTool(), t.ListSuggestions)
	s.AddTool(classifyRegimeTool(), t.ClassifyRegime)
	s.AddTool(agentReputationTool(), t.AgentReputation)
	s.AddTool(submitFeedbackTool(), t.SubmitFeedback)

	return s
}

// Serve runs the MCP server on in/out until ctx is done or in closes
func Serve(ctx context.Context, sys *setup.Bootstrap, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(NewServer(sys))
	stdio.SetErrorLogger(zap.NewStdLog(sys.Logger.Named("mcp")))

	sys.Logger.Info("mcp server ready", zap.String("version", Version))
	if err := stdio.Listen(ctx, in, out); err != nil && ctx.Err() == nil {
		return fmt.Errorf("mcp server failed: %w", err)
	}
	return nil
}
