// Package cli implements the cryptointel command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cryptointel/config"
	"cryptointel/logging"
	"cryptointel/market"
	"cryptointel/setup"
)

// app holds global flags and what PersistentPreRunE builds from them
type app struct {
	configPath string
	dbPath     string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger

	in     io.Reader
	out    io.Writer
	source market.Source // overrides the simulated market
}

// Execute runs the root command
func Execute(ctx context.Context) error {
	a := &app{in: os.Stdin, out: os.Stdout}
	return newRootCmd(a).ExecuteContext(ctx)
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "cryptointel",
		Short: "Agentic crypto intelligence demo",
		Long: `cryptointel runs a small team of agents over simulated market data.

Each cycle the market hunter scans the watchlist for alpha, the strategic
orchestrator classifies the regime and accepts the best suggestions, a
reviewer scores accepted ideas, and the performance optimizer retunes every
agent's confidence threshold from that feedback.

Run without arguments to open the interactive menu.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.prepare,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
		RunE: a.runMenu,
	}
	root.SetIn(a.in)
	root.SetOut(a.out)

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", config.DefaultPath, "Config file (yaml or toml)")
	root.PersistentFlags().StringVar(&a.dbPath, "db", "", "SQLite database path (overrides config)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newRunCmd(a),
		newStreamCmd(a),
		newDashboardCmd(a),
		newMCPCmd(a),
		newMenuCmd(a),
		newSuggestionsCmd(a),
		newDecisionsCmd(a),
		newStatsCmd(a),
		newFeedbackCmd(a),
	)
	return root
}

// prepare loads configuration and builds the logger
func (a *app) prepare(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.dbPath != "" {
		cfg.Database.Path = a.dbPath
	}
	if a.verbose {
		cfg.Logging.Level = "debug"
	}
	a.cfg = cfg

	if a.logger == nil {
		logger, err := logging.New(cfg.Logging)
		if err != nil {
			return err
		}
		a.logger = logger
	}
	return nil
}

// bootstrap starts the agent system; callers defer Cleanup
func (a *app) bootstrap(ctx context.Context) (*setup.Bootstrap, error) {
	var opts []setup.Option
	if a.source != nil {
		opts = append(opts, setup.WithSource(a.source))
	}
	sys, err := setup.Initialize(ctx, a.cfg, a.logger, opts...)
	if err != nil {
		return nil, fmt.Errorf("startup failed: %w", err)
	}
	return sys, nil
}
