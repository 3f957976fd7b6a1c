package cli

import (
	"github.com/spf13/cobra"

	"cryptointel/dashboard"
	"cryptointel/interface/menu"
	"cryptointel/mcp"
)

func newDashboardCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Serve the web dashboard and JSON API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("addr") {
				addr = a.cfg.Dashboard.Addr
			}

			ctx := cmd.Context()
			sys, err := a.bootstrap(ctx)
			if err != nil {
				return err
			}
			defer sys.Cleanup()

			return dashboard.Serve(ctx, sys, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address")
	return cmd
}

func newMCPCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve agent tools over MCP on stdio",
		Long: `Starts an MCP server on stdin/stdout exposing run_cycle, list_suggestions,
classify_regime, agent_reputation and submit_feedback. Logs go to stderr.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sys, err := a.bootstrap(ctx)
			if err != nil {
				return err
			}
			defer sys.Cleanup()

			return mcp.Serve(ctx, sys, a.in, a.out)
		},
	}
}

func newMenuCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "Open the interactive menu",
		RunE:  a.runMenu,
	}
}

func (a *app) runMenu(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	sys, err := a.bootstrap(ctx)
	if err != nil {
		return err
	}
	defer sys.Cleanup()

	return menu.Run(ctx, sys, a.in, a.out)
}
