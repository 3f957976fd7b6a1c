package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cryptointel/stream"
	"cryptointel/ui"
)

func newRunCmd(a *app) *cobra.Command {
	var cycles int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run agent cycles and print a summary of each",
		Example: `  cryptointel run
  cryptointel run --cycles 5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cycles < 1 {
				return fmt.Errorf("--cycles must be at least 1")
			}

			ctx := cmd.Context()
			sys, err := a.bootstrap(ctx)
			if err != nil {
				return err
			}
			defer sys.Cleanup()

			status := a.statusLine()
			for i := 1; i <= cycles; i++ {
				status.ShowWithSpinner(fmt.Sprintf("Running cycle %d of %d...", i, cycles))
				report, err := sys.RunCycle(ctx)
				status.Clear()

				if report == nil {
					return err
				}
				if err != nil {
					a.logger.Warn("cycle finished with errors", zap.Int("cycle", report.Cycle), zap.Error(err))
				}
				fmt.Fprintln(a.out, ui.CycleReport(report))

				if ctx.Err() != nil {
					return nil
				}
			}

			fmt.Fprintln(a.out, ui.Reputation(sys.Reputation.Snapshot(time.Now())))
			return nil
		},
	}

	cmd.Flags().IntVarP(&cycles, "cycles", "n", 1, "Number of cycles to run")
	return cmd
}

func newStreamCmd(a *app) *cobra.Command {
	var (
		interval time.Duration
		cycles   int
	)

	cmd := &cobra.Command{
		Use:   "stream",
		Short: "Stream agent activity live, one cycle per interval",
		Example: `  cryptointel stream
  cryptointel stream --interval 500ms --cycles 0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("interval") {
				interval = a.cfg.Stream.Interval
			}
			if !cmd.Flags().Changed("cycles") {
				cycles = a.cfg.Stream.Cycles
			}
			if interval <= 0 {
				return fmt.Errorf("--interval must be positive")
			}
			if cycles < 0 {
				return fmt.Errorf("--cycles cannot be negative")
			}

			ctx := cmd.Context()
			sys, err := a.bootstrap(ctx)
			if err != nil {
				return err
			}
			defer sys.Cleanup()

			runner := stream.NewRunner(sys, interval, cycles, a.logger)
			for e := range runner.Run(ctx) {
				fmt.Fprintln(a.out, ui.Event(e))
			}
			return nil
		},
	}

	cmd.Flags().DurationVarP(&interval, "interval", "i", 2*time.Second, "Time between cycles")
	cmd.Flags().IntVarP(&cycles, "cycles", "n", 10, "Number of cycles, 0 streams until interrupted")
	return cmd
}

// statusLine animates only when writing to a terminal
func (a *app) statusLine() *ui.StatusLine {
	if a.out == os.Stdout {
		return ui.NewStatusLine()
	}
	return ui.NewStatusLineTo(a.out, false)
}
