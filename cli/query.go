package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"cryptointel/database"
	"cryptointel/ui"
)

func newSuggestionsCmd(a *app) *cobra.Command {
	var (
		status string
		agent  string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "suggestions",
		Short: "List stored suggestions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			s := database.SuggestionStatus(status)
			switch s {
			case "", database.SuggestionPending, database.SuggestionAccepted, database.SuggestionRejected, database.SuggestionExpired:
			default:
				return fmt.Errorf("unknown status %q", status)
			}

			ctx := cmd.Context()
			sys, err := a.bootstrap(ctx)
			if err != nil {
				return err
			}
			defer sys.Cleanup()

			list, err := sys.Store.ListSuggestions(ctx, database.SuggestionFilter{
				AgentID: agent,
				Status:  s,
				Limit:   limit,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, ui.Suggestions(list))
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status (pending, accepted, rejected, expired)")
	cmd.Flags().StringVar(&agent, "agent", "", "Filter by authoring agent")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum rows")
	return cmd
}

func newDecisionsCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "decisions",
		Short: "List strategic decisions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sys, err := a.bootstrap(ctx)
			if err != nil {
				return err
			}
			defer sys.Cleanup()

			list, err := sys.Store.ListStrategicDecisions(ctx, limit)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, ui.Decisions(list))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum rows")
	return cmd
}

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show database totals and average confidence per agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sys, err := a.bootstrap(ctx)
			if err != nil {
				return err
			}
			defer sys.Cleanup()

			st, err := sys.Store.Stats(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, ui.Stats(st))
			return nil
		},
	}
}

func newFeedbackCmd(a *app) *cobra.Command {
	var (
		comment string
		score   float64
	)

	cmd := &cobra.Command{
		Use:   "feedback <suggestion-id> <positive|negative|neutral>",
		Short: "Record reviewer feedback on a suggestion",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			outcome := database.FeedbackOutcome(args[1])
			if !outcome.Valid() {
				return fmt.Errorf("outcome must be positive, negative or neutral, got %q", args[1])
			}

			fb := &database.Feedback{
				SuggestionID: args[0],
				Outcome:      outcome,
				Score:        outcome.DefaultScore(),
				Comment:      comment,
			}
			if cmd.Flags().Changed("score") {
				if score < -1 || score > 1 {
					return fmt.Errorf("--score must be between -1 and 1")
				}
				fb.Score = score
			}

			ctx := cmd.Context()
			sys, err := a.bootstrap(ctx)
			if err != nil {
				return err
			}
			defer sys.Cleanup()

			if err := sys.RecordFeedback(ctx, fb); err != nil {
				return fmt.Errorf("failed to record feedback: %w", err)
			}

			fmt.Fprintf(a.out, "%s %s feedback on %s for %s\n",
				ui.Success.Render("recorded"),
				ui.OutcomeStyle(fb.Outcome).Render(string(fb.Outcome)),
				ui.ShortID(fb.SuggestionID),
				ui.AgentStyle(fb.AgentID).Render(fb.AgentID))
			return nil
		},
	}

	cmd.Flags().StringVar(&comment, "comment", "", "Free-form note")
	cmd.Flags().Float64Var(&score, "score", 0, "Score from -1 to 1 (defaults by outcome)")
	return cmd
}
