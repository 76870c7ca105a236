package cli

import (
	"fmt"
	"time"

	"github.com/alexanderramin/phasehours/internal/app"
	"github.com/alexanderramin/phasehours/internal/cli/formatter"
	"github.com/alexanderramin/phasehours/internal/domain"
	"github.com/spf13/cobra"
)

func newWeeklyCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "weekly",
		Short: "Plan allocation hours into ISO weeks",
	}

	cmd.AddCommand(
		newWeeklyProposeCmd(a),
		newWeeklyDecideCmd(a),
		newWeeklyListCmd(a),
	)

	return cmd
}

func newWeeklyProposeCmd(a *App) *cobra.Command {
	var allocationID, week, hours string

	cmd := &cobra.Command{
		Use:   "propose",
		Short: "Propose hours for the ISO week containing --week",
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := a.requireActor()
			if err != nil {
				return err
			}
			start, err := time.Parse("2006-01-02", week)
			if err != nil {
				return domain.Validationf("--week %q must be YYYY-MM-DD", week)
			}
			proposed, err := parseHours("hours", hours)
			if err != nil {
				return err
			}

			res, err := a.Services.Weekly.Propose(cmd.Context(), app.ProposeWeeklyRequest{
				PhaseAllocationID: allocationID,
				WeekStart:         start,
				ProposedHours:     proposed,
				Actor:             actor,
			})
			if err != nil {
				return err
			}

			verb := "Updated"
			if res.Created {
				verb = "Proposed"
			}
			w := res.Weekly
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d-W%02d: %s (planned %s) [%s]\n", verb, w.Year, w.WeekNumber,
				formatter.FormatHours(w.ProposedHours), formatter.FormatHours(res.PlannedHours), w.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&allocationID, "allocation", "", "Allocation ID")
	cmd.Flags().StringVar(&week, "week", "", "Any date in the week (YYYY-MM-DD)")
	cmd.Flags().StringVar(&hours, "hours", "", "Proposed hours")
	_ = cmd.MarkFlagRequired("allocation")
	_ = cmd.MarkFlagRequired("week")
	_ = cmd.MarkFlagRequired("hours")

	return cmd
}

func newWeeklyDecideCmd(a *App) *cobra.Command {
	var action, reason, hours string

	cmd := &cobra.Command{
		Use:   "decide WEEKLY_ID",
		Short: "Approve, modify or reject a weekly proposal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := a.requireActor()
			if err != nil {
				return err
			}
			req := app.DecideWeeklyRequest{
				WeeklyID:        args[0],
				Action:          domain.DecisionAction(action),
				RejectionReason: reason,
				Actor:           actor,
			}
			if hours != "" {
				h, err := parseHours("hours", hours)
				if err != nil {
					return err
				}
				req.ApprovedHours = &h
			}

			res, err := a.Services.Weekly.Decide(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Week %s is now %s (counts %s, planned %s)\n", res.Weekly.ID,
				formatter.PlanningStatusPill(res.Weekly.Status), formatter.FormatHours(res.Weekly.Hours()),
				formatter.FormatHours(res.PlannedHours))
			return nil
		},
	}

	cmd.Flags().StringVar(&action, "action", "", "approve | modify | reject")
	cmd.Flags().StringVar(&reason, "reason", "", "Rejection reason (required for reject)")
	cmd.Flags().StringVar(&hours, "hours", "", "Approved hours (required for modify)")
	_ = cmd.MarkFlagRequired("action")

	return cmd
}

func newWeeklyListCmd(a *App) *cobra.Command {
	var allocationID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the weekly plan of an allocation",
		RunE: func(cmd *cobra.Command, args []string) error {
			weeks, err := a.Services.Weekly.ListByAllocation(cmd.Context(), allocationID)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatWeeks(weeks))
			return nil
		},
	}

	cmd.Flags().StringVar(&allocationID, "allocation", "", "Allocation ID")
	_ = cmd.MarkFlagRequired("allocation")

	return cmd
}
