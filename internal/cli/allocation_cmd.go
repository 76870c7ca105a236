package cli

import (
	"fmt"

	"github.com/alexanderramin/phasehours/internal/app"
	"github.com/alexanderramin/phasehours/internal/cli/formatter"
	"github.com/alexanderramin/phasehours/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newAllocationCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "allocation",
		Aliases: []string{"alloc"},
		Short:   "Submit, decide and inspect phase allocations",
	}

	cmd.AddCommand(
		newAllocationSubmitCmd(a),
		newAllocationDecideCmd(a),
		newAllocationRequestDeletionCmd(a),
		newAllocationListCmd(a),
		newAllocationShowCmd(a),
	)

	return cmd
}

func parseHours(flag, value string) (decimal.Decimal, error) {
	h, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, domain.Validationf("--%s %q is not a number", flag, value)
	}
	return h, nil
}

func newAllocationSubmitCmd(a *App) *cobra.Command {
	var phaseID, consultantID, hours, fromUnplanned, fromPhase string

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Create or update a consultant's allocation for a phase",
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := a.requireActor()
			if err != nil {
				return err
			}
			total, err := parseHours("hours", hours)
			if err != nil {
				return err
			}

			res, err := a.Services.Allocations.Submit(cmd.Context(), app.SubmitRequest{
				PhaseID:                    phaseID,
				ConsultantID:               consultantID,
				TotalHours:                 total,
				Actor:                      actor,
				IsReallocation:             fromUnplanned != "",
				ReallocatedFromPhaseID:     fromPhase,
				ReallocatedFromUnplannedID: fromUnplanned,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case res.Reallocation != nil:
				fmt.Fprint(out, formatter.FormatReallocation(res.Reallocation))
			case res.Created:
				fmt.Fprintf(out, "Created allocation %s: %s for %s (%s)\n", res.Allocation.ID,
					formatter.FormatHours(res.Allocation.TotalHours), res.Allocation.ConsultantID, res.Allocation.Status)
			case !res.Changed:
				fmt.Fprintf(out, "Allocation %s already at %s; nothing changed\n", res.Allocation.ID,
					formatter.FormatHours(res.Allocation.TotalHours))
			default:
				fmt.Fprintf(out, "Updated allocation %s to %s (%s)\n", res.Allocation.ID,
					formatter.FormatHours(res.Allocation.TotalHours), res.Allocation.Status)
			}
			if res.Reallocation == nil {
				fmt.Fprint(out, formatter.FormatWarnings(res.Warnings))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&phaseID, "phase", "", "Phase ID")
	cmd.Flags().StringVar(&consultantID, "consultant", "", "Consultant ID")
	cmd.Flags().StringVar(&hours, "hours", "", "Total hours for the phase")
	cmd.Flags().StringVar(&fromUnplanned, "from-unplanned", "", "Unplanned record the hours come from (reallocation)")
	cmd.Flags().StringVar(&fromPhase, "from-phase", "", "Phase the reallocated hours come from")
	_ = cmd.MarkFlagRequired("phase")
	_ = cmd.MarkFlagRequired("consultant")
	_ = cmd.MarkFlagRequired("hours")

	return cmd
}

func newAllocationDecideCmd(a *App) *cobra.Command {
	var action, reason, hours string

	cmd := &cobra.Command{
		Use:   "decide ALLOCATION_ID",
		Short: "Approve, reject, modify or settle a deletion request (Growth Team)",
		Long: `Records a Growth Team decision. ALLOCATION_ID may also be a reallocation
proposal ID, which accepts approve and reject only.

Actions: approve, reject, modify, delete, reject-deletion.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := a.requireActor()
			if err != nil {
				return err
			}
			req := app.DecideRequest{
				AllocationID:    args[0],
				Action:          domain.DecisionAction(action),
				Actor:           actor,
				RejectionReason: reason,
			}
			if hours != "" {
				h, err := parseHours("hours", hours)
				if err != nil {
					return err
				}
				req.ModifiedHours = &h
			}

			res, err := a.Services.Allocations.Decide(cmd.Context(), req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case res.Proposal != nil && res.Proposal.Approved:
				fmt.Fprintf(out, "Approved reallocation proposal %s into allocation %s (now %s)\n",
					args[0], res.Allocation.ID, formatter.FormatHours(res.Allocation.TotalHours))
			case res.Proposal != nil:
				fmt.Fprintf(out, "Rejected reallocation proposal %s; unplanned hours reopened\n", args[0])
			case res.Deleted:
				fmt.Fprintf(out, "Allocation %s removed\n", args[0])
			default:
				fmt.Fprintf(out, "Allocation %s is now %s\n", res.Allocation.ID,
					formatter.AllocationStatusPill(res.Allocation.Status))
			}
			for _, u := range res.Reverted {
				fmt.Fprintf(out, "  reopened %s unplanned hours (%s)\n", formatter.FormatHours(u.UnplannedHours), u.ID)
			}
			fmt.Fprint(out, formatter.FormatWarnings(res.Warnings))
			return nil
		},
	}

	cmd.Flags().StringVar(&action, "action", "", "approve | reject | modify | delete | reject-deletion")
	cmd.Flags().StringVar(&reason, "reason", "", "Rejection reason (required for reject and reject-deletion)")
	cmd.Flags().StringVar(&hours, "hours", "", "New total hours (required for modify)")
	_ = cmd.MarkFlagRequired("action")

	return cmd
}

func newAllocationRequestDeletionCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "request-deletion ALLOCATION_ID",
		Short: "Ask the Growth Team to delete an approved allocation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := a.requireActor()
			if err != nil {
				return err
			}
			alloc, err := a.Services.Allocations.RequestDeletion(cmd.Context(), args[0], actor)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deletion requested for allocation %s (%s)\n", alloc.ID, alloc.Status)
			return nil
		},
	}
}

func newAllocationListCmd(a *App) *cobra.Command {
	var phaseID, consultantID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List allocations for a phase or a consultant",
		RunE: func(cmd *cobra.Command, args []string) error {
			var views []app.AllocationView
			var err error
			switch {
			case phaseID != "":
				views, err = a.Services.Allocations.ListByPhase(cmd.Context(), phaseID)
			case consultantID != "":
				views, err = a.Services.Allocations.ListByConsultant(cmd.Context(), consultantID)
			default:
				return fmt.Errorf("--phase or --consultant is required")
			}
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatAllocations(views))
			return nil
		},
	}

	cmd.Flags().StringVar(&phaseID, "phase", "", "Phase ID")
	cmd.Flags().StringVar(&consultantID, "consultant", "", "Consultant ID")
	cmd.MarkFlagsMutuallyExclusive("phase", "consultant")

	return cmd
}

func newAllocationShowCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show ALLOCATION_ID",
		Short: "Show an allocation with its composition and weekly plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := a.Services.Allocations.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatAllocationDetail(view))
			return nil
		},
	}
}
