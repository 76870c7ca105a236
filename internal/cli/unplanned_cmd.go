package cli

import (
	"fmt"

	"github.com/alexanderramin/phasehours/internal/app"
	"github.com/alexanderramin/phasehours/internal/cli/formatter"
	"github.com/alexanderramin/phasehours/internal/domain"
	"github.com/spf13/cobra"
)

func newUnplannedCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unplanned",
		Short: "Review and reallocate expired unplanned hours",
	}

	cmd.AddCommand(
		newUnplannedListCmd(a),
		newUnplannedReallocateCmd(a),
		newUnplannedRetargetCmd(a),
		newUnplannedForfeitCmd(a),
	)

	return cmd
}

func newUnplannedListCmd(a *App) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List unplanned hours, optionally by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := a.Services.Reallocations.ListUnplanned(cmd.Context(), domain.UnplannedStatus(status))
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatUnplanned(list))
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "EXPIRED | REALLOCATED | FORFEITED")

	return cmd
}

func newUnplannedReallocateCmd(a *App) *cobra.Command {
	var target, hours string

	cmd := &cobra.Command{
		Use:   "reallocate UNPLANNED_ID",
		Short: "Move expired hours into another phase",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := a.requireActor()
			if err != nil {
				return err
			}
			req := app.ReallocateRequest{UnplannedID: args[0], TargetPhaseID: target, Actor: actor}
			if hours != "" {
				h, err := parseHours("hours", hours)
				if err != nil {
					return err
				}
				req.Hours = &h
			}
			res, err := a.Services.Reallocations.Request(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatReallocation(res))
			return nil
		},
	}

	cmd.Flags().StringVar(&target, "to-phase", "", "Target phase ID")
	cmd.Flags().StringVar(&hours, "hours", "", "Hours to move (must equal the unplanned amount)")
	_ = cmd.MarkFlagRequired("to-phase")

	return cmd
}

func newUnplannedRetargetCmd(a *App) *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "retarget PROPOSAL_ID",
		Short: "Point a pending reallocation proposal at a different phase",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := a.requireActor()
			if err != nil {
				return err
			}
			res, err := a.Services.Reallocations.Retarget(cmd.Context(), app.RetargetRequest{
				ProposalID:    args[0],
				TargetPhaseID: target,
				Actor:         actor,
			})
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatReallocation(res))
			return nil
		},
	}

	cmd.Flags().StringVar(&target, "to-phase", "", "New target phase ID")
	_ = cmd.MarkFlagRequired("to-phase")

	return cmd
}

func newUnplannedForfeitCmd(a *App) *cobra.Command {
	var notes string

	cmd := &cobra.Command{
		Use:   "forfeit UNPLANNED_ID",
		Short: "Write off expired hours (Growth Team)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := a.requireActor()
			if err != nil {
				return err
			}
			u, err := a.Services.Reallocations.Forfeit(cmd.Context(), app.ForfeitRequest{
				UnplannedID: args[0],
				Actor:       actor,
				Notes:       notes,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Forfeited %s from allocation %s\n",
				formatter.FormatHours(u.UnplannedHours), u.PhaseAllocationID)
			return nil
		},
	}

	cmd.Flags().StringVar(&notes, "notes", "", "Why the hours are written off")

	return cmd
}
