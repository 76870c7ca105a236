package formatter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/alexanderramin/phasehours/internal/app"
	"github.com/alexanderramin/phasehours/internal/domain"
)

func FormatUnplanned(list []*domain.UnplannedExpiredHours) string {
	if len(list) == 0 {
		return Dim("No unplanned hours.") + "\n"
	}
	headers := []string{"ID", "ALLOCATION", "HOURS", "DETECTED", "STATUS", "TARGET"}
	rows := make([][]string, 0, len(list))
	for _, u := range list {
		rows = append(rows, []string{
			TruncID(u.ID),
			TruncID(u.PhaseAllocationID),
			FormatHours(u.UnplannedHours),
			HumanDate(u.DetectedAt),
			UnplannedStatusPill(u.Status),
			orDash(shortID(u.ReallocatedToPhaseID)),
		})
	}
	return RenderTable(headers, rows, 2)
}

// FormatReallocation summarises where unplanned hours went.
func FormatReallocation(res *app.ReallocateResult) string {
	var b strings.Builder
	hours := "?"
	if res.Unplanned != nil {
		hours = FormatHours(res.Unplanned.UnplannedHours)
	}
	switch res.Scenario {
	case domain.ScenarioNewAllocation:
		fmt.Fprintf(&b, "Created pending allocation %s with %s\n", Bold(shortID(res.Allocation.ID)), hours)
	case domain.ScenarioMergePending:
		fmt.Fprintf(&b, "Merged %s into pending allocation %s (now %s)\n", hours,
			Bold(shortID(res.Allocation.ID)), FormatHours(res.Allocation.TotalHours))
	case domain.ScenarioProposal:
		fmt.Fprintf(&b, "Proposed %s for approved allocation %s (proposal %s)\n", hours,
			Bold(shortID(res.Allocation.ID)), Bold(shortID(res.Proposal.ID)))
	}
	b.WriteString(FormatWarnings(res.Warnings))
	return b.String()
}

// FormatExpiration renders a detector run summary.
func FormatExpiration(r *app.ExpirationReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Scanned %d ended allocations: %s, %s, %s\n",
		r.Scanned,
		StyleRed.Render(fmt.Sprintf("%d expired", len(r.Created))),
		Dim(fmt.Sprintf("%d skipped", len(r.Skipped))),
		StyleYellow.Render(fmt.Sprintf("%d failed", len(r.Failed))))

	if len(r.Created) > 0 {
		created := append([]app.ExpiredAllocation(nil), r.Created...)
		sort.Slice(created, func(i, j int) bool { return created[i].AllocationID < created[j].AllocationID })
		rows := make([][]string, 0, len(created))
		for _, c := range created {
			rows = append(rows, []string{
				TruncID(c.AllocationID),
				c.ConsultantID,
				FormatHours(c.TotalHours),
				FormatHours(c.PlannedHours),
				StyleRed.Render(FormatHours(c.UnplannedHours)),
			})
		}
		b.WriteString("\n" + RenderTable([]string{"ALLOCATION", "CONSULTANT", "TOTAL", "PLANNED", "UNPLANNED"}, rows, 2, 3, 4))
	}
	for id, reason := range r.Failed {
		fmt.Fprintf(&b, "%s %s: %s\n", StyleYellow.Render("!"), id, reason)
	}
	return b.String()
}
