package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/phasehours/internal/app"
	"github.com/alexanderramin/phasehours/internal/domain"
)

const coverageBarWidth = 10

// FormatAllocations renders allocation views as a table. Pending reallocation
// proposals are listed beneath their destination.
func FormatAllocations(views []app.AllocationView) string {
	if len(views) == 0 {
		return Dim("No allocations.") + "\n"
	}

	headers := []string{"ID", "CONSULTANT", "PHASE", "TOTAL", "PLANNED", "STATUS"}
	rows := make([][]string, 0, len(views))
	for _, v := range views {
		a := v.Allocation
		rows = append(rows, []string{
			TruncID(a.ID),
			Bold(a.ConsultantID),
			TruncID(a.PhaseID),
			FormatHours(a.TotalHours),
			RenderCoverage(v.PlannedHours, a.TotalHours, coverageBarWidth),
			AllocationStatusPill(a.Status),
		})
		for _, p := range v.Proposals {
			rows = append(rows, []string{
				Dim("└ " + shortID(p.ID)),
				Dim(p.ConsultantID),
				Dim("from " + shortID(p.SourcePhaseID)),
				StyleBlue.Render("+" + FormatHours(p.Hours)),
				"",
				AllocationStatusPill(domain.AllocationPending),
			})
		}
	}
	return RenderTable(headers, rows, 3)
}

// FormatAllocationDetail renders one allocation with its composition and
// weekly plan.
func FormatAllocationDetail(v *app.AllocationView) string {
	a := v.Allocation
	var b strings.Builder

	fmt.Fprintf(&b, "%s  %s\n", Bold(a.ConsultantID), AllocationStatusPill(a.Status))
	fmt.Fprintf(&b, "%s %s\n", Dim("ID:     "), a.ID)
	fmt.Fprintf(&b, "%s %s\n", Dim("Phase:  "), a.PhaseID)
	fmt.Fprintf(&b, "%s %s  %s\n", Dim("Hours:  "), FormatHours(a.TotalHours),
		RenderCoverage(v.PlannedHours, a.TotalHours, coverageBarWidth))
	fmt.Fprintf(&b, "%s %s\n", Dim("Planned:"), FormatHours(v.PlannedHours))
	if a.ApprovedBy != "" {
		fmt.Fprintf(&b, "%s %s\n", Dim("Decided:"), a.ApprovedBy)
	}
	if a.RejectionReason != "" {
		fmt.Fprintf(&b, "%s %s\n", Dim("Reason: "), a.RejectionReason)
	}
	if a.IsReallocation {
		fmt.Fprintf(&b, "%s from phase %s (unplanned %s)\n", Dim("Source: "),
			a.ReallocatedFromPhaseID, a.ReallocatedFromUnplannedID)
	}

	if a.IsComposite && len(a.Composition) > 0 {
		b.WriteString("\n" + Header("Composition") + "\n")
		rows := make([][]string, 0, len(a.Composition))
		for _, e := range a.Composition {
			settled := StyleGreen.Render("settled")
			if !e.Settled {
				settled = StyleYellow.Render("pending")
			}
			rows = append(rows, []string{string(e.Kind), FormatHours(e.Hours), orDash(shortID(e.SourcePhaseID)), settled})
		}
		b.WriteString(RenderTable([]string{"KIND", "HOURS", "SOURCE", "STATE"}, rows, 1))
	}

	if len(v.Weeks) > 0 {
		b.WriteString("\n" + Header("Weekly plan") + "\n")
		b.WriteString(FormatWeeks(v.Weeks))
	}

	return RenderBox("Allocation", strings.TrimRight(b.String(), "\n"))
}

// FormatWarnings renders advisory budget warnings, one per line.
func FormatWarnings(w app.Warnings) string {
	var b strings.Builder
	for _, msg := range w.Messages() {
		b.WriteString(StyleYellow.Render("! "+msg) + "\n")
	}
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
