package formatter

import (
	"strings"
	"testing"
	"time"

	"github.com/alexanderramin/phasehours/internal/app"
	"github.com/alexanderramin/phasehours/internal/domain"
	"github.com/alexanderramin/phasehours/internal/expiry"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func init() {
	DisableColor()
}

func hours(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestRenderTable_AlignsColumns(t *testing.T) {
	out := RenderTable([]string{"ID", "HOURS"}, [][]string{{"a", "40h"}, {"longer-id", "5h"}})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Len(t, lines, 4)
	assert.Equal(t, strings.Index(lines[0], "HOURS"), strings.Index(lines[2], "40h"))
	assert.Equal(t, strings.Index(lines[0], "HOURS"), strings.Index(lines[3], "5h"))
	assert.Empty(t, RenderTable(nil, nil))
}

func TestRenderTable_RightAlignsHourColumns(t *testing.T) {
	out := RenderTable([]string{"ID", "TOTAL"}, [][]string{{"a", "40h"}, {"b", "7.5h"}}, 1)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Len(t, lines, 4)
	assert.True(t, strings.HasSuffix(lines[0], "TOTAL"))
	assert.True(t, strings.HasSuffix(lines[2], "  40h"))
	assert.True(t, strings.HasSuffix(lines[3], " 7.5h"))
	assert.Equal(t, len(lines[2]), len(lines[3]))
}

func TestRenderCoverage(t *testing.T) {
	tests := []struct {
		name    string
		planned string
		total   string
		want    string
	}{
		{"nothing planned", "0", "40", "[░░░░]   0%"},
		{"half planned", "20", "40", "[██░░]  50%"},
		{"fully planned", "40", "40", "[████] 100%"},
		{"over plan clamps", "50", "40", "[████] 100%"},
		{"zero total counts as planned", "0", "0", "[████] 100%"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RenderCoverage(hours(tt.planned), hours(tt.total), 4))
		})
	}
}

func TestCoverage(t *testing.T) {
	assert.InDelta(t, 0.25, Coverage(hours("10"), hours("40")), 1e-9)
	assert.Equal(t, 1.0, Coverage(hours("0"), hours("0")))
}

func TestFormatAllocations_ListsProposalsUnderDestination(t *testing.T) {
	now := time.Now().UTC()
	a := domain.NewPhaseAllocation("alloc-0001-xyz", "phase-0001", "c-1", hours("40"), now)
	a.Status = domain.AllocationApproved

	out := FormatAllocations([]app.AllocationView{{
		Allocation:   a,
		PlannedHours: hours("20"),
		Proposals: []*domain.ReallocationProposal{{
			ID: "prop-0001-xyz", DestinationAllocationID: a.ID, ConsultantID: "c-1",
			SourcePhaseID: "phase-0000", Hours: hours("15"),
		}},
	}})

	assert.Contains(t, out, "alloc-00")
	assert.Contains(t, out, "40h")
	assert.Contains(t, out, "● APPROVED")
	assert.Contains(t, out, "50%")
	assert.Contains(t, out, "└ prop-000")
	assert.Contains(t, out, "+15h")
	assert.Contains(t, out, "○ PENDING")

	assert.Contains(t, FormatAllocations(nil), "No allocations.")
}

func TestFormatAllocationDetail(t *testing.T) {
	now := time.Now().UTC()
	a := domain.NewPhaseAllocation("a-1", "ph-2", "c-1", hours("55"), now)
	a.IsComposite = true
	a.Composition = domain.Composition{
		{Kind: domain.CompositionOriginal, Hours: hours("40"), Settled: true, Timestamp: now},
		{Kind: domain.CompositionReallocated, Hours: hours("15"), SourcePhaseID: "ph-1", Timestamp: now},
	}
	week := domain.WeekOf(now)
	w := domain.NewWeeklyAllocation("w-1", a, week, hours("8"), "c-1", now)

	out := FormatAllocationDetail(&app.AllocationView{Allocation: a, Weeks: []*domain.WeeklyAllocation{w}, PlannedHours: hours("8")})
	assert.Contains(t, out, "ALLOCATION")
	assert.Contains(t, out, "COMPOSITION")
	assert.Contains(t, out, "reallocated")
	assert.Contains(t, out, "pending")
	assert.Contains(t, out, "WEEKLY PLAN")
	assert.Contains(t, out, "8h")
}

func TestFormatExpiration(t *testing.T) {
	out := FormatExpiration(&app.ExpirationReport{
		Scanned: 3,
		Created: []app.ExpiredAllocation{{
			Finding: expiry.Finding{
				AllocationID: "a-2", ConsultantID: "c-1",
				TotalHours: hours("40"), PlannedHours: hours("30"), UnplannedHours: hours("10"),
			},
			UnplannedID: "u-1",
		}},
		Skipped: map[string]expiry.SkipReason{"a-1": "fully planned"},
		Failed:  map[string]string{"a-3": "database is locked"},
	})
	assert.Contains(t, out, "Scanned 3 ended allocations: 1 expired, 1 skipped, 1 failed")
	assert.Contains(t, out, "10h")
	assert.Contains(t, out, "a-3: database is locked")
}

func TestFormatNotifications_MarksUnread(t *testing.T) {
	now := time.Now()
	out := FormatNotifications([]*domain.Notification{
		{ID: "n-1", Title: "Allocation approved", Message: "40h approved", CreatedAt: now},
		{ID: "n-2", Title: "Hours expired", Message: "10h unplanned", CreatedAt: now, ReadAt: &now},
	})
	assert.Equal(t, 1, strings.Count(out, "●"))
	assert.Contains(t, out, "Hours expired")
	assert.Contains(t, FormatNotifications(nil), "Inbox is empty.")
}
