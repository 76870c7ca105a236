package formatter

import (
	"fmt"

	"github.com/alexanderramin/phasehours/internal/domain"
)

// FormatWeeks renders an allocation's weekly rows in week order.
func FormatWeeks(weeks []*domain.WeeklyAllocation) string {
	if len(weeks) == 0 {
		return Dim("No weeks planned.") + "\n"
	}
	headers := []string{"ID", "WEEK", "STARTS", "PROPOSED", "APPROVED", "STATUS"}
	rows := make([][]string, 0, len(weeks))
	for _, w := range weeks {
		approved := Dim("--")
		if w.ApprovedHours.Valid {
			approved = FormatHours(w.ApprovedHours.Decimal)
		}
		rows = append(rows, []string{
			TruncID(w.ID),
			fmt.Sprintf("%d-W%02d", w.Year, w.WeekNumber),
			w.WeekStartDate.Format("2006-01-02"),
			FormatHours(w.ProposedHours),
			approved,
			PlanningStatusPill(w.Status),
		})
	}
	return RenderTable(headers, rows, 3, 4)
}
