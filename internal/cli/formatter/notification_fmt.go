package formatter

import "github.com/alexanderramin/phasehours/internal/domain"

func FormatNotifications(list []*domain.Notification) string {
	if len(list) == 0 {
		return Dim("Inbox is empty.") + "\n"
	}
	headers := []string{"", "ID", "WHEN", "TITLE", "MESSAGE"}
	rows := make([][]string, 0, len(list))
	for _, n := range list {
		marker := StyleBlue.Render("●")
		if n.ReadAt != nil {
			marker = " "
		}
		rows = append(rows, []string{marker, TruncID(n.ID), HumanDate(n.CreatedAt), Bold(n.Title), n.Message})
	}
	return RenderTable(headers, rows)
}
