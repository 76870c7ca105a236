package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/phasehours/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorPurple = lipgloss.Color("#d3869b")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

// Predefined lipgloss styles.
var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue   = lipgloss.NewStyle().Foreground(ColorBlue)
	StylePurple = lipgloss.NewStyle().Foreground(ColorPurple)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg     = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// DisableColor replaces every style with an unstyled one. Called when stdout
// is not a terminal.
func DisableColor() {
	plain := lipgloss.NewStyle()
	StyleGreen, StyleYellow, StyleRed, StyleBlue = plain, plain, plain, plain
	StylePurple, StyleDim, StyleFg, StyleHeader, StyleBold = plain, plain, plain, plain, plain
}

// AllocationStatusPill returns a colored indicator for an allocation status.
func AllocationStatusPill(status domain.AllocationStatus) string {
	switch status {
	case domain.AllocationPending:
		return StyleYellow.Render("○ " + string(status))
	case domain.AllocationApproved:
		return StyleGreen.Render("● " + string(status))
	case domain.AllocationRejected:
		return StyleRed.Render("✖ " + string(status))
	case domain.AllocationDeletionPending:
		return StylePurple.Render("⊘ " + string(status))
	case domain.AllocationExpired:
		return StyleRed.Render("◌ " + string(status))
	case domain.AllocationForfeited:
		return StyleDim.Render("✖ " + string(status))
	default:
		return StyleDim.Render(string(status))
	}
}

// PlanningStatusPill returns a colored indicator for a weekly planning status.
func PlanningStatusPill(status domain.PlanningStatus) string {
	switch status {
	case domain.PlanningApproved:
		return StyleGreen.Render("● " + string(status))
	case domain.PlanningRejected:
		return StyleRed.Render("✖ " + string(status))
	default:
		return StyleYellow.Render("○ " + string(status))
	}
}

func UnplannedStatusPill(status domain.UnplannedStatus) string {
	switch status {
	case domain.UnplannedExpired:
		return StyleRed.Render("◌ " + string(status))
	case domain.UnplannedReallocated:
		return StyleBlue.Render("↻ " + string(status))
	default:
		return StyleDim.Render("✖ " + string(status))
	}
}

// Header renders a section header with the orange header style and an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", len(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

// Dim renders text in the muted/dim color.
func Dim(text string) string {
	return StyleDim.Render(text)
}

// Bold renders text in bold with the foreground color.
func Bold(text string) string {
	return StyleBold.Render(text)
}
