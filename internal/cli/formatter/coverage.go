package formatter

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	filledBlock = "█"
	emptyBlock  = "░"
)

// Coverage is the planned share of total. A zero total counts as fully
// planned.
func Coverage(planned, total decimal.Decimal) float64 {
	if !total.IsPositive() {
		return 1
	}
	pct, _ := planned.Div(total).Float64()
	return pct
}

// RenderCoverage draws how much of an allocation is planned into weeks, like
// [████░░░░]  50%. Fully planned is green, at least half yellow, less red:
// whatever stays unplanned when the phase ends expires.
func RenderCoverage(planned, total decimal.Decimal, width int) string {
	pct := min(max(Coverage(planned, total), 0), 1)
	width = max(width, 2)

	filled := min(int(pct*float64(width)), width)
	bar := strings.Repeat(filledBlock, filled) + strings.Repeat(emptyBlock, width-filled)

	style := StyleRed
	switch {
	case pct >= 1:
		style = StyleGreen
	case pct >= 0.5:
		style = StyleYellow
	}
	return fmt.Sprintf("[%s] %3.0f%%", style.Render(bar), pct*100)
}
