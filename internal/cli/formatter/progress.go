package formatter

import (
	"fmt"
	"strings"
)

const (
	filledBlock = "█"
	emptyBlock  = "░"
)

// RenderProgress renders a task progress bar like [████░░░░]  45%.
// The bar is colored by completion: green >66%, yellow 33-66%, red <33%.
func RenderProgress(progress float32, width int) string {
	pct := clampProgress(progress)
	width = max(width, 2)

	filled := min(int(pct*float64(width)), width)
	bar := strings.Repeat(filledBlock, filled) + strings.Repeat(emptyBlock, width-filled)

	style := StyleGreen
	switch {
	case pct < 0.33:
		style = StyleRed
	case pct < 0.66:
		style = StyleYellow
	}
	return fmt.Sprintf("[%s] %3.0f%%", style.Render(bar), pct*100)
}

// Progress on the wire is a fraction; a few exports carry percentages.
func clampProgress(p float32) float64 {
	v := float64(p)
	if v > 1 && v <= 100 {
		v /= 100
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
