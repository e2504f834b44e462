package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/daedaleanai/pgantt/internal/domain"
)

// RenderBox wraps content in a rounded-border box with an optional title.
func RenderBox(title string, content string) string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorDim).
		PaddingLeft(2).
		PaddingRight(2).
		PaddingTop(1).
		PaddingBottom(1)

	if title != "" {
		return boxStyle.Render(StyleHeader.Render(strings.ToUpper(title)) + "\n\n" + content)
	}
	return boxStyle.Render(content)
}

// FormatDays renders a task duration such as "1 day" or "12 days".
func FormatDays(days int) string {
	switch {
	case days <= 0:
		return "-"
	case days == 1:
		return "1 day"
	default:
		return fmt.Sprintf("%d days", days)
	}
}

// FormatDate renders an optional date, or a dimmed dash when unset.
func FormatDate(t *time.Time) string {
	if t == nil {
		return Dim("-")
	}
	return t.Format(domain.DateLayout)
}

// FormatStart renders a task start date or "unscheduled".
func FormatStart(t domain.Task) string {
	if !t.HasStartDate() {
		return Dim("unscheduled")
	}
	return t.StartDate
}

// Truncate shortens s to at most width visible cells, ending with "…".
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(s)
	if lipgloss.Width(s) <= width {
		return s
	}
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}

// PadRight pads s with spaces up to width visible cells.
func PadRight(s string, width int) string {
	if pad := width - lipgloss.Width(s); pad > 0 {
		return s + strings.Repeat(" ", pad)
	}
	return s
}

// OnOff renders a boolean toggle.
func OnOff(b bool) string {
	if b {
		return StyleGreen.Render("on")
	}
	return Dim("off")
}

// RenderSettings renders the view settings as a key/value block.
func RenderSettings(s domain.Settings) string {
	project := s.DefaultProject
	if project == "" {
		project = Dim("-")
	}
	rows := [][]string{
		{"Zoom", string(s.Zoom)},
		{"From", FormatDate(s.StartDate)},
		{"To", FormatDate(s.EndDate)},
		{"Show outside range", OnOff(s.ShowTasksOutsideTimescale)},
		{"Show unscheduled", OnOff(s.ShowTasksUnscheduled)},
		{"Show closed", OnOff(s.ShowTasksClosed)},
		{"Default project", project},
	}
	var b strings.Builder
	for _, r := range rows {
		b.WriteString(StyleDim.Render(PadRight(r[0], 20)) + r[1] + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
