package formatter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/daedaleanai/pgantt/internal/domain"
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
	StyleGreen      = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow     = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleYellowBold = lipgloss.NewStyle().Foreground(ColorYellow).Bold(true)
	StyleRed        = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue       = lipgloss.NewStyle().Foreground(ColorBlue)
	StylePurple     = lipgloss.NewStyle().Foreground(ColorPurple)
	StyleDim        = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg         = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader     = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold       = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// TaskTypeStyle returns the bar style for a task type. Closed tasks are dimmed
// regardless of type.
func TaskTypeStyle(t domain.Task) lipgloss.Style {
	if !t.Open {
		return StyleDim
	}
	switch t.Type {
	case domain.TaskTypeProject:
		return StylePurple
	case domain.TaskTypeMilestone:
		return StyleYellow
	default:
		return StyleBlue
	}
}

// TaskTypeBadge returns a short colored label for the task type.
func TaskTypeBadge(t domain.TaskType) string {
	switch t {
	case domain.TaskTypeProject:
		return StylePurple.Render("project")
	case domain.TaskTypeMilestone:
		return StyleYellow.Render("milestone")
	default:
		return StyleBlue.Render("task")
	}
}

// StatusPill returns a colored open/closed indicator.
func StatusPill(open bool) string {
	if open {
		return StyleGreen.Render("● Open")
	}
	return StyleDim.Render("✔ Closed")
}

// Header renders a section header with the orange header style and an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", lipgloss.Width(upper))
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
