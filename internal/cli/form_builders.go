package cli

import (
	"fmt"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/daedaleanai/pgantt/internal/cli/formatter"
	"github.com/daedaleanai/pgantt/internal/domain"
)

// pganttHuhTheme returns a huh theme using the Gruvbox palette.
func pganttHuhTheme() *huh.Theme {
	t := huh.ThemeBase()

	// Focused state: orange accent
	t.Focused.Title = lipgloss.NewStyle().Foreground(formatter.ColorHeader).Bold(true)
	t.Focused.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorGreen)
	t.Focused.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.FocusedButton = lipgloss.NewStyle().Foreground(formatter.ColorFg).Background(formatter.ColorHeader).Padding(0, 1)
	t.Focused.BlurredButton = lipgloss.NewStyle().Foreground(formatter.ColorDim).Padding(0, 1)
	t.Focused.TextInput.Cursor = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.TextInput.Placeholder = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Focused.Description = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	// Blurred state: dimmed
	t.Blurred.Title = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	return t
}

func validateOptionalDate(s string) error {
	if s == "" {
		return nil
	}
	if _, err := time.Parse(domain.DateLayout, s); err != nil {
		return fmt.Errorf("use YYYY-MM-DD format")
	}
	return nil
}

// parseOptionalDate returns nil for an empty string.
func parseOptionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: use YYYY-MM-DD", s)
	}
	return &t, nil
}

func formatOptionalDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(domain.DateLayout)
}

// dateInput returns a huh.Input for an optional date field with YYYY-MM-DD validation.
func dateInput(title string, value *string) *huh.Input {
	return huh.NewInput().
		Title(title).
		Placeholder("2021-03-01").
		Value(value).
		Validate(validateOptionalDate)
}

// settingsFormValues carries the editable settings as form-friendly values.
type settingsFormValues struct {
	Zoom           string
	From, To       string
	ShowOutside    bool
	ShowUnsched    bool
	ShowClosed     bool
	DefaultProject string
}

func newSettingsFormValues(s domain.Settings) *settingsFormValues {
	return &settingsFormValues{
		Zoom:           string(s.Zoom),
		From:           formatOptionalDate(s.StartDate),
		To:             formatOptionalDate(s.EndDate),
		ShowOutside:    s.ShowTasksOutsideTimescale,
		ShowUnsched:    s.ShowTasksUnscheduled,
		ShowClosed:     s.ShowTasksClosed,
		DefaultProject: s.DefaultProject,
	}
}

// apply writes the form values back onto s.
func (v *settingsFormValues) apply(s *domain.Settings) error {
	from, err := parseOptionalDate(v.From)
	if err != nil {
		return err
	}
	to, err := parseOptionalDate(v.To)
	if err != nil {
		return err
	}
	s.Zoom = domain.Zoom(v.Zoom)
	s.StartDate, s.EndDate = from, to
	s.ShowTasksOutsideTimescale = v.ShowOutside
	s.ShowTasksUnscheduled = v.ShowUnsched
	s.ShowTasksClosed = v.ShowClosed
	s.DefaultProject = v.DefaultProject
	return s.Validate()
}

// settingsForm builds the interactive settings editor. projects feeds the
// default-project choice; when empty a free-text PHID input is shown.
func settingsForm(v *settingsFormValues, projects []domain.Project) *huh.Form {
	zooms := make([]huh.Option[string], 0, len(domain.Zooms))
	for _, z := range domain.Zooms {
		zooms = append(zooms, huh.NewOption(string(z), string(z)))
	}

	var project huh.Field
	if len(projects) > 0 {
		options := []huh.Option[string]{huh.NewOption("(none)", "")}
		for _, p := range projects {
			options = append(options, huh.NewOption(p.Name, p.PHID))
		}
		project = huh.NewSelect[string]().Title("Default project").Options(options...).Value(&v.DefaultProject)
	} else {
		project = huh.NewInput().Title("Default project PHID").Value(&v.DefaultProject)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title("Zoom").Options(zooms...).Value(&v.Zoom),
			dateInput("From (YYYY-MM-DD, blank for auto)", &v.From),
			dateInput("To (YYYY-MM-DD, blank for auto)", &v.To),
		),
		huh.NewGroup(
			huh.NewConfirm().Title("Show tasks outside the date range?").Value(&v.ShowOutside),
			huh.NewConfirm().Title("Show unscheduled tasks?").Value(&v.ShowUnsched),
			huh.NewConfirm().Title("Show closed tasks?").Value(&v.ShowClosed),
			project,
		),
	).WithTheme(pganttHuhTheme()).WithShowHelp(false)
}
