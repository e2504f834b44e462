package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/daedaleanai/pgantt/internal/cli/formatter"
	"github.com/daedaleanai/pgantt/internal/domain"
	"github.com/daedaleanai/pgantt/internal/repository"
	"github.com/spf13/cobra"
)

func newSettingsCmd(app *App) *cobra.Command {
	var (
		zoom, from, to, defaultProject      string
		showOutside, showUnsched, showClose bool
		edit, reset                         bool
	)

	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the chart view settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			settings, err := app.Settings.GetOrDefault(ctx, repository.DefaultProfile)
			if err != nil {
				return err
			}
			if reset {
				settings = domain.DefaultSettings()
			}

			flags := cmd.Flags()
			changed := reset
			if flags.Changed("zoom") {
				z, ok := parseZoom(zoom)
				if !ok {
					return fmt.Errorf("invalid zoom %q: use one of %s", zoom, zoomNames())
				}
				settings.Zoom = z
				changed = true
			}
			if flags.Changed("from") {
				if settings.StartDate, err = parseOptionalDate(from); err != nil {
					return err
				}
				changed = true
			}
			if flags.Changed("to") {
				if settings.EndDate, err = parseOptionalDate(to); err != nil {
					return err
				}
				changed = true
			}
			if flags.Changed("show-outside") {
				settings.ShowTasksOutsideTimescale = showOutside
				changed = true
			}
			if flags.Changed("show-unscheduled") {
				settings.ShowTasksUnscheduled = showUnsched
				changed = true
			}
			if flags.Changed("show-closed") {
				settings.ShowTasksClosed = showClose
				changed = true
			}
			if flags.Changed("default-project") {
				settings.DefaultProject = defaultProject
				changed = true
			}

			if edit {
				if !app.interactive() {
					return errors.New("--edit needs an interactive terminal")
				}
				projects, err := app.Projects.List(ctx)
				if err != nil {
					return err
				}
				values := newSettingsFormValues(settings)
				if err := settingsForm(values, projects).Run(); err != nil {
					return err
				}
				if err := values.apply(&settings); err != nil {
					return err
				}
				changed = true
			}

			if changed {
				if err := app.Settings.Save(ctx, repository.DefaultProfile, settings); err != nil {
					return err
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), formatter.RenderBox("Settings", formatter.RenderSettings(settings)))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&zoom, "zoom", "", "Zoom level ("+zoomNames()+")")
	f.StringVar(&from, "from", "", "First day shown (YYYY-MM-DD, empty for auto)")
	f.StringVar(&to, "to", "", "Last day shown (YYYY-MM-DD, empty for auto)")
	f.BoolVar(&showOutside, "show-outside", true, "Show tasks outside the date range")
	f.BoolVar(&showUnsched, "show-unscheduled", false, "Show tasks without a start date")
	f.BoolVar(&showClose, "show-closed", false, "Show closed tasks")
	f.StringVar(&defaultProject, "default-project", "", "Project used when a command names none")
	f.BoolVar(&edit, "edit", false, "Edit the settings in a form")
	f.BoolVar(&reset, "reset", false, "Restore the default settings")

	return cmd
}

func parseZoom(s string) (domain.Zoom, bool) {
	for _, z := range domain.Zooms {
		if strings.EqualFold(string(z), s) {
			return z, true
		}
	}
	return "", false
}

func zoomNames() string {
	names := make([]string, len(domain.Zooms))
	for i, z := range domain.Zooms {
		names[i] = string(z)
	}
	return strings.Join(names, ", ")
}
