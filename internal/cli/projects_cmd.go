package cli

import (
	"fmt"
	"strings"

	"github.com/daedaleanai/pgantt/internal/cli/formatter"
	"github.com/daedaleanai/pgantt/internal/domain"
	"github.com/spf13/cobra"
)

func newProjectsCmd(app *App) *cobra.Command {
	var cached bool

	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List projects from the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var (
				projects []domain.Project
				err      error
			)
			if cached {
				projects, err = app.Projects.List(ctx)
			} else {
				projects, err = syncProjects(ctx, app)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(projects) == 0 {
				fmt.Fprintln(out, formatter.Dim("No projects found."))
				return nil
			}

			rows := make([][]string, 0, len(projects))
			for _, p := range projects {
				rows = append(rows, []string{p.Name, formatter.Dim(p.PHID), columnNames(p)})
			}
			fmt.Fprint(out, formatter.RenderTable([]string{"NAME", "PHID", "COLUMNS"}, rows))
			return nil
		},
	}

	cmd.Flags().BoolVar(&cached, "cached", false, "List the projects stored by the last sync without contacting the server")

	return cmd
}

func columnNames(p domain.Project) string {
	if len(p.Columns) == 0 {
		return formatter.Dim("-")
	}
	names := make([]string, len(p.Columns))
	for i, c := range p.Columns {
		names[i] = c.Name
	}
	return strings.Join(names, ", ")
}
