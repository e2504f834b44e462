package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/daedaleanai/pgantt/internal/db"
	"github.com/daedaleanai/pgantt/internal/domain"
	"github.com/daedaleanai/pgantt/internal/repository"
)

const phidPrefix = "PHID-"

// syncProjects fetches the project list from the server and stores it.
func syncProjects(ctx context.Context, app *App) ([]domain.Project, error) {
	if err := app.requireServer(); err != nil {
		return nil, err
	}
	projects, err := app.Client.Projects(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}

	now := app.Now()
	err = app.UoW.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repo := repository.NewSQLiteProjectRepo(tx)
		for _, p := range projects {
			if err := repo.Upsert(ctx, p, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storing projects: %w", err)
	}
	return projects, nil
}

// resolveProject maps a command argument to a project. Accepted inputs, in
// order: a PHID, a project name (case-insensitive), or nothing, which falls
// back to the default project and then to an interactive picker.
func resolveProject(ctx context.Context, app *App, input string) (domain.Project, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		settings, err := app.Settings.GetOrDefault(ctx, repository.DefaultProfile)
		if err != nil {
			return domain.Project{}, err
		}
		input = settings.DefaultProject
	}
	if input == "" {
		if !app.interactive() {
			return domain.Project{}, errors.New("project is required: pass a PHID or name, or set one with 'pgantt settings --default-project'")
		}
		return pickProject(ctx, app)
	}

	if strings.HasPrefix(input, phidPrefix) {
		p, err := app.Projects.GetByPHID(ctx, input)
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Project{Name: input, PHID: input}, nil
		}
		return p, err
	}

	p, err := app.Projects.GetByName(ctx, input)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return domain.Project{}, err
	}

	// Unknown locally: the project may be new on the server.
	projects, err := syncProjects(ctx, app)
	if err != nil {
		return domain.Project{}, err
	}
	for _, p := range projects {
		if strings.EqualFold(p.Name, input) {
			return p, nil
		}
	}
	return domain.Project{}, fmt.Errorf("project not found: %q", input)
}

// pickProject shows a huh select over the known projects.
func pickProject(ctx context.Context, app *App) (domain.Project, error) {
	projects, err := app.Projects.List(ctx)
	if err != nil {
		return domain.Project{}, err
	}
	if len(projects) == 0 {
		if projects, err = syncProjects(ctx, app); err != nil {
			return domain.Project{}, err
		}
	}
	if len(projects) == 0 {
		return domain.Project{}, errors.New("the server reports no projects")
	}

	var phid string
	if err := projectPickerForm(projects, &phid).Run(); err != nil {
		return domain.Project{}, err
	}
	for _, p := range projects {
		if p.PHID == phid {
			return p, nil
		}
	}
	return domain.Project{}, fmt.Errorf("project not found: %q", phid)
}

func projectPickerForm(projects []domain.Project, result *string) *huh.Form {
	options := make([]huh.Option[string], 0, len(projects))
	for _, p := range projects {
		options = append(options, huh.NewOption(p.Name, p.PHID))
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Project").
				Options(options...).
				Value(result),
		),
	).WithTheme(pganttHuhTheme()).WithShowHelp(false)
}

// projectLabel renders a project for messages.
func projectLabel(p domain.Project) string {
	if p.Name == "" || p.Name == p.PHID {
		return p.PHID
	}
	return fmt.Sprintf("%s (%s)", p.Name, p.PHID)
}
