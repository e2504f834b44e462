package cli

import (
	"fmt"

	"github.com/daedaleanai/pgantt/internal/domain"
	"github.com/spf13/cobra"
)

func newLinkCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "link",
		Short: "Manage dependency links",
	}

	cmd.AddCommand(
		newLinkCreateCmd(app),
		newLinkUpdateCmd(app),
		newLinkDeleteCmd(app),
	)

	return cmd
}

func newLinkCreateCmd(app *App) *cobra.Command {
	var source, target, kind string

	cmd := &cobra.Command{
		Use:   "create <project>",
		Short: "Create a dependency link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.requireServer(); err != nil {
				return err
			}
			k, ok := domain.ParseLinkKind(kind)
			if !ok {
				return fmt.Errorf("invalid link type %q: use FS, SS, FF or SF", kind)
			}
			project, err := resolveProject(ctx, app, args[0])
			if err != nil {
				return err
			}

			session := newEditSession(app, project.PHID)
			id, err := session.service.CreateLink(ctx, project.PHID, domain.Link{
				Source: source,
				Target: target,
				Type:   k,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created link %s (%s %s → %s)\n", id, k, source, target)
			session.report(cmd.ErrOrStderr())
			return nil
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "Task the link starts from")
	cmd.Flags().StringVar(&target, "target", "", "Task the link points to")
	cmd.Flags().StringVar(&kind, "type", "FS", "Link type: FS, SS, FF or SF")
	_ = cmd.MarkFlagRequired("source")
	_ = cmd.MarkFlagRequired("target")

	return cmd
}

func newLinkUpdateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "update <project> <id>",
		Short: "Update a link (not supported by the server)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			session := newEditSession(app, args[0])
			return session.service.UpdateLink(cmd.Context(), args[0], args[1])
		},
	}
}

func newLinkDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <project> <id>",
		Short: "Delete a dependency link",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.requireServer(); err != nil {
				return err
			}
			project, err := resolveProject(ctx, app, args[0])
			if err != nil {
				return err
			}

			session := newEditSession(app, project.PHID)
			if err := session.service.DeleteLink(ctx, project.PHID, args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted link %s\n", args[1])
			session.report(cmd.ErrOrStderr())
			return nil
		},
	}
}
