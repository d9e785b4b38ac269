package commands

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/eventflow/eventflow/pkg/application"
	"github.com/eventflow/eventflow/pkg/migrate"
)

func newMigrateCmd(mods []application.Module) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or inspect database migrations",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withRunner(cmd.Context(), mods, func(ctx context.Context, r *migrate.Runner) error {
					results, err := r.Up(ctx)
					for _, res := range results {
						fmt.Fprintf(cmd.OutOrStdout(), "applied %s (%s)\n", res.Source.Path, res.Duration)
					}
					if err == nil && len(results) == 0 {
						fmt.Fprintln(cmd.OutOrStdout(), "no pending migrations")
					}
					return err
				})
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withRunner(cmd.Context(), mods, func(ctx context.Context, r *migrate.Runner) error {
					res, err := r.Down(ctx)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "rolled back %s\n", res.Source.Path)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "List migrations and whether they are applied",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withRunner(cmd.Context(), mods, func(ctx context.Context, r *migrate.Runner) error {
					statuses, err := r.Status(ctx)
					if err != nil {
						return err
					}
					return printStatus(cmd.OutOrStdout(), statuses)
				})
			},
		},
	)
	return cmd
}

func withRunner(ctx context.Context, mods []application.Module, fn func(context.Context, *migrate.Runner) error) error {
	ctx, app, closeDB, err := loadApp(ctx, mods)
	if err != nil {
		return err
	}
	defer closeDB()
	runner, err := migrate.New(app.DB(), app.Migrations()...)
	if err != nil {
		return err
	}
	defer runner.Close()
	return fn(ctx, runner)
}

func printStatus(w io.Writer, statuses []*goose.MigrationStatus) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tSTATE\tAPPLIED AT\tFILE")
	for _, s := range statuses {
		applied := "-"
		if !s.AppliedAt.IsZero() {
			applied = s.AppliedAt.Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", s.Source.Version, s.State, applied, s.Source.Path)
	}
	return tw.Flush()
}
