package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/eventflow/eventflow/modules/core/seed"
	"github.com/eventflow/eventflow/pkg/application"
)

func newSeedCmd(mods []application.Module) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed workspaces and their people",
		Long: `Without --file the registered seeds run, which create the "Default" workspace
with admin@eventflow.local. With --file the workspaces listed in the YAML file are
created instead. Existing workspaces, users and memberships are left alone.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, app, closeDB, err := loadApp(cmd.Context(), mods)
			if err != nil {
				return err
			}
			defer closeDB()

			if file == "" {
				return app.Seeder().Seed(ctx, app)
			}
			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()
			data, err := seed.Load(f)
			if err != nil {
				return err
			}
			if err := seed.Workspaces(data)(ctx, app); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d workspace(s) from %s\n", len(data.Workspaces), file)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML file listing workspaces to seed")
	return cmd
}
