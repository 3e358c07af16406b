package cli

import (
	"fmt"

	"github.com/Olprog59/go-freightdesk/internal/app"
	"github.com/spf13/cobra"
)

func newMigrateCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	// run opens the database without the automatic migration and reports the
	// resulting version.
	run := func(cmd *cobra.Command, step func(m *app.Migrator) error) error {
		return rt.withContainer(func(c *app.Container) error {
			m, err := c.Migrator()
			if err != nil {
				return err
			}
			if err := step(m); err != nil {
				return err
			}
			status, err := m.Status()
			if err != nil {
				return fmt.Errorf("read schema version: %w", err)
			}
			return rt.print(cmd.OutOrStdout(), status)
		}, app.WithoutMigrations())
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, (*app.Migrator).Up)
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(m *app.Migrator) error { return m.Down(steps) })
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	status := &cobra.Command{
		Use:   "status",
		Short: "Show the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(*app.Migrator) error { return nil })
		},
	}

	cmd.AddCommand(up, down, status)
	return cmd
}
