package cli

import (
	"time"

	"github.com/Olprog59/go-freightdesk/internal/app"
	"github.com/spf13/cobra"
)

type backupReport struct {
	Path    string `json:"path"`
	Removed int    `json:"removed"`
}

func newBackupCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Copy the SQLite database and prune old copies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.withContainer(func(c *app.Container) error {
				path, err := c.PerformBackup(cmd.Context())
				if err != nil {
					return err
				}
				removed, err := c.CleanOldBackups(time.Now())
				if err != nil {
					return err
				}
				return rt.print(cmd.OutOrStdout(), backupReport{Path: path, Removed: removed})
			}, app.WithoutMigrations())
		},
	}
}
