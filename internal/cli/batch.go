package cli

import (
	"fmt"
	"os"

	"github.com/Olprog59/go-freightdesk/internal/app"
	"github.com/Olprog59/go-freightdesk/internal/domain"
	"github.com/spf13/cobra"
)

func newBatchCommand(rt *runtime) *cobra.Command {
	var (
		file   string
		op     domain.BatchOperation
		status string
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Run a bulk operation over several clients",
		Long: `Run update, delete, change_status, add_tags or remove_tags over a list
of clients. The operation is read from --file (JSON or YAML) or built from
flags; flags given alongside --file override it. The command fails when any
item failed, after printing the full result.`,
		Example: `  fwdctl batch --operation add_tags --ids c-1,c-2 --tags export
  fwdctl batch --operation change_status --ids c-1 --status suspended
  fwdctl batch --operation delete --ids c-1,c-2 --reason "duplicate" --force
  fwdctl batch --file archive.yaml --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			batch := domain.BatchOperation{}
			if file != "" {
				raw, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("read batch file: %w", err)
				}
				if err := decodeDocument(raw, &batch); err != nil {
					return fmt.Errorf("batch file %s: %w", file, err)
				}
			}

			f := cmd.Flags()
			if f.Changed("operation") {
				batch.Operation = op.Operation
			}
			if f.Changed("ids") {
				batch.ClientIDs = op.ClientIDs
			}
			if f.Changed("tags") {
				batch.Data.Tags = op.Data.Tags
			}
			if f.Changed("status") {
				s := domain.ClientStatus(status)
				batch.Data.Status = &s
			}
			if f.Changed("reason") {
				batch.Data.Reason = op.Data.Reason
			}
			if f.Changed("force") {
				batch.Force = op.Force
			}
			if f.Changed("reason") && batch.Operation != domain.BatchDelete {
				return fmt.Errorf("--reason only applies to delete, not %q", batch.Operation)
			}

			return rt.withContainer(func(c *app.Container) error {
				res, err := c.BatchSvc.ExecuteBatch(cmd.Context(), batch, rt.actor)
				if err != nil {
					return err
				}
				if err := rt.print(cmd.OutOrStdout(), res); err != nil {
					return err
				}
				if res.ErrorCount > 0 {
					return fmt.Errorf("%d of %d item(s) failed", res.ErrorCount, len(batch.ClientIDs))
				}
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.StringVarP(&file, "file", "f", "", "JSON or YAML batch operation")
	f.StringVar((*string)(&op.Operation), "operation", "", "update, delete, change_status, add_tags or remove_tags")
	f.StringSliceVar(&op.ClientIDs, "ids", nil, "client ids")
	f.StringSliceVar(&op.Data.Tags, "tags", nil, "tags to add or remove")
	f.StringVar(&status, "status", "", "target status for change_status")
	f.StringVar(&op.Data.Reason, "reason", "", "deletion reason (delete only)")
	f.BoolVar(&op.Force, "force", false, "apply to the eligible items despite pre-flight findings")
	return cmd
}
