package cli

import (
	"fmt"
	"io"

	"github.com/Olprog59/go-freightdesk/internal/app"
	"github.com/Olprog59/go-freightdesk/internal/config"
	"github.com/spf13/cobra"
)

// Opener builds the container behind data commands; app.NewContainer in production.
type Opener func(cfg *config.Config, opts ...app.Option) (*app.Container, error)

// runtime is the state shared by every command of one invocation
type runtime struct {
	cfg    *config.Config
	open   Opener
	output string
	actor  string
}

// NewRootCommand builds the fwdctl command tree / Construit l'arbre de commandes fwdctl
func NewRootCommand(cfg *config.Config, open Opener) *cobra.Command {
	rt := &runtime{cfg: cfg, open: open}

	root := &cobra.Command{
		Use:   "fwdctl",
		Short: "Operate the freightdesk client records",
		Long: `fwdctl runs schema migrations, searches and inspects client records,
executes batch operations and mints bearer tokens for the HTTP API.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if rt.output != outputJSON && rt.output != outputYAML {
				return fmt.Errorf("unknown output format %q (want %s or %s)", rt.output, outputJSON, outputYAML)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&rt.output, "output", "o", outputYAML, "output format: yaml or json")
	root.PersistentFlags().StringVar(&rt.actor, "as", "fwdctl", "acting user recorded on writes")

	root.AddCommand(
		newMigrateCommand(rt),
		newSearchCommand(rt),
		newShowCommand(rt),
		newBatchCommand(rt),
		newTokenCommand(rt),
		newBackupCommand(rt),
	)
	return root
}

// Execute runs fwdctl against the real database / Exécute fwdctl sur la vraie base
func Execute(cfg *config.Config) error {
	return NewRootCommand(cfg, app.NewContainer).Execute()
}

// withContainer opens the container for the duration of fn
func (rt *runtime) withContainer(fn func(c *app.Container) error, opts ...app.Option) error {
	c, err := rt.open(rt.cfg, opts...)
	if err != nil {
		return err
	}
	defer c.Close()
	return fn(c)
}

func (rt *runtime) print(w io.Writer, v any) error {
	return writeOutput(w, rt.output, v)
}
