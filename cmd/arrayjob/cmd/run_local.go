package cmd

import (
	"github.com/spf13/cobra"

	"github.com/armadaproject/arrayjob/internal/arrayjob"
)

func runLocalCmd(app *arrayjob.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run-local <template.xml> [submit args...]",
		Short: "Run every rank of one package on this machine",
		Long: `Run every rank of one package on this machine.

The ranks are started concurrently, exactly as the control dispatcher would start them
inside a scheduler allocation. Useful for checking a template before submitting it.`,
		Args: cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initParams(cmd, app)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			packageId, err := cmd.Flags().GetInt("package")
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()
			return app.RunLocal(ctx, args[0], args[1:], packageId)
		},
	}
	cmd.Flags().SetInterspersed(false)
	cmd.Flags().Int("package", 0, "Package id")
	return cmd
}
