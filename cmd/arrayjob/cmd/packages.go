package cmd

import (
	"github.com/spf13/cobra"

	"github.com/armadaproject/arrayjob/internal/arrayjob"
)

func packagesCmd(app *arrayjob.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "packages <template.xml> [submit args...]",
		Short: "List the packages a submission would create",
		Args:  cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initParams(cmd, app)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			output, err := cmd.Flags().GetString("output")
			if err != nil {
				return err
			}
			return app.Packages(args[0], args[1:], output)
		},
	}
	cmd.Flags().SetInterspersed(false)
	cmd.Flags().StringP("output", "o", "table", "Output format, one of table, yaml")
	return cmd
}
