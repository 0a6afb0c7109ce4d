package cmd

import (
	"github.com/spf13/cobra"

	"github.com/armadaproject/arrayjob/internal/arrayjob"
)

func renderCmd(app *arrayjob.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render <template.xml> [submit args...]",
		Short: "Print the script of a single package",
		Args:  cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initParams(cmd, app)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			packageId, err := cmd.Flags().GetInt("package")
			if err != nil {
				return err
			}
			var mpiSize *int
			if cmd.Flags().Changed("mpi-size") {
				size, err := cmd.Flags().GetInt("mpi-size")
				if err != nil {
					return err
				}
				mpiSize = &size
			}
			return app.Render(args[0], args[1:], packageId, mpiSize)
		},
	}
	cmd.Flags().SetInterspersed(false)
	cmd.Flags().Int("package", 0, "Package id")
	cmd.Flags().Int("mpi-size", 0, "Number of ranks requested for the package (default is the package size)")
	return cmd
}
