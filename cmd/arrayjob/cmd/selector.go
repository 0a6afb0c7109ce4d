package cmd

import (
	"github.com/spf13/cobra"

	"github.com/armadaproject/arrayjob/internal/arrayjob"
)

func selectorCmd(app *arrayjob.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "selector",
		Short: "Convert between job selectors and job indices",
	}
	cmd.AddCommand(selectorParseCmd(app), selectorCompactCmd(app))
	return cmd
}

func selectorParseCmd(app *arrayjob.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <selector>",
		Short: "Print the job indices a selector such as 1-10,15 denotes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := cmd.Flags().GetString("db")
			if err != nil {
				return err
			}
			return app.ParseSelector(args[0], db)
		},
	}
	cmd.Flags().String("db", "", "Simulation database that resolves the selector \"all\"")
	return cmd
}

func selectorCompactCmd(app *arrayjob.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compact <index>...",
		Short: "Print the shortest selector for a list of job indices",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.CompactSelector(args)
		},
	}
	return cmd
}
