package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/armadaproject/arrayjob/internal/arrayjob"
	"github.com/armadaproject/arrayjob/internal/arrayjob/dispatch"
)

// RootCmd starts the job of the current rank. It is not meant to be called by hand;
// submission scripts generated by arrayjob call it once per rank.
// The job's exit code is logged; the dispatcher itself only fails if the job could not be started.
func RootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "arrayjob-control -provide <provider> -execute <executable> -package <id> -packsize <n> -args [submit args...]",
		Short: "Start the job of the current MPI rank of an array job package.",
		// -args forwards everything after it verbatim, and flags use a single dash.
		DisableFlagParsing: true,
		SilenceUsage:       true,
		SilenceErrors:      true,
		RunE: func(cmd *cobra.Command, argv []string) error {
			if len(argv) == 1 && (argv[0] == "-h" || argv[0] == "--help") {
				return cmd.Help()
			}
			args, err := dispatch.ParseArgs(argv)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			d := &dispatch.Dispatcher{Registry: arrayjob.DefaultRegistry()}
			_, err = d.Run(ctx, args)
			return err
		},
	}
	return cmd
}
