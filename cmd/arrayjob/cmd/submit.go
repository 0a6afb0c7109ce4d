package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/armadaproject/arrayjob/internal/arrayjob"
)

func submitCmd(app *arrayjob.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit <template.xml> [submit args...]",
		Short: "Submit one script per package",
		Long: `Submit one script per package.

Everything after the template path is passed to the provider unchanged, e.g.

arrayjob submit template.xml model.msl 1-100,120`,
		Args: cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initParams(cmd, app)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			dryRun, err := cmd.Flags().GetBool("dry-run")
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()
			return app.Submit(ctx, args[0], args[1:], dryRun)
		},
	}
	cmd.Flags().SetInterspersed(false)
	cmd.Flags().Bool("dry-run", false, "Print the scripts instead of submitting them")
	return cmd
}

// signalContext returns a context that is cancelled on SIGINT/SIGTERM,
// so no further packages are submitted after ctrl-C.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
