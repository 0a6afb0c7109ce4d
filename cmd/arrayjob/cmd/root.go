package cmd

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/armadaproject/arrayjob/internal/arrayjob"
	"github.com/armadaproject/arrayjob/internal/common"
)

// RootCmd is the root Cobra command that gets called from the main func.
// All other sub-commands should be registered here.
func RootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "arrayjob",
		Short: "arrayjob packages large sets of independent jobs into MPI array jobs.",
		Long: `arrayjob packages large sets of independent jobs into MPI array jobs.

A job template names the provider that lists the jobs, the executable that runs each job and the
scheduler directives of the submission scripts. arrayjob splits the jobs into packages of at most
as many jobs as the template requests MPI ranks and submits one script per package.

Persistent config can be saved in a config file so it doesn't have to be specified every command.

Example structure:
submitCommand: sbatch --parsable {}
scratchDir: /scratch/arrayjob
logLevel: info

The location of this file can be passed in using the --config argument.
If not provided, $HOME/.arrayjob.yaml is used.`,
		SilenceUsage: true,
	}

	defaults := arrayjob.NewApp().Params
	cmd.PersistentFlags().String("config", "", "Config file (default is $HOME/.arrayjob.yaml)")
	cmd.PersistentFlags().String("submit-command", defaults.SubmitCommand, `Command scripts are submitted with; "{}" is replaced by the script path`)
	cmd.PersistentFlags().Bool("keep-scripts", defaults.KeepScripts, "Keep the generated scripts after submission")
	cmd.PersistentFlags().String("scratch-dir", defaults.ScratchDir, "Directory scripts are written to (default is the working directory)")
	cmd.PersistentFlags().String("work-dir", defaults.WorkDir, "Directory providers create job directories in (default is the working directory)")
	cmd.PersistentFlags().String("log-level", defaults.LogLevel.String(), "Log level")

	cmd.AddCommand(
		versionCmd(arrayjob.NewApp()),
		submitCmd(arrayjob.NewApp()),
		renderCmd(arrayjob.NewApp()),
		packagesCmd(arrayjob.NewApp()),
		selectorCmd(arrayjob.NewApp()),
		runLocalCmd(arrayjob.NewApp()),
	)

	return cmd
}

var flagKeys = map[string]string{
	"submit-command": "submitCommand",
	"keep-scripts":   "keepScripts",
	"scratch-dir":    "scratchDir",
	"work-dir":       "workDir",
	"log-level":      "logLevel",
}

// bindFlags makes flags override the config file and environment for the keys in flagKeys.
func bindFlags(flags *pflag.FlagSet) error {
	for flag, key := range flagKeys {
		if err := viper.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}

func initParams(cmd *cobra.Command, app *arrayjob.App) error {
	if err := bindFlags(cmd.Flags()); err != nil {
		return err
	}
	cfgFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return errors.WithStack(err)
	}
	if err := common.LoadConfig(app.Params, cfgFile); err != nil {
		return err
	}
	if err := app.ValidateParams(); err != nil {
		return err
	}
	log.SetLevel(app.Params.LogLevel)
	return nil
}
