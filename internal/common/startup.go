package common

import (
	"os"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	commonconfig "github.com/armadaproject/arrayjob/internal/common/config"
	"github.com/armadaproject/arrayjob/internal/common/logging"
)

const (
	defaultConfigName = ".arrayjob"
	envPrefix         = "ARRAYJOB"
)

// LoadConfig merges the user config file into viper and decodes the result into config.
// If cfgFile is empty, $HOME/.arrayjob.yaml is used when present; a missing default file is not an error.
// Environment variables prefixed with ARRAYJOB_ take precedence over the file.
func LoadConfig(config interface{}, cfgFile string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			return errors.Wrap(err, "error getting user home directory")
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(defaultConfigName)
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.MergeInConfig(); err != nil {
		switch err.(type) {
		case viper.ConfigFileNotFoundError:
			// Only returned when looking for the default file; users don't have to provide one.
		default:
			return errors.Wrapf(err, "error reading config file %s", viper.ConfigFileUsed())
		}
	}

	if err := viper.Unmarshal(config, commonconfig.CustomHooks...); err != nil {
		return errors.Wrap(err, "error decoding config")
	}
	return nil
}

// ConfigureCommandLineLogging sets up message-only logging on stdout for the interactive tools.
func ConfigureCommandLineLogging() {
	commandLineFormatter := new(logging.CommandLineFormatter)
	log.SetFormatter(commandLineFormatter)
	log.SetOutput(os.Stdout)
}

// ConfigureLogging sets up timestamped logging on stdout. Used where output ends up in scheduler log files.
func ConfigureLogging() {
	log.SetFormatter(&log.TextFormatter{DisableColors: true, FullTimestamp: true})
	log.SetOutput(os.Stdout)
}
