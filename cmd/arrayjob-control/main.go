package main

import (
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/armadaproject/arrayjob/cmd/arrayjob-control/cmd"
	"github.com/armadaproject/arrayjob/internal/common"
	"github.com/armadaproject/arrayjob/internal/common/arrayerrors"
	"github.com/armadaproject/arrayjob/internal/common/logging"
)

func main() {
	common.ConfigureLogging()
	if err := cmd.RootCmd().Execute(); err != nil {
		logging.WithStacktrace(log.NewEntry(log.StandardLogger()), err).Error("control dispatcher failed")
		os.Exit(arrayerrors.KindFromError(err).ExitCode())
	}
}
