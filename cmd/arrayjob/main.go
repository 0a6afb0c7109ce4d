package main

import (
	"os"

	"github.com/armadaproject/arrayjob/cmd/arrayjob/cmd"
	"github.com/armadaproject/arrayjob/internal/common"
	"github.com/armadaproject/arrayjob/internal/common/arrayerrors"
)

func main() {
	common.ConfigureCommandLineLogging()
	if err := cmd.RootCmd().Execute(); err != nil {
		os.Exit(arrayerrors.KindFromError(err).ExitCode())
	}
}
