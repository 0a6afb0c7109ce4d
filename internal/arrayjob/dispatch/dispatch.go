package dispatch

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/armadaproject/arrayjob/internal/arrayjob/provider"
	"github.com/armadaproject/arrayjob/internal/common/arrayerrors"
)

// Execer runs a command to completion and returns its exit code.
// An error is returned only if the command could not be run at all.
type Execer interface {
	Exec(ctx context.Context, argv []string) (int, error)
}

// ProcessExecer runs commands as child processes.
type ProcessExecer struct {
	Stdout io.Writer
	Stderr io.Writer
}

func (e ProcessExecer) Exec(ctx context.Context, argv []string) (int, error) {
	if len(argv) == 0 {
		return -1, errors.New("empty command")
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = e.Stdout
	cmd.Stderr = e.Stderr
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	err := cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	} else if err != nil {
		return -1, errors.Wrapf(err, "error running %s", argv[0])
	}
	return 0, nil
}

// Dispatcher starts the job of one rank.
type Dispatcher struct {
	Registry *provider.Registry
	// Ranks defaults to EnvRankSource.
	Ranks RankSource
	// Execer defaults to ProcessExecer.
	Execer Execer
	// WorkDir is passed to the provider unless the arguments carry one; defaults to the working directory.
	WorkDir string
}

func (d *Dispatcher) newProvider(args Args, silent bool) (provider.Provider, error) {
	workDir := args.WorkDir
	if workDir == "" {
		workDir = d.WorkDir
	}
	return d.Registry.New(args.Provide, provider.Options{Silent: silent, WorkDir: workDir})
}

// Command returns the command line of the job rank runs in the package described by args:
// the interpreter, the job executable, the job's execution path and the job's arguments.
func (d *Dispatcher) Command(args Args, rank int) ([]string, error) {
	interpreter, err := Interpreter(args.Execute)
	if err != nil {
		return nil, err
	}
	p, err := d.newProvider(args, true)
	if err != nil {
		return nil, err
	}
	jobs, err := provider.ArgsByPackage(p, args.Forwarded, args.PackSize, args.PackageId)
	if err != nil {
		return nil, err
	}
	if rank < 0 || rank >= len(jobs) {
		return nil, errors.WithStack(&arrayerrors.ErrRankOutOfRange{
			Rank:        rank,
			PackageId:   args.PackageId,
			PackageSize: len(jobs),
		})
	}
	return append([]string{interpreter, args.Execute}, jobs[rank]...), nil
}

// Run starts the job of the current rank and waits for it to exit.
// A non-zero exit code of the job is returned and logged, not treated as an error.
func (d *Dispatcher) Run(ctx context.Context, args Args) (int, error) {
	ranks := d.Ranks
	if ranks == nil {
		ranks = EnvRankSource{}
	}
	return d.runRank(ctx, args, ranks.Rank(), ranks.Size())
}

func (d *Dispatcher) runRank(ctx context.Context, args Args, rank int, size int) (int, error) {
	argv, err := d.Command(args, rank)
	if err != nil {
		return -1, err
	}
	execer := d.Execer
	if execer == nil {
		execer = ProcessExecer{}
	}

	mpiInfo := fmt.Sprintf("MPI [%02d/ %02d]", rank+1, size)
	logger := log.WithFields(log.Fields{"package": args.PackageId, "rank": rank})
	logger.Infof("%s Executing : %v", mpiInfo, argv)

	code, err := execer.Exec(ctx, argv)
	if err != nil {
		return code, err
	}
	if code != 0 {
		logger.Warnf("%s Returncode: %d", mpiInfo, code)
	} else {
		logger.Infof("%s Returncode: %d", mpiInfo, code)
	}
	return code, nil
}
