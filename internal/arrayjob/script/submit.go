package script

import (
	"context"
	"math/rand"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/kballard/go-shellquote"
	"github.com/oklog/ulid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/armadaproject/arrayjob/internal/common/arrayerrors"
)

// DefaultSubmitCommand submits a script to Slurm. "{}" is replaced by the path of the script.
const DefaultSubmitCommand = "sbatch {}"

var (
	entropy     = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
	entropyLock sync.Mutex
)

// scratchName returns a unique, time ordered file name, so scripts of concurrent submissions never collide.
func scratchName() string {
	entropyLock.Lock()
	defer entropyLock.Unlock()
	return "arrayjob-" + strings.ToLower(ulid.MustNew(ulid.Now(), entropy).String()) + ".sh"
}

// JobScript is the rendered submission script of one package.
type JobScript struct {
	PackageId int
	MpiSize   int
	Content   string
}

// Runner executes a shell command line and returns its combined output.
type Runner interface {
	Run(ctx context.Context, command string) ([]byte, error)
}

// ShellRunner runs commands through sh -c.
type ShellRunner struct{}

func (ShellRunner) Run(ctx context.Context, command string) ([]byte, error) {
	return exec.CommandContext(ctx, "sh", "-c", command).CombinedOutput()
}

// Submitter writes scripts to scratch files and passes them to the submission command.
type Submitter struct {
	// Command defaults to DefaultSubmitCommand.
	Command string
	// ScratchDir defaults to the working directory.
	ScratchDir string
	// KeepScript leaves the scratch file in place after submission.
	KeepScript bool
	// Runner defaults to ShellRunner.
	Runner Runner
}

// Submit writes the script to a new scratch file and submits it. The scheduler's output is returned.
func (s *JobScript) Submit(ctx context.Context, submitter *Submitter) (string, error) {
	command := submitter.Command
	if command == "" {
		command = DefaultSubmitCommand
	}
	if !strings.Contains(command, "{}") {
		return "", errors.WithStack(&arrayerrors.ErrInvalidArgument{
			Name:    "submitCommand",
			Value:   command,
			Message: `the submit command must contain "{}"`,
		})
	}
	runner := submitter.Runner
	if runner == nil {
		runner = ShellRunner{}
	}

	path, err := s.writeScratchFile(submitter.ScratchDir)
	if err != nil {
		return "", err
	}
	if !submitter.KeepScript {
		defer func() {
			if err := os.Remove(path); err != nil {
				log.WithError(err).Warnf("error removing script %s", path)
			}
		}()
	}

	command = strings.ReplaceAll(command, "{}", shellquote.Join(path))
	logger := log.WithFields(log.Fields{"package": s.PackageId, "script": path})
	logger.Debugf("running %s", command)

	output, err := runner.Run(ctx, command)
	if err != nil {
		return string(output), errors.Wrapf(err, "error submitting package %d with %q: %s", s.PackageId, command, strings.TrimSpace(string(output)))
	}
	logger.Info(strings.TrimSpace(string(output)))
	return string(output), nil
}

func (s *JobScript) writeScratchFile(dir string) (string, error) {
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, scratchName())
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o755)
	if err != nil {
		return "", errors.Wrapf(err, "error creating script %s", path)
	}
	_, err = f.WriteString(s.Content)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", errors.Wrapf(err, "error writing script %s", path)
	}
	return path, nil
}
