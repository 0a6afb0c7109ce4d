// Package arrayjob splits the jobs of a provider into packages of at most MaxRankSize jobs
// and renders one submission script per package.
package arrayjob

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/armadaproject/arrayjob/internal/arrayjob/provider"
	"github.com/armadaproject/arrayjob/internal/arrayjob/script"
	"github.com/armadaproject/arrayjob/internal/arrayjob/template"
	"github.com/armadaproject/arrayjob/internal/common/arrayerrors"
)

// ArrayJob binds a job template to the provider and submit arguments of one run.
type ArrayJob struct {
	template       *template.JobTemplate
	provider       provider.Provider
	submitArgs     []string
	maxRankSize    int
	controlPath    string
	workDir        string
	scriptTemplate string
}

type Option func(*ArrayJob)

// WithScriptTemplate renders scripts from text instead of script.DefaultTemplate.
func WithScriptTemplate(text string) Option {
	return func(a *ArrayJob) {
		a.scriptTemplate = text
	}
}

// WithControlDir resolves a relative control reference against dir instead of the directory of the running executable.
func WithControlDir(dir string) Option {
	return func(a *ArrayJob) {
		a.controlPath = resolveControlPath(a.template.ControlScript, dir)
	}
}

// WithWorkDir sets the directory the provider resolves job directories against, on the submit side
// and in every rank. It defaults to the working directory.
func WithWorkDir(dir string) Option {
	return func(a *ArrayJob) {
		a.workDir = dir
	}
}

func New(t *template.JobTemplate, p provider.Provider, submitArgs []string, opts ...Option) (*ArrayJob, error) {
	maxRankSize, err := t.MpiSize()
	if err != nil {
		return nil, err
	}
	a := &ArrayJob{
		template:    t,
		provider:    p,
		submitArgs:  append([]string{}, submitArgs...),
		maxRankSize: maxRankSize,
	}
	if filepath.IsAbs(t.ControlScript) {
		a.controlPath = t.ControlScript
	} else {
		exe, err := os.Executable()
		if err != nil {
			return nil, errors.Wrap(err, "error finding executable path")
		}
		a.controlPath = resolveControlPath(t.ControlScript, filepath.Dir(exe))
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.workDir, err = absWorkDir(a.workDir); err != nil {
		return nil, err
	}
	return a, nil
}

func absWorkDir(dir string) (string, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", errors.Wrap(err, "error getting working directory")
		}
		return wd, nil
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", errors.Wrapf(err, "error resolving work dir %s", dir)
	}
	return abs, nil
}

func resolveControlPath(ref string, dir string) string {
	if filepath.IsAbs(ref) {
		return ref
	}
	return filepath.Clean(filepath.Join(dir, ref))
}

// MaxRankSize is the value of the template's mpi cookie.
func (a *ArrayJob) MaxRankSize() int {
	return a.maxRankSize
}

// ControlPath is the absolute path of the control dispatcher written into every script.
func (a *ArrayJob) ControlPath() string {
	return a.controlPath
}

// WorkDir is the absolute work dir written into every script.
func (a *ArrayJob) WorkDir() string {
	return a.workDir
}

func (a *ArrayJob) Template() *template.JobTemplate {
	return a.template
}

func (a *ArrayJob) SubmitArgs() []string {
	return append([]string{}, a.submitArgs...)
}

func (a *ArrayJob) Provider() provider.Provider {
	return a.provider
}

// GenerateScript renders the script of package packageId. If override is set, the mpi cookie of this
// script carries *override instead of MaxRankSize. The template itself is never modified.
func (a *ArrayJob) GenerateScript(packageId int, override *int) (*script.JobScript, error) {
	mpiSize := a.maxRankSize
	if override != nil {
		if *override < 1 {
			return nil, errors.WithStack(&arrayerrors.ErrOverwriteInvalid{Value: *override})
		}
		mpiSize = *override
	}

	content := script.Render(script.Params{
		Template:     a.scriptTemplate,
		CookieFormat: a.template.CookieFormat,
		Cookies:      a.template.CookiesWithMpiSize(mpiSize),
		Commands:     a.template.Commands,
		MpiSize:      mpiSize,
		Control:      a.controlPath,
		Provide:      a.template.ProvideScript,
		Execute:      a.template.ExecuteScript,
		WorkDir:      a.workDir,
		PackageId:    packageId,
		PackSize:     a.maxRankSize,
		Args:         a.submitArgs,
	})
	return &script.JobScript{PackageId: packageId, MpiSize: mpiSize, Content: content}, nil
}

// Plan returns the packages of the run.
func (a *ArrayJob) Plan() ([]provider.Package, error) {
	return provider.Plan(a.provider, a.submitArgs, a.maxRankSize)
}

// SubmitAll submits the script of every package in order and stops at the first failure.
// It returns the number of packages submitted.
func (a *ArrayJob) SubmitAll(ctx context.Context, submitter *script.Submitter) (int, error) {
	submitted := 0
	scripts := a.Scripts()
	for scripts.Next() {
		if err := ctx.Err(); err != nil {
			return submitted, errors.WithStack(err)
		}
		js := scripts.Script()
		if _, err := js.Submit(ctx, submitter); err != nil {
			return submitted, err
		}
		log.WithFields(log.Fields{"package": js.PackageId, "ranks": js.MpiSize}).Info("submitted")
		submitted++
	}
	return submitted, scripts.Err()
}
