package arrayjob

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"github.com/armadaproject/arrayjob/internal/arrayjob/build"
	"github.com/armadaproject/arrayjob/internal/arrayjob/dispatch"
	"github.com/armadaproject/arrayjob/internal/arrayjob/provider"
	"github.com/armadaproject/arrayjob/internal/arrayjob/script"
	"github.com/armadaproject/arrayjob/internal/arrayjob/selector"
	"github.com/armadaproject/arrayjob/internal/arrayjob/simdb"
	"github.com/armadaproject/arrayjob/internal/arrayjob/template"
	"github.com/armadaproject/arrayjob/internal/common/arrayerrors"
	"github.com/armadaproject/arrayjob/internal/common/config"
	"github.com/armadaproject/arrayjob/internal/common/slices"
)

type App struct {
	// Parameters passed to the CLI by the user.
	Params *Params
	// Out is used to write the output. Defaults to standard out,
	// but can be overridden in tests to make assertions on the applications's output.
	Out io.Writer
	// Registry resolves the provider a job template refers to.
	Registry *provider.Registry
	// Runner executes the submit command. Defaults to script.ShellRunner.
	Runner script.Runner
	// Execer starts job executables for run-local. Defaults to dispatch.ProcessExecer.
	Execer dispatch.Execer
}

// Params struct holds all user-customizable parameters.
// Using a single struct for all CLI commands ensures that all flags are distinct
// and that they can be provided either dynamically on a command line, or
// statically in a config file that's reused between command runs.
type Params struct {
	// Command scripts are submitted with; "{}" is replaced by the script path.
	SubmitCommand string `mapstructure:"submitCommand" validate:"required,contains={}"`
	// Keep the generated scripts after submission.
	KeepScripts bool `mapstructure:"keepScripts"`
	// Directory scripts are written to before submission.
	ScratchDir string `mapstructure:"scratchDir"`
	// Directory providers create job directories in.
	WorkDir  string    `mapstructure:"workDir"`
	LogLevel log.Level `mapstructure:"logLevel"`
}

// NewApp instantiates an App with default parameters, including standard output
// and the built-in providers.
func NewApp() *App {
	return &App{
		Params: &Params{
			SubmitCommand: script.DefaultSubmitCommand,
			LogLevel:      log.InfoLevel,
		},
		Out:      os.Stdout,
		Registry: DefaultRegistry(),
	}
}

// ValidateParams checks a.Params against their validation tags.
func (a *App) ValidateParams() error {
	return config.Validate(a.Params)
}

// Version prints build information (e.g., current git commit) to the app output.
func (a *App) Version() error {
	w := tabwriter.NewWriter(a.Out, 1, 1, 1, ' ', 0)
	defer w.Flush()
	fmt.Fprintf(w, "Version:\t%s\n", build.ReleaseVersion)
	fmt.Fprintf(w, "Commit:\t%s\n", build.GitCommit)
	fmt.Fprintf(w, "Go version:\t%s\n", build.GoVersion)
	fmt.Fprintf(w, "Built:\t%s\n", build.BuildTime)
	return nil
}

// Load reads the job template at templatePath and resolves its provider.
func (a *App) Load(templatePath string, submitArgs []string, opts ...Option) (*ArrayJob, error) {
	t, err := template.Load(templatePath)
	if err != nil {
		return nil, err
	}
	workDir, err := absWorkDir(a.Params.WorkDir)
	if err != nil {
		return nil, err
	}
	p, err := a.Registry.New(t.ProvideScript, provider.Options{WorkDir: workDir})
	if err != nil {
		return nil, err
	}
	return New(t, p, submitArgs, append([]Option{WithWorkDir(workDir)}, opts...)...)
}

func (a *App) submitter() *script.Submitter {
	return &script.Submitter{
		Command:    a.Params.SubmitCommand,
		ScratchDir: a.Params.ScratchDir,
		KeepScript: a.Params.KeepScripts,
		Runner:     a.Runner,
	}
}

// Submit submits one script per package. With dryRun set, the scripts are written to the app output instead.
func (a *App) Submit(ctx context.Context, templatePath string, submitArgs []string, dryRun bool) error {
	job, err := a.Load(templatePath, submitArgs)
	if err != nil {
		return err
	}

	if !dryRun {
		submitted, err := job.SubmitAll(ctx, a.submitter())
		if err != nil {
			return errors.WithMessagef(err, "submitted %d package(s) before failing", submitted)
		}
		log.Infof("submitted %d package(s)", submitted)
		return nil
	}

	scripts := job.Scripts()
	for scripts.Next() {
		fmt.Fprintf(a.Out, "# %s\n%s\n", scripts.Package(), scripts.Script().Content)
	}
	return scripts.Err()
}

// Render writes the script of one package to the app output. Without mpiSize, the package's own size is used.
func (a *App) Render(templatePath string, submitArgs []string, packageId int, mpiSize *int) error {
	job, err := a.Load(templatePath, submitArgs)
	if err != nil {
		return err
	}
	if mpiSize == nil {
		size, err := provider.PackageSize(job.Provider(), job.SubmitArgs(), job.MaxRankSize(), packageId)
		if err != nil {
			return err
		}
		mpiSize = &size
	}
	js, err := job.GenerateScript(packageId, mpiSize)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(a.Out, js.Content)
	return err
}

// Packages lists the packages of a run, as a table or as yaml.
func (a *App) Packages(templatePath string, submitArgs []string, output string) error {
	job, err := a.Load(templatePath, submitArgs)
	if err != nil {
		return err
	}
	packages, err := job.Plan()
	if err != nil {
		return err
	}

	switch output {
	case "yaml":
		out, err := yaml.Marshal(packages)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = a.Out.Write(out)
		return err
	case "table", "":
		w := tabwriter.NewWriter(a.Out, 1, 1, 2, ' ', 0)
		defer w.Flush()
		fmt.Fprintf(w, "PACKAGE\tFIRST JOB\tLAST JOB\tRANKS\n")
		for _, p := range packages {
			fmt.Fprintf(w, "%d\t%d\t%d\t%d\n", p.Id, p.MinId, p.MaxId-1, p.Size())
		}
		return nil
	default:
		return errors.WithStack(&arrayerrors.ErrInvalidArgument{
			Name:    "output",
			Value:   output,
			Message: "must be one of table, yaml",
		})
	}
}

// ParseSelector prints the indices selector denotes. "all" requires dbPath.
func (a *App) ParseSelector(sel string, dbPath string) error {
	var all func() ([]int, error)
	if dbPath != "" {
		all = func() ([]int, error) { return simdb.JobIds(dbPath) }
	}
	indices, err := selector.Parse(sel, all)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(a.Out, "%s\n", strings.Join(slices.Map(indices, strconv.Itoa), " "))
	return err
}

// CompactSelector prints the canonical selector of the given indices.
func (a *App) CompactSelector(values []string) error {
	indices := make([]int, len(values))
	for i, v := range values {
		index, err := strconv.Atoi(v)
		if err != nil || index < 0 {
			return errors.WithStack(&arrayerrors.ErrInvalidArgument{
				Name:    "index",
				Value:   v,
				Message: "must be a non-negative integer",
			})
		}
		indices[i] = index
	}
	_, err := fmt.Fprintf(a.Out, "%s\n", selector.NewIndexSet(indices...))
	return err
}

// RunLocal runs every rank of one package on this machine, the way the scheduler would start them.
// It fails if any rank exits with a non-zero code.
func (a *App) RunLocal(ctx context.Context, templatePath string, submitArgs []string, packageId int) error {
	job, err := a.Load(templatePath, submitArgs)
	if err != nil {
		return err
	}
	d := &dispatch.Dispatcher{Registry: a.Registry, Execer: a.Execer}
	args := dispatch.Args{
		Provide:   job.Template().ProvideScript,
		Execute:   job.Template().ExecuteScript,
		WorkDir:   job.WorkDir(),
		PackageId: packageId,
		PackSize:  job.MaxRankSize(),
		Forwarded: job.SubmitArgs(),
	}
	codes, err := d.RunPackageLocally(ctx, args, 0)
	if err != nil {
		return err
	}
	failed := 0
	for _, code := range codes {
		if code != 0 {
			failed++
		}
	}
	if failed > 0 {
		return errors.Errorf("%d of %d rank(s) of package %d failed", failed, len(codes), packageId)
	}
	return nil
}
