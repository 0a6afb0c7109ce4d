package arrayjob

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armadaproject/arrayjob/internal/arrayjob/provider"
	"github.com/armadaproject/arrayjob/internal/arrayjob/script"
	"github.com/armadaproject/arrayjob/internal/arrayjob/template"
	"github.com/armadaproject/arrayjob/internal/common/arrayerrors"
)

func testTemplate() *template.JobTemplate {
	return &template.JobTemplate{
		ControlScript: "arrayjob-control",
		ProvideScript: "stub",
		ExecuteScript: "/opt/jobs/run.sh",
		CookieFormat:  "#SBATCH --{}={}",
		MpiTag:        "ntasks",
		Cookies: []template.Cookie{
			{Tag: "job-name", Value: "test"},
			{Tag: "ntasks", Value: "4"},
		},
		Commands: []string{"module load openmpi"},
	}
}

func testArrayJob(t *testing.T, jobs int) *ArrayJob {
	job, err := New(testTemplate(), provider.NewStub(jobs), []string{"-model", "x"}, WithControlDir("/opt/arrayjob/bin"), WithWorkDir("/scratch/run"))
	require.NoError(t, err)
	return job
}

func intPtr(i int) *int {
	return &i
}

func TestNew(t *testing.T) {
	job := testArrayJob(t, 10)
	assert.Equal(t, 4, job.MaxRankSize())
	assert.Equal(t, "/opt/arrayjob/bin/arrayjob-control", job.ControlPath())
	assert.Equal(t, []string{"-model", "x"}, job.SubmitArgs())
	assert.Equal(t, "/scratch/run", job.WorkDir())
}

func TestNew_DefaultWorkDir(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)

	job, err := New(testTemplate(), provider.NewStub(1), nil, WithControlDir("/opt"))
	require.NoError(t, err)
	assert.Equal(t, wd, job.WorkDir())

	job, err = New(testTemplate(), provider.NewStub(1), nil, WithControlDir("/opt"), WithWorkDir("runs"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, "runs"), job.WorkDir())
}

func TestNew_AbsoluteControlPath(t *testing.T) {
	tmpl := testTemplate()
	tmpl.ControlScript = "/usr/local/bin/arrayjob-control"
	job, err := New(tmpl, provider.NewStub(1), nil, WithControlDir("/ignored"))
	require.NoError(t, err)
	assert.Equal(t, "/usr/local/bin/arrayjob-control", job.ControlPath())
}

func TestNew_InvalidMpiSize(t *testing.T) {
	tmpl := testTemplate()
	tmpl.Cookies[1].Value = "zero"
	_, err := New(tmpl, provider.NewStub(1), nil)
	assert.Equal(t, arrayerrors.KindMpiSizeInvalid, arrayerrors.KindFromError(err))
}

func TestGenerateScript(t *testing.T) {
	job := testArrayJob(t, 10)

	js, err := job.GenerateScript(2, intPtr(2))
	require.NoError(t, err)
	assert.Equal(t, `#!/usr/bin/env zsh

#SBATCH --job-name=test
#SBATCH --ntasks=2

module load openmpi

$MPIEXEC $FLAGS_MPI_BATCH /opt/arrayjob/bin/arrayjob-control -provide stub -execute /opt/jobs/run.sh -workdir /scratch/run -package 2 -packsize 4 -args -model x
`, js.Content)
	assert.Equal(t, 2, js.PackageId)
	assert.Equal(t, 2, js.MpiSize)

	js, err = job.GenerateScript(0, nil)
	require.NoError(t, err)
	assert.Contains(t, js.Content, "#SBATCH --ntasks=4\n")
	assert.Equal(t, 4, js.MpiSize)

	js, err = job.GenerateScript(1, intPtr(1))
	require.NoError(t, err)
	assert.Contains(t, js.Content, "\n/opt/arrayjob/bin/arrayjob-control -provide")
}

func TestGenerateScript_OverrideNeverMutatesTemplate(t *testing.T) {
	job := testArrayJob(t, 10)
	before := append([]template.Cookie{}, job.Template().Cookies...)

	for _, override := range []int{2, 0, -3, 17} {
		_, _ = job.GenerateScript(0, intPtr(override))
		assert.Equal(t, before, job.Template().Cookies)
		assert.Equal(t, 4, job.MaxRankSize())
	}
}

func TestGenerateScript_InvalidOverride(t *testing.T) {
	job := testArrayJob(t, 10)
	for _, override := range []int{0, -1} {
		_, err := job.GenerateScript(0, intPtr(override))
		assert.Equal(t, arrayerrors.KindOverwriteInvalid, arrayerrors.KindFromError(err))
	}
}

func TestScripts(t *testing.T) {
	job := testArrayJob(t, 10)

	var sizes []int
	var packages []provider.Package
	scripts := job.Scripts()
	for scripts.Next() {
		sizes = append(sizes, scripts.Script().MpiSize)
		packages = append(packages, scripts.Package())
		assert.Contains(t, scripts.Script().Content, "-packsize 4 ")
	}
	require.NoError(t, scripts.Err())
	assert.Equal(t, []int{4, 4, 2}, sizes)
	assert.Equal(t, []provider.Package{
		{Id: 0, MinId: 0, MaxId: 4},
		{Id: 1, MinId: 4, MaxId: 8},
		{Id: 2, MinId: 8, MaxId: 10},
	}, packages)

	assert.False(t, scripts.Next())

	plan, err := job.Plan()
	require.NoError(t, err)
	assert.Equal(t, packages, plan)
}

func TestScripts_NoJobs(t *testing.T) {
	job := testArrayJob(t, 0)
	scripts := job.Scripts()
	assert.False(t, scripts.Next())
	assert.NoError(t, scripts.Err())
}

type failingProvider struct{}

func (failingProvider) AllExecutionArgs(_ []string) ([][]string, error) {
	return nil, errors.New("database unavailable")
}

func (failingProvider) AllExecutionPaths(_ []string) ([]string, error) {
	return nil, errors.New("database unavailable")
}

func TestScripts_ProviderError(t *testing.T) {
	job, err := New(testTemplate(), failingProvider{}, nil, WithControlDir("/opt"))
	require.NoError(t, err)

	scripts := job.Scripts()
	assert.False(t, scripts.Next())
	assert.Error(t, scripts.Err())
	assert.Nil(t, scripts.Script())
}

type recordingRunner struct {
	commands []string
	failOn   int
}

func (r *recordingRunner) Run(_ context.Context, command string) ([]byte, error) {
	r.commands = append(r.commands, command)
	if r.failOn > 0 && len(r.commands) == r.failOn {
		return []byte("sbatch: error"), errors.New("exit status 1")
	}
	return []byte("Submitted batch job " + command), nil
}

func TestSubmitAll(t *testing.T) {
	job := testArrayJob(t, 10)
	runner := &recordingRunner{}

	submitted, err := job.SubmitAll(context.Background(), &script.Submitter{Command: "sbatch {}", ScratchDir: t.TempDir(), Runner: runner})
	require.NoError(t, err)
	assert.Equal(t, 3, submitted)
	require.Len(t, runner.commands, 3)
	for _, command := range runner.commands {
		assert.True(t, strings.HasPrefix(command, "sbatch "))
	}
}

func TestSubmitAll_StopsAtFirstFailure(t *testing.T) {
	job := testArrayJob(t, 10)
	runner := &recordingRunner{failOn: 2}

	submitted, err := job.SubmitAll(context.Background(), &script.Submitter{Command: "sbatch {}", ScratchDir: t.TempDir(), Runner: runner})
	assert.Error(t, err)
	assert.Equal(t, 1, submitted)
	assert.Len(t, runner.commands, 2)
}

func TestSubmitAll_Cancelled(t *testing.T) {
	job := testArrayJob(t, 10)
	runner := &recordingRunner{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	submitted, err := job.SubmitAll(ctx, &script.Submitter{ScratchDir: t.TempDir(), Runner: runner})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, submitted)
	assert.Empty(t, runner.commands)
}

func TestDefaultRegistry(t *testing.T) {
	assert.Equal(t, []string{"provide", "provide_mocsim", "simdb", "stub"}, DefaultRegistry().Names())
}
