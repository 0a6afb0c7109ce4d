package script

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armadaproject/arrayjob/internal/common/arrayerrors"
)

type recordingRunner struct {
	commands []string
	scripts  []string
	output   string
	err      error
}

func (r *recordingRunner) Run(_ context.Context, command string) ([]byte, error) {
	r.commands = append(r.commands, command)
	path := strings.TrimPrefix(command, "submit ")
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	r.scripts = append(r.scripts, string(content))
	return []byte(r.output), r.err
}

func TestSubmit(t *testing.T) {
	dir := t.TempDir()
	runner := &recordingRunner{output: "Submitted batch job 42\n"}
	js := &JobScript{PackageId: 1, MpiSize: 4, Content: "#!/usr/bin/env zsh\necho hello\n"}

	output, err := js.Submit(context.Background(), &Submitter{Command: "submit {}", ScratchDir: dir, Runner: runner})
	require.NoError(t, err)
	assert.Equal(t, "Submitted batch job 42\n", output)

	require.Len(t, runner.commands, 1)
	assert.True(t, strings.HasPrefix(runner.commands[0], "submit "+dir))
	assert.True(t, strings.HasSuffix(runner.commands[0], ".sh"))
	assert.Equal(t, []string{js.Content}, runner.scripts)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSubmit_KeepScript(t *testing.T) {
	dir := t.TempDir()
	runner := &recordingRunner{}
	js := &JobScript{Content: "echo"}

	for i := 0; i < 2; i++ {
		_, err := js.Submit(context.Background(), &Submitter{Command: "submit {}", ScratchDir: dir, KeepScript: true, Runner: runner})
		require.NoError(t, err)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestSubmit_Failure(t *testing.T) {
	dir := t.TempDir()
	runner := &recordingRunner{output: "sbatch: error: invalid partition\n", err: errors.New("exit status 1")}
	js := &JobScript{PackageId: 3, Content: "echo"}

	_, err := js.Submit(context.Background(), &Submitter{Command: "submit {}", ScratchDir: dir, Runner: runner})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid partition")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSubmit_CommandWithoutPlaceholder(t *testing.T) {
	runner := &recordingRunner{}
	js := &JobScript{Content: "echo"}

	_, err := js.Submit(context.Background(), &Submitter{Command: "sbatch", ScratchDir: t.TempDir(), Runner: runner})
	assert.Equal(t, arrayerrors.KindInvalidArgument, arrayerrors.KindFromError(err))
	assert.Empty(t, runner.commands)
}

func TestShellRunner(t *testing.T) {
	output, err := ShellRunner{}.Run(context.Background(), "echo $((1 + 2))")
	require.NoError(t, err)
	assert.Equal(t, "3\n", string(output))
}
