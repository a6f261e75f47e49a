package core

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"covflow/internal/errors"
)

func newObservedExecutor() (*Executor, *observer.ObservedLogs) {
	obs, logs := observer.New(zapcore.DebugLevel)
	return NewExecutor(zap.New(obs).Sugar()), logs
}

func TestExecute_CapturesStreams(t *testing.T) {
	executor, _ := newObservedExecutor()

	res, err := executor.Execute(context.Background(), Invocation{
		Name:    "streams",
		Command: DirectArgs{"sh", "-c", "echo out; echo err >&2"},
	})
	require.NoError(t, err)
	assert.Equal(t, "out\n", res.Stdout)
	assert.Equal(t, "err\n", res.Stderr)
	assert.Equal(t, 0, res.ExitCode)
}

// TestExecute_NonZeroExit verifies a failing tool reports its exit code and
// both captured streams.
func TestExecute_NonZeroExit(t *testing.T) {
	executor, _ := newObservedExecutor()

	res, err := executor.Execute(context.Background(), Invocation{
		Name:    "failing",
		Command: ShellString("echo partial; echo broken >&2; exit 3"),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrToolExecutionFailed))
	assert.Equal(t, "ToolExecutionFailed", errors.KindOf(err))

	var toolErr *errors.ToolError
	require.True(t, errors.As(err, &toolErr))
	assert.Equal(t, 3, toolErr.ExitCode)
	assert.Equal(t, "partial\n", toolErr.Stdout)
	assert.Equal(t, "broken\n", toolErr.Stderr)

	require.NotNil(t, res)
	assert.Equal(t, 3, res.ExitCode)
}

func TestExecute_ToolNotFound(t *testing.T) {
	executor, logs := newObservedExecutor()

	_, err := executor.Execute(context.Background(), Invocation{
		Name:    "missing",
		Command: DirectArgs{"covflow-definitely-not-installed", "--version"},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrToolNotFound))
	assert.Contains(t, err.Error(), "covflow-definitely-not-installed")
	assert.NotEmpty(t, errors.GetAllHints(err))

	entries := logs.FilterMessage("executing").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "covflow-definitely-not-installed --version", entries[0].ContextMap()["command"])
	assert.Equal(t, "missing", entries[0].ContextMap()["tool"])
}

func TestExecute_PathOverrideSelectsExecutable(t *testing.T) {
	executor, _ := newObservedExecutor()
	bin := t.TempDir()
	script := filepath.Join(bin, "covflow-private-tool")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho hi\n"), 0o755))

	inv := Invocation{Name: "private", Command: DirectArgs{"covflow-private-tool"}}
	_, err := executor.Execute(context.Background(), inv)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrToolNotFound))

	inv.Env = map[string]string{"PATH": bin + string(os.PathListSeparator) + "/usr/bin:/bin"}
	res, err := executor.Execute(context.Background(), inv)
	require.NoError(t, err)
	assert.Equal(t, "hi\n", res.Stdout)

	inv.Env = map[string]string{"PATH": t.TempDir()}
	_, err = executor.Execute(context.Background(), inv)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrToolNotFound))
}

func TestExecute_ToolNotFoundByPath(t *testing.T) {
	executor, _ := newObservedExecutor()
	missing := filepath.Join(t.TempDir(), "no-such-tool")

	_, err := executor.Execute(context.Background(), Invocation{
		Name:    "missing path",
		Command: DirectArgs{missing},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrToolNotFound))

	var nf *errors.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, missing, nf.Executable)
}

func TestExecute_MissingShellIsToolNotFound(t *testing.T) {
	executor, _ := newObservedExecutor()
	executor.Shell = "covflow-no-such-shell"

	_, err := executor.Execute(context.Background(), Invocation{
		Name:    "shell",
		Command: ShellString("echo hi"),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrToolNotFound))
	assert.Contains(t, err.Error(), "covflow-no-such-shell")
}

// TestExecute_ShellRedirection verifies ShellString supports stream
// redirection relative to the working directory.
func TestExecute_ShellRedirection(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "coverage.out"), []byte("mode: set\n"), 0o644))
	executor, _ := newObservedExecutor()

	_, err := executor.Execute(context.Background(), Invocation{
		Name:    "convert",
		Command: ShellString(`tr a-z A-Z < "coverage.out" > "coverage.xml"`),
		Dir:     dir,
	})
	require.NoError(t, err)

	b, err := os.ReadFile(filepath.Join(dir, "coverage.xml"))
	require.NoError(t, err)
	assert.Equal(t, "MODE: SET\n", string(b))
}

func TestExecute_WorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	executor, _ := newObservedExecutor()

	res, err := executor.Execute(context.Background(), Invocation{
		Name:    "pwd",
		Command: DirectArgs{"pwd", "-P"},
		Dir:     dir,
	})
	require.NoError(t, err)

	want, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	assert.Equal(t, want, strings.TrimSpace(res.Stdout))
}

func TestExecute_MissingWorkingDirectory(t *testing.T) {
	executor, _ := newObservedExecutor()

	_, err := executor.Execute(context.Background(), Invocation{
		Name:    "nowhere",
		Command: DirectArgs{"true"},
		Dir:     filepath.Join(t.TempDir(), "absent"),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUnexpectedRunner))
}

// TestExecute_InheritsEnvironment verifies the caller's environment reaches
// the tool and explicit overrides win.
func TestExecute_InheritsEnvironment(t *testing.T) {
	t.Setenv("COVFLOW_TEST_INHERITED", "from-parent")
	t.Setenv("COVFLOW_TEST_OVERRIDDEN", "parent")
	executor, _ := newObservedExecutor()

	res, err := executor.Execute(context.Background(), Invocation{
		Name:    "env",
		Command: ShellString(`echo "$COVFLOW_TEST_INHERITED $COVFLOW_TEST_OVERRIDDEN"`),
		Env:     map[string]string{"COVFLOW_TEST_OVERRIDDEN": "child"},
	})
	require.NoError(t, err)
	assert.Equal(t, "from-parent child\n", res.Stdout)
}

func TestExecute_RejectsInvalidInvocation(t *testing.T) {
	executor, logs := newObservedExecutor()

	for _, inv := range []Invocation{
		{Name: "empty args", Command: DirectArgs{}},
		{Name: "blank shell", Command: ShellString("  ")},
		{Name: "nil"},
	} {
		_, err := executor.Execute(context.Background(), inv)
		require.Error(t, err, inv.Name)
		assert.True(t, errors.Is(err, errors.ErrConfiguration), inv.Name)
	}
	assert.Equal(t, 0, logs.FilterMessage("executing").Len(), "nothing may start")
}

// TestExecute_TraceTruncatesCommand verifies the pre-execution trace names the
// working directory and bounds the command text.
func TestExecute_TraceTruncatesCommand(t *testing.T) {
	dir := t.TempDir()
	executor, logs := newObservedExecutor()
	long := "echo " + strings.Repeat("x", 300)

	_, err := executor.Execute(context.Background(), Invocation{
		Name:    "long",
		Command: ShellString(long),
		Dir:     dir,
	})
	require.NoError(t, err)

	entries := logs.FilterMessage("executing").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	cmd, _ := fields["command"].(string)
	assert.Equal(t, long[:MaxDisplayLen]+"...", cmd)
	assert.Equal(t, dir, fields["dir"])

	echoed := logs.FilterMessage("stdout from long").All()
	require.Len(t, echoed, 1)
}
