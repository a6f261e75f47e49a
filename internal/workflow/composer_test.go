package workflow

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"covflow/internal/config"
	"covflow/internal/core"
	"covflow/internal/errors"
	"covflow/internal/pipeline"
	"covflow/internal/trace"
)

const (
	writeCoverage = `printf '<coverage/>' > "$0"`
	writeSummary  = `echo "Line coverage: 80%" > "$0/Summary.txt"`
)

func instrument(script string) config.InvocationSpec {
	return config.InvocationSpec{Program: "sh", Args: []string{"-c", script, "{coverage}"}}
}

func backend(name string, probe ...string) config.BackendConfig {
	return config.BackendConfig{
		Name:    name,
		Program: "sh",
		Args:    []string{"-c", writeSummary, "{output}"},
		Probe:   probe,
	}
}

// twoProjectConfig configures project_a and project_b, each rendered by
// two backends whose probes exist.
func twoProjectConfig(t *testing.T, reportTypes string) *config.Config {
	t.Helper()
	root := t.TempDir()
	for _, d := range []string{"src/a", "src/b", "tools"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, d), 0o755))
	}
	return &config.Config{
		Root:        root,
		ReportTypes: reportTypes,
		ReportsDir:  "reports",
		Backends: []config.BackendConfig{
			backend("go_tool", "tools"),
			backend("dotnet_tool", "tools"),
		},
		Projects: []config.ProjectConfig{
			{Name: "project_a", SourceDir: "src/a", CoverageFile: "out/a/coverage.xml", Instrument: instrument(writeCoverage)},
			{Name: "project_b", SourceDir: "src/b", CoverageFile: "out/b/coverage.xml", Instrument: instrument(writeCoverage)},
		},
	}
}

func newObservedComposer() (*Composer, *observer.ObservedLogs) {
	obs, logs := observer.New(zapcore.DebugLevel)
	return NewComposer(zap.New(obs).Sugar()), logs
}

func TestRun_AllProjectsSucceed(t *testing.T) {
	cfg := twoProjectConfig(t, "TextSummary")
	c, _ := newObservedComposer()

	res, err := c.Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.True(t, res.Succeeded())
	require.Len(t, res.Outcomes, 2)
	assert.Equal(t, "project_a", res.Outcomes[0].Project)
	assert.Equal(t, "project_b", res.Outcomes[1].Project)
	assert.Equal(t, []string{"go_tool", "dotnet_tool"}, res.Backends)

	for _, p := range []string{"project_a", "project_b"} {
		for _, b := range []string{"go_tool", "dotnet_tool"} {
			summary := filepath.Join(cfg.ReportDir(p, b), core.TextSummaryFileName)
			assert.True(t, core.NonEmptyFile(summary), summary)
		}
	}

	_, err = uuid.Parse(res.RunID)
	assert.NoError(t, err)
	assert.Equal(t, res.RunID, res.Trace.RunID)
	assert.NoError(t, res.Trace.Validate())
	assert.False(t, res.StartedAt.IsZero())
}

func TestRun_EmptyReportTypesHaltsBeforeAnything(t *testing.T) {
	cfg := twoProjectConfig(t, "")
	marker := filepath.Join(cfg.Root, "instrumented")
	cfg.Projects[0].Instrument = instrument(`touch "` + marker + `"`)
	c, _ := newObservedComposer()

	res, err := c.Run(context.Background(), cfg)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, errors.ErrConfiguration))

	for _, p := range []string{filepath.Join(cfg.Root, "reports"), filepath.Join(cfg.Root, "out"), marker} {
		_, statErr := os.Stat(p)
		assert.True(t, os.IsNotExist(statErr), "%s must not exist", p)
	}
}

// TestRun_FailingProjectDoesNotAffectOther verifies one project's
// instrumentation failure leaves the next project's workflow intact.
func TestRun_FailingProjectDoesNotAffectOther(t *testing.T) {
	cfg := twoProjectConfig(t, "TextSummary")
	cfg.Projects[0].Instrument = instrument(`echo "tests failed" >&2; exit 1`)
	c, _ := newObservedComposer()

	res, err := c.Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.False(t, res.Succeeded())
	require.Len(t, res.Outcomes, 2)

	a, b := res.Outcomes[0], res.Outcomes[1]
	assert.Equal(t, pipeline.StageFailed, a.State)
	assert.Equal(t, pipeline.StageInstrumenting, a.FailedStage)
	assert.Equal(t, "ToolExecutionFailed", a.ErrorKind())
	assert.Equal(t, []string{"Provisioning", "Instrumenting"}, res.Trace.Stages("project_a"))

	assert.True(t, b.Succeeded())
	assert.True(t, core.NonEmptyFile(filepath.Join(cfg.ReportDir("project_b", "go_tool"), core.TextSummaryFileName)))

	require.Len(t, res.Failures(), 1)
	assert.Equal(t, "project_a", res.Failures()[0].Project)
}

func TestRun_AbsentBackendIsSkippedForAllProjects(t *testing.T) {
	cfg := twoProjectConfig(t, "TextSummary")
	cfg.Backends[1].Probe = []string{"src/ReportGenerator.dll"}
	c, logs := newObservedComposer()

	res, err := c.Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.True(t, res.Succeeded())
	assert.Equal(t, []string{"go_tool"}, res.Backends)
	assert.Equal(t, []string{"dotnet_tool"}, res.Skipped)

	for _, o := range res.Outcomes {
		skipped, ok := o.Backend("dotnet_tool")
		require.True(t, ok)
		assert.Equal(t, pipeline.BackendSkipped, skipped.Status)
		verified, _ := o.Backend("go_tool")
		assert.Equal(t, pipeline.BackendVerified, verified.Status)
	}
	assert.Len(t, res.Trace.Filter(trace.EventBackendSkipped), 1, "probed once per run")
	assert.Equal(t, 1, logs.FilterMessage("rendering backend not found, skipping it for all projects").Len())
}

func TestRun_FailFastHaltsRemainingProjects(t *testing.T) {
	cfg := twoProjectConfig(t, "TextSummary")
	cfg.FailFast = true
	cfg.Projects[0].Instrument = instrument("exit 3")
	c, _ := newObservedComposer()

	res, err := c.Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.False(t, res.Succeeded())
	require.Len(t, res.Outcomes, 1)
	assert.Equal(t, []string{"project_b"}, res.Halted)
	assert.Empty(t, res.Trace.ForProject("project_b"))
}

type recordingRunner struct {
	order []string
}

func (r *recordingRunner) Run(_ context.Context, _ pipeline.Plan, p pipeline.Project) pipeline.Outcome {
	r.order = append(r.order, p.Name)
	return pipeline.Outcome{Project: p.Name, State: pipeline.StageDone}
}

func TestRun_ProjectsRunInConfigurationOrder(t *testing.T) {
	cfg := twoProjectConfig(t, "Html")
	cfg.Projects[0], cfg.Projects[1] = cfg.Projects[1], cfg.Projects[0]
	runner := &recordingRunner{}
	c := &Composer{Runner: runner, Logger: zap.NewNop().Sugar()}

	res, err := c.Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.True(t, res.Succeeded())
	assert.Equal(t, []string{"project_b", "project_a"}, runner.order)
}
