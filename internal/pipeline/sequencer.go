package pipeline

import (
	"context"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"covflow/internal/core"
	"covflow/internal/errors"
	"covflow/internal/logger"
	"covflow/internal/trace"
)

// Runner executes a Tool Invocation. *core.Executor implements it.
type Runner interface {
	Execute(ctx context.Context, inv core.Invocation) (*core.ExecutionResult, error)
}

// Plan is the run-wide input shared by every project.
type Plan struct {
	// Root is substituted for {root}.
	Root string

	Request core.ReportRequest

	// Backends are the present backends, in order.
	Backends []Backend

	// Skipped names the backends whose probe failed.
	Skipped []string

	// ReportDir returns the output directory of backend for project.
	ReportDir func(project, backend string) string

	Sink trace.Sink
}

// Sequencer is the Pipeline Stage Sequencer.
type Sequencer struct {
	Runner   Runner
	Verifier *core.Verifier
	Logger   *zap.SugaredLogger
}

// NewSequencer wires a Sequencer around the default Executor and Verifier.
func NewSequencer(log *zap.SugaredLogger) *Sequencer {
	return &Sequencer{
		Runner:   core.NewExecutor(log),
		Verifier: core.NewVerifier(log),
		Logger:   log,
	}
}

// run is the mutable state of one Sequencer.Run call.
type run struct {
	s       *Sequencer
	plan    Plan
	project Project
	machine *Machine
	log     *zap.SugaredLogger
	out     Outcome
	vars    core.Vars
	// backend is the backend of the current stage, if any.
	backend string
}

// Run drives project through its stages and returns its outcome. The first
// failing stage moves the project to Failed; no later stage of the project
// runs. Run never returns a nil Outcome and never panics on tool failure.
func (s *Sequencer) Run(ctx context.Context, plan Plan, project Project) Outcome {
	r := &run{
		s:       s,
		plan:    plan,
		project: project,
		machine: NewMachine(project.Name),
		log:     logger.Or(s.Logger).With("project", project.Name),
		out:     Outcome{Project: project.Name},
		vars:    project.vars(plan.Root),
	}
	for _, b := range plan.Backends {
		r.out.Backends = append(r.out.Backends, BackendResult{
			Backend:   b.Name,
			Status:    BackendNotRun,
			OutputDir: plan.ReportDir(project.Name, b.Name),
		})
	}
	for _, name := range plan.Skipped {
		r.out.Backends = append(r.out.Backends, BackendResult{Backend: name, Status: BackendSkipped})
	}

	r.log.Infow("project workflow started")
	err := r.execute(ctx)
	if err != nil {
		r.fail(err)
	} else {
		r.out.State = StageDone
		r.log.Infow("project workflow finished")
	}
	r.out.Stages = r.machine.History()
	return r.out
}

func (r *run) execute(ctx context.Context) error {
	if err := r.enter(StagePending, StageProvisioning, ""); err != nil {
		return err
	}
	if err := r.provision(); err != nil {
		return err
	}
	r.finish("")

	if err := r.enter(StageProvisioning, StageInstrumenting, ""); err != nil {
		return err
	}
	if err := r.runTool(ctx, r.project.Instrument, "instrument ("+r.project.Name+")", r.vars); err != nil {
		return err
	}
	if err := core.RequireNonEmpty(r.project.InstrumentOutput(), "coverage output"); err != nil {
		return err
	}
	r.finish("")
	prev := StageInstrumenting

	if r.project.NeedsConversion() {
		if err := r.enter(prev, StageConverting, ""); err != nil {
			return err
		}
		if err := r.runTool(ctx, *r.project.Convert, "convert ("+r.project.Name+")", r.vars); err != nil {
			return err
		}
		if err := core.RequireNonEmpty(r.project.CoverageFile, "interchange coverage"); err != nil {
			return err
		}
		r.finish("")
		prev = StageConverting
	}

	for i, b := range r.plan.Backends {
		if err := r.render(ctx, prev, i, b); err != nil {
			return err
		}
		prev = StageVerifying
	}

	return r.machine.Transition(prev, StageDone)
}

// provision checks the source tree, creates every directory the project's
// tools write into and removes stale coverage artifacts.
func (r *run) provision() error {
	if dir := r.project.SourceDir; dir != "" {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			return errors.WithHint(
				errors.ArtifactMissingf("source directory %s not found or not a directory", dir),
				"check source_dir for this project")
		}
	}

	dirs := r.project.ArtifactDirs()
	for _, b := range r.out.Backends {
		if b.Status != BackendSkipped {
			dirs = append(dirs, b.OutputDir)
		}
	}
	for _, d := range dirs {
		if err := core.EnsureDir(d); err != nil {
			return err
		}
		r.log.Debugw("directory ensured", "dir", d)
	}

	if err := core.RemoveStale(r.project.CoverageFile, r.project.NativeFile); err != nil {
		return err
	}
	return nil
}

// render runs backend i and verifies its output directory.
func (r *run) render(ctx context.Context, prev Stage, i int, b Backend) error {
	res := &r.out.Backends[i]

	if err := r.enter(prev, StageRendering, b.Name); err != nil {
		return err
	}
	vars := r.vars.With(core.VarOutput, res.OutputDir, core.VarTypes, b.Types(r.plan.Request))
	if err := r.runTool(ctx, b.Render, b.Name+" ("+r.project.Name+")", vars); err != nil {
		res.Status = BackendFailed
		return err
	}
	r.finish(b.Name)

	if err := r.enter(StageRendering, StageVerifying, b.Name); err != nil {
		return err
	}
	v := r.s.Verifier.Verify(res.OutputDir, r.plan.Request, b.Name)
	if !v.Passed() {
		res.Status = BackendFailed
		missing := make([]string, 0, len(v.Failed()))
		for _, c := range v.Failed() {
			missing = append(missing, c.Expectation.Label())
		}
		if !v.DirExists {
			return errors.ArtifactMissingf("%s output directory %s does not exist", b.Name, res.OutputDir)
		}
		return errors.ArtifactMissingf("%s did not produce %v in %s", b.Name, missing, res.OutputDir)
	}

	res.Status = BackendVerified
	if v.Lenient() {
		res.Status = BackendUnverified
		res.Unverified = v.Unverified
		kinds := make([]string, len(v.Unverified))
		for j, k := range v.Unverified {
			kinds[j] = string(k)
		}
		trace.SafeRecord(r.plan.Sink, trace.Event{
			Kind:    trace.EventKindsUnverified,
			Project: r.project.Name,
			Stage:   string(StageVerifying),
			Backend: b.Name,
			Kinds:   kinds,
		})
	}
	r.finish(b.Name)
	return nil
}

func (r *run) runTool(ctx context.Context, tpl core.Template, name string, vars core.Vars) error {
	inv, err := tpl.Build(name, vars)
	if err != nil {
		return err
	}
	if inv.Dir != "" && !filepath.IsAbs(inv.Dir) {
		inv.Dir = filepath.Join(r.plan.Root, inv.Dir)
	}
	_, err = r.s.Runner.Execute(ctx, inv)
	return err
}

// enter transitions into stage and records the start.
func (r *run) enter(from, to Stage, backend string) error {
	if err := r.machine.Transition(from, to); err != nil {
		return err
	}
	r.backend = backend
	r.log.Infow("stage started", "stage", string(to), "backend", backend)
	trace.SafeRecord(r.plan.Sink, trace.Event{
		Kind:    trace.EventStageStarted,
		Project: r.project.Name,
		Stage:   string(to),
		Backend: backend,
	})
	return nil
}

func (r *run) finish(backend string) {
	stage := r.machine.State()
	r.log.Debugw("stage finished", "stage", string(stage), "backend", backend)
	trace.SafeRecord(r.plan.Sink, trace.Event{
		Kind:    trace.EventStageFinished,
		Project: r.project.Name,
		Stage:   string(stage),
		Backend: backend,
	})
}

// fail records err against the current stage and moves the machine to
// Failed.
func (r *run) fail(err error) {
	stage := r.machine.State()
	r.out.Err = err
	r.out.FailedStage = stage
	r.out.FailedBackend = r.backend
	kind := errors.KindOf(err)

	fields := []interface{}{"stage", string(stage), "kind", kind, "error", err.Error()}
	if r.out.FailedBackend != "" {
		fields = append(fields, "backend", r.out.FailedBackend)
	}
	if hints := errors.FlattenHints(err); hints != "" {
		fields = append(fields, "hint", hints)
	}
	r.log.Errorw("stage failed", fields...)

	trace.SafeRecord(r.plan.Sink, trace.Event{
		Kind:    trace.EventStageFailed,
		Project: r.project.Name,
		Stage:   string(stage),
		Backend: r.out.FailedBackend,
		Reason:  kind,
	})

	if !IsTerminal(stage) {
		if ferr := r.machine.Fail(); ferr != nil {
			r.log.Errorw("failing project", "error", ferr)
		}
	}
	r.out.State = StageFailed
}
