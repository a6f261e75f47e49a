// Package workflow runs every configured Project Workflow in order and
// aggregates the run's outcome.
package workflow

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"covflow/internal/config"
	"covflow/internal/core"
	"covflow/internal/logger"
	"covflow/internal/pipeline"
	"covflow/internal/trace"
)

// ProjectRunner runs one project. *pipeline.Sequencer implements it.
type ProjectRunner interface {
	Run(ctx context.Context, plan pipeline.Plan, project pipeline.Project) pipeline.Outcome
}

// Composer is the Workflow Composer.
type Composer struct {
	Runner ProjectRunner
	Logger *zap.SugaredLogger
	// Now is the clock used for StartedAt; nil means time.Now.
	Now func() time.Time
}

// NewComposer returns a Composer driving the default Sequencer.
func NewComposer(log *zap.SugaredLogger) *Composer {
	return &Composer{Runner: pipeline.NewSequencer(log), Logger: log}
}

// RunResult is the aggregated outcome of one run.
type RunResult struct {
	RunID     string
	StartedAt time.Time
	Finished  time.Time
	Request   core.ReportRequest

	// Backends names the present backends; Skipped the absent ones.
	Backends []string
	Skipped  []string

	// Outcomes holds one entry per project that ran, in configuration order.
	Outcomes []pipeline.Outcome

	// Halted names projects never started because fail_fast stopped the run.
	Halted []string

	Trace trace.RunTrace
}

// Succeeded reports whether every configured project reached Done.
func (r *RunResult) Succeeded() bool {
	if len(r.Halted) > 0 {
		return false
	}
	for _, o := range r.Outcomes {
		if !o.Succeeded() {
			return false
		}
	}
	return true
}

// Failures returns the outcomes of the projects that failed.
func (r *RunResult) Failures() []pipeline.Outcome {
	var out []pipeline.Outcome
	for _, o := range r.Outcomes {
		if !o.Succeeded() {
			out = append(out, o)
		}
	}
	return out
}

// Run validates cfg, probes the backends once and runs each project
// serially. A configuration error is returned before anything is probed,
// provisioned or executed; every other failure is reported in the result.
func (c *Composer) Run(ctx context.Context, cfg *config.Config) (*RunResult, error) {
	log := logger.Or(c.Logger)

	req, err := cfg.ReportRequest()
	if err != nil {
		return nil, err
	}
	projects, backends, err := cfg.Workflows()
	if err != nil {
		return nil, err
	}

	now := c.Now
	if now == nil {
		now = time.Now
	}
	res := &RunResult{
		RunID:     uuid.NewString(),
		StartedAt: now().UTC(),
		Request:   req,
	}
	rec := trace.NewRecorder()
	log = log.With("run_id", res.RunID)
	log.Infow("run started", "report_types", req.String(), "projects", len(projects), "root", cfg.Root)

	present := pipeline.ProbeBackends(backends, log, rec)
	presentNames := make(map[string]bool, len(present))
	for _, b := range present {
		res.Backends = append(res.Backends, b.Name)
		presentNames[b.Name] = true
	}
	for _, b := range backends {
		if !presentNames[b.Name] {
			res.Skipped = append(res.Skipped, b.Name)
		}
	}

	plan := pipeline.Plan{
		Root:      cfg.Root,
		Request:   req,
		Backends:  present,
		Skipped:   res.Skipped,
		ReportDir: cfg.ReportDir,
		Sink:      rec,
	}

	for i, p := range projects {
		out := c.Runner.Run(ctx, plan, p)
		res.Outcomes = append(res.Outcomes, out)
		if out.Succeeded() || !cfg.FailFast {
			continue
		}
		for _, rest := range projects[i+1:] {
			res.Halted = append(res.Halted, rest.Name)
		}
		if len(res.Halted) > 0 {
			log.Warnw("fail_fast set, remaining projects not run", "failed", p.Name, "halted", res.Halted)
		}
		break
	}

	res.Finished = now().UTC()
	res.Trace = rec.Trace(res.RunID)

	if res.Succeeded() {
		log.Infow("run succeeded", "projects", len(res.Outcomes))
	} else {
		for _, f := range res.Failures() {
			log.Errorw("project failed",
				"project", f.Project,
				"stage", string(f.FailedStage),
				"backend", f.FailedBackend,
				"kind", f.ErrorKind())
		}
		log.Errorw("run failed", "failed", len(res.Failures()), "halted", len(res.Halted))
	}
	return res, nil
}
