// Package cli maps a covflow run onto the process boundary: it runs the
// workflow composer, writes the run manifest, prints the summary and turns
// the outcome into an exit code.
package cli

import (
	"context"
	"io"
	"os"

	"go.uber.org/zap"

	"covflow/internal/config"
	"covflow/internal/errors"
	"covflow/internal/logger"
	"covflow/internal/workflow"
)

// Options wires Execute. Zero values select the defaults.
type Options struct {
	// Out receives the summary table; nil means os.Stdout.
	Out io.Writer

	Logger *zap.SugaredLogger

	// Composer runs the projects; nil means workflow.NewComposer.
	Composer *workflow.Composer
}

// CLIResult is what a run hands back to main.
type CLIResult struct {
	ExitCode int

	// Run is nil when the configuration was rejected.
	Run *workflow.RunResult

	// ManifestPath is the manifest written for this run, if any.
	ManifestPath string
}

// Run loads the configuration for dir and executes it. JSON logging is
// switched on here when the configuration asks for it.
func Run(ctx context.Context, dir string, opts Options) (CLIResult, error) {
	cfg, err := config.Load(dir)
	if err != nil {
		reportConfigError(opts.Logger, err)
		return CLIResult{ExitCode: ExitFailure}, err
	}
	if cfg.LogJSON && !logger.JSONOutput && opts.Logger == nil {
		if err := logger.Initialize(true); err != nil {
			return CLIResult{ExitCode: ExitFailure}, errors.Wrap(err, "initializing JSON logger")
		}
	}
	return Execute(ctx, cfg, opts)
}

// Execute runs every project in cfg. A configuration error is returned
// before anything is probed or executed. A completed run always writes its
// manifest and summary; the returned error is ErrRunFailed when any project
// failed.
func Execute(ctx context.Context, cfg *config.Config, opts Options) (CLIResult, error) {
	res := CLIResult{ExitCode: ExitFailure}
	log := logger.Or(opts.Logger)

	composer := opts.Composer
	if composer == nil {
		composer = workflow.NewComposer(log)
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	run, err := composer.Run(ctx, cfg)
	if err != nil {
		reportConfigError(log, err)
		return res, err
	}
	res.Run = run

	var runErr error
	if !run.Succeeded() {
		runErr = ErrRunFailed
	}

	if cfg.SummaryFile != "" {
		path := cfg.Path(cfg.SummaryFile)
		if err := WriteManifest(path, NewManifest(run, cfg.Root)); err != nil {
			log.Errorw("writing run manifest", "path", path, "error", err)
			runErr = errors.Join(runErr, err)
		} else {
			res.ManifestPath = path
			log.Infow("run manifest written", "path", path)
		}
	}

	if err := RenderSummary(out, run); err != nil {
		log.Warnw("rendering summary", "error", err)
	}

	res.ExitCode = ExitCode(runErr)
	return res, runErr
}

func reportConfigError(log *zap.SugaredLogger, err error) {
	fields := []interface{}{"kind", errors.KindOf(err), "error", err.Error()}
	if hints := errors.FlattenHints(err); hints != "" {
		fields = append(fields, "hint", hints)
	}
	logger.Or(log).Errorw("configuration rejected, nothing was run", fields...)
}
