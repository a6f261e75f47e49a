package pipeline

import (
	"os"

	"go.uber.org/zap"

	"covflow/internal/core"
	"covflow/internal/logger"
	"covflow/internal/trace"
)

// DefaultSeparator joins report kinds for backends that do not name one.
const DefaultSeparator = ","

// Backend is a report-rendering backend. It is an opaque tool that consumes
// the coverage file and writes rendered reports into an output directory.
type Backend struct {
	Name string

	// Render is expanded per project with {coverage}, {output} and {types}.
	Render core.Template

	// Probe lists absolute paths that must all exist for the backend to be
	// present, typically its entry point.
	Probe []string

	// Separator re-delimits the report kinds for this backend.
	Separator string
}

// Present reports whether every probe path exists. A backend with no probe
// paths is always present.
func (b Backend) Present() bool {
	for _, p := range b.Probe {
		if _, err := os.Stat(p); err != nil {
			return false
		}
	}
	return true
}

// Types renders req with the backend's separator.
func (b Backend) Types(req core.ReportRequest) string {
	sep := b.Separator
	if sep == "" {
		sep = DefaultSeparator
	}
	return req.Join(sep)
}

// ProbeBackends checks every backend once and returns the present ones in
// order. Absent backends are logged at warn level and recorded as skipped.
func ProbeBackends(backends []Backend, log *zap.SugaredLogger, sink trace.Sink) []Backend {
	log = logger.Or(log)

	var present []Backend
	for _, b := range backends {
		if b.Present() {
			log.Infow("rendering backend found", "backend", b.Name)
			present = append(present, b)
			continue
		}
		log.Warnw("rendering backend not found, skipping it for all projects",
			"backend", b.Name,
			"probe", b.Probe)
		trace.SafeRecord(sink, trace.Event{
			Kind:    trace.EventBackendSkipped,
			Backend: b.Name,
			Reason:  "ProbeFailed",
		})
	}
	if len(present) == 0 && len(backends) > 0 {
		log.Warnw("no rendering backend is available, no reports will be rendered")
	}
	return present
}
