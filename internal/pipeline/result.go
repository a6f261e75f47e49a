package pipeline

import (
	"covflow/internal/core"
	"covflow/internal/errors"
)

// BackendStatus is the per-backend result for one project.
type BackendStatus string

const (
	// BackendVerified means every requested kind was checked and present.
	BackendVerified BackendStatus = "verified"
	// BackendUnverified means the check passed but some kinds had no rule.
	BackendUnverified BackendStatus = "unverified"
	BackendFailed     BackendStatus = "failed"
	// BackendSkipped means the backend was absent for the whole run.
	BackendSkipped BackendStatus = "skipped"
	// BackendNotRun means an earlier stage failed first.
	BackendNotRun BackendStatus = "not_run"
)

// BackendResult records what happened to one backend for one project.
type BackendResult struct {
	Backend    string
	Status     BackendStatus
	OutputDir  string
	Unverified []core.ReportKind
}

// Outcome is the Pipeline Outcome of one Project Workflow.
type Outcome struct {
	Project string

	// State is StageDone or StageFailed.
	State Stage

	// FailedStage and FailedBackend locate the failure. Both are empty on
	// success; FailedBackend is empty for stages before rendering.
	FailedStage   Stage
	FailedBackend string

	Err error

	// Stages lists the stages entered, in order, ending in Done or Failed.
	Stages []Stage

	Backends []BackendResult
}

// Succeeded reports whether the project reached Done.
func (o Outcome) Succeeded() bool { return o.State == StageDone }

// ErrorKind returns the taxonomy name of Err, or "" on success.
func (o Outcome) ErrorKind() string { return errors.KindOf(o.Err) }

// Backend returns the result for the named backend.
func (o Outcome) Backend(name string) (BackendResult, bool) {
	for _, b := range o.Backends {
		if b.Backend == name {
			return b, true
		}
	}
	return BackendResult{}, false
}
