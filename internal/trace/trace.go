package trace

import (
	"covflow/internal/errors"
)

// RunTrace is the ordered record of logical stage events for one run.
//
// Events keep recording order. Projects run serially, so that order is the
// order in which stages actually happened. Events carry no timestamps or
// captured output; those belong in the log.
type RunTrace struct {
	RunID  string  `yaml:"run_id"`
	Events []Event `yaml:"events"`
}

// EventKind is the discriminator for Event. The string values appear in the
// run manifest; do not rename.
type EventKind string

const (
	EventStageStarted    EventKind = "StageStarted"
	EventStageFinished   EventKind = "StageFinished"
	EventStageFailed     EventKind = "StageFailed"
	EventBackendSkipped  EventKind = "BackendSkipped"
	EventKindsUnverified EventKind = "KindsUnverified"
)

// Event is a single logical transition or decision.
type Event struct {
	Kind EventKind `yaml:"kind"`

	// Project is empty for run-level events such as a backend probe.
	Project string `yaml:"project,omitempty"`

	// Stage is the pipeline state the event refers to, e.g. "Instrumenting".
	Stage string `yaml:"stage,omitempty"`

	// Backend is set for Rendering and Verifying events and for skips.
	Backend string `yaml:"backend,omitempty"`

	// Reason is a stable reason code: an error kind for failures
	// ("ToolExecutionFailed"), "ProbeFailed" for skipped backends.
	Reason string `yaml:"reason,omitempty"`

	// Kinds lists report kinds for KindsUnverified.
	Kinds []string `yaml:"kinds,omitempty"`
}

func isProjectEvent(k EventKind) bool {
	switch k {
	case EventStageStarted, EventStageFinished, EventStageFailed, EventKindsUnverified:
		return true
	default:
		return false
	}
}

// Validate checks that each event carries the fields its kind requires.
func (t *RunTrace) Validate() error {
	if t == nil {
		return errors.New("trace is nil")
	}
	for i, e := range t.Events {
		if e.Kind == "" {
			return errors.Newf("events[%d].kind is required", i)
		}
		if isProjectEvent(e.Kind) && (e.Project == "" || e.Stage == "") {
			return errors.Newf("events[%d] (%s): project and stage are required", i, e.Kind)
		}
		if e.Kind == EventStageFailed && e.Reason == "" {
			return errors.Newf("events[%d] (%s): reason is required", i, e.Kind)
		}
		if e.Kind == EventBackendSkipped && e.Backend == "" {
			return errors.Newf("events[%d] (%s): backend is required", i, e.Kind)
		}
		if e.Kind == EventKindsUnverified && len(e.Kinds) == 0 {
			return errors.Newf("events[%d] (%s): kinds are required", i, e.Kind)
		}
	}
	return nil
}

// Filter returns the events of kind k in order.
func (t RunTrace) Filter(k EventKind) []Event {
	var out []Event
	for _, e := range t.Events {
		if e.Kind == k {
			out = append(out, e)
		}
	}
	return out
}

// ForProject returns the events recorded for project in order.
func (t RunTrace) ForProject(project string) []Event {
	var out []Event
	for _, e := range t.Events {
		if e.Project == project {
			out = append(out, e)
		}
	}
	return out
}

// Stages returns the stages project entered, in order. Useful for asserting
// that nothing ran after a failure.
func (t RunTrace) Stages(project string) []string {
	var out []string
	for _, e := range t.ForProject(project) {
		if e.Kind == EventStageStarted {
			out = append(out, e.Stage)
		}
	}
	return out
}
