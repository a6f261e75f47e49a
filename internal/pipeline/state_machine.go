package pipeline

import (
	"covflow/internal/errors"
)

// IsTerminal reports whether the stage is terminal.
func IsTerminal(s Stage) bool {
	return s == StageDone || s == StageFailed
}

func isAllowedTransition(from, to Stage) bool {
	if to == StageFailed {
		return !IsTerminal(from)
	}
	switch from {
	case StagePending:
		return to == StageProvisioning
	case StageProvisioning:
		return to == StageInstrumenting
	case StageInstrumenting:
		return to == StageConverting || to == StageRendering || to == StageDone
	case StageConverting:
		return to == StageRendering || to == StageDone
	case StageRendering:
		return to == StageVerifying
	case StageVerifying:
		return to == StageRendering || to == StageDone
	default:
		return false
	}
}

// Machine tracks the stage of one project. It is not safe for concurrent use;
// a project is only ever driven by one goroutine.
type Machine struct {
	project string
	state   Stage
	history []Stage
}

// NewMachine returns a machine in StagePending.
func NewMachine(project string) *Machine {
	return &Machine{project: project, state: StagePending}
}

// State returns the current stage.
func (m *Machine) State() Stage { return m.state }

// History returns the stages entered after Pending, in order.
func (m *Machine) History() []Stage {
	out := make([]Stage, len(m.history))
	copy(out, m.history)
	return out
}

// Transition performs a validated transition. The caller supplies the
// expected prior stage so a sequencing bug surfaces instead of being absorbed.
// The machine changes if and only if the transition is valid.
func (m *Machine) Transition(from, to Stage) error {
	if m.state != from {
		return errors.Mark(
			errors.Newf("invalid transition for %q: expected %s, got %s", m.project, from, m.state),
			errors.ErrUnexpectedRunner)
	}
	if !isAllowedTransition(from, to) {
		return errors.Mark(
			errors.Newf("disallowed transition for %q: %s -> %s", m.project, from, to),
			errors.ErrUnexpectedRunner)
	}
	m.state = to
	m.history = append(m.history, to)
	return nil
}

// Fail moves the machine from its current stage to StageFailed.
func (m *Machine) Fail() error {
	return m.Transition(m.state, StageFailed)
}
