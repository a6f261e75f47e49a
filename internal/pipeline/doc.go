// Package pipeline runs one Project Workflow through its stages.
//
// It is split into:
//   - Descriptors (Project, Backend): immutable for the run
//   - A per-project state machine (Machine): Pending, Provisioning,
//     Instrumenting, Converting, Rendering and Verifying, then Done or Failed
//   - The Sequencer, which drives the machine and stops the project at the
//     first failing stage
//
// Backends are probed once per run with ProbeBackends; the Sequencer only
// ever sees the present ones.
package pipeline
