// Package core provides the leaf components of the coverage workflow.
//
// # Core Types
//
// Invocation: a Tool Invocation, either a DirectArgs argument vector or a
// ShellString interpreted by the shell (the only mode that supports stream
// redirection).
//
// Executor: the Command Runner. Runs one Invocation to completion, captures
// its output streams and classifies failures into the error taxonomy.
//
// EnsureDir / RemoveStale: the Filesystem Provisioner.
//
// ReportRequest: the ordered, de-duplicated set of requested report kinds.
//
// Expectation / Verifier: the Artifact Verifier. Maps report kinds to the
// files a renderer must have produced and checks them.
//
// Nothing in this package holds state between calls.
package core
