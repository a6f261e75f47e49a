// Package errors provides error handling for covflow.
//
// This package re-exports github.com/cockroachdb/errors and defines the
// pipeline's failure taxonomy. Every error produced by the orchestrator wraps
// exactly one taxonomy sentinel, so callers classify with Is:
//
//	if errors.Is(err, errors.ErrToolNotFound) {
//	    // the executable is not installed
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	"fmt"

	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint      = crdb.WithHint
	WithHintf     = crdb.WithHintf
	WithDetail    = crdb.WithDetail
	WithDetailf   = crdb.WithDetailf
	GetAllHints   = crdb.GetAllHints
	FlattenHints  = crdb.FlattenHints
	GetAllDetails = crdb.GetAllDetails
)

// Error inspection
var (
	Is        = crdb.Is
	IsAny     = crdb.IsAny
	As        = crdb.As
	Unwrap    = crdb.Unwrap
	UnwrapAll = crdb.UnwrapAll
	Join      = crdb.Join
)

// Taxonomy sentinels. Wrap these with Mark or the typed errors below; never
// return them bare from a stage.
var (
	ErrToolNotFound           = New("tool not found")
	ErrToolExecutionFailed    = New("tool execution failed")
	ErrDirectoryProvision     = New("directory provision failed")
	ErrArtifactMissingOrEmpty = New("artifact missing or empty")
	ErrConfiguration          = New("configuration error")
	ErrUnexpectedRunner       = New("unexpected runner error")
)

var kindNames = []struct {
	sentinel error
	name     string
}{
	{ErrToolNotFound, "ToolNotFound"},
	{ErrToolExecutionFailed, "ToolExecutionFailed"},
	{ErrDirectoryProvision, "DirectoryProvisionError"},
	{ErrArtifactMissingOrEmpty, "ArtifactMissingOrEmpty"},
	{ErrConfiguration, "ConfigurationError"},
	{ErrUnexpectedRunner, "UnexpectedRunnerError"},
}

// KindOf returns the taxonomy name of err, or "" for nil and "Unknown" for
// errors outside the taxonomy.
func KindOf(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kindNames {
		if Is(err, k.sentinel) {
			return k.name
		}
	}
	return "Unknown"
}

// Mark attaches the sentinel kind to err while keeping err's message.
func Mark(err error, kind error) error {
	if err == nil {
		return nil
	}
	return crdb.Mark(err, kind)
}

// Configurationf creates a ConfigurationError with a formatted message.
func Configurationf(format string, args ...interface{}) error {
	return crdb.Mark(crdb.NewWithDepthf(1, format, args...), ErrConfiguration)
}

// ArtifactMissingf creates an ArtifactMissingOrEmpty error with a formatted message.
func ArtifactMissingf(format string, args ...interface{}) error {
	return crdb.Mark(crdb.NewWithDepthf(1, format, args...), ErrArtifactMissingOrEmpty)
}

// ToolError describes a tool that ran to completion with a non-zero exit code.
type ToolError struct {
	Tool     string
	ExitCode int
	Stdout   string
	Stderr   string
}

func (e *ToolError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s exited with code %d", e.Tool, e.ExitCode)
}

// Is makes every ToolError match ErrToolExecutionFailed.
func (e *ToolError) Is(target error) bool { return target == ErrToolExecutionFailed }

// NotFoundError names an executable that could not be located.
type NotFoundError struct {
	Executable string
	Cause      error
}

func (e *NotFoundError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("command not found: %s", e.Executable)
}

func (e *NotFoundError) Unwrap() error { return e.Cause }

// Is makes every NotFoundError match ErrToolNotFound.
func (e *NotFoundError) Is(target error) bool { return target == ErrToolNotFound }
