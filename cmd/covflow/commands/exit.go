// Package commands holds the covflow subcommands.
package commands

var exitCode int

// SetExitCode records the process exit code chosen by a command.
func SetExitCode(code int) { exitCode = code }

// ExitCode returns the code recorded by SetExitCode.
func ExitCode() int { return exitCode }
