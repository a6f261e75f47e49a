package cli

import "covflow/internal/errors"

// Process exit codes. Any failure, whatever its kind, exits 1.
const (
	ExitSuccess = 0
	ExitFailure = 1
)

// ExitCode maps an error returned by Execute or Compare to a process exit
// code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	return ExitFailure
}

// ErrRunFailed is returned by Execute when at least one project failed.
var ErrRunFailed = errors.New("run failed")
