package core

import (
	"strings"

	"github.com/kballard/go-shellquote"

	"covflow/internal/errors"
)

// MaxDisplayLen bounds the command text written to the trace log.
const MaxDisplayLen = 120

// Command is the execution mode of an Invocation. It is one of DirectArgs or
// ShellString.
type Command interface {
	isCommand()
	// Display renders the command as a single line for humans.
	Display() string
}

// DirectArgs is an argument vector executed without a shell. The first
// element is the program.
type DirectArgs []string

func (DirectArgs) isCommand() {}

// Display quotes each argument so the line can be pasted into a shell.
func (a DirectArgs) Display() string { return shellquote.Join(a...) }

// ShellString is a command line interpreted by the shell. Use it only when the
// tool needs stream redirection.
type ShellString string

func (ShellString) isCommand() {}

// Display returns the command text unchanged.
func (s ShellString) Display() string { return string(s) }

// Invocation is the unit the Executor runs.
type Invocation struct {
	// Name labels the invocation in logs and errors, e.g. "go test (go_project)".
	Name string

	// Command is DirectArgs or ShellString.
	Command Command

	// Dir is the working directory. Empty means the caller's directory.
	Dir string

	// Env overrides individual variables of the inherited environment. A PATH
	// override is also the search path for a bare program name.
	Env map[string]string
}

// Validate rejects invocations that cannot be executed. It runs before any
// process is started.
func (inv Invocation) Validate() error {
	switch c := inv.Command.(type) {
	case DirectArgs:
		if len(c) == 0 || strings.TrimSpace(c[0]) == "" {
			return errors.Configurationf("invocation %q: direct mode requires a program", inv.Name)
		}
	case ShellString:
		if strings.TrimSpace(string(c)) == "" {
			return errors.Configurationf("invocation %q: shell mode requires a command string", inv.Name)
		}
	case nil:
		return errors.Configurationf("invocation %q: no command", inv.Name)
	default:
		return errors.Configurationf("invocation %q: unsupported command mode %T", inv.Name, c)
	}
	return nil
}

// Program returns the executable the invocation starts: the first argument in
// direct mode, or shell in shell mode.
func (inv Invocation) Program(shell string) string {
	if a, ok := inv.Command.(DirectArgs); ok && len(a) > 0 {
		return a[0]
	}
	return shell
}

// DisplayCommand returns the command line truncated to MaxDisplayLen.
func (inv Invocation) DisplayCommand() string {
	if inv.Command == nil {
		return ""
	}
	return truncate(inv.Command.Display(), MaxDisplayLen)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
