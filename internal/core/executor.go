package core

import (
	"bytes"
	"context"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"covflow/internal/errors"
	"covflow/internal/logger"
)

// DefaultShell interprets ShellString invocations.
const DefaultShell = "sh"

// ExecutionResult contains the captured output of a finished invocation.
type ExecutionResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Executor is the Command Runner: it runs one Invocation at a time and blocks
// until the process exits.
//
// Failure classification:
//   - executable not found: errors.NotFoundError (ErrToolNotFound)
//   - non-zero exit: errors.ToolError (ErrToolExecutionFailed), carrying the
//     exit code and both captured streams
//   - anything else preventing the launch: ErrUnexpectedRunner
type Executor struct {
	// Shell interprets ShellString invocations. Defaults to DefaultShell.
	Shell string

	// Logger receives the command trace and echoed streams.
	Logger *zap.SugaredLogger
}

// NewExecutor creates an Executor that logs to log (nil means the global logger).
func NewExecutor(log *zap.SugaredLogger) *Executor {
	return &Executor{Shell: DefaultShell, Logger: log}
}

func (e *Executor) shell() string {
	if e.Shell == "" {
		return DefaultShell
	}
	return e.Shell
}

// Execute runs inv to completion.
//
// The environment is inherited unmodified unless inv.Env overrides individual
// variables. No timeout is applied; ctx is passed to the process so the
// caller may still abort the run.
func (e *Executor) Execute(ctx context.Context, inv Invocation) (*ExecutionResult, error) {
	if err := inv.Validate(); err != nil {
		return nil, err
	}
	log := logger.Or(e.Logger)

	fields := []interface{}{"tool", inv.Name, "command", inv.DisplayCommand()}
	if inv.Dir != "" {
		fields = append(fields, "dir", inv.Dir)
	}
	log.Infow("executing", fields...)

	if inv.Dir != "" {
		info, err := os.Stat(inv.Dir)
		if err != nil || !info.IsDir() {
			if err == nil {
				err = errors.Newf("%s is not a directory", inv.Dir)
			}
			return nil, errors.Mark(errors.Wrapf(err, "%s: working directory", inv.Name), errors.ErrUnexpectedRunner)
		}
	}

	program := inv.Program(e.shell())
	cmd, err := e.command(ctx, inv)
	if err != nil {
		return nil, classifyLaunchError(inv.Name, program, err)
	}
	cmd.Dir = inv.Dir
	cmd.Env = buildEnv(inv.Env)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, classifyLaunchError(inv.Name, program, err)
	}
	waitErr := cmd.Wait()

	res := &ExecutionResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: 0,
	}
	echoStreams(log, inv.Name, res)

	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			log.Errorw("tool failed", "tool", inv.Name, "exit_code", res.ExitCode)
			return res, &errors.ToolError{
				Tool:     inv.Name,
				ExitCode: res.ExitCode,
				Stdout:   res.Stdout,
				Stderr:   res.Stderr,
			}
		}
		return res, errors.Mark(errors.Wrapf(waitErr, "%s", inv.Name), errors.ErrUnexpectedRunner)
	}
	return res, nil
}

// command builds the process for inv. A PATH in inv.Env replaces the
// caller's PATH for resolving a bare program name.
func (e *Executor) command(ctx context.Context, inv Invocation) (*exec.Cmd, error) {
	var name string
	var args []string
	switch c := inv.Command.(type) {
	case ShellString:
		name, args = e.shell(), []string{"-c", string(c)}
	case DirectArgs:
		name, args = c[0], c[1:]
	}

	if path, ok := inv.Env["PATH"]; ok && !strings.ContainsRune(name, filepath.Separator) {
		resolved, err := lookPathIn(name, path)
		if err != nil {
			return nil, err
		}
		name = resolved
	}

	cmd := exec.CommandContext(ctx, name, args...)
	return cmd, cmd.Err
}

// lookPathIn is exec.LookPath against an explicit PATH list.
func lookPathIn(file, pathList string) (string, error) {
	for _, dir := range filepath.SplitList(pathList) {
		if dir == "" {
			dir = "."
		}
		p := filepath.Join(dir, file)
		info, err := os.Stat(p)
		if err == nil && info.Mode().IsRegular() && info.Mode().Perm()&0o111 != 0 {
			if !filepath.IsAbs(p) {
				if abs, err := filepath.Abs(p); err == nil {
					p = abs
				}
			}
			return p, nil
		}
	}
	return "", &exec.Error{Name: file, Err: exec.ErrNotFound}
}

func classifyLaunchError(name, program string, err error) error {
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		return errors.WithHintf(&errors.NotFoundError{Executable: program, Cause: err},
			"ensure %s is installed and on PATH, or fix the configured path", program)
	}
	return errors.Mark(errors.Wrapf(err, "%s: launching %s", name, program), errors.ErrUnexpectedRunner)
}

// buildEnv returns nil (inherit) when there are no overrides. Overrides are
// appended in sorted key order; later entries win in os/exec.
func buildEnv(overrides map[string]string) []string {
	if len(overrides) == 0 {
		return nil
	}
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	env := os.Environ()
	for _, k := range keys {
		env = append(env, k+"="+overrides[k])
	}
	return env
}

func echoStreams(log *zap.SugaredLogger, name string, res *ExecutionResult) {
	if out := strings.TrimSpace(res.Stdout); out != "" {
		log.Infow("stdout from "+name, "output", out)
	}
	if out := strings.TrimSpace(res.Stderr); out != "" {
		log.Warnw("stderr from "+name, "output", out)
	}
}
