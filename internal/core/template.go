package core

import (
	"sort"
	"strings"

	"github.com/kballard/go-shellquote"

	"covflow/internal/errors"
)

// Placeholder names recognized in templates, written as {name}.
const (
	VarRoot     = "root"
	VarSource   = "source"
	VarCoverage = "coverage"
	VarNative   = "native"
	VarOutput   = "output"
	VarReport   = "report"
	VarTypes    = "types"
)

// Vars maps placeholder names (without braces) to values.
type Vars map[string]string

// With returns a copy of v with the given pairs added.
func (v Vars) With(pairs ...string) Vars {
	out := make(Vars, len(v)+len(pairs)/2)
	for k, val := range v {
		out[k] = val
	}
	for i := 0; i+1 < len(pairs); i += 2 {
		out[pairs[i]] = pairs[i+1]
	}
	return out
}

func (v Vars) replacer(quote bool) *strings.Replacer {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	oldnew := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		val := v[k]
		if quote {
			val = shellquote.Join(val)
		}
		oldnew = append(oldnew, "{"+k+"}", val)
	}
	return strings.NewReplacer(oldnew...)
}

// Expand substitutes every known {name} in s. Unknown placeholders are left
// as written.
func (v Vars) Expand(s string) string { return v.replacer(false).Replace(s) }

// Template describes an invocation whose fields may contain placeholders.
// Exactly one of Program or Shell must be set.
type Template struct {
	Program string
	Args    []string
	Shell   string
	Dir     string
	Env     map[string]string
}

// IsZero reports whether no command is configured.
func (t Template) IsZero() bool {
	return t.Program == "" && len(t.Args) == 0 && t.Shell == ""
}

// Validate rejects templates that mix or omit execution modes.
func (t Template) Validate() error {
	direct := t.Program != "" || len(t.Args) > 0
	shell := strings.TrimSpace(t.Shell) != ""
	switch {
	case direct && shell:
		return errors.Configurationf("both program/args and shell are set")
	case !direct && !shell:
		return errors.Configurationf("neither program nor shell is set")
	case direct && strings.TrimSpace(t.Program) == "":
		return errors.Configurationf("args given without a program")
	}
	return nil
}

// Build expands t with vars into an Invocation named name. Values inserted
// into a shell string are quoted so paths with spaces survive the shell.
func (t Template) Build(name string, vars Vars) (Invocation, error) {
	if err := t.Validate(); err != nil {
		return Invocation{}, errors.Wrapf(err, "invocation %q", name)
	}
	plain := vars.replacer(false)

	inv := Invocation{Name: name, Dir: plain.Replace(t.Dir)}
	if t.Shell != "" {
		inv.Command = ShellString(vars.replacer(true).Replace(t.Shell))
	} else {
		args := make(DirectArgs, 0, len(t.Args)+1)
		args = append(args, plain.Replace(t.Program))
		for _, a := range t.Args {
			args = append(args, plain.Replace(a))
		}
		inv.Command = args
	}
	if len(t.Env) > 0 {
		inv.Env = make(map[string]string, len(t.Env))
		for k, v := range t.Env {
			inv.Env[k] = plain.Replace(v)
		}
	}
	return inv, inv.Validate()
}
