package core

import (
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"covflow/internal/logger"
)

// CheckResult is the outcome of one Expectation.
type CheckResult struct {
	Expectation Expectation
	OK          bool
	// Matched lists the non-empty files that satisfied the check.
	Matched []string
}

// Verification is the Artifact Verifier's verdict for one output directory.
type Verification struct {
	Dir        string
	DirExists  bool
	Checks     []CheckResult
	Unverified []ReportKind
}

// Passed reports whether the directory existed and every verifiable kind was
// satisfied. Unverified kinds do not fail the check.
func (v Verification) Passed() bool {
	if !v.DirExists {
		return false
	}
	for _, c := range v.Checks {
		if !c.OK {
			return false
		}
	}
	return true
}

// Lenient reports a pass that relied on trusting the tool for at least one
// kind. Callers must not present it as a full verification.
func (v Verification) Lenient() bool {
	return v.Passed() && len(v.Unverified) > 0
}

// Failed returns the checks that did not pass.
func (v Verification) Failed() []CheckResult {
	var out []CheckResult
	for _, c := range v.Checks {
		if !c.OK {
			out = append(out, c)
		}
	}
	return out
}

// Verifier is the Artifact Verifier.
type Verifier struct {
	Logger *zap.SugaredLogger
}

// NewVerifier creates a Verifier logging to log (nil means the global logger).
func NewVerifier(log *zap.SugaredLogger) *Verifier {
	return &Verifier{Logger: log}
}

// Verify checks dir against req. tool names the renderer in logs.
//
// A missing directory always fails. Kinds without a rule are logged at warn
// level and recorded in Unverified; they never appear as passed checks.
func (v *Verifier) Verify(dir string, req ReportRequest, tool string) Verification {
	log := logger.Or(v.Logger)
	res := Verification{Dir: dir}

	log.Infow("verifying generated reports", "tool", tool, "dir", dir, "report_types", req.String())

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		log.Errorw("output directory does not exist", "tool", tool, "dir", dir)
		return res
	}
	res.DirExists = true

	expectations, unverifiable := ExpectationsFor(dir, req)
	for _, exp := range expectations {
		c := check(exp)
		res.Checks = append(res.Checks, c)
		if c.OK {
			log.Infow("report generated", "tool", tool, "kind", exp.Label(), "path", c.Matched[0])
		} else {
			log.Errorw("report not generated or empty", "tool", tool, "kind", exp.Label(), "path", exp.Path)
		}
	}

	if len(unverifiable) > 0 {
		res.Unverified = unverifiable
		log.Warnw("report kinds not verified",
			"tool", tool,
			"unverified", kindStrings(unverifiable),
			"note", "no file check for these kinds, assuming success because the tool exited cleanly")
	}
	return res
}

func check(exp Expectation) CheckResult {
	res := CheckResult{Expectation: exp}
	switch exp.Rule {
	case RuleFile:
		if NonEmptyFile(exp.Path) {
			res.OK = true
			res.Matched = []string{exp.Path}
		}
	case RuleGlob:
		// The directory may contain glob metacharacters; list it and match
		// base names only.
		dir, pattern := filepath.Split(exp.Path)
		entries, err := os.ReadDir(dir)
		if err != nil {
			return res
		}
		for _, e := range entries {
			if ok, _ := filepath.Match(pattern, e.Name()); !ok {
				continue
			}
			if m := filepath.Join(dir, e.Name()); NonEmptyFile(m) {
				res.Matched = append(res.Matched, m)
			}
		}
		sort.Strings(res.Matched)
		res.OK = len(res.Matched) > 0
	}
	return res
}

func kindStrings(kinds []ReportKind) []string {
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = string(k)
	}
	return out
}
