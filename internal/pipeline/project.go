package pipeline

import (
	"path/filepath"

	"covflow/internal/core"
)

// Project is one Project Workflow: a tested project and where its coverage
// artifacts land. All paths are absolute.
type Project struct {
	Name string

	// SourceDir must exist before instrumentation. Empty disables the check.
	SourceDir string

	// CoverageFile is the interchange-format artifact every backend consumes.
	CoverageFile string

	// NativeFile is the instrumentation output when it is not already in the
	// interchange format. It is set exactly when Convert is set.
	NativeFile string

	Instrument core.Template
	Convert    *core.Template
}

// NeedsConversion reports whether the project has a Converting stage.
func (p Project) NeedsConversion() bool { return p.Convert != nil }

// InstrumentOutput is the artifact the instrumentation stage must produce.
func (p Project) InstrumentOutput() string {
	if p.NeedsConversion() {
		return p.NativeFile
	}
	return p.CoverageFile
}

// ArtifactDirs returns the parent directories of the coverage artifacts.
func (p Project) ArtifactDirs() []string {
	dirs := []string{filepath.Dir(p.CoverageFile)}
	if p.NativeFile != "" && filepath.Dir(p.NativeFile) != dirs[0] {
		dirs = append(dirs, filepath.Dir(p.NativeFile))
	}
	return dirs
}

// vars returns the project-level placeholder values.
func (p Project) vars(root string) core.Vars {
	return core.Vars{
		core.VarRoot:     root,
		core.VarSource:   p.SourceDir,
		core.VarCoverage: p.CoverageFile,
		core.VarReport:   p.CoverageFile,
		core.VarNative:   p.NativeFile,
	}
}
