// Package config builds the run configuration for covflow.
//
// A Config is assembled once at startup from in-source defaults, an optional
// covflow.toml found by walking up from the working directory, and COVFLOW_*
// environment variables, then passed explicitly to the workflow composer.
package config

import (
	"path/filepath"
	"strings"

	"covflow/internal/core"
	"covflow/internal/errors"
	"covflow/internal/pipeline"
)

// FileName is the project configuration file searched for by Load.
const FileName = "covflow.toml"

// Config is the complete run configuration.
type Config struct {
	// Root is the base directory relative paths resolve against.
	Root string `mapstructure:"root" toml:"root"`

	// ReportTypes is the comma or semicolon separated report-kind string.
	ReportTypes string `mapstructure:"report_types" toml:"report_types"`

	// ReportsDir holds the per-project per-backend report directories.
	ReportsDir string `mapstructure:"reports_dir" toml:"reports_dir"`

	// FailFast halts the remaining projects after the first failure.
	FailFast bool `mapstructure:"fail_fast" toml:"fail_fast"`

	LogJSON bool `mapstructure:"log_json" toml:"log_json"`

	// SummaryFile is where the run manifest is written. Empty disables it.
	SummaryFile string `mapstructure:"summary_file" toml:"summary_file"`

	Backends []BackendConfig `mapstructure:"backends" toml:"backends"`
	Projects []ProjectConfig `mapstructure:"projects" toml:"projects"`

	// Source is the configuration file that was read, if any.
	Source string `mapstructure:"-" toml:"-"`
}

// BackendConfig describes a rendering backend. Args may use {coverage},
// {output}, {types} and {root}.
type BackendConfig struct {
	Name      string   `mapstructure:"name" toml:"name"`
	Program   string   `mapstructure:"program" toml:"program"`
	Args      []string `mapstructure:"args" toml:"args"`
	Workdir   string   `mapstructure:"workdir" toml:"workdir,omitempty"`
	Probe     []string `mapstructure:"probe" toml:"probe"`
	Separator string   `mapstructure:"separator" toml:"separator"`
}

// InvocationSpec is a tool invocation as written in configuration: either
// program plus args, or a shell string when redirection is needed.
type InvocationSpec struct {
	Program string   `mapstructure:"program" toml:"program,omitempty"`
	Args    []string `mapstructure:"args" toml:"args,omitempty"`
	Shell   string   `mapstructure:"shell" toml:"shell,omitempty"`
	Workdir string   `mapstructure:"workdir" toml:"workdir,omitempty"`
	// Env entries are KEY=VALUE.
	Env []string `mapstructure:"env" toml:"env,omitempty"`
}

// ProjectConfig describes one Project Workflow.
type ProjectConfig struct {
	Name         string          `mapstructure:"name" toml:"name"`
	SourceDir    string          `mapstructure:"source_dir" toml:"source_dir"`
	CoverageFile string          `mapstructure:"coverage_file" toml:"coverage_file"`
	NativeFile   string          `mapstructure:"native_file" toml:"native_file,omitempty"`
	Instrument   InvocationSpec  `mapstructure:"instrument" toml:"instrument"`
	Convert      *InvocationSpec `mapstructure:"convert" toml:"convert,omitempty"`
}

// Validate checks the configuration before anything runs. Every failure is a
// ConfigurationError.
func (c *Config) Validate() error {
	if _, err := c.ReportRequest(); err != nil {
		return err
	}
	if strings.TrimSpace(c.ReportsDir) == "" {
		return errors.Configurationf("reports_dir cannot be empty")
	}
	if len(c.Projects) == 0 {
		return errors.Configurationf("no projects configured")
	}

	seen := make(map[string]bool)
	for i, b := range c.Backends {
		if strings.TrimSpace(b.Name) == "" {
			return errors.Configurationf("backends[%d]: name is required", i)
		}
		if seen["backend:"+b.Name] {
			return errors.Configurationf("duplicate backend %q", b.Name)
		}
		seen["backend:"+b.Name] = true
		if err := b.template().Validate(); err != nil {
			return errors.Wrapf(err, "backend %q", b.Name)
		}
		switch b.Separator {
		case "", ",", ";":
		default:
			return errors.Configurationf("backend %q: separator must be \",\" or \";\", got %q", b.Name, b.Separator)
		}
	}

	for i, p := range c.Projects {
		if strings.TrimSpace(p.Name) == "" {
			return errors.Configurationf("projects[%d]: name is required", i)
		}
		if seen["project:"+p.Name] {
			return errors.Configurationf("duplicate project %q", p.Name)
		}
		seen["project:"+p.Name] = true
		if err := p.validate(); err != nil {
			return errors.Wrapf(err, "project %q", p.Name)
		}
	}
	return nil
}

func (p ProjectConfig) validate() error {
	if strings.TrimSpace(p.CoverageFile) == "" {
		return errors.Configurationf("coverage_file is required")
	}
	if _, err := p.Instrument.template(); err != nil {
		return errors.Wrap(err, "instrument")
	}
	if p.Convert == nil {
		if p.NativeFile != "" {
			return errors.Configurationf("native_file is set but no convert step is configured")
		}
		return nil
	}
	if p.NativeFile == "" {
		return errors.Configurationf("convert requires native_file")
	}
	if _, err := p.Convert.template(); err != nil {
		return errors.Wrap(err, "convert")
	}
	return nil
}

// ReportRequest parses ReportTypes.
func (c *Config) ReportRequest() (core.ReportRequest, error) {
	return core.ParseReportRequest(c.ReportTypes)
}

// Path resolves p against Root. Absolute paths are returned cleaned.
func (c *Config) Path(p string) string {
	if p == "" {
		return ""
	}
	p = core.Vars{core.VarRoot: c.Root}.Expand(p)
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(c.Root, p)
}

// ReportDir is the output directory of backend for project.
func (c *Config) ReportDir(project, backend string) string {
	return filepath.Join(c.Path(c.ReportsDir), project+"_"+backend+"_report")
}

// Workflows converts the validated configuration into pipeline descriptors
// with absolute paths, in configuration order.
func (c *Config) Workflows() ([]pipeline.Project, []pipeline.Backend, error) {
	if err := c.Validate(); err != nil {
		return nil, nil, err
	}

	projects := make([]pipeline.Project, 0, len(c.Projects))
	for _, p := range c.Projects {
		instrument, err := p.Instrument.template()
		if err != nil {
			return nil, nil, err
		}
		proj := pipeline.Project{
			Name:         p.Name,
			SourceDir:    c.Path(p.SourceDir),
			CoverageFile: c.Path(p.CoverageFile),
			NativeFile:   c.Path(p.NativeFile),
			Instrument:   instrument,
		}
		if p.Convert != nil {
			convert, err := p.Convert.template()
			if err != nil {
				return nil, nil, err
			}
			proj.Convert = &convert
		}
		projects = append(projects, proj)
	}

	backends := make([]pipeline.Backend, 0, len(c.Backends))
	for _, b := range c.Backends {
		probe := make([]string, len(b.Probe))
		for i, p := range b.Probe {
			probe[i] = c.Path(p)
		}
		backends = append(backends, pipeline.Backend{
			Name:      b.Name,
			Render:    b.template(),
			Probe:     probe,
			Separator: b.Separator,
		})
	}
	return projects, backends, nil
}

func (b BackendConfig) template() core.Template {
	return core.Template{Program: b.Program, Args: b.Args, Dir: b.Workdir}
}

func (s InvocationSpec) template() (core.Template, error) {
	t := core.Template{Program: s.Program, Args: s.Args, Shell: s.Shell, Dir: s.Workdir}
	if err := t.Validate(); err != nil {
		return core.Template{}, err
	}
	if len(s.Env) > 0 {
		t.Env = make(map[string]string, len(s.Env))
		for _, kv := range s.Env {
			k, v, ok := strings.Cut(kv, "=")
			if !ok || strings.TrimSpace(k) == "" {
				return core.Template{}, errors.Configurationf("env entry %q must be KEY=VALUE", kv)
			}
			t.Env[k] = v
		}
	}
	return t, nil
}
