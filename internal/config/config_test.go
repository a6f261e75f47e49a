package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"covflow/internal/core"
	"covflow/internal/errors"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	cfg.Root = "/repo"
	require.NoError(t, cfg.Validate())

	projects, backends, err := cfg.Workflows()
	require.NoError(t, err)
	require.Len(t, projects, 2)
	require.Len(t, backends, 2)

	assert.Equal(t, "csharp_project", projects[0].Name)
	assert.False(t, projects[0].NeedsConversion())
	assert.Equal(t, "/repo/Testprojects/CSharp/Reports/coverage.cobertura.xml", projects[0].CoverageFile)

	assert.Equal(t, "go_project", projects[1].Name)
	assert.True(t, projects[1].NeedsConversion())
	assert.Equal(t, "/repo/Testprojects/Go/coverage.out", projects[1].InstrumentOutput())

	assert.Equal(t, "go_tool", backends[0].Name)
	assert.Equal(t, []string{"/repo/go_report_generator/cmd/main.go"}, backends[0].Probe)
	assert.Equal(t, ";", backends[1].Separator)
}

func TestReportDir(t *testing.T) {
	cfg := Default()
	cfg.Root = "/repo"
	assert.Equal(t, "/repo/reports/go_project_dotnet_tool_report", cfg.ReportDir("go_project", "dotnet_tool"))

	cfg.ReportsDir = "/abs/out"
	assert.Equal(t, "/abs/out/go_project_go_tool_report", cfg.ReportDir("go_project", "go_tool"))
}

func TestPath(t *testing.T) {
	cfg := &Config{Root: "/repo"}
	assert.Equal(t, "/repo/a/b", cfg.Path("a/b"))
	assert.Equal(t, "/elsewhere", cfg.Path("/elsewhere/"))
	assert.Equal(t, "/repo/x", cfg.Path("{root}/x"))
	assert.Equal(t, "", cfg.Path(""))
}

func validConfig() *Config {
	return &Config{
		Root:        "/repo",
		ReportTypes: "TextSummary",
		ReportsDir:  "reports",
		Backends: []BackendConfig{
			{Name: "b1", Program: "render", Args: []string{"{coverage}", "{output}"}},
		},
		Projects: []ProjectConfig{
			{
				Name:         "p1",
				CoverageFile: "cov.xml",
				Instrument:   InvocationSpec{Program: "test"},
			},
		},
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"empty report types", func(c *Config) { c.ReportTypes = "" }},
		{"blank report types", func(c *Config) { c.ReportTypes = " , ; " }},
		{"no projects", func(c *Config) { c.Projects = nil }},
		{"empty reports dir", func(c *Config) { c.ReportsDir = "" }},
		{"duplicate project", func(c *Config) { c.Projects = append(c.Projects, c.Projects[0]) }},
		{"duplicate backend", func(c *Config) { c.Backends = append(c.Backends, c.Backends[0]) }},
		{"unnamed backend", func(c *Config) { c.Backends[0].Name = "" }},
		{"backend without program", func(c *Config) { c.Backends[0].Program = "" }},
		{"bad separator", func(c *Config) { c.Backends[0].Separator = "|" }},
		{"missing coverage file", func(c *Config) { c.Projects[0].CoverageFile = "" }},
		{"both modes", func(c *Config) { c.Projects[0].Instrument.Shell = "test > out" }},
		{"neither mode", func(c *Config) { c.Projects[0].Instrument = InvocationSpec{} }},
		{"native without convert", func(c *Config) { c.Projects[0].NativeFile = "cov.out" }},
		{"convert without native", func(c *Config) {
			c.Projects[0].Convert = &InvocationSpec{Shell: "conv < {native} > {coverage}"}
		}},
		{"bad env entry", func(c *Config) { c.Projects[0].Instrument.Env = []string{"NOEQUALS"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrConfiguration), "got %v", err)
		})
	}
}

func TestWorkflows_ConvertsInvocationSpecs(t *testing.T) {
	cfg := validConfig()
	cfg.Projects[0].NativeFile = "cov.out"
	cfg.Projects[0].Instrument = InvocationSpec{
		Program: "go",
		Args:    []string{"test", "-coverprofile={native}"},
		Workdir: "{source}",
		Env:     []string{"GOFLAGS=-mod=mod", "EMPTY="},
	}
	cfg.Projects[0].Convert = &InvocationSpec{Shell: "conv < {native} > {coverage}"}

	projects, _, err := cfg.Workflows()
	require.NoError(t, err)

	p := projects[0]
	assert.Equal(t, filepath.Join("/repo", "cov.out"), p.NativeFile)
	assert.Equal(t, map[string]string{"GOFLAGS": "-mod=mod", "EMPTY": ""}, p.Instrument.Env)
	require.NotNil(t, p.Convert)
	assert.Equal(t, "conv < {native} > {coverage}", p.Convert.Shell)
	assert.Equal(t, core.Template{Program: "go", Args: []string{"test", "-coverprofile={native}"}, Dir: "{source}", Env: p.Instrument.Env}, p.Instrument)
}

func TestWorkflows_InvalidConfigIsConfigurationError(t *testing.T) {
	cfg := validConfig()
	cfg.ReportTypes = ""
	_, _, err := cfg.Workflows()
	assert.True(t, errors.Is(err, errors.ErrConfiguration))
}
