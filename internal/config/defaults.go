package config

// Defaults for the scalar settings.
const (
	DefaultReportTypes = "Html"
	DefaultReportsDir  = "reports"
	DefaultSummaryFile = "reports/covflow-run.yaml"
)

// Default returns the built-in configuration: a .NET project and a Go
// project, each rendered by the Go report generator and the .NET
// ReportGenerator. Root is left empty for Load to detect.
func Default() *Config {
	return &Config{
		ReportTypes: DefaultReportTypes,
		ReportsDir:  DefaultReportsDir,
		SummaryFile: DefaultSummaryFile,
		Backends: []BackendConfig{
			{
				Name:      "go_tool",
				Program:   "go",
				Args:      []string{"run", ".", "-report={coverage}", "-output={output}", "-reporttypes={types}"},
				Workdir:   "{root}/go_report_generator/cmd",
				Probe:     []string{"go_report_generator/cmd/main.go"},
				Separator: ",",
			},
			{
				Name:    "dotnet_tool",
				Program: "dotnet",
				Args: []string{
					"{root}/src/ReportGenerator.Console.NetCore/bin/Debug/net8.0/ReportGenerator.dll",
					"-reports:{coverage}",
					"-targetdir:{output}",
					"-reporttypes:{types}",
				},
				Probe:     []string{"src/ReportGenerator.Console.NetCore/bin/Debug/net8.0/ReportGenerator.dll"},
				Separator: ";",
			},
		},
		Projects: []ProjectConfig{
			{
				Name:         "csharp_project",
				SourceDir:    "Testprojects/CSharp/Project_DotNetCore",
				CoverageFile: "Testprojects/CSharp/Reports/coverage.cobertura.xml",
				Instrument: InvocationSpec{
					Program: "dotnet",
					Args: []string{
						"test", "{source}/UnitTests/UnitTests.csproj",
						"--configuration", "Release",
						"--verbosity", "minimal",
						"/p:CollectCoverage=true",
						"/p:CoverletOutputFormat=cobertura",
						"/p:CoverletOutput={coverage}",
					},
				},
			},
			{
				Name:         "go_project",
				SourceDir:    "Testprojects/Go",
				CoverageFile: "Testprojects/Go/coverage.cobertura.xml",
				NativeFile:   "Testprojects/Go/coverage.out",
				Instrument: InvocationSpec{
					Program: "go",
					Args:    []string{"test", "-coverprofile={native}", "./..."},
					Workdir: "{source}",
				},
				Convert: &InvocationSpec{
					Shell:   "gocover-cobertura < {native} > {coverage}",
					Workdir: "{source}",
				},
			},
		},
	}
}
