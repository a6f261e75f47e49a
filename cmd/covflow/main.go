package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"covflow/cmd/covflow/commands"
	"covflow/internal/cli"
	"covflow/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "covflow",
	Short: "Run coverage collection and report rendering for every configured project",
	Long: `covflow runs each configured project's tests with coverage, converts the
coverage to Cobertura where needed, renders reports with every available
backend and verifies that the requested report kinds were produced.

Configuration comes from the nearest covflow.toml at or above the current
directory, overridden by COVFLOW_* environment variables. The command takes
no flags.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logger.Initialize(false)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Failures are already logged and summarized; only the code matters.
		res, _ := cli.Run(cmd.Context(), "", cli.Options{Out: cmd.OutOrStdout()})
		commands.SetExitCode(res.ExitCode)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(commands.CompareCmd)
	rootCmd.AddCommand(commands.ConfigCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		logger.Cleanup()
		os.Exit(cli.ExitFailure)
	}
	logger.Cleanup()
	os.Exit(commands.ExitCode())
}
