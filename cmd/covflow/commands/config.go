package commands

import (
	"github.com/spf13/cobra"

	"covflow/internal/cli"
)

// ConfigCmd prints the effective configuration.
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration as TOML",
	Long: `Print the configuration covflow would run with: defaults, merged with the
nearest covflow.toml and COVFLOW_* environment variables. The output is valid
covflow.toml and can be saved as a starting point.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.ShowConfig(cmd.OutOrStdout(), "")
	},
}
