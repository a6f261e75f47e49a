package commands

import (
	"github.com/spf13/cobra"

	"covflow/internal/cli"
)

var compareExact bool

// CompareCmd compares two report directories.
var CompareCmd = &cobra.Command{
	Use:   "compare <left> <right>",
	Short: "Compare two report directories",
	Long: `Recursively compare two report directories, for example the output of two
backends for the same project. Lists files found on one side only and files
whose contents differ, with a text patch for small text files. Generation
timestamps and line endings are masked unless --exact is given.

Exits 0 when the directories are identical and 1 otherwise.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var norm cli.Normalizer = cli.NewReportNormalizer()
		if compareExact {
			norm = cli.ExactNormalizer{}
		}
		code, err := cli.Compare(cmd.OutOrStdout(), args[0], args[1], norm)
		SetExitCode(code)
		return err
	},
}

func init() {
	CompareCmd.Flags().BoolVar(&compareExact, "exact", false, "Compare bytes without masking timestamps or line endings")
}
