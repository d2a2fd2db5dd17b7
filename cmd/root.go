package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var version = "1.0.0" // This will be set during build

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "bentoml",
	Short: "BentoML CLI - Manage BentoCloud credentials and contexts",
	Long: `BentoML CLI is a command-line client for the BentoCloud model-serving
platform. It bootstraps credentials once and keeps them in named contexts so
subsequent commands can switch between endpoints (e.g. staging vs production).`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version number of the BentoML CLI",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "BentoML CLI v%s\n", version)
		},
	}

	rootCmd.AddCommand(versionCmd)
}
