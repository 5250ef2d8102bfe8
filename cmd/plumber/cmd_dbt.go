package main

import (
	"github.com/spf13/cobra"

	"plumber/internal/dbt"
)

var dbtCmd = &cobra.Command{
	Use:   "dbt",
	Short: "Run dbt projects",
}

var dbtRunCmd = &cobra.Command{
	Use:   "run [project-dir]",
	Short: "Check a dbt project with dbt debug, then run its models",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return emit(dbt.NewRunner(newRunner(), logger).Run(cmd.Context(), args[0]))
	},
}

func init() {
	dbtCmd.AddCommand(dbtRunCmd)
	rootCmd.AddCommand(dbtCmd)
}
