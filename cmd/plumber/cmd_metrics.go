package main

import (
	"github.com/spf13/cobra"

	"plumber/internal/gcp/metrics"
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Query Cloud Monitoring",
}

var metricsCPUCmd = &cobra.Command{
	Use:   "cpu",
	Short: "Show mean CPU utilization per VM instance over the last 5 minutes",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireProject(); err != nil {
			return err
		}
		client, err := metrics.NewClient(cmd.Context(), cfg.Cloud.ProjectID, logger)
		if err != nil {
			return err
		}
		defer client.Close()
		return emit(client.CPUUtilization(cmd.Context()))
	},
}

func init() {
	metricsCmd.AddCommand(metricsCPUCmd)
	rootCmd.AddCommand(metricsCmd)
}
