package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"plumber/internal/gcp/logs"
)

var (
	logsSeverity string
	logsLimit    int
	logsStart    string
	logsEnd      string
	clusterName  string
	clusterUUID  string
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Retrieve Cloud Logging entries",
	Long: `Queries Cloud Logging for the configured project. All queries are
bounded to the last 90 days unless an explicit window is given, return the
newest entries first, and cap results at 10 unless --limit says otherwise.`,
}

// withLogsClient opens a logadmin client for the duration of one command.
func withLogsClient(cmd *cobra.Command, fn func(*logs.Client) error) error {
	if err := requireProject(); err != nil {
		return err
	}
	client, err := logs.NewClient(cmd.Context(), cfg.Cloud.ProjectID, logger)
	if err != nil {
		return err
	}
	defer client.Close()
	return fn(client)
}

var logsLatestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Show the most recent log entries, optionally by severity",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withLogsClient(cmd, func(c *logs.Client) error {
			return emit(c.Latest(cmd.Context(), logsSeverity))
		})
	},
}

var logsErrorCmd = &cobra.Command{
	Use:   "error",
	Short: "Show the single most recent ERROR entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withLogsClient(cmd, func(c *logs.Client) error {
			return emit(c.LatestError(cmd.Context()))
		})
	},
}

var logsResourceCmd = &cobra.Command{
	Use:   "resource [type]",
	Short: "Show the most recent entries for one resource type",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withLogsClient(cmd, func(c *logs.Client) error {
			return emit(c.ByResource(cmd.Context(), logsSeverity, args[0], logsLimit))
		})
	},
}

var logsRangeCmd = &cobra.Command{
	Use:   "range",
	Short: "Show entries within a time window",
	RunE: func(cmd *cobra.Command, args []string) error {
		start, err := parseTimeFlag("start", logsStart)
		if err != nil {
			return err
		}
		end, err := parseTimeFlag("end", logsEnd)
		if err != nil {
			return err
		}
		return withLogsClient(cmd, func(c *logs.Client) error {
			return emit(c.Range(cmd.Context(), logsSeverity, start, end, logsLimit))
		})
	},
}

var logsDataflowCmd = &cobra.Command{
	Use:   "dataflow [job-id]",
	Short: "Show the most recent logs for one Dataflow job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withLogsClient(cmd, func(c *logs.Client) error {
			return emit(c.DataflowJob(cmd.Context(), args[0], logsLimit))
		})
	},
}

var logsDataprocJobCmd = &cobra.Command{
	Use:   "dataproc-job [job-id]",
	Short: "Show the most recent logs for one Dataproc job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withLogsClient(cmd, func(c *logs.Client) error {
			return emit(c.DataprocJob(cmd.Context(), args[0], logsLimit))
		})
	},
}

var logsDataprocClusterCmd = &cobra.Command{
	Use:   "dataproc-cluster",
	Short: "Show the most recent logs for one Dataproc cluster",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withLogsClient(cmd, func(c *logs.Client) error {
			return emit(c.DataprocCluster(cmd.Context(), clusterName, clusterUUID, logsLimit))
		})
	},
}

func parseTimeFlag(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s %q: expected RFC 3339, e.g. 2026-08-01T00:00:00Z", name, value)
	}
	return t, nil
}

func init() {
	for _, c := range []*cobra.Command{logsLatestCmd, logsResourceCmd, logsRangeCmd} {
		c.Flags().StringVar(&logsSeverity, "severity", "", "log severity (DEFAULT, DEBUG, INFO, NOTICE, WARNING, ERROR)")
	}
	for _, c := range []*cobra.Command{logsResourceCmd, logsRangeCmd, logsDataflowCmd, logsDataprocJobCmd, logsDataprocClusterCmd} {
		c.Flags().IntVar(&logsLimit, "limit", 0, "maximum entries to return (default 10)")
	}
	logsRangeCmd.Flags().StringVar(&logsStart, "start", "", "window start, RFC 3339 (default: 90 days before end)")
	logsRangeCmd.Flags().StringVar(&logsEnd, "end", "", "window end, RFC 3339 (default: now)")
	logsDataprocClusterCmd.Flags().StringVar(&clusterName, "name", "", "cluster name")
	logsDataprocClusterCmd.Flags().StringVar(&clusterUUID, "uuid", "", "cluster UUID")

	logsCmd.AddCommand(logsLatestCmd, logsErrorCmd, logsResourceCmd, logsRangeCmd,
		logsDataflowCmd, logsDataprocJobCmd, logsDataprocClusterCmd)
	rootCmd.AddCommand(logsCmd)
}
