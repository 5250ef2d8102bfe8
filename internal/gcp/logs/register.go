package logs

import (
	"context"
	"fmt"
	"time"

	"plumber/internal/report"
	"plumber/internal/tools"
)

// Tools exposes the log queries to the tool registry.
func (c *Client) Tools() []tools.Tool {
	limitProp := tools.Property{Type: "integer", Description: "maximum entries to return", Default: DefaultLimit}
	severityProp := tools.Property{
		Type:        "string",
		Description: "log severity (DEFAULT, DEBUG, INFO, NOTICE, WARNING, ERROR); anything else fetches all levels",
	}

	return []tools.Tool{
		{
			Name:        "get_latest_error",
			Description: "Fetch the single most recent ERROR log entry for the project.",
			Category:    tools.CategoryMonitoring,
			Execute: func(ctx context.Context, args map[string]any) report.Report {
				return c.LatestError(ctx)
			},
		},
		{
			Name:        "get_latest_logs",
			Description: "Fetch the most recent log entries, optionally filtered by severity.",
			Category:    tools.CategoryMonitoring,
			Execute: func(ctx context.Context, args map[string]any) report.Report {
				return c.Latest(ctx, tools.StringArg(args, "severity", ""))
			},
			Schema: tools.Schema{
				Properties: map[string]tools.Property{"severity": severityProp},
			},
		},
		{
			Name:        "get_resource_logs",
			Description: "Fetch the most recent log entries for one resource type, optionally filtered by severity.",
			Category:    tools.CategoryMonitoring,
			Execute: func(ctx context.Context, args map[string]any) report.Report {
				return c.ByResource(ctx,
					tools.StringArg(args, "severity", ""),
					tools.StringArg(args, "resource", ""),
					tools.IntArg(args, "limit", 0))
			},
			Schema: tools.Schema{
				Required: []string{"resource"},
				Properties: map[string]tools.Property{
					"resource": {Type: "string", Description: "monitored resource type, e.g. dataflow_step or gce_instance"},
					"severity": severityProp,
					"limit":    limitProp,
				},
			},
		},
		{
			Name:        "get_logs",
			Description: "Fetch log entries within a time window (RFC 3339 timestamps), optionally filtered by severity.",
			Category:    tools.CategoryMonitoring,
			Execute: func(ctx context.Context, args map[string]any) report.Report {
				start, err := parseTimeArg(args, "start_time")
				if err != nil {
					return report.Errorf("%v", err)
				}
				end, err := parseTimeArg(args, "end_time")
				if err != nil {
					return report.Errorf("%v", err)
				}
				return c.Range(ctx,
					tools.StringArg(args, "severity", ""),
					start, end,
					tools.IntArg(args, "limit", 0))
			},
			Schema: tools.Schema{
				Properties: map[string]tools.Property{
					"start_time": {Type: "string", Description: "window start, RFC 3339; defaults to 90 days before the end"},
					"end_time":   {Type: "string", Description: "window end, RFC 3339; defaults to now"},
					"severity":   severityProp,
					"limit":      limitProp,
				},
			},
		},
		{
			Name:        "get_dataflow_job_logs",
			Description: "Fetch the most recent logs for one Dataflow job.",
			Category:    tools.CategoryMonitoring,
			Execute: func(ctx context.Context, args map[string]any) report.Report {
				return c.DataflowJob(ctx,
					tools.StringArg(args, "job_id", ""),
					tools.IntArg(args, "limit", 0))
			},
			Schema: tools.Schema{
				Required: []string{"job_id"},
				Properties: map[string]tools.Property{
					"job_id": {Type: "string", Description: "Dataflow job id, e.g. 2026-08-01_12_30_00-123456789"},
					"limit":  limitProp,
				},
			},
		},
		{
			Name:        "get_dataproc_job_logs",
			Description: "Fetch the most recent logs for one Dataproc job.",
			Category:    tools.CategoryMonitoring,
			Execute: func(ctx context.Context, args map[string]any) report.Report {
				return c.DataprocJob(ctx,
					tools.StringArg(args, "job_id", ""),
					tools.IntArg(args, "limit", 0))
			},
			Schema: tools.Schema{
				Required: []string{"job_id"},
				Properties: map[string]tools.Property{
					"job_id": {Type: "string", Description: "Dataproc job id"},
					"limit":  limitProp,
				},
			},
		},
		{
			Name:        "get_dataproc_cluster_logs",
			Description: "Fetch the most recent logs for one Dataproc cluster, by name and/or UUID.",
			Category:    tools.CategoryMonitoring,
			Execute: func(ctx context.Context, args map[string]any) report.Report {
				return c.DataprocCluster(ctx,
					tools.StringArg(args, "cluster_name", ""),
					tools.StringArg(args, "cluster_uuid", ""),
					tools.IntArg(args, "limit", 0))
			},
			Schema: tools.Schema{
				Properties: map[string]tools.Property{
					"cluster_name": {Type: "string", Description: "Dataproc cluster name"},
					"cluster_uuid": {Type: "string", Description: "Dataproc cluster UUID"},
					"limit":        limitProp,
				},
			},
		},
	}
}

func parseTimeArg(args map[string]any, key string) (time.Time, error) {
	s := tools.StringArg(args, key, "")
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s %q: expected RFC 3339, e.g. 2026-08-01T00:00:00Z", key, s)
	}
	return t, nil
}
