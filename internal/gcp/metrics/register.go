package metrics

import (
	"context"

	"plumber/internal/report"
	"plumber/internal/tools"
)

// Tools exposes the metric queries to the tool registry.
func (c *Client) Tools() []tools.Tool {
	return []tools.Tool{{
		Name:        "get_cpu_utilization",
		Description: "Report mean CPU utilization for every VM instance in the project over the last 5 minutes.",
		Category:    tools.CategoryMonitoring,
		Execute: func(ctx context.Context, args map[string]any) report.Report {
			return c.CPUUtilization(ctx)
		},
	}}
}
