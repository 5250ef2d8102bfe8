package dbt

import (
	"context"

	"plumber/internal/report"
	"plumber/internal/tools"
)

// Tools exposes the dbt runner to the tool registry.
func (r *Runner) Tools() []tools.Tool {
	return []tools.Tool{{
		Name:        "run_dbt_project",
		Description: "Check a dbt project with dbt debug, then run its models.",
		Category:    tools.CategoryPipeline,
		Execute: func(ctx context.Context, args map[string]any) report.Report {
			return r.Run(ctx, tools.StringArg(args, "project_path", ""))
		},
		Schema: tools.Schema{
			Required: []string{"project_path"},
			Properties: map[string]tools.Property{
				"project_path": {Type: "string", Description: "dbt project root holding dbt_project.yml and profiles"},
			},
		},
	}}
}
