package dataproc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"plumber/internal/report"
	"plumber/internal/tools"
)

// Tools exposes the template workflow to the tool registry.
func Tools(m *Matcher, p *Preparer, gitURL, repoDir string) []tools.Tool {
	return []tools.Tool{
		{
			Name:        "sync_dataproc_templates",
			Description: "Clone or update the local dataproc-templates repository checkout.",
			Category:    tools.CategoryPipeline,
			Execute: func(ctx context.Context, args map[string]any) report.Report {
				dir, err := Sync(ctx, gitURL, repoDir)
				if err != nil {
					return report.Errorf("%v", err)
				}
				return report.Successf("Template repository ready at %s", dir)
			},
		},
		{
			Name:        "match_dataproc_template",
			Description: "Find the Dataproc template best suited to a task and its declared parameters.",
			Category:    tools.CategoryPipeline,
			Execute: func(ctx context.Context, args map[string]any) report.Report {
				tpl, err := m.Match(ctx, repoDir,
					tools.StringArg(args, "task", ""),
					tools.StringArg(args, "language", LangPython))
				if errors.Is(err, ErrNoTemplate) {
					return report.Success("No matching template found for the task.")
				}
				if err != nil {
					return report.Errorf("%v", err)
				}
				lines := []string{
					fmt.Sprintf("Template: %s", tpl.Path),
					fmt.Sprintf("Readme: %s", tpl.Readme),
					fmt.Sprintf("Required params: %s", strings.Join(tpl.Params.Required, ", ")),
					fmt.Sprintf("Optional params: %s", strings.Join(tpl.Params.Optional, ", ")),
				}
				return report.Success(strings.Join(lines, "\n"))
			},
			Schema: tools.Schema{
				Required: []string{"task"},
				Properties: map[string]tools.Property{
					"task":     {Type: "string", Description: "what the pipeline should do"},
					"language": {Type: "string", Description: "python or java", Default: LangPython, Enum: []any{"python", "java"}},
				},
			},
		},
		{
			Name:        "prepare_dataproc_template",
			Description: "Stage a run-scoped copy of a template with a SQL transformation embedded.",
			Category:    tools.CategoryPipeline,
			Execute: func(ctx context.Context, args map[string]any) report.Report {
				runID := tools.StringArg(args, "run_id", uuid.NewString())
				repoCopy, tpl, err := p.Prepare(ctx, runID, repoDir,
					tools.StringArg(args, "template_path", ""),
					tools.StringArg(args, "transformation_sql", ""))
				if err != nil {
					return report.Errorf("%v", err)
				}
				return report.Successf("Run %s prepared.\nRepo copy: %s\nTemplate: %s", runID, repoCopy, tpl)
			},
			Schema: tools.Schema{
				Required: []string{"template_path", "transformation_sql"},
				Properties: map[string]tools.Property{
					"run_id":             {Type: "string", Description: "identifier for this run; generated when absent"},
					"template_path":      {Type: "string", Description: "template script inside the repo checkout"},
					"transformation_sql": {Type: "string", Description: "SQL to embed between read and write"},
				},
			},
		},
	}
}
