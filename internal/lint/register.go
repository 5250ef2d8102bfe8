package lint

import (
	"context"
	"strings"

	"plumber/internal/report"
	"plumber/internal/tools"
)

// Tools exposes the dispatcher to the tool registry. agentsRoot anchors
// the "agent" selector.
func Tools(d *Dispatcher, agentsRoot string) []tools.Tool {
	run := func(ctx context.Context, args map[string]any) report.Report {
		action, err := ParseAction(tools.StringArg(args, "action", string(ActionCheck)))
		if err != nil {
			return report.Errorf("%v", err)
		}
		dir, err := ResolveTarget(agentsRoot,
			tools.StringArg(args, "agent", ""),
			tools.StringArg(args, "path", ""))
		if err != nil {
			return report.Errorf("%v", err)
		}

		var checks []string
		if s := tools.StringArg(args, "checks", ""); s != "" {
			checks = strings.Split(s, ",")
		}

		return d.Run(ctx, Options{
			Action:    action,
			Dir:       dir,
			Checks:    checks,
			Notebooks: tools.BoolArg(args, "notebooks", false),
		})
	}

	return []tools.Tool{{
		Name:        "lint_code",
		Description: "Run isort, black and flake8 (or a subset) over a directory of Python sources or notebooks, checking or fixing.",
		Category:    tools.CategoryLint,
		Execute:     run,
		Schema: tools.Schema{
			Properties: map[string]tools.Property{
				"action":    {Type: "string", Description: "check or fix", Default: "check", Enum: []any{"check", "fix"}},
				"agent":     {Type: "string", Description: "agent directory name under the agents root (exclusive with path)"},
				"path":      {Type: "string", Description: "explicit target directory (exclusive with agent)"},
				"checks":    {Type: "string", Description: "comma-separated subset of isort,black,flake8; empty runs all"},
				"notebooks": {Type: "boolean", Description: "lint .ipynb files through nbqa", Default: false},
			},
		},
	}}
}
