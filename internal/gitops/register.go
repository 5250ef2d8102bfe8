package gitops

import (
	"context"

	"plumber/internal/report"
	"plumber/internal/tools"
)

// Tools exposes the repository operations to the tool registry.
func (s *Service) Tools() []tools.Tool {
	repoProp := tools.Property{Type: "string", Description: "path to the repository"}

	return []tools.Tool{
		{
			Name:        "git_init",
			Description: "Initialize a git repository at a path, or report the existing one.",
			Category:    tools.CategoryGit,
			Execute: func(ctx context.Context, args map[string]any) report.Report {
				return s.Init(tools.StringArg(args, "repo_path", ""))
			},
			Schema: tools.Schema{
				Required:   []string{"repo_path"},
				Properties: map[string]tools.Property{"repo_path": repoProp},
			},
		},
		{
			Name:        "git_status",
			Description: "Show the branch and the staged, modified and untracked files.",
			Category:    tools.CategoryGit,
			Execute: func(ctx context.Context, args map[string]any) report.Report {
				return s.Status(tools.StringArg(args, "repo_path", ""))
			},
			Schema: tools.Schema{
				Required:   []string{"repo_path"},
				Properties: map[string]tools.Property{"repo_path": repoProp},
			},
		},
		{
			Name:        "git_add",
			Description: "Stage files for commit.",
			Category:    tools.CategoryGit,
			Execute: func(ctx context.Context, args map[string]any) report.Report {
				var files []string
				if raw, ok := args["files"].([]any); ok {
					for _, f := range raw {
						if s, ok := f.(string); ok {
							files = append(files, s)
						}
					}
				}
				return s.Add(tools.StringArg(args, "repo_path", ""), files, tools.BoolArg(args, "all", false))
			},
			Schema: tools.Schema{
				Required: []string{"repo_path"},
				Properties: map[string]tools.Property{
					"repo_path": repoProp,
					"files":     {Type: "array", Description: "files to stage, relative to the repo"},
					"all":       {Type: "boolean", Description: "stage everything", Default: false},
				},
			},
		},
		{
			Name:        "git_commit",
			Description: "Commit the staged changes.",
			Category:    tools.CategoryGit,
			Execute: func(ctx context.Context, args map[string]any) report.Report {
				return s.Commit(
					tools.StringArg(args, "repo_path", ""),
					tools.StringArg(args, "message", ""),
					tools.StringArg(args, "author_name", ""),
					tools.StringArg(args, "author_email", ""))
			},
			Schema: tools.Schema{
				Required: []string{"repo_path", "message"},
				Properties: map[string]tools.Property{
					"repo_path":    repoProp,
					"message":      {Type: "string", Description: "commit message"},
					"author_name":  {Type: "string", Description: "author name; defaults to plumber"},
					"author_email": {Type: "string", Description: "author email; defaults to plumber@localhost"},
				},
			},
		},
		{
			Name:        "git_branches",
			Description: "List local branches, marking the current one.",
			Category:    tools.CategoryGit,
			Execute: func(ctx context.Context, args map[string]any) report.Report {
				return s.Branches(tools.StringArg(args, "repo_path", ""))
			},
			Schema: tools.Schema{
				Required:   []string{"repo_path"},
				Properties: map[string]tools.Property{"repo_path": repoProp},
			},
		},
		{
			Name:        "git_switch",
			Description: "Switch to a branch, optionally creating it. Refuses when the worktree is dirty.",
			Category:    tools.CategoryGit,
			Execute: func(ctx context.Context, args map[string]any) report.Report {
				return s.Switch(
					tools.StringArg(args, "repo_path", ""),
					tools.StringArg(args, "branch", ""),
					tools.BoolArg(args, "create", false))
			},
			Schema: tools.Schema{
				Required: []string{"repo_path", "branch"},
				Properties: map[string]tools.Property{
					"repo_path": repoProp,
					"branch":    {Type: "string", Description: "branch name"},
					"create":    {Type: "boolean", Description: "create the branch when missing", Default: false},
				},
			},
		},
	}
}
