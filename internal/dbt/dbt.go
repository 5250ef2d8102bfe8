// Package dbt runs dbt projects: a configuration check with dbt debug,
// then the models with dbt run.
package dbt

import (
	"context"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"plumber/internal/report"
	"plumber/internal/runner"
)

// Runner executes dbt against a project directory.
type Runner struct {
	Runner runner.Runner
	Log    *zap.Logger
}

// NewRunner wires a dbt runner.
func NewRunner(r runner.Runner, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{Runner: r, Log: log}
}

func dbtCommand(verb, projectDir string) runner.Command {
	return runner.Command{
		Binary: "dbt",
		Args: []string{
			verb,
			"--project-dir", projectDir,
			"--profiles-dir", projectDir,
		},
	}
}

// Run checks the project with dbt debug, then executes the models. The
// project directory must hold dbt_project.yml and the profiles.
func (r *Runner) Run(ctx context.Context, projectDir string) report.Report {
	if projectDir == "" {
		return report.Errorf("dbt project path is required")
	}
	if _, err := os.Stat(filepath.Join(projectDir, "dbt_project.yml")); err != nil {
		return report.Errorf("no dbt_project.yml in %s", projectDir)
	}

	r.Log.Info("running dbt project", zap.String("project", projectDir))

	debug, err := r.Runner.Run(ctx, dbtCommand("debug", projectDir))
	if err != nil {
		return report.Errorf("failed to run dbt debug: %v", err)
	}
	if debug.ExitCode != 0 {
		return report.Failf(debug.Combined(), "dbt debug exited %d", debug.ExitCode)
	}

	run, err := r.Runner.Run(ctx, dbtCommand("run", projectDir))
	if err != nil {
		return report.Errorf("failed to run dbt run: %v", err)
	}
	if run.ExitCode != 0 {
		return report.Failf(run.Combined(), "dbt run exited %d", run.ExitCode)
	}
	return report.Successf("dbt run completed.\n%s", run.Stdout)
}
