package main

import (
	"github.com/spf13/cobra"

	"plumber/internal/lint"
)

var (
	lintAgent     string
	lintPath      string
	lintFix       bool
	lintNotebooks bool
)

var lintCmd = &cobra.Command{
	Use:   "lint [checks...]",
	Short: "Run isort, black and flake8 over Python sources or notebooks",
	Long: `Runs the named checks (isort, black, flake8) against a directory,
in that fixed order. With no checks named, everything runs. The target is
either an agent directory under the configured agents root (--agent) or an
explicit path (--path); exactly one must be given.

By default the tools only check; --fix lets the formatters rewrite files.
flake8 never rewrites. --notebooks routes the checks through nbqa so
.ipynb files are covered. Missing tools are installed with pip first.`,
	Example: `  plumber lint --agent monitoring_agent
  plumber lint black isort --path ./pipelines --fix
  plumber lint --path ./notebooks --notebooks`,
	RunE: func(cmd *cobra.Command, args []string) error {
		action := lint.ActionCheck
		if lintFix {
			action = lint.ActionFix
		}

		dir, err := lint.ResolveTarget(cfg.Lint.AgentsRoot, lintAgent, lintPath)
		if err != nil {
			return err
		}

		d := lint.NewDispatcher(newRunner(), cfg.Lint.Python, cfg.Lint.MaxLineLength, logger)
		return emit(d.Run(cmd.Context(), lint.Options{
			Action:    action,
			Dir:       dir,
			Checks:    args,
			Notebooks: lintNotebooks,
		}))
	},
}

func init() {
	lintCmd.Flags().StringVar(&lintAgent, "agent", "", "agent directory under the agents root")
	lintCmd.Flags().StringVar(&lintPath, "path", "", "explicit target directory")
	lintCmd.Flags().BoolVar(&lintFix, "fix", false, "let the formatters rewrite files")
	lintCmd.Flags().BoolVar(&lintNotebooks, "notebooks", false, "lint .ipynb files through nbqa")
	lintCmd.MarkFlagsMutuallyExclusive("agent", "path")

	rootCmd.AddCommand(lintCmd)
}
