package main

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"plumber/internal/dataflow"
	"plumber/internal/dataproc"
	"plumber/internal/dbt"
	"plumber/internal/gcp/gcs"
	"plumber/internal/gcp/logs"
	"plumber/internal/gcp/metrics"
	"plumber/internal/gitops"
	"plumber/internal/lint"
	"plumber/internal/tools"
)

var (
	toolsCategory string
	toolArgs      []string
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List and run the registered tools",
	Long: `Every plumber operation is also exposed as a named tool with a
JSON-style argument schema, so an agent (or a script) can drive plumber
through a single dispatch surface instead of per-command flags. Tools
that need Cloud credentials are registered only when their client can
be constructed.`,
}

var toolsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered tools, optionally by category",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, closeAll := buildRegistry(cmd.Context())
		defer closeAll()

		names := reg.Names()
		if toolsCategory != "" {
			names = nil
			for _, t := range reg.GetByCategory(tools.Category(toolsCategory)) {
				names = append(names, t.Name)
			}
			sort.Strings(names)
		}
		if len(names) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no tools registered")
			return nil
		}
		for _, name := range names {
			t := reg.Get(name)
			fmt.Fprintf(cmd.OutOrStdout(), "%-28s %-12s %s\n", t.Name, t.Category, t.Description)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\n%d tools\n", len(names))
		return nil
	},
}

var toolsRunCmd = &cobra.Command{
	Use:   "run <tool> [--arg key=value ...]",
	Short: "Execute one tool by name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, closeAll := buildRegistry(cmd.Context())
		defer closeAll()

		toolArgMap, err := parseToolArgs(toolArgs)
		if err != nil {
			return err
		}
		res, err := reg.Execute(cmd.Context(), args[0], toolArgMap)
		if err != nil {
			return err
		}
		logger.Debug("tool finished",
			zap.String("tool", res.ToolName),
			zap.Int64("duration_ms", res.DurationMs))
		return emit(res.Report)
	},
}

// buildRegistry assembles every tool the current environment can
// support. Local tools always register; Cloud-backed tools register
// only when their client constructs, so list and run keep working
// without credentials.
func buildRegistry(ctx context.Context) (*tools.Registry, func()) {
	reg := tools.NewRegistry()
	var closers []func()

	r := newRunner()

	d := lint.NewDispatcher(r, cfg.Lint.Python, cfg.Lint.MaxLineLength, logger)
	registerAll(reg, lint.Tools(d, cfg.Lint.AgentsRoot))

	registerAll(reg, gitops.NewService(logger).Tools())
	registerAll(reg, dbt.NewRunner(r, logger).Tools())

	var archiver dataflow.Archiver
	if store, err := gcs.NewStore(ctx, logger); err == nil {
		archiver = store
		registerAll(reg, store.Tools())
		closers = append(closers, func() { _ = store.Close() })
	} else {
		logger.Debug("storage client unavailable, launches will warn on archive", zap.Error(err))
		archiver = unavailableArchiver{err: err}
	}
	launcher := dataflow.NewLauncher(r, archiver, cfg.Lint.Python, logger)
	submitter := dataflow.NewSubmitter(r, logger)
	registerAll(reg, dataflow.Tools(launcher, submitter, cfg.Cloud.ProjectID, launchRegion()))

	if gen, err := newGeminiCtx(ctx); err == nil {
		m := dataproc.NewMatcher(gen, logger)
		p := dataproc.NewPreparer(gen, cfg.Dataproc.TempDir, logger)
		registerAll(reg, dataproc.Tools(m, p, cfg.Dataproc.TemplateGitURL, cfg.Dataproc.RepoDir))
	} else {
		logger.Debug("gemini client unavailable, dataproc tools skipped", zap.Error(err))
	}

	if cfg.Cloud.ProjectID != "" {
		if lc, err := logs.NewClient(ctx, cfg.Cloud.ProjectID, logger); err == nil {
			registerAll(reg, lc.Tools())
			closers = append(closers, func() { _ = lc.Close() })
		} else {
			logger.Debug("logging client unavailable", zap.Error(err))
		}
		if mc, err := metrics.NewClient(ctx, cfg.Cloud.ProjectID, logger); err == nil {
			registerAll(reg, mc.Tools())
			closers = append(closers, func() { _ = mc.Close() })
		} else {
			logger.Debug("monitoring client unavailable", zap.Error(err))
		}
	}

	return reg, func() {
		for _, c := range closers {
			c()
		}
	}
}

func registerAll(reg *tools.Registry, ts []tools.Tool) {
	for i := range ts {
		reg.MustRegister(&ts[i])
	}
}

// unavailableArchiver stands in when the storage client cannot be
// built. Launch treats archive failures as warnings, so the pipeline
// still runs.
type unavailableArchiver struct{ err error }

func (a unavailableArchiver) ArchiveScript(context.Context, string, string, []byte) (string, error) {
	return "", a.err
}

// parseToolArgs turns key=value pairs into the map a tool expects,
// coercing bools and integers so flags like limit=5 arrive typed.
func parseToolArgs(pairs []string) (map[string]any, error) {
	args := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid argument %q, expected key=value", pair)
		}
		switch {
		case value == "true" || value == "false":
			args[key] = value == "true"
		default:
			if n, err := strconv.Atoi(value); err == nil {
				args[key] = n
			} else {
				args[key] = value
			}
		}
	}
	return args, nil
}

func init() {
	toolsListCmd.Flags().StringVar(&toolsCategory, "category", "", "filter by category, e.g. /monitoring")
	toolsRunCmd.Flags().StringArrayVar(&toolArgs, "arg", nil, "tool argument as key=value (repeatable)")
	toolsCmd.AddCommand(toolsListCmd, toolsRunCmd)
	rootCmd.AddCommand(toolsCmd)
}
