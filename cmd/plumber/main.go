// plumber is a data engineering operations CLI for Google Cloud: it lints
// pipeline code, retrieves logs and metrics, launches Dataflow jobs,
// prepares Dataproc template runs, runs dbt projects and manages the git
// repositories the generated code lives in.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"plumber/internal/config"
	"plumber/internal/report"
	"plumber/internal/runner"
)

const version = "0.3.0"

var (
	// Global flags
	verbose    bool
	projectID  string
	configPath string
	timeout    time.Duration

	logger *zap.Logger
	cfg    *config.Config
)

// errReported marks a failure whose report is already on stdout.
var errReported = errors.New("command failed")

var rootCmd = &cobra.Command{
	Use:   "plumber",
	Short: "plumber - data engineering assistant for Google Cloud",
	Long: `plumber automates the day-to-day of a data engineering team on
Google Cloud: linting pipeline code, retrieving logs and metrics,
launching Dataflow jobs, preparing Dataproc template runs, running dbt
projects, and managing the git repositories the generated code lives in.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if projectID != "" {
			cfg.Cloud.ProjectID = projectID
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the plumber version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("plumber %s\n", version)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		project := cfg.Cloud.ProjectID
		if project == "" {
			project = "(unset)"
		}
		fmt.Printf("Project:          %s\n", project)
		fmt.Printf("Location:         %s\n", cfg.Cloud.Location)
		fmt.Printf("Dataflow region:  %s\n", cfg.Dataflow.Region)
		fmt.Printf("Staging bucket:   %s\n", orUnset(cfg.Dataflow.StagingBucket))
		fmt.Printf("Agents root:      %s\n", cfg.Lint.AgentsRoot)
		fmt.Printf("Model:            %s\n", cfg.LLM.Model)
		fmt.Printf("Gemini key:       %s\n", presence(cfg.LLM.APIKey))
		return nil
	},
}

func orUnset(s string) string {
	if s == "" {
		return "(unset)"
	}
	return s
}

func presence(s string) string {
	if s == "" {
		return "missing"
	}
	return "configured"
}

// requireProject fails early for commands that query Google Cloud.
func requireProject() error {
	if cfg.Cloud.ProjectID == "" {
		return fmt.Errorf("no project configured: pass --project or set GOOGLE_CLOUD_PROJECT")
	}
	return nil
}

// newRunner builds the command runner, honoring --timeout when set.
func newRunner() *runner.Direct {
	t := cfg.GetExecutionTimeout()
	if timeout > 0 {
		t = timeout
	}
	return &runner.Direct{Timeout: t}
}

// emit prints a report and converts a failure into the silent exit error.
func emit(rep report.Report) error {
	fmt.Println(rep.String())
	if rep.IsError() {
		return errReported
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&projectID, "project", "", "Google Cloud project id (overrides config)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", ".plumber/config.yaml", "path to the config file")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "external command timeout (overrides config)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}
