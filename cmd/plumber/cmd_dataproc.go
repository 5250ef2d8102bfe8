package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"plumber/internal/dataproc"
	"plumber/internal/llm"
)

var (
	dpTask     string
	dpLanguage string
	dpTemplate string
	dpSQL      string
	dpRunID    string
)

var dataprocCmd = &cobra.Command{
	Use:   "dataproc",
	Short: "Work with the dataproc-templates repository",
}

func newGemini(cmd *cobra.Command) (*llm.Client, error) {
	return newGeminiCtx(cmd.Context())
}

func newGeminiCtx(ctx context.Context) (*llm.Client, error) {
	return llm.NewClient(ctx, cfg.LLM.APIKey, cfg.LLM.Model)
}

var dataprocSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Clone or update the local dataproc-templates checkout",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := dataproc.Sync(cmd.Context(), cfg.Dataproc.TemplateGitURL, cfg.Dataproc.RepoDir)
		if err != nil {
			return err
		}
		fmt.Printf("Template repository ready at %s\n", dir)
		return nil
	},
}

var dataprocMatchCmd = &cobra.Command{
	Use:   "match",
	Short: "Find the template best suited to a task",
	Long: `Walks the dataproc-templates checkout for candidate READMEs and
scripts and lets the model pick among them, then reports the chosen
template and the parameters its README declares.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		gen, err := newGemini(cmd)
		if err != nil {
			return err
		}
		if _, err := dataproc.Sync(cmd.Context(), cfg.Dataproc.TemplateGitURL, cfg.Dataproc.RepoDir); err != nil {
			return err
		}

		tpl, err := dataproc.NewMatcher(gen, logger).Match(cmd.Context(), cfg.Dataproc.RepoDir, dpTask, dpLanguage)
		if errors.Is(err, dataproc.ErrNoTemplate) {
			fmt.Println("No matching template found for the task.")
			return nil
		}
		if err != nil {
			return err
		}

		fmt.Printf("Template: %s\n", tpl.Path)
		fmt.Printf("Readme:   %s\n", tpl.Readme)
		fmt.Printf("Required: %s\n", strings.Join(tpl.Params.Required, ", "))
		fmt.Printf("Optional: %s\n", strings.Join(tpl.Params.Optional, ", "))
		return nil
	},
}

var dataprocPrepareCmd = &cobra.Command{
	Use:   "prepare",
	Short: "Stage a run-scoped template copy with a SQL transformation embedded",
	RunE: func(cmd *cobra.Command, args []string) error {
		gen, err := newGemini(cmd)
		if err != nil {
			return err
		}
		runID := dpRunID
		if runID == "" {
			runID = uuid.NewString()
		}

		p := dataproc.NewPreparer(gen, cfg.Dataproc.TempDir, logger)
		repoCopy, tpl, err := p.Prepare(cmd.Context(), runID, cfg.Dataproc.RepoDir, dpTemplate, dpSQL)
		if err != nil {
			return err
		}
		fmt.Printf("Run %s prepared.\nRepo copy: %s\nTemplate:  %s\n", runID, repoCopy, tpl)
		return nil
	},
}

func init() {
	dataprocMatchCmd.Flags().StringVar(&dpTask, "task", "", "what the pipeline should do")
	dataprocMatchCmd.Flags().StringVar(&dpLanguage, "language", dataproc.LangPython, "template language (python or java)")
	_ = dataprocMatchCmd.MarkFlagRequired("task")

	dataprocPrepareCmd.Flags().StringVar(&dpTemplate, "template", "", "template script inside the checkout")
	dataprocPrepareCmd.Flags().StringVar(&dpSQL, "sql", "", "transformation SQL to embed")
	dataprocPrepareCmd.Flags().StringVar(&dpRunID, "run-id", "", "identifier for this run (generated when absent)")
	_ = dataprocPrepareCmd.MarkFlagRequired("template")
	_ = dataprocPrepareCmd.MarkFlagRequired("sql")

	dataprocCmd.AddCommand(dataprocSyncCmd, dataprocMatchCmd, dataprocPrepareCmd)
	rootCmd.AddCommand(dataprocCmd)
}
