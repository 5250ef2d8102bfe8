package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"plumber/internal/dataflow"
	"plumber/internal/gcp/gcs"
	"plumber/internal/gitops"
	"plumber/internal/pipeline"
)

var (
	dfJobName    string
	dfCodeFile   string
	dfBucket     string
	dfRegion     string
	dfStreaming  bool
	dfParams     []string
	dfTemplate   string
	dfType       string
	dfStaging    string
	dfBucketName string
	dfTplName    string
	dfModule     string
	dfSpec       string
)

var dataflowCmd = &cobra.Command{
	Use:   "dataflow",
	Short: "Launch and manage Dataflow jobs",
}

var dataflowLaunchCmd = &cobra.Command{
	Use:   "launch",
	Short: "Run a Beam pipeline script as a Dataflow job",
	Long: `Runs a Python Apache Beam pipeline on Dataflow. The script is
executed through the configured interpreter with the DataflowRunner, the
job id is scraped from its output, and the script is archived to the
staging bucket under generated_pipelines/. A failed archive downgrades
the result to a warning instead of failing the launch.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireProject(); err != nil {
			return err
		}
		code, err := os.ReadFile(dfCodeFile)
		if err != nil {
			return fmt.Errorf("read pipeline script: %w", err)
		}
		params, err := parseKVFlags(dfParams)
		if err != nil {
			return err
		}

		store, err := gcs.NewStore(cmd.Context(), logger)
		if err != nil {
			return err
		}
		defer store.Close()

		l := dataflow.NewLauncher(newRunner(), store, cfg.Lint.Python, logger)
		return emit(l.Launch(cmd.Context(), dataflow.LaunchOptions{
			ProjectID:  cfg.Cloud.ProjectID,
			Region:     launchRegion(),
			BucketPath: bucketPath(),
			JobName:    dfJobName,
			Code:       code,
			Args:       params,
			Streaming:  dfStreaming,
		}))
	},
}

var dataflowSubmitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a staged template (classic or flex) as a job",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireProject(); err != nil {
			return err
		}
		params, err := parseKVFlags(dfParams)
		if err != nil {
			return err
		}
		if dfSpec != "" {
			spec, err := loadParamSpec(dfSpec)
			if err != nil {
				return err
			}
			if err := pipeline.ValidateParams(spec, params); err != nil {
				return err
			}
		}

		s := dataflow.NewSubmitter(newRunner(), logger)
		return emit(s.Submit(cmd.Context(), dataflow.Submission{
			JobName:         dfJobName,
			ProjectID:       cfg.Cloud.ProjectID,
			Region:          launchRegion(),
			TemplatePath:    dfTemplate,
			TemplateType:    dfType,
			StagingLocation: dfStaging,
			Params:          params,
		}))
	},
}

var dataflowBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build and stage a template module with Maven",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireProject(); err != nil {
			return err
		}
		s := dataflow.NewSubmitter(newRunner(), logger)
		return emit(s.Build(cmd.Context(), dataflow.BuildOptions{
			ProjectID:    cfg.Cloud.ProjectID,
			BucketName:   dfBucketName,
			TemplateName: dfTplName,
			ModulePath:   dfModule,
		}))
	},
}

var dataflowSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Clone or update the local DataflowTemplates checkout",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := filepath.Join(filepath.Dir(cfg.Dataproc.RepoDir), "DataflowTemplates")
		if _, err := gitops.CloneOrPull(cmd.Context(), cfg.Dataflow.TemplateGitURL, dir, "main"); err != nil {
			return err
		}
		fmt.Printf("Template repository ready at %s\n", dir)
		return nil
	},
}

func launchRegion() string {
	if dfRegion != "" {
		return dfRegion
	}
	return cfg.Dataflow.Region
}

func bucketPath() string {
	if dfBucket != "" {
		return dfBucket
	}
	return cfg.Dataflow.StagingBucket
}

// loadParamSpec reads a {"required": [...], "optional": [...]} file,
// the same shape the dataproc matcher extracts from template READMEs.
func loadParamSpec(path string) (pipeline.ParamSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return pipeline.ParamSpec{}, fmt.Errorf("read parameter spec: %w", err)
	}
	var spec pipeline.ParamSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return pipeline.ParamSpec{}, fmt.Errorf("parse parameter spec %s: %w", path, err)
	}
	return spec, nil
}

// parseKVFlags turns repeated key=value flags into a map.
func parseKVFlags(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid parameter %q: expected key=value", p)
		}
		out[k] = v
	}
	return out, nil
}

func init() {
	dataflowLaunchCmd.Flags().StringVar(&dfJobName, "job-name", "", "desired job name (sanitized to Dataflow rules)")
	dataflowLaunchCmd.Flags().StringVar(&dfCodeFile, "code", "", "path to the Beam pipeline script")
	dataflowLaunchCmd.Flags().StringVar(&dfBucket, "bucket", "", "gs:// staging path (default: configured staging bucket)")
	dataflowLaunchCmd.Flags().StringVar(&dfRegion, "region", "", "Dataflow region (default: configured region)")
	dataflowLaunchCmd.Flags().BoolVar(&dfStreaming, "streaming", false, "launch as a streaming pipeline")
	dataflowLaunchCmd.Flags().StringArrayVar(&dfParams, "param", nil, "pipeline parameter key=value (repeatable)")
	_ = dataflowLaunchCmd.MarkFlagRequired("job-name")
	_ = dataflowLaunchCmd.MarkFlagRequired("code")

	dataflowSubmitCmd.Flags().StringVar(&dfJobName, "job-name", "", "desired job name (sanitized to Dataflow rules)")
	dataflowSubmitCmd.Flags().StringVar(&dfTemplate, "template", "", "gs:// location of the staged template")
	dataflowSubmitCmd.Flags().StringVar(&dfType, "type", "", "FLEX forces the flex-template command")
	dataflowSubmitCmd.Flags().StringVar(&dfStaging, "staging", "", "gs:// staging path for classic templates")
	dataflowSubmitCmd.Flags().StringVar(&dfRegion, "region", "", "Dataflow region (default: configured region)")
	dataflowSubmitCmd.Flags().StringArrayVar(&dfParams, "param", nil, "template parameter key=value (repeatable)")
	dataflowSubmitCmd.Flags().StringVar(&dfSpec, "spec", "", "JSON file with the template's required/optional parameters")
	_ = dataflowSubmitCmd.MarkFlagRequired("job-name")
	_ = dataflowSubmitCmd.MarkFlagRequired("template")

	dataflowBuildCmd.Flags().StringVar(&dfBucketName, "bucket-name", "", "staging bucket name (without gs://)")
	dataflowBuildCmd.Flags().StringVar(&dfTplName, "template-name", "", "template to stage")
	dataflowBuildCmd.Flags().StringVar(&dfModule, "module", "", "template module inside the checkout")
	_ = dataflowBuildCmd.MarkFlagRequired("bucket-name")
	_ = dataflowBuildCmd.MarkFlagRequired("template-name")
	_ = dataflowBuildCmd.MarkFlagRequired("module")

	dataflowCmd.AddCommand(dataflowLaunchCmd, dataflowSubmitCmd, dataflowBuildCmd, dataflowSyncCmd)
	rootCmd.AddCommand(dataflowCmd)
}
