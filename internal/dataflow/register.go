package dataflow

import (
	"context"
	"fmt"

	"plumber/internal/report"
	"plumber/internal/tools"
)

// Tools exposes the launcher and submitter to the tool registry.
func Tools(l *Launcher, s *Submitter, defaultProject, defaultRegion string) []tools.Tool {
	return []tools.Tool{
		{
			Name:        "launch_beam_pipeline",
			Description: "Run a generated Apache Beam pipeline as a Dataflow job and archive the script to GCS.",
			Category:    tools.CategoryPipeline,
			Execute: func(ctx context.Context, args map[string]any) report.Report {
				pipelineType := tools.StringArg(args, "pipeline_type", "batch")
				if pipelineType != "batch" && pipelineType != "streaming" {
					return report.Errorf("invalid pipeline type %q: choose batch or streaming", pipelineType)
				}
				pipelineArgs, err := stringMap(args["pipeline_args"])
				if err != nil {
					return report.Errorf("pipeline_args: %v", err)
				}
				return l.Launch(ctx, LaunchOptions{
					ProjectID:  tools.StringArg(args, "project_id", defaultProject),
					Region:     tools.StringArg(args, "region", defaultRegion),
					BucketPath: tools.StringArg(args, "gcs_bucket_path", ""),
					JobName:    tools.StringArg(args, "job_name", ""),
					Code:       []byte(tools.StringArg(args, "pipeline_code", "")),
					Args:       pipelineArgs,
					Streaming:  pipelineType == "streaming",
				})
			},
			Schema: tools.Schema{
				Required: []string{"gcs_bucket_path", "job_name", "pipeline_code"},
				Properties: map[string]tools.Property{
					"project_id":      {Type: "string", Description: "Google Cloud project; defaults to the configured project"},
					"region":          {Type: "string", Description: "Dataflow region; defaults to the configured region"},
					"gcs_bucket_path": {Type: "string", Description: "gs:// staging path"},
					"job_name":        {Type: "string", Description: "desired job name; sanitized to Dataflow rules"},
					"pipeline_code":   {Type: "string", Description: "Python Beam pipeline source"},
					"pipeline_type":   {Type: "string", Description: "batch or streaming", Default: "batch", Enum: []any{"batch", "streaming"}},
					"pipeline_args":   {Type: "object", Description: "extra pipeline parameters"},
				},
			},
		},
		{
			Name:        "submit_dataflow_template",
			Description: "Submit a staged Dataflow template (classic or flex) as a job via gcloud.",
			Category:    tools.CategoryPipeline,
			Execute: func(ctx context.Context, args map[string]any) report.Report {
				params, err := stringMap(args["parameters"])
				if err != nil {
					return report.Errorf("parameters: %v", err)
				}
				return s.Submit(ctx, Submission{
					JobName:         tools.StringArg(args, "job_name", ""),
					ProjectID:       tools.StringArg(args, "project_id", defaultProject),
					Region:          tools.StringArg(args, "region", defaultRegion),
					TemplatePath:    tools.StringArg(args, "template_gcs_path", ""),
					TemplateType:    tools.StringArg(args, "template_type", ""),
					StagingLocation: tools.StringArg(args, "staging_location", ""),
					Params:          params,
				})
			},
			Schema: tools.Schema{
				Required: []string{"job_name", "template_gcs_path"},
				Properties: map[string]tools.Property{
					"job_name":          {Type: "string", Description: "desired job name; sanitized to Dataflow rules"},
					"project_id":        {Type: "string", Description: "Google Cloud project; defaults to the configured project"},
					"region":            {Type: "string", Description: "Dataflow region; defaults to the configured region"},
					"template_gcs_path": {Type: "string", Description: "gs:// location of the staged template"},
					"template_type":     {Type: "string", Description: "FLEX submits via flex-template run"},
					"staging_location":  {Type: "string", Description: "gs:// staging path for classic templates"},
					"parameters":        {Type: "object", Description: "template parameters"},
				},
			},
		},
		{
			Name:        "build_dataflow_template",
			Description: "Build and stage a Dataflow template module with Maven, returning the staged GCS path.",
			Category:    tools.CategoryPipeline,
			Execute: func(ctx context.Context, args map[string]any) report.Report {
				return s.Build(ctx, BuildOptions{
					ProjectID:    tools.StringArg(args, "project_id", defaultProject),
					BucketName:   tools.StringArg(args, "bucket_name", ""),
					TemplateName: tools.StringArg(args, "template_name", ""),
					ModulePath:   tools.StringArg(args, "module_path", ""),
				})
			},
			Schema: tools.Schema{
				Required: []string{"bucket_name", "template_name", "module_path"},
				Properties: map[string]tools.Property{
					"project_id":    {Type: "string", Description: "Google Cloud project; defaults to the configured project"},
					"bucket_name":   {Type: "string", Description: "staging bucket name (without gs://)"},
					"template_name": {Type: "string", Description: "template to stage"},
					"module_path":   {Type: "string", Description: "path to the template module in the checked-out repo"},
				},
			},
		},
	}
}

// stringMap converts a tool argument into string key/value pairs.
func stringMap(v any) (map[string]string, error) {
	switch m := v.(type) {
	case nil:
		return nil, nil
	case map[string]string:
		return m, nil
	case map[string]any:
		out := make(map[string]string, len(m))
		for k, val := range m {
			out[k] = fmt.Sprintf("%v", val)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected an object of string values, got %T", v)
	}
}
