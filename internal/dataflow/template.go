package dataflow

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"plumber/internal/report"
	"plumber/internal/runner"
)

// paramsDelimiter separates template parameters on the gcloud command
// line. gcloud's ^DELIM^ prefix lets parameter values contain commas.
const paramsDelimiter = "~"

// ParamsArg renders template parameters as a single gcloud --parameters
// value, e.g. ^~^inputTable=a~outputTable=b.
func ParamsArg(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}
	return "^" + paramsDelimiter + "^" + strings.Join(pairs, paramsDelimiter)
}

// IsFlex reports whether a template is a flex template, from its staged
// path or its declared type.
func IsFlex(templatePath, templateType string) bool {
	return strings.Contains(templatePath, "/flex/") || strings.EqualFold(templateType, "FLEX")
}

// Submission describes one template job submission.
type Submission struct {
	JobName         string
	ProjectID       string
	Region          string
	TemplatePath    string // gs:// location of the staged template
	TemplateType    string // "FLEX" forces the flex-template command
	StagingLocation string // classic templates only
	Params          map[string]string
}

// Command builds the gcloud invocation for the submission.
func (s Submission) Command() runner.Command {
	labels := "source=plumber"
	if IsFlex(s.TemplatePath, s.TemplateType) {
		return runner.Command{
			Binary: "gcloud",
			Args: []string{
				"dataflow", "flex-template", "run", s.JobName,
				"--project=" + s.ProjectID,
				"--region=" + s.Region,
				"--template-file-gcs-location=" + s.TemplatePath,
				"--parameters", ParamsArg(s.Params),
				"--additional-user-labels=" + labels,
			},
		}
	}
	return runner.Command{
		Binary: "gcloud",
		Args: []string{
			"dataflow", "jobs", "run", s.JobName,
			"--project=" + s.ProjectID,
			"--region=" + s.Region,
			"--gcs-location=" + s.TemplatePath,
			"--parameters", ParamsArg(s.Params),
			"--staging-location=" + s.StagingLocation,
			"--additional-user-labels=" + labels,
		},
	}
}

// Submitter runs template jobs and stages template builds.
type Submitter struct {
	Runner runner.Runner
	Log    *zap.Logger
}

// NewSubmitter wires a submitter.
func NewSubmitter(r runner.Runner, log *zap.Logger) *Submitter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Submitter{Runner: r, Log: log}
}

// Submit runs a staged template as a Dataflow job.
func (s *Submitter) Submit(ctx context.Context, sub Submission) report.Report {
	if sub.TemplatePath == "" {
		return report.Errorf("template gcs path is required")
	}
	if sub.JobName == "" || sub.ProjectID == "" || sub.Region == "" {
		return report.Errorf("job name, project and region are required")
	}
	sub.JobName = SanitizeJobName(sub.JobName)

	cmd := sub.Command()
	s.Log.Info("submitting dataflow template job",
		zap.String("job_name", sub.JobName),
		zap.String("template", sub.TemplatePath))

	res, err := s.Runner.Run(ctx, cmd)
	if err != nil {
		return report.Errorf("failed to run gcloud: %v", err)
	}
	if res.ExitCode != 0 {
		return report.Failf(res.Combined(), "gcloud exited %d", res.ExitCode)
	}
	return report.Successf("Job submitted successfully.\n%s", strings.TrimSpace(res.Combined()))
}

// BuildOptions describes one template staging build.
type BuildOptions struct {
	ProjectID    string
	BucketName   string
	TemplateName string
	ModulePath   string // template module inside the checked-out repo
}

// buildCommand assembles the Maven staging invocation.
func buildCommand(opts BuildOptions) runner.Command {
	return runner.Command{
		Binary: "mvn",
		Args: []string{
			"clean", "package", "-PtemplatesStage", "-DskipTests",
			fmt.Sprintf("-DprojectId=%s", opts.ProjectID),
			fmt.Sprintf("-DbucketName=%s", opts.BucketName),
			"-DstagePrefix=templates",
			fmt.Sprintf("-DtemplateName=%s", opts.TemplateName),
			"-Dlabels=plumber",
			"-f", opts.ModulePath,
		},
	}
}

// Build stages a template with Maven and returns the staged GCS path
// scraped from the build output.
func (s *Submitter) Build(ctx context.Context, opts BuildOptions) report.Report {
	if opts.ProjectID == "" || opts.BucketName == "" || opts.TemplateName == "" || opts.ModulePath == "" {
		return report.Errorf("project, bucket, template name and module path are required")
	}

	s.Log.Info("staging dataflow template",
		zap.String("template", opts.TemplateName),
		zap.String("module", opts.ModulePath))

	res, err := s.Runner.Run(ctx, buildCommand(opts))
	if err != nil {
		return report.Errorf("failed to run maven: %v", err)
	}
	output := res.Combined()
	if res.ExitCode != 0 {
		return report.Failf(output, "maven build exited %d", res.ExitCode)
	}

	staged := StagedTemplatePath(output)
	if staged == "" {
		return report.Failf(output, "build succeeded, but the staged template path was not found in the output")
	}
	return report.Successf("Template '%s' was built and staged.\nStaged template: %s", opts.TemplateName, staged)
}
