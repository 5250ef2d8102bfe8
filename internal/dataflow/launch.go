package dataflow

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"plumber/internal/report"
	"plumber/internal/runner"
)

// Archiver stores a launched pipeline's script for later reference. It is
// satisfied by the GCS store.
type Archiver interface {
	ArchiveScript(ctx context.Context, bucketPath, jobName string, code []byte) (string, error)
}

// Launcher runs generated Beam pipelines on Dataflow.
type Launcher struct {
	Runner   runner.Runner
	Archiver Archiver
	Python   string
	Log      *zap.Logger
}

// NewLauncher wires a launcher.
func NewLauncher(r runner.Runner, a Archiver, python string, log *zap.Logger) *Launcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Launcher{Runner: r, Archiver: a, Python: python, Log: log}
}

// LaunchOptions describes one pipeline launch.
type LaunchOptions struct {
	ProjectID  string
	Region     string
	BucketPath string // gs:// staging path
	JobName    string
	Code       []byte // Beam pipeline source
	Args       map[string]string
	Streaming  bool
}

// pipelineArgs assembles the full --key value argument list, user args
// layered over the runner defaults, sorted for a stable command line.
func pipelineArgs(opts LaunchOptions, jobName string) []string {
	labels, _ := json.Marshal(map[string]string{"source": "plumber"})
	full := map[string]string{
		"runner":           "DataflowRunner",
		"project":          opts.ProjectID,
		"region":           opts.Region,
		"job_name":         jobName,
		"temp_location":    strings.TrimSuffix(opts.BucketPath, "/") + "/temp",
		"staging_location": strings.TrimSuffix(opts.BucketPath, "/") + "/staging",
		"labels":           string(labels),
	}
	for k, v := range opts.Args {
		full[k] = v
	}
	if opts.Streaming {
		full["streaming"] = "true"
	}

	keys := make([]string, 0, len(full))
	for k := range full {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		args = append(args, "--"+k, full[k])
	}
	return args
}

// Launch writes the pipeline code to a temporary file, runs it against
// Dataflow, scrapes the job id from the output, and archives the script.
// A failed archive downgrades the result to a warning rather than failing
// the launch.
func (l *Launcher) Launch(ctx context.Context, opts LaunchOptions) report.Report {
	if opts.ProjectID == "" || opts.Region == "" || opts.BucketPath == "" {
		return report.Errorf("project, region and bucket path are required")
	}
	if !strings.HasPrefix(opts.BucketPath, "gs://") {
		return report.Errorf("bucket path must start with %q: %s", "gs://", opts.BucketPath)
	}
	if len(opts.Code) == 0 {
		return report.Errorf("pipeline code is empty")
	}

	jobName := SanitizeJobName(opts.JobName)

	script := filepath.Join(os.TempDir(), fmt.Sprintf("temp_pipeline_%s.py", uuid.NewString()))
	if err := os.WriteFile(script, opts.Code, 0o600); err != nil {
		return report.Errorf("write pipeline script: %v", err)
	}
	defer os.Remove(script)

	cmd := runner.Command{
		Binary: l.Python,
		Args:   append([]string{script}, pipelineArgs(opts, jobName)...),
	}
	l.Log.Info("launching dataflow job",
		zap.String("job_name", jobName),
		zap.Bool("streaming", opts.Streaming))

	// A streaming pipeline process never exits on its own: watch its output
	// and stop it as soon as the job id appears. Batch launches return when
	// the script does.
	var res runner.Result
	var err error
	if opts.Streaming {
		res, err = l.Runner.Stream(ctx, cmd, func(line string) bool {
			return FindJobID(line) != ""
		})
	} else {
		res, err = l.Runner.Run(ctx, cmd)
	}
	if err != nil {
		return report.Errorf("failed to execute pipeline script: %v", err)
	}
	output := res.Combined()
	if res.ExitCode != 0 {
		return report.Failf(output, "pipeline script exited %d", res.ExitCode)
	}

	jobID := FindJobID(output)
	if jobID == "" {
		return report.Failf(output, "job launched, but could not find a job id in the output")
	}

	details := jobDetails(output)
	details["name"] = jobName
	details["id"] = jobID

	lines := []string{fmt.Sprintf("Successfully launched Dataflow job '%s'.", jobName), "Job Details:"}
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("  %s: %s", k, details[k]))
	}

	if l.Archiver != nil {
		gcsPath, archiveErr := l.Archiver.ArchiveScript(ctx, opts.BucketPath, jobName, opts.Code)
		if archiveErr != nil {
			body := strings.Join(lines, "\n")
			return report.Warningf(body, "failed to save the script to GCS: %v", archiveErr)
		}
		lines = append(lines, fmt.Sprintf("The pipeline script was saved to %s", gcsPath))
	}

	return report.Success(strings.Join(lines, "\n"))
}
