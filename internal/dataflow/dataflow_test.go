package dataflow

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"plumber/internal/report"
	"plumber/internal/runner"
)

func TestSanitizeJobName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"My ETL Job", "my-etl-job"},
		{"already-valid", "already-valid"},
		{"UPPER_case.name", "upper-case-name"},
		{"--lead-and-trail--", "lead-and-trail"},
		{"a---b", "a-b"},
		{"9starts-with-digit", "job-9starts-with-digit"},
		{strings.Repeat("x", 80), strings.Repeat("x", 63)},
	}
	for _, tt := range tests {
		if got := SanitizeJobName(tt.in); got != tt.want {
			t.Errorf("SanitizeJobName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeJobNameEmpty(t *testing.T) {
	re := regexp.MustCompile(`^job-[0-9a-f]{8}$`)
	for _, in := range []string{"", "!!!", "---"} {
		if got := SanitizeJobName(in); !re.MatchString(got) {
			t.Errorf("SanitizeJobName(%q) = %q, want generated name", in, got)
		}
	}
}

func TestFindJobID(t *testing.T) {
	out := `INFO: ... createTime: '2026-08-01T12:30:05Z'
	id: '2026-08-01_12_30_00-123456789'
	projectId: 'test-project'`
	if got := FindJobID(out); got != "2026-08-01_12_30_00-123456789" {
		t.Errorf("FindJobID = %q", got)
	}
	if got := FindJobID("no id here"); got != "" {
		t.Errorf("FindJobID = %q, want empty", got)
	}
}

func TestStagedTemplatePath(t *testing.T) {
	flex := "INFO Flex Template was staged! gs://bucket/templates/flex/my-template"
	classic := "Template staged successfully. It is available at gs://bucket/templates/my-template"
	if got := StagedTemplatePath(flex); got != "gs://bucket/templates/flex/my-template" {
		t.Errorf("flex path = %q", got)
	}
	if got := StagedTemplatePath(classic); got != "gs://bucket/templates/my-template" {
		t.Errorf("classic path = %q", got)
	}
	if got := StagedTemplatePath("BUILD SUCCESS"); got != "" {
		t.Errorf("path = %q, want empty", got)
	}
}

func TestParamsArg(t *testing.T) {
	got := ParamsArg(map[string]string{"outputTable": "b", "inputTable": "a"})
	if got != "^~^inputTable=a~outputTable=b" {
		t.Errorf("ParamsArg = %q", got)
	}
}

func TestIsFlex(t *testing.T) {
	if !IsFlex("gs://bucket/templates/flex/job", "") {
		t.Error("flex path not detected")
	}
	if !IsFlex("gs://bucket/templates/job", "FLEX") {
		t.Error("FLEX type not detected")
	}
	if IsFlex("gs://bucket/templates/job", "CLASSIC") {
		t.Error("classic misdetected as flex")
	}
}

func TestSubmissionCommand(t *testing.T) {
	sub := Submission{
		JobName:         "etl-job",
		ProjectID:       "test-project",
		Region:          "us-central1",
		TemplatePath:    "gs://bucket/templates/flex/etl",
		Params:          map[string]string{"input": "gs://in"},
		StagingLocation: "gs://bucket/staging",
	}
	cmd := sub.Command()
	if cmd.Binary != "gcloud" || cmd.Args[1] != "flex-template" {
		t.Errorf("flex command = %s %v", cmd.Binary, cmd.Args)
	}

	sub.TemplatePath = "gs://bucket/templates/etl"
	cmd = sub.Command()
	if cmd.Args[1] != "jobs" {
		t.Errorf("classic command = %v", cmd.Args)
	}
	joined := strings.Join(cmd.Args, " ")
	if !strings.Contains(joined, "--staging-location=gs://bucket/staging") {
		t.Errorf("classic command missing staging location: %s", joined)
	}
}

// fakeRunner plays back one canned result per call. Stream feeds the canned
// stdout through the match callback line by line the way Direct does, and
// records whether the watch ended the process early.
type fakeRunner struct {
	commands []runner.Command
	result   runner.Result
	err      error

	streamed     bool
	stoppedEarly bool
}

func (f *fakeRunner) Run(_ context.Context, cmd runner.Command) (runner.Result, error) {
	f.commands = append(f.commands, cmd)
	return f.result, f.err
}

func (f *fakeRunner) Stream(_ context.Context, cmd runner.Command, match func(string) bool) (runner.Result, error) {
	f.commands = append(f.commands, cmd)
	f.streamed = true
	if f.err != nil {
		return runner.Result{ExitCode: -1}, f.err
	}
	var seen []string
	for _, line := range strings.Split(f.result.Combined(), "\n") {
		seen = append(seen, line)
		if match != nil && match(line) {
			f.stoppedEarly = true
			return runner.Result{Stdout: strings.Join(seen, "\n")}, nil
		}
	}
	return f.result, nil
}

func (f *fakeRunner) LookPath(string) bool { return true }

type fakeArchiver struct {
	path string
	err  error

	gotBucket string
	gotJob    string
}

func (f *fakeArchiver) ArchiveScript(_ context.Context, bucketPath, jobName string, code []byte) (string, error) {
	f.gotBucket = bucketPath
	f.gotJob = jobName
	return f.path, f.err
}

const launchOutput = `Submitted job
id: '2026-08-01_12_30_00-123456789'
clientRequestId: 'abc'
createTime: '2026-08-01T12:30:05Z'`

func baseOptions() LaunchOptions {
	return LaunchOptions{
		ProjectID:  "test-project",
		Region:     "us-central1",
		BucketPath: "gs://bucket/staging",
		JobName:    "My Job",
		Code:       []byte("import apache_beam"),
	}
}

func TestLaunchSuccess(t *testing.T) {
	fr := &fakeRunner{result: runner.Result{Stdout: launchOutput}}
	fa := &fakeArchiver{path: "gs://bucket/staging/generated_pipelines/my-job-deadbeef.py"}
	l := NewLauncher(fr, fa, "python3", nil)

	rep := l.Launch(context.Background(), baseOptions())
	if rep.Status != report.StatusSuccess {
		t.Fatalf("status = %s: %s", rep.Status, rep.Message)
	}
	for _, want := range []string{
		"Successfully launched Dataflow job 'my-job'.",
		"id: 2026-08-01_12_30_00-123456789",
		"clientRequestId: abc",
		"The pipeline script was saved to gs://bucket/staging/generated_pipelines/my-job-deadbeef.py",
	} {
		if !strings.Contains(rep.Report, want) {
			t.Errorf("report missing %q:\n%s", want, rep.Report)
		}
	}
	if fa.gotJob != "my-job" {
		t.Errorf("archived job name = %q", fa.gotJob)
	}

	cmd := fr.commands[0]
	if cmd.Binary != "python3" {
		t.Errorf("binary = %q", cmd.Binary)
	}
	joined := strings.Join(cmd.Args, " ")
	for _, want := range []string{
		"--runner DataflowRunner",
		"--job_name my-job",
		"--temp_location gs://bucket/staging/temp",
		"--staging_location gs://bucket/staging/staging",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("command missing %q: %s", want, joined)
		}
	}
}

func TestLaunchStreamingFlag(t *testing.T) {
	fr := &fakeRunner{result: runner.Result{Stdout: launchOutput}}
	l := NewLauncher(fr, nil, "python3", nil)

	opts := baseOptions()
	opts.Streaming = true
	l.Launch(context.Background(), opts)

	joined := strings.Join(fr.commands[0].Args, " ")
	if !strings.Contains(joined, "--streaming true") {
		t.Errorf("command missing streaming flag: %s", joined)
	}
}

// A streaming pipeline process never exits; the launch must watch the
// output and succeed as soon as the job id appears, without waiting for
// anything printed after it.
func TestLaunchStreamingStopsAtJobID(t *testing.T) {
	fr := &fakeRunner{result: runner.Result{
		Stdout: launchOutput + "\nheartbeat: still running",
	}}
	l := NewLauncher(fr, nil, "python3", nil)

	opts := baseOptions()
	opts.Streaming = true
	rep := l.Launch(context.Background(), opts)
	if rep.Status != report.StatusSuccess {
		t.Fatalf("status = %s: %s", rep.Status, rep.Message)
	}
	if !fr.streamed {
		t.Fatal("streaming launch should watch output, not wait for exit")
	}
	if !fr.stoppedEarly {
		t.Error("watch should stop the process once the job id appears")
	}
	if !strings.Contains(rep.Report, "id: 2026-08-01_12_30_00-123456789") {
		t.Errorf("report missing job id:\n%s", rep.Report)
	}
}

func TestLaunchBatchDoesNotStream(t *testing.T) {
	fr := &fakeRunner{result: runner.Result{Stdout: launchOutput}}
	l := NewLauncher(fr, nil, "python3", nil)

	rep := l.Launch(context.Background(), baseOptions())
	if rep.Status != report.StatusSuccess {
		t.Fatalf("status = %s: %s", rep.Status, rep.Message)
	}
	if fr.streamed {
		t.Error("batch launch should wait for the script to exit")
	}
}

func TestLaunchArchiveFailureIsWarning(t *testing.T) {
	fr := &fakeRunner{result: runner.Result{Stdout: launchOutput}}
	fa := &fakeArchiver{err: errors.New("bucket gone")}
	l := NewLauncher(fr, fa, "python3", nil)

	rep := l.Launch(context.Background(), baseOptions())
	if rep.Status != report.StatusWarning {
		t.Fatalf("status = %s", rep.Status)
	}
	if !strings.Contains(rep.Message, "bucket gone") {
		t.Errorf("message = %q", rep.Message)
	}
	if !strings.Contains(rep.Report, "Successfully launched") {
		t.Errorf("report should keep the launch summary:\n%s", rep.Report)
	}
}

func TestLaunchNoJobID(t *testing.T) {
	fr := &fakeRunner{result: runner.Result{Stdout: "pipeline ran locally"}}
	l := NewLauncher(fr, nil, "python3", nil)

	rep := l.Launch(context.Background(), baseOptions())
	if !rep.IsError() {
		t.Fatalf("status = %s", rep.Status)
	}
	if !strings.Contains(rep.Report, "pipeline ran locally") {
		t.Errorf("report should carry the output:\n%s", rep.Report)
	}
}

func TestLaunchValidation(t *testing.T) {
	l := NewLauncher(&fakeRunner{}, nil, "python3", nil)
	ctx := context.Background()

	opts := baseOptions()
	opts.BucketPath = "bucket/no-scheme"
	if rep := l.Launch(ctx, opts); !rep.IsError() {
		t.Error("bad bucket path should error")
	}

	opts = baseOptions()
	opts.ProjectID = ""
	if rep := l.Launch(ctx, opts); !rep.IsError() {
		t.Error("missing project should error")
	}

	opts = baseOptions()
	opts.Code = nil
	if rep := l.Launch(ctx, opts); !rep.IsError() {
		t.Error("empty code should error")
	}
}

func TestSubmitFailurePropagates(t *testing.T) {
	fr := &fakeRunner{result: runner.Result{ExitCode: 1, Stderr: "PERMISSION_DENIED"}}
	s := NewSubmitter(fr, nil)

	rep := s.Submit(context.Background(), Submission{
		JobName:      "etl",
		ProjectID:    "p",
		Region:       "r",
		TemplatePath: "gs://bucket/t",
	})
	if !rep.IsError() {
		t.Fatalf("status = %s", rep.Status)
	}
	if !strings.Contains(rep.Report, "PERMISSION_DENIED") {
		t.Errorf("report = %q", rep.Report)
	}
}

func TestBuildScrapesStagedPath(t *testing.T) {
	fr := &fakeRunner{result: runner.Result{
		Stdout: "BUILD SUCCESS\nFlex Template was staged! gs://bucket/templates/flex/etl",
	}}
	s := NewSubmitter(fr, nil)

	rep := s.Build(context.Background(), BuildOptions{
		ProjectID:    "p",
		BucketName:   "bucket",
		TemplateName: "etl",
		ModulePath:   "v2/etl",
	})
	if rep.IsError() {
		t.Fatalf("status = %s: %s", rep.Status, rep.Message)
	}
	if !strings.Contains(rep.Report, "gs://bucket/templates/flex/etl") {
		t.Errorf("report = %q", rep.Report)
	}

	joined := strings.Join(fr.commands[0].Args, " ")
	for _, want := range []string{"-PtemplatesStage", "-DprojectId=p", "-DtemplateName=etl", "-f v2/etl"} {
		if !strings.Contains(joined, want) {
			t.Errorf("maven command missing %q: %s", want, joined)
		}
	}
}

func TestBuildMissingStagedPath(t *testing.T) {
	fr := &fakeRunner{result: runner.Result{Stdout: "BUILD SUCCESS"}}
	s := NewSubmitter(fr, nil)

	rep := s.Build(context.Background(), BuildOptions{
		ProjectID: "p", BucketName: "b", TemplateName: "t", ModulePath: "m",
	})
	if !rep.IsError() {
		t.Fatalf("status = %s", rep.Status)
	}
}
