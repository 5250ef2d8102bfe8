package lint

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"plumber/internal/report"
	"plumber/internal/runner"
)

// fakeRunner records commands and plays back canned results keyed by
// binary name.
type fakeRunner struct {
	commands []runner.Command
	results  map[string]runner.Result
	missing  map[string]bool
}

func (f *fakeRunner) Run(_ context.Context, cmd runner.Command) (runner.Result, error) {
	f.commands = append(f.commands, cmd)
	if cmd.Binary == "python3" {
		// pip install succeeds and makes the package available.
		pkg := cmd.Args[len(cmd.Args)-1]
		delete(f.missing, pkg)
		return runner.Result{}, nil
	}
	if res, ok := f.results[cmd.Binary]; ok {
		return res, nil
	}
	return runner.Result{}, nil
}

func (f *fakeRunner) Stream(ctx context.Context, cmd runner.Command, _ func(string) bool) (runner.Result, error) {
	return f.Run(ctx, cmd)
}

func (f *fakeRunner) LookPath(binary string) bool {
	return !f.missing[binary]
}

func newDispatcher(f *fakeRunner) *Dispatcher {
	return NewDispatcher(f, "python3", 88, nil)
}

func TestSelectChecks(t *testing.T) {
	tests := []struct {
		name      string
		requested []string
		want      []string
		wantErr   bool
	}{
		{name: "empty selects all in order", want: []string{"isort", "black", "flake8"}},
		{name: "subset keeps fixed order", requested: []string{"flake8", "isort"}, want: []string{"isort", "flake8"}},
		{name: "single", requested: []string{"black"}, want: []string{"black"}},
		{name: "case insensitive", requested: []string{"Black"}, want: []string{"black"}},
		{name: "unknown check", requested: []string{"pylint"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SelectChecks(tt.requested)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if !strings.Contains(err.Error(), "valid checks") {
					t.Errorf("error should name the valid vocabulary: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolveTarget(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "monitoring_agent"), 0o755); err != nil {
		t.Fatal(err)
	}

	if _, err := ResolveTarget(root, "monitoring_agent", "x"); err == nil {
		t.Error("expected error when both selectors given")
	}
	if _, err := ResolveTarget(root, "", ""); err == nil {
		t.Error("expected error when neither selector given")
	}
	if _, err := ResolveTarget(root, "no_such_agent", ""); err == nil {
		t.Error("expected error for missing directory")
	}

	dir, err := ResolveTarget(root, "monitoring_agent", "")
	if err != nil {
		t.Fatal(err)
	}
	if dir != filepath.Join(root, "monitoring_agent") {
		t.Errorf("resolved %q", dir)
	}

	dir, err = ResolveTarget(root, "", root)
	if err != nil {
		t.Fatal(err)
	}
	if dir != root {
		t.Errorf("resolved %q", dir)
	}
}

func TestCommand(t *testing.T) {
	tests := []struct {
		action    Action
		check     string
		notebooks bool
		binary    string
		args      []string
	}{
		{ActionCheck, "isort", false, "isort", []string{"--profile", "black", "--check-only", "--diff", "src"}},
		{ActionFix, "isort", false, "isort", []string{"--profile", "black", "src"}},
		{ActionCheck, "black", false, "black", []string{"--check", "--diff", "src"}},
		{ActionFix, "black", false, "black", []string{"src"}},
		{ActionCheck, "flake8", false, "flake8", []string{"--max-line-length", "88", "src"}},
		{ActionFix, "flake8", false, "flake8", []string{"--max-line-length", "88", "src"}},
		{ActionCheck, "black", true, "nbqa", []string{"black", "--check", "--diff", "src"}},
	}
	for _, tt := range tests {
		cmd, err := Command(tt.action, tt.check, "src", tt.notebooks, 88)
		if err != nil {
			t.Fatal(err)
		}
		if cmd.Binary != tt.binary || !reflect.DeepEqual(cmd.Args, tt.args) {
			t.Errorf("%s/%s notebooks=%v: got %s %v", tt.action, tt.check, tt.notebooks, cmd.Binary, cmd.Args)
		}
	}
}

func TestDispatcherAllPass(t *testing.T) {
	f := &fakeRunner{results: map[string]runner.Result{}}
	rep := newDispatcher(f).Run(context.Background(), Options{Action: ActionCheck, Dir: "src"})

	if rep.Status != report.StatusSuccess {
		t.Fatalf("status = %s: %s", rep.Status, rep.Message)
	}
	if len(f.commands) != 3 {
		t.Fatalf("ran %d commands, want 3", len(f.commands))
	}
	order := []string{"isort", "black", "flake8"}
	for i, want := range order {
		if f.commands[i].Binary != want {
			t.Errorf("command %d = %s, want %s", i, f.commands[i].Binary, want)
		}
	}
}

func TestDispatcherPropagatesFailure(t *testing.T) {
	f := &fakeRunner{results: map[string]runner.Result{
		"black": {ExitCode: 1, Stdout: "would reformat src/utils.py"},
	}}
	rep := newDispatcher(f).Run(context.Background(), Options{Action: ActionCheck, Dir: "src"})

	if !rep.IsError() {
		t.Fatalf("status = %s", rep.Status)
	}
	if !strings.Contains(rep.Message, "1 of 3 checks failed") {
		t.Errorf("message = %q", rep.Message)
	}
	if !strings.Contains(rep.Report, "would reformat src/utils.py") {
		t.Errorf("report should carry the tool output:\n%s", rep.Report)
	}
	// A failing check does not stop the rest.
	if len(f.commands) != 3 {
		t.Errorf("ran %d commands, want 3", len(f.commands))
	}
}

func TestDispatcherInstallsMissingTool(t *testing.T) {
	f := &fakeRunner{missing: map[string]bool{"flake8": true}}
	rep := newDispatcher(f).Run(context.Background(), Options{Action: ActionCheck, Dir: "src", Checks: []string{"flake8"}})

	if rep.IsError() {
		t.Fatalf("status = %s: %s", rep.Status, rep.Message)
	}
	if len(f.commands) != 2 {
		t.Fatalf("ran %d commands, want pip install then flake8", len(f.commands))
	}
	pip := f.commands[0]
	if pip.Binary != "python3" || !reflect.DeepEqual(pip.Args, []string{"-m", "pip", "install", "flake8"}) {
		t.Errorf("first command = %s %v", pip.Binary, pip.Args)
	}
	if f.commands[1].Binary != "flake8" {
		t.Errorf("second command = %s", f.commands[1].Binary)
	}
}

func TestDispatcherNotebooksNeedNbqa(t *testing.T) {
	f := &fakeRunner{missing: map[string]bool{"nbqa": true}}
	rep := newDispatcher(f).Run(context.Background(), Options{Action: ActionCheck, Dir: "src", Checks: []string{"black"}, Notebooks: true})

	if rep.IsError() {
		t.Fatalf("status = %s: %s", rep.Status, rep.Message)
	}
	if f.commands[0].Binary != "python3" || f.commands[0].Args[3] != "nbqa" {
		t.Errorf("expected nbqa install first, got %s %v", f.commands[0].Binary, f.commands[0].Args)
	}
	last := f.commands[len(f.commands)-1]
	if last.Binary != "nbqa" || last.Args[0] != "black" {
		t.Errorf("expected nbqa black, got %s %v", last.Binary, last.Args)
	}
}

func TestDispatcherUnknownCheck(t *testing.T) {
	f := &fakeRunner{}
	rep := newDispatcher(f).Run(context.Background(), Options{Action: ActionCheck, Dir: "src", Checks: []string{"mypy"}})
	if !rep.IsError() {
		t.Fatal("expected error report")
	}
	if len(f.commands) != 0 {
		t.Errorf("no commands should run, got %d", len(f.commands))
	}
}
