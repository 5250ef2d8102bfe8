package gitops

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/goleak"

	"plumber/internal/report"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newService() *Service { return NewService(nil) }

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// initRepo creates a repository with one committed file.
func initRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	s := newService()

	if rep := s.Init(dir); rep.IsError() {
		t.Fatalf("init: %s", rep.Message)
	}
	writeFile(t, dir, "pipeline.py", "import apache_beam\n")
	if rep := s.Add(dir, []string{"pipeline.py"}, false); rep.IsError() {
		t.Fatalf("add: %s", rep.Message)
	}
	if rep := s.Commit(dir, "initial", "", ""); rep.IsError() {
		t.Fatalf("commit: %s", rep.Message)
	}
	return dir
}

func TestInitIdempotent(t *testing.T) {
	dir := t.TempDir()
	s := newService()

	rep := s.Init(dir)
	if rep.IsError() {
		t.Fatalf("init: %s", rep.Message)
	}
	rep = s.Init(dir)
	if rep.IsError() {
		t.Fatalf("second init: %s", rep.Message)
	}
	if !strings.Contains(rep.Report, "already exists") {
		t.Errorf("report = %q", rep.Report)
	}
}

func TestInitMissingPath(t *testing.T) {
	rep := newService().Init(filepath.Join(t.TempDir(), "nope"))
	if !rep.IsError() {
		t.Fatal("expected error for missing path")
	}
}

func TestStatusNotARepo(t *testing.T) {
	rep := newService().Status(t.TempDir())
	if !rep.IsError() {
		t.Fatal("expected error for non-repo")
	}
	if !strings.Contains(rep.Message, "not a git repository") {
		t.Errorf("message = %q", rep.Message)
	}
}

func TestStatusListsFiles(t *testing.T) {
	dir := initRepo(t)
	s := newService()

	writeFile(t, dir, "new.py", "x = 1\n")
	writeFile(t, dir, "pipeline.py", "import apache_beam as beam\n")

	rep := s.Status(dir)
	if rep.IsError() {
		t.Fatalf("status: %s", rep.Message)
	}
	for _, want := range []string{"Untracked:", "new.py", "Modified:", "pipeline.py", "Clean: false"} {
		if !strings.Contains(rep.Report, want) {
			t.Errorf("report missing %q:\n%s", want, rep.Report)
		}
	}
}

func TestAddMissingFile(t *testing.T) {
	dir := initRepo(t)
	rep := newService().Add(dir, []string{"ghost.py"}, false)
	if !rep.IsError() {
		t.Fatal("expected error for missing file")
	}
}

func TestAddRequiresSelection(t *testing.T) {
	dir := initRepo(t)
	rep := newService().Add(dir, nil, false)
	if !rep.IsError() {
		t.Fatal("expected error when nothing selected")
	}
}

func TestCommitNothingStaged(t *testing.T) {
	dir := initRepo(t)
	rep := newService().Commit(dir, "empty", "", "")
	if !rep.IsError() {
		t.Fatal("expected error with nothing staged")
	}
	if !strings.Contains(rep.Message, "no staged changes") {
		t.Errorf("message = %q", rep.Message)
	}
}

func TestCommitRequiresMessage(t *testing.T) {
	dir := initRepo(t)
	rep := newService().Commit(dir, "", "", "")
	if !rep.IsError() {
		t.Fatal("expected error for empty message")
	}
}

func TestAddAllAndCommit(t *testing.T) {
	dir := initRepo(t)
	s := newService()

	writeFile(t, dir, "a.py", "a\n")
	writeFile(t, dir, "b.py", "b\n")

	if rep := s.Add(dir, nil, true); rep.IsError() {
		t.Fatalf("add all: %s", rep.Message)
	}
	rep := s.Commit(dir, "add generated files", "tester", "tester@example.com")
	if rep.Status != report.StatusSuccess {
		t.Fatalf("commit: %s", rep.Message)
	}
	if !strings.Contains(rep.Report, "add generated files") {
		t.Errorf("report = %q", rep.Report)
	}
}

func TestSwitchRefusesDirtyTree(t *testing.T) {
	dir := initRepo(t)
	s := newService()

	writeFile(t, dir, "pipeline.py", "changed\n")
	rep := s.Switch(dir, "feature", true)
	if !rep.IsError() {
		t.Fatal("expected refusal on dirty tree")
	}
	if !strings.Contains(rep.Message, "uncommitted changes") {
		t.Errorf("message = %q", rep.Message)
	}
}

func TestSwitchCreateAndBack(t *testing.T) {
	dir := initRepo(t)
	s := newService()

	rep := s.Switch(dir, "feature", false)
	if !rep.IsError() {
		t.Fatal("missing branch without create should error")
	}

	rep = s.Switch(dir, "feature", true)
	if rep.IsError() {
		t.Fatalf("create switch: %s", rep.Message)
	}
	if !strings.Contains(rep.Report, "Created and switched") {
		t.Errorf("report = %q", rep.Report)
	}

	branches := s.Branches(dir)
	if !strings.Contains(branches.Report, "* feature") {
		t.Errorf("branches = %q", branches.Report)
	}

	rep = s.Switch(dir, "master", false)
	if rep.IsError() {
		// go-git initializes the default branch as master.
		t.Fatalf("switch back: %s", rep.Message)
	}
}
