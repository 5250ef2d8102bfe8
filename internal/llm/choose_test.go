package llm

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

type fakeGen struct {
	answer string
	calls  int
}

func (f *fakeGen) GenerateText(ctx context.Context, prompt string) (string, error) {
	f.calls++
	return f.answer, nil
}

func TestChooseFileSingleCandidateSkipsModel(t *testing.T) {
	gen := &fakeGen{answer: "should not be used"}
	got, err := ChooseFile(context.Background(), gen, "pick one", []string{"only.java"})
	if err != nil {
		t.Fatal(err)
	}
	if got != "only.java" {
		t.Errorf("got %q", got)
	}
	if gen.calls != 0 {
		t.Errorf("model called %d times, want 0", gen.calls)
	}
}

func TestChooseFileNoCandidates(t *testing.T) {
	got, err := ChooseFile(context.Background(), &fakeGen{}, "pick one", nil)
	if err != nil {
		t.Fatal(err)
	}
	if got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestChooseFileVerifiesExistence(t *testing.T) {
	dir := t.TempDir()
	real := filepath.Join(dir, "GcsToBigQuery.java")
	other := filepath.Join(dir, "Other.java")
	for _, p := range []string{real, other} {
		if err := os.WriteFile(p, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	got, err := ChooseFile(context.Background(), &fakeGen{answer: real}, "pick one", []string{real, other})
	if err != nil {
		t.Fatal(err)
	}
	if got != real {
		t.Errorf("got %q, want %q", got, real)
	}

	// A path the model invented is rejected.
	got, err = ChooseFile(context.Background(), &fakeGen{answer: filepath.Join(dir, "Invented.java")}, "pick one", []string{real, other})
	if err != nil {
		t.Fatal(err)
	}
	if got != "" {
		t.Errorf("got %q, want empty for nonexistent pick", got)
	}
}

func TestChooseFileNotFoundAnswer(t *testing.T) {
	got, err := ChooseFile(context.Background(), &fakeGen{answer: "not_found"}, "pick one", []string{"a", "b"})
	if err != nil {
		t.Fatal(err)
	}
	if got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```sql\nSELECT 1\n```", "SELECT 1"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := StripFences(tt.in); got != tt.want {
			t.Errorf("StripFences(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsNotFound(t *testing.T) {
	for _, s := range []string{"not_found", "Not Found", "  not_found  ", ""} {
		if !IsNotFound(s) {
			t.Errorf("IsNotFound(%q) = false", s)
		}
	}
	if IsNotFound("path/to/file.java") {
		t.Error("real path flagged as not found")
	}
}
