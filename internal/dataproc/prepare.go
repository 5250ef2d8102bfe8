package dataproc

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"plumber/internal/llm"
)

const embedTransformationInstruction = `Below is a Dataproc template script and a SQL transformation.
Rewrite the script so the transformation runs on the data between read and write,
keeping everything else intact. Answer with the complete rewritten script only.

Script:
%s

Transformation SQL:
%s`

// Preparer stages modified template copies for a run.
type Preparer struct {
	Gen     llm.TextGenerator
	TempDir string
	Log     *zap.Logger
}

// NewPreparer wires a preparer. tempDir is where per-run copies live.
func NewPreparer(gen llm.TextGenerator, tempDir string, log *zap.Logger) *Preparer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Preparer{Gen: gen, TempDir: tempDir, Log: log}
}

// Prepare copies the template repo into a run-scoped temp directory and
// rewrites the chosen template there with the transformation embedded.
// It returns the copied repo root and the rewritten template path.
func (p *Preparer) Prepare(ctx context.Context, runID, repoDir, templatePath, transformationSQL string) (repoCopy, newTemplate string, err error) {
	rel, err := filepath.Rel(repoDir, templatePath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", "", fmt.Errorf("template %s is not inside repo %s", templatePath, repoDir)
	}

	repoCopy = filepath.Join(p.TempDir, runID, "dataproc_template")
	if err := os.MkdirAll(repoCopy, 0o755); err != nil {
		return "", "", fmt.Errorf("create run directory: %w", err)
	}
	if err := os.CopyFS(repoCopy, os.DirFS(repoDir)); err != nil {
		return "", "", fmt.Errorf("copy template repo: %w", err)
	}

	original, err := os.ReadFile(templatePath)
	if err != nil {
		return "", "", fmt.Errorf("read template: %w", err)
	}

	answer, err := p.Gen.GenerateText(ctx, fmt.Sprintf(embedTransformationInstruction, original, transformationSQL))
	if err != nil {
		return "", "", err
	}
	rewritten := llm.StripFences(answer)
	if rewritten == "" {
		return "", "", fmt.Errorf("model returned an empty template")
	}

	newTemplate = filepath.Join(repoCopy, rel)
	if err := os.WriteFile(newTemplate, []byte(rewritten), 0o644); err != nil {
		return "", "", fmt.Errorf("write rewritten template: %w", err)
	}

	p.Log.Info("prepared dataproc template run",
		zap.String("run_id", runID),
		zap.String("template", newTemplate))
	return repoCopy, newTemplate, nil
}
