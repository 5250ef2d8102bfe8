package dataproc

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"plumber/internal/llm"
	"plumber/internal/pipeline"
)

const chooseReadmeInstruction = `You are selecting documentation for a Dataproc template.
Given the task below, answer with exactly one README path from the candidate list
that documents the template best suited to the task, or "not_found" when none fits.
Answer with the path only.

Task: %s`

const chooseTemplateInstruction = `You are selecting a Dataproc template script.
Given the task below, answer with exactly one script path from the candidate list
that implements the task, or "not_found" when none fits.
Answer with the path only.

Task: %s`

const extractParamsInstruction = `Read the following Dataproc template README and answer with a JSON object
describing the template's parameters, shaped as:
{"params": {"required": ["..."], "optional": ["..."]}}
Answer with JSON only.

README:
%s`

// ErrNoTemplate means the model found no template for the task.
var ErrNoTemplate = fmt.Errorf("no matching dataproc template found")

// Template is a matched template script and its declared parameters.
type Template struct {
	// Path of the template script inside the repo checkout.
	Path string

	// Readme that documents the template.
	Readme string

	// Params declared by the README.
	Params pipeline.ParamSpec
}

// Matcher pairs a user task with a template: plain file walking finds the
// candidates, the model picks among them.
type Matcher struct {
	Gen llm.TextGenerator
	Log *zap.Logger
}

// NewMatcher wires a matcher.
func NewMatcher(gen llm.TextGenerator, log *zap.Logger) *Matcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Matcher{Gen: gen, Log: log}
}

// Match finds the template in repoDir best suited to the task.
func (m *Matcher) Match(ctx context.Context, repoDir, task, language string) (*Template, error) {
	lang, err := ParseLanguage(language)
	if err != nil {
		return nil, err
	}

	readmes, err := FindFiles(repoDir, "readme.md")
	if err != nil {
		return nil, err
	}
	readme, err := llm.ChooseFile(ctx, m.Gen, fmt.Sprintf(chooseReadmeInstruction, task), readmes)
	if err != nil {
		return nil, err
	}
	if readme == "" {
		return nil, ErrNoTemplate
	}
	m.Log.Debug("matched template readme", zap.String("readme", readme))

	scripts, err := FindFiles(filepath.Dir(readme), templatePattern(lang))
	if err != nil {
		return nil, err
	}
	script, err := llm.ChooseFile(ctx, m.Gen, fmt.Sprintf(chooseTemplateInstruction, task), scripts)
	if err != nil {
		return nil, err
	}
	if script == "" {
		return nil, ErrNoTemplate
	}

	params, err := m.extractParams(ctx, readme)
	if err != nil {
		return nil, err
	}

	return &Template{Path: script, Readme: readme, Params: params}, nil
}

// extractParams asks the model for the parameter lists the README declares.
func (m *Matcher) extractParams(ctx context.Context, readme string) (pipeline.ParamSpec, error) {
	content, err := os.ReadFile(readme)
	if err != nil {
		return pipeline.ParamSpec{}, fmt.Errorf("read %s: %w", readme, err)
	}

	answer, err := m.Gen.GenerateText(ctx, fmt.Sprintf(extractParamsInstruction, content))
	if err != nil {
		return pipeline.ParamSpec{}, err
	}

	var parsed struct {
		Params pipeline.ParamSpec `json:"params"`
	}
	if err := json.Unmarshal([]byte(llm.StripFences(answer)), &parsed); err != nil {
		return pipeline.ParamSpec{}, fmt.Errorf("parameter extraction returned invalid JSON: %w", err)
	}
	return parsed.Params, nil
}
