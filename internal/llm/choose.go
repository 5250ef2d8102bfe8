package llm

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// TextGenerator is the part of Client the choosers need; tests provide
// fakes.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// ChooseFile asks the model to pick the best file from candidates.
// The instruction must tell the model to answer with exactly one path from
// the list, or "not_found". Returns "" when the model finds no match or
// names a file that does not exist. A single candidate is returned without
// an API call.
func ChooseFile(ctx context.Context, gen TextGenerator, instruction string, candidates []string) (string, error) {
	if len(candidates) == 0 {
		return "", nil
	}
	if len(candidates) == 1 {
		return candidates[0], nil
	}

	prompt := fmt.Sprintf("%s\n\nCandidates:\n%s", instruction, strings.Join(candidates, "\n"))
	answer, err := gen.GenerateText(ctx, prompt)
	if err != nil {
		return "", err
	}

	answer = strings.TrimSpace(strings.ReplaceAll(answer, "\n", ""))
	if IsNotFound(answer) {
		return "", nil
	}
	if _, err := os.Stat(answer); err != nil {
		return "", nil
	}
	return answer, nil
}
