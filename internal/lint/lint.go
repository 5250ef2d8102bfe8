// Package lint maps a small fixed vocabulary of check names onto
// invocations of the external Python formatting and linting tools (isort,
// black, flake8, and their notebook variants via nbqa) over a target
// directory, and propagates their exit status.
package lint

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"plumber/internal/runner"
)

// Action selects between read-only checking and in-place fixing.
type Action string

const (
	// ActionCheck runs every tool in read-only mode.
	ActionCheck Action = "check"

	// ActionFix lets the formatters rewrite files. flake8 has no fix
	// mode and always runs read-only.
	ActionFix Action = "fix"
)

// ParseAction validates an action keyword.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionCheck, ActionFix:
		return Action(s), nil
	default:
		return "", fmt.Errorf("unknown action %q (valid: check, fix)", s)
	}
}

// CheckOrder is the fixed execution order: import sorting first so black
// sees sorted imports, the style checker last.
var CheckOrder = []string{"isort", "black", "flake8"}

// pipPackages maps each check (and the notebook wrapper) to the package
// that provides it.
var pipPackages = map[string]string{
	"isort":  "isort",
	"black":  "black",
	"flake8": "flake8",
	"nbqa":   "nbqa",
}

// ValidCheck reports whether name is a known check.
func ValidCheck(name string) bool {
	_, ok := pipPackages[name]
	return ok && name != "nbqa"
}

// SelectChecks resolves the requested check names to the fixed execution
// order. An empty request selects the full set. Unknown names are a usage
// error naming the valid vocabulary.
func SelectChecks(requested []string) ([]string, error) {
	if len(requested) == 0 {
		return append([]string(nil), CheckOrder...), nil
	}

	want := make(map[string]struct{}, len(requested))
	for _, name := range requested {
		name = strings.ToLower(strings.TrimSpace(name))
		if !ValidCheck(name) {
			valid := append([]string(nil), CheckOrder...)
			sort.Strings(valid)
			return nil, fmt.Errorf("unknown check %q (valid checks: %s)", name, strings.Join(valid, ", "))
		}
		want[name] = struct{}{}
	}

	var out []string
	for _, name := range CheckOrder {
		if _, ok := want[name]; ok {
			out = append(out, name)
		}
	}
	return out, nil
}

// ResolveTarget applies the mutually exclusive path selectors: exactly one
// of agent (resolved under agentsRoot) or path must be given, and the
// resulting directory must exist.
func ResolveTarget(agentsRoot, agent, path string) (string, error) {
	switch {
	case agent != "" && path != "":
		return "", fmt.Errorf("--agent and --path are mutually exclusive")
	case agent == "" && path == "":
		return "", fmt.Errorf("one of --agent or --path is required")
	}

	dir := path
	if agent != "" {
		dir = agentsRoot + string(os.PathSeparator) + agent
	}

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("target directory does not exist: %s", dir)
		}
		return "", fmt.Errorf("cannot access target directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("target is not a directory: %s", dir)
	}
	return dir, nil
}

// Command builds the invocation for one check. In notebook mode the check
// runs through nbqa against .ipynb files.
func Command(action Action, check, dir string, notebooks bool, maxLineLength int) (runner.Command, error) {
	if !ValidCheck(check) {
		return runner.Command{}, fmt.Errorf("unknown check %q", check)
	}

	var args []string
	switch check {
	case "isort":
		args = []string{"--profile", "black"}
		if action == ActionCheck {
			args = append(args, "--check-only", "--diff")
		}
	case "black":
		if action == ActionCheck {
			args = []string{"--check", "--diff"}
		}
	case "flake8":
		args = []string{"--max-line-length", strconv.Itoa(maxLineLength)}
	}
	args = append(args, dir)

	if notebooks {
		return runner.Command{Binary: "nbqa", Args: append([]string{check}, args...)}, nil
	}
	return runner.Command{Binary: check, Args: args}, nil
}

// requiredBinaries lists the executables one check needs.
func requiredBinaries(check string, notebooks bool) []string {
	if notebooks {
		return []string{"nbqa", check}
	}
	return []string{check}
}
