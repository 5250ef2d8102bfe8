package lint

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"plumber/internal/report"
	"plumber/internal/runner"
)

// Options describes one dispatch: which checks, against which directory,
// in which mode.
type Options struct {
	Action    Action
	Dir       string
	Checks    []string
	Notebooks bool
}

// Dispatcher runs the selected checks in order against a directory,
// installing missing tools on the way.
type Dispatcher struct {
	Runner        runner.Runner
	Python        string
	MaxLineLength int
	Log           *zap.Logger
}

// NewDispatcher wires a dispatcher over the given runner.
func NewDispatcher(r runner.Runner, python string, maxLineLength int, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{Runner: r, Python: python, MaxLineLength: maxLineLength, Log: log}
}

// checkResult records one tool invocation.
type checkResult struct {
	Check    string
	ExitCode int
	Output   string
}

// Run executes the dispatch. Every selected check runs even after an
// earlier one fails so the caller sees the full picture. A non-zero exit
// from any tool yields an error-status report carrying the combined
// output.
func (d *Dispatcher) Run(ctx context.Context, opts Options) report.Report {
	checks, err := SelectChecks(opts.Checks)
	if err != nil {
		return report.Errorf("%v", err)
	}

	var results []checkResult
	failed := 0
	for _, check := range checks {
		if err := d.ensureInstalled(ctx, check, opts.Notebooks); err != nil {
			return report.Errorf("cannot run %s: %v", check, err)
		}

		cmd, err := Command(opts.Action, check, opts.Dir, opts.Notebooks, d.MaxLineLength)
		if err != nil {
			return report.Errorf("%v", err)
		}

		d.Log.Debug("running lint check",
			zap.String("check", check),
			zap.String("command", cmd.String()))

		res, err := d.Runner.Run(ctx, cmd)
		if err != nil {
			return report.Errorf("failed to run %s: %v", check, err)
		}
		if res.ExitCode != 0 {
			failed++
		}
		results = append(results, checkResult{
			Check:    check,
			ExitCode: res.ExitCode,
			Output:   strings.TrimSpace(res.Combined()),
		})
	}

	body := renderResults(results)
	if failed > 0 {
		return report.Failf(body, "%d of %d checks failed", failed, len(results))
	}
	verb := "passed"
	if opts.Action == ActionFix {
		verb = "applied"
	}
	return report.Successf("all %d checks %s\n%s", len(results), verb, body)
}

// ensureInstalled checks for the binaries a check needs and pip-installs
// any that are missing before giving up.
func (d *Dispatcher) ensureInstalled(ctx context.Context, check string, notebooks bool) error {
	for _, binary := range requiredBinaries(check, notebooks) {
		if d.Runner.LookPath(binary) {
			continue
		}
		pkg := pipPackages[binary]
		d.Log.Info("installing missing lint tool", zap.String("package", pkg))

		res, err := d.Runner.Run(ctx, runner.Command{
			Binary: d.Python,
			Args:   []string{"-m", "pip", "install", pkg},
		})
		if err != nil {
			return fmt.Errorf("pip install %s: %w", pkg, err)
		}
		if res.ExitCode != 0 {
			return fmt.Errorf("pip install %s exited %d: %s", pkg, res.ExitCode, strings.TrimSpace(res.Stderr))
		}
		if !d.Runner.LookPath(binary) {
			return fmt.Errorf("%s still not on PATH after installing %s", binary, pkg)
		}
	}
	return nil
}

func renderResults(results []checkResult) string {
	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n")
		}
		verdict := "ok"
		if r.ExitCode != 0 {
			verdict = fmt.Sprintf("exit %d", r.ExitCode)
		}
		fmt.Fprintf(&b, "[%s] %s\n", r.Check, verdict)
		if r.Output != "" {
			b.WriteString(r.Output)
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
