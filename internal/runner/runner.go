// Package runner is the execution layer that physically interacts with
// external programs: the Python lint tools, dbt, gcloud, and launched
// pipeline scripts. Everything that shells out goes through the Runner
// interface so callers can be tested with a fake.
package runner

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout bounds a command when the caller's context carries no
// deadline of its own.
const DefaultTimeout = 10 * time.Minute

// DefaultWaitDelay is how long a finished or killed command's children get
// to release its output pipes before they are forced closed. Without it a
// tool that forks (pip builds, beam launchers, mvn) could hold Run past any
// timeout.
const DefaultWaitDelay = 5 * time.Second

// MaxOutputBytes caps captured output so a runaway tool cannot exhaust
// memory. Output beyond the cap is truncated with a marker.
const MaxOutputBytes = 1 << 20

// Command specifies an external program invocation.
type Command struct {
	// Binary is the executable to run (e.g. "python3", "dbt", "gcloud").
	Binary string

	// Args are the command-line arguments.
	Args []string

	// Dir is the working directory; empty means the process default.
	Dir string

	// Env holds additional KEY=VALUE pairs appended to the inherited
	// environment.
	Env []string

	// Stdin provides input to the command's standard input.
	Stdin string
}

// String renders the command for logging.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Binary
	}
	return c.Binary + " " + strings.Join(c.Args, " ")
}

// Result captures the outcome of one invocation.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Combined returns stdout with stderr appended, the form most report
// bodies want.
func (r Result) Combined() string {
	if r.Stderr == "" {
		return r.Stdout
	}
	if r.Stdout == "" {
		return r.Stderr
	}
	return r.Stdout + "\n--- stderr ---\n" + r.Stderr
}

// Runner executes external commands.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)

	// Stream runs the command and watches its combined output line by
	// line. As soon as match returns true the process is killed and the
	// lines seen so far come back with a zero exit code; a long-running
	// command can so report success without being waited to completion.
	Stream(ctx context.Context, cmd Command, match func(line string) bool) (Result, error)

	// LookPath reports whether a binary can be resolved.
	LookPath(binary string) bool
}

// Direct runs commands on the host with os/exec. A non-zero exit status is
// not an error from Run's point of view; callers inspect Result.ExitCode.
// Run returns an error only when the command could not be executed at all
// (binary missing, context expired, and so on).
type Direct struct {
	Timeout time.Duration

	// WaitDelay overrides DefaultWaitDelay when positive.
	WaitDelay time.Duration
}

// NewDirect returns a Direct runner with the default timeout.
func NewDirect() *Direct {
	return &Direct{Timeout: DefaultTimeout}
}

func (d *Direct) waitDelay() time.Duration {
	if d.WaitDelay > 0 {
		return d.WaitDelay
	}
	return DefaultWaitDelay
}

// Run implements Runner.
func (d *Direct) Run(ctx context.Context, cmd Command) (Result, error) {
	if cmd.Binary == "" {
		return Result{ExitCode: -1}, errors.New("runner: binary is required")
	}

	timeout := d.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	execCmd := exec.CommandContext(ctx, cmd.Binary, cmd.Args...)
	execCmd.Dir = cmd.Dir
	execCmd.Env = append(os.Environ(), cmd.Env...)
	execCmd.WaitDelay = d.waitDelay()
	if cmd.Stdin != "" {
		execCmd.Stdin = strings.NewReader(cmd.Stdin)
	}

	var stdout, stderr bytes.Buffer
	execCmd.Stdout = &stdout
	execCmd.Stderr = &stderr

	start := time.Now()
	err := execCmd.Run()
	res := Result{
		ExitCode: 0,
		Stdout:   truncate(stdout.String()),
		Stderr:   truncate(stderr.String()),
		Duration: time.Since(start),
	}

	if err != nil {
		// The tool itself exited cleanly but forked children that still
		// held its pipes past the wait delay.
		if errors.Is(err, exec.ErrWaitDelay) {
			return res, nil
		}
		if ctx.Err() == context.DeadlineExceeded {
			res.ExitCode = -1
			return res, fmt.Errorf("runner: %s timed out after %s", cmd.Binary, timeout)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		res.ExitCode = -1
		return res, fmt.Errorf("runner: %s: %w", cmd.Binary, err)
	}

	return res, nil
}

// Stream implements Runner. Stdout and stderr are merged into one pipe so
// the match callback sees the lines in the order the tool emits them.
func (d *Direct) Stream(ctx context.Context, cmd Command, match func(line string) bool) (Result, error) {
	if cmd.Binary == "" {
		return Result{ExitCode: -1}, errors.New("runner: binary is required")
	}

	timeout := d.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	pr, pw, err := os.Pipe()
	if err != nil {
		return Result{ExitCode: -1}, fmt.Errorf("runner: pipe: %w", err)
	}

	execCmd := exec.CommandContext(ctx, cmd.Binary, cmd.Args...)
	execCmd.Dir = cmd.Dir
	execCmd.Env = append(os.Environ(), cmd.Env...)
	if cmd.Stdin != "" {
		execCmd.Stdin = strings.NewReader(cmd.Stdin)
	}
	execCmd.Stdout = pw
	execCmd.Stderr = pw

	start := time.Now()
	if err := execCmd.Start(); err != nil {
		pw.Close()
		pr.Close()
		return Result{ExitCode: -1}, fmt.Errorf("runner: %s: %w", cmd.Binary, err)
	}
	pw.Close()

	waitRes := make(chan error, 1)
	exited := make(chan struct{})
	go func() {
		err := execCmd.Wait()
		close(exited)
		waitRes <- err
	}()

	// The scan loop ends on EOF, which needs every holder of the write end
	// gone. If the process is done but forked children keep the pipe open,
	// force the reader closed after the wait delay.
	stop := make(chan struct{})
	go func() {
		select {
		case <-stop:
			return
		case <-ctx.Done():
		case <-exited:
		}
		select {
		case <-stop:
		case <-time.After(d.waitDelay()):
			pr.Close()
		}
	}()

	var output strings.Builder
	matched := false
	scanner := bufio.NewScanner(pr)
	scanner.Buffer(make([]byte, 64*1024), MaxOutputBytes)
	for scanner.Scan() {
		line := scanner.Text()
		if output.Len() < MaxOutputBytes {
			output.WriteString(line)
			output.WriteByte('\n')
		}
		if match != nil && match(line) {
			matched = true
			break
		}
	}
	if matched {
		_ = execCmd.Process.Kill()
	}
	waitErr := <-waitRes
	close(stop)
	pr.Close()

	res := Result{
		Stdout:   truncate(output.String()),
		Duration: time.Since(start),
	}
	if matched {
		return res, nil
	}
	if waitErr != nil {
		if ctx.Err() == context.DeadlineExceeded {
			res.ExitCode = -1
			return res, fmt.Errorf("runner: %s timed out after %s", cmd.Binary, timeout)
		}
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		res.ExitCode = -1
		return res, fmt.Errorf("runner: %s: %w", cmd.Binary, waitErr)
	}
	return res, nil
}

// LookPath reports whether a binary is installed on PATH.
func (d *Direct) LookPath(binary string) bool {
	_, err := exec.LookPath(binary)
	return err == nil
}

func truncate(s string) string {
	if len(s) <= MaxOutputBytes {
		return s
	}
	return s[:MaxOutputBytes] + "\n...[truncated]"
}
