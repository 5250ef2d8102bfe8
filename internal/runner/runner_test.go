package runner

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestCommandString(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
		want string
	}{
		{"bare binary", Command{Binary: "dbt"}, "dbt"},
		{"with args", Command{Binary: "flake8", Args: []string{"--max-line-length", "88", "."}}, "flake8 --max-line-length 88 ."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cmd.String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCombined(t *testing.T) {
	tests := []struct {
		name string
		res  Result
		want string
	}{
		{"stdout only", Result{Stdout: "ok"}, "ok"},
		{"stderr only", Result{Stderr: "boom"}, "boom"},
		{"both", Result{Stdout: "ok", Stderr: "boom"}, "ok\n--- stderr ---\nboom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.res.Combined(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDirectRequiresBinary(t *testing.T) {
	_, err := NewDirect().Run(context.Background(), Command{})
	if err == nil {
		t.Fatal("expected error for empty binary")
	}
}

func TestDirectMissingBinary(t *testing.T) {
	_, err := NewDirect().Run(context.Background(), Command{Binary: "plumber-no-such-binary"})
	if err == nil {
		t.Fatal("expected error for missing binary")
	}
}

func TestRunTimeout(t *testing.T) {
	d := &Direct{Timeout: 100 * time.Millisecond, WaitDelay: 200 * time.Millisecond}

	start := time.Now()
	_, err := d.Run(context.Background(), Command{Binary: "sh", Args: []string{"-c", "sleep 60"}})
	if err == nil || !strings.Contains(err.Error(), "timed out") {
		t.Fatalf("expected timeout error, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("timeout took %s to take effect", elapsed)
	}
}

// A tool that forks children inheriting its pipes must not hold Run open
// after it exits: the wait delay forces the pipes closed.
func TestRunReturnsWhenChildrenHoldPipes(t *testing.T) {
	d := &Direct{Timeout: time.Minute, WaitDelay: 200 * time.Millisecond}

	start := time.Now()
	res, err := d.Run(context.Background(), Command{
		Binary: "sh",
		Args:   []string{"-c", "sleep 60 & echo launched"},
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Run blocked %s on the forked child's pipe", elapsed)
	}
	if res.ExitCode != 0 {
		t.Errorf("exit code = %d", res.ExitCode)
	}
	if !strings.Contains(res.Stdout, "launched") {
		t.Errorf("stdout = %q", res.Stdout)
	}
}

// Stream must return as soon as a line matches, killing the process
// instead of waiting for it to exit.
func TestStreamStopsOnMatch(t *testing.T) {
	d := &Direct{Timeout: time.Minute, WaitDelay: 200 * time.Millisecond}

	start := time.Now()
	res, err := d.Stream(context.Background(), Command{
		Binary: "sh",
		Args:   []string{"-c", "echo submitting; echo \"id: '2026-08-01_12_30_00-123456789'\"; sleep 60"},
	}, func(line string) bool { return strings.Contains(line, "id:") })
	if err != nil {
		t.Fatalf("Stream failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Stream took %s to stop after the match", elapsed)
	}
	if res.ExitCode != 0 {
		t.Errorf("exit code = %d", res.ExitCode)
	}
	for _, want := range []string{"submitting", "id: '2026-08-01_12_30_00-123456789'"} {
		if !strings.Contains(res.Stdout, want) {
			t.Errorf("stdout missing %q: %q", want, res.Stdout)
		}
	}
}

// Without a match, Stream behaves like Run on a short-lived process.
func TestStreamNoMatchWaitsForExit(t *testing.T) {
	d := &Direct{Timeout: time.Minute, WaitDelay: 200 * time.Millisecond}

	res, err := d.Stream(context.Background(), Command{
		Binary: "sh",
		Args:   []string{"-c", "echo done; exit 3"},
	}, func(string) bool { return false })
	if err != nil {
		t.Fatalf("Stream failed: %v", err)
	}
	if res.ExitCode != 3 {
		t.Errorf("exit code = %d", res.ExitCode)
	}
	if !strings.Contains(res.Stdout, "done") {
		t.Errorf("stdout = %q", res.Stdout)
	}
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("x", MaxOutputBytes+10)
	got := truncate(long)
	if len(got) >= len(long) {
		t.Error("expected output to be truncated")
	}
	if !strings.HasSuffix(got, "...[truncated]") {
		t.Error("expected truncation marker")
	}
	if short := truncate("short"); short != "short" {
		t.Errorf("short output should pass through, got %q", short)
	}
}
