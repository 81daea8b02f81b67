// Package python wraps the host Python toolchain: interpreter discovery,
// isolated environments, and external command execution with captured output.
package python

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// DefaultCommandTimeout is applied when the caller's context carries no deadline.
const DefaultCommandTimeout = 15 * time.Minute

// Result captures the outcome of one external command.
type Result struct {
	Argv     []string
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Combined returns stdout followed by stderr, for build log retention.
func (r *Result) Combined() string {
	if r.Stderr == "" {
		return r.Stdout
	}
	if r.Stdout == "" {
		return r.Stderr
	}
	return r.Stdout + "\n" + r.Stderr
}

// CommandError describes a failed external command with its captured output.
type CommandError struct {
	Argv   []string
	Stdout string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s: %v", strings.Join(e.Argv, " "), e.Err)
	if tail := lastLine(e.Stderr); tail != "" {
		msg += ": " + tail
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// lastLine returns the final non-empty line of s.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}

// Runner executes external commands with captured output and a timeout
// safety net. The zero value runs in the current directory.
type Runner struct {
	dir     string
	timeout time.Duration
	env     []string // extra entries appended to os.Environ()
}

// NewRunner creates a Runner rooted at dir. A zero timeout falls back to
// DefaultCommandTimeout.
func NewRunner(dir string, timeout time.Duration) *Runner {
	return &Runner{dir: dir, timeout: timeout}
}

// WithEnv returns a copy of the Runner that appends env to the process
// environment of every command it runs.
func (r *Runner) WithEnv(env []string) *Runner {
	clone := *r
	clone.env = append(append([]string{}, r.env...), env...)
	return &clone
}

// Run executes name with args and returns the captured Result. A non-zero
// exit yields both the Result and a *CommandError so callers can keep the
// output around for logs.
func (r *Runner) Run(ctx context.Context, name string, args ...string) (*Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	// If no timeout/deadline is set in the context, add the default one
	if _, ok := ctx.Deadline(); !ok {
		timeout := r.timeout
		if timeout <= 0 {
			timeout = DefaultCommandTimeout
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	if r.dir != "" {
		cmd.Dir = r.dir
	}
	if len(r.env) > 0 {
		cmd.Env = append(os.Environ(), r.env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()

	res := &Result{
		Argv:     append([]string{name}, args...),
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if err != nil {
		res.ExitCode = exitCode(err)
		if ctx.Err() == context.DeadlineExceeded {
			err = ctx.Err()
		}
		return res, &CommandError{Argv: res.Argv, Stdout: res.Stdout, Stderr: res.Stderr, Err: err}
	}
	return res, nil
}

// exitCode extracts the process exit code, or -1 when the process never ran.
func exitCode(err error) int {
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return ee.ExitCode()
	}
	return -1
}
