// Package exec runs local helper programs, such as audio players, with a
// timeout and captured output.
package exec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Config describes one command invocation.
type Config struct {
	// Command is the name or path of the program (required).
	Command string

	// Args are passed to the program as is.
	Args []string

	// Timeout kills the program when exceeded. Zero means the parent
	// context alone bounds it.
	Timeout time.Duration
}

// Result holds what the program produced.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Duration time.Duration
}

// ExitError reports a program that ran but exited non-zero.
type ExitError struct {
	Command  string
	ExitCode int
	Stderr   string
}

func (e *ExitError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("%s exited with code %d", e.Command, e.ExitCode)
	}
	return fmt.Sprintf("%s exited with code %d: %s", e.Command, e.ExitCode, e.Stderr)
}

// maxStderr bounds how much stderr is quoted in an ExitError.
const maxStderr = 200

// Run executes the command and waits for it. A non-zero exit is returned
// as *ExitError alongside the Result.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	if cfg.Command == "" {
		return nil, errors.New("command is required")
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, cfg.Command, cfg.Args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	res := &Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		Duration: time.Since(start),
	}
	if err == nil {
		return res, nil
	}

	switch ctx.Err() {
	case context.DeadlineExceeded:
		return res, fmt.Errorf("%s timed out after %v", cfg.Command, cfg.Timeout)
	case context.Canceled:
		return res, fmt.Errorf("%s cancelled", cfg.Command)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		msg := strings.TrimSpace(stderr.String())
		if len(msg) > maxStderr {
			msg = msg[len(msg)-maxStderr:]
		}
		return res, &ExitError{Command: cfg.Command, ExitCode: res.ExitCode, Stderr: msg}
	}
	return res, fmt.Errorf("failed to start %s: %w", cfg.Command, err)
}

// LookPath returns the full path of a program on PATH.
func LookPath(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("binary %q not found in PATH: %w", name, err)
	}
	return path, nil
}

// FindFirst returns the first candidate found by lookPath, together with
// its extra arguments. Each candidate is a program name followed by its
// arguments.
func FindFirst(lookPath func(string) (string, error), candidates [][]string) (path string, args []string, ok bool) {
	if lookPath == nil {
		lookPath = LookPath
	}
	for _, c := range candidates {
		if len(c) == 0 {
			continue
		}
		if p, err := lookPath(c[0]); err == nil {
			return p, append([]string(nil), c[1:]...), true
		}
	}
	return "", nil, false
}
