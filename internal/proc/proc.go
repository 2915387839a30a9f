// Package proc runs external tools and captures their output.
package proc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Result is the captured outcome of a finished process.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Success reports whether the process exited with status 0.
func (r Result) Success() bool { return r.ExitCode == 0 }

// Diagnostic returns stderr if present, otherwise stdout, trimmed.
func (r Result) Diagnostic() string {
	if s := strings.TrimSpace(string(r.Stderr)); s != "" {
		return s
	}
	return strings.TrimSpace(string(r.Stdout))
}

// Runner starts a process and waits for it. A nonzero exit status is
// reported in Result; the error is reserved for processes that could not
// be started at all.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Result, error)
}

// Exec runs commands with os/exec.
type Exec struct{}

func (Exec) Run(ctx context.Context, name string, args ...string) (Result, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, err
	}
	return res, nil
}

// Lines splits output into lines, dropping a trailing empty line.
func Lines(out []byte) []string {
	s := strings.TrimRight(string(out), "\n")
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// ToolError reports a tool that could not be started or exited nonzero.
type ToolError struct {
	Tool   string
	Result Result
	Err    error
}

func (e *ToolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Tool, e.Err)
	}
	if d := e.Result.Diagnostic(); d != "" {
		return fmt.Sprintf("%s exited with status %d:\n%s", e.Tool, e.Result.ExitCode, d)
	}
	return fmt.Sprintf("%s exited with status %d", e.Tool, e.Result.ExitCode)
}

func (e *ToolError) Unwrap() error { return e.Err }

// Output runs name and returns its stdout, or a *ToolError when the tool
// cannot be started or exits nonzero.
func Output(ctx context.Context, r Runner, name string, args ...string) ([]byte, error) {
	res, err := r.Run(ctx, name, args...)
	if err != nil {
		return nil, &ToolError{Tool: name, Result: res, Err: err}
	}
	if !res.Success() {
		return nil, &ToolError{Tool: name, Result: res}
	}
	return res.Stdout, nil
}
