package trial

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Invocation is one fully resolved process launch.
type Invocation struct {
	Path string
	Args []string
	Env  []string // appended to the inherited environment
}

func (inv Invocation) String() string {
	parts := make([]string, 0, len(inv.Env)+1+len(inv.Args))
	parts = append(parts, inv.Env...)
	parts = append(parts, inv.Path)
	parts = append(parts, inv.Args...)
	return strings.Join(parts, " ")
}

// Executor runs an invocation to completion and returns its stdout.
type Executor interface {
	Run(ctx context.Context, inv Invocation) (string, error)
}

// InvocationError reports a process that could not start or exited nonzero.
type InvocationError struct {
	Command string
	Stderr  string
	Wrapped error
}

func (e *InvocationError) Error() string {
	msg := fmt.Sprintf("trial: %s: %v", e.Command, e.Wrapped)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += "\nstderr: " + s
	}
	return msg
}

func (e *InvocationError) Unwrap() error {
	return e.Wrapped
}

// ExecExecutor launches real processes with os/exec.
type ExecExecutor struct {
	Dir string
}

func (x ExecExecutor) Run(ctx context.Context, inv Invocation) (string, error) {
	cmd := exec.CommandContext(ctx, inv.Path, inv.Args...)
	cmd.Dir = x.Dir
	if len(inv.Env) > 0 {
		cmd.Env = append(os.Environ(), inv.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", &InvocationError{
			Command: inv.String(),
			Stderr:  stderr.String(),
			Wrapped: err,
		}
	}

	return stdout.String(), nil
}
