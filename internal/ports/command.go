// Package ports defines interfaces for external dependencies.
package ports

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// CommandResult represents the result of executing an external command.
type CommandResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Success returns true if the command exited with code 0.
func (r CommandResult) Success() bool {
	return r.ExitCode == 0
}

// CommandCall records a command invocation.
type CommandCall struct {
	Dir     string
	Command string
	Args    []string
}

// LaunchError indicates the external program could not be started at all
// (missing binary, permission denied). It is distinct from a nonzero exit:
// a program that ran and failed is reported through CommandResult.ExitCode.
type LaunchError struct {
	Command string
	Err     error
}

// Error returns the formatted error message.
func (e *LaunchError) Error() string {
	return fmt.Sprintf("cannot launch %q: %v", e.Command, e.Err)
}

// Unwrap returns the underlying error.
func (e *LaunchError) Unwrap() error {
	return e.Err
}

// IsCommandNotFound reports whether an error indicates a missing executable.
func IsCommandNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, exec.ErrNotFound) {
		return true
	}
	var execErr *exec.Error
	if errors.As(err, &execErr) && errors.Is(execErr.Err, exec.ErrNotFound) {
		return true
	}
	var pathErr *os.PathError
	if errors.As(err, &pathErr) && errors.Is(pathErr.Err, os.ErrNotExist) {
		return true
	}
	return false
}

// CommandRunner executes external commands.
//
// dir is the working directory for the child process; an empty dir runs in
// the caller's working directory. A command that runs and exits nonzero is
// not an error: callers interpret exit codes per tool. A command that cannot
// be started returns a *LaunchError.
type CommandRunner interface {
	Run(ctx context.Context, dir, command string, args ...string) (CommandResult, error)
}
