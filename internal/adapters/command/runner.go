// Package command provides command execution adapters.
package command

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/wpsteward/wpsteward/internal/ports"
)

// RealRunner executes actual external commands.
type RealRunner struct{}

// NewRealRunner creates a new RealRunner.
func NewRealRunner() *RealRunner {
	return &RealRunner{}
}

// Run executes a command and returns the result.
func (r *RealRunner) Run(ctx context.Context, dir, command string, args ...string) (ports.CommandResult, error) {
	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Dir = dir

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	result := ports.CommandResult{
		ExitCode: 0,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return result, &ports.LaunchError{Command: command, Err: err}
	}

	return result, nil
}

// StreamingRunner executes commands while copying child stdout to Out line by
// line as it arrives. Updates and database dumps can run for minutes; the
// operator sees wp-cli progress live instead of a silent terminal.
type StreamingRunner struct {
	Out io.Writer
}

// NewStreamingRunner creates a StreamingRunner writing to out.
func NewStreamingRunner(out io.Writer) *StreamingRunner {
	return &StreamingRunner{Out: out}
}

// Run executes a command, echoing stdout lines to Out while capturing them.
func (r *StreamingRunner) Run(ctx context.Context, dir, command string, args ...string) (ports.CommandResult, error) {
	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Dir = dir

	var stderr strings.Builder
	cmd.Stderr = &stderr

	pipe, err := cmd.StdoutPipe()
	if err != nil {
		return ports.CommandResult{}, &ports.LaunchError{Command: command, Err: err}
	}

	if err := cmd.Start(); err != nil {
		return ports.CommandResult{}, &ports.LaunchError{Command: command, Err: err}
	}

	var stdout strings.Builder
	scanner := bufio.NewScanner(pipe)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		stdout.WriteString(line)
		stdout.WriteByte('\n')
		if r.Out != nil {
			fmt.Fprintln(r.Out, line)
		}
	}

	result := ports.CommandResult{
		Stdout: stdout.String(),
	}

	err = cmd.Wait()
	result.Stderr = stderr.String()

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return result, &ports.LaunchError{Command: command, Err: err}
	}

	return result, nil
}

// Ensure runners implement ports.CommandRunner.
var (
	_ ports.CommandRunner = (*RealRunner)(nil)
	_ ports.CommandRunner = (*StreamingRunner)(nil)
)
