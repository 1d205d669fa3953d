// Package vcs records each update step as a version-control commit, giving
// the operator a `git log` audit trail of which step produced which changeset.
package vcs

import (
	"context"
	"fmt"
	"strings"

	"github.com/wpsteward/wpsteward/internal/ports"
)

// Error reports a failed staging or commit operation.
type Error struct {
	Op     string
	Reason string
	Err    error
}

// Error returns the formatted error message.
func (e *Error) Error() string {
	return fmt.Sprintf("git %s failed: %s", e.Op, e.Reason)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// noopMarkers identify a commit attempt that had nothing to record. Git exits
// nonzero for this, but it is not a failure.
var noopMarkers = []string{
	"nothing to commit",
	"working tree clean",
	"nothing added to commit",
}

// Committer stages and commits working-directory changes.
type Committer struct {
	runner ports.CommandRunner
	bin    string
}

// NewCommitter creates a committer.
func NewCommitter(runner ports.CommandRunner) *Committer {
	return &Committer{runner: runner, bin: "git"}
}

// WithBin returns a committer using a different git executable.
func (c *Committer) WithBin(bin string) *Committer {
	return &Committer{runner: c.runner, bin: bin}
}

// Bin returns the git executable name in use.
func (c *Committer) Bin() string {
	return c.bin
}

// HasChanges reports whether the working tree at dir has uncommitted changes.
func (c *Committer) HasChanges(ctx context.Context, dir string) (bool, error) {
	res, err := c.runner.Run(ctx, "", c.bin, "-C", dir, "status", "--porcelain")
	if err != nil {
		return false, &Error{Op: "status", Reason: err.Error(), Err: err}
	}
	if !res.Success() {
		return false, &Error{Op: "status", Reason: gitReason(res)}
	}
	return strings.TrimSpace(res.Stdout) != "", nil
}

// Commit stages everything under dir and commits it with the given message.
// It returns true if a commit was created; a clean tree is reported as
// (false, nil), not an error.
func (c *Committer) Commit(ctx context.Context, dir, message string) (bool, error) {
	res, err := c.runner.Run(ctx, "", c.bin, "-C", dir, "add", "-A")
	if err != nil {
		return false, &Error{Op: "add", Reason: err.Error(), Err: err}
	}
	if !res.Success() {
		return false, &Error{Op: "add", Reason: gitReason(res)}
	}

	res, err = c.runner.Run(ctx, "", c.bin, "-C", dir, "commit", "-m", message)
	if err != nil {
		return false, &Error{Op: "commit", Reason: err.Error(), Err: err}
	}
	if !res.Success() {
		if isNoop(res) {
			return false, nil
		}
		return false, &Error{Op: "commit", Reason: gitReason(res)}
	}
	return true, nil
}

// Message builds the deterministic commit message for a step.
//
// The base shape is "Update<sep><label>"; detail (such as a version
// transition) and an operator prefix are joined with the same separator:
//
//	site-a: Update: Core: 6.4.2 -> 6.5.0
func Message(prefix, separator, label, detail string) string {
	msg := "Update" + separator + label
	if detail != "" {
		msg += separator + detail
	}
	if prefix != "" {
		msg = prefix + separator + msg
	}
	return msg
}

func isNoop(res ports.CommandResult) bool {
	combined := strings.ToLower(res.Stdout + "\n" + res.Stderr)
	for _, marker := range noopMarkers {
		if strings.Contains(combined, marker) {
			return true
		}
	}
	return false
}

func gitReason(res ports.CommandResult) string {
	reason := strings.TrimSpace(res.Stderr)
	if reason == "" {
		reason = strings.TrimSpace(res.Stdout)
	}
	if reason == "" {
		reason = fmt.Sprintf("exit code %d", res.ExitCode)
	}
	return reason
}
