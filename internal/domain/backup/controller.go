// Package backup snapshots the WordPress database before an update step.
// The dump artifact is the rollback point for that step: if it cannot be
// produced and verified, the step must not run.
package backup

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/wpsteward/wpsteward/internal/domain/step"
	"github.com/wpsteward/wpsteward/internal/ports"
)

// DefaultTemplate places dumps next to the installation, named by time and
// step so backups from different steps of one run never collide.
const DefaultTemplate = "{path}/../{unix_time}.{step}.sql"

// Error reports a failed or unverifiable database dump.
type Error struct {
	Step   step.ID
	Path   string
	Reason string
	Err    error
}

// Error returns the formatted error message.
func (e *Error) Error() string {
	return fmt.Sprintf("backup for step %s failed: %s", e.Step, e.Reason)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Artifact is a reference to a completed database snapshot. The file is
// retained on disk as the step's rollback point; the process drops the
// reference once the step completes.
type Artifact struct {
	Step      step.ID
	Path      string
	Size      int64
	CreatedAt time.Time
}

// Controller produces and verifies database dump artifacts.
type Controller struct {
	runner ports.CommandRunner
	fs     ports.FileSystem
	bin    string
	now    func() time.Time
}

// NewController creates a backup controller.
func NewController(runner ports.CommandRunner, fs ports.FileSystem) *Controller {
	return &Controller{
		runner: runner,
		fs:     fs,
		bin:    "wp",
		now:    time.Now,
	}
}

// WithBin returns a controller using a different wp-cli executable.
func (c *Controller) WithBin(bin string) *Controller {
	return &Controller{runner: c.runner, fs: c.fs, bin: bin, now: c.now}
}

// WithClock returns a controller using the given time source.
func (c *Controller) WithClock(now func() time.Time) *Controller {
	return &Controller{runner: c.runner, fs: c.fs, bin: c.bin, now: now}
}

// Snapshot dumps the database for the installation at path ahead of the given
// step, using template to derive the destination. The artifact is verified to
// exist and be non-empty before it counts as a backup; wp-cli has been seen
// reporting success for truncated dumps.
func (c *Controller) Snapshot(ctx context.Context, path, template string, id step.ID) (Artifact, error) {
	createdAt := c.now()
	dest := ExpandTemplate(template, path, id, createdAt)

	if parent := filepath.Dir(dest); parent != "." {
		if err := c.fs.MkdirAll(parent, 0o755); err != nil {
			return Artifact{}, &Error{Step: id, Path: dest, Reason: "create dump directory: " + err.Error(), Err: err}
		}
	}

	res, err := c.runner.Run(ctx, "", c.bin, "db", "export", dest, "--defaults", "--path="+path)
	if err != nil {
		return Artifact{}, &Error{Step: id, Path: dest, Reason: err.Error(), Err: err}
	}
	if !res.Success() {
		reason := strings.TrimSpace(res.Stderr)
		if reason == "" {
			reason = fmt.Sprintf("wp db export exited %d", res.ExitCode)
		}
		return Artifact{}, &Error{Step: id, Path: dest, Reason: reason}
	}

	info, err := c.fs.GetFileInfo(dest)
	if err != nil {
		return Artifact{}, &Error{Step: id, Path: dest, Reason: "dump artifact missing after export", Err: err}
	}
	if info.Size == 0 {
		return Artifact{}, &Error{Step: id, Path: dest, Reason: "dump artifact is empty"}
	}

	return Artifact{
		Step:      id,
		Path:      dest,
		Size:      info.Size,
		CreatedAt: createdAt,
	}, nil
}

// ExpandTemplate resolves the {path}, {step}, and {unix_time} placeholders in
// a dump destination template.
func ExpandTemplate(template, path string, id step.ID, t time.Time) string {
	dest := template
	dest = strings.ReplaceAll(dest, "{path}", path)
	dest = strings.ReplaceAll(dest, "{step}", string(id))
	dest = strings.ReplaceAll(dest, "{unix_time}", strconv.FormatInt(t.Unix(), 10))
	return filepath.Clean(dest)
}
