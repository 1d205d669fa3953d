// Package app assembles the production adapters behind the orchestrator and
// exposes the operations the CLI commands call.
package app

import (
	"context"
	"strings"

	"github.com/wpsteward/wpsteward/internal/adapters/command"
	"github.com/wpsteward/wpsteward/internal/adapters/filesystem"
	"github.com/wpsteward/wpsteward/internal/adapters/logging"
	"github.com/wpsteward/wpsteward/internal/domain/run"
	"github.com/wpsteward/wpsteward/internal/domain/vcs"
	"github.com/wpsteward/wpsteward/internal/domain/wpcli"
	"github.com/wpsteward/wpsteward/internal/ports"
)

// App wires the command runner, filesystem, and logger into the update
// orchestrator.
type App struct {
	runner ports.CommandRunner
	fs     ports.FileSystem
	logger ports.Logger
}

// Option configures the App.
type Option func(*App)

// WithRunner replaces the command runner.
func WithRunner(r ports.CommandRunner) Option {
	return func(a *App) {
		a.runner = r
	}
}

// WithFileSystem replaces the filesystem.
func WithFileSystem(fs ports.FileSystem) Option {
	return func(a *App) {
		a.fs = fs
	}
}

// WithLogger replaces the logger.
func WithLogger(l ports.Logger) Option {
	return func(a *App) {
		a.logger = l
	}
}

// New creates an App backed by the real adapters.
func New(opts ...Option) *App {
	a := &App{
		runner: command.NewRealRunner(),
		fs:     filesystem.NewRealFileSystem(),
		logger: logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Update executes one update run with the given configuration.
func (a *App) Update(ctx context.Context, cfg run.Config) (run.Report, error) {
	orch := run.NewOrchestrator(a.runner, a.fs).WithLogger(a.logger)
	return orch.Execute(ctx, cfg)
}

// ToolStatus reports the availability of one external tool.
type ToolStatus struct {
	Name      string
	Available bool
	Version   string
	Detail    string
}

// Doctor probes the external tools an update run depends on. It never
// returns an error: unavailability is data, reported per tool.
func (a *App) Doctor(ctx context.Context) []ToolStatus {
	return []ToolStatus{
		a.probe(ctx, wpcli.DefaultBin, "--version"),
		a.probe(ctx, vcs.NewCommitter(a.runner).Bin(), "--version"),
	}
}

// probe runs `tool --version` and condenses the result into a status.
func (a *App) probe(ctx context.Context, tool string, args ...string) ToolStatus {
	status := ToolStatus{Name: tool}

	res, err := a.runner.Run(ctx, "", tool, args...)
	if err != nil {
		status.Detail = err.Error()
		if ports.IsCommandNotFound(err) {
			status.Detail = "not found on PATH"
		}
		return status
	}
	if !res.Success() {
		status.Detail = strings.TrimSpace(res.Stderr)
		return status
	}

	status.Available = true
	status.Version = firstLine(res.Stdout)
	return status
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
