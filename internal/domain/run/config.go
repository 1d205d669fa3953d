// Package run contains the update orchestrator: the ordered walk over the
// step registry, the backup/commit policy around each step, and the state
// that makes a run auditable and safe to stop early.
package run

import (
	"errors"

	"github.com/wpsteward/wpsteward/internal/domain/backup"
	"github.com/wpsteward/wpsteward/internal/domain/step"
)

// DefaultSeparator joins commit message segments.
const DefaultSeparator = ": "

// DefaultRemovePaths lists stray paths some updaters leave behind in the
// installation; they are removed after each step, before its commit.
var DefaultRemovePaths = []string{"{path}/$XDG_CACHE_HOME"}

// Config is the read-only configuration of a single run.
type Config struct {
	// Path is the WordPress installation to update.
	Path string

	// BackupEnabled snapshots the database before every step.
	BackupEnabled bool

	// CommitEnabled records a version-control commit after every step that
	// changed files.
	CommitEnabled bool

	// Steps restricts which steps run. Empty means all. Order is ignored:
	// steps always execute in registry order.
	Steps []step.ID

	// BackupTemplate is the dump destination template; see backup.ExpandTemplate.
	BackupTemplate string

	// CommitPrefix is prepended to every commit message.
	CommitPrefix string

	// Separator joins commit message segments.
	Separator string

	// ExcludePlugins and ExcludeThemes name items the update steps skip.
	ExcludePlugins []string
	ExcludeThemes  []string

	// RemovePaths are deleted after each step, before committing. The
	// {path} placeholder expands to the installation path.
	RemovePaths []string

	// Rules overrides the outcome classification rules. Nil keeps defaults.
	Rules step.Rules

	// DryRun walks the steps without invoking any external command.
	DryRun bool
}

// DefaultConfig returns the standard configuration for an installation.
func DefaultConfig(path string) Config {
	return Config{
		Path:           path,
		BackupEnabled:  true,
		CommitEnabled:  true,
		BackupTemplate: backup.DefaultTemplate,
		Separator:      DefaultSeparator,
		RemovePaths:    append([]string(nil), DefaultRemovePaths...),
	}
}

// Validate checks the configuration for a runnable state.
func (c Config) Validate() error {
	if c.Path == "" {
		return errors.New("installation path is required")
	}
	if c.BackupEnabled && c.BackupTemplate == "" {
		return errors.New("backup template is required when backups are enabled")
	}
	if _, err := step.Select(c.Steps); err != nil {
		return err
	}
	return nil
}
