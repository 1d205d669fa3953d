// Package config loads the operator-facing configuration file and converts
// it into a run configuration. Flags always win over the file; the file wins
// over built-in defaults.
package config

import (
	"errors"
	"io/fs"
	"os"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/wpsteward/wpsteward/internal/domain/run"
	"github.com/wpsteward/wpsteward/internal/domain/step"
)

// DefaultFileName is the config file looked up in the working directory when
// no --config flag is given.
const DefaultFileName = "wpsteward.toml"

// File mirrors the wpsteward.toml layout. Booleans are pointers so an absent
// key can be told apart from an explicit false.
type File struct {
	Path         string `toml:"path"`
	Backup       *bool  `toml:"backup"`
	Commit       *bool  `toml:"commit"`
	DatabasePath string `toml:"database_file_path"`
	CommitPrefix string `toml:"commit_prefix"`
	Separator    string `toml:"separator"`
	RulesFile    string `toml:"rules_file"`

	Steps          []string `toml:"steps"`
	ExcludePlugins []string `toml:"exclude_plugins"`
	ExcludeThemes  []string `toml:"exclude_themes"`
	RemovePaths    []string `toml:"remove_paths"`
}

// Load reads and parses the config file at path.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return File{}, NewConfigNotFoundError(path)
		}
		return File{}, NewConfigParseError(path, err)
	}

	var f File
	if err := toml.Unmarshal(data, &f); err != nil {
		return File{}, NewConfigParseError(path, err)
	}
	return f, nil
}

// LoadOptional loads the config file if it exists. A missing file is not an
// error; it yields the zero File so defaults apply.
func LoadOptional(path string) (File, error) {
	f, err := Load(path)
	if IsUserError(err, ErrCodeConfigNotFound) {
		return File{}, nil
	}
	return f, err
}

// Apply layers the file's settings over cfg. Only keys present in the file
// change anything.
func (f File) Apply(cfg run.Config) (run.Config, error) {
	if f.Path != "" {
		cfg.Path = f.Path
	}
	if f.Backup != nil {
		cfg.BackupEnabled = *f.Backup
	}
	if f.Commit != nil {
		cfg.CommitEnabled = *f.Commit
	}
	if f.DatabasePath != "" {
		cfg.BackupTemplate = f.DatabasePath
	}
	if f.CommitPrefix != "" {
		cfg.CommitPrefix = f.CommitPrefix
	}
	if f.Separator != "" {
		cfg.Separator = f.Separator
	}
	if len(f.ExcludePlugins) > 0 {
		cfg.ExcludePlugins = f.ExcludePlugins
	}
	if len(f.ExcludeThemes) > 0 {
		cfg.ExcludeThemes = f.ExcludeThemes
	}
	if len(f.RemovePaths) > 0 {
		cfg.RemovePaths = f.RemovePaths
	}

	if len(f.Steps) > 0 {
		ids, err := ParseSteps(f.Steps)
		if err != nil {
			return cfg, err
		}
		cfg.Steps = ids
	}

	if f.RulesFile != "" {
		rules, err := LoadRules(f.RulesFile)
		if err != nil {
			return cfg, err
		}
		cfg.Rules = rules
	}

	return cfg, nil
}

// ParseSteps converts step names into IDs, reporting the first unknown name.
func ParseSteps(names []string) ([]step.ID, error) {
	ids := make([]step.ID, 0, len(names))
	for _, name := range names {
		id, err := step.ParseID(name)
		if err != nil {
			return nil, NewStepUnknownError(name, stepNames())
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// LoadRules reads a YAML classification rules file.
func LoadRules(path string) (step.Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewRulesInvalidError(path, err)
	}
	rules, err := step.ParseRules(data)
	if err != nil {
		return nil, NewRulesInvalidError(path, err)
	}
	return rules, nil
}

// Resolve locates the config file to use: an explicit path must exist, the
// default name is optional. The second return reports whether a file was read.
func Resolve(explicit string) (File, bool, error) {
	path := explicit
	if path == "" {
		path = DefaultFileName
		if !fileExists(path) {
			return File{}, false, nil
		}
	}

	f, err := Load(path)
	if err != nil {
		return File{}, false, err
	}
	return f, true, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func stepNames() []string {
	ids := step.AllIDs()
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = string(id)
	}
	return names
}
