package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wpsteward/wpsteward/internal/adapters/command"
	"github.com/wpsteward/wpsteward/internal/adapters/logging"
	"github.com/wpsteward/wpsteward/internal/app"
	"github.com/wpsteward/wpsteward/internal/domain/config"
	"github.com/wpsteward/wpsteward/internal/domain/run"
	"github.com/wpsteward/wpsteward/internal/ports"
	"github.com/wpsteward/wpsteward/internal/tui"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Run the ordered update steps against an installation",
	Long: `Update walks the steps in order: core, plugins, themes, translations.

Before each step the database is dumped as a rollback point; after each step
that changed files a commit records the changeset. A failing step stops the
run so earlier commits stay intact.

Examples:
  wpsteward update --path /srv/www
  wpsteward update --path /srv/www --steps core,plugins
  wpsteward update --path /srv/www --no-backup --dry-run`,
	RunE: runUpdate,
}

var (
	updatePath           string
	updateNoBackup       bool
	updateNoCommit       bool
	updateSteps          []string
	updateDatabasePath   string
	updateCommitPrefix   string
	updateSeparator      string
	updateExcludePlugins []string
	updateExcludeThemes  []string
	updateRemovePaths    []string
	updateRulesFile      string
	updateDryRun         bool
)

func init() {
	updateCmd.Flags().StringVarP(&updatePath, "path", "p", "", "WordPress installation path (default: current directory)")
	updateCmd.Flags().BoolVar(&updateNoBackup, "no-backup", false, "Skip the database backup before each step")
	updateCmd.Flags().BoolVar(&updateNoCommit, "no-commit", false, "Skip the commit after each step")
	updateCmd.Flags().StringSliceVar(&updateSteps, "steps", nil, "Steps to run (default: all, always in canonical order)")
	updateCmd.Flags().StringVar(&updateDatabasePath, "database-file-path", "", "Dump destination template ({path}, {step}, {unix_time})")
	updateCmd.Flags().StringVar(&updateCommitPrefix, "commit-prefix", "", "Prefix for every commit message")
	updateCmd.Flags().StringVar(&updateSeparator, "separator", "", "Separator between commit message segments")
	updateCmd.Flags().StringSliceVar(&updateExcludePlugins, "exclude-plugin", nil, "Plugin to exclude from updates (repeatable)")
	updateCmd.Flags().StringSliceVar(&updateExcludeThemes, "exclude-theme", nil, "Theme to exclude from updates (repeatable)")
	updateCmd.Flags().StringSliceVar(&updateRemovePaths, "remove-path", nil, "Stray path to delete after each step (repeatable)")
	updateCmd.Flags().StringVar(&updateRulesFile, "rules", "", "YAML file overriding outcome classification rules")
	updateCmd.Flags().BoolVar(&updateDryRun, "dry-run", false, "Walk the steps without running any command")

	rootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, _ []string) error {
	cfg, err := buildRunConfig(cmd)
	if err != nil {
		return err
	}

	opts := []app.Option{app.WithLogger(loggerForVerbosity())}
	if verbose {
		// Stream wp-cli output live instead of only capturing it.
		opts = append(opts, app.WithRunner(command.NewStreamingRunner(cmd.OutOrStdout())))
	}
	a := app.New(opts...)

	report, err := a.Update(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	fmt.Print(tui.RenderReport(report))

	if report.Aborted() {
		return abortError(report)
	}
	return nil
}

// buildRunConfig layers the config file under the command-line flags.
func buildRunConfig(cmd *cobra.Command) (run.Config, error) {
	cfg := run.DefaultConfig("")

	file, _, err := config.Resolve(cfgFile)
	if err != nil {
		return run.Config{}, err
	}
	cfg, err = file.Apply(cfg)
	if err != nil {
		return run.Config{}, err
	}

	if updatePath != "" {
		cfg.Path = updatePath
	}
	if updateNoBackup {
		cfg.BackupEnabled = false
	}
	if updateNoCommit {
		cfg.CommitEnabled = false
	}
	if updateDatabasePath != "" {
		cfg.BackupTemplate = updateDatabasePath
	}
	// Changed, not non-empty: an explicit empty prefix or separator must win
	// over the file and the default.
	if cmd.Flags().Changed("commit-prefix") {
		cfg.CommitPrefix = updateCommitPrefix
	}
	if cmd.Flags().Changed("separator") {
		cfg.Separator = updateSeparator
	}
	if len(updateExcludePlugins) > 0 {
		cfg.ExcludePlugins = updateExcludePlugins
	}
	if len(updateExcludeThemes) > 0 {
		cfg.ExcludeThemes = updateExcludeThemes
	}
	if len(updateRemovePaths) > 0 {
		cfg.RemovePaths = updateRemovePaths
	}
	cfg.DryRun = updateDryRun

	if len(updateSteps) > 0 {
		ids, err := config.ParseSteps(updateSteps)
		if err != nil {
			return run.Config{}, err
		}
		cfg.Steps = ids
	}

	if updateRulesFile != "" {
		rules, err := config.LoadRules(updateRulesFile)
		if err != nil {
			return run.Config{}, err
		}
		cfg.Rules = rules
	}

	if cfg.Path == "" {
		cfg.Path = "./"
	}

	return cfg, nil
}

// loggerForVerbosity returns a console logger at debug level with --verbose,
// info level otherwise.
func loggerForVerbosity() ports.Logger {
	level := ports.LevelInfo
	if verbose {
		level = ports.LevelDebug
	}
	return logging.NewConsoleLogger(logging.WithLevel(level))
}

// abortError converts an aborted report's cause into the process exit error.
func abortError(report run.Report) error {
	if report.Cause == nil {
		return errors.New("update run aborted")
	}
	if ports.IsCommandNotFound(report.Cause) {
		var le *ports.LaunchError
		if errors.As(report.Cause, &le) {
			return config.NewToolMissingError(le.Command).WithUnderlying(le)
		}
	}
	return report.Cause
}
