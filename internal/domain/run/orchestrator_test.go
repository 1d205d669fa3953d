package run

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wpsteward/wpsteward/internal/domain/backup"
	"github.com/wpsteward/wpsteward/internal/domain/step"
	"github.com/wpsteward/wpsteward/internal/ports"
	"github.com/wpsteward/wpsteward/internal/testutil/mocks"
)

const sitePath = "/srv/www"

var fixedTime = time.Unix(1700000000, 0)

// harness bundles the mocks behind an orchestrator with a fixed clock.
type harness struct {
	runner *mocks.CommandRunner
	fs     *mocks.FileSystem
	orch   *Orchestrator
}

func newHarness() *harness {
	runner := mocks.NewCommandRunner()
	fs := mocks.NewFileSystem()
	backups := backup.NewController(runner, fs).WithClock(func() time.Time { return fixedTime })
	orch := NewOrchestrator(runner, fs).WithBackupController(backups)
	return &harness{runner: runner, fs: fs, orch: orch}
}

// dumpDest returns the deterministic dump path for a step under the fixed clock.
func dumpDest(id step.ID) string {
	return backup.ExpandTemplate(backup.DefaultTemplate, sitePath, id, fixedTime)
}

func (h *harness) expectBackup(id step.ID) {
	dest := dumpDest(id)
	h.runner.AddResult("wp", []string{"db", "export", dest, "--defaults", "--path=" + sitePath},
		ports.CommandResult{Stdout: "Success: Exported."})
	h.fs.AddFile(dest, 4096)
}

func (h *harness) expectCoreStep(before, after string) {
	h.runner.AddResult("wp", []string{"core", "version", "--path=" + sitePath},
		ports.CommandResult{Stdout: before + "\n"})
	h.runner.AddResult("wp", []string{"core", "version", "--path=" + sitePath},
		ports.CommandResult{Stdout: after + "\n"})
	h.runner.AddResult("wp",
		[]string{"plugin", "list", "--fields=name", "--status=active", "--format=json", "--path=" + sitePath},
		ports.CommandResult{Stdout: `[{"name":"akismet"}]`})
	h.runner.AddResult("wp", []string{"plugin", "deactivate", "akismet", "--path=" + sitePath},
		ports.CommandResult{Stdout: "Success: Deactivated."})
	h.runner.AddResult("wp", []string{"plugin", "activate", "akismet", "--path=" + sitePath},
		ports.CommandResult{Stdout: "Success: Activated."})
	h.runner.AddResult("wp", []string{"core", "update", "--path=" + sitePath},
		ports.CommandResult{Stdout: "Success: WordPress updated successfully."})
}

func (h *harness) expectPluginsStep(result ports.CommandResult) {
	h.runner.AddResult("wp",
		[]string{"plugin", "list", "--update=available", "--fields=name,version,update_version", "--format=json", "--path=" + sitePath},
		ports.CommandResult{Stdout: `[{"name":"akismet","version":"5.0","update_version":"5.1"}]`})
	h.runner.AddResult("wp", []string{"plugin", "update", "--all", "--path=" + sitePath}, result)
}

func (h *harness) expectThemesStep() {
	h.runner.AddResult("wp",
		[]string{"theme", "list", "--update=available", "--fields=name,version,update_version", "--format=json", "--path=" + sitePath},
		ports.CommandResult{Stdout: `[]`})
	h.runner.AddResult("wp", []string{"theme", "update", "--all", "--path=" + sitePath},
		ports.CommandResult{Stdout: "Success: Updated 1 of 1 themes."})
}

func (h *harness) expectTranslationsStep() {
	h.runner.AddResult("wp", []string{"language", "core", "update", "--path=" + sitePath},
		ports.CommandResult{Stdout: "Success: Updated translations."})
	h.runner.AddResult("wp", []string{"language", "plugin", "update", "--all", "--path=" + sitePath},
		ports.CommandResult{Stdout: "Success: Updated translations."})
	h.runner.AddResult("wp", []string{"language", "theme", "update", "--all", "--path=" + sitePath},
		ports.CommandResult{Stdout: "Success: Updated translations."})
}

func (h *harness) expectDirtyTree() {
	h.runner.AddResult("git", []string{"-C", sitePath, "status", "--porcelain"},
		ports.CommandResult{Stdout: " M wp-includes/version.php\n"})
	h.runner.AddResult("git", []string{"-C", sitePath, "add", "-A"}, ports.CommandResult{})
}

func (h *harness) expectCommit(message string) {
	h.runner.AddResult("git", []string{"-C", sitePath, "commit", "-m", message},
		ports.CommandResult{Stdout: "[main abc1234] " + message})
}

// commandInvoked reports whether any recorded call contains the fragment.
func (h *harness) commandInvoked(fragment string) bool {
	for _, call := range h.runner.CallStrings() {
		if strings.Contains(call, fragment) {
			return true
		}
	}
	return false
}

func TestOrchestrator_FullRun_AllStepsSucceed(t *testing.T) {
	h := newHarness()

	for _, id := range step.AllIDs() {
		h.expectBackup(id)
	}
	h.expectCoreStep("6.4.2", "6.5.0")
	h.expectPluginsStep(ports.CommandResult{Stdout: "Success: Updated 1 of 1 plugins."})
	h.expectThemesStep()
	h.expectTranslationsStep()
	h.expectDirtyTree()
	h.expectCommit("Update: Core: 6.4.2 -> 6.5.0")
	h.expectCommit("Update: Plugins: akismet 5.0 -> 5.1")
	h.expectCommit("Update: Themes")
	h.expectCommit("Update: Translations")

	report, err := h.orch.Execute(context.Background(), DefaultConfig(sitePath))
	require.NoError(t, err)

	require.True(t, report.Completed())
	require.Len(t, report.Steps, 4)

	for i, id := range step.AllIDs() {
		sr := report.Steps[i]
		assert.Equal(t, id, sr.Step.ID(), "step order must match the registry")
		assert.False(t, sr.Outcome.Failed())
		require.NotNil(t, sr.Backup, "step %s should have a backup", id)
		assert.Equal(t, dumpDest(id), sr.Backup.Path)
		assert.True(t, sr.Committed, "step %s should be committed", id)
		assert.True(t, strings.HasPrefix(sr.CommitMessage, "Update: "), "message %q", sr.CommitMessage)
	}

	assert.Equal(t, "Update: Core: 6.4.2 -> 6.5.0", report.Steps[0].CommitMessage)
	assert.Equal(t, "Update: Plugins: akismet 5.0 -> 5.1", report.Steps[1].CommitMessage)
	assert.Equal(t, "Update: Themes", report.Steps[2].CommitMessage)
	assert.Equal(t, "Update: Translations", report.Steps[3].CommitMessage)
}

func TestOrchestrator_FailedStepHaltsRun(t *testing.T) {
	h := newHarness()

	h.expectBackup(step.IDCore)
	h.expectBackup(step.IDPlugins)
	h.expectCoreStep("6.4.2", "6.5.0")
	h.expectPluginsStep(ports.CommandResult{ExitCode: 1, Stderr: "Error: Could not download package."})
	h.expectDirtyTree()
	h.expectCommit("Update: Core: 6.4.2 -> 6.5.0")

	report, err := h.orch.Execute(context.Background(), DefaultConfig(sitePath))
	require.NoError(t, err)

	require.True(t, report.Aborted())
	require.Len(t, report.Steps, 2, "outcomes must stop at the failed step")

	assert.Equal(t, step.IDCore, report.Steps[0].Step.ID())
	assert.True(t, report.Steps[0].Committed)

	failed := report.Steps[1]
	assert.Equal(t, step.IDPlugins, failed.Step.ID())
	assert.True(t, failed.Outcome.Failed())
	assert.True(t, failed.Attempted)
	require.NotNil(t, failed.Backup)
	assert.False(t, failed.Committed)

	var stepErr *StepFailureError
	require.ErrorAs(t, report.Cause, &stepErr)
	assert.Equal(t, step.IDPlugins, stepErr.Step)

	// Later steps were never attempted.
	assert.False(t, h.commandInvoked("theme update"))
	assert.False(t, h.commandInvoked("language core update"))
}

func TestOrchestrator_BackupFailurePreventsUpdate(t *testing.T) {
	h := newHarness()

	dest := dumpDest(step.IDCore)
	h.runner.AddResult("wp", []string{"db", "export", dest, "--defaults", "--path=" + sitePath},
		ports.CommandResult{ExitCode: 1, Stderr: "Error: Access denied."})

	report, err := h.orch.Execute(context.Background(), DefaultConfig(sitePath))
	require.NoError(t, err)

	require.True(t, report.Aborted())
	require.Len(t, report.Steps, 1)
	assert.False(t, report.Steps[0].Attempted, "the update command must not run without its backup")
	assert.Nil(t, report.Steps[0].Backup)

	var backupErr *backup.Error
	require.ErrorAs(t, report.Cause, &backupErr)

	assert.False(t, h.commandInvoked("core update"))
}

func TestOrchestrator_EmptyArtifactPreventsUpdate(t *testing.T) {
	h := newHarness()

	dest := dumpDest(step.IDCore)
	h.runner.AddResult("wp", []string{"db", "export", dest, "--defaults", "--path=" + sitePath},
		ports.CommandResult{Stdout: "Success."})
	h.fs.AddFile(dest, 0)

	report, err := h.orch.Execute(context.Background(), DefaultConfig(sitePath))
	require.NoError(t, err)

	require.True(t, report.Aborted())
	assert.False(t, h.commandInvoked("core update"))
}

func TestOrchestrator_LaunchErrorAborts(t *testing.T) {
	h := newHarness()

	cfg := DefaultConfig(sitePath)
	cfg.BackupEnabled = false
	cfg.CommitEnabled = false
	cfg.Steps = []step.ID{step.IDPlugins}

	launchErr := &ports.LaunchError{Command: "wp", Err: errors.New("executable not found")}
	h.runner.AddResult("wp",
		[]string{"plugin", "list", "--update=available", "--fields=name,version,update_version", "--format=json", "--path=" + sitePath},
		ports.CommandResult{Stdout: `[]`})
	h.runner.AddError("wp", []string{"plugin", "update", "--all", "--path=" + sitePath}, launchErr)

	report, err := h.orch.Execute(context.Background(), cfg)
	require.NoError(t, err)

	require.True(t, report.Aborted())
	var le *ports.LaunchError
	assert.ErrorAs(t, report.Cause, &le)
}

func TestOrchestrator_CommitFailureIsWarningOnly(t *testing.T) {
	h := newHarness()

	cfg := DefaultConfig(sitePath)
	cfg.BackupEnabled = false
	cfg.Steps = []step.ID{step.IDPlugins}

	h.expectPluginsStep(ports.CommandResult{Stdout: "Success: Updated 1 of 1 plugins."})
	h.expectDirtyTree()
	h.runner.AddResult("git", []string{"-C", sitePath, "commit", "-m", "Update: Plugins: akismet 5.0 -> 5.1"},
		ports.CommandResult{ExitCode: 1, Stderr: "fatal: empty ident name"})

	report, err := h.orch.Execute(context.Background(), cfg)
	require.NoError(t, err)

	require.True(t, report.Completed(), "a commit failure must not abort the run")
	require.Len(t, report.Steps, 1)
	assert.True(t, report.Steps[0].Outcome.Succeeded())
	assert.False(t, report.Steps[0].Committed)
	assert.NotEmpty(t, report.Steps[0].Warnings)
}

func TestOrchestrator_NoChangesMeansNoCommit(t *testing.T) {
	h := newHarness()

	cfg := DefaultConfig(sitePath)
	cfg.BackupEnabled = false
	cfg.Steps = []step.ID{step.IDCore}

	h.runner.AddResult("wp", []string{"core", "version", "--path=" + sitePath},
		ports.CommandResult{Stdout: "6.4.2\n"})
	h.runner.AddResult("wp",
		[]string{"plugin", "list", "--fields=name", "--status=active", "--format=json", "--path=" + sitePath},
		ports.CommandResult{Stdout: `[]`})
	h.runner.AddResult("wp", []string{"core", "update", "--path=" + sitePath},
		ports.CommandResult{Stdout: "Success: WordPress is up to date."})
	h.runner.AddResult("git", []string{"-C", sitePath, "status", "--porcelain"},
		ports.CommandResult{Stdout: "\n"})

	report, err := h.orch.Execute(context.Background(), cfg)
	require.NoError(t, err)

	require.True(t, report.Completed())
	require.Len(t, report.Steps, 1)
	assert.True(t, report.Steps[0].Outcome.Skipped())
	assert.Nil(t, report.Steps[0].Backup)
	assert.False(t, report.Steps[0].Committed)
	assert.False(t, h.commandInvoked("add -A"))
}

func TestOrchestrator_SecondRunIsIdempotent(t *testing.T) {
	h := newHarness()

	cfg := DefaultConfig(sitePath)
	cfg.BackupEnabled = false

	// First run applies updates; the second finds everything current.
	h.runner.AddResult("wp", []string{"core", "version", "--path=" + sitePath},
		ports.CommandResult{Stdout: "6.4.2\n"})
	h.runner.AddResult("wp", []string{"core", "version", "--path=" + sitePath},
		ports.CommandResult{Stdout: "6.5.0\n"})
	h.runner.AddResult("wp", []string{"core", "version", "--path=" + sitePath},
		ports.CommandResult{Stdout: "6.5.0\n"})
	h.runner.AddResult("wp",
		[]string{"plugin", "list", "--fields=name", "--status=active", "--format=json", "--path=" + sitePath},
		ports.CommandResult{Stdout: `[]`})
	h.runner.AddResult("wp", []string{"core", "update", "--path=" + sitePath},
		ports.CommandResult{Stdout: "Success: WordPress updated successfully."})
	h.runner.AddResult("wp", []string{"core", "update", "--path=" + sitePath},
		ports.CommandResult{Stdout: "Success: WordPress is up to date."})

	h.runner.AddResult("wp",
		[]string{"plugin", "list", "--update=available", "--fields=name,version,update_version", "--format=json", "--path=" + sitePath},
		ports.CommandResult{Stdout: `[{"name":"akismet","version":"5.0","update_version":"5.1"}]`})
	h.runner.AddResult("wp",
		[]string{"plugin", "list", "--update=available", "--fields=name,version,update_version", "--format=json", "--path=" + sitePath},
		ports.CommandResult{Stdout: `[]`})
	h.runner.AddResult("wp", []string{"plugin", "update", "--all", "--path=" + sitePath},
		ports.CommandResult{Stdout: "Success: Updated 1 of 1 plugins."})
	h.runner.AddResult("wp", []string{"plugin", "update", "--all", "--path=" + sitePath},
		ports.CommandResult{Stdout: "Success: Nothing to update."})

	h.runner.AddResult("wp",
		[]string{"theme", "list", "--update=available", "--fields=name,version,update_version", "--format=json", "--path=" + sitePath},
		ports.CommandResult{Stdout: `[]`})
	h.runner.AddResult("wp", []string{"theme", "update", "--all", "--path=" + sitePath},
		ports.CommandResult{Stdout: "Success: Updated 1 of 1 themes."})
	h.runner.AddResult("wp", []string{"theme", "update", "--all", "--path=" + sitePath},
		ports.CommandResult{Stdout: "Success: Nothing to update."})

	for _, args := range [][]string{
		{"language", "core", "update", "--path=" + sitePath},
		{"language", "plugin", "update", "--all", "--path=" + sitePath},
		{"language", "theme", "update", "--all", "--path=" + sitePath},
	} {
		h.runner.AddResult("wp", args, ports.CommandResult{Stdout: "Success: Updated translations."})
		h.runner.AddResult("wp", args, ports.CommandResult{Stdout: "Success: Nothing to update."})
	}

	// The tree is dirty after each first-run step and clean thereafter.
	for range step.AllIDs() {
		h.runner.AddResult("git", []string{"-C", sitePath, "status", "--porcelain"},
			ports.CommandResult{Stdout: " M wp-includes/version.php\n"})
	}
	h.runner.AddResult("git", []string{"-C", sitePath, "status", "--porcelain"},
		ports.CommandResult{Stdout: ""})
	h.runner.AddResult("git", []string{"-C", sitePath, "add", "-A"}, ports.CommandResult{})
	h.expectCommit("Update: Core: 6.4.2 -> 6.5.0")
	h.expectCommit("Update: Plugins: akismet 5.0 -> 5.1")
	h.expectCommit("Update: Themes")
	h.expectCommit("Update: Translations")

	first, err := h.orch.Execute(context.Background(), cfg)
	require.NoError(t, err)
	require.True(t, first.Completed())
	for _, sr := range first.Steps {
		assert.True(t, sr.Committed, "step %s should be committed on the first run", sr.Step.ID())
	}

	second, err := h.orch.Execute(context.Background(), cfg)
	require.NoError(t, err)
	require.True(t, second.Completed())
	require.Len(t, second.Steps, 4)

	for _, sr := range second.Steps {
		assert.True(t, sr.Outcome.Skipped(), "step %s should be a no-op on the second run", sr.Step.ID())
		assert.False(t, sr.Committed)
	}
	assert.NotEqual(t, first.RunID, second.RunID)

	commits := 0
	for _, call := range h.runner.CallStrings() {
		if strings.Contains(call, "commit -m") {
			commits++
		}
	}
	assert.Equal(t, 4, commits, "the no-op run must not add commits")
}

func TestOrchestrator_SubsetRunsInRegistryOrder(t *testing.T) {
	h := newHarness()

	cfg := DefaultConfig(sitePath)
	cfg.BackupEnabled = false
	cfg.CommitEnabled = false
	// Requested backwards; must still run core first.
	cfg.Steps = []step.ID{step.IDTranslations, step.IDCore}

	h.expectCoreStep("6.4.2", "6.5.0")
	h.expectTranslationsStep()

	report, err := h.orch.Execute(context.Background(), cfg)
	require.NoError(t, err)

	require.True(t, report.Completed())
	require.Len(t, report.Steps, 2)
	assert.Equal(t, step.IDCore, report.Steps[0].Step.ID())
	assert.Equal(t, step.IDTranslations, report.Steps[1].Step.ID())
}

func TestOrchestrator_ExcludedPluginsArePassedThrough(t *testing.T) {
	h := newHarness()

	cfg := DefaultConfig(sitePath)
	cfg.BackupEnabled = false
	cfg.CommitEnabled = false
	cfg.Steps = []step.ID{step.IDPlugins}
	cfg.ExcludePlugins = []string{"akismet"}

	h.runner.AddResult("wp",
		[]string{"plugin", "list", "--update=available", "--fields=name,version,update_version", "--format=json", "--path=" + sitePath},
		ports.CommandResult{Stdout: `[{"name":"akismet","version":"5.0","update_version":"5.1"}]`})
	h.runner.AddResult("wp",
		[]string{"plugin", "update", "--all", "--exclude=akismet", "--path=" + sitePath},
		ports.CommandResult{Stdout: "Success: Nothing to update."})

	report, err := h.orch.Execute(context.Background(), cfg)
	require.NoError(t, err)

	require.True(t, report.Completed())
	assert.True(t, report.Steps[0].Outcome.Skipped())
}

func TestOrchestrator_RemovesStrayPaths(t *testing.T) {
	h := newHarness()

	cfg := DefaultConfig(sitePath)
	cfg.BackupEnabled = false
	cfg.CommitEnabled = false
	cfg.Steps = []step.ID{step.IDTranslations}

	stray := sitePath + "/$XDG_CACHE_HOME"
	h.fs.AddDir(stray)
	h.expectTranslationsStep()

	report, err := h.orch.Execute(context.Background(), cfg)
	require.NoError(t, err)

	require.True(t, report.Completed())
	assert.False(t, h.fs.Exists(stray))
}

func TestOrchestrator_DryRun(t *testing.T) {
	h := newHarness()

	cfg := DefaultConfig(sitePath)
	cfg.DryRun = true

	report, err := h.orch.Execute(context.Background(), cfg)
	require.NoError(t, err)

	require.True(t, report.Completed())
	require.Len(t, report.Steps, 4)
	for _, sr := range report.Steps {
		assert.True(t, sr.Outcome.Skipped())
		assert.False(t, sr.Attempted)
	}
	assert.Empty(t, h.runner.Calls(), "dry run must not invoke external commands")
}

func TestOrchestrator_ContextCancellation(t *testing.T) {
	h := newHarness()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := h.orch.Execute(ctx, DefaultConfig(sitePath))
	require.NoError(t, err)

	require.True(t, report.Aborted())
	assert.Empty(t, report.Steps)
	assert.ErrorIs(t, report.Cause, context.Canceled)
}

func TestOrchestrator_CustomRules(t *testing.T) {
	h := newHarness()

	cfg := DefaultConfig(sitePath)
	cfg.BackupEnabled = false
	cfg.CommitEnabled = false
	cfg.Steps = []step.ID{step.IDPlugins}
	cfg.Rules = step.Rules{
		step.IDPlugins: {SkipMarkers: []string{"all quiet"}},
	}

	h.runner.AddResult("wp",
		[]string{"plugin", "list", "--update=available", "--fields=name,version,update_version", "--format=json", "--path=" + sitePath},
		ports.CommandResult{Stdout: `[]`})
	h.runner.AddResult("wp", []string{"plugin", "update", "--all", "--path=" + sitePath},
		ports.CommandResult{Stdout: "all quiet on the plugin front"})

	report, err := h.orch.Execute(context.Background(), cfg)
	require.NoError(t, err)

	require.True(t, report.Completed())
	assert.True(t, report.Steps[0].Outcome.Skipped())
}

func TestOrchestrator_InvalidConfig(t *testing.T) {
	h := newHarness()

	_, err := h.orch.Execute(context.Background(), Config{})
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig(sitePath)
	assert.NoError(t, cfg.Validate())

	cfg.Steps = []step.ID{step.ID("bogus")}
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig(sitePath)
	cfg.BackupTemplate = ""
	assert.Error(t, cfg.Validate())

	cfg.BackupEnabled = false
	assert.NoError(t, cfg.Validate(), "template is only required when backups are enabled")
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig(sitePath)
	assert.True(t, cfg.BackupEnabled)
	assert.True(t, cfg.CommitEnabled)
	assert.Equal(t, backup.DefaultTemplate, cfg.BackupTemplate)
	assert.Equal(t, DefaultSeparator, cfg.Separator)
	assert.Empty(t, cfg.Steps)
}
