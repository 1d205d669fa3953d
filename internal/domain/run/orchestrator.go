package run

import (
	"context"
	"strings"
	"time"

	"golang.org/x/mod/semver"

	"github.com/wpsteward/wpsteward/internal/domain/backup"
	"github.com/wpsteward/wpsteward/internal/domain/step"
	"github.com/wpsteward/wpsteward/internal/domain/vcs"
	"github.com/wpsteward/wpsteward/internal/domain/wpcli"
	"github.com/wpsteward/wpsteward/internal/ports"
)

// Orchestrator walks the selected steps in registry order, applying the
// configured backup and commit policy around each one. It is the single
// place that turns component failures into abort-or-continue decisions;
// the controllers below it only report their own outcome.
type Orchestrator struct {
	runner     ports.CommandRunner
	fs         ports.FileSystem
	backups    *backup.Controller
	committer  *vcs.Committer
	classifier step.Classifier
	logger     ports.Logger
	wpBin      string
}

// NewOrchestrator creates an orchestrator with default controllers.
func NewOrchestrator(runner ports.CommandRunner, fs ports.FileSystem) *Orchestrator {
	return &Orchestrator{
		runner:     runner,
		fs:         fs,
		backups:    backup.NewController(runner, fs),
		committer:  vcs.NewCommitter(runner),
		classifier: step.NewRuleClassifier(step.DefaultRules()),
		wpBin:      wpcli.DefaultBin,
	}
}

// WithBackupController replaces the backup controller.
func (o *Orchestrator) WithBackupController(c *backup.Controller) *Orchestrator {
	clone := *o
	clone.backups = c
	return &clone
}

// WithCommitter replaces the commit controller.
func (o *Orchestrator) WithCommitter(c *vcs.Committer) *Orchestrator {
	clone := *o
	clone.committer = c
	return &clone
}

// WithClassifier replaces the outcome classifier.
func (o *Orchestrator) WithClassifier(c step.Classifier) *Orchestrator {
	clone := *o
	clone.classifier = c
	return &clone
}

// WithLogger sets the logger.
func (o *Orchestrator) WithLogger(l ports.Logger) *Orchestrator {
	clone := *o
	clone.logger = l
	return &clone
}

// Execute performs one run. The returned error covers configuration
// problems only; step failures abort the run and are reported through the
// Report's Status and Cause.
func (o *Orchestrator) Execute(ctx context.Context, cfg Config) (Report, error) {
	if err := cfg.Validate(); err != nil {
		return Report{}, err
	}

	steps, err := step.Select(cfg.Steps)
	if err != nil {
		return Report{}, err
	}

	classifier := o.classifier
	if cfg.Rules != nil {
		classifier = step.NewRuleClassifier(step.DefaultRules().Merge(cfg.Rules))
	}

	state := NewState()
	lc, err := newLifecycle(state.RunID)
	if err != nil {
		return Report{}, err
	}
	defer lc.stop()

	lc.send(eventStart)
	state.Status = lc.status()
	o.info(ctx, "run started",
		ports.F("run_id", state.RunID),
		ports.F("steps", len(steps)),
		ports.F("backup", cfg.BackupEnabled),
		ports.F("commit", cfg.CommitEnabled))

	wp := wpcli.NewClient(o.runner, cfg.Path).WithBin(o.wpBin)

	for _, st := range steps {
		if err := ctx.Err(); err != nil {
			o.abort(ctx, state, lc, err)
			break
		}

		report, fatal := o.runStep(ctx, wp, cfg, st, classifier)
		state.Record(report)

		if fatal != nil {
			o.abort(ctx, state, lc, fatal)
			break
		}
	}

	if state.Status == StatusRunning {
		lc.send(eventComplete)
		state.Status = lc.status()
		o.info(ctx, "run completed", ports.F("run_id", state.RunID))
	}

	return state.snapshot(), nil
}

// runStep performs the backup -> update -> cleanup -> commit cycle for one
// step. A non-nil fatal error aborts the run.
func (o *Orchestrator) runStep(ctx context.Context, wp *wpcli.Client, cfg Config, st step.Step, classifier step.Classifier) (StepReport, error) {
	report := StepReport{Step: st}
	start := time.Now()
	defer func() { report.Duration = time.Since(start) }()

	o.info(ctx, "step started", ports.F("step", string(st.ID())))

	if cfg.DryRun {
		report.Outcome = step.Outcome{Kind: step.OutcomeSkipped, Reason: "dry run"}
		return report, nil
	}

	// The backup is the step's rollback mechanism: without it the update
	// command must not run.
	if cfg.BackupEnabled {
		artifact, err := o.backups.Snapshot(ctx, cfg.Path, cfg.BackupTemplate, st.ID())
		if err != nil {
			report.Outcome = step.Outcome{Kind: step.OutcomeFailed, Reason: err.Error()}
			return report, err
		}
		report.Backup = &artifact
		o.info(ctx, "database backed up",
			ports.F("step", string(st.ID())),
			ports.F("artifact", artifact.Path))
	}

	report.Attempted = true
	outcome, detail, err := o.performStep(ctx, wp, cfg, st, classifier)
	if err != nil {
		report.Outcome = step.Outcome{Kind: step.OutcomeFailed, Reason: err.Error()}
		return report, err
	}
	report.Outcome = outcome
	if outcome.Failed() {
		return report, &StepFailureError{Step: st.ID(), Reason: outcome.Reason}
	}

	o.cleanup(ctx, cfg, &report)

	if cfg.CommitEnabled {
		o.commitStep(ctx, cfg, st, detail, &report)
	}

	return report, nil
}

// performStep runs the step's external commands and classifies the result.
func (o *Orchestrator) performStep(ctx context.Context, wp *wpcli.Client, cfg Config, st step.Step, classifier step.Classifier) (step.Outcome, string, error) {
	if st.ID() == step.IDCore {
		return o.performCore(ctx, wp, cfg, st, classifier)
	}

	var detail string
	var exclude []string
	switch st.ID() {
	case step.IDPlugins:
		exclude = cfg.ExcludePlugins
		detail = o.updateDetail(ctx, wp, wpcli.KindPlugin, exclude)
	case step.IDThemes:
		exclude = cfg.ExcludeThemes
		detail = o.updateDetail(ctx, wp, wpcli.KindTheme, exclude)
	}

	outcome, err := o.runCommands(ctx, st, cfg.Path, exclude, classifier)
	return outcome, detail, err
}

// performCore wraps the core update with plugin deactivation: active plugins
// can break the core upgrader, so they are turned off for the duration and
// reactivated afterwards.
func (o *Orchestrator) performCore(ctx context.Context, wp *wpcli.Client, cfg Config, st step.Step, classifier step.Classifier) (step.Outcome, string, error) {
	before, err := wp.CoreVersion(ctx)
	if err != nil {
		return step.Outcome{}, "", err
	}

	active, err := wp.ActivePlugins(ctx)
	if err != nil {
		return step.Outcome{}, "", err
	}
	if err := wp.SetActive(ctx, active, false); err != nil {
		return step.Outcome{}, "", err
	}

	outcome, err := o.runCommands(ctx, st, cfg.Path, nil, classifier)
	if err != nil || outcome.Failed() {
		return outcome, "", err
	}

	if err := wp.SetActive(ctx, active, true); err != nil {
		return step.Outcome{}, "", err
	}

	var detail string
	after, err := wp.CoreVersion(ctx)
	if err == nil && before != "" && after != "" {
		if versionsEqual(before, after) {
			if outcome.Succeeded() {
				outcome = step.Outcome{Kind: step.OutcomeSkipped, Reason: "already at version " + after}
			}
		} else {
			detail = before + " -> " + after
		}
	}

	return outcome, detail, nil
}

// runCommands executes the step's command list in order. The step fails on
// the first failing command; it is skipped only when every command skipped.
func (o *Orchestrator) runCommands(ctx context.Context, st step.Step, path string, exclude []string, classifier step.Classifier) (step.Outcome, error) {
	allSkipped := true
	skipReason := ""

	for _, args := range st.Commands(path, exclude) {
		res, err := o.runner.Run(ctx, "", o.wpBin, args...)
		if err != nil {
			return step.Outcome{}, err
		}

		outcome := classifier.Classify(st.ID(), res)
		if outcome.Failed() {
			return outcome, nil
		}
		if outcome.Skipped() {
			if skipReason == "" {
				skipReason = outcome.Reason
			}
		} else {
			allSkipped = false
		}
	}

	if allSkipped {
		return step.Outcome{Kind: step.OutcomeSkipped, Reason: skipReason}, nil
	}
	return step.Outcome{Kind: step.OutcomeSucceeded}, nil
}

// updateDetail summarizes pending updates for the commit message. Listing
// failures only cost the message detail, never the run.
func (o *Orchestrator) updateDetail(ctx context.Context, wp *wpcli.Client, kind wpcli.Kind, exclude []string) string {
	updates, err := wp.AvailableUpdates(ctx, kind)
	if err != nil {
		return ""
	}

	excluded := make(map[string]bool, len(exclude))
	for _, name := range exclude {
		excluded[name] = true
	}

	parts := make([]string, 0, len(updates))
	for _, u := range updates {
		if !excluded[u.Name] {
			parts = append(parts, u.String())
		}
	}
	return strings.Join(parts, ", ")
}

// cleanup removes configured stray paths left behind by the update, before
// the step is committed. Removal problems are warnings, not failures.
func (o *Orchestrator) cleanup(ctx context.Context, cfg Config, report *StepReport) {
	for _, raw := range cfg.RemovePaths {
		path := strings.ReplaceAll(raw, "{path}", cfg.Path)
		if !o.fs.Exists(path) {
			continue
		}
		if err := o.fs.RemoveAll(path); err != nil {
			report.Warnings = append(report.Warnings, "remove "+path+": "+err.Error())
			continue
		}
		o.info(ctx, "removed stray path", ports.F("path", path))
	}
}

// commitStep records the step in version control. Commit problems are
// warnings: the update itself succeeded, and the operator can commit by hand.
func (o *Orchestrator) commitStep(ctx context.Context, cfg Config, st step.Step, detail string, report *StepReport) {
	changed, err := o.committer.HasChanges(ctx, cfg.Path)
	if err != nil {
		report.Warnings = append(report.Warnings, "commit skipped: "+err.Error())
		o.warn(ctx, "could not inspect working tree", ports.F("step", string(st.ID())), ports.F("error", err.Error()))
		return
	}
	if !changed {
		return
	}

	message := vcs.Message(cfg.CommitPrefix, cfg.Separator, st.Label(), detail)
	committed, err := o.committer.Commit(ctx, cfg.Path, message)
	if err != nil {
		report.Warnings = append(report.Warnings, "commit failed: "+err.Error())
		o.warn(ctx, "commit failed", ports.F("step", string(st.ID())), ports.F("error", err.Error()))
		return
	}

	report.Committed = committed
	if committed {
		report.CommitMessage = message
		o.info(ctx, "step committed", ports.F("step", string(st.ID())), ports.F("message", message))
	}
}

// abort marks the run aborted with the given cause.
func (o *Orchestrator) abort(ctx context.Context, state *State, lc *lifecycle, cause error) {
	lc.send(eventAbort)
	state.Status = lc.status()
	state.Cause = cause
	o.warn(ctx, "run aborted",
		ports.F("run_id", state.RunID),
		ports.F("error", cause.Error()))
}

// versionsEqual compares two WordPress version strings, semver-aware where
// possible.
func versionsEqual(a, b string) bool {
	va, vb := "v"+strings.TrimPrefix(a, "v"), "v"+strings.TrimPrefix(b, "v")
	if semver.IsValid(va) && semver.IsValid(vb) {
		return semver.Compare(va, vb) == 0
	}
	return a == b
}

func (o *Orchestrator) info(ctx context.Context, msg string, fields ...ports.Field) {
	if o.logger != nil {
		o.logger.Info(ctx, msg, fields...)
	}
}

func (o *Orchestrator) warn(ctx context.Context, msg string, fields ...ports.Field) {
	if o.logger != nil {
		o.logger.Warn(ctx, msg, fields...)
	}
}
