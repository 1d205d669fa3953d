package run

import (
	"time"

	"github.com/google/uuid"
	"github.com/wpsteward/wpsteward/internal/domain/backup"
	"github.com/wpsteward/wpsteward/internal/domain/step"
)

// Status is the run lifecycle state.
type Status string

// Run lifecycle states.
const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusAborted   Status = "aborted"
)

// StepReport records what happened to one step.
type StepReport struct {
	Step    step.Step
	Outcome step.Outcome

	// Attempted is false when the run aborted before the step's update
	// command ran (backup failure, cancellation).
	Attempted bool

	// Backup references the snapshot taken before the step, if any.
	Backup *backup.Artifact

	// Committed reports whether a commit was created for this step.
	Committed     bool
	CommitMessage string

	// Warnings carry recoverable problems, such as a failed commit.
	Warnings []string

	Duration time.Duration
}

// State is the orchestrator's working memory for one run. It exists only for
// the duration of the invocation and is never persisted.
type State struct {
	RunID   string
	Status  Status
	Reports []StepReport
	Cause   error
}

// NewState creates the initial state for a run.
func NewState() *State {
	return &State{
		RunID:  uuid.NewString(),
		Status: StatusIdle,
	}
}

// Record appends a step report.
func (s *State) Record(r StepReport) {
	s.Reports = append(s.Reports, r)
}

// Report is the immutable result of a run handed back to callers.
type Report struct {
	RunID  string
	Status Status
	Steps  []StepReport
	Cause  error
}

// Completed returns true if every selected step was processed.
func (r Report) Completed() bool {
	return r.Status == StatusCompleted
}

// Aborted returns true if the run stopped early.
func (r Report) Aborted() bool {
	return r.Status == StatusAborted
}

// snapshot converts the working state into a Report.
func (s *State) snapshot() Report {
	steps := make([]StepReport, len(s.Reports))
	copy(steps, s.Reports)
	return Report{
		RunID:  s.RunID,
		Status: s.Status,
		Steps:  steps,
		Cause:  s.Cause,
	}
}
