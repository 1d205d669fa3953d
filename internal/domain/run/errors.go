package run

import (
	"fmt"

	"github.com/wpsteward/wpsteward/internal/domain/step"
)

// StepFailureError reports that a step's update command failed, aborting the
// run. Prior steps' commits remain intact.
type StepFailureError struct {
	Step   step.ID
	Reason string
}

// Error returns the formatted error message.
func (e *StepFailureError) Error() string {
	return fmt.Sprintf("step %s failed: %s", e.Step, e.Reason)
}
