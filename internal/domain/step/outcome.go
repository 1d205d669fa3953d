package step

// OutcomeKind is the three-way result of attempting a step. The skip/succeed
// distinction matters: a skipped step changed nothing and warrants no commit.
type OutcomeKind int

const (
	// OutcomeSucceeded means the step ran and applied updates.
	OutcomeSucceeded OutcomeKind = iota
	// OutcomeSkipped means the step ran and found nothing to update.
	OutcomeSkipped
	// OutcomeFailed means the step's external command reported failure.
	OutcomeFailed
)

// String returns the string representation of the outcome kind.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the classified result of one step attempt.
type Outcome struct {
	Kind   OutcomeKind
	Reason string
}

// Succeeded returns true if the step applied updates.
func (o Outcome) Succeeded() bool {
	return o.Kind == OutcomeSucceeded
}

// Skipped returns true if the step had nothing to do.
func (o Outcome) Skipped() bool {
	return o.Kind == OutcomeSkipped
}

// Failed returns true if the step failed.
func (o Outcome) Failed() bool {
	return o.Kind == OutcomeFailed
}
