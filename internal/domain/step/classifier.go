package step

import (
	"strings"

	"github.com/wpsteward/wpsteward/internal/ports"
)

// Classifier interprets an external command result for a given step.
//
// Which exit codes and messages mean "nothing to update" varies between
// wp-cli versions and subcommands, so the mapping is data (Rules), not code.
type Classifier interface {
	Classify(id ID, res ports.CommandResult) Outcome
}

// RuleClassifier classifies results using per-step marker rules.
type RuleClassifier struct {
	rules Rules
}

// NewRuleClassifier creates a classifier from the given rules.
func NewRuleClassifier(rules Rules) *RuleClassifier {
	return &RuleClassifier{rules: rules}
}

// Classify maps a command result to a step outcome. Nonzero exit is always a
// failure; exit zero is a skip when the step's markers match the output, a
// success otherwise.
func (c *RuleClassifier) Classify(id ID, res ports.CommandResult) Outcome {
	if !res.Success() {
		return Outcome{Kind: OutcomeFailed, Reason: failureReason(res)}
	}

	for _, marker := range c.rules[id].SkipMarkers {
		if containsFold(res.Stdout, marker) || containsFold(res.Stderr, marker) {
			return Outcome{Kind: OutcomeSkipped, Reason: marker}
		}
	}

	return Outcome{Kind: OutcomeSucceeded}
}

// failureReason extracts a short reason from a failed command's output.
func failureReason(res ports.CommandResult) string {
	reason := strings.TrimSpace(res.Stderr)
	if reason == "" {
		reason = strings.TrimSpace(res.Stdout)
	}
	if idx := strings.IndexByte(reason, '\n'); idx >= 0 {
		reason = reason[:idx]
	}
	const maxLen = 200
	if len(reason) > maxLen {
		reason = reason[:maxLen]
	}
	return reason
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// Ensure RuleClassifier implements Classifier.
var _ Classifier = (*RuleClassifier)(nil)
