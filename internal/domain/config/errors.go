package config

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for categorization.
const (
	ErrCodeConfigNotFound = "CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "CONFIG_INVALID"
	ErrCodeConfigParse    = "CONFIG_PARSE"
	ErrCodePathInvalid    = "PATH_INVALID"
	ErrCodeStepUnknown    = "STEP_UNKNOWN"
	ErrCodeRulesInvalid   = "RULES_INVALID"
	ErrCodeToolMissing    = "TOOL_MISSING"
)

// UserError represents a user-friendly error with actionable suggestions.
type UserError struct {
	Code       string // Error code for categorization (e.g., "CONFIG_NOT_FOUND")
	Message    string // User-friendly error message
	Context    string // File path or other location context
	Suggestion string // Actionable suggestion to fix the error
	Underlying error  // Wrapped error for error chain
}

// Error returns the formatted error message.
func (e *UserError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Context != "" {
		fmt.Fprintf(&b, " (at %s)", e.Context)
	}
	return b.String()
}

// Unwrap returns the underlying error for error chain support.
func (e *UserError) Unwrap() error {
	return e.Underlying
}

// Is supports errors.Is() for comparing error codes.
func (e *UserError) Is(target error) bool {
	if t, ok := target.(*UserError); ok {
		return e.Code == t.Code
	}
	return false
}

// Format returns a fully formatted error with all details.
func (e *UserError) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Code, e.Message)
	if e.Context != "" {
		fmt.Fprintf(&b, "\n  Location: %s", e.Context)
	}
	if e.Suggestion != "" {
		fmt.Fprintf(&b, "\n  Suggestion: %s", e.Suggestion)
	}
	return b.String()
}

// NewUserError creates a new UserError with the given code and message.
func NewUserError(code, message string) *UserError {
	return &UserError{
		Code:    code,
		Message: message,
	}
}

// WithContext returns a new UserError with context set.
func (e *UserError) WithContext(ctx string) *UserError {
	clone := *e
	clone.Context = ctx
	return &clone
}

// WithSuggestion returns a new UserError with suggestion set.
func (e *UserError) WithSuggestion(suggestion string) *UserError {
	clone := *e
	clone.Suggestion = suggestion
	return &clone
}

// WithUnderlying returns a new UserError wrapping another error.
func (e *UserError) WithUnderlying(err error) *UserError {
	clone := *e
	clone.Underlying = err
	return &clone
}

// Common user-friendly error constructors.

// NewConfigNotFoundError creates an error for a missing config file.
func NewConfigNotFoundError(path string) *UserError {
	return &UserError{
		Code:       ErrCodeConfigNotFound,
		Message:    fmt.Sprintf("configuration file not found: %s", path),
		Context:    path,
		Suggestion: "Create a wpsteward.toml next to your installation, or pass --path and flags directly.",
	}
}

// NewConfigParseError creates an error for TOML parsing failures.
func NewConfigParseError(path string, err error) *UserError {
	return &UserError{
		Code:       ErrCodeConfigParse,
		Message:    "failed to parse configuration file",
		Context:    path,
		Suggestion: "Check your TOML syntax. Common issues: missing quotes around strings, or '=' instead of ':'.",
		Underlying: err,
	}
}

// NewPathInvalidError creates an error for a missing or unusable installation path.
func NewPathInvalidError(path, reason string) *UserError {
	return &UserError{
		Code:       ErrCodePathInvalid,
		Message:    fmt.Sprintf("installation path %s: %s", path, reason),
		Context:    path,
		Suggestion: "Point --path (or 'path' in wpsteward.toml) at the WordPress root, the directory holding wp-config.php.",
	}
}

// NewStepUnknownError creates an error for an unrecognized step name.
func NewStepUnknownError(name string, available []string) *UserError {
	return &UserError{
		Code:       ErrCodeStepUnknown,
		Message:    fmt.Sprintf("unknown step %q", name),
		Suggestion: fmt.Sprintf("Available steps: %s", strings.Join(available, ", ")),
	}
}

// NewRulesInvalidError creates an error for an unusable classification rules file.
func NewRulesInvalidError(path string, err error) *UserError {
	return &UserError{
		Code:       ErrCodeRulesInvalid,
		Message:    "failed to load classification rules",
		Context:    path,
		Suggestion: "Rules files map step names to skip_markers lists; run 'wpsteward steps' for the step names.",
		Underlying: err,
	}
}

// NewToolMissingError creates an error for an absent external tool.
func NewToolMissingError(tool string) *UserError {
	return &UserError{
		Code:       ErrCodeToolMissing,
		Message:    fmt.Sprintf("required tool %q is not available", tool),
		Suggestion: fmt.Sprintf("Install %s and make sure it is on PATH; 'wpsteward doctor' verifies the toolchain.", tool),
	}
}

// IsUserError checks if an error is a UserError with a specific code.
func IsUserError(err error, code string) bool {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue.Code == code
	}
	return false
}

// GetUserError extracts a UserError from an error chain, if present.
func GetUserError(err error) *UserError {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue
	}
	return nil
}
