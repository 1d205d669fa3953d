// Package tui renders run reports and doctor results for the terminal.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/wpsteward/wpsteward/internal/app"
	"github.com/wpsteward/wpsteward/internal/domain/run"
	"github.com/wpsteward/wpsteward/internal/domain/step"
)

// Theme colors.
var (
	colorSuccess = lipgloss.AdaptiveColor{Light: "#40a02b", Dark: "#a6e3a1"} // Green
	colorWarning = lipgloss.AdaptiveColor{Light: "#df8e1d", Dark: "#f9e2af"} // Yellow
	colorError   = lipgloss.AdaptiveColor{Light: "#d20f39", Dark: "#f38ba8"} // Red
	colorMuted   = lipgloss.AdaptiveColor{Light: "#6c6f85", Dark: "#6c7086"} // Overlay0
	colorPrimary = lipgloss.AdaptiveColor{Light: "#1e66f5", Dark: "#89b4fa"} // Blue
)

// Styles contains the lipgloss styles used by the renderers.
type Styles struct {
	Title   lipgloss.Style
	Success lipgloss.Style
	Skipped lipgloss.Style
	Failed  lipgloss.Style
	Warning lipgloss.Style
	Muted   lipgloss.Style
}

// DefaultStyles returns the default styles.
func DefaultStyles() Styles {
	return Styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(colorPrimary),
		Success: lipgloss.NewStyle().Foreground(colorSuccess),
		Skipped: lipgloss.NewStyle().Foreground(colorMuted),
		Failed:  lipgloss.NewStyle().Foreground(colorError).Bold(true),
		Warning: lipgloss.NewStyle().Foreground(colorWarning),
		Muted:   lipgloss.NewStyle().Foreground(colorMuted),
	}
}

// outcomeIcon returns the display glyph for a step outcome.
func outcomeIcon(o step.Outcome) string {
	switch {
	case o.Failed():
		return "✗"
	case o.Skipped():
		return "○"
	default:
		return "✓"
	}
}

// RenderReport renders the run report as a multi-line summary.
func RenderReport(r run.Report) string {
	return DefaultStyles().RenderReport(r)
}

// RenderReport renders the run report using these styles.
func (s Styles) RenderReport(r run.Report) string {
	var b strings.Builder

	header := "Update run " + r.RunID
	b.WriteString(s.Title.Render(header))
	b.WriteString("\n")

	for _, sr := range r.Steps {
		b.WriteString(s.renderStep(sr))
	}

	b.WriteString("\n")
	switch {
	case r.Completed():
		b.WriteString(s.Success.Render("Run completed."))
	case r.Cause != nil:
		b.WriteString(s.Failed.Render("Run aborted: " + r.Cause.Error()))
	default:
		b.WriteString(s.Failed.Render("Run aborted."))
	}
	b.WriteString("\n")

	return b.String()
}

// renderStep renders one step's line plus its detail lines.
func (s Styles) renderStep(sr run.StepReport) string {
	var b strings.Builder

	style := s.Success
	status := "updated"
	switch {
	case sr.Outcome.Failed():
		style = s.Failed
		status = "failed"
	case sr.Outcome.Skipped():
		style = s.Skipped
		status = "skipped"
	}

	line := fmt.Sprintf("%s %s (%s)", outcomeIcon(sr.Outcome), sr.Step.Label(), status)
	b.WriteString("  " + style.Render(line) + "\n")

	if sr.Outcome.Reason != "" {
		b.WriteString("      " + s.Muted.Render(sr.Outcome.Reason) + "\n")
	}
	if sr.Backup != nil {
		b.WriteString("      " + s.Muted.Render("backup: "+sr.Backup.Path) + "\n")
	}
	if sr.Committed {
		b.WriteString("      " + s.Muted.Render("commit: "+sr.CommitMessage) + "\n")
	}
	for _, w := range sr.Warnings {
		b.WriteString("      " + s.Warning.Render("warning: "+w) + "\n")
	}

	return b.String()
}

// RenderDoctor renders tool availability checks.
func RenderDoctor(statuses []app.ToolStatus) string {
	return DefaultStyles().RenderDoctor(statuses)
}

// RenderDoctor renders tool availability checks using these styles.
func (s Styles) RenderDoctor(statuses []app.ToolStatus) string {
	var b strings.Builder

	b.WriteString(s.Title.Render("Toolchain"))
	b.WriteString("\n")

	for _, st := range statuses {
		if st.Available {
			line := fmt.Sprintf("✓ %s", st.Name)
			b.WriteString("  " + s.Success.Render(line))
			if st.Version != "" {
				b.WriteString(" " + s.Muted.Render(st.Version))
			}
		} else {
			detail := st.Detail
			if detail == "" {
				detail = "unavailable"
			}
			b.WriteString("  " + s.Failed.Render(fmt.Sprintf("✗ %s: %s", st.Name, detail)))
		}
		b.WriteString("\n")
	}

	return b.String()
}

// RenderSteps renders the step catalog in execution order.
func RenderSteps() string {
	s := DefaultStyles()
	var b strings.Builder

	b.WriteString(s.Title.Render("Update steps (in execution order)"))
	b.WriteString("\n")

	for _, st := range step.All() {
		b.WriteString(fmt.Sprintf("  %s  %s\n", string(st.ID()), s.Muted.Render(st.Label())))
	}

	return b.String()
}
