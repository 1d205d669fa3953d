// Package step defines the fixed catalog of update steps and the
// classification of their results.
package step

import (
	"fmt"
	"strings"
)

// ID identifies one update step.
type ID string

// The known step identifiers.
const (
	IDCore         ID = "core"
	IDPlugins      ID = "plugins"
	IDThemes       ID = "themes"
	IDTranslations ID = "translations"
)

// ParseID converts a user-supplied string into a step ID.
func ParseID(s string) (ID, error) {
	id := ID(strings.ToLower(strings.TrimSpace(s)))
	switch id {
	case IDCore, IDPlugins, IDThemes, IDTranslations:
		return id, nil
	}
	return "", fmt.Errorf("unknown step %q (known: core, plugins, themes, translations)", s)
}

// Step is one update action: its identity, human label, and the wp-cli
// command template that performs it. Steps are immutable and defined once in
// the registry.
type Step struct {
	id    ID
	label string
	// commands holds the wp-cli argument lists for this step, without the
	// trailing --path flag. Most steps are a single command; translations
	// update core, plugin, and theme language packs in sequence.
	commands [][]string
	// excludable marks steps whose command accepts an --exclude list.
	excludable bool
}

// ID returns the step identifier.
func (s Step) ID() ID {
	return s.id
}

// Label returns the human-readable step name.
func (s Step) Label() string {
	return s.label
}

// Commands returns the full wp-cli argument lists for this step against the
// installation at path, excluding the named items where the step supports it.
func (s Step) Commands(path string, exclude []string) [][]string {
	out := make([][]string, 0, len(s.commands))
	for _, tmpl := range s.commands {
		args := make([]string, len(tmpl), len(tmpl)+2)
		copy(args, tmpl)
		if s.excludable && len(exclude) > 0 {
			args = append(args, "--exclude="+strings.Join(exclude, ","))
		}
		args = append(args, "--path="+path)
		out = append(out, args)
	}
	return out
}
