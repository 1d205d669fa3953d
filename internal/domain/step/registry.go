package step

import "fmt"

// ordered is the canonical total order of update steps. Configuration may
// restrict which steps run, never in what order they run.
var ordered = []Step{
	{
		id:    IDCore,
		label: "Core",
		commands: [][]string{
			{"core", "update"},
		},
	},
	{
		id:         IDPlugins,
		label:      "Plugins",
		excludable: true,
		commands: [][]string{
			{"plugin", "update", "--all"},
		},
	},
	{
		id:         IDThemes,
		label:      "Themes",
		excludable: true,
		commands: [][]string{
			{"theme", "update", "--all"},
		},
	},
	{
		id:    IDTranslations,
		label: "Translations",
		commands: [][]string{
			{"language", "core", "update"},
			{"language", "plugin", "update", "--all"},
			{"language", "theme", "update", "--all"},
		},
	},
}

// All returns every step in canonical order.
func All() []Step {
	out := make([]Step, len(ordered))
	copy(out, ordered)
	return out
}

// AllIDs returns every step identifier in canonical order.
func AllIDs() []ID {
	out := make([]ID, len(ordered))
	for i, s := range ordered {
		out[i] = s.id
	}
	return out
}

// Lookup returns the step with the given identifier.
func Lookup(id ID) (Step, bool) {
	for _, s := range ordered {
		if s.id == id {
			return s, true
		}
	}
	return Step{}, false
}

// Select returns the steps named by ids in canonical registry order,
// regardless of the order they were requested in. Duplicates collapse.
// An empty selection means all steps.
func Select(ids []ID) ([]Step, error) {
	if len(ids) == 0 {
		return All(), nil
	}

	wanted := make(map[ID]bool, len(ids))
	for _, id := range ids {
		if _, ok := Lookup(id); !ok {
			return nil, fmt.Errorf("unknown step %q", id)
		}
		wanted[id] = true
	}

	out := make([]Step, 0, len(wanted))
	for _, s := range ordered {
		if wanted[s.id] {
			out = append(out, s)
		}
	}
	return out, nil
}
