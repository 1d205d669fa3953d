package step

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// StepRules holds the classification markers for one step.
type StepRules struct {
	// SkipMarkers are output substrings that mean "nothing to update" on a
	// zero exit. Matching is case-insensitive.
	SkipMarkers []string `yaml:"skip_markers"`
}

// Rules maps step identifiers to their classification rules.
type Rules map[ID]StepRules

// DefaultRules returns the marker set for current wp-cli output.
func DefaultRules() Rules {
	return Rules{
		IDCore: {
			SkipMarkers: []string{
				"WordPress is up to date",
				"latest version",
			},
		},
		IDPlugins: {
			SkipMarkers: []string{
				"Nothing to update",
				"No plugins updated",
			},
		},
		IDThemes: {
			SkipMarkers: []string{
				"Nothing to update",
				"No themes updated",
			},
		},
		IDTranslations: {
			SkipMarkers: []string{
				"Nothing to update",
				"Translations are up to date",
			},
		},
	}
}

// Merge returns a copy of r with per-step rules replaced by overrides.
func (r Rules) Merge(overrides Rules) Rules {
	out := make(Rules, len(r))
	for id, sr := range r {
		out[id] = sr
	}
	for id, sr := range overrides {
		out[id] = sr
	}
	return out
}

// rulesFile is the on-disk YAML shape of a rules override file.
type rulesFile struct {
	Steps map[string]StepRules `yaml:"steps"`
}

// ParseRules parses a YAML rules document into Rules, validating step names.
func ParseRules(data []byte) (Rules, error) {
	var file rulesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}

	rules := make(Rules, len(file.Steps))
	for name, sr := range file.Steps {
		id, err := ParseID(name)
		if err != nil {
			return nil, fmt.Errorf("parse rules: %w", err)
		}
		rules[id] = sr
	}
	return rules, nil
}
