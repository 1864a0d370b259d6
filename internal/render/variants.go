package render

import (
	"fmt"
	"strings"

	"github.com/Tdill1980/wrapdash/internal/domain"
)

// Plan describes which variants a run should produce. Exactly one enumeration
// mode applies, selected by Mode:
//
//   - flat: Keys are independent and may be dispatched concurrently.
//   - pipeline: Stages execute strictly in order; a stage never starts before
//     its predecessor completes.
//   - matrix: the cross-product of Angles, Finishes and Environments,
//     optionally filtered by Panels (an inclusion list on the angle axis).
type Plan struct {
	Mode         domain.RunMode `yaml:"mode"`
	Keys         []string       `yaml:"keys,omitempty"`
	Stages       []string       `yaml:"stages,omitempty"`
	Angles       []string       `yaml:"angles,omitempty"`
	Finishes     []string       `yaml:"finishes,omitempty"`
	Environments []string       `yaml:"environments,omitempty"`
	Panels       []string       `yaml:"panels,omitempty"`
}

// Enumerate returns the ordered variant keys for the plan. It is pure:
// identical plans always yield identical keys, and no I/O is performed.
func (p Plan) Enumerate() []string {
	switch p.Mode {
	case domain.RunModePipeline:
		return append([]string(nil), p.Stages...)
	case domain.RunModeMatrix:
		return p.enumerateMatrix()
	default:
		return append([]string(nil), p.Keys...)
	}
}

func (p Plan) enumerateMatrix() []string {
	include := make(map[string]struct{}, len(p.Panels))
	for _, panel := range p.Panels {
		include[strings.ToLower(strings.TrimSpace(panel))] = struct{}{}
	}

	var keys []string
	for _, angle := range p.Angles {
		if len(include) > 0 {
			if _, ok := include[strings.ToLower(angle)]; !ok {
				continue
			}
		}
		for _, finish := range p.Finishes {
			for _, env := range p.Environments {
				keys = append(keys, MatrixKey(angle, finish, env))
			}
		}
	}
	return keys
}

// Validate rejects plans that cannot enumerate at least one variant or that
// carry duplicate keys.
func (p Plan) Validate() error {
	keys := p.Enumerate()
	if len(keys) == 0 {
		return domain.ErrEmptyPlan
	}
	seen := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		if _, ok := seen[key]; ok {
			return fmt.Errorf("%w: %q", domain.ErrDuplicateVariant, key)
		}
		seen[key] = struct{}{}
	}
	return nil
}

// Sequential reports whether variants must be awaited one at a time.
func (p Plan) Sequential() bool {
	return p.Mode == domain.RunModePipeline
}

// MatrixKey composes the variant key for one angle/finish/environment combo,
// e.g. "rear-gloss-studio".
func MatrixKey(angle, finish, environment string) string {
	return strings.Join([]string{angle, finish, environment}, "-")
}

// VariantFields decomposes a variant key back into the distinguishing request
// fields sent to the generation backend alongside the shared bundle.
func (p Plan) VariantFields(key string) map[string]string {
	switch p.Mode {
	case domain.RunModePipeline:
		return map[string]string{"stage": key}
	case domain.RunModeMatrix:
		// Angle names may themselves contain hyphens, so the key is matched
		// against the plan's dimensions instead of being re-split.
		for _, angle := range p.Angles {
			for _, finish := range p.Finishes {
				for _, env := range p.Environments {
					if key == MatrixKey(angle, finish, env) {
						return map[string]string{
							"angle":       angle,
							"finish":      finish,
							"environment": env,
						}
					}
				}
			}
		}
		return map[string]string{"angle": key}
	default:
		return map[string]string{"angle": key}
	}
}
