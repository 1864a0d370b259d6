package render

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Catalog holds the named render plans loaded from the plan configuration
// file. Presets keep the API surface small: callers start runs by plan name
// and only override the parts that vary per request (e.g. panel selection).
type Catalog struct {
	plans map[string]Plan
}

type catalogFile struct {
	Plans map[string]Plan `yaml:"plans"`
}

// LoadCatalog reads and validates a YAML plan catalog.
func LoadCatalog(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("render: read plan catalog: %w", err)
	}
	return ParseCatalog(raw)
}

// ParseCatalog builds a catalog from raw YAML.
func ParseCatalog(raw []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("render: parse plan catalog: %w", err)
	}
	if len(file.Plans) == 0 {
		return nil, fmt.Errorf("render: plan catalog defines no plans")
	}
	for name, plan := range file.Plans {
		if err := plan.Validate(); err != nil {
			return nil, fmt.Errorf("render: plan %q: %w", name, err)
		}
	}
	return &Catalog{plans: file.Plans}, nil
}

// Plan returns the named plan.
func (c *Catalog) Plan(name string) (Plan, bool) {
	plan, ok := c.plans[name]
	return plan, ok
}

// Names lists the available plan names sorted alphabetically.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.plans))
	for name := range c.plans {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
