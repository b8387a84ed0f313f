package workflow

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadDefinition reads a standalone workflow table file in YAML form.
//
// The file holds a [Definition]: the ordered stage list plus optional
// category sequences and status aliases. Used when a team's workflow
// differs enough from the default that maintaining it inline in the main
// config becomes unwieldy.
func LoadDefinition(path string) (Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Definition{}, fmt.Errorf("failed to read workflow table %s: %w", path, err)
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return Definition{}, fmt.Errorf("failed to parse workflow table %s: %w", path, err)
	}
	if len(def.Stages) == 0 {
		return Definition{}, fmt.Errorf("workflow table %s defines no stages", path)
	}
	return def, nil
}
