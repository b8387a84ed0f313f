package cli

import (
	"strings"

	"github.com/charmbracelet/huh"
)

// promptMissingFields collects values for the named fields with an
// interactive terminal form. Blank answers are dropped so the caller only
// writes fields the user actually supplied.
func promptMissingFields(fields []string) (map[string]string, error) {
	values := make([]string, len(fields))
	inputs := make([]huh.Field, len(fields))
	for i, name := range fields {
		inputs[i] = huh.NewInput().
			Key(name).
			Title(name).
			Value(&values[i])
	}

	form := huh.NewForm(huh.NewGroup(inputs...))
	if err := form.Run(); err != nil {
		return nil, err
	}

	supplied := make(map[string]string, len(fields))
	for i, name := range fields {
		if v := strings.TrimSpace(values[i]); v != "" {
			supplied[name] = v
		}
	}
	return supplied, nil
}
