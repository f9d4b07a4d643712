package patterns

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFromFile reads a YAML pattern catalog and returns the validated result.
func LoadFromFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading pattern file: %w", err)
	}

	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("parsing pattern YAML: %w", err)
	}

	if err := validate(&cat); err != nil {
		return nil, fmt.Errorf("validating patterns: %w", err)
	}

	return &cat, nil
}
