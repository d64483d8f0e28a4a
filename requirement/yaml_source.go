package requirement

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// yamlRequirement is the on-disk shape of one requirement in a YAML
// requirement file, used for database-less CLI runs
type yamlRequirement struct {
	ID         string            `yaml:"id"`
	Title      string            `yaml:"title"`
	Observable string            `yaml:"observable"`
	Variables  map[string]string `yaml:"variables"`
	Conditions []string          `yaml:"conditions"`
}

type yamlFile struct {
	Requirements []yamlRequirement `yaml:"requirements"`
}

// LoadYAMLFile reads a YAML requirement file and returns an in-memory store
// populated with its requirements. Every entry goes through the same
// Assemble path as stored rows, so malformed entries fail with
// ErrMalformedRequirement naming the offending clause
func LoadYAMLFile(path string) (*InMemoryStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read requirement file: %w", err)
	}

	var file yamlFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedRequirement, path, err)
	}
	if len(file.Requirements) == 0 {
		return nil, fmt.Errorf("%w: %s: no requirements found", ErrMalformedRequirement, path)
	}

	store := NewInMemoryStore()
	for _, entry := range file.Requirements {
		if entry.ID == "" {
			return nil, fmt.Errorf("%w: %s: requirement without id", ErrMalformedRequirement, path)
		}
		req := &Requirement{
			ID:         entry.ID,
			Title:      entry.Title,
			Observable: entry.Observable,
			Schema:     Schema(entry.Variables),
			Active:     true,
		}
		req, err := Assemble(req, entry.Conditions)
		if err != nil {
			return nil, err
		}
		if err := store.Add(req); err != nil {
			return nil, err
		}
	}
	return store, nil
}
