package scenario

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LoadResult pairs a parsed scenario with its source path. Warn is set for
// scenarios that parsed but carry a non-fatal finding (no assertions)
type LoadResult struct {
	Scenario *Scenario
	Warn     error
}

// LoadDir reads every scenario document under dir (non-recursive, *.xml) in
// lexical filename order. Lexical order is the corpus input order, which the
// classifier uses for its first-scenario-wins tie-break. A document that
// fails to parse fails the whole load: the caller treats the unit as
// unanalyzable rather than classifying against a partial corpus
func LoadDir(dir string) ([]LoadResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".xml") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no scenario documents in %s", ErrMalformedScenario, dir)
	}

	results := make([]LoadResult, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read scenario %s: %w", path, err)
		}
		s, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		s.Source = path
		var warn error
		if s.AssertionCount() == 0 {
			// asserts nothing; keep it visible as a warning
			warn = fmt.Errorf("%w: %s", ErrNoAssertions, s.ID)
		}
		results = append(results, LoadResult{Scenario: s, Warn: warn})
	}
	return results, nil
}
