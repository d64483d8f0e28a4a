package requirement

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "requirements.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write requirement file: %v", err)
	}
	return path
}

func TestLoadYAMLFile(t *testing.T) {
	path := writeYAML(t, `
requirements:
  - id: SKYRADAR-MSAW-025
    title: An MSAW alert shall be generated for an eligible track
    observable: alert
    variables:
      status: string
      flightLevel: int
      transponderFailed: bool
      squawk: int
    conditions:
      - status == "OPERATIONAL"
      - flightLevel >= 290 && flightLevel <= 410
      - transponderFailed == true OR !(squawk in [7500, 7600, 7700])
  - id: SKYRADAR-MSAW-031
    title: Coasting tracks shall be excluded
    variables:
      coasting: bool
    conditions:
      - coasting == false
`)

	store, err := LoadYAMLFile(path)
	if err != nil {
		t.Fatalf("LoadYAMLFile() failed: %v", err)
	}

	active, err := store.ListActive()
	if err != nil {
		t.Fatalf("ListActive() failed: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("got %d requirements, want 2", len(active))
	}

	req, err := store.Get("SKYRADAR-MSAW-025")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if len(req.Conditions) != 3 {
		t.Errorf("got %d conditions, want 3", len(req.Conditions))
	}
	if req.Conditions[2].Kind != Or {
		t.Errorf("C3 should be a disjunction, got %v", req.Conditions[2].Kind)
	}

	// unspecified observable defaults
	other, err := store.Get("SKYRADAR-MSAW-031")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if other.Observable != DefaultObservable {
		t.Errorf("Observable = %q, want %q", other.Observable, DefaultObservable)
	}
}

func TestLoadYAMLFileMalformed(t *testing.T) {
	testCases := []struct {
		name    string
		content string
	}{
		{"not yaml", "{{{"},
		{"no requirements", "requirements: []"},
		{"missing id", "requirements:\n  - title: no id here\n    variables:\n      x: int\n    conditions:\n      - x > 0"},
		{"bad clause", "requirements:\n  - id: R-1\n    variables:\n      x: int\n    conditions:\n      - x >="},
		{"undeclared variable", "requirements:\n  - id: R-1\n    variables:\n      x: int\n    conditions:\n      - y > 0"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeYAML(t, tc.content)
			_, err := LoadYAMLFile(path)
			if err == nil {
				t.Fatal("LoadYAMLFile() should have failed")
			}
			if !errors.Is(err, ErrMalformedRequirement) {
				t.Errorf("error should wrap ErrMalformedRequirement, got: %v", err)
			}
		})
	}
}

func TestLoadYAMLFileMissing(t *testing.T) {
	_, err := LoadYAMLFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("LoadYAMLFile() should fail for a missing file")
	}
}
