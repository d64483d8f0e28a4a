package scenario

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeCorpus(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	return dir
}

func TestLoadDirLexicalOrder(t *testing.T) {
	dir := writeCorpus(t, map[string]string{
		"02_second.xml": `<scenario id="second"><step time="0"><assert observable="alert" expected="false"/></step></scenario>`,
		"01_first.xml":  `<scenario id="first"><step time="0"><assert observable="alert" expected="true"/></step></scenario>`,
		"notes.txt":     "not a scenario",
	})

	results, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir() failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d scenarios, want 2", len(results))
	}
	if results[0].Scenario.ID != "first" || results[1].Scenario.ID != "second" {
		t.Errorf("corpus order = [%s, %s], want [first, second]",
			results[0].Scenario.ID, results[1].Scenario.ID)
	}
	for _, r := range results {
		if r.Scenario.Source == "" {
			t.Errorf("scenario %s has no source path", r.Scenario.ID)
		}
		if r.Warn != nil {
			t.Errorf("scenario %s has unexpected warning: %v", r.Scenario.ID, r.Warn)
		}
	}
}

func TestLoadDirNoAssertionsWarns(t *testing.T) {
	dir := writeCorpus(t, map[string]string{
		"setup_only.xml": `<scenario id="setup_only"><step time="0"><set var="status" value="OPERATIONAL"/></step></scenario>`,
	})

	results, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir() failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d scenarios, want 1", len(results))
	}
	if !errors.Is(results[0].Warn, ErrNoAssertions) {
		t.Errorf("Warn should wrap ErrNoAssertions, got: %v", results[0].Warn)
	}
}

func TestLoadDirMalformedFailsLoad(t *testing.T) {
	dir := writeCorpus(t, map[string]string{
		"ok.xml":  `<scenario id="ok"><step time="0"><assert observable="alert" expected="true"/></step></scenario>`,
		"bad.xml": `<scenario id="bad"><step time="soon"><assert observable="alert" expected="true"/></step></scenario>`,
	})

	_, err := LoadDir(dir)
	if !errors.Is(err, ErrMalformedScenario) {
		t.Errorf("LoadDir() should fail the whole load, got: %v", err)
	}
}

func TestLoadDirEmpty(t *testing.T) {
	if _, err := LoadDir(t.TempDir()); err == nil {
		t.Error("LoadDir() should fail when no scenario documents exist")
	}
	if _, err := LoadDir(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("LoadDir() should fail for a missing directory")
	}
}
