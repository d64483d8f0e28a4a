package analysis

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestDefectKindSeverity(t *testing.T) {
	testCases := []struct {
		kind DefectKind
		want Severity
	}{
		{IncorrectAssertion, High},
		{MissingTransition, Medium},
		{UndefinedVariable, Medium},
		{RedundantScenario, Low},
	}
	for _, tc := range testCases {
		if got := tc.kind.Severity(); got != tc.want {
			t.Errorf("%s severity = %s, want %s", tc.kind, got, tc.want)
		}
	}
}

func TestReportHasHighSeverity(t *testing.T) {
	r := &Report{Defects: []Defect{
		{Kind: RedundantScenario, Severity: Low},
		{Kind: MissingTransition, Severity: Medium},
	}}
	if r.HasHighSeverity() {
		t.Error("no HIGH defect present")
	}

	r.Defects = append(r.Defects, Defect{Kind: IncorrectAssertion, Severity: High})
	if !r.HasHighSeverity() {
		t.Error("HIGH defect should be detected")
	}
}

func TestReportWriteJSON(t *testing.T) {
	report := AnalyzeUnit(buildUnit(t, eligibilitySource, eligibilityCorpus))

	var buf bytes.Buffer
	if err := report.WriteJSON(&buf); err != nil {
		t.Fatalf("WriteJSON() failed: %v", err)
	}

	var decoded Report
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.RequirementID != "SKYRADAR-MSAW-025" {
		t.Errorf("requirementId = %q", decoded.RequirementID)
	}
	if len(decoded.Coverage) != 7 {
		t.Errorf("got %d coverage records, want 7", len(decoded.Coverage))
	}
}

func TestReportWriteText(t *testing.T) {
	report := AnalyzeUnit(buildUnit(t, eligibilitySource, eligibilityCorpus))

	var buf bytes.Buffer
	if err := report.WriteText(&buf); err != nil {
		t.Fatalf("WriteText() failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"SKYRADAR-MSAW-025",
		"C1",
		"EXPLICIT",
		"UNTESTED",
		"INCORRECT_ASSERTION",
		"REDUNDANT_SCENARIO",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}
}

func TestReportWriteTextFailedUnit(t *testing.T) {
	r := &Report{RequirementID: "SKYRADAR-MSAW-025", Error: "schema drift"}

	var buf bytes.Buffer
	if err := r.WriteText(&buf); err != nil {
		t.Fatalf("WriteText() failed: %v", err)
	}
	if !strings.Contains(buf.String(), "could not analyze") {
		t.Errorf("failed unit output = %q", buf.String())
	}
}
