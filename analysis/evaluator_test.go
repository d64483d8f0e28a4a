package analysis

import (
	"errors"
	"testing"

	"github.com/skyradar/reqcover/requirement"
)

func parseRequirement(t *testing.T, source string) *requirement.Requirement {
	t.Helper()
	req, err := requirement.Parse(source)
	if err != nil {
		t.Fatalf("requirement.Parse() failed: %v", err)
	}
	return req
}

const msawSource = `REQUIREMENT SKYRADAR-MSAW-025
TITLE An MSAW alert shall be generated for an eligible track
VAR status string
VAR flightLevel int
VAR transponderFailed bool
VAR squawk int
WHEN status == "OPERATIONAL"
AND flightLevel >= 290 && flightLevel <= 410
AND transponderFailed == true OR !(squawk in [7500, 7600, 7700])
`

func TestEvaluateSnapshot(t *testing.T) {
	req := parseRequirement(t, msawSource)
	ev, err := NewEvaluator(req)
	if err != nil {
		t.Fatalf("NewEvaluator() failed: %v", err)
	}

	facts := map[string]any{
		"status":            "OPERATIONAL",
		"flightLevel":       int64(310),
		"transponderFailed": false,
		"squawk":            int64(1200),
	}

	results := ev.EvaluateSnapshot(facts)
	if len(results) != 3 {
		t.Fatalf("got %d results, want one per condition", len(results))
	}

	for i, want := range []bool{true, true, true} {
		if results[i].Truth != want {
			t.Errorf("%s Truth = %v, want %v", results[i].ConditionID, results[i].Truth, want)
		}
	}

	// C3 is satisfied through the squawk branch only
	c3 := results[2]
	if c3.Disjuncts[0] || !c3.Disjuncts[1] {
		t.Errorf("C3 disjunct truths = %v, want [false true]", c3.Disjuncts)
	}
}

func TestEvaluateSnapshotFalsifyingState(t *testing.T) {
	req := parseRequirement(t, msawSource)
	ev, err := NewEvaluator(req)
	if err != nil {
		t.Fatalf("NewEvaluator() failed: %v", err)
	}

	facts := map[string]any{
		"status":            "DEGRADED",
		"flightLevel":       int64(100),
		"transponderFailed": false,
		"squawk":            int64(7700),
	}

	results := ev.EvaluateSnapshot(facts)
	for _, r := range results {
		if r.Truth {
			t.Errorf("%s Truth = true, want false against falsifying state", r.ConditionID)
		}
	}
}

func TestEvaluateSnapshotNumericTolerance(t *testing.T) {
	req := parseRequirement(t, msawSource)
	ev, err := NewEvaluator(req)
	if err != nil {
		t.Fatalf("NewEvaluator() failed: %v", err)
	}

	// corpus values may carry decimal notation; comparisons still work
	facts := map[string]any{
		"status":            "OPERATIONAL",
		"flightLevel":       310.0,
		"transponderFailed": true,
		"squawk":            int64(1200),
	}

	results := ev.EvaluateSnapshot(facts)
	if !results[1].Truth {
		t.Error("C2 should hold for a float flightLevel inside the band")
	}
}

func TestEvaluateSnapshotUndefinedVariable(t *testing.T) {
	req := parseRequirement(t, msawSource)
	ev, err := NewEvaluator(req)
	if err != nil {
		t.Fatalf("NewEvaluator() failed: %v", err)
	}

	// squawk is never initialized: the squawk disjunct evaluates false and
	// records the reference instead of failing the evaluation
	facts := map[string]any{
		"status":            "OPERATIONAL",
		"flightLevel":       int64(310),
		"transponderFailed": true,
	}

	results := ev.EvaluateSnapshot(facts)
	c3 := results[2]
	if !c3.Truth {
		t.Error("C3 should still hold through the transponder branch")
	}
	if c3.Disjuncts[1] {
		t.Error("the squawk branch must evaluate false when squawk is undefined")
	}
	if len(c3.Undefined) != 1 || c3.Undefined[0] != "squawk" {
		t.Errorf("Undefined = %v, want [squawk]", c3.Undefined)
	}
	if c3.Err != nil {
		t.Errorf("undefined reference is not an evaluation error, got: %v", c3.Err)
	}
}

func TestNewEvaluatorSchemaDrift(t *testing.T) {
	req := parseRequirement(t, msawSource)

	// a stored requirement whose schema lost a declared variable must fail
	// evaluator construction, not silently misevaluate
	delete(req.Schema, "squawk")

	_, err := NewEvaluator(req)
	if err == nil {
		t.Fatal("NewEvaluator() should fail when a clause references an undeclared variable")
	}
	if !errors.Is(err, requirement.ErrMalformedRequirement) {
		t.Errorf("error should wrap ErrMalformedRequirement, got: %v", err)
	}
}
