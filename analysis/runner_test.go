package analysis

import (
	"context"
	"fmt"
	"strings"
	"testing"
)

func runnerUnits(t *testing.T, n int) []Unit {
	t.Helper()
	units := make([]Unit, 0, n)
	for i := 0; i < n; i++ {
		source := fmt.Sprintf(`REQUIREMENT SKYRADAR-MSAW-%03d
TITLE requirement %d
VAR status string
WHEN status == "OPERATIONAL"
`, n-i, n-i)
		doc := `<scenario id="scn_01">
  <step time="0"><set var="status" value="STANDBY"/></step>
  <step time="1"><assert observable="alert" expected="false"/></step>
  <step time="2"><set var="status" value="OPERATIONAL"/></step>
  <step time="3"><assert observable="alert" expected="true"/></step>
</scenario>`
		units = append(units, buildUnit(t, source, []string{doc}))
	}
	return units
}

func TestRunnerOrdersReportsByRequirementID(t *testing.T) {
	units := runnerUnits(t, 8)

	reports := NewRunner(4).Run(context.Background(), units)
	if len(reports) != len(units) {
		t.Fatalf("got %d reports, want %d", len(reports), len(units))
	}
	for i := 1; i < len(reports); i++ {
		if reports[i].RequirementID < reports[i-1].RequirementID {
			t.Fatalf("reports not ordered by requirement ID: %s before %s",
				reports[i-1].RequirementID, reports[i].RequirementID)
		}
	}
	for _, r := range reports {
		if r.Failed() {
			t.Errorf("%s failed unexpectedly: %s", r.RequirementID, r.Error)
		}
		if len(r.Coverage) != 1 || r.Coverage[0].Classification != Explicit {
			t.Errorf("%s coverage = %+v", r.RequirementID, r.Coverage)
		}
	}
}

func TestRunnerFailedUnitDoesNotAbortBatch(t *testing.T) {
	units := runnerUnits(t, 3)
	delete(units[1].Requirement.Schema, "status")

	reports := NewRunner(2).Run(context.Background(), units)
	if len(reports) != 3 {
		t.Fatalf("got %d reports, want 3", len(reports))
	}

	failed := 0
	for _, r := range reports {
		if r.Failed() {
			failed++
			if !strings.Contains(r.Error, "status") {
				t.Errorf("failure should name the drifted variable, got: %s", r.Error)
			}
		}
	}
	if failed != 1 {
		t.Errorf("got %d failed reports, want exactly 1", failed)
	}
}

func TestRunnerCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reports := NewRunner(1).Run(ctx, runnerUnits(t, 3))
	if len(reports) != 3 {
		t.Fatalf("got %d reports, want 3", len(reports))
	}
	for _, r := range reports {
		if !r.Failed() {
			t.Errorf("%s should carry the cancellation error", r.RequirementID)
		}
	}
}

func TestRunnerDefaultWorkerCount(t *testing.T) {
	if r := NewRunner(0); r.workers < 1 {
		t.Errorf("workers = %d, want at least 1", r.workers)
	}
	if r := NewRunner(-3); r.workers < 1 {
		t.Errorf("workers = %d, want at least 1", r.workers)
	}
	if r := NewRunner(7); r.workers != 7 {
		t.Errorf("workers = %d, want 7", r.workers)
	}
}
