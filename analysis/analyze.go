package analysis

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/skyradar/reqcover/requirement"
	"github.com/skyradar/reqcover/scenario"
)

// Unit is one independently analyzable work item: a requirement and its
// scenario set, in corpus input order
type Unit struct {
	Requirement *requirement.Requirement
	Scenarios   []*scenario.Scenario
	Warnings    []string
}

// NewUnit builds a Unit from corpus load results, converting non-fatal load
// findings (scenarios that assert nothing) into report warnings. Such
// scenarios are excluded from analysis but stay visible
func NewUnit(req *requirement.Requirement, loaded []scenario.LoadResult) Unit {
	u := Unit{Requirement: req}
	for _, lr := range loaded {
		if lr.Warn != nil {
			u.Warnings = append(u.Warnings, lr.Warn.Error())
			continue
		}
		u.Scenarios = append(u.Scenarios, lr.Scenario)
	}
	return u
}

// AnalyzeUnit runs the full pipeline for one unit: project every scenario's
// timeline, evaluate every condition at every assertion, classify coverage
// across the set, and check assertion consistency. Requirement and scenario
// inputs are immutable; the report is freshly derived on every call, so
// re-running an unchanged unit yields identical coverage and defect output
func AnalyzeUnit(u Unit) *Report {
	report := &Report{
		RunID:         uuid.NewString(),
		RequirementID: u.Requirement.ID,
		Title:         u.Requirement.Title,
		GeneratedAt:   time.Now().UTC(),
		Warnings:      u.Warnings,
	}

	ev, err := NewEvaluator(u.Requirement)
	if err != nil {
		report.Error = err.Error()
		return report
	}

	evals := make([]scenarioEval, 0, len(u.Scenarios))
	evalWarned := make(map[string]bool)
	for _, sc := range u.Scenarios {
		if sc.AssertionCount() == 0 {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("%v: %s", scenario.ErrNoAssertions, sc.ID))
			continue
		}
		se := scenarioEval{scenario: sc}
		for _, pa := range Project(sc) {
			results := ev.EvaluateSnapshot(pa.Facts)
			for _, r := range results {
				if r.Err == nil {
					continue
				}
				// an eval error leaves the condition false; surface it so
				// the false is not mistaken for a clean evaluation
				key := sc.ID + "/" + r.ConditionID
				if evalWarned[key] {
					continue
				}
				evalWarned[key] = true
				report.Warnings = append(report.Warnings,
					fmt.Sprintf("%s: condition %s evaluation error at t=%v: %v",
						sc.ID, r.ConditionID, pa.Time, r.Err))
			}
			se.assertions = append(se.assertions, assertionEval{
				projected: pa,
				results:   results,
			})
		}
		evals = append(evals, se)
	}

	touched := TouchedVariables(u.Scenarios)
	cov := classify(u.Requirement, evals, touched)
	report.Coverage = cov.records
	report.Defects = checkConsistency(u.Requirement, evals, cov)
	return report
}
