package analysis

import (
	"fmt"
	"sort"

	"github.com/skyradar/reqcover/requirement"
	"github.com/skyradar/reqcover/scenario"
)

// checkConsistency compares every assertion's declared outcome with the
// outcome computed by conjoining all condition evaluations at that
// timestamp, and derives the per-scenario defect list. Findings here are
// output, not errors: a scenario may carry zero, one, or several defects
func checkConsistency(req *requirement.Requirement, evals []scenarioEval, cov coverageOutcome) []Defect {
	var defects []Defect

	for _, se := range evals {
		defects = append(defects, checkAssertions(req, se)...)
		defects = append(defects, checkTransitions(req, se)...)
		defects = append(defects, checkUndefined(se)...)
	}
	defects = append(defects, checkRedundancy(req, evals, cov)...)
	return defects
}

// outcomeAssertions filters a scenario's assertions down to the ones that
// declare the requirement's observable with a boolean expectation.
// Assertions about other observables still anchor snapshots for coverage
// but carry no outcome to verify
func outcomeAssertions(req *requirement.Requirement, se scenarioEval) []assertionEval {
	var out []assertionEval
	for _, a := range se.assertions {
		if a.projected.Assertion.Observable != req.Observable {
			continue
		}
		if _, ok := a.projected.Assertion.Expected.(bool); !ok {
			continue
		}
		out = append(out, a)
	}
	return out
}

func computedOutcome(results []ConditionResult) bool {
	for _, r := range results {
		if !r.Truth {
			return false
		}
	}
	return true
}

// checkAssertions flags INCORRECT_ASSERTION: the declared expected outcome
// contradicts the outcome implied by the scenario's own recorded state
func checkAssertions(req *requirement.Requirement, se scenarioEval) []Defect {
	var defects []Defect
	for _, a := range outcomeAssertions(req, se) {
		declared := a.projected.Assertion.Expected.(bool)
		computed := computedOutcome(a.results)
		if declared == computed {
			continue
		}

		var responsible []string
		detail := ""
		if declared && !computed {
			for _, r := range a.results {
				if !r.Truth {
					responsible = append(responsible, r.ConditionID)
				}
			}
			detail = fmt.Sprintf("assertion at t=%v declares %s=%v but conditions %v evaluate false against the recorded state",
				a.projected.Time, req.Observable, declared, responsible)
		} else {
			detail = fmt.Sprintf("assertion at t=%v declares %s=%v but every condition evaluates true against the recorded state",
				a.projected.Time, req.Observable, declared)
		}

		t := a.projected.Time
		defects = append(defects, Defect{
			Kind:       IncorrectAssertion,
			Severity:   IncorrectAssertion.Severity(),
			ScenarioID: se.scenario.ID,
			Time:       &t,
			Declared:   fmt.Sprintf("%v", declared),
			Computed:   fmt.Sprintf("%v", computed),
			Conditions: responsible,
			Detail:     detail,
		})
	}
	return defects
}

// checkTransitions flags MISSING_TRANSITION: consecutive outcome assertions
// declare different outcomes, so some condition must have flipped between
// them, yet the projected snapshots show every condition unchanged. The
// state update that was supposed to flip it is absent from the interval
func checkTransitions(req *requirement.Requirement, se scenarioEval) []Defect {
	outcomes := outcomeAssertions(req, se)
	var defects []Defect
	for i := 0; i+1 < len(outcomes); i++ {
		prev, next := outcomes[i], outcomes[i+1]
		declaredPrev := prev.projected.Assertion.Expected.(bool)
		declaredNext := next.projected.Assertion.Expected.(bool)
		if declaredPrev == declaredNext {
			continue
		}
		if !siblingsConstant(prev, next, -1) {
			continue // something did change; any mismatch is caught above
		}

		var needFlip []string
		for _, r := range next.results {
			if r.Truth != declaredNext {
				needFlip = append(needFlip, r.ConditionID)
			}
		}

		t := next.projected.Time
		defects = append(defects, Defect{
			Kind:       MissingTransition,
			Severity:   MissingTransition.Severity(),
			ScenarioID: se.scenario.ID,
			Time:       &t,
			Declared:   fmt.Sprintf("%v", declaredNext),
			Conditions: needFlip,
			Detail: fmt.Sprintf("declared %s flips from %v to %v between t=%v and t=%v but no state update changes any condition in that interval",
				req.Observable, declaredPrev, declaredNext, prev.projected.Time, next.projected.Time),
		})
	}
	return defects
}

// checkUndefined flags variables a condition references that the scenario
// never initialized before an assertion observed them. This is a scenario
// authoring defect, distinct from UNTESTED at the requirement level
func checkUndefined(se scenarioEval) []Defect {
	perVar := make(map[string][]string) // variable -> condition IDs
	for _, a := range se.assertions {
		for _, r := range a.results {
			for _, v := range r.Undefined {
				perVar[v] = appendUnique(perVar[v], r.ConditionID)
			}
		}
	}

	vars := make([]string, 0, len(perVar))
	for v := range perVar {
		vars = append(vars, v)
	}
	sort.Strings(vars)

	var defects []Defect
	for _, v := range vars {
		defects = append(defects, Defect{
			Kind:       UndefinedVariable,
			Severity:   UndefinedVariable.Severity(),
			ScenarioID: se.scenario.ID,
			Conditions: perVar[v],
			Detail:     fmt.Sprintf("variable %q is referenced by %v but never set before an assertion", v, perVar[v]),
		})
	}
	return defects
}

// checkRedundancy flags REDUNDANT_SCENARIO: a scenario whose explicit
// coverage (demonstrated, or merely intended via a contradicted assertion)
// duplicates conditions already EXPLICIT through an earlier scenario, and
// which is cited as evidence for nothing
func checkRedundancy(req *requirement.Requirement, evals []scenarioEval, cov coverageOutcome) []Defect {
	var defects []Defect
	for _, se := range evals {
		sid := se.scenario.ID
		if cov.citedBy[sid] {
			continue
		}

		// conditions this scenario varies in isolation
		duplicated := cov.qualifies[sid]
		if len(duplicated) == 0 {
			// no demonstrated variation; fall back to intent, the
			// conditions its contradicted outcome assertions implicate
			duplicated = intendedConditions(req, se)
		}
		if len(duplicated) == 0 {
			continue
		}

		covered := true
		for _, condID := range duplicated {
			if !cov.explicitCond[condID] {
				covered = false
				break
			}
		}
		if !covered {
			continue
		}

		defects = append(defects, Defect{
			Kind:       RedundantScenario,
			Severity:   RedundantScenario.Severity(),
			ScenarioID: sid,
			Conditions: duplicated,
			Detail:     fmt.Sprintf("conditions %v are already explicitly covered by earlier scenarios and this scenario adds no new explicit coverage", duplicated),
		})
	}
	return defects
}

// intendedConditions returns the conditions a scenario's declared-but-not-
// computed outcomes implicate: the conditions whose truth blocks the
// declared outcome. Only conditions whose variables the scenario itself
// writes count; a scenario is not blamed for conditions the whole corpus
// leaves untouched
func intendedConditions(req *requirement.Requirement, se scenarioEval) []string {
	touched := TouchedVariables([]*scenario.Scenario{se.scenario})

	var conds []string
	for _, a := range outcomeAssertions(req, se) {
		declared := a.projected.Assertion.Expected.(bool)
		if computedOutcome(a.results) == declared {
			continue
		}
		for _, r := range a.results {
			if r.Truth == declared {
				continue
			}
			cond := req.Condition(r.ConditionID)
			if cond != nil && variablesTouched(cond.Variables(), touched) {
				conds = appendUnique(conds, r.ConditionID)
			}
		}
	}
	return conds
}
