package analysis

import (
	"github.com/skyradar/reqcover/requirement"
	"github.com/skyradar/reqcover/scenario"
)

// scenarioEval holds one scenario's per-assertion evaluation results, in
// timeline order. results is index-aligned with the requirement's conditions
type scenarioEval struct {
	scenario   *scenario.Scenario
	assertions []assertionEval
}

type assertionEval struct {
	projected ProjectedAssertion
	results   []ConditionResult
}

// coverageOutcome is the classifier's result plus the bookkeeping the
// consistency checker needs for redundancy detection
type coverageOutcome struct {
	records      []CoverageRecord
	citedBy      map[string]bool     // scenario IDs cited as EXPLICIT evidence
	qualifies    map[string][]string // scenario ID -> condition IDs it explicitly qualifies
	explicitCond map[string]bool     // condition ID -> condition-level EXPLICIT
}

// classify buckets every condition (and every disjunct of an OR-condition)
// into EXPLICIT, IMPLICIT or UNTESTED across the scenario set.
//
// A disjunct is EXPLICIT when some scenario contains two assertions whose
// projected truth for the disjunct differs while every sibling condition's
// truth is identical at both assertions: true variation, not coincidental
// co-variation. The first qualifying scenario in corpus order is cited;
// later qualifying scenarios become redundancy candidates. A disjunct that
// never varies in isolation but whose variables some scenario writes is
// IMPLICIT. UNTESTED is reserved for disjuncts whose variables no scenario
// ever touches
func classify(req *requirement.Requirement, evals []scenarioEval, touched map[string]bool) coverageOutcome {
	out := coverageOutcome{
		citedBy:      make(map[string]bool),
		qualifies:    make(map[string][]string),
		explicitCond: make(map[string]bool),
	}

	for ci, cond := range req.Conditions {
		rec := CoverageRecord{
			ConditionID: cond.ID,
			Text:        cond.Text,
		}

		branches := make([]DisjunctCoverage, len(cond.Disjuncts))
		condQualified := make(map[string]bool) // scenario IDs qualifying any disjunct
		for di, pred := range cond.Disjuncts {
			branch := DisjunctCoverage{Expression: pred.Expression}

			var evidence string
			for _, se := range evals {
				if disjunctQualifies(se.assertions, ci, di) {
					condQualified[se.scenario.ID] = true
					if evidence == "" {
						evidence = se.scenario.ID
					}
				}
			}

			switch {
			case evidence != "":
				branch.Classification = Explicit
				branch.EvidenceScenario = evidence
				out.citedBy[evidence] = true
			case variablesTouched(pred.Variables, touched):
				branch.Classification = Implicit
			default:
				branch.Classification = Untested
			}
			branches[di] = branch
		}

		for sid := range condQualified {
			out.qualifies[sid] = append(out.qualifies[sid], cond.ID)
		}

		// Condition-level verdict: EXPLICIT when at least one disjunct is,
		// IMPLICIT when at least one disjunct is, UNTESTED otherwise. The
		// per-branch records above keep partially covered disjunctions
		// visible either way
		rec.Classification = Untested
		for _, b := range branches {
			if b.Classification == Explicit {
				rec.Classification = Explicit
				rec.EvidenceScenario = b.EvidenceScenario
				out.explicitCond[cond.ID] = true
				break
			}
			if b.Classification == Implicit {
				rec.Classification = Implicit
			}
		}
		if cond.Kind == requirement.Or {
			rec.Disjuncts = branches
		}

		rec.UndefinedVars = undefinedVariables(evals, ci)
		out.records = append(out.records, rec)
	}
	return out
}

// disjunctQualifies reports whether the scenario contains two assertions at
// which the disjunct's truth differs while every other condition's truth is
// constant across those same assertions
func disjunctQualifies(assertions []assertionEval, condIdx, disjIdx int) bool {
	for i := 0; i < len(assertions); i++ {
		for j := i + 1; j < len(assertions); j++ {
			a, b := assertions[i], assertions[j]
			if a.results[condIdx].Disjuncts[disjIdx] == b.results[condIdx].Disjuncts[disjIdx] {
				continue
			}
			if siblingsConstant(a, b, condIdx) {
				return true
			}
		}
	}
	return false
}

func siblingsConstant(a, b assertionEval, condIdx int) bool {
	for k := range a.results {
		if k == condIdx {
			continue
		}
		if a.results[k].Truth != b.results[k].Truth {
			return false
		}
	}
	return true
}

func variablesTouched(vars []string, touched map[string]bool) bool {
	for _, v := range vars {
		if touched[v] {
			return true
		}
	}
	return false
}

// undefinedVariables unions the referenced-but-never-initialized variables
// observed for one condition across every assertion of every scenario
func undefinedVariables(evals []scenarioEval, condIdx int) []string {
	var vars []string
	for _, se := range evals {
		for _, a := range se.assertions {
			vars = appendUnique(vars, a.results[condIdx].Undefined...)
		}
	}
	return vars
}
