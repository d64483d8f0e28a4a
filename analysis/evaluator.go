package analysis

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/skyradar/reqcover/requirement"
)

// Evaluator holds the compiled CEL programs for one requirement: one program
// per simple condition, one per disjunct of an OR-condition, so each branch
// of a disjunction keeps its own truth value for coverage purposes
type Evaluator struct {
	req      *requirement.Requirement
	programs map[string][]cel.Program // condition ID -> one program per disjunct
}

// ConditionResult is the truth value of one condition against one snapshot,
// with per-disjunct truth for OR-conditions and the referenced variables
// that were never initialized before the assertion
type ConditionResult struct {
	ConditionID string
	Truth       bool
	Disjuncts   []bool
	Undefined   []string
	Err         error
}

// NewEvaluator compiles all condition predicates of a requirement against
// its declared variable schema. A predicate that fails to compile here is a
// malformed requirement: the store accepted it, so the schema and clause
// must have drifted apart
func NewEvaluator(req *requirement.Requirement) (*Evaluator, error) {
	env, err := requirement.NewEnv(req.Schema)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", requirement.ErrMalformedRequirement, req.ID, err)
	}

	e := &Evaluator{
		req:      req,
		programs: make(map[string][]cel.Program, len(req.Conditions)),
	}
	for _, cond := range req.Conditions {
		progs := make([]cel.Program, 0, len(cond.Disjuncts))
		for _, d := range cond.Disjuncts {
			ast, issues := env.Compile(d.Expression)
			if issues != nil && issues.Err() != nil {
				return nil, fmt.Errorf("%w: %s: condition %s: %q: %v",
					requirement.ErrMalformedRequirement, req.ID, cond.ID, cond.Text, issues.Err())
			}
			prog, err := env.Program(ast, cel.EvalOptions(cel.OptTrackState), cel.CostLimit(1000000))
			if err != nil {
				return nil, fmt.Errorf("%w: %s: condition %s: program creation error: %v",
					requirement.ErrMalformedRequirement, req.ID, cond.ID, err)
			}
			progs = append(progs, prog)
		}
		e.programs[cond.ID] = progs
	}
	return e, nil
}

// EvaluateSnapshot evaluates every condition of the requirement against one
// projected snapshot. Pure function of (snapshot, conditions): no state is
// carried between calls. A disjunct referencing a variable absent from the
// snapshot evaluates false and records the variable as undefined instead of
// erroring out
func (e *Evaluator) EvaluateSnapshot(facts map[string]any) []ConditionResult {
	results := make([]ConditionResult, 0, len(e.req.Conditions))
	for _, cond := range e.req.Conditions {
		res := ConditionResult{
			ConditionID: cond.ID,
			Disjuncts:   make([]bool, len(cond.Disjuncts)),
		}
		for i, d := range cond.Disjuncts {
			missing := missingVariables(d.Variables, facts)
			if len(missing) > 0 {
				res.Undefined = appendUnique(res.Undefined, missing...)
				continue // disjunct stays false
			}

			out, _, err := e.programs[cond.ID][i].Eval(facts)
			if err != nil {
				if res.Err == nil {
					res.Err = err
				}
				continue
			}
			if truth, ok := out.Value().(bool); ok && truth {
				res.Disjuncts[i] = true
				res.Truth = true
			}
		}
		results = append(results, res)
	}
	return results
}

func missingVariables(vars []string, facts map[string]any) []string {
	var missing []string
	for _, v := range vars {
		if _, ok := facts[v]; !ok {
			missing = append(missing, v)
		}
	}
	return missing
}

func appendUnique(dst []string, values ...string) []string {
	for _, v := range values {
		found := false
		for _, existing := range dst {
			if existing == v {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, v)
		}
	}
	return dst
}
