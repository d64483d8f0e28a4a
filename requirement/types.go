package requirement

import "time"

// ConditionKind distinguishes a single comparison from a two-branch disjunction
type ConditionKind int

const (
	Simple ConditionKind = iota
	Or
)

func (k ConditionKind) String() string {
	if k == Or {
		return "or"
	}
	return "simple"
}

// Predicate is one evaluable branch of a condition: a CEL expression over the
// requirement's declared variables, plus the variable names it references
type Predicate struct {
	Expression string
	Variables  []string
}

// Condition is one conjunct of a requirement's guard. A Simple condition has
// exactly one predicate; an Or condition has two, and coverage is tracked per
// disjunct so a test exercising only one branch is reportable as partial
type Condition struct {
	ID        string // C1..Cn, assigned in clause order
	Text      string // raw clause text as authored
	Kind      ConditionKind
	Disjuncts []Predicate
}

// Variables returns the union of variable names referenced by all disjuncts
func (c *Condition) Variables() []string {
	seen := make(map[string]bool)
	var vars []string
	for _, d := range c.Disjuncts {
		for _, v := range d.Variables {
			if !seen[v] {
				seen[v] = true
				vars = append(vars, v)
			}
		}
	}
	return vars
}

// Schema is the closed set of state variables a requirement's conditions may
// reference, mapping variable name to CEL type name
type Schema map[string]string

// Requirement is an identifier, a primary statement, and an ordered
// conjunction of conditions. The guarded behavior (the named observable)
// holds at an instant iff every condition evaluates true
type Requirement struct {
	ID         string
	Title      string // primary statement
	Observable string // observable whose assertions declare the outcome (default "alert")
	Conditions []*Condition
	Schema     Schema
	Active     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Condition returns the condition with the given ID, or nil
func (r *Requirement) Condition(id string) *Condition {
	for _, c := range r.Conditions {
		if c.ID == id {
			return c
		}
	}
	return nil
}
