package analysis

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Classification buckets a condition's coverage across the scenario set
type Classification string

const (
	// Explicit: some scenario demonstrably varies the condition's truth
	// value while holding every sibling condition constant
	Explicit Classification = "EXPLICIT"
	// Implicit: its variables are written by some scenario but its truth is
	// never varied in isolation
	Implicit Classification = "IMPLICIT"
	// Untested: no scenario ever writes the condition's variables
	Untested Classification = "UNTESTED"
)

// DefectKind names the semantic finding classes
type DefectKind string

const (
	IncorrectAssertion DefectKind = "INCORRECT_ASSERTION"
	MissingTransition  DefectKind = "MISSING_TRANSITION"
	RedundantScenario  DefectKind = "REDUNDANT_SCENARIO"
	UndefinedVariable  DefectKind = "UNDEFINED_VARIABLE_REFERENCE"
)

// Severity of a defect; HIGH findings fail the analysis exit code
type Severity string

const (
	High   Severity = "HIGH"
	Medium Severity = "MEDIUM"
	Low    Severity = "LOW"
)

func (k DefectKind) Severity() Severity {
	switch k {
	case IncorrectAssertion:
		return High
	case MissingTransition, UndefinedVariable:
		return Medium
	default:
		return Low
	}
}

// DisjunctCoverage is the per-branch classification of an OR-condition.
// Partial coverage of a disjunction is first-class: a condition can be
// EXPLICIT overall while one branch stays UNTESTED
type DisjunctCoverage struct {
	Expression       string         `json:"expression"`
	Classification   Classification `json:"classification"`
	EvidenceScenario string         `json:"evidenceScenario,omitempty"`
}

// CoverageRecord is the per-condition verdict across the whole scenario set
type CoverageRecord struct {
	ConditionID      string             `json:"conditionId"`
	Text             string             `json:"text"`
	Classification   Classification     `json:"classification"`
	EvidenceScenario string             `json:"evidenceScenario,omitempty"`
	Disjuncts        []DisjunctCoverage `json:"disjuncts,omitempty"` // only for OR-conditions
	UndefinedVars    []string           `json:"undefinedVariables,omitempty"`
}

// Defect is one semantic finding against one scenario. Findings are the
// engine's primary output, never treated as analysis failures
type Defect struct {
	Kind       DefectKind `json:"kind"`
	Severity   Severity   `json:"severity"`
	ScenarioID string     `json:"scenarioId"`
	Time       *float64   `json:"time,omitempty"`
	Declared   string     `json:"declared,omitempty"`
	Computed   string     `json:"computed,omitempty"`
	Conditions []string   `json:"conditions,omitempty"` // condition IDs responsible
	Detail     string     `json:"detail"`
}

// Report is the structured analysis result for one requirement and its
// scenario set. Error is set only when the unit could not be analyzed at
// all; a report with defects is still a successful analysis
type Report struct {
	RunID         string           `json:"runId"`
	RequirementID string           `json:"requirementId"`
	Title         string           `json:"title,omitempty"`
	GeneratedAt   time.Time        `json:"generatedAt"`
	Coverage      []CoverageRecord `json:"coverage,omitempty"`
	Defects       []Defect         `json:"defects,omitempty"`
	Warnings      []string         `json:"warnings,omitempty"`
	Error         string           `json:"error,omitempty"`
}

// Failed reports whether the unit could not be analyzed
func (r *Report) Failed() bool {
	return r.Error != ""
}

// HasHighSeverity reports whether any defect is HIGH severity
func (r *Report) HasHighSeverity() bool {
	for _, d := range r.Defects {
		if d.Severity == High {
			return true
		}
	}
	return false
}

// WriteJSON renders the report as indented JSON
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteText renders a compact console summary: one row per condition, then
// the defect list grouped by scenario
func (r *Report) WriteText(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "%s  %s\n", r.RequirementID, r.Title); err != nil {
		return err
	}
	if r.Failed() {
		_, err := fmt.Fprintf(w, "  could not analyze: %s\n", r.Error)
		return err
	}
	for _, rec := range r.Coverage {
		evidence := ""
		if rec.EvidenceScenario != "" {
			evidence = " (" + rec.EvidenceScenario + ")"
		}
		fmt.Fprintf(w, "  %-4s %-9s%s  %s\n", rec.ConditionID, rec.Classification, evidence, rec.Text)
		for i, d := range rec.Disjuncts {
			fmt.Fprintf(w, "       branch %d: %-9s  %s\n", i+1, d.Classification, d.Expression)
		}
	}
	for _, w2 := range r.Warnings {
		fmt.Fprintf(w, "  warning: %s\n", w2)
	}
	for _, d := range r.Defects {
		fmt.Fprintf(w, "  [%s] %s %s: %s\n", d.Severity, d.Kind, d.ScenarioID, d.Detail)
	}
	return nil
}
