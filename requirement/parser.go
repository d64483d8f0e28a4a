package requirement

import (
	"bufio"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/cel-go/cel"
)

// DefaultObservable is assumed when a requirement source does not name the
// observable its assertions declare
const DefaultObservable = "alert"

// Parse reads a requirement definition in the plain-text SRS extract format:
//
//	REQUIREMENT SKYRADAR-MSAW-025
//	TITLE An MSAW alert shall be generated for an eligible track
//	OBSERVABLE alert
//	VAR status string
//	VAR flightLevel int
//	WHEN status == "OPERATIONAL"
//	AND flightLevel >= 290 && flightLevel <= 410
//
// Each WHEN/AND line is one condition clause. A clause containing a
// top-level OR keyword becomes a two-branch disjunction whose branches are
// tracked independently for coverage. Every clause must compile as a boolean
// CEL expression over the declared variables; an unparsable clause fails the
// whole requirement with ErrMalformedRequirement, citing the raw clause
func Parse(source string) (*Requirement, error) {
	req := &Requirement{
		Observable: DefaultObservable,
		Schema:     Schema{},
		Active:     true,
	}

	var clauses []string
	scanner := bufio.NewScanner(strings.NewReader(source))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		keyword, rest, _ := strings.Cut(line, " ")
		rest = strings.TrimSpace(rest)
		switch strings.ToUpper(keyword) {
		case "REQUIREMENT":
			req.ID = rest
		case "TITLE":
			req.Title = rest
		case "OBSERVABLE":
			req.Observable = rest
		case "VAR":
			name, typeName, ok := strings.Cut(rest, " ")
			if !ok {
				return nil, fmt.Errorf("%w: line %d: VAR needs a name and a type: %q", ErrMalformedRequirement, lineNo, line)
			}
			req.Schema[strings.TrimSpace(name)] = strings.TrimSpace(typeName)
		case "WHEN", "AND":
			if rest == "" {
				return nil, fmt.Errorf("%w: line %d: empty condition clause", ErrMalformedRequirement, lineNo)
			}
			clauses = append(clauses, rest)
		default:
			return nil, fmt.Errorf("%w: line %d: unrecognized line: %q", ErrMalformedRequirement, lineNo, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRequirement, err)
	}

	if req.ID == "" {
		return nil, fmt.Errorf("%w: missing REQUIREMENT line", ErrMalformedRequirement)
	}
	return Assemble(req, clauses)
}

// Assemble attaches condition clauses to a requirement shell, validating the
// schema and compiling every clause. Store implementations that load
// requirements from rows or YAML documents go through the same path so every
// source format shares one validation surface
func Assemble(req *Requirement, clauses []string) (*Requirement, error) {
	if len(clauses) == 0 {
		return nil, fmt.Errorf("%w: %s: no condition clauses found", ErrMalformedRequirement, req.ID)
	}
	if err := ValidateSchema(req.Schema); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedRequirement, req.ID, err)
	}
	if req.Observable == "" {
		req.Observable = DefaultObservable
	}

	env, err := NewEnv(req.Schema)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedRequirement, req.ID, err)
	}

	req.Conditions = req.Conditions[:0]
	for i, clause := range clauses {
		cond, err := parseClause(env, req.Schema, fmt.Sprintf("C%d", i+1), clause)
		if err != nil {
			return nil, err
		}
		req.Conditions = append(req.Conditions, cond)
	}
	return req, nil
}

// NewEnv creates a CEL environment declaring exactly the requirement's
// variables, so references outside the schema fail at compile time instead
// of silently evaluating against a default
func NewEnv(schema Schema) (*cel.Env, error) {
	opts := []cel.EnvOption{
		// Scenario values parse to int64 or float64 depending on notation;
		// clauses must not care which one a corpus author picked
		cel.CrossTypeNumericComparisons(true),
	}
	for name, typeName := range schema {
		opts = append(opts, cel.Variable(name, celType(typeName)))
	}

	env, err := cel.NewEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return env, nil
}

// celType maps schema type names to CEL types. Declared types are advisory:
// Dyn keeps evaluation tolerant of corpus formats that cannot distinguish
// int from float, while the schema still closes the variable name set
func celType(typeName string) *cel.Type {
	switch typeName {
	case "int", "int64":
		return cel.IntType
	case "float64", "double":
		return cel.DoubleType
	case "string":
		return cel.StringType
	case "bool":
		return cel.BoolType
	case "bytes":
		return cel.BytesType
	case "timestamp":
		return cel.TimestampType
	case "duration":
		return cel.DurationType
	default:
		return cel.DynType
	}
}

func parseClause(env *cel.Env, schema Schema, id, clause string) (*Condition, error) {
	branches := splitTopLevelOr(clause)
	if len(branches) > 2 {
		return nil, fmt.Errorf("%w: condition %s has %d OR branches, at most 2 are supported: %q",
			ErrMalformedRequirement, id, len(branches), clause)
	}

	cond := &Condition{
		ID:   id,
		Text: clause,
		Kind: Simple,
	}
	if len(branches) == 2 {
		cond.Kind = Or
	}

	for _, branch := range branches {
		expr := strings.TrimSpace(branch)
		ast, issues := env.Compile(expr)
		if issues != nil && issues.Err() != nil {
			return nil, fmt.Errorf("%w: condition %s cannot be parsed into a predicate: %q: %v",
				ErrMalformedRequirement, id, clause, issues.Err())
		}
		if out := ast.OutputType(); !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
			return nil, fmt.Errorf("%w: condition %s is not a boolean predicate (got %s): %q",
				ErrMalformedRequirement, id, out, clause)
		}
		cond.Disjuncts = append(cond.Disjuncts, Predicate{
			Expression: expr,
			Variables:  referencedVariables(expr, schema),
		})
	}
	return cond, nil
}

// splitTopLevelOr splits a clause on the OR keyword at parenthesis depth
// zero. CEL's own || inside a branch stays opaque: only the authored OR marks
// the disjunction boundary tracked for coverage
func splitTopLevelOr(clause string) []string {
	var parts []string
	depth := 0
	last := 0
	tokens := []string{" OR ", " or "}
	for i := 0; i < len(clause); i++ {
		switch clause[i] {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		}
		if depth != 0 {
			continue
		}
		for _, tok := range tokens {
			if strings.HasPrefix(clause[i:], tok) {
				parts = append(parts, clause[last:i])
				last = i + len(tok)
				i += len(tok) - 1
				break
			}
		}
	}
	parts = append(parts, clause[last:])
	return parts
}

var identPattern = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

// referencedVariables returns the schema variables a predicate mentions,
// in schema-independent (first appearance) order
func referencedVariables(expr string, schema Schema) []string {
	seen := make(map[string]bool)
	var vars []string
	for _, ident := range identPattern.FindAllString(expr, -1) {
		if _, ok := schema[ident]; ok && !seen[ident] {
			seen[ident] = true
			vars = append(vars, ident)
		}
	}
	return vars
}
