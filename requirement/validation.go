package requirement

import (
	"fmt"
	"regexp"
	"strings"
)

// ValidateSchema validates a requirement's variable schema.
// Returns an error if validation fails, nil if the schema is valid
func ValidateSchema(schema Schema) error {
	if len(schema) == 0 {
		return fmt.Errorf("schema cannot be empty, must declare at least one variable")
	}

	if len(schema) > 200 {
		return fmt.Errorf("schema declares %d variables, maximum allowed is 200", len(schema))
	}

	for name, typeName := range schema {
		if err := validateIdentifier(name); err != nil {
			return fmt.Errorf("invalid variable name %q: %w", name, err)
		}

		if typeName == "" {
			return fmt.Errorf("variable %q has empty type name", name)
		}

		if strings.TrimSpace(typeName) != typeName {
			return fmt.Errorf("variable %q has type with leading/trailing whitespace: %q", name, typeName)
		}

		if !isValidCELType(typeName) {
			return fmt.Errorf("variable %q has invalid type %q (must be one of: int, int64, float64, string, bool, bytes, timestamp, duration)", name, typeName)
		}
	}

	return nil
}

// validateIdentifier validates a variable name: identifier pattern, not a
// CEL reserved keyword, 1-100 characters
func validateIdentifier(name string) error {
	if len(name) == 0 {
		return fmt.Errorf("identifier cannot be empty")
	}
	if len(name) > 100 {
		return fmt.Errorf("identifier length %d exceeds maximum of 100 characters", len(name))
	}

	validIdentifier := regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
	if !validIdentifier.MatchString(name) {
		return fmt.Errorf("must match pattern ^[a-zA-Z_][a-zA-Z0-9_]*$ (start with letter or underscore, followed by letters, digits, or underscores)")
	}

	if isReservedKeyword(name) {
		return fmt.Errorf("cannot use reserved keyword %q as identifier", name)
	}

	return nil
}

// isValidCELType checks if a type name is a valid CEL type
func isValidCELType(typeName string) bool {
	validTypes := map[string]bool{
		"int":       true,
		"int64":     true,
		"float64":   true,
		"string":    true,
		"bool":      true,
		"bytes":     true,
		"timestamp": true,
		"duration":  true,
	}

	return validTypes[typeName]
}

// isReservedKeyword checks if a name is a CEL reserved keyword
func isReservedKeyword(name string) bool {
	reservedKeywords := map[string]bool{
		// Boolean and null literals
		"true":  true,
		"false": true,
		"null":  true,
		// Control flow
		"if":       true,
		"else":     true,
		"for":      true,
		"while":    true,
		"break":    true,
		"continue": true,
		"return":   true,
		// Declarations
		"var":      true,
		"let":      true,
		"const":    true,
		"function": true,
		// Other keywords
		"in":        true,
		"as":        true,
		"import":    true,
		"package":   true,
		"namespace": true,
		"loop":      true,
		"void":      true,
	}

	return reservedKeywords[name]
}
