package requirement

import "errors"

// ErrMalformedRequirement marks requirement sources that cannot be parsed
// into a conjunction of evaluable conditions. Wrapped errors carry the raw
// clause text for manual triage
var ErrMalformedRequirement = errors.New("malformed requirement")

// ErrNotFound marks store lookups for unknown requirement IDs
var ErrNotFound = errors.New("requirement not found")
