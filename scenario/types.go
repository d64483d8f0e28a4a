package scenario

import "errors"

// SystemTarget is the target name for system-level state updates; any other
// target scopes the update to one entity (e.g. "track:4711")
const SystemTarget = "system"

// ErrMalformedScenario marks scenario documents with unparsable structure
var ErrMalformedScenario = errors.New("malformed scenario")

// ErrNoAssertions marks scenarios that never assert anything. Such a
// scenario cannot contribute coverage; callers report it as a warning
// instead of silently ignoring it
var ErrNoAssertions = errors.New("scenario contains no assertions")

// StateUpdate sets or overwrites one or more named variables as of its
// timestamp. Updates are sticky: a value holds until superseded
type StateUpdate struct {
	Target string
	Values map[string]any
}

// Assertion declares an expected outcome for a named observable at its
// timestamp, e.g. "alert generated for track 4711"
type Assertion struct {
	Observable string
	Target     string
	Expected   any
}

// Event is a tagged union: exactly one of Update or Assertion is set
type Event struct {
	Time      float64
	Seq       int // document order, tie-break for equal timestamps
	Update    *StateUpdate
	Assertion *Assertion
}

// Scenario is an identifier and a totally ordered event list. Events are
// ordered by non-decreasing timestamp; ties keep document order
type Scenario struct {
	ID     string
	Source string // file path, empty for inline documents
	Events []Event
}

// AssertionCount returns the number of assertion events
func (s *Scenario) AssertionCount() int {
	n := 0
	for _, ev := range s.Events {
		if ev.Assertion != nil {
			n++
		}
	}
	return n
}
