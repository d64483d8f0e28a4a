package scenario

import (
	"encoding/xml"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// XML document shapes for the scenario corpus format:
//
//	<scenario id="MSAW-025_test_01">
//	  <step time="0">
//	    <set target="system" var="status" value="OPERATIONAL"/>
//	    <set target="track:4711" var="flightLevel" value="310"/>
//	  </step>
//	  <step time="5">
//	    <assert observable="alert" target="track:4711" expected="true"/>
//	  </step>
//	</scenario>
type xmlScenario struct {
	XMLName xml.Name  `xml:"scenario"`
	ID      string    `xml:"id,attr"`
	Steps   []xmlStep `xml:"step"`
}

type xmlStep struct {
	Time    string      `xml:"time,attr"`
	Sets    []xmlSet    `xml:"set"`
	Asserts []xmlAssert `xml:"assert"`
}

type xmlSet struct {
	Target string `xml:"target,attr"`
	Var    string `xml:"var,attr"`
	Value  string `xml:"value,attr"`
}

type xmlAssert struct {
	Observable string `xml:"observable,attr"`
	Target     string `xml:"target,attr"`
	Expected   string `xml:"expected,attr"`
}

// Parse builds a Scenario from one XML scenario document. It is a pure
// parse: the returned event list is stably sorted by timestamp, preserving
// document order on ties, and within a step state updates precede
// assertions so an assertion observes all updates at its own timestamp.
// Returns ErrMalformedScenario on unparsable structure. A scenario without
// assertions parses fine; callers check AssertionCount to decide whether it
// is worth analyzing
func Parse(data []byte) (*Scenario, error) {
	var doc xmlScenario
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedScenario, err)
	}
	if doc.ID == "" {
		return nil, fmt.Errorf("%w: scenario element has no id attribute", ErrMalformedScenario)
	}

	s := &Scenario{ID: doc.ID}
	seq := 0
	for i, step := range doc.Steps {
		ts, err := strconv.ParseFloat(strings.TrimSpace(step.Time), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: step %d has invalid time %q", ErrMalformedScenario, doc.ID, i+1, step.Time)
		}
		if ts < 0 {
			return nil, fmt.Errorf("%w: %s: step %d has negative time %v", ErrMalformedScenario, doc.ID, i+1, ts)
		}

		for _, set := range step.Sets {
			if set.Var == "" {
				return nil, fmt.Errorf("%w: %s: set without var attribute at time %v", ErrMalformedScenario, doc.ID, ts)
			}
			target := set.Target
			if target == "" {
				target = SystemTarget
			}
			s.Events = append(s.Events, Event{
				Time: ts,
				Seq:  seq,
				Update: &StateUpdate{
					Target: target,
					Values: map[string]any{set.Var: ParseValue(set.Value)},
				},
			})
			seq++
		}
		for _, as := range step.Asserts {
			if as.Observable == "" {
				return nil, fmt.Errorf("%w: %s: assert without observable attribute at time %v", ErrMalformedScenario, doc.ID, ts)
			}
			s.Events = append(s.Events, Event{
				Time: ts,
				Seq:  seq,
				Assertion: &Assertion{
					Observable: as.Observable,
					Target:     as.Target,
					Expected:   ParseValue(as.Expected),
				},
			})
			seq++
		}
	}

	sort.SliceStable(s.Events, func(i, j int) bool {
		return s.Events[i].Time < s.Events[j].Time
	})
	return s, nil
}

// ParseValue converts a raw attribute string to its natural Go type:
// bool, int64, float64, or string. Corpus markup is untyped; the
// requirement's schema decides how a value is compared
func ParseValue(raw string) any {
	v := strings.TrimSpace(raw)
	switch v {
	case "true":
		return true
	case "false":
		return false
	}
	if i, err := strconv.ParseInt(v, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	return v
}
