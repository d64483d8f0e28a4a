package scenario

import (
	"errors"
	"testing"
)

const eligibleTrackDoc = `
<scenario id="MSAW-025_test_01">
  <step time="0">
    <set target="system" var="status" value="OPERATIONAL"/>
    <set target="track:4711" var="flightLevel" value="310"/>
    <set target="track:4711" var="transponderFailed" value="true"/>
  </step>
  <step time="5">
    <assert observable="alert" target="track:4711" expected="true"/>
  </step>
</scenario>`

func TestParseScenario(t *testing.T) {
	s, err := Parse([]byte(eligibleTrackDoc))
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}

	if s.ID != "MSAW-025_test_01" {
		t.Errorf("ID = %q, want MSAW-025_test_01", s.ID)
	}
	if len(s.Events) != 4 {
		t.Fatalf("got %d events, want 4", len(s.Events))
	}
	if s.AssertionCount() != 1 {
		t.Errorf("AssertionCount() = %d, want 1", s.AssertionCount())
	}

	first := s.Events[0]
	if first.Update == nil || first.Update.Target != SystemTarget {
		t.Errorf("first event should be the system update, got %+v", first)
	}
	if got := first.Update.Values["status"]; got != "OPERATIONAL" {
		t.Errorf("status = %v, want OPERATIONAL", got)
	}

	last := s.Events[3]
	if last.Assertion == nil {
		t.Fatalf("last event should be the assertion, got %+v", last)
	}
	if last.Assertion.Observable != "alert" || last.Assertion.Target != "track:4711" {
		t.Errorf("assertion = %+v", last.Assertion)
	}
	if last.Assertion.Expected != true {
		t.Errorf("Expected = %v (%T), want true", last.Assertion.Expected, last.Assertion.Expected)
	}
}

func TestParseOrdersEventsByTime(t *testing.T) {
	doc := `
<scenario id="out_of_order">
  <step time="10">
    <set var="flightLevel" value="310"/>
    <assert observable="alert" expected="true"/>
  </step>
  <step time="2">
    <set var="flightLevel" value="100"/>
  </step>
  <step time="10">
    <set var="status" value="OPERATIONAL"/>
  </step>
</scenario>`

	s, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}

	times := make([]float64, len(s.Events))
	for i, ev := range s.Events {
		times[i] = ev.Time
	}
	for i := 1; i < len(times); i++ {
		if times[i] < times[i-1] {
			t.Fatalf("events not sorted by time: %v", times)
		}
	}

	// equal timestamps keep document order: the t=10 set and assert from the
	// first step come before the t=10 set from the third step
	if s.Events[1].Update == nil || s.Events[1].Update.Values["flightLevel"] != int64(310) {
		t.Errorf("event 1 should be the flightLevel update, got %+v", s.Events[1])
	}
	if s.Events[2].Assertion == nil {
		t.Errorf("event 2 should be the assertion, got %+v", s.Events[2])
	}
	if s.Events[3].Update == nil || s.Events[3].Update.Values["status"] != "OPERATIONAL" {
		t.Errorf("event 3 should be the status update, got %+v", s.Events[3])
	}
}

func TestParseMalformed(t *testing.T) {
	testCases := []struct {
		name string
		doc  string
	}{
		{"not xml", "not xml at all"},
		{"missing id", `<scenario><step time="0"><assert observable="alert" expected="true"/></step></scenario>`},
		{"bad time", `<scenario id="s"><step time="soon"><assert observable="alert" expected="true"/></step></scenario>`},
		{"negative time", `<scenario id="s"><step time="-1"><assert observable="alert" expected="true"/></step></scenario>`},
		{"set without var", `<scenario id="s"><step time="0"><set value="1"/></step></scenario>`},
		{"assert without observable", `<scenario id="s"><step time="0"><assert expected="true"/></step></scenario>`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.doc))
			if err == nil {
				t.Fatal("Parse() should have failed")
			}
			if !errors.Is(err, ErrMalformedScenario) {
				t.Errorf("error should wrap ErrMalformedScenario, got: %v", err)
			}
		})
	}
}

func TestParseNoAssertions(t *testing.T) {
	doc := `<scenario id="sets_only"><step time="0"><set var="status" value="OPERATIONAL"/></step></scenario>`

	// assertion-less documents are structurally valid; flagging them is the
	// loader's job, not the parser's
	s, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	if s.ID != "sets_only" || len(s.Events) != 1 {
		t.Errorf("scenario = %+v", s)
	}
	if s.AssertionCount() != 0 {
		t.Errorf("AssertionCount() = %d, want 0", s.AssertionCount())
	}
}

func TestParseValue(t *testing.T) {
	testCases := []struct {
		raw  string
		want any
	}{
		{"true", true},
		{"false", false},
		{"310", int64(310)},
		{"-5", int64(-5)},
		{"3.5", 3.5},
		{"OPERATIONAL", "OPERATIONAL"},
		{" 7500 ", int64(7500)},
		{"", ""},
	}

	for _, tc := range testCases {
		if got := ParseValue(tc.raw); got != tc.want {
			t.Errorf("ParseValue(%q) = %v (%T), want %v (%T)", tc.raw, got, got, tc.want, tc.want)
		}
	}
}
