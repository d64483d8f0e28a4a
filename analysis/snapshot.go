package analysis

import (
	"strings"

	"github.com/skyradar/reqcover/scenario"
)

// ProjectedAssertion pairs an assertion with the immutable state snapshot in
// effect at its timestamp: every update with timestamp <= the assertion's,
// none later
type ProjectedAssertion struct {
	Time      float64
	Seq       int
	Assertion *scenario.Assertion
	Facts     map[string]any
}

// Project replays a scenario's events in timeline order, maintaining a
// working snapshot split into system-level variables and per-entity
// variables. Each StateUpdate merges into the working snapshot (overwrite by
// key, union by entity id); each Assertion captures a cloned flat view for
// downstream evaluation. The working snapshot is never retroactively
// mutated: clones are append-only
func Project(sc *scenario.Scenario) []ProjectedAssertion {
	system := make(map[string]any)
	entities := make(map[string]map[string]any)

	var projected []ProjectedAssertion
	for _, ev := range sc.Events {
		switch {
		case ev.Update != nil:
			if ev.Update.Target == scenario.SystemTarget {
				for k, v := range ev.Update.Values {
					system[k] = v
				}
			} else {
				id := entityID(ev.Update.Target)
				if entities[id] == nil {
					entities[id] = make(map[string]any)
				}
				for k, v := range ev.Update.Values {
					entities[id][k] = v
				}
			}
		case ev.Assertion != nil:
			projected = append(projected, ProjectedAssertion{
				Time:      ev.Time,
				Seq:       ev.Seq,
				Assertion: ev.Assertion,
				Facts:     factsFor(system, entities, ev.Assertion.Target),
			})
		}
	}
	return projected
}

// factsFor clones the current snapshot flattened for one assertion target:
// system variables first, then the target entity's variables on top. An
// entity-scoped value shadows a system value of the same name
func factsFor(system map[string]any, entities map[string]map[string]any, target string) map[string]any {
	facts := make(map[string]any, len(system))
	for k, v := range system {
		facts[k] = v
	}
	if target != "" && target != scenario.SystemTarget {
		for k, v := range entities[entityID(target)] {
			facts[k] = v
		}
	}
	return facts
}

// entityID strips the scope prefix from a target like "track:4711"
func entityID(target string) string {
	if _, id, ok := strings.Cut(target, ":"); ok {
		return id
	}
	return target
}

// TouchedVariables returns the set of variable names written by any
// StateUpdate across the scenario set, regardless of scope. A condition
// whose variables never appear here is untested at the corpus level
func TouchedVariables(scenarios []*scenario.Scenario) map[string]bool {
	touched := make(map[string]bool)
	for _, sc := range scenarios {
		for _, ev := range sc.Events {
			if ev.Update == nil {
				continue
			}
			for k := range ev.Update.Values {
				touched[k] = true
			}
		}
	}
	return touched
}
