package policy

import "tagaudit/internal/event"

// Evaluate checks one event's tags against the rule set and returns its
// verdict. The check runs in two phases:
//
//  1. Every core tag must be present.
//  2. If any orchestration tag is present, the event is on the orchestration
//     path and the full orchestration set must be present.
//
// An event with no orchestration tags at all skips phase 2 entirely; plain
// application events are not penalized for lacking pipeline identifiers.
// Evaluate is pure and safe for concurrent use.
func (rs RuleSet) Evaluate(eventID string, tags event.TagMap) Verdict {
	missing := make([]string, 0, len(rs.Core))

	for _, name := range rs.Core {
		if !tags.Has(name) {
			missing = append(missing, name)
		}
	}

	if rs.onOrchestrationPath(tags) {
		for _, name := range rs.Orchestration {
			if !tags.Has(name) {
				missing = append(missing, name)
			}
		}
	}

	return Verdict{
		EventID:     eventID,
		Compliant:   len(missing) == 0,
		MissingTags: missing,
	}
}

func (rs RuleSet) onOrchestrationPath(tags event.TagMap) bool {
	for _, name := range rs.Orchestration {
		if tags.Has(name) {
			return true
		}
	}
	return false
}
