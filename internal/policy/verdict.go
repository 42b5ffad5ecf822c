package policy

// Verdict is the compliance outcome for a single event.
type Verdict struct {
	EventID   string `json:"event_id"`
	Compliant bool   `json:"compliant"`
	// MissingTags lists every required tag the event lacks, core tags first,
	// each in rule-set order. Always an array in JSON, never null.
	MissingTags []string `json:"missing_tags"`
}
