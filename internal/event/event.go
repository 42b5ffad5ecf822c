package event

import (
	"encoding/json"

	"github.com/google/uuid"
)

// TagMap is the normalized tag lookup for a single event: tag name to value.
// Keys are unique; insertion order is irrelevant to compliance decisions.
type TagMap map[string]string

// Has reports whether the named tag is present. Presence means the key exists
// in the lookup; an empty value still counts as present.
func (m TagMap) Has(name string) bool {
	_, ok := m[name]
	return ok
}

// Event is one telemetry event fetched from the observability backend.
// Events are read-only snapshots; nothing mutates them after decoding.
type Event struct {
	ID   string
	Tags TagMap
}

type tagPair struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type rawEvent struct {
	ID      string          `json:"id"`
	EventID string          `json:"eventID"`
	Tags    json.RawMessage `json:"tags"`
}

// UnmarshalJSON decodes one event from the backend's listing payload.
//
// The backend identifies events via "id" or "eventID" depending on endpoint
// version; when both are absent a synthetic placeholder is generated so the
// event can still be referenced in violation output.
//
// Tags arrive either as an ordered list of {key, value} pairs (the canonical
// shape) or as a flat string map (flattened exports). An absent, null, or
// unrecognized tags field normalizes to an empty lookup, which leaves the
// event missing every required tag.
func (e *Event) UnmarshalJSON(data []byte) error {
	var raw rawEvent
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	id := raw.ID
	if id == "" {
		id = raw.EventID
	}
	if id == "" {
		id = "unknown-" + uuid.NewString()
	}

	e.ID = id
	e.Tags = normalizeTags(raw.Tags)
	return nil
}

func normalizeTags(raw json.RawMessage) TagMap {
	if len(raw) == 0 {
		return TagMap{}
	}

	var pairs []tagPair
	if err := json.Unmarshal(raw, &pairs); err == nil {
		tags := make(TagMap, len(pairs))
		for _, p := range pairs {
			if p.Key == "" {
				continue
			}
			tags[p.Key] = p.Value
		}
		return tags
	}

	var flat map[string]string
	if err := json.Unmarshal(raw, &flat); err == nil {
		tags := make(TagMap, len(flat))
		for k, v := range flat {
			tags[k] = v
		}
		return tags
	}

	return TagMap{}
}
