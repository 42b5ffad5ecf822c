package policy

import (
	"reflect"
	"testing"

	"pgregory.net/rapid"

	"tagaudit/internal/event"
)

func TestEvaluate_CorePhase(t *testing.T) {
	rs := Default()

	tests := []struct {
		name        string
		tags        event.TagMap
		compliant   bool
		missingTags []string
	}{
		{
			name: "all core tags present",
			tags: event.TagMap{
				"trace_id":    "abc123",
				"project_id":  "platform-api",
				"environment": "production",
				"release":     "v2.4.1",
			},
			compliant:   true,
			missingTags: []string{},
		},
		{
			name: "one core tag missing",
			tags: event.TagMap{
				"trace_id":   "abc123",
				"project_id": "platform-api",
				"release":    "v2.4.1",
			},
			compliant:   false,
			missingTags: []string{"environment"},
		},
		{
			name: "multiple core tags missing reported in rule-set order",
			tags: event.TagMap{
				"environment": "staging",
			},
			compliant:   false,
			missingTags: []string{"trace_id", "project_id", "release"},
		},
		{
			name:        "no tags at all",
			tags:        event.TagMap{},
			compliant:   false,
			missingTags: []string{"trace_id", "project_id", "environment", "release"},
		},
		{
			name: "empty tag value still counts as present",
			tags: event.TagMap{
				"trace_id":    "",
				"project_id":  "platform-api",
				"environment": "production",
				"release":     "v2.4.1",
			},
			compliant:   true,
			missingTags: []string{},
		},
		{
			name: "extra unknown tags are ignored",
			tags: event.TagMap{
				"trace_id":    "abc123",
				"project_id":  "platform-api",
				"environment": "production",
				"release":     "v2.4.1",
				"browser":     "firefox",
				"os":          "linux",
			},
			compliant:   true,
			missingTags: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rs.Evaluate("evt-1", tt.tags)

			if got.EventID != "evt-1" {
				t.Errorf("EventID = %q, want %q", got.EventID, "evt-1")
			}
			if got.Compliant != tt.compliant {
				t.Errorf("Compliant = %v, want %v", got.Compliant, tt.compliant)
			}
			if !reflect.DeepEqual(got.MissingTags, tt.missingTags) {
				t.Errorf("MissingTags = %v, want %v", got.MissingTags, tt.missingTags)
			}
		})
	}
}

func TestEvaluate_OrchestrationPhase(t *testing.T) {
	rs := Default()

	coreTags := event.TagMap{
		"trace_id":    "abc123",
		"project_id":  "platform-api",
		"environment": "production",
		"release":     "v2.4.1",
	}
	withCore := func(extra event.TagMap) event.TagMap {
		tags := event.TagMap{}
		for k, v := range coreTags {
			tags[k] = v
		}
		for k, v := range extra {
			tags[k] = v
		}
		return tags
	}

	tests := []struct {
		name        string
		tags        event.TagMap
		compliant   bool
		missingTags []string
	}{
		{
			name:        "no orchestration tags skips the phase",
			tags:        withCore(nil),
			compliant:   true,
			missingTags: []string{},
		},
		{
			name: "complete orchestration set",
			tags: withCore(event.TagMap{
				"job_id":        "job-9",
				"execution_id":  "exec-4",
				"task_id":       "task-2",
				"repository_id": "repo-7",
				"agent_type":    "builder",
			}),
			compliant:   true,
			missingTags: []string{},
		},
		{
			name: "single orchestration tag requires the full set",
			tags: withCore(event.TagMap{
				"job_id": "job-9",
			}),
			compliant:   false,
			missingTags: []string{"execution_id", "task_id", "repository_id", "agent_type"},
		},
		{
			name: "partial orchestration set reports the remainder in order",
			tags: withCore(event.TagMap{
				"execution_id": "exec-4",
				"agent_type":   "builder",
			}),
			compliant:   false,
			missingTags: []string{"job_id", "task_id", "repository_id"},
		},
		{
			name: "core misses come before orchestration misses",
			tags: event.TagMap{
				"project_id":  "platform-api",
				"environment": "production",
				"job_id":      "job-9",
			},
			compliant:   false,
			missingTags: []string{
				"trace_id", "release",
				"execution_id", "task_id", "repository_id", "agent_type",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rs.Evaluate("evt-2", tt.tags)

			if got.Compliant != tt.compliant {
				t.Errorf("Compliant = %v, want %v", got.Compliant, tt.compliant)
			}
			if !reflect.DeepEqual(got.MissingTags, tt.missingTags) {
				t.Errorf("MissingTags = %v, want %v", got.MissingTags, tt.missingTags)
			}
		})
	}
}

func TestEvaluate_Properties(t *testing.T) {
	rs := Default()
	required := append(append([]string{}, rs.Core...), rs.Orchestration...)

	rapid.Check(t, func(t *rapid.T) {
		tags := event.TagMap{}
		for _, name := range required {
			if rapid.Bool().Draw(t, name) {
				tags[name] = "x"
			}
		}

		v := rs.Evaluate("evt", tags)

		if v.Compliant != (len(v.MissingTags) == 0) {
			t.Fatalf("Compliant = %v with %d missing tags", v.Compliant, len(v.MissingTags))
		}
		if v.MissingTags == nil {
			t.Fatalf("MissingTags is nil, want empty slice")
		}
		for _, name := range v.MissingTags {
			if tags.Has(name) {
				t.Fatalf("tag %q reported missing but present", name)
			}
		}
		onPath := false
		for _, name := range rs.Orchestration {
			if tags.Has(name) {
				onPath = true
			}
		}
		for _, name := range v.MissingTags {
			for _, orch := range rs.Orchestration {
				if name == orch && !onPath {
					t.Fatalf("orchestration tag %q reported missing off the orchestration path", name)
				}
			}
		}
	})
}
