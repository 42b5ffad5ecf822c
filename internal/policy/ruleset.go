package policy

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Tag names the telemetry contract requires. Core tags must appear on every
// event; orchestration tags identify events produced by the job-orchestration
// pipeline and are required only once any of them is present.
const (
	TagTraceID     = "trace_id"
	TagProjectID   = "project_id"
	TagEnvironment = "environment"
	TagRelease     = "release"

	TagJobID        = "job_id"
	TagExecutionID  = "execution_id"
	TagTaskID       = "task_id"
	TagRepositoryID = "repository_id"
	TagAgentType    = "agent_type"
)

// RuleSet is the tag policy one run evaluates against. The zero value is not
// usable; start from Default or LoadFile.
type RuleSet struct {
	// Core tags are required on every event.
	Core []string `yaml:"core"`
	// Orchestration tags are required as a complete set once any one of them
	// is present on an event.
	Orchestration []string `yaml:"orchestration"`
}

// Default returns the built-in telemetry contract.
func Default() RuleSet {
	return RuleSet{
		Core: []string{TagTraceID, TagProjectID, TagEnvironment, TagRelease},
		Orchestration: []string{
			TagJobID,
			TagExecutionID,
			TagTaskID,
			TagRepositoryID,
			TagAgentType,
		},
	}
}

// LoadFile reads a rule-set override from a YAML file of the form:
//
//	core:
//	  - trace_id
//	  - environment
//	orchestration:
//	  - job_id
//
// Core must declare at least one tag, and a tag may appear in only one list.
func LoadFile(path string) (RuleSet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return RuleSet{}, fmt.Errorf("read rules file: %w", err)
	}

	var rs RuleSet
	if err := yaml.Unmarshal(raw, &rs); err != nil {
		return RuleSet{}, fmt.Errorf("parse rules file: %w", err)
	}

	rs.Core = cleanTagList(rs.Core)
	rs.Orchestration = cleanTagList(rs.Orchestration)

	if len(rs.Core) == 0 {
		return RuleSet{}, errors.New("rules file must declare at least one core tag")
	}

	seen := make(map[string]struct{}, len(rs.Core)+len(rs.Orchestration))
	for _, name := range rs.Core {
		seen[name] = struct{}{}
	}
	for _, name := range rs.Orchestration {
		if _, dup := seen[name]; dup {
			return RuleSet{}, fmt.Errorf("tag %q appears in both core and orchestration", name)
		}
		seen[name] = struct{}{}
	}

	return rs, nil
}

func cleanTagList(names []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
