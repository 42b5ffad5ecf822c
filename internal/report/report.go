package report

import "tagaudit/internal/policy"

// Status is the aggregate outcome of one compliance run.
type Status string

const (
	// StatusSkipped means the sample was empty; nothing was checked.
	StatusSkipped Status = "SKIPPED"
	// StatusValidated means the compliant percentage met the threshold.
	StatusValidated Status = "VALIDATED"
	// StatusRejected means the compliant percentage fell below the threshold.
	StatusRejected Status = "REJECTED"
)

// Violation identifies one non-compliant event and the tags it lacks.
type Violation struct {
	EventID     string   `json:"event_id"`
	MissingTags []string `json:"missing_tags"`
}

// Report is the compliance document one run produces. Its JSON shape is a
// published contract consumed by CI pipelines; field names and the
// always-an-array slices must not change.
type Report struct {
	Status      Status      `json:"status"`
	Project     string      `json:"project"`
	Environment string      `json:"environment"`
	Compliant   int         `json:"compliant"`
	Total       int         `json:"total"`
	Percentage  int         `json:"percentage"`
	Threshold   int         `json:"threshold"`
	MissingTags []string    `json:"missing_tags"`
	Violations  []Violation `json:"contract_violations"`
}

// Build folds per-event verdicts into the aggregate report.
//
// Percentage is compliant*100/total with the fraction truncated; the
// threshold comparison is inclusive. An empty sample is SKIPPED, never
// REJECTED. MissingTags is the union across all verdicts in first-seen
// order, and Violations preserves verdict order.
func Build(project, environment string, threshold, total int, verdicts []policy.Verdict) Report {
	r := Report{
		Status:      StatusSkipped,
		Project:     project,
		Environment: environment,
		Total:       total,
		Threshold:   threshold,
		MissingTags: []string{},
		Violations:  []Violation{},
	}

	seen := make(map[string]struct{})
	for _, v := range verdicts {
		if v.Compliant {
			r.Compliant++
			continue
		}
		tags := make([]string, 0, len(v.MissingTags))
		for _, name := range v.MissingTags {
			tags = append(tags, name)
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			r.MissingTags = append(r.MissingTags, name)
		}
		r.Violations = append(r.Violations, Violation{EventID: v.EventID, MissingTags: tags})
	}

	if total == 0 {
		return r
	}

	r.Percentage = r.Compliant * 100 / total
	if r.Percentage >= threshold {
		r.Status = StatusValidated
	} else {
		r.Status = StatusRejected
	}
	return r
}

// ExitCode maps the run outcome to the process exit code: 0 for VALIDATED and
// SKIPPED, 1 for REJECTED. Fatal errors exit 1 before a report exists.
func (r Report) ExitCode() int {
	if r.Status == StatusRejected {
		return 1
	}
	return 0
}
