package output

import (
	"tagaudit/internal/policy"
	"tagaudit/internal/report"
)

// Record is one line of NDJSON streaming output. A run emits one
// "event.verdict" record per sampled event followed by a single "run.report"
// record. JSON mode instead writes the aggregate report document on Close.
type Record struct {
	Type    string          `json:"type"`
	Verdict *policy.Verdict `json:"verdict,omitempty"`
	Report  *report.Report  `json:"report,omitempty"`
}

func recordFromVerdict(v policy.Verdict) Record {
	return Record{Type: "event.verdict", Verdict: &v}
}

func recordFromReport(r report.Report) Record {
	return Record{Type: "run.report", Report: &r}
}
