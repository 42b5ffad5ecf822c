package output

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"tagaudit/internal/report"
)

// maxSummaryViolations caps the violations table so a badly tagged sample
// does not flood the CI job summary.
const maxSummaryViolations = 20

// SummarySink renders the run as Markdown and appends it to a file,
// typically the one named by GITHUB_STEP_SUMMARY. Appending, not truncating,
// lets the summary coexist with other steps in the same job.
type SummarySink struct {
	path string
	mu   sync.Mutex
	rep  *report.Report
}

func NewSummarySink(path string) (*SummarySink, error) {
	if path == "" {
		return nil, fmt.Errorf("summary path required")
	}
	return &SummarySink{path: path}, nil
}

func (s *SummarySink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := v.(report.Report); ok {
		s.rep = &r
	}
	return nil
}

func (s *SummarySink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rep == nil {
		return nil
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open summary file: %w", err)
	}

	_, writeErr := f.WriteString(renderSummary(*s.rep))
	if closeErr := f.Close(); closeErr != nil && writeErr == nil {
		writeErr = closeErr
	}
	return writeErr
}

func renderSummary(r report.Report) string {
	var b strings.Builder
	b.WriteString("## Telemetry tag compliance\n\n")

	if r.Status == report.StatusSkipped {
		fmt.Fprintf(&b, "**%s** for `%s` (`%s`): no events found, nothing was checked.\n\n",
			r.Status, r.Project, r.Environment)
		return b.String()
	}

	fmt.Fprintf(&b, "**%s** for `%s` (`%s`): %d/%d events compliant (%d%%, threshold %d%%).\n\n",
		r.Status, r.Project, r.Environment, r.Compliant, r.Total, r.Percentage, r.Threshold)

	if len(r.Violations) == 0 {
		return b.String()
	}

	// Events affected per missing tag, in report (first-seen) order.
	counts := make(map[string]int)
	for _, v := range r.Violations {
		for _, name := range v.MissingTags {
			counts[name]++
		}
	}

	b.WriteString("### Missing tags\n\n")
	b.WriteString("| Tag | Events affected |\n")
	b.WriteString("| --- | ---: |\n")
	for _, name := range r.MissingTags {
		fmt.Fprintf(&b, "| `%s` | %d |\n", name, counts[name])
	}
	b.WriteString("\n")

	b.WriteString("### Non-compliant events\n\n")
	b.WriteString("| Event | Missing tags |\n")
	b.WriteString("| --- | --- |\n")
	shown := r.Violations
	if len(shown) > maxSummaryViolations {
		shown = shown[:maxSummaryViolations]
	}
	for _, v := range shown {
		fmt.Fprintf(&b, "| `%s` | %s |\n", v.EventID, strings.Join(v.MissingTags, ", "))
	}
	if hidden := len(r.Violations) - len(shown); hidden > 0 {
		fmt.Fprintf(&b, "\n%d more non-compliant events are in the full report.\n", hidden)
	}
	b.WriteString("\n")

	return b.String()
}
