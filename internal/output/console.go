package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"

	"tagaudit/internal/policy"
	"tagaudit/internal/report"
)

var (
	passLabel = color.New(color.FgGreen).Sprint("[PASS]")
	failLabel = color.New(color.FgRed).Sprint("[FAIL]")

	statusColors = map[report.Status]*color.Color{
		report.StatusValidated: color.New(color.FgGreen, color.Bold),
		report.StatusRejected:  color.New(color.FgRed, color.Bold),
		report.StatusSkipped:   color.New(color.FgYellow, color.Bold),
	}
)

// ConsoleSink renders run output for humans (text), as the aggregate report
// document (json), or as a line-per-record stream (ndjson).
type ConsoleSink struct {
	writer io.Writer
	format string // "text", "json", "ndjson"
	mu     sync.Mutex
	rep    *report.Report // captured for JSON aggregate output
}

func NewConsoleSink(w io.Writer, format string) *ConsoleSink {
	if w == nil {
		w = os.Stdout
	}
	if format == "" {
		format = "text"
	}
	return &ConsoleSink{writer: w, format: format}
}

func (s *ConsoleSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.format {
	case "json":
		if r, ok := v.(report.Report); ok {
			s.rep = &r
		}
		return nil
	case "ndjson":
		encoder := json.NewEncoder(s.writer)
		switch t := v.(type) {
		case policy.Verdict:
			if err := encoder.Encode(recordFromVerdict(t)); err != nil {
				return err
			}
			return flushIfPossible(s.writer)
		case report.Report:
			if err := encoder.Encode(recordFromReport(t)); err != nil {
				return err
			}
			return flushIfPossible(s.writer)
		default:
			return nil
		}
	case "text":
		switch t := v.(type) {
		case policy.Verdict:
			if err := s.writeVerdictLine(t); err != nil {
				return err
			}
			return flushIfPossible(s.writer)
		case report.Report:
			if err := s.writeSummary(t); err != nil {
				return err
			}
			return flushIfPossible(s.writer)
		default:
			return nil
		}
	default:
		return fmt.Errorf("unsupported console format: %s", s.format)
	}
}

func (s *ConsoleSink) writeVerdictLine(v policy.Verdict) error {
	label := passLabel
	if !v.Compliant {
		label = failLabel
	}
	if _, err := fmt.Fprintf(s.writer, "%s %s", label, v.EventID); err != nil {
		return err
	}
	if len(v.MissingTags) > 0 {
		if _, err := fmt.Fprintf(s.writer, " - missing: %s", strings.Join(v.MissingTags, ", ")); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(s.writer)
	return err
}

func (s *ConsoleSink) writeSummary(r report.Report) error {
	status := string(r.Status)
	if c, ok := statusColors[r.Status]; ok {
		status = c.Sprint(status)
	}

	if r.Status == report.StatusSkipped {
		_, err := fmt.Fprintf(s.writer, "\nno events found for %s (%s); nothing to check\nstatus: %s\n",
			r.Project, r.Environment, status)
		return err
	}

	_, err := fmt.Fprintf(s.writer, "\n%d/%d events compliant (%d%%, threshold %d%%) for %s (%s)\nstatus: %s\n",
		r.Compliant, r.Total, r.Percentage, r.Threshold, r.Project, r.Environment, status)
	return err
}

func (s *ConsoleSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.format == "json" {
		if s.rep == nil {
			return nil
		}
		encoder := json.NewEncoder(s.writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(s.rep); err != nil {
			return err
		}
		return flushIfPossible(s.writer)
	}
	if s.format != "text" && s.format != "ndjson" {
		return fmt.Errorf("unsupported console format: %s", s.format)
	}
	return nil
}
