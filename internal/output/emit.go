package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"tagaudit/internal/policy"
	"tagaudit/internal/report"
)

// EmitSink writes additional machine-readable output alongside the console.
//
// Formats:
//   - json: writes the aggregate report document on Close
//   - ndjson: streams one Record per line
type EmitSink struct {
	writer io.Writer
	format string // "json" | "ndjson"
	mu     sync.Mutex
	rep    *report.Report
}

func NewEmitSink(w io.Writer, format string) (*EmitSink, error) {
	if w == nil {
		return nil, fmt.Errorf("emit sink writer must not be nil")
	}
	if format != "json" && format != "ndjson" {
		return nil, fmt.Errorf("unsupported emit format: %s", format)
	}
	return &EmitSink{writer: w, format: format}, nil
}

func (s *EmitSink) Write(v any) error {
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
	default:
		return fmt.Errorf("unsupported emit format: %s", s.format)
	}
}

func (s *EmitSink) Close() error {
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
	return nil
}
