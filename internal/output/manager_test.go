package output

import (
	"errors"
	"testing"
)

type stubSink struct {
	writes   int
	closed   bool
	writeErr error
	closeErr error
}

func (s *stubSink) Write(v any) error {
	s.writes++
	return s.writeErr
}

func (s *stubSink) Close() error {
	s.closed = true
	return s.closeErr
}

func TestManager_FansOutToAllSinks(t *testing.T) {
	m := NewManager()
	a, b := &stubSink{}, &stubSink{}
	for _, s := range []*stubSink{a, b} {
		if err := m.AddSink(s); err != nil {
			t.Fatalf("AddSink: %v", err)
		}
	}

	if err := m.Write("payload"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if a.writes != 1 || b.writes != 1 {
		t.Errorf("writes = %d/%d, want 1/1", a.writes, b.writes)
	}
	if !a.closed || !b.closed {
		t.Error("not all sinks were closed")
	}
}

func TestManager_OneFailureDoesNotStopOthers(t *testing.T) {
	m := NewManager()
	broken := &stubSink{writeErr: errors.New("disk full"), closeErr: errors.New("disk full")}
	healthy := &stubSink{}
	_ = m.AddSink(broken)
	_ = m.AddSink(healthy)

	if err := m.Write("payload"); err == nil {
		t.Error("Write swallowed the sink failure")
	}
	if healthy.writes != 1 {
		t.Errorf("healthy sink writes = %d, want 1", healthy.writes)
	}

	if err := m.Close(); err == nil {
		t.Error("Close swallowed the sink failure")
	}
	if !healthy.closed {
		t.Error("healthy sink was not closed")
	}
}

func TestManager_RejectsNilSink(t *testing.T) {
	if err := NewManager().AddSink(nil); err == nil {
		t.Error("AddSink accepted nil")
	}
}
