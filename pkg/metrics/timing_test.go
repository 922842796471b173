package metrics

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestTimingMetric_Record(t *testing.T) {
	m := newTimingMetric("test")
	m.Record(2 * time.Millisecond)
	m.Record(4 * time.Millisecond)

	if m.Count() != 2 {
		t.Fatalf("expected count 2, got %d", m.Count())
	}
	st := m.Stats()
	if st.AvgMs != 3 {
		t.Errorf("expected avg 3ms, got %v", st.AvgMs)
	}
	if st.MaxMs != 4 || st.MinMs != 2 {
		t.Errorf("unexpected min/max %v/%v", st.MinMs, st.MaxMs)
	}

	m.Reset()
	if m.Count() != 0 || m.MinNs() != 0 {
		t.Error("reset did not clear metric")
	}
}

func TestReport(t *testing.T) {
	ResetAll()
	defer ResetAll()

	var buf bytes.Buffer
	if err := Report(&buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "no timing data") {
		t.Errorf("unexpected empty report %q", buf.String())
	}

	LayoutTick.Record(time.Millisecond)
	buf.Reset()
	if err := Report(&buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "layout_tick") {
		t.Errorf("report missing layout_tick:\n%s", buf.String())
	}
}

func TestTimer_Disabled(t *testing.T) {
	SetEnabled(false)
	defer SetEnabled(true)
	m := newTimingMetric("off")
	Timer(m)()
	if m.Count() != 0 {
		t.Error("timer recorded while disabled")
	}
}
