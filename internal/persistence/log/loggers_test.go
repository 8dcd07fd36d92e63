package log

import (
	"testing"

	"storefront.ai/internal/protocol"
	"storefront.ai/internal/sim/engine"
)

func TestDayLogger_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	l := NewDayLogger(dir)

	for day := 1; day <= 3; day++ {
		entry := engine.DayLogEntry{
			Day:    day,
			Digest: "digest",
			Report: &protocol.DailyReport{
				Type: protocol.TypeReport, Day: day, Customers: 30 + day,
			},
			Decisions: []protocol.DecisionMsg{
				{Type: protocol.TypeDecision, Day: day, StoreID: "A"},
			},
		}
		if err := l.WriteDay(entry); err != nil {
			t.Fatalf("write day %d: %v", day, err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	entries, err := ReadDayLog(dir)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries", len(entries))
	}
	for i, e := range entries {
		if e.Day != i+1 {
			t.Fatalf("entry %d: day %d", i, e.Day)
		}
		if e.Report == nil || e.Report.Customers != 30+e.Day {
			t.Fatalf("entry %d: report %+v", i, e.Report)
		}
		if len(e.Decisions) != 1 || e.Decisions[0].StoreID != "A" {
			t.Fatalf("entry %d: decisions %+v", i, e.Decisions)
		}
	}
}
