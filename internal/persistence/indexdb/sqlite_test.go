package indexdb

import (
	"path/filepath"
	"testing"

	"storefront.ai/internal/protocol"
)

func TestWriteDay_StoreHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	for day := 1; day <= 3; day++ {
		report := &protocol.DailyReport{
			Type: protocol.TypeReport, Day: day, Digest: "d",
			Customers: 30,
			Stores: []protocol.StoreReport{
				{StoreID: "A", Cash: 1000 + float64(day), Level: 1, UnitsSold: day * 2, Revenue: float64(day) * 5},
				{StoreID: "B", Cash: 900, Level: 1},
			},
		}
		if err := idx.WriteDay(report); err != nil {
			t.Fatalf("write day %d: %v", day, err)
		}
	}
	// Close drains the writer goroutine before the read.
	if err := idx.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	idx2, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer idx2.Close()

	rows, err := idx2.StoreHistory("A")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows", len(rows))
	}
	if rows[2].Day != 3 || rows[2].UnitsSold != 6 || rows[2].Cash != 1003 {
		t.Fatalf("row: %+v", rows[2])
	}
}
