package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"storefront.ai/internal/persistence/indexdb"
	persistlog "storefront.ai/internal/persistence/log"
	"storefront.ai/internal/persistence/snapshot"
	"storefront.ai/internal/protocol"
	"storefront.ai/internal/sim/catalogs"
	"storefront.ai/internal/sim/engine"
	"storefront.ai/internal/sim/tuning"
)

func main() {
	var (
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		seed       = flag.Int64("seed", 1337, "simulation seed")
		days       = flag.Int("days", 365, "days to simulate")
		stores     = flag.String("stores", "store_1,store_2", "comma-separated store ids")
		specials   = flag.Bool("specials", true, "enable special customers")
		snapEvery  = flag.Int("snapshot_every", 30, "write a snapshot every N days (0 to disable)")
		snapPath   = flag.String("snapshot", "", "path to snapshot to resume from (optional)")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite index")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[sim] ", log.LstdFlags|log.Lmicroseconds)

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}

	tunPath := *tuningPath
	if tunPath == "" {
		tunPath = filepath.Join(*configDir, "tuning.yaml")
	}
	tun, err := tuning.Load(tunPath)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		tun = tuning.Defaults()
	}
	if *days > 0 {
		tun.GameLengthDays = *days
	}

	storeIDs := splitIDs(*stores)
	eng, err := engine.New(*seed, cats, tun, storeIDs, *specials)
	if err != nil {
		logger.Fatalf("engine: %v", err)
	}

	runID := uuid.NewString()
	if *snapPath != "" {
		state, hdr, err := snapshot.Read(*snapPath)
		if err != nil {
			logger.Fatalf("read snapshot: %v", err)
		}
		if err := eng.ImportSnapshot(state); err != nil {
			logger.Fatalf("import snapshot: %v", err)
		}
		if hdr.RunID != "" {
			runID = hdr.RunID
		}
		logger.Printf("resumed run %s at day %d", runID, eng.Day())
	}
	runDir := filepath.Join(*dataDir, "runs", runID)

	dayLog := persistlog.NewDayLogger(runDir)
	defer dayLog.Close()

	var idx *indexdb.SQLiteIndex
	if !*disableDB {
		idx, err = indexdb.OpenSQLite(filepath.Join(runDir, "index.db"))
		if err != nil {
			logger.Fatalf("open index: %v", err)
		}
		defer idx.Close()
		if err := idx.UpsertCatalogs(*configDir, cats, tun); err != nil {
			logger.Printf("index catalogs: %v", err)
		}
	}

	logger.Printf("run %s seed=%d stores=%v days=%d", runID, *seed, storeIDs, tun.GameLengthDays)

	pilot := newAutopilot(cats, tun)
	for {
		decisions := make([]protocol.DecisionMsg, 0, len(storeIDs))
		for _, id := range eng.StoreIDs() {
			msg := pilot.decide(eng, id)
			if err := eng.ApplyDecision(&msg); err != nil {
				logger.Fatalf("decision for %s: %v", id, err)
			}
			decisions = append(decisions, msg)
		}

		report, err := eng.AdvanceDay()
		if err != nil {
			if errors.Is(err, engine.ErrGameOver) {
				logger.Printf("game over after day %d", eng.Day()-1)
				break
			}
			logger.Fatalf("advance day: %v", err)
		}

		entry := engine.DayLogEntry{
			Day:       report.Day,
			Decisions: decisions,
			Report:    report,
			Digest:    report.Digest,
		}
		if err := dayLog.WriteDay(entry); err != nil {
			logger.Fatalf("day log: %v", err)
		}
		if idx != nil {
			_ = idx.WriteDay(report)
		}

		if report.Day%50 == 0 || report.Day == 1 {
			logger.Printf("day %d: %d customers, digest %s", report.Day, report.Customers, report.Digest[:12])
		}

		if *snapEvery > 0 && report.Day%*snapEvery == 0 {
			state := eng.ExportSnapshot()
			path := filepath.Join(runDir, "snapshots", fmt.Sprintf("day-%05d.snap.zst", report.Day))
			if err := snapshot.Write(path, runID, state); err != nil {
				logger.Fatalf("write snapshot: %v", err)
			}
			if idx != nil {
				idx.RecordSnapshot(path, report.Day, *seed, len(state.Stores), len(state.Orders))
			}
		}
	}

	// Final snapshot so the run can always be resumed or replayed from its end.
	state := eng.ExportSnapshot()
	path := filepath.Join(runDir, "snapshots", "final.snap.zst")
	if err := snapshot.Write(path, runID, state); err != nil {
		logger.Fatalf("write final snapshot: %v", err)
	}
	logger.Printf("final snapshot: %s", path)
}

func splitIDs(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
