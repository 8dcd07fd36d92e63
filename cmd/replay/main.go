package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	persistlog "storefront.ai/internal/persistence/log"
	"storefront.ai/internal/persistence/snapshot"
	"storefront.ai/internal/sim/catalogs"
	"storefront.ai/internal/sim/engine"
	"storefront.ai/internal/sim/tuning"
)

// replay verifies a recorded run: it restores the starting snapshot,
// re-applies each logged day's decisions, and checks that every day's state
// digest matches the log.
func main() {
	var (
		snapPath  = flag.String("snapshot", "", "path to .snap.zst to start from")
		runDir    = flag.String("run", "", "run directory containing days/ (optional; verify digests)")
		configDir = flag.String("configs", "./configs", "config directory")
		fromDay   = flag.Int("from_day", 0, "start verifying from day (inclusive, optional)")
		toDay     = flag.Int("to_day", 0, "stop at day (inclusive, optional)")
	)
	flag.Parse()

	if *snapPath == "" {
		fmt.Fprintln(os.Stderr, "missing -snapshot")
		os.Exit(2)
	}

	state, hdr, err := snapshot.Read(*snapPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read snapshot:", err)
		os.Exit(1)
	}
	fmt.Printf("snapshot v%d run=%s day=%d seed=%d stores=%d orders=%d\n",
		hdr.Version, hdr.RunID, hdr.Day, state.Seed, len(state.Stores), len(state.Orders))

	if *runDir == "" {
		return
	}

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load catalogs:", err)
		os.Exit(1)
	}
	tun, err := tuning.Load(filepath.Join(*configDir, "tuning.yaml"))
	if err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintln(os.Stderr, "load tuning:", err)
			os.Exit(1)
		}
		tun = tuning.Defaults()
	}

	ids := make([]string, 0, len(state.Stores))
	for _, s := range state.Stores {
		ids = append(ids, s.ID)
	}
	eng, err := engine.New(state.Seed, cats, tun, ids, true)
	if err != nil {
		fmt.Fprintln(os.Stderr, "engine:", err)
		os.Exit(1)
	}
	if err := eng.ImportSnapshot(state); err != nil {
		fmt.Fprintln(os.Stderr, "import snapshot:", err)
		os.Exit(1)
	}

	entries, err := persistlog.ReadDayLog(*runDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read day log:", err)
		os.Exit(1)
	}

	verified := 0
	for _, entry := range entries {
		if entry.Day < eng.Day() {
			continue
		}
		if *fromDay > 0 && entry.Day < *fromDay {
			continue
		}
		if *toDay > 0 && entry.Day > *toDay {
			break
		}
		if entry.Day != eng.Day() {
			fmt.Fprintf(os.Stderr, "day log gap: engine at day %d, next entry day %d\n", eng.Day(), entry.Day)
			os.Exit(1)
		}

		for i := range entry.Decisions {
			if err := eng.ApplyDecision(&entry.Decisions[i]); err != nil {
				fmt.Fprintf(os.Stderr, "day %d: apply decision for %s: %v\n", entry.Day, entry.Decisions[i].StoreID, err)
				os.Exit(1)
			}
		}
		report, err := eng.AdvanceDay()
		if err != nil {
			fmt.Fprintf(os.Stderr, "day %d: advance: %v\n", entry.Day, err)
			os.Exit(1)
		}
		if report.Digest != entry.Digest {
			fmt.Fprintf(os.Stderr, "day %d: digest mismatch\n  logged:   %s\n  replayed: %s\n", entry.Day, entry.Digest, report.Digest)
			os.Exit(1)
		}
		verified++
	}

	fmt.Printf("verified %d days, final day %d, digest %s\n", verified, eng.Day()-1, eng.StateDigest())
}
