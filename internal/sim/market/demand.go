package market

import (
	"sort"

	"storefront.ai/internal/sim/catalogs"
	"storefront.ai/internal/sim/rng"
)

// Sell-through thresholds and adjustment range for the daily demand update.
const (
	sellThroughHigh = 0.8
	sellThroughLow  = 0.2
	adjustMin       = 0.1
	adjustMax       = 0.3
)

// DemandTracker maintains the per-item demand multiplier used to weight
// customer need selection. Multipliers stay within [min,max]; an update that
// would leave the range resets instead (above max -> 1.0, below min -> 0.5).
type DemandTracker struct {
	mult     map[string]float64
	min, max float64
}

func NewDemandTracker(items catalogs.ItemCatalog, min, max float64) *DemandTracker {
	m := make(map[string]float64, len(items.Defs))
	for id := range items.Defs {
		m[id] = 1.0
	}
	return &DemandTracker{mult: m, min: min, max: max}
}

func (d *DemandTracker) Multiplier(itemID string) float64 { return d.mult[itemID] }

func (d *DemandTracker) Snapshot() map[string]float64 {
	out := make(map[string]float64, len(d.mult))
	for id, m := range d.mult {
		out[id] = m
	}
	return out
}

func (d *DemandTracker) Restore(mult map[string]float64) {
	d.mult = make(map[string]float64, len(mult))
	for id, m := range mult {
		d.mult[id] = m
	}
}

func (d *DemandTracker) Bounds() (min, max float64) { return d.min, d.max }

// Update adjusts one item's multiplier from the previous day's sell-through.
// A zero starting inventory means no signal: the multiplier is unchanged.
func (d *DemandTracker) Update(itemID string, unitsSold, startingInventory int, s *rng.Stream) float64 {
	cur := d.mult[itemID]
	if startingInventory <= 0 {
		return cur
	}
	sellThrough := float64(unitsSold) / float64(startingInventory)
	switch {
	case sellThrough >= sellThroughHigh:
		cur += s.Between(adjustMin, adjustMax)
	case sellThrough <= sellThroughLow:
		cur -= s.Between(adjustMin, adjustMax)
	default:
		return cur
	}
	if cur > d.max {
		cur = 1.0
	} else if cur < d.min {
		cur = 0.5
	}
	d.mult[itemID] = cur
	return cur
}

// WeightedPick selects one candidate with probability proportional to its
// demand multiplier. Candidates are sorted before sampling so the draw
// depends only on the set and the stream. Returns "" for no candidates.
func (d *DemandTracker) WeightedPick(candidates []string, s *rng.Stream) string {
	if len(candidates) == 0 {
		return ""
	}
	ids := make([]string, len(candidates))
	copy(ids, candidates)
	sort.Strings(ids)

	var total float64
	for _, id := range ids {
		total += d.mult[id]
	}
	if total <= 0 {
		return ids[s.IntN(len(ids))]
	}

	target := s.Float64() * total
	var acc float64
	for _, id := range ids {
		acc += d.mult[id]
		if target <= acc {
			return id
		}
	}
	return ids[len(ids)-1]
}
