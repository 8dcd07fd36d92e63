package vendors

import (
	"sort"

	"storefront.ai/internal/sim/catalogs"
	"storefront.ai/internal/sim/rng"
)

// Availability is the per-day cached draw of each vendor's random item
// subset, keyed by (vendor, day). Redraw computes it once per day; every
// query that day reuses the cache.
type Availability struct {
	vendors catalogs.VendorCatalog

	day     int
	drawn   bool
	subsets map[string]map[string]bool
}

func NewAvailability(vendors catalogs.VendorCatalog) *Availability {
	return &Availability{vendors: vendors}
}

// Redraw recomputes subset vendors' daily item lists. Items are drawn
// without replacement from the sorted catalog so the draw depends only on
// the stream and the item set.
func (a *Availability) Redraw(day int, items []string, s *rng.Stream) {
	a.day = day
	a.drawn = true
	a.subsets = map[string]map[string]bool{}

	pool := make([]string, len(items))
	copy(pool, items)
	sort.Strings(pool)

	for _, vid := range a.vendors.Order {
		v := a.vendors.ByID[vid]
		if v.DailySubsetSize <= 0 {
			continue
		}
		n := v.DailySubsetSize
		if n > len(pool) {
			n = len(pool)
		}
		picks := make([]string, len(pool))
		copy(picks, pool)
		subset := make(map[string]bool, n)
		for i := 0; i < n; i++ {
			j := i + s.IntN(len(picks)-i)
			picks[i], picks[j] = picks[j], picks[i]
			subset[picks[i]] = true
		}
		a.subsets[vid] = subset
	}
}

// Quote returns the vendor's effective price for an item, whether the vendor
// lists the item today, and the vendor's daily unit cap (0 = uncapped).
// Effective price is always market price times the vendor multiplier; the
// availability predicate is the conjunction of the static price bracket and
// membership in the day's cached subset.
func (a *Availability) Quote(vendorID, itemID string, marketPrice float64, day int) (price float64, available bool, orderLimit int, err error) {
	if !a.drawn || a.day != day {
		return 0, false, 0, ErrNotInitialized
	}
	v, ok := a.vendors.ByID[vendorID]
	if !ok {
		return 0, false, 0, &ValidationError{Reason: "unknown vendor: " + vendorID}
	}

	price = marketPrice * v.PriceMultiplier

	available = true
	if v.PriceMin > 0 && marketPrice < v.PriceMin {
		available = false
	}
	if v.PriceMax > 0 && marketPrice > v.PriceMax {
		available = false
	}
	if v.DailySubsetSize > 0 && !a.subsets[vendorID][itemID] {
		available = false
	}
	return price, available, v.DailyUnitCap, nil
}

func (a *Availability) Day() int { return a.day }
