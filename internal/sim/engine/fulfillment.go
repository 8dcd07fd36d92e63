package engine

import "storefront.ai/internal/protocol"

// Reputation thresholds per recorded visit.
const (
	repPenaltyMaxPct = 30.0
	repRewardMinPct  = 80.0
	repPerfectPct    = 99.999
)

// FulfillmentTracker aggregates one day's visits per store and derives the
// reputation deltas. Rebuilt fresh every day.
type FulfillmentTracker struct {
	visits  []*Visit
	byStore map[string]*storeRecord
	// visits per customer across all stores, for the sole-store bonus
	customerStops map[string]int
}

type storeRecord struct {
	allocatedPcts []float64
	overflowPcts  []float64
	allocatedIDs  map[string]bool
	overflowIDs   map[string]bool
}

func NewFulfillmentTracker() *FulfillmentTracker {
	return &FulfillmentTracker{
		byStore:       map[string]*storeRecord{},
		customerStops: map[string]int{},
	}
}

// RecordVisit appends a visit to the store's per-type statistics. Visits
// with an empty basket carry no signal and are ignored.
func (t *FulfillmentTracker) RecordVisit(v *Visit) {
	if v == nil || v.BasketSize <= 0 {
		return
	}
	rec := t.byStore[v.StoreID]
	if rec == nil {
		rec = &storeRecord{allocatedIDs: map[string]bool{}, overflowIDs: map[string]bool{}}
		t.byStore[v.StoreID] = rec
	}
	switch v.Type {
	case VisitAllocated:
		rec.allocatedPcts = append(rec.allocatedPcts, v.FulfillmentPct)
		rec.allocatedIDs[v.CustomerID] = true
	case VisitOverflow:
		rec.overflowPcts = append(rec.overflowPcts, v.FulfillmentPct)
		rec.overflowIDs[v.CustomerID] = true
	}
	t.visits = append(t.visits, v)
	t.customerStops[v.CustomerID]++
}

// ApplyReputation walks the day's visits once all customers are resolved:
// -1 for fulfillment at or under 30%, +1 at or over 80%, and one extra +1
// when the store was the customer's only stop and fulfillment was complete.
func (t *FulfillmentTracker) ApplyReputation(store func(id string) *Store) {
	for _, v := range t.visits {
		s := store(v.StoreID)
		if s == nil {
			continue
		}
		switch {
		case v.FulfillmentPct <= repPenaltyMaxPct:
			s.adjustReputation(-1)
		case v.FulfillmentPct >= repRewardMinPct:
			s.adjustReputation(1)
			if t.customerStops[v.CustomerID] == 1 && v.FulfillmentPct >= repPerfectPct {
				s.adjustReputation(1)
			}
		}
	}
}

// DailySummary reports the store's averages and unique-customer counts. A
// store with no visits of a given type reports zero for that type.
func (t *FulfillmentTracker) DailySummary(storeID string) protocol.FulfillmentSummary {
	rec := t.byStore[storeID]
	if rec == nil {
		return protocol.FulfillmentSummary{}
	}
	return protocol.FulfillmentSummary{
		AllocatedAvgPct:    mean(rec.allocatedPcts),
		OverflowAvgPct:     mean(rec.overflowPcts),
		AllocatedVisits:    len(rec.allocatedPcts),
		OverflowVisits:     len(rec.overflowPcts),
		AllocatedCustomers: len(rec.allocatedIDs),
		OverflowCustomers:  len(rec.overflowIDs),
	}
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
