package engine

import (
	"fmt"
	"sort"

	"storefront.ai/internal/protocol"
	"storefront.ai/internal/sim/vendors"
)

// Snapshot is the full serializable engine state. Gob-friendly: plain
// fields, no unexported state.
type Snapshot struct {
	Version int
	Seed    int64
	Day     int

	MarketPrices map[string]float64
	Demand       map[string]float64

	Stores      []StoreSnapshot
	Orders      []vendors.BuyOrder
	NextOrderID uint64
}

type StoreSnapshot struct {
	ID             string
	Cash           float64
	Inventory      map[string]int
	Prices         map[string]float64
	Cashiers       int
	Restockers     int
	Upgrades       []string
	Reputation     int
	Level          int
	XP             int
	StandingOrders []protocol.BuyOrderReq
}

const snapshotVersion = 1

// ExportSnapshot captures the engine state for save files.
func (e *Engine) ExportSnapshot() *Snapshot {
	snap := &Snapshot{
		Version:      snapshotVersion,
		Seed:         e.seed,
		Day:          e.day,
		MarketPrices: e.prices.Snapshot(),
		Demand:       e.demand.Snapshot(),
		NextOrderID:  e.book.NextID(),
	}
	for _, id := range e.storeIDs {
		s := e.stores[id]
		ss := StoreSnapshot{
			ID:         s.ID,
			Cash:       s.Cash,
			Inventory:  map[string]int{},
			Prices:     map[string]float64{},
			Cashiers:   s.Cashiers,
			Restockers: s.Restockers,
			Upgrades:   append([]string(nil), s.Upgrades...),
			Reputation: s.Reputation,
			Level:      s.Level,
			XP:         s.XP,
		}
		ss.StandingOrders = append([]protocol.BuyOrderReq(nil), e.queuedOrders[id]...)
		for item, q := range s.Inventory {
			ss.Inventory[item] = q
		}
		for item, p := range s.Prices {
			ss.Prices[item] = p
		}
		snap.Stores = append(snap.Stores, ss)
	}
	for _, o := range e.book.Pending() {
		snap.Orders = append(snap.Orders, *o)
	}
	return snap
}

// ImportSnapshot replaces the engine state after invariant checks. A
// snapshot with out-of-range demand, negative inventory, or a day past the
// game length is rejected as corrupt with state untouched.
func (e *Engine) ImportSnapshot(snap *Snapshot) error {
	if snap == nil {
		return &CorruptStateError{Reason: "nil snapshot"}
	}
	if snap.Version != snapshotVersion {
		return &CorruptStateError{Reason: fmt.Sprintf("unsupported version %d", snap.Version)}
	}
	if snap.Day < 1 || snap.Day > e.tun.GameLengthDays+1 {
		return &CorruptStateError{Reason: fmt.Sprintf("day %d outside game length %d", snap.Day, e.tun.GameLengthDays)}
	}
	min, max := e.demand.Bounds()
	for item, m := range snap.Demand {
		if m < min || m > max {
			return &CorruptStateError{Reason: fmt.Sprintf("demand multiplier for %s out of range: %v", item, m)}
		}
	}
	for item, p := range snap.MarketPrices {
		if p <= 0 {
			return &CorruptStateError{Reason: fmt.Sprintf("non-positive market price for %s: %v", item, p)}
		}
	}
	for _, ss := range snap.Stores {
		for item, q := range ss.Inventory {
			if q < 0 {
				return &CorruptStateError{Reason: fmt.Sprintf("store %s: negative inventory of %s", ss.ID, item)}
			}
		}
		if ss.Reputation < -100 || ss.Reputation > 100 {
			return &CorruptStateError{Reason: fmt.Sprintf("store %s: reputation %d out of range", ss.ID, ss.Reputation)}
		}
	}

	e.seed = snap.Seed
	e.day = snap.Day
	e.prices.Restore(snap.MarketPrices)
	e.demand.Restore(snap.Demand)

	e.stores = map[string]*Store{}
	e.storeIDs = nil
	e.queuedOrders = map[string][]protocol.BuyOrderReq{}
	for _, ss := range snap.Stores {
		s := newStore(ss.ID, ss.Cash)
		s.Cashiers = ss.Cashiers
		s.Restockers = ss.Restockers
		s.Upgrades = append([]string(nil), ss.Upgrades...)
		s.Reputation = ss.Reputation
		s.Level = ss.Level
		s.XP = ss.XP
		for item, q := range ss.Inventory {
			s.Inventory[item] = q
		}
		for item, p := range ss.Prices {
			s.Prices[item] = p
		}
		e.stores[ss.ID] = s
		e.storeIDs = append(e.storeIDs, ss.ID)
		if len(ss.StandingOrders) > 0 {
			e.queuedOrders[ss.ID] = append([]protocol.BuyOrderReq(nil), ss.StandingOrders...)
		}
	}
	sort.Strings(e.storeIDs)

	orders := make([]*vendors.BuyOrder, 0, len(snap.Orders))
	for i := range snap.Orders {
		o := snap.Orders[i]
		orders = append(orders, &o)
	}
	e.book.Restore(orders, snap.NextOrderID)

	e.submitted = map[string]bool{}
	return nil
}
