package engine

import (
	"fmt"
	"sort"

	"storefront.ai/internal/protocol"
	"storefront.ai/internal/sim/catalogs"
	"storefront.ai/internal/sim/customers"
	"storefront.ai/internal/sim/market"
	"storefront.ai/internal/sim/tuning"
	"storefront.ai/internal/sim/vendors"
)

// Stream salts. Each concern draws from its own stream so adding draws to
// one stage never shifts another stage's sequence.
const (
	saltPrices    = 1
	saltVendors   = 2
	saltCustomers = 3
	saltDemand    = 4
)

// Engine is the authoritative simulation. Single-goroutine: callers
// serialize access, every mutation happens on the calling goroutine, and a
// fixed seed with fixed decisions reproduces identical state day by day.
type Engine struct {
	seed int64
	cfg  *catalogs.Catalogs
	tun  tuning.Tuning

	day      int
	specials bool

	prices *market.PriceEngine
	demand *market.DemandTracker
	avail  *vendors.Availability
	book   *vendors.OrderBook
	gen    *customers.Generator

	stores   map[string]*Store
	storeIDs []string

	// Decisions queued for the next AdvanceDay, keyed by store.
	queuedOrders map[string][]protocol.BuyOrderReq
	submitted    map[string]bool
}

// New builds an engine with one store per id, all starting from the tuned
// cash balance on day 1.
func New(seed int64, cfg *catalogs.Catalogs, tun tuning.Tuning, storeIDs []string, specials bool) (*Engine, error) {
	if len(storeIDs) == 0 {
		return nil, &ValidationError{Reason: "at least one store required"}
	}
	ids := make([]string, len(storeIDs))
	copy(ids, storeIDs)
	sort.Strings(ids)

	e := &Engine{
		seed:         seed,
		cfg:          cfg,
		tun:          tun,
		day:          1,
		specials:     specials,
		prices:       market.NewPriceEngine(cfg.Items),
		demand:       market.NewDemandTracker(cfg.Items, tun.DemandMin, tun.DemandMax),
		avail:        vendors.NewAvailability(cfg.Vendors),
		gen:          customers.NewGenerator(cfg.Items, tun),
		stores:       map[string]*Store{},
		storeIDs:     ids,
		queuedOrders: map[string][]protocol.BuyOrderReq{},
		submitted:    map[string]bool{},
	}
	e.book = vendors.NewOrderBook(cfg.Vendors, e.avail)
	for _, id := range ids {
		if _, dup := e.stores[id]; dup {
			return nil, &ValidationError{Reason: "duplicate store id: " + id}
		}
		e.stores[id] = newStore(id, tun.StartingCash)
	}
	return e, nil
}

func (e *Engine) Day() int { return e.day }

func (e *Engine) StoreIDs() []string {
	ids := make([]string, len(e.storeIDs))
	copy(ids, e.storeIDs)
	return ids
}

// Store returns a read view of one store, or nil.
func (e *Engine) Store(id string) *Store { return e.stores[id] }

// MarketPrices returns the current wholesale reference prices.
func (e *Engine) MarketPrices() map[string]float64 { return e.prices.Snapshot() }

// Demand returns the current demand multipliers.
func (e *Engine) Demand() map[string]float64 { return e.demand.Snapshot() }

func (e *Engine) store(id string) (*Store, error) {
	s, ok := e.stores[id]
	if !ok {
		return nil, &ValidationError{Reason: "unknown store: " + id}
	}
	return s, nil
}

// ConfigureBuyOrders replaces the store's standing wholesale order
// configuration; the lines generate fresh orders every day until replaced
// (an empty slice clears them). Structural validation happens here; vendor
// availability and caps are only known once the day advances, so those
// rejections land in the daily report instead.
func (e *Engine) ConfigureBuyOrders(storeID string, orders []protocol.BuyOrderReq) error {
	if _, err := e.store(storeID); err != nil {
		return err
	}
	for _, o := range orders {
		if _, ok := e.cfg.Items.Defs[o.ItemID]; !ok {
			return &ValidationError{Reason: "unknown item: " + o.ItemID}
		}
		if o.Quantity <= 0 {
			return &ValidationError{Reason: fmt.Sprintf("%s: quantity must be positive, got %d", o.ItemID, o.Quantity)}
		}
		if len(o.VendorIDs) == 0 {
			return &ValidationError{Reason: o.ItemID + ": no vendor given"}
		}
		if len(o.VendorIDs) > 3 {
			return &ValidationError{Reason: fmt.Sprintf("%s: at most 3 vendors, got %d", o.ItemID, len(o.VendorIDs))}
		}
		for _, vid := range o.VendorIDs {
			if _, ok := e.cfg.Vendors.ByID[vid]; !ok {
				return &ValidationError{Reason: "unknown vendor: " + vid}
			}
		}
	}
	e.queuedOrders[storeID] = orders
	return nil
}

// SetPrices updates the store's retail price list. A zero price removes the
// item from sale.
func (e *Engine) SetPrices(storeID string, prices map[string]float64) error {
	s, err := e.store(storeID)
	if err != nil {
		return err
	}
	for id, p := range prices {
		if _, ok := e.cfg.Items.Defs[id]; !ok {
			return &ValidationError{Reason: "unknown item: " + id}
		}
		if p < 0 {
			return &ValidationError{Reason: fmt.Sprintf("%s: negative price %v", id, p)}
		}
	}
	for id, p := range prices {
		if p == 0 {
			delete(s.Prices, id)
			continue
		}
		s.Prices[id] = p
	}
	return nil
}

// HireEmployee adds staff immediately; wages bill on the next payday.
func (e *Engine) HireEmployee(storeID, kind string, count int) error {
	s, err := e.store(storeID)
	if err != nil {
		return err
	}
	if count <= 0 {
		return &ValidationError{Reason: fmt.Sprintf("count must be positive, got %d", count)}
	}
	switch kind {
	case "CASHIER":
		s.Cashiers += count
	case "RESTOCKER":
		s.Restockers += count
	default:
		return &ValidationError{Reason: "unknown employee kind: " + kind}
	}
	return nil
}

// PurchaseUpgrade buys a store upgrade, charging its cost up front.
func (e *Engine) PurchaseUpgrade(storeID, upgradeID string) error {
	s, err := e.store(storeID)
	if err != nil {
		return err
	}
	u, ok := e.cfg.Upgrades.ByID[upgradeID]
	if !ok {
		return &ValidationError{Reason: "unknown upgrade: " + upgradeID}
	}
	if s.HasUpgrade(upgradeID) {
		return &ValidationError{Reason: "upgrade already owned: " + upgradeID}
	}
	if s.Level < u.MinLevel {
		return &ValidationError{Reason: fmt.Sprintf("%s requires level %d, store is level %d", upgradeID, u.MinLevel, s.Level)}
	}
	if s.Cash < u.Cost {
		return &ValidationError{Reason: fmt.Sprintf("%s costs %.2f, store has %.2f", upgradeID, u.Cost, s.Cash)}
	}
	s.Cash -= u.Cost
	s.addUpgrade(upgradeID)
	return nil
}

// SubmitDecisions marks a store done for the day. The day only advances
// once every store has submitted.
func (e *Engine) SubmitDecisions(storeID string) error {
	if _, err := e.store(storeID); err != nil {
		return err
	}
	e.submitted[storeID] = true
	return nil
}

func (e *Engine) barrierOpen() error {
	var waiting []string
	for _, id := range e.storeIDs {
		if !e.submitted[id] {
			waiting = append(waiting, id)
		}
	}
	if len(waiting) > 0 {
		return &NotReadyError{Waiting: waiting}
	}
	return nil
}
