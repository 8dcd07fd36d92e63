package vendors

import (
	"fmt"
	"sort"

	"storefront.ai/internal/sim/catalogs"
)

// BuyOrder is an accepted wholesale order waiting on its lead time.
type BuyOrder struct {
	ID         uint64  `json:"id"`
	StoreID    string  `json:"store_id"`
	ItemID     string  `json:"item_id"`
	VendorID   string  `json:"vendor_id"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	PlacedDay  int     `json:"placed_day"`
	ArrivalDay int     `json:"arrival_day"`
}

// Delivery is a matured order handed to a store's inventory.
type Delivery struct {
	StoreID   string
	ItemID    string
	VendorID  string
	Quantity  int
	UnitPrice float64
}

// OrderBook holds pending orders and enforces per-day vendor unit caps.
// Caps are counted against committed units at placement time, per vendor
// globally or per (vendor, store) depending on the vendor's cap scope.
type OrderBook struct {
	vendors catalogs.VendorCatalog
	avail   *Availability

	day     int
	nextID  uint64
	pending []*BuyOrder

	committedGlobal map[string]int
	committedStore  map[string]int
}

func NewOrderBook(vendors catalogs.VendorCatalog, avail *Availability) *OrderBook {
	return &OrderBook{
		vendors:         vendors,
		avail:           avail,
		nextID:          1,
		committedGlobal: map[string]int{},
		committedStore:  map[string]int{},
	}
}

// BeginDay resets the day's committed-unit counters. Pending orders carry
// over untouched.
func (b *OrderBook) BeginDay(day int) {
	b.day = day
	b.committedGlobal = map[string]int{}
	b.committedStore = map[string]int{}
}

func storeCapKey(vendorID, storeID string) string { return vendorID + "/" + storeID }

// RemainingCap reports how many more units the vendor will accept today for
// the given store. Returns -1 for uncapped vendors.
func (b *OrderBook) RemainingCap(vendorID, storeID string) int {
	v, ok := b.vendors.ByID[vendorID]
	if !ok || v.DailyUnitCap <= 0 {
		return -1
	}
	used := b.committedGlobal[vendorID]
	if v.CapScope == catalogs.CapScopePerStore {
		used = b.committedStore[storeCapKey(vendorID, storeID)]
	}
	rem := v.DailyUnitCap - used
	if rem < 0 {
		rem = 0
	}
	return rem
}

func (b *OrderBook) commit(vendorID, storeID string, qty int) {
	b.committedGlobal[vendorID] += qty
	b.committedStore[storeCapKey(vendorID, storeID)] += qty
}

// Place validates and books one order against one vendor. bestEffort clips
// the quantity to the vendor's remaining daily cap instead of rejecting; a
// clip that lands under the vendor's minimum order still fails.
func (b *OrderBook) Place(storeID, itemID, vendorID string, qty int, marketPrice float64, bestEffort bool) (*BuyOrder, error) {
	if qty <= 0 {
		return nil, &ValidationError{Reason: fmt.Sprintf("quantity must be positive, got %d", qty)}
	}
	v, ok := b.vendors.ByID[vendorID]
	if !ok {
		return nil, &ValidationError{Reason: "unknown vendor: " + vendorID}
	}

	price, available, _, err := b.avail.Quote(vendorID, itemID, marketPrice, b.day)
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, &ValidationError{Reason: fmt.Sprintf("vendor %s does not list %s today", vendorID, itemID)}
	}
	if v.MinOrderQty > 0 && qty < v.MinOrderQty {
		return nil, &ValidationError{Reason: fmt.Sprintf("vendor %s minimum order is %d, got %d", vendorID, v.MinOrderQty, qty)}
	}

	if rem := b.RemainingCap(vendorID, storeID); rem >= 0 && qty > rem {
		if !bestEffort || rem == 0 {
			return nil, &CapacityError{VendorID: vendorID, Remaining: rem}
		}
		if v.MinOrderQty > 0 && rem < v.MinOrderQty {
			return nil, &CapacityError{VendorID: vendorID, Remaining: rem}
		}
		qty = rem
	}

	o := &BuyOrder{
		ID:         b.nextID,
		StoreID:    storeID,
		ItemID:     itemID,
		VendorID:   vendorID,
		Quantity:   qty,
		UnitPrice:  price,
		PlacedDay:  b.day,
		ArrivalDay: b.day + v.LeadDays,
	}
	b.nextID++
	b.commit(vendorID, storeID, qty)
	b.pending = append(b.pending, o)
	return o, nil
}

// SplitResult is the outcome of a multi-vendor fill.
type SplitResult struct {
	Orders   []*BuyOrder
	Unfilled int
	Spent    float64

	// ShortCash is set when the budget, not vendor supply, bounded the fill.
	ShortCash bool
}

// PlaceSplit fills a requested quantity across up to three vendors, cheapest
// quote first (ties broken by vendor id). Every leg is clipped to what the
// remaining budget covers at that leg's own quote, so Spent never exceeds
// budget even when the fill spills to pricier vendors. Vendors that reject
// the remainder are skipped. The first fatal error (an uninitialized
// availability cache) aborts.
func (b *OrderBook) PlaceSplit(storeID, itemID string, vendorIDs []string, qty int, marketPrice, budget float64) (SplitResult, error) {
	var res SplitResult
	if qty <= 0 {
		return res, &ValidationError{Reason: fmt.Sprintf("quantity must be positive, got %d", qty)}
	}
	if len(vendorIDs) > 3 {
		return res, &ValidationError{Reason: fmt.Sprintf("at most 3 vendors per order, got %d", len(vendorIDs))}
	}

	type quoted struct {
		id    string
		price float64
	}
	var qs []quoted
	for _, vid := range vendorIDs {
		price, available, _, err := b.avail.Quote(vid, itemID, marketPrice, b.day)
		if err == ErrNotInitialized {
			return res, err
		}
		if err != nil || !available {
			continue
		}
		qs = append(qs, quoted{id: vid, price: price})
	}
	sort.Slice(qs, func(i, j int) bool {
		if qs[i].price != qs[j].price {
			return qs[i].price < qs[j].price
		}
		return qs[i].id < qs[j].id
	})

	res.Unfilled = qty
	for _, q := range qs {
		if res.Unfilled == 0 {
			break
		}
		legQty := res.Unfilled
		if afford := int(budget / q.price); legQty > afford {
			legQty = afford
			res.ShortCash = true
		}
		if legQty <= 0 {
			continue
		}
		o, err := b.Place(storeID, itemID, q.id, legQty, marketPrice, true)
		if err != nil {
			continue
		}
		cost := float64(o.Quantity) * o.UnitPrice
		res.Orders = append(res.Orders, o)
		res.Unfilled -= o.Quantity
		res.Spent += cost
		budget -= cost
	}
	return res, nil
}

// DeliverDue removes and returns every order whose arrival day is the given
// day or earlier. Orders are removed on delivery, so a repeated call for the
// same day yields nothing.
func (b *OrderBook) DeliverDue(day int) []Delivery {
	var out []Delivery
	var keep []*BuyOrder
	for _, o := range b.pending {
		if o.ArrivalDay <= day {
			out = append(out, Delivery{
				StoreID:   o.StoreID,
				ItemID:    o.ItemID,
				VendorID:  o.VendorID,
				Quantity:  o.Quantity,
				UnitPrice: o.UnitPrice,
			})
			continue
		}
		keep = append(keep, o)
	}
	b.pending = keep
	sort.Slice(out, func(i, j int) bool {
		if out[i].StoreID != out[j].StoreID {
			return out[i].StoreID < out[j].StoreID
		}
		if out[i].ItemID != out[j].ItemID {
			return out[i].ItemID < out[j].ItemID
		}
		return out[i].VendorID < out[j].VendorID
	})
	return out
}

// PendingFor returns the store's in-flight orders sorted by id.
func (b *OrderBook) PendingFor(storeID string) []*BuyOrder {
	var out []*BuyOrder
	for _, o := range b.pending {
		if o.StoreID == storeID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Pending returns all in-flight orders sorted by id, for snapshots.
func (b *OrderBook) Pending() []*BuyOrder {
	out := make([]*BuyOrder, len(b.pending))
	copy(out, b.pending)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (b *OrderBook) NextID() uint64 { return b.nextID }

// Restore replaces the book's pending orders and id counter from a snapshot.
func (b *OrderBook) Restore(orders []*BuyOrder, nextID uint64) {
	b.pending = make([]*BuyOrder, len(orders))
	copy(b.pending, orders)
	b.nextID = nextID
}
