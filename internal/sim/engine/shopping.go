package engine

import (
	"fmt"
	"sort"

	"storefront.ai/internal/sim/customers"
)

type VisitType string

const (
	VisitAllocated VisitType = "allocated"
	VisitOverflow  VisitType = "overflow"
)

// Visit is one customer's recorded stop at one store. A visit only exists
// if at least one unit was bought there; basket size is the customer's
// total unmet units at the moment they walked in.
type Visit struct {
	CustomerID     string
	StoreID        string
	Type           VisitType
	BasketSize     int
	Purchased      int
	FulfillmentPct float64
}

func NewVisit(customerID, storeID string, typ VisitType, basket, purchased int) (*Visit, error) {
	if basket <= 0 {
		return nil, &ValidationError{Reason: "visit with empty basket"}
	}
	if purchased <= 0 {
		return nil, &ValidationError{Reason: "visit without a purchase"}
	}
	if typ != VisitAllocated && typ != VisitOverflow {
		return nil, &ValidationError{Reason: fmt.Sprintf("unknown visit type %q", typ)}
	}
	return &Visit{
		CustomerID:     customerID,
		StoreID:        storeID,
		Type:           typ,
		BasketSize:     basket,
		Purchased:      purchased,
		FulfillmentPct: float64(purchased) / float64(basket) * 100,
	}, nil
}

// openNeed is one line of the shopping list with its remaining quantity.
type openNeed struct {
	customers.Need
	remaining int
}

// resolveCustomer walks one customer through the stores, most expensive need
// first, always buying at the cheapest qualifying store. The first productive
// stop is the allocated visit and consumes a capacity slot (unless the
// customer is uncapped); later stops are overflow. Each store is entered at
// most once per customer.
func (e *Engine) resolveCustomer(c *customers.Customer) []*Visit {
	needs := make([]*openNeed, 0, len(c.Needs))
	for _, n := range c.Needs {
		needs = append(needs, &openNeed{Need: n, remaining: n.Quantity})
	}
	// Expensive first; ties by item id so order is reproducible.
	sort.SliceStable(needs, func(i, j int) bool {
		if needs[i].MaxPrice != needs[j].MaxPrice {
			return needs[i].MaxPrice > needs[j].MaxPrice
		}
		return needs[i].ItemID < needs[j].ItemID
	})

	var visits []*Visit
	visited := map[string]bool{}
	skipped := map[string]bool{} // needs with no qualifying store left

	for {
		if c.Remaining() <= 0 {
			break
		}
		var cur *openNeed
		for _, n := range needs {
			if n.remaining > 0 && !skipped[n.ItemID] {
				cur = n
				break
			}
		}
		if cur == nil {
			break
		}

		anchor := e.cheapestQualifying(c, cur, visited)
		if anchor == nil {
			skipped[cur.ItemID] = true
			continue
		}

		// Basket is counted in units, not need lines, so the fulfillment
		// percentage keeps numerator and denominator in the same currency
		// when a need wants several units.
		basket := 0
		for _, n := range needs {
			basket += n.remaining
		}

		purchased := 0
		for _, n := range needs {
			if n.remaining == 0 {
				continue
			}
			quote, ok := e.storeQuote(anchor, n)
			if !ok {
				continue
			}
			qty := n.remaining
			if stock := anchor.Inventory[n.ItemID]; qty > stock {
				qty = stock
			}
			if affordable := int(c.Remaining() / quote); qty > affordable {
				qty = affordable
			}
			if qty <= 0 {
				continue
			}
			anchor.recordSale(n.ItemID, qty, quote)
			c.Spend += quote * float64(qty)
			n.remaining -= qty
			purchased += qty
		}

		if purchased == 0 {
			// Qualification guarantees at least one affordable unit, so
			// this only happens if an invariant broke upstream.
			skipped[cur.ItemID] = true
			continue
		}

		typ := VisitOverflow
		if len(visits) == 0 {
			typ = VisitAllocated
			if !c.Uncapped {
				anchor.capacityUsed++
			}
		}
		v, err := NewVisit(c.ID, anchor.ID, typ, basket, purchased)
		if err != nil {
			skipped[cur.ItemID] = true
			continue
		}
		visits = append(visits, v)
		visited[anchor.ID] = true
	}
	return visits
}

// storeQuote returns the store's price for a need if the store lists the
// item and the quote is within the customer's tolerance.
func (e *Engine) storeQuote(s *Store, n *openNeed) (float64, bool) {
	quote, ok := s.Prices[n.ItemID]
	if !ok || quote <= 0 {
		return 0, false
	}
	if quote > n.MaxPrice {
		return 0, false
	}
	return quote, true
}

// cheapestQualifying finds the store with the lowest quote for the need
// among stores the customer has not yet visited. A store qualifies if it
// lists the item in stock within tolerance, the customer can afford one
// unit, and (for capped customers) the store has cashier capacity left.
func (e *Engine) cheapestQualifying(c *customers.Customer, n *openNeed, visited map[string]bool) *Store {
	var best *Store
	var bestQuote float64
	for _, id := range e.storeIDs {
		s := e.stores[id]
		if visited[id] {
			continue
		}
		quote, ok := e.storeQuote(s, n)
		if !ok || s.Inventory[n.ItemID] <= 0 || quote > c.Remaining() {
			continue
		}
		if !c.Uncapped && s.capacityUsed >= s.Capacity(e.tun.CustomersPerCashier, e.cfg.Upgrades) {
			continue
		}
		if best == nil || quote < bestQuote {
			best, bestQuote = s, quote
		}
	}
	return best
}
