package customers

import (
	"fmt"

	"storefront.ai/internal/sim/catalogs"
	"storefront.ai/internal/sim/market"
	"storefront.ai/internal/sim/rng"
	"storefront.ai/internal/sim/tuning"
)

// Price thresholds for the special and uncapped candidate filters, against
// the item's current market price.
const (
	richGuyMinPrice  = 50.0
	poorManMaxPrice  = 10.0
	kidMaxPrice      = 5.0
	uncappedMinPrice = 100.0
)

// Generator produces each day's customer population. The output order is
// fixed (regular tiers, then special kinds, then uncapped) and is the order
// customers later shop in.
type Generator struct {
	items catalogs.ItemCatalog
	tun   tuning.Tuning
}

func NewGenerator(items catalogs.ItemCatalog, tun tuning.Tuning) *Generator {
	return &Generator{items: items, tun: tun}
}

// Population returns the day's regular-customer count:
// stores*base + day*growth, plus a permanent boost for every elapsed
// boost interval.
func (g *Generator) Population(day, numStores int) int {
	n := numStores*g.tun.BaseCustomersPerStore + day*g.tun.GrowthPerDay
	n += (day / g.tun.BoostEveryDays) * g.tun.BoostAmount
	return n
}

// GenerateDay builds the full customer sequence for a day. Customers whose
// need list comes out empty are dropped. All randomness comes from the
// provided stream, so a fixed (seed, day, prices, demand) reproduces the
// same population.
func (g *Generator) GenerateDay(day, numStores int, specials bool, prices map[string]float64, demand *market.DemandTracker, s *rng.Stream) []*Customer {
	var out []*Customer
	seq := 0
	add := func(c *Customer) {
		if c == nil || len(c.Needs) == 0 {
			return
		}
		seq++
		c.ID = fmt.Sprintf("C%d-%d", day, seq)
		out = append(out, c)
	}

	mix := g.tun.MixFor(day)
	for i := 0; i < g.Population(day, numStores); i++ {
		add(g.regular(g.drawTier(mix, s), prices, demand, s))
	}

	if specials {
		if s.Roll(g.tun.SpecialCustomerChance) {
			add(g.hoarder(prices, demand, s))
		}
		if s.Roll(g.tun.SpecialCustomerChance) {
			add(g.richGuy(prices, demand, s))
		}
		if s.Roll(g.tun.SpecialCustomerChance) {
			add(g.poorMan(prices, demand, s))
		}
		if s.Roll(g.tun.SpecialCustomerChance) {
			add(g.kid(prices, demand, s))
		}
	}

	if day >= g.tun.UncappedStartDay {
		n := (day - g.tun.UncappedStartDay + 10) / 10
		for i := 0; i < n; i++ {
			add(g.uncapped(prices, demand, s))
		}
	}
	return out
}

func (g *Generator) drawTier(mix tuning.MixBand, s *rng.Stream) Kind {
	total := mix.Low + mix.Medium + mix.High
	r := s.Float64() * total
	switch {
	case r < mix.Low:
		return KindLow
	case r < mix.Low+mix.Medium:
		return KindMedium
	default:
		return KindHigh
	}
}

func (g *Generator) need(itemID string, qty int, prices map[string]float64) Need {
	return Need{ItemID: itemID, Quantity: qty, MaxPrice: prices[itemID] * g.tun.PriceTolerance}
}

// candidates returns the sorted item ids whose market price satisfies the
// filter. The palette is already sorted, so the result order is stable.
func (g *Generator) candidates(prices map[string]float64, keep func(p float64) bool) []string {
	var out []string
	for _, id := range g.items.Palette {
		if keep(prices[id]) {
			out = append(out, id)
		}
	}
	return out
}

func remove(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

// regular builds a low/medium/high tier customer: one unit per need,
// demand-weighted draws without replacement, stopping at the item limit,
// budget exhaustion, or no affordable item.
func (g *Generator) regular(kind Kind, prices map[string]float64, demand *market.DemandTracker, s *rng.Stream) *Customer {
	var budget float64
	var limit int
	switch kind {
	case KindLow:
		budget, limit = g.tun.Budgets.Low, itemLimitLow
	case KindMedium:
		budget, limit = g.tun.Budgets.Medium, itemLimitMedium
	default:
		budget, limit = g.tun.Budgets.High, itemLimitHigh
	}

	c := &Customer{Kind: kind, Budget: budget, ItemLimit: limit}
	pool := g.candidates(prices, func(p float64) bool { return p > 0 })
	remaining := budget
	for len(c.Needs) < limit {
		var affordable []string
		for _, id := range pool {
			if prices[id]*g.tun.PriceTolerance <= remaining {
				affordable = append(affordable, id)
			}
		}
		pick := demand.WeightedPick(affordable, s)
		if pick == "" {
			break
		}
		n := g.need(pick, 1, prices)
		c.Needs = append(c.Needs, n)
		remaining -= n.MaxPrice
		pool = remove(pool, pick)
	}
	return c
}

// hoarder commits to a single item it can afford at least three units of,
// wanting a uniform quantity in [3,10] clipped to what the budget covers.
func (g *Generator) hoarder(prices map[string]float64, demand *market.DemandTracker, s *rng.Stream) *Customer {
	budget := g.tun.Budgets.Hoarder
	cands := g.candidates(prices, func(p float64) bool {
		return p > 0 && p*g.tun.PriceTolerance*3 <= budget
	})
	pick := demand.WeightedPick(cands, s)
	if pick == "" {
		return nil
	}
	qty := s.RangeInt(3, 10)
	if max := int(budget / (prices[pick] * g.tun.PriceTolerance)); qty > max {
		qty = max
	}
	return &Customer{
		Kind:   KindHoarder,
		Budget: budget,
		Needs:  []Need{g.need(pick, qty, prices)},
	}
}

// richGuy wants 1-3 distinct items priced over $50, 1-2 units each.
func (g *Generator) richGuy(prices map[string]float64, demand *market.DemandTracker, s *rng.Stream) *Customer {
	budget := g.tun.Budgets.RichGuy
	pool := g.candidates(prices, func(p float64) bool { return p > richGuyMinPrice })
	if len(pool) == 0 {
		return nil
	}
	c := &Customer{Kind: KindRichGuy, Budget: budget}
	want := s.RangeInt(1, 3)
	remaining := budget
	for i := 0; i < want; i++ {
		var affordable []string
		for _, id := range pool {
			if prices[id]*g.tun.PriceTolerance <= remaining {
				affordable = append(affordable, id)
			}
		}
		pick := demand.WeightedPick(affordable, s)
		if pick == "" {
			break
		}
		qty := s.RangeInt(1, 2)
		n := g.need(pick, qty, prices)
		if n.MaxPrice*float64(qty) > remaining {
			qty = 1
			n.Quantity = 1
		}
		c.Needs = append(c.Needs, n)
		remaining -= n.MaxPrice * float64(n.Quantity)
		pool = remove(pool, pick)
	}
	return c
}

func (g *Generator) poorMan(prices map[string]float64, demand *market.DemandTracker, s *rng.Stream) *Customer {
	cands := g.candidates(prices, func(p float64) bool { return p > 0 && p < poorManMaxPrice })
	pick := demand.WeightedPick(cands, s)
	if pick == "" {
		return nil
	}
	return &Customer{
		Kind:   KindPoorMan,
		Budget: g.tun.Budgets.PoorMan,
		Needs:  []Need{g.need(pick, 1, prices)},
	}
}

func (g *Generator) kid(prices map[string]float64, demand *market.DemandTracker, s *rng.Stream) *Customer {
	cands := g.candidates(prices, func(p float64) bool { return p > 0 && p < kidMaxPrice })
	pick := demand.WeightedPick(cands, s)
	if pick == "" {
		return nil
	}
	return &Customer{
		Kind:   KindKid,
		Budget: g.tun.Budgets.Kid,
		Needs:  []Need{g.need(pick, 2, prices)},
	}
}

func (g *Generator) uncapped(prices map[string]float64, demand *market.DemandTracker, s *rng.Stream) *Customer {
	cands := g.candidates(prices, func(p float64) bool { return p >= uncappedMinPrice })
	pick := demand.WeightedPick(cands, s)
	if pick == "" {
		return nil
	}
	return &Customer{
		Kind:     KindUncapped,
		Budget:   g.tun.Budgets.Uncapped,
		Uncapped: true,
		Needs:    []Need{g.need(pick, 1, prices)},
	}
}
