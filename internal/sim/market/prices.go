package market

import (
	"sort"

	"storefront.ai/internal/protocol"
	"storefront.ai/internal/sim/catalogs"
	"storefront.ai/internal/sim/rng"
)

// Wholesale reference prices never fall below this floor.
const priceFloor = 0.01

// PriceEngine holds the current wholesale reference price per item and
// applies the daily bounded random walk plus scheduled spike/sale events.
type PriceEngine struct {
	prices map[string]float64
}

func NewPriceEngine(items catalogs.ItemCatalog) *PriceEngine {
	p := make(map[string]float64, len(items.Defs))
	for id, def := range items.Defs {
		p[id] = def.BasePrice
	}
	return &PriceEngine{prices: p}
}

func (e *PriceEngine) Price(itemID string) float64 { return e.prices[itemID] }

func (e *PriceEngine) Snapshot() map[string]float64 {
	out := make(map[string]float64, len(e.prices))
	for id, p := range e.prices {
		out[id] = p
	}
	return out
}

func (e *PriceEngine) Restore(prices map[string]float64) {
	e.prices = make(map[string]float64, len(prices))
	for id, p := range prices {
		e.prices[id] = p
	}
}

// Advance applies the daily walk: each price multiplied by [0.95,1.05).
// Every eventEveryDays-th day one random item is put on a -50% sale and a
// different random item gets a +50% spike; the override replaces that item's
// walk for the day instead of compounding with it.
func (e *PriceEngine) Advance(day int, s *rng.Stream, eventEveryDays int) *protocol.MarketEvent {
	ids := make([]string, 0, len(e.prices))
	for id := range e.prices {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var ev *protocol.MarketEvent
	if eventEveryDays > 0 && day%eventEveryDays == 0 && len(ids) >= 2 {
		saleIdx := s.IntN(len(ids))
		spikeIdx := s.IntN(len(ids) - 1)
		if spikeIdx >= saleIdx {
			spikeIdx++
		}
		ev = &protocol.MarketEvent{SaleItemID: ids[saleIdx], SpikeItemID: ids[spikeIdx]}
	}

	for _, id := range ids {
		if ev != nil && id == ev.SaleItemID {
			e.prices[id] = clampFloor(e.prices[id] * 0.5)
			continue
		}
		if ev != nil && id == ev.SpikeItemID {
			e.prices[id] = clampFloor(e.prices[id] * 1.5)
			continue
		}
		e.prices[id] = clampFloor(e.prices[id] * s.Between(0.95, 1.05))
	}
	return ev
}

func clampFloor(p float64) float64 {
	if p < priceFloor {
		return priceFloor
	}
	return p
}
