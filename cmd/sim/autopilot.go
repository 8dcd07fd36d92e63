package main

import (
	"sort"

	"storefront.ai/internal/protocol"
	"storefront.ai/internal/sim/catalogs"
	"storefront.ai/internal/sim/engine"
	"storefront.ai/internal/sim/tuning"
)

// Margin over market price for autopilot retail prices. Inside the customer
// tolerance band, so demand still clears.
const retailMargin = 1.08

// autopilot plays every store with a simple restock-to-target policy. It is
// deterministic: decisions depend only on the engine state it observes.
type autopilot struct {
	cats *catalogs.Catalogs
	tun  tuning.Tuning

	// Cheap-first vendor preference for staples.
	staples []string
	vendors []string
}

func newAutopilot(cats *catalogs.Catalogs, tun tuning.Tuning) *autopilot {
	var staples []string
	for id, def := range cats.Items.Defs {
		if def.Importance >= 2 {
			staples = append(staples, id)
		}
	}
	sort.Strings(staples)
	return &autopilot{
		cats:    cats,
		tun:     tun,
		staples: staples,
		vendors: []string{"CORNER_SUPPLY", "VALUE_WHOLESALE", "LUCKY_LOTS"},
	}
}

func (p *autopilot) decide(eng *engine.Engine, storeID string) protocol.DecisionMsg {
	s := eng.Store(storeID)
	market := eng.MarketPrices()

	msg := protocol.DecisionMsg{
		Type:            protocol.TypeDecision,
		ProtocolVersion: protocol.Version,
		Day:             eng.Day(),
		StoreID:         storeID,
	}

	prices := make(map[string]float64, len(p.cats.Items.Palette))
	for _, id := range p.cats.Items.Palette {
		prices[id] = market[id] * retailMargin
	}
	msg.Prices = prices

	// Always non-nil so a fully stocked store clears its standing lines.
	msg.BuyOrders = []protocol.BuyOrderReq{}
	targetStock := 60
	for _, id := range p.staples {
		short := targetStock - s.Inventory[id]
		if short <= 0 {
			continue
		}
		msg.BuyOrders = append(msg.BuyOrders, protocol.BuyOrderReq{
			ItemID:     id,
			VendorIDs:  p.vendors,
			Quantity:   short,
			BestEffort: true,
		})
	}

	// Grow staff slowly as the population grows.
	if eng.Day()%20 == 0 && s.Cash > 1500 {
		msg.Hires = append(msg.Hires, protocol.HireReq{Kind: "CASHIER", Count: 1})
	}
	if eng.Day()%60 == 0 && s.Cash > 1200 {
		msg.Hires = append(msg.Hires, protocol.HireReq{Kind: "RESTOCKER", Count: 1})
	}

	for _, uid := range p.cats.Upgrades.Order {
		u := p.cats.Upgrades.ByID[uid]
		if !s.HasUpgrade(uid) && s.Level >= u.MinLevel && s.Cash > u.Cost*2 {
			msg.Upgrades = append(msg.Upgrades, uid)
			break
		}
	}
	return msg
}
