package engine

import (
	"storefront.ai/internal/protocol"
	"storefront.ai/internal/sim/rng"
)

// AdvanceDay runs one full day once the decision barrier is open: prices
// move, vendors redraw, queued orders are placed, due orders deliver,
// customers are generated and resolved in order, demand and reputation
// update, wages bill on payday, and the day counter advances. The returned
// report is the authoritative record of the day.
func (e *Engine) AdvanceDay() (*protocol.DailyReport, error) {
	if e.day > e.tun.GameLengthDays {
		return nil, ErrGameOver
	}
	if err := e.barrierOpen(); err != nil {
		return nil, err
	}
	day := e.day

	for _, id := range e.storeIDs {
		e.stores[id].beginDay()
	}

	event := e.prices.Advance(day, rng.New(e.seed, day, saltPrices), e.tun.MarketEventEveryDays)
	marketPrices := e.prices.Snapshot()

	e.avail.Redraw(day, e.cfg.Items.Palette, rng.New(e.seed, day, saltVendors))
	e.book.BeginDay(day)

	rejected := e.placeQueuedOrders(marketPrices)
	deliveries := e.applyDeliveries(day)

	// Starting inventory is captured after deliveries land: it is the
	// denominator of today's sell-through.
	startInv := map[string]int{}
	for _, id := range e.storeIDs {
		s := e.stores[id]
		s.startInv = make(map[string]int, len(s.Inventory))
		for item, q := range s.Inventory {
			s.startInv[item] = q
			startInv[item] += q
		}
	}

	pop := e.gen.GenerateDay(day, len(e.storeIDs), e.specials, marketPrices, e.demand, rng.New(e.seed, day, saltCustomers))

	tracker := NewFulfillmentTracker()
	for _, c := range pop {
		for _, v := range e.resolveCustomer(c) {
			tracker.RecordVisit(v)
		}
	}
	tracker.ApplyReputation(func(id string) *Store { return e.stores[id] })

	soldTotal := map[string]int{}
	for _, id := range e.storeIDs {
		s := e.stores[id]
		for item, start := range s.startInv {
			soldTotal[item] += start - s.Inventory[item]
		}
	}
	demandStream := rng.New(e.seed, day, saltDemand)
	for _, item := range e.cfg.Items.Palette {
		e.demand.Update(item, soldTotal[item], startInv[item], demandStream)
	}

	if day%e.tun.WagesEveryDays == 0 {
		for _, id := range e.storeIDs {
			s := e.stores[id]
			wages := float64(s.Cashiers)*e.tun.CashierWage + float64(s.Restockers)*e.tun.RestockerWage
			s.Cash -= wages
			s.wagesPaid = wages
		}
	}

	for _, id := range e.storeIDs {
		e.stores[id].levelUp()
	}

	report := e.buildReport(day, len(pop), marketPrices, event, deliveries, rejected, tracker)

	// Standing order configuration persists; only the barrier resets.
	e.day++
	e.submitted = map[string]bool{}
	return report, nil
}

// placeQueuedOrders runs every store's standing wholesale orders against the
// order book, paying cash up front. Affordability is checked against each
// leg's own quote, never a cheaper candidate's, so placement can clip an
// order but never drive cash negative. Per-order failures become report
// entries.
func (e *Engine) placeQueuedOrders(marketPrices map[string]float64) []protocol.RejectedDecision {
	var rejected []protocol.RejectedDecision
	reject := func(storeID, itemID, vendorID, code, reason string) {
		rejected = append(rejected, protocol.RejectedDecision{
			StoreID: storeID, Kind: "BUY_ORDER", ItemID: itemID,
			VendorID: vendorID, Code: code, Reason: reason,
		})
	}

	for _, storeID := range e.storeIDs {
		s := e.stores[storeID]
		for _, req := range e.queuedOrders[storeID] {
			mktPrice := marketPrices[req.ItemID]

			if len(req.VendorIDs) == 1 {
				vid := req.VendorIDs[0]
				qty := req.Quantity
				price, available, _, err := e.avail.Quote(vid, req.ItemID, mktPrice, e.day)
				if err == nil && available {
					if affordable := int(s.Cash / price); qty > affordable {
						if !req.BestEffort || affordable == 0 {
							reject(storeID, req.ItemID, vid, protocol.ErrNoBudget, "insufficient cash for requested quantity")
							continue
						}
						qty = affordable
					}
				}
				o, err := e.book.Place(storeID, req.ItemID, vid, qty, mktPrice, req.BestEffort)
				if err != nil {
					reject(storeID, req.ItemID, vid, CodeFor(err), err.Error())
					continue
				}
				s.Cash -= o.UnitPrice * float64(o.Quantity)
				continue
			}

			res, err := e.book.PlaceSplit(storeID, req.ItemID, req.VendorIDs, req.Quantity, mktPrice, s.Cash)
			if err != nil {
				reject(storeID, req.ItemID, "", CodeFor(err), err.Error())
				continue
			}
			s.Cash -= res.Spent
			if res.Unfilled > 0 {
				if res.ShortCash {
					reject(storeID, req.ItemID, "", protocol.ErrNoBudget, "insufficient cash to fill requested quantity")
				} else {
					reject(storeID, req.ItemID, "", protocol.ErrVendorCapacity, "order partially unfilled across candidate vendors")
				}
			}
		}
	}
	return rejected
}

// applyDeliveries moves matured orders into store inventories.
func (e *Engine) applyDeliveries(day int) map[string][]protocol.DeliveryReport {
	out := map[string][]protocol.DeliveryReport{}
	for _, d := range e.book.DeliverDue(day) {
		s, ok := e.stores[d.StoreID]
		if !ok {
			continue
		}
		s.Inventory[d.ItemID] += d.Quantity
		out[d.StoreID] = append(out[d.StoreID], protocol.DeliveryReport{
			ItemID: d.ItemID, VendorID: d.VendorID, Quantity: d.Quantity,
		})
	}
	return out
}

func (e *Engine) buildReport(day, customerCount int, marketPrices map[string]float64, event *protocol.MarketEvent, deliveries map[string][]protocol.DeliveryReport, rejected []protocol.RejectedDecision, tracker *FulfillmentTracker) *protocol.DailyReport {
	report := &protocol.DailyReport{
		Type:            protocol.TypeReport,
		ProtocolVersion: protocol.Version,
		Day:             day,
		Customers:       customerCount,
		MarketPrices:    marketPrices,
		Demand:          e.demand.Snapshot(),
		Event:           event,
		Rejected:        rejected,
	}
	for _, id := range e.storeIDs {
		s := e.stores[id]
		sr := protocol.StoreReport{
			StoreID:         id,
			Cash:            s.Cash,
			Reputation:      s.Reputation,
			ReputationDelta: s.repDelta,
			Level:           s.Level,
			XP:              s.XP,
			UnitsSold:       s.unitsSold,
			Revenue:         s.revenue,
			WagesPaid:       s.wagesPaid,
			Deliveries:      deliveries[id],
			Fulfillment:     tracker.DailySummary(id),
		}
		for _, o := range e.book.PendingFor(id) {
			sr.PendingOrders = append(sr.PendingOrders, protocol.PendingOrderReport{
				ItemID: o.ItemID, VendorID: o.VendorID, Quantity: o.Quantity, ArrivalDay: o.ArrivalDay,
			})
		}
		report.Stores = append(report.Stores, sr)
	}
	report.Digest = e.StateDigest()
	return report
}
