package engine

import "storefront.ai/internal/protocol"

// DayLogEntry is one replayable day: the decisions in force when the day
// advanced and the report it produced. The digest duplicates the report's
// for cheap scanning.
type DayLogEntry struct {
	Day       int                    `json:"day"`
	Decisions []protocol.DecisionMsg `json:"decisions,omitempty"`
	Report    *protocol.DailyReport  `json:"report"`
	Digest    string                 `json:"digest"`
}

// ApplyDecision runs one store's decision message against the engine and
// marks the store submitted. The first rejected field aborts with state of
// earlier fields already applied, matching the per-operation semantics.
func (e *Engine) ApplyDecision(msg *protocol.DecisionMsg) error {
	if msg == nil {
		return &ValidationError{Reason: "nil decision"}
	}
	if msg.Prices != nil {
		if err := e.SetPrices(msg.StoreID, msg.Prices); err != nil {
			return err
		}
	}
	if msg.BuyOrders != nil {
		if err := e.ConfigureBuyOrders(msg.StoreID, msg.BuyOrders); err != nil {
			return err
		}
	}
	for _, h := range msg.Hires {
		if err := e.HireEmployee(msg.StoreID, h.Kind, h.Count); err != nil {
			return err
		}
	}
	for _, u := range msg.Upgrades {
		if err := e.PurchaseUpgrade(msg.StoreID, u); err != nil {
			return err
		}
	}
	return e.SubmitDecisions(msg.StoreID)
}
