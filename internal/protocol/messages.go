package protocol

// DECISION (UI/AI collaborator -> engine). One message per store per day;
// every field is optional, omitted fields leave the store's configuration
// unchanged.
type DecisionMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Day             int    `json:"day"`
	StoreID         string `json:"store_id"`

	// An empty (non-null) buy_orders list clears the store's standing
	// order lines; a missing field leaves them untouched.
	BuyOrders []BuyOrderReq      `json:"buy_orders"`
	Prices    map[string]float64 `json:"prices,omitempty"`
	Hires     []HireReq          `json:"hires,omitempty"`
	Upgrades  []string           `json:"upgrades,omitempty"`
}

// BuyOrderReq is one standing order line. Vendors are listed in the store's
// preference order; the order book consumes them cheapest-first, so the order
// here only caps the set (max 3 vendors per item).
type BuyOrderReq struct {
	ItemID     string   `json:"item_id"`
	VendorIDs  []string `json:"vendor_ids"`
	Quantity   int      `json:"quantity"`
	BestEffort bool     `json:"best_effort,omitempty"`
}

type HireReq struct {
	Kind  string `json:"kind"` // "CASHIER","RESTOCKER"
	Count int    `json:"count"`
}

// REPORT (engine -> collaborators), produced once per advanced day.
type DailyReport struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Day             int    `json:"day"`

	Customers int `json:"customers"`

	MarketPrices map[string]float64 `json:"market_prices"`
	Demand       map[string]float64 `json:"demand"`
	Event        *MarketEvent       `json:"event,omitempty"`

	Stores   []StoreReport      `json:"stores"`
	Rejected []RejectedDecision `json:"rejected,omitempty"`

	Digest string `json:"digest"`
}

type MarketEvent struct {
	SaleItemID  string `json:"sale_item_id"`
	SpikeItemID string `json:"spike_item_id"`
}

type StoreReport struct {
	StoreID         string  `json:"store_id"`
	Cash            float64 `json:"cash"`
	Reputation      int     `json:"reputation"`
	ReputationDelta int     `json:"reputation_delta"`
	Level           int     `json:"level"`
	XP              int     `json:"xp"`

	UnitsSold int     `json:"units_sold"`
	Revenue   float64 `json:"revenue"`
	WagesPaid float64 `json:"wages_paid,omitempty"`

	Deliveries    []DeliveryReport     `json:"deliveries,omitempty"`
	PendingOrders []PendingOrderReport `json:"pending_orders,omitempty"`

	Fulfillment FulfillmentSummary `json:"fulfillment"`
}

type DeliveryReport struct {
	ItemID   string `json:"item_id"`
	VendorID string `json:"vendor_id"`
	Quantity int    `json:"quantity"`
}

type PendingOrderReport struct {
	ItemID     string `json:"item_id"`
	VendorID   string `json:"vendor_id"`
	Quantity   int    `json:"quantity"`
	ArrivalDay int    `json:"arrival_day"`
}

type FulfillmentSummary struct {
	AllocatedAvgPct    float64 `json:"allocated_avg_pct"`
	OverflowAvgPct     float64 `json:"overflow_avg_pct"`
	AllocatedVisits    int     `json:"allocated_visits"`
	OverflowVisits     int     `json:"overflow_visits"`
	AllocatedCustomers int     `json:"allocated_customers"`
	OverflowCustomers  int     `json:"overflow_customers"`
}

// RejectedDecision downgrades a per-order/per-leg error to a report entry.
type RejectedDecision struct {
	StoreID  string `json:"store_id"`
	Kind     string `json:"kind"` // "BUY_ORDER","PRICE","HIRE","UPGRADE"
	ItemID   string `json:"item_id,omitempty"`
	VendorID string `json:"vendor_id,omitempty"`
	Code     string `json:"code"`
	Reason   string `json:"reason,omitempty"`
}
