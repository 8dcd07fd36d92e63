package engine

import (
	"errors"
	"testing"

	"storefront.ai/internal/protocol"
	"storefront.ai/internal/sim/catalogs"
	"storefront.ai/internal/sim/customers"
	"storefront.ai/internal/sim/tuning"
)

func testEngine(t *testing.T, seed int64, storeIDs ...string) *Engine {
	t.Helper()
	cfg, err := catalogs.Load("../../../configs")
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	if len(storeIDs) == 0 {
		storeIDs = []string{"A", "B"}
	}
	e, err := New(seed, cfg, tuning.Defaults(), storeIDs, true)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return e
}

func submitAll(t *testing.T, e *Engine) {
	t.Helper()
	for _, id := range e.StoreIDs() {
		if err := e.SubmitDecisions(id); err != nil {
			t.Fatalf("submit %s: %v", id, err)
		}
	}
}

func advance(t *testing.T, e *Engine) *protocol.DailyReport {
	t.Helper()
	submitAll(t, e)
	r, err := e.AdvanceDay()
	if err != nil {
		t.Fatalf("advance day %d: %v", e.Day(), err)
	}
	return r
}

func TestAdvanceDay_BarrierBlocksUntilAllSubmit(t *testing.T) {
	e := testEngine(t, 1)

	if _, err := e.AdvanceDay(); err == nil {
		t.Fatalf("expected NotReadyError before any submission")
	}
	if err := e.SubmitDecisions("A"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	_, err := e.AdvanceDay()
	var nr *NotReadyError
	if !errors.As(err, &nr) {
		t.Fatalf("expected NotReadyError, got %v", err)
	}
	if len(nr.Waiting) != 1 || nr.Waiting[0] != "B" {
		t.Fatalf("waiting set: %v", nr.Waiting)
	}

	if err := e.SubmitDecisions("B"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := e.AdvanceDay(); err != nil {
		t.Fatalf("barrier open but advance failed: %v", err)
	}
	if e.Day() != 2 {
		t.Fatalf("day counter: got %d", e.Day())
	}
}

func TestResolveCustomer_AnchorStoreBuysAllSatisfiableNeeds(t *testing.T) {
	e := testEngine(t, 1)
	a, b := e.Store("A"), e.Store("B")
	a.Inventory["LAPTOP"], a.Inventory["BREAD"] = 5, 50
	b.Inventory["LAPTOP"], b.Inventory["BREAD"] = 5, 50
	a.Prices["LAPTOP"], a.Prices["BREAD"] = 115, 2.00
	b.Prices["LAPTOP"], b.Prices["BREAD"] = 110, 2.50

	c := &customers.Customer{
		ID: "c1", Kind: customers.KindHigh, Budget: 500,
		Needs: []customers.Need{
			{ItemID: "BREAD", Quantity: 1, MaxPrice: 2.875},
			{ItemID: "LAPTOP", Quantity: 1, MaxPrice: 120},
		},
	}
	visits := e.resolveCustomer(c)

	// The laptop anchors the trip at the cheaper store B, and bread is
	// bought there too even though A undercuts on bread.
	if len(visits) != 1 {
		t.Fatalf("expected a single visit, got %d", len(visits))
	}
	v := visits[0]
	if v.StoreID != "B" || v.Type != VisitAllocated {
		t.Fatalf("visit: %+v", v)
	}
	if v.BasketSize != 2 || v.Purchased != 2 || v.FulfillmentPct != 100 {
		t.Fatalf("visit stats: %+v", v)
	}
	if b.Inventory["LAPTOP"] != 4 || b.Inventory["BREAD"] != 49 {
		t.Fatalf("store B inventory not debited")
	}
	if a.Inventory["LAPTOP"] != 5 {
		t.Fatalf("store A must be untouched")
	}
	if got, want := c.Spend, 112.50; got != want {
		t.Fatalf("spend: got %v want %v", got, want)
	}
	if b.XP != 2 {
		t.Fatalf("XP accrues 1 per unit: got %d", b.XP)
	}
}

func TestResolveCustomer_ToleranceBoundary(t *testing.T) {
	e := testEngine(t, 1)
	a := e.Store("A")
	a.Inventory["BREAD"] = 10

	c := func() *customers.Customer {
		return &customers.Customer{
			ID: "c1", Budget: 100,
			Needs: []customers.Need{{ItemID: "BREAD", Quantity: 1, MaxPrice: 2.875}},
		}
	}

	a.Prices["BREAD"] = 2.875 // exactly at tolerance
	if visits := e.resolveCustomer(c()); len(visits) != 1 {
		t.Fatalf("quote at tolerance must be accepted")
	}
	a.Prices["BREAD"] = 2.885 // one cent over
	if visits := e.resolveCustomer(c()); len(visits) != 0 {
		t.Fatalf("quote over tolerance must be rejected")
	}
}

func TestResolveCustomer_BudgetNeverExceeded(t *testing.T) {
	e := testEngine(t, 1)
	a := e.Store("A")
	a.Inventory["HEADPHONES"] = 100
	a.Prices["HEADPHONES"] = 60

	c := &customers.Customer{
		ID: "c1", Budget: 150,
		Needs: []customers.Need{{ItemID: "HEADPHONES", Quantity: 10, MaxPrice: 69}},
	}
	visits := e.resolveCustomer(c)
	if len(visits) != 1 || visits[0].Purchased != 2 {
		t.Fatalf("expected 2 affordable units, got %v", visits)
	}
	if c.Spend > c.Budget {
		t.Fatalf("spend %v exceeds budget %v", c.Spend, c.Budget)
	}
}

func TestResolveCustomer_NoPurchaseNoVisit(t *testing.T) {
	e := testEngine(t, 1)
	// Nothing priced anywhere: the customer walks away without a visit.
	c := &customers.Customer{
		ID: "c1", Budget: 100,
		Needs: []customers.Need{{ItemID: "BREAD", Quantity: 1, MaxPrice: 3}},
	}
	if visits := e.resolveCustomer(c); len(visits) != 0 {
		t.Fatalf("no qualifying store, expected no visits: %v", visits)
	}
}

func TestResolveCustomer_CapacityExhaustionSpillsOver(t *testing.T) {
	e := testEngine(t, 1)
	a, b := e.Store("A"), e.Store("B")
	a.Inventory["BREAD"], b.Inventory["BREAD"] = 1000, 1000
	a.Prices["BREAD"], b.Prices["BREAD"] = 2.00, 2.10

	capA := a.Capacity(e.tun.CustomersPerCashier, e.cfg.Upgrades)
	need := func(i int) *customers.Customer {
		return &customers.Customer{
			ID: "c", Budget: 10,
			Needs: []customers.Need{{ItemID: "BREAD", Quantity: 1, MaxPrice: 2.875}},
		}
	}
	for i := 0; i < capA; i++ {
		v := e.resolveCustomer(need(i))
		if len(v) != 1 || v[0].StoreID != "A" {
			t.Fatalf("customer %d should anchor at cheaper A: %v", i, v)
		}
	}
	// A is now at capacity: the next capped customer lands at B.
	if v := e.resolveCustomer(need(capA)); len(v) != 1 || v[0].StoreID != "B" {
		t.Fatalf("expected spillover to B, got %v", v)
	}
	// Uncapped customers ignore capacity and still shop the cheapest store.
	u := &customers.Customer{
		ID: "u", Budget: 2000, Uncapped: true,
		Needs: []customers.Need{{ItemID: "BREAD", Quantity: 1, MaxPrice: 2.875}},
	}
	if v := e.resolveCustomer(u); len(v) != 1 || v[0].StoreID != "A" {
		t.Fatalf("uncapped customer must bypass capacity: %v", v)
	}
}

func TestResolveCustomer_TieBreaksOnStoreID(t *testing.T) {
	e := testEngine(t, 1)
	a, b := e.Store("A"), e.Store("B")
	a.Inventory["BREAD"], b.Inventory["BREAD"] = 10, 10
	a.Prices["BREAD"], b.Prices["BREAD"] = 2.00, 2.00

	c := &customers.Customer{
		ID: "c1", Budget: 10,
		Needs: []customers.Need{{ItemID: "BREAD", Quantity: 1, MaxPrice: 2.875}},
	}
	if v := e.resolveCustomer(c); len(v) != 1 || v[0].StoreID != "A" {
		t.Fatalf("equal quotes must resolve to the lexically first store: %v", v)
	}
}

func TestAdvanceDay_TwinEnginesStayIdentical(t *testing.T) {
	run := func() []string {
		e := testEngine(t, 424242)
		var digests []string
		for day := 1; day <= 40; day++ {
			for _, id := range e.StoreIDs() {
				if err := e.SetPrices(id, map[string]float64{"BREAD": 2.60, "MILK": 3.40}); err != nil {
					t.Fatalf("set prices: %v", err)
				}
				if err := e.ConfigureBuyOrders(id, []protocol.BuyOrderReq{
					{ItemID: "BREAD", VendorIDs: []string{"CORNER_SUPPLY"}, Quantity: 40, BestEffort: true},
				}); err != nil {
					t.Fatalf("configure orders: %v", err)
				}
			}
			r := advance(t, e)
			digests = append(digests, r.Digest)
		}
		return digests
	}

	a, b := run(), run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("digest diverged on day %d:\n%s\n%s", i+1, a[i], b[i])
		}
	}
}

func TestAdvanceDay_SplitOrderNeverOverdraws(t *testing.T) {
	e := testEngine(t, 5)
	a := e.Store("A")
	a.Cash = 70000

	// VALUE_WHOLESALE is cheap but caps at 2000 units per day; the spill
	// goes to PREMIUM_IMPORTS at a higher quote. The pricier leg must be
	// clipped against the cash actually left at its own quote.
	if err := e.ConfigureBuyOrders("A", []protocol.BuyOrderReq{
		{ItemID: "HEADPHONES", VendorIDs: []string{"VALUE_WHOLESALE", "PREMIUM_IMPORTS"}, Quantity: 4000, BestEffort: true},
	}); err != nil {
		t.Fatalf("configure orders: %v", err)
	}
	r := advance(t, e)

	if a.Cash < 0 {
		t.Fatalf("order placement drove cash negative: %v", a.Cash)
	}
	if a.Cash >= 70000 {
		t.Fatalf("no order was placed at all")
	}
	found := false
	for _, rej := range r.Rejected {
		if rej.StoreID == "A" && rej.ItemID == "HEADPHONES" && rej.Code == protocol.ErrNoBudget {
			found = true
		}
	}
	if !found {
		t.Fatalf("cash-bounded remainder must be reported as %s: %+v", protocol.ErrNoBudget, r.Rejected)
	}
	for _, sr := range r.Stores {
		if sr.StoreID == "A" && len(sr.PendingOrders) < 2 {
			t.Fatalf("expected the fill to split across both vendors: %+v", sr.PendingOrders)
		}
	}
}

func TestAdvanceDay_WagesOnPayday(t *testing.T) {
	e := testEngine(t, 7)
	if err := e.HireEmployee("A", "CASHIER", 1); err != nil {
		t.Fatalf("hire: %v", err)
	}
	if err := e.HireEmployee("A", "RESTOCKER", 1); err != nil {
		t.Fatalf("hire: %v", err)
	}

	var r *protocol.DailyReport
	for day := 1; day <= 30; day++ {
		r = advance(t, e)
	}
	for _, sr := range r.Stores {
		switch sr.StoreID {
		case "A":
			// 2 cashiers + 1 restocker.
			if want := 2*120.0 + 90.0; sr.WagesPaid != want {
				t.Fatalf("A wages: got %v want %v", sr.WagesPaid, want)
			}
		case "B":
			if sr.WagesPaid != 120 {
				t.Fatalf("B wages: got %v", sr.WagesPaid)
			}
		}
	}

	// Non-payday reports carry no wage line.
	r = advance(t, e)
	if r.Stores[0].WagesPaid != 0 {
		t.Fatalf("day 31 must not bill wages")
	}
}

func TestAdvanceDay_GameOver(t *testing.T) {
	e := testEngine(t, 7, "A")
	e.tun.GameLengthDays = 3
	for day := 1; day <= 3; day++ {
		advance(t, e)
	}
	submitAll(t, e)
	if _, err := e.AdvanceDay(); !errors.Is(err, ErrGameOver) {
		t.Fatalf("expected ErrGameOver, got %v", err)
	}
}

func TestSnapshot_RoundTrip(t *testing.T) {
	e := testEngine(t, 11)
	for _, id := range e.StoreIDs() {
		if err := e.SetPrices(id, map[string]float64{"BREAD": 2.70}); err != nil {
			t.Fatalf("set prices: %v", err)
		}
		if err := e.ConfigureBuyOrders(id, []protocol.BuyOrderReq{
			{ItemID: "BREAD", VendorIDs: []string{"VALUE_WHOLESALE"}, Quantity: 60, BestEffort: true},
		}); err != nil {
			t.Fatalf("configure orders: %v", err)
		}
	}
	for day := 1; day <= 5; day++ {
		advance(t, e)
	}

	snap := e.ExportSnapshot()
	restored := testEngine(t, 0)
	if err := restored.ImportSnapshot(snap); err != nil {
		t.Fatalf("import: %v", err)
	}
	if got, want := restored.StateDigest(), e.StateDigest(); got != want {
		t.Fatalf("digest mismatch after round trip:\n%s\n%s", got, want)
	}

	// Both continue identically.
	ra := advance(t, e)
	rb := advance(t, restored)
	if ra.Digest != rb.Digest {
		t.Fatalf("restored engine diverged:\n%s\n%s", ra.Digest, rb.Digest)
	}
}

func TestImportSnapshot_RejectsCorruptState(t *testing.T) {
	e := testEngine(t, 11)
	advance(t, e)
	base := e.ExportSnapshot()

	check := func(name string, mutate func(*Snapshot)) {
		snap := e.ExportSnapshot()
		mutate(snap)
		fresh := testEngine(t, 11)
		err := fresh.ImportSnapshot(snap)
		var cs *CorruptStateError
		if !errors.As(err, &cs) {
			t.Fatalf("%s: expected CorruptStateError, got %v", name, err)
		}
	}

	check("demand out of range", func(s *Snapshot) { s.Demand["BREAD"] = 2.5 })
	check("negative inventory", func(s *Snapshot) { s.Stores[0].Inventory["BREAD"] = -1 })
	check("day past game length", func(s *Snapshot) { s.Day = 999 })
	check("bad version", func(s *Snapshot) { s.Version = 99 })

	// The original snapshot still loads.
	fresh := testEngine(t, 11)
	if err := fresh.ImportSnapshot(base); err != nil {
		t.Fatalf("clean snapshot rejected: %v", err)
	}
}

func TestPurchaseUpgrade_Validation(t *testing.T) {
	e := testEngine(t, 1)
	a := e.Store("A")

	if err := e.PurchaseUpgrade("A", "SELF_CHECKOUT"); err == nil {
		t.Fatalf("level-gated upgrade must be rejected at level 1")
	}
	a.Cash = 100
	if err := e.PurchaseUpgrade("A", "EXTRA_REGISTER"); err == nil {
		t.Fatalf("unaffordable upgrade must be rejected")
	}
	a.Cash = 1000
	if err := e.PurchaseUpgrade("A", "EXTRA_REGISTER"); err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if a.Cash != 500 {
		t.Fatalf("cost not charged: %v", a.Cash)
	}
	if err := e.PurchaseUpgrade("A", "EXTRA_REGISTER"); err == nil {
		t.Fatalf("duplicate purchase must be rejected")
	}
	// Capacity reflects the bonus.
	if got := a.Capacity(15, e.cfg.Upgrades); got != 15+5 {
		t.Fatalf("capacity with upgrade: got %d", got)
	}
}

func TestLevelUp_ConsumesXP(t *testing.T) {
	s := newStore("A", 0)
	s.XP = 100 + 200 + 5
	s.levelUp()
	if s.Level != 3 || s.XP != 5 {
		t.Fatalf("level %d xp %d, want level 3 xp 5", s.Level, s.XP)
	}
}

func TestCodeFor_Mapping(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{&ValidationError{Reason: "x"}, protocol.ErrValidation},
		{&NotReadyError{}, protocol.ErrNotReady},
		{ErrGameOver, protocol.ErrGameOver},
		{&CorruptStateError{Reason: "x"}, protocol.ErrCorruptState},
		{errors.New("boom"), protocol.ErrInternal},
		{nil, ""},
	}
	for _, tc := range cases {
		if got := CodeFor(tc.err); got != tc.want {
			t.Fatalf("CodeFor(%v): got %s want %s", tc.err, got, tc.want)
		}
	}
}
