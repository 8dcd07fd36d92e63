package customers

import (
	"testing"

	"storefront.ai/internal/sim/catalogs"
	"storefront.ai/internal/sim/market"
	"storefront.ai/internal/sim/rng"
	"storefront.ai/internal/sim/tuning"
)

func testGen(t *testing.T) (*Generator, map[string]float64, *market.DemandTracker) {
	t.Helper()
	c, err := catalogs.Load("../../../configs")
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	tun := tuning.Defaults()
	prices := map[string]float64{}
	for id, def := range c.Items.Defs {
		prices[id] = def.BasePrice
	}
	return NewGenerator(c.Items, tun), prices, market.NewDemandTracker(c.Items, tun.DemandMin, tun.DemandMax)
}

func TestPopulation_Formula(t *testing.T) {
	g, _, _ := testGen(t)
	cases := []struct {
		day, stores, want int
	}{
		{1, 2, 2*15 + 2},
		{14, 2, 2*15 + 28 + 20},
		{29, 1, 15 + 58 + 2*20},
		{100, 3, 3*15 + 200 + 7*20},
	}
	for _, tc := range cases {
		if got := g.Population(tc.day, tc.stores); got != tc.want {
			t.Fatalf("day %d stores %d: got %d want %d", tc.day, tc.stores, got, tc.want)
		}
	}
}

func TestGenerateDay_Deterministic(t *testing.T) {
	g, prices, d := testGen(t)
	a := g.GenerateDay(10, 2, true, prices, d, rng.New(42, 10, 5))
	b := g.GenerateDay(10, 2, true, prices, d, rng.New(42, 10, 5))
	if len(a) != len(b) {
		t.Fatalf("population differs: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Kind != b[i].Kind || len(a[i].Needs) != len(b[i].Needs) {
			t.Fatalf("customer %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestGenerateDay_NeedsWithinBudgetAndLimit(t *testing.T) {
	g, prices, d := testGen(t)
	for _, c := range g.GenerateDay(40, 2, true, prices, d, rng.New(7, 40, 5)) {
		if len(c.Needs) == 0 {
			t.Fatalf("empty-need customer %s not dropped", c.ID)
		}
		if c.ItemLimit > 0 && len(c.Needs) > c.ItemLimit {
			t.Fatalf("%s (%s): %d needs over limit %d", c.ID, c.Kind, len(c.Needs), c.ItemLimit)
		}
		var worst float64
		for _, n := range c.Needs {
			if n.Quantity <= 0 {
				t.Fatalf("%s: non-positive quantity", c.ID)
			}
			if n.MaxPrice != prices[n.ItemID]*1.15 {
				t.Fatalf("%s: max price %v for %s (market %v)", c.ID, n.MaxPrice, n.ItemID, prices[n.ItemID])
			}
			worst += n.MaxPrice * float64(n.Quantity)
		}
		// Only regular tiers build needs strictly inside the budget; special
		// kinds want fixed shapes and rely on the purchase-time budget check.
		switch c.Kind {
		case KindLow, KindMedium, KindHigh:
			if worst > c.Budget+1e-9 {
				t.Fatalf("%s (%s): worst-case spend %v exceeds budget %v", c.ID, c.Kind, worst, c.Budget)
			}
		}
	}
}

func TestGenerateDay_HoarderShape(t *testing.T) {
	g, prices, d := testGen(t)
	found := false
	for day := 1; day <= 40 && !found; day++ {
		for _, c := range g.GenerateDay(day, 2, true, prices, d, rng.New(3, day, 5)) {
			if c.Kind != KindHoarder {
				continue
			}
			found = true
			if len(c.Needs) != 1 {
				t.Fatalf("hoarder wants one item, got %d", len(c.Needs))
			}
			n := c.Needs[0]
			if n.Quantity < 3 || n.Quantity > 10 {
				t.Fatalf("hoarder quantity out of [3,10]: %d", n.Quantity)
			}
			if n.MaxPrice*3 > c.Budget {
				t.Fatalf("hoarder cannot afford 3 units of %s", n.ItemID)
			}
		}
	}
	if !found {
		t.Fatalf("no hoarder spawned in 40 days at 30%% daily chance")
	}
}

func TestGenerateDay_SpecialFilters(t *testing.T) {
	g, prices, d := testGen(t)
	for day := 1; day <= 60; day++ {
		for _, c := range g.GenerateDay(day, 2, true, prices, d, rng.New(9, day, 5)) {
			switch c.Kind {
			case KindRichGuy:
				for _, n := range c.Needs {
					if prices[n.ItemID] <= 50 {
						t.Fatalf("rich guy picked %s at %v", n.ItemID, prices[n.ItemID])
					}
				}
			case KindPoorMan:
				if p := prices[c.Needs[0].ItemID]; p >= 10 {
					t.Fatalf("poor man picked %s at %v", c.Needs[0].ItemID, p)
				}
			case KindKid:
				if p := prices[c.Needs[0].ItemID]; p >= 5 {
					t.Fatalf("kid picked %s at %v", c.Needs[0].ItemID, p)
				}
				if c.Needs[0].Quantity != 2 {
					t.Fatalf("kid wants 2 units, got %d", c.Needs[0].Quantity)
				}
			}
		}
	}
}

func TestGenerateDay_SpecialsDisabled(t *testing.T) {
	g, prices, d := testGen(t)
	for day := 1; day <= 30; day++ {
		for _, c := range g.GenerateDay(day, 2, false, prices, d, rng.New(9, day, 5)) {
			switch c.Kind {
			case KindHoarder, KindRichGuy, KindPoorMan, KindKid:
				t.Fatalf("special %s spawned while disabled", c.Kind)
			}
		}
	}
}

func TestGenerateDay_UncappedSchedule(t *testing.T) {
	g, prices, d := testGen(t)

	count := func(day int) int {
		n := 0
		for _, c := range g.GenerateDay(day, 1, false, prices, d, rng.New(1, day, 5)) {
			if c.Kind == KindUncapped {
				if !c.Uncapped {
					t.Fatalf("uncapped customer missing flag")
				}
				if p := prices[c.Needs[0].ItemID]; p < 100 {
					t.Fatalf("uncapped picked %s at %v", c.Needs[0].ItemID, p)
				}
				n++
			}
		}
		return n
	}

	if got := count(49); got != 0 {
		t.Fatalf("day 49: got %d uncapped, want 0", got)
	}
	if got := count(50); got != 1 {
		t.Fatalf("day 50: got %d uncapped, want 1", got)
	}
	if got := count(75); got != 3 {
		t.Fatalf("day 75: got %d uncapped, want 3", got)
	}
}

func TestMixShift_HighBudgetDominatesLate(t *testing.T) {
	g, prices, d := testGen(t)
	tally := func(day int) (low, high int) {
		for _, c := range g.GenerateDay(day, 2, false, prices, d, rng.New(21, day, 5)) {
			switch c.Kind {
			case KindLow:
				low++
			case KindHigh:
				high++
			}
		}
		return
	}

	lowEarly, highEarly := tally(5)
	if lowEarly <= highEarly {
		t.Fatalf("early game should favor low budgets: low=%d high=%d", lowEarly, highEarly)
	}
	lowLate, highLate := tally(150)
	if highLate <= lowLate {
		t.Fatalf("late game should favor high budgets: low=%d high=%d", lowLate, highLate)
	}
}
