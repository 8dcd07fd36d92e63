package tuning

import "testing"

func TestDefaults(t *testing.T) {
	d := Defaults()
	if d.GameLengthDays != 365 {
		t.Fatalf("game length: %d", d.GameLengthDays)
	}
	if d.PriceTolerance != 1.15 {
		t.Fatalf("tolerance: %v", d.PriceTolerance)
	}
	if d.DemandMin != 0.1 || d.DemandMax != 2.0 {
		t.Fatalf("demand bounds: %v..%v", d.DemandMin, d.DemandMax)
	}
	if len(d.Mix) != 3 {
		t.Fatalf("mix bands: %d", len(d.Mix))
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	tn, err := Load("../../../configs/tuning.yaml")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tn.BaseCustomersPerStore != 15 || tn.GrowthPerDay != 2 {
		t.Fatalf("population constants: %d/%d", tn.BaseCustomersPerStore, tn.GrowthPerDay)
	}
	if tn.Budgets.Uncapped != 2000 {
		t.Fatalf("uncapped budget: %v", tn.Budgets.Uncapped)
	}
}

func TestMixFor_Bands(t *testing.T) {
	d := Defaults()
	if m := d.MixFor(1); m.Low != 0.50 {
		t.Fatalf("day 1 band: %+v", m)
	}
	if m := d.MixFor(99); m.Medium != 0.40 {
		t.Fatalf("day 99 band: %+v", m)
	}
	if m := d.MixFor(100); m.High != 0.50 {
		t.Fatalf("day 100 band: %+v", m)
	}
	if m := d.MixFor(365); m.High != 0.50 {
		t.Fatalf("day 365 band: %+v", m)
	}
}
