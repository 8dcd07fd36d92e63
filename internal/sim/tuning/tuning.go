package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	GameLengthDays int     `yaml:"game_length_days"`
	StartingCash   float64 `yaml:"starting_cash"`

	// Customers accept quotes up to market price * PriceTolerance.
	PriceTolerance float64 `yaml:"price_tolerance"`

	CustomersPerCashier int `yaml:"customers_per_cashier"`

	// Population size: stores*BaseCustomersPerStore + day*GrowthPerDay,
	// plus a permanent BoostAmount for every elapsed BoostEveryDays.
	BaseCustomersPerStore int `yaml:"base_customers_per_store"`
	GrowthPerDay          int `yaml:"growth_per_day"`
	BoostEveryDays        int `yaml:"boost_every_days"`
	BoostAmount           int `yaml:"boost_amount"`

	SpecialCustomerChance float64 `yaml:"special_customer_chance"`
	UncappedStartDay      int     `yaml:"uncapped_start_day"`

	MarketEventEveryDays int `yaml:"market_event_every_days"`
	WagesEveryDays       int `yaml:"wages_every_days"`

	CashierWage   float64 `yaml:"cashier_wage"`
	RestockerWage float64 `yaml:"restocker_wage"`

	DemandMin float64 `yaml:"demand_min"`
	DemandMax float64 `yaml:"demand_max"`

	Budgets Budgets   `yaml:"budgets"`
	Mix     []MixBand `yaml:"population_mix"`
}

type Budgets struct {
	Low      float64 `yaml:"low"`
	Medium   float64 `yaml:"medium"`
	High     float64 `yaml:"high"`
	Hoarder  float64 `yaml:"hoarder"`
	RichGuy  float64 `yaml:"rich_guy"`
	PoorMan  float64 `yaml:"poor_man"`
	Kid      float64 `yaml:"kid"`
	Uncapped float64 `yaml:"uncapped"`
}

// MixBand gives regular-tier draw weights from FromDay (inclusive) until the
// next band starts. Bands must be sorted ascending by from_day.
type MixBand struct {
	FromDay int     `yaml:"from_day"`
	Low     float64 `yaml:"low"`
	Medium  float64 `yaml:"medium"`
	High    float64 `yaml:"high"`
}

func Load(path string) (Tuning, error) {
	var t Tuning
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	t.applyDefaults()
	return t, nil
}

func Defaults() Tuning {
	var t Tuning
	t.applyDefaults()
	return t
}

func (t *Tuning) applyDefaults() {
	if t.GameLengthDays <= 0 {
		t.GameLengthDays = 365
	}
	if t.StartingCash <= 0 {
		t.StartingCash = 1000
	}
	if t.PriceTolerance <= 1 {
		t.PriceTolerance = 1.15
	}
	if t.CustomersPerCashier <= 0 {
		t.CustomersPerCashier = 15
	}
	if t.BaseCustomersPerStore <= 0 {
		t.BaseCustomersPerStore = 15
	}
	if t.GrowthPerDay <= 0 {
		t.GrowthPerDay = 2
	}
	if t.BoostEveryDays <= 0 {
		t.BoostEveryDays = 14
	}
	if t.BoostAmount <= 0 {
		t.BoostAmount = 20
	}
	if t.SpecialCustomerChance <= 0 || t.SpecialCustomerChance > 1 {
		t.SpecialCustomerChance = 0.30
	}
	if t.UncappedStartDay <= 0 {
		t.UncappedStartDay = 50
	}
	if t.MarketEventEveryDays <= 0 {
		t.MarketEventEveryDays = 30
	}
	if t.WagesEveryDays <= 0 {
		t.WagesEveryDays = 30
	}
	if t.CashierWage <= 0 {
		t.CashierWage = 120
	}
	if t.RestockerWage <= 0 {
		t.RestockerWage = 90
	}
	if t.DemandMin <= 0 {
		t.DemandMin = 0.1
	}
	if t.DemandMax <= t.DemandMin {
		t.DemandMax = 2.0
	}
	if t.Budgets.Low <= 0 {
		t.Budgets.Low = 20
	}
	if t.Budgets.Medium <= 0 {
		t.Budgets.Medium = 50
	}
	if t.Budgets.High <= 0 {
		t.Budgets.High = 100
	}
	if t.Budgets.Hoarder <= 0 {
		t.Budgets.Hoarder = 120
	}
	if t.Budgets.RichGuy <= 0 {
		t.Budgets.RichGuy = 400
	}
	if t.Budgets.PoorMan <= 0 {
		t.Budgets.PoorMan = 10
	}
	if t.Budgets.Kid <= 0 {
		t.Budgets.Kid = 8
	}
	if t.Budgets.Uncapped <= 0 {
		t.Budgets.Uncapped = 2000
	}
	if len(t.Mix) == 0 {
		t.Mix = []MixBand{
			{FromDay: 1, Low: 0.50, Medium: 0.35, High: 0.15},
			{FromDay: 30, Low: 0.35, Medium: 0.40, High: 0.25},
			{FromDay: 100, Low: 0.20, Medium: 0.30, High: 0.50},
		}
	}
}

// MixFor returns the regular-tier weights active on the given day.
func (t *Tuning) MixFor(day int) MixBand {
	band := t.Mix[0]
	for _, b := range t.Mix {
		if day >= b.FromDay {
			band = b
		}
	}
	return band
}
