package engine

import (
	"sort"

	"storefront.ai/internal/sim/catalogs"
)

// xpPerLevel is the per-level step: advancing from level L costs L*100 XP.
const xpPerLevel = 100

// Store is one participant's shop. Inventory quantities never go negative;
// cash can only be driven negative by wages, never by a validated decision.
type Store struct {
	ID string

	Cash      float64
	Inventory map[string]int
	Prices    map[string]float64

	Cashiers   int
	Restockers int
	Upgrades   []string

	Reputation int
	Level      int
	XP         int

	// Daily counters, reset at the start of each day's resolution.
	capacityUsed int
	unitsSold    int
	revenue      float64
	wagesPaid    float64
	repDelta     int
	startInv     map[string]int
}

func newStore(id string, cash float64) *Store {
	return &Store{
		ID:        id,
		Cash:      cash,
		Inventory: map[string]int{},
		Prices:    map[string]float64{},
		Cashiers:  1,
		Level:     1,
	}
}

// Capacity is the number of non-uncapped customers the store can anchor in
// one day: cashiers times the per-cashier rate, plus upgrade bonuses.
func (s *Store) Capacity(perCashier int, upgrades catalogs.UpgradeCatalog) int {
	n := s.Cashiers * perCashier
	for _, id := range s.Upgrades {
		n += upgrades.ByID[id].CashierCapacityBonus
	}
	return n
}

// HasUpgrade reports whether the store owns the upgrade.
func (s *Store) HasUpgrade(id string) bool {
	for _, u := range s.Upgrades {
		if u == id {
			return true
		}
	}
	return false
}

func (s *Store) addUpgrade(id string) {
	s.Upgrades = append(s.Upgrades, id)
	sort.Strings(s.Upgrades)
}

func (s *Store) beginDay() {
	s.capacityUsed = 0
	s.unitsSold = 0
	s.revenue = 0
	s.wagesPaid = 0
	s.repDelta = 0
	s.startInv = nil
}

// recordSale applies one purchase line: cash and XP in, stock out.
func (s *Store) recordSale(itemID string, qty int, unitPrice float64) {
	s.Inventory[itemID] -= qty
	s.Cash += unitPrice * float64(qty)
	s.revenue += unitPrice * float64(qty)
	s.unitsSold += qty
	s.XP += qty
}

func (s *Store) adjustReputation(delta int) {
	s.Reputation += delta
	s.repDelta += delta
	if s.Reputation > 100 {
		s.Reputation = 100
	}
	if s.Reputation < -100 {
		s.Reputation = -100
	}
}

// levelUp consumes accumulated XP, possibly across several levels.
func (s *Store) levelUp() {
	for s.XP >= s.Level*xpPerLevel {
		s.XP -= s.Level * xpPerLevel
		s.Level++
	}
}
