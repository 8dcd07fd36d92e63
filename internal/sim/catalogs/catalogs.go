package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

type Catalogs struct {
	Items    ItemCatalog
	Vendors  VendorCatalog
	Upgrades UpgradeCatalog
}

type ItemCatalog struct {
	Palette       []string
	Index         map[string]uint16
	Defs          map[string]ItemDef
	PaletteDigest string
	DefsDigest    string
}

type ItemDef struct {
	ID         string  `json:"id"`
	BaseCost   float64 `json:"base_cost"`
	BasePrice  float64 `json:"base_price"`
	Importance int     `json:"importance"` // 1..3
	Category   string  `json:"category"`
}

type VendorCatalog struct {
	ByID   map[string]VendorDef
	Order  []string
	Digest string
}

// VendorDef is an immutable rule set; the only per-day mutable part (the
// random item subset for subset vendors) lives in the availability cache.
type VendorDef struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	PriceMultiplier float64 `json:"price_multiplier"`
	LeadDays        int     `json:"lead_days"`

	MinOrderQty     int     `json:"min_order_qty,omitempty"`
	PriceMin        float64 `json:"price_min,omitempty"` // market-price bracket, 0 = unbounded
	PriceMax        float64 `json:"price_max,omitempty"`
	DailySubsetSize int     `json:"daily_subset_size,omitempty"` // 0 = full catalog every day
	DailyUnitCap    int     `json:"daily_unit_cap,omitempty"`    // 0 = uncapped
	CapScope        string  `json:"cap_scope,omitempty"`         // "global" (default) | "per_store"
}

const (
	CapScopeGlobal   = "global"
	CapScopePerStore = "per_store"
)

type UpgradeCatalog struct {
	ByID   map[string]UpgradeDef
	Order  []string
	Digest string
}

type UpgradeDef struct {
	ID                   string  `json:"id"`
	Name                 string  `json:"name"`
	Cost                 float64 `json:"cost"`
	CashierCapacityBonus int     `json:"cashier_capacity_bonus,omitempty"`
	MinLevel             int     `json:"min_level,omitempty"`
}

func Load(configDir string) (*Catalogs, error) {
	var c Catalogs

	if err := loadItems(filepath.Join(configDir, "items.json"), &c.Items); err != nil {
		return nil, err
	}
	if err := loadVendors(filepath.Join(configDir, "vendors.json"), &c.Vendors); err != nil {
		return nil, err
	}
	if err := loadUpgrades(filepath.Join(configDir, "upgrades.json"), &c.Upgrades); err != nil {
		return nil, err
	}

	return &c, nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func loadItems(path string, out *ItemCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.DefsDigest = sha256Hex(raw)

	var defs []ItemDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("items.json: %w", err)
	}
	out.Defs = map[string]ItemDef{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("items.json: empty id")
		}
		if d.BaseCost <= 0 || d.BasePrice <= 0 {
			return fmt.Errorf("items.json: %s: non-positive cost/price", d.ID)
		}
		if d.Importance < 1 || d.Importance > 3 {
			return fmt.Errorf("items.json: %s: importance must be 1..3", d.ID)
		}
		out.Defs[d.ID] = d
	}

	ids := make([]string, 0, len(out.Defs))
	for id := range out.Defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out.Palette = ids
	out.Index = make(map[string]uint16, len(ids))
	for i, id := range ids {
		out.Index[id] = uint16(i)
	}
	palJSON, _ := json.Marshal(ids)
	out.PaletteDigest = sha256Hex(palJSON)
	return nil
}

func loadVendors(path string, out *VendorCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []VendorDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("vendors.json: %w", err)
	}
	out.ByID = map[string]VendorDef{}
	for _, v := range defs {
		if v.ID == "" {
			return fmt.Errorf("vendors.json: empty id")
		}
		if v.PriceMultiplier <= 0 {
			return fmt.Errorf("vendors.json: %s: non-positive price_multiplier", v.ID)
		}
		if v.LeadDays < 0 {
			return fmt.Errorf("vendors.json: %s: negative lead_days", v.ID)
		}
		switch v.CapScope {
		case "":
			v.CapScope = CapScopeGlobal
		case CapScopeGlobal, CapScopePerStore:
		default:
			return fmt.Errorf("vendors.json: %s: unknown cap_scope %q", v.ID, v.CapScope)
		}
		out.ByID[v.ID] = v
	}

	ids := make([]string, 0, len(out.ByID))
	for id := range out.ByID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out.Order = ids
	return nil
}

func loadUpgrades(path string, out *UpgradeCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		// Upgrades are optional content.
		if os.IsNotExist(err) {
			out.ByID = map[string]UpgradeDef{}
			out.Digest = sha256Hex(nil)
			return nil
		}
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []UpgradeDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("upgrades.json: %w", err)
	}
	out.ByID = map[string]UpgradeDef{}
	for _, u := range defs {
		if u.ID == "" {
			return fmt.Errorf("upgrades.json: empty id")
		}
		if u.Cost <= 0 {
			return fmt.Errorf("upgrades.json: %s: non-positive cost", u.ID)
		}
		out.ByID[u.ID] = u
	}

	ids := make([]string, 0, len(out.ByID))
	for id := range out.ByID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out.Order = ids
	return nil
}
