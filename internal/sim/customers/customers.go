package customers

// Kind tags a customer's behavior profile.
type Kind string

const (
	KindLow      Kind = "LOW"
	KindMedium   Kind = "MEDIUM"
	KindHigh     Kind = "HIGH"
	KindHoarder  Kind = "HOARDER"
	KindRichGuy  Kind = "RICH_GUY"
	KindPoorMan  Kind = "POOR_MAN"
	KindKid      Kind = "KID"
	KindUncapped Kind = "UNCAPPED"
)

// Per-tier item-count limits for regular customers. 0 means unlimited.
const (
	itemLimitLow    = 5
	itemLimitMedium = 10
	itemLimitHigh   = 15
)

// Need is one line of a customer's shopping list. MaxPrice is the highest
// quote the customer accepts for the item.
type Need struct {
	ItemID   string
	Quantity int
	MaxPrice float64
}

// Customer is a single day's shopper. Uncapped customers ignore store
// cashier capacity; everyone else consumes a capacity slot on their first
// visit of the day.
type Customer struct {
	ID        string
	Kind      Kind
	Budget    float64
	ItemLimit int
	Needs     []Need
	Spend     float64
	Uncapped  bool
}

// Remaining returns the budget left after the customer's spend so far.
func (c *Customer) Remaining() float64 { return c.Budget - c.Spend }
