package vendors

import (
	"errors"
	"fmt"
)

// ErrNotInitialized means availability was queried before the day's random
// subsets were drawn. That is a programming-contract violation, fatal to the
// call rather than a report entry.
var ErrNotInitialized = errors.New("vendor availability not drawn for this day")

// ValidationError rejects an order synchronously with state unchanged.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// CapacityError means the vendor's daily unit cap cannot absorb the order.
// Soft: the caller skips or clips the order and the simulation continues.
type CapacityError struct {
	VendorID  string
	Remaining int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("vendor %s capacity exceeded (remaining %d)", e.VendorID, e.Remaining)
}
