package engine

import (
	"errors"
	"fmt"

	"storefront.ai/internal/protocol"
	"storefront.ai/internal/sim/vendors"
)

// ErrGameOver rejects any advancement past the configured game length.
var ErrGameOver = errors.New("game over: past configured game length")

// NotReadyError means AdvanceDay was called before every store submitted
// its decisions for the day.
type NotReadyError struct {
	Waiting []string
}

func (e *NotReadyError) Error() string {
	return fmt.Sprintf("day barrier not open, waiting on stores %v", e.Waiting)
}

// ValidationError rejects a decision synchronously with state unchanged.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// CorruptStateError rejects an imported snapshot that fails invariant checks.
type CorruptStateError struct {
	Reason string
}

func (e *CorruptStateError) Error() string { return "corrupt snapshot: " + e.Reason }

// CodeFor maps an error to its wire code for report entries.
func CodeFor(err error) string {
	var (
		ve  *ValidationError
		vve *vendors.ValidationError
		ce  *vendors.CapacityError
		nr  *NotReadyError
		cs  *CorruptStateError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ve), errors.As(err, &vve):
		return protocol.ErrValidation
	case errors.As(err, &ce):
		return protocol.ErrVendorCapacity
	case errors.Is(err, vendors.ErrNotInitialized):
		return protocol.ErrNotInitialized
	case errors.As(err, &nr):
		return protocol.ErrNotReady
	case errors.Is(err, ErrGameOver):
		return protocol.ErrGameOver
	case errors.As(err, &cs):
		return protocol.ErrCorruptState
	default:
		return protocol.ErrInternal
	}
}
