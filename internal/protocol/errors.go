package protocol

const (
	// Decision validation.
	ErrValidation = "E_VALIDATION"

	// Soft capacity limits: the order/customer leg is clipped or skipped.
	ErrVendorCapacity = "E_VENDOR_CAPACITY"
	ErrCapacity       = "E_CAPACITY"
	ErrNoBudget       = "E_NO_BUDGET"

	// Contract violations, fatal to the call.
	ErrNotInitialized = "E_NOT_INITIALIZED"
	ErrNotReady       = "E_NOT_READY"
	ErrGameOver       = "E_GAME_OVER"
	ErrCorruptState   = "E_CORRUPT_STATE"

	ErrInternal = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrValidation:     {},
	ErrVendorCapacity: {},
	ErrCapacity:       {},
	ErrNoBudget:       {},
	ErrNotInitialized: {},
	ErrNotReady:       {},
	ErrGameOver:       {},
	ErrCorruptState:   {},
	ErrInternal:       {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
