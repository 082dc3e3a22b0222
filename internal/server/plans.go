package server

import "errors"

const (
	gib = int64(1) << 30
	tib = int64(1) << 40
)

// ErrUnknownPlan is returned for plan names outside the fixed set.
var ErrUnknownPlan = errors.New("unknown plan")

const defaultPlan = "free"

// Limits are the static per-plan caps. They never change at runtime; a
// user's wallet snapshots base_bytes at creation time.
type Limits struct {
	StorageCapBytes  int64 `json:"storageCapBytes"`
	MaxTransferBytes int64 `json:"maxTransferBytes"`
	PriceMonthCents  int   `json:"priceMonthCents"`
}

var plans = map[string]Limits{
	"free": {StorageCapBytes: 5 * gib, MaxTransferBytes: 3 * gib, PriceMonthCents: 0},
	"lite": {StorageCapBytes: 100 * gib, MaxTransferBytes: 10 * gib, PriceMonthCents: 499},
	"pro":  {StorageCapBytes: 500 * gib, MaxTransferBytes: 50 * gib, PriceMonthCents: 999},
	"max":  {StorageCapBytes: 2 * tib, MaxTransferBytes: 100 * gib, PriceMonthCents: 1999},
}

// limitsFor looks up the caps for a plan name.
func limitsFor(plan string) (Limits, error) {
	l, ok := plans[plan]
	if !ok {
		return Limits{}, ErrUnknownPlan
	}
	return l, nil
}
