package types

import (
	"time"

	"github.com/moznion/go-optional"
)

type SkipReason string

const (
	SkipReasonWeekend   SkipReason = "weekend"
	SkipReasonHoliday   SkipReason = "holiday"
	SkipReasonNoTrading SkipReason = "no_trading"
)

// Skip records a simulated day that produced no tradeable state: a weekend, a
// holiday, or a day on which no holding could be marked. Ordered is set when
// an order was scheduled for that day and had to be postponed.
type Skip struct {
	Date    time.Time
	Reason  SkipReason
	Ordered bool
}

// Snapshot is the per-day ledger state handed to exporters. Exactly one
// snapshot is fired per simulated day, plus one per drained postponement.
type Snapshot struct {
	// Date is the execution date of the snapshot.
	Date time.Time
	// Postponed carries the originally intended order date when the day's
	// orders were deferred from a non-tradeable day.
	Postponed optional.Option[time.Time]
	Cash      float64
	// Equity is the summed market value of all open positions.
	Equity   float64
	NAV      float64
	Holdings []Holding
	Ordered  bool

	// Only meaningful when Ordered is set.
	TotalFees    float64
	SuccessCount int
	FailedCount  int

	// Unset when auto-close is disabled.
	ClosedCount optional.Option[int]
	ClosedTotal optional.Option[int]

	// PriceFallbacks counts how many orders in the day's batch were priced
	// with a position's last mark instead of a fresh price.
	PriceFallbacks int
}

// HoldingCount returns the number of open positions in the snapshot.
func (s Snapshot) HoldingCount() int {
	return len(s.Holdings)
}

// RealDate is the date the orders were intended for: the postponed date when
// set, the execution date otherwise.
func (s Snapshot) RealDate() time.Time {
	return s.Postponed.TakeOr(s.Date)
}
