package types

import (
	"fmt"
	"time"

	"github.com/rxtech-lab/backsim/pkg/errors"
)

// Holding is an open position in an account. It exists only while its
// quantity is non-zero (within Epsilon); the account removes it the moment a
// merge nets the quantity to zero.
//
// LastUpdate must equal the simulation date whenever a relative order is
// computed against the holding; a stale mark is a programming error, not a
// recoverable condition.
type Holding struct {
	Symbol     string
	Quantity   float64
	Price      float64
	LastUpdate time.Time
	// UpToDate is cleared when a mark-to-market pass found no price for the
	// day and kept the previous mark.
	UpToDate bool
}

// HoldingFromOrder opens a new position from an executed order.
func HoldingFromOrder(order Order, date time.Time) Holding {
	return Holding{
		Symbol:     order.Symbol,
		Quantity:   order.Quantity,
		Price:      order.Price.TakeOr(0),
		LastUpdate: Day(date),
		UpToDate:   true,
	}
}

// MarketValue is the current market value of the position, quantity * price.
func (h Holding) MarketValue() float64 {
	return h.Quantity * h.Price
}

// Merge accumulates an order into the holding: the quantity adds up and the
// price is replaced by the incoming fill price.
func (h *Holding) Merge(order Order) error {
	if h.Symbol != order.Symbol {
		return errors.Newf(errors.ErrCodeInvalidOrder, "cannot merge different symbols: %q and %q", h.Symbol, order.Symbol)
	}

	h.Quantity += order.Quantity
	h.Price = order.Price.TakeOr(h.Price)
	h.UpToDate = true

	return nil
}

func (h Holding) String() string {
	return fmt.Sprintf("%sx%g@%g", h.Symbol, h.Quantity, h.Price)
}
