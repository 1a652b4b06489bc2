package types

import (
	"fmt"
	"math"
	"strings"

	"github.com/moznion/go-optional"
)

// Epsilon is the tolerance under which a quantity is considered zero.
// Quantities are stored as float64 everywhere; share-count sizing truncates
// toward zero before an order is built, so integer semantics hold where they
// matter while returns-mode simulations can carry fractional quantities.
const Epsilon = 1e-10

type Direction int

const (
	DirectionSell Direction = -1
	DirectionHold Direction = 0
	DirectionBuy  Direction = 1
)

func (d Direction) String() string {
	switch d {
	case DirectionBuy:
		return "BUY"
	case DirectionSell:
		return "SELL"
	default:
		return "HOLD"
	}
}

// Order is an immutable value object describing a single trade instruction.
// Quantity is a signed delta (or an absolute target before conversion by the
// account, see Account.OrderPosition). Price is unset for orders whose price
// still has to be resolved against the price provider.
type Order struct {
	Symbol   string                   `yaml:"symbol" json:"symbol" csv:"symbol"`
	Quantity float64                  `yaml:"quantity" json:"quantity" csv:"quantity"`
	Price    optional.Option[float64] `yaml:"price" json:"price" csv:"price"`
}

// NewOrder builds an order with a resolved price.
func NewOrder(symbol string, quantity, price float64) Order {
	return Order{
		Symbol:   symbol,
		Quantity: quantity,
		Price:    optional.Some(price),
	}
}

// Value is the cash value of the order, quantity * price.
// An order with an unresolved price has no value.
func (o Order) Value() float64 {
	return o.Quantity * o.Price.TakeOr(0)
}

// Direction derives the trade direction from the sign of the quantity.
func (o Order) Direction() Direction {
	if o.Quantity > 0 {
		return DirectionBuy
	}

	if o.Quantity < 0 {
		return DirectionSell
	}

	return DirectionHold
}

// Valid reports whether the order is well formed: non-blank symbol and, when
// the price is set, a strictly positive price. A zero quantity is legal (it
// represents a no-op or a close).
func (o Order) Valid() bool {
	if strings.TrimSpace(o.Symbol) == "" {
		return false
	}

	if o.Price.IsSome() && o.Price.Unwrap() <= 0 {
		return false
	}

	return true
}

// IsZero reports whether the order quantity nets to zero within Epsilon.
func (o Order) IsZero() bool {
	return math.Abs(o.Quantity) < Epsilon
}

func (o Order) String() string {
	if o.Price.IsSome() {
		return fmt.Sprintf("%sx%g@%g", o.Symbol, o.Quantity, o.Price.Unwrap())
	}

	return fmt.Sprintf("%sx%g", o.Symbol, o.Quantity)
}

// OrderResult is the outcome of a single order application.
type OrderResult struct {
	Order   Order
	Success bool
	Fee     float64
}

// CloseResult is the outcome of a close-position request. Missing is set when
// there was no position to close. PriceFallback is set when the close had to
// be priced with the position's last mark because no fresh price existed.
type CloseResult struct {
	Order         Order
	Success       bool
	Missing       bool
	Fee           float64
	PriceFallback bool
}
