// Package account implements the simulation ledger: cash, open positions and
// the order-application accounting that moves value between the two.
package account

import (
	"math"
	"sort"
	"time"

	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/rxtech-lab/backsim/internal/fee"
	"github.com/rxtech-lab/backsim/internal/logger"
	"github.com/rxtech-lab/backsim/internal/types"
	"github.com/rxtech-lab/backsim/pkg/errors"
)

// Account holds cash and a set of open positions. It exclusively owns its
// holdings; callers only ever see copies, so the netting invariant (no
// zero-quantity position survives a merge) cannot be broken from outside.
//
// Cash only changes through the fee+value rule in applyCash: because an
// applied order's quantity is always the delta, `cash -= fee + qty*price`
// covers every long/short sign-flip case without branching on direction.
type Account struct {
	initialCash float64
	cash        float64
	feeModel    fee.Model
	holdings    map[string]*types.Holding
	log         *logger.Logger
}

func NewAccount(initialCash float64, feeModel fee.Model, log *logger.Logger) *Account {
	if feeModel == nil {
		feeModel = fee.NewFreeModel()
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Account{
		initialCash: initialCash,
		cash:        initialCash,
		feeModel:    feeModel,
		holdings:    make(map[string]*types.Holding),
		log:         log,
	}
}

func (a *Account) InitialCash() float64 {
	return a.initialCash
}

func (a *Account) Cash() float64 {
	return a.cash
}

// Equity is the summed market value of all open positions.
func (a *Account) Equity() float64 {
	total := 0.0

	for _, holding := range a.holdings {
		total += holding.MarketValue()
	}

	return total
}

// NAV is cash plus equity.
func (a *Account) NAV() float64 {
	return a.cash + a.Equity()
}

// Symbols returns the held symbols in deterministic order.
func (a *Account) Symbols() []string {
	symbols := make([]string, 0, len(a.holdings))
	for symbol := range a.holdings {
		symbols = append(symbols, symbol)
	}

	sort.Strings(symbols)

	return symbols
}

// Holdings returns copies of all open positions, sorted by symbol.
func (a *Account) Holdings() []types.Holding {
	holdings := make([]types.Holding, 0, len(a.holdings))
	for _, symbol := range a.Symbols() {
		holdings = append(holdings, *a.holdings[symbol])
	}

	return holdings
}

// FindHolding returns a copy of the position for symbol, if any.
func (a *Account) FindHolding(symbol string) (types.Holding, bool) {
	holding, ok := a.holdings[symbol]
	if !ok {
		return types.Holding{}, false
	}

	return *holding, true
}

// PlaceOrder applies a relative order to the ledger. Invalid orders (blank
// symbol, non-positive or unresolved price) are rejected with Success=false
// and zero side effects. A zero-quantity order is a legal no-op.
func (a *Account) PlaceOrder(order types.Order, date time.Time) types.OrderResult {
	result := types.OrderResult{Order: order}

	if !order.Valid() || order.Price.IsNone() {
		return result
	}

	result.Success = true

	if order.IsZero() {
		return result
	}

	result.Fee = a.feeModel.GetOrderFee(order)
	a.applyCash(order, result.Fee)

	day := types.Day(date)

	holding, ok := a.holdings[order.Symbol]
	if ok {
		a.assertFreshMark(holding, day)

		// Same symbol by construction, Merge cannot fail here.
		_ = holding.Merge(order)

		if math.Abs(holding.Quantity) < types.Epsilon {
			delete(a.holdings, order.Symbol)
		}
	} else {
		opened := types.HoldingFromOrder(order, day)
		a.holdings[order.Symbol] = &opened
	}

	return result
}

// OrderPosition treats the order's quantity as an absolute target: it is
// converted into the delta from the current position and then placed.
// Setting the same target twice in a day is therefore idempotent.
func (a *Account) OrderPosition(target types.Order, date time.Time) types.OrderResult {
	relative := a.ToRelativeOrder(target, date)

	return a.PlaceOrder(relative, date)
}

// ToRelativeOrder converts an absolute target order into the relative order
// that moves the current position to the target quantity. Without a current
// position the target is already relative and is returned unchanged.
func (a *Account) ToRelativeOrder(target types.Order, date time.Time) types.Order {
	holding, ok := a.holdings[target.Symbol]
	if !ok {
		return target
	}

	a.assertFreshMark(holding, types.Day(date))

	return types.Order{
		Symbol:   target.Symbol,
		Quantity: target.Quantity - holding.Quantity,
		Price:    target.Price,
	}
}

// ClosePosition fully unwinds the named position. A missing position yields
// Missing=true without mutation. When no price is given the position's last
// mark is used; the fallback is logged and flagged on the result because it
// silently approximates the unwind value.
func (a *Account) ClosePosition(symbol string, price optional.Option[float64]) types.CloseResult {
	order := types.Order{Symbol: symbol, Quantity: 0, Price: price}
	result := types.CloseResult{Order: order}

	if !order.Valid() {
		return result
	}

	holding, ok := a.holdings[symbol]
	if !ok {
		result.Missing = true

		return result
	}

	order.Quantity = -holding.Quantity

	if order.Price.IsNone() {
		order.Price = optional.Some(holding.Price)
		result.PriceFallback = true

		a.log.Warn("no price available to close position, using last mark",
			zap.String("symbol", symbol),
			zap.Float64("price", holding.Price),
		)
	}

	result.Fee = a.feeModel.GetOrderFee(order)
	a.applyCash(order, result.Fee)

	delete(a.holdings, symbol)

	result.Order = order
	result.Success = true

	return result
}

// UpdateMark replaces the position's mark price for the given day.
// Returns false when the symbol is not held.
func (a *Account) UpdateMark(symbol string, price float64, date time.Time) bool {
	holding, ok := a.holdings[symbol]
	if !ok {
		return false
	}

	holding.Price = price
	holding.LastUpdate = types.Day(date)
	holding.UpToDate = true

	return true
}

// CompoundMark advances the position by a period return instead of a price,
// used when the simulation runs against a returns-mode data source.
func (a *Account) CompoundMark(symbol string, periodReturn float64, date time.Time) bool {
	holding, ok := a.holdings[symbol]
	if !ok {
		return false
	}

	holding.Quantity *= 1 + periodReturn
	holding.LastUpdate = types.Day(date)
	holding.UpToDate = true

	return true
}

// KeepLastMark records that no price was found for the day: the previous
// mark and its date stay untouched and the position is no longer considered
// up to date. Relative orders against the holding keep tripping the
// stale-mark assert until a real mark arrives.
func (a *Account) KeepLastMark(symbol string) bool {
	holding, ok := a.holdings[symbol]
	if !ok {
		return false
	}

	holding.UpToDate = false

	return true
}

func (a *Account) applyCash(order types.Order, orderFee float64) {
	a.cash -= orderFee
	a.cash -= order.Value()
}

// A relative order computed against a mark from another day silently corrupts
// cash accounting, so this is a programming-contract violation, not a
// recoverable condition.
func (a *Account) assertFreshMark(holding *types.Holding, day time.Time) {
	if !holding.LastUpdate.Equal(day) {
		panic(errors.Newf(errors.ErrCodeStaleMark,
			"holding %s mark is from %s, not %s",
			holding.Symbol,
			holding.LastUpdate.Format(types.DateLayout),
			day.Format(types.DateLayout),
		))
	}
}
