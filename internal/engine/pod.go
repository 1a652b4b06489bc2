package engine

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/backsim/internal/account"
	"github.com/rxtech-lab/backsim/internal/calendar"
	"github.com/rxtech-lab/backsim/internal/export"
	"github.com/rxtech-lab/backsim/internal/logger"
	"github.com/rxtech-lab/backsim/internal/orderprovider"
	"github.com/rxtech-lab/backsim/internal/priceprovider"
	"github.com/rxtech-lab/backsim/internal/types"
	"go.uber.org/zap"
)

// Pod pairs one account with its order schedule and exporters. Several pods
// can share a price provider and a calendar; everything else is private, so a
// pod's day can run concurrently with other pods'.
type Pod struct {
	account   *account.Account
	provider  *priceprovider.Provider
	orders    orderprovider.OrderProvider
	exporters export.Collection
	log       *logger.Logger

	sizing    SizingMode
	autoClose bool

	orderDates map[time.Time]bool
	// pending holds intended order dates postponed from non-tradeable days.
	pending []time.Time
}

func NewPod(account *account.Account, provider *priceprovider.Provider, orders orderprovider.OrderProvider, exporters export.Collection, sizing SizingMode, autoClose bool, log *logger.Logger) *Pod {
	if log == nil {
		log = logger.NewNopLogger()
	}

	orderDates := make(map[time.Time]bool)
	for _, date := range orders.GetDates() {
		orderDates[types.Day(date)] = true
	}

	return &Pod{
		account:    account,
		provider:   provider,
		orders:     orders,
		exporters:  exporters,
		log:        log,
		sizing:     sizing,
		autoClose:  autoClose,
		orderDates: orderDates,
	}
}

func (p *Pod) Account() *account.Account {
	return p.account
}

func (p *Pod) OrderDates() []time.Time {
	return p.orders.GetDates()
}

// Execute applies one batch of target orders at priceDate's prices. A bad
// order is recorded and skipped, never aborting the batch; only a failed
// price fetch is an error.
func (p *Pod) Execute(ctx context.Context, priceDate time.Time, orders []types.Order) (*types.ExecutionResult, error) {
	symbols := make([]string, 0, len(orders))
	for _, order := range orders {
		symbols = append(symbols, order.Symbol)
	}

	symbols = append(symbols, p.account.Symbols()...)

	if err := p.provider.EnsureLoaded(ctx, symbols); err != nil {
		return nil, err
	}

	// Held symbols not named by the batch are auto-close candidates.
	others := make(map[string]bool)
	for _, symbol := range p.account.Symbols() {
		others[symbol] = true
	}

	// NAV is captured once so a day's percent targets share one base.
	navBase := p.account.NAV()

	result := &types.ExecutionResult{}

	for _, order := range orders {
		target, ok := p.resolveTarget(order, priceDate, navBase)
		if !ok {
			result.Append(types.OrderResult{Order: order, Success: false})

			continue
		}

		orderResult := p.account.OrderPosition(target, priceDate)
		if orderResult.Success {
			delete(others, target.Symbol)
		} else {
			p.log.Warn("order rejected",
				zap.String("symbol", target.Symbol),
				zap.Float64("quantity", target.Quantity),
				zap.String("date", types.Day(priceDate).Format(types.DateLayout)))
		}

		result.Append(orderResult)
	}

	if p.autoClose {
		closed := 0

		remaining := make([]string, 0, len(others))
		for symbol := range others {
			remaining = append(remaining, symbol)
		}

		sort.Strings(remaining)

		for _, symbol := range remaining {
			price, err := p.provider.Get(symbol, priceDate)
			if err != nil {
				return nil, err
			}

			closeResult := p.account.ClosePosition(symbol, price)
			if closeResult.Success {
				closed++
			}

			result.AppendClose(closeResult)
		}

		result.ClosedCount = optional.Some(closed)
		result.ClosedTotal = optional.Some(len(remaining))
	}

	return result, nil
}

// resolveTarget fills in the order's price from the provider when unset and
// converts percent sizing into an absolute share target.
func (p *Pod) resolveTarget(order types.Order, priceDate time.Time, navBase float64) (types.Order, bool) {
	price := order.Price

	if price.IsNone() {
		fetched, err := p.provider.Get(order.Symbol, priceDate)
		if err != nil || fetched.IsNone() {
			p.log.Warn("no price for order, skipping",
				zap.String("symbol", order.Symbol),
				zap.String("date", types.Day(priceDate).Format(types.DateLayout)))

			return order, false
		}

		price = fetched
	}

	target := types.NewOrder(order.Symbol, order.Quantity, price.Unwrap())

	if p.sizing == SizingModePercent {
		// Truncation toward zero: fractional shares are never bought.
		target.Quantity = math.Trunc(navBase * order.Quantity / price.Unwrap())
	}

	return target, true
}

// FireSkips reports skip records with no tradeable day after them, such as a
// weekend at the end of the range. Ordered skips among them are reported but
// not postponed; there is no day left to execute on.
func (p *Pod) FireSkips(skips []types.Skip) error {
	for _, skip := range skips {
		if err := p.exporters.OnSkip(skip); err != nil {
			return err
		}
	}

	return nil
}

// RunDay advances the pod through one emitted trading day: report the drained
// skips, mark holdings to market, execute postponed and scheduled batches,
// and fire the day's snapshots.
func (p *Pod) RunDay(ctx context.Context, day calendar.TradingDay) error {
	for _, skip := range day.Skips {
		if err := p.exporters.OnSkip(skip); err != nil {
			return err
		}

		if p.orderDates[types.Day(skip.Date)] {
			p.pending = append(p.pending, types.Day(skip.Date))
		}
	}

	held := p.account.Symbols()
	if len(held) > 0 {
		if err := p.provider.EnsureLoaded(ctx, held); err != nil {
			return err
		}
	}

	updated := p.markToMarket(day.Date)
	ordered := p.orderDates[types.Day(day.Date)]

	// A day on which no holding can be marked is not a trading day for this
	// account: skip it and push any scheduled orders forward.
	if len(held) > 0 && updated == 0 {
		if ordered {
			p.pending = append(p.pending, types.Day(day.Date))
		}

		return p.exporters.OnSkip(types.Skip{
			Date:    types.Day(day.Date),
			Reason:  types.SkipReasonNoTrading,
			Ordered: ordered,
		})
	}

	for _, intended := range p.pending {
		orders, err := p.orders.GetOrders(intended, p.account)
		if err != nil {
			return err
		}

		result, err := p.Execute(ctx, day.Date, orders)
		if err != nil {
			return err
		}

		snapshot := export.NewSnapshot(day.Date, optional.Some(intended), p.account, result)
		if err := p.exporters.OnSnapshot(snapshot); err != nil {
			return err
		}
	}

	p.pending = nil

	var result *types.ExecutionResult

	if ordered {
		orders, err := p.orders.GetOrders(types.Day(day.Date), p.account)
		if err != nil {
			return err
		}

		result, err = p.Execute(ctx, day.Date, orders)
		if err != nil {
			return err
		}
	}

	return p.exporters.OnSnapshot(export.NewSnapshot(day.Date, nil, p.account, result))
}

// markToMarket refreshes every holding's mark for the day and returns how
// many got a fresh data point. Holdings without one keep their last mark.
func (p *Pod) markToMarket(day time.Time) int {
	updated := 0

	for _, symbol := range p.account.Symbols() {
		if p.provider.ContainsPrices() {
			price, err := p.provider.Get(symbol, day)
			if err == nil && price.IsSome() {
				p.account.UpdateMark(symbol, price.Unwrap(), day)
				updated++

				continue
			}
		} else {
			periodReturn, err := p.provider.GetPeriodReturn(symbol, day)
			if err == nil && periodReturn.IsSome() {
				p.account.CompoundMark(symbol, periodReturn.Unwrap(), day)
				updated++

				continue
			}
		}

		p.account.KeepLastMark(symbol)
		p.log.Warn("no data point to mark holding, keeping last mark",
			zap.String("symbol", symbol),
			zap.String("date", types.Day(day).Format(types.DateLayout)))
	}

	return updated
}
