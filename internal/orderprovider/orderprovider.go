// Package orderprovider supplies the order schedule driving a simulation.
package orderprovider

import (
	"sort"
	"time"

	"github.com/rxtech-lab/backsim/internal/types"
)

// AccountView is the read-only ledger state a provider may size orders from.
type AccountView interface {
	Cash() float64
	NAV() float64
	Symbols() []string
	FindHolding(symbol string) (types.Holding, bool)
}

// OrderProvider yields orders for the dates it knows about. GetDates drives
// the calendar; GetOrders is called once per emitted trading day with the
// originally scheduled date, even when execution was postponed.
type OrderProvider interface {
	GetDates() []time.Time
	GetOrders(date time.Time, account AccountView) ([]types.Order, error)
}

// MemoryOrderProvider serves a fixed in-memory schedule.
type MemoryOrderProvider struct {
	orders map[time.Time][]types.Order
}

func NewMemoryOrderProvider() *MemoryOrderProvider {
	return &MemoryOrderProvider{
		orders: make(map[time.Time][]types.Order),
	}
}

func (p *MemoryOrderProvider) Add(date time.Time, orders ...types.Order) {
	day := types.Day(date)
	p.orders[day] = append(p.orders[day], orders...)
}

func (p *MemoryOrderProvider) GetDates() []time.Time {
	dates := make([]time.Time, 0, len(p.orders))
	for date := range p.orders {
		dates = append(dates, date)
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	return dates
}

func (p *MemoryOrderProvider) GetOrders(date time.Time, _ AccountView) ([]types.Order, error) {
	return p.orders[types.Day(date)], nil
}
