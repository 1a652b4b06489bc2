// Package datasource defines the external market-data boundary of the
// simulation and the sources that implement it.
package datasource

import (
	"context"
	"time"

	"github.com/rxtech-lab/backsim/internal/types"
)

// Table is a sparse symbol -> day -> value map. Absent entries mean "no data
// point", never zero.
type Table map[string]map[time.Time]float64

func (t Table) Set(symbol string, day time.Time, value float64) {
	column, ok := t[symbol]
	if !ok {
		column = make(map[time.Time]float64)
		t[symbol] = column
	}

	column[types.Day(day)] = value
}

func (t Table) Get(symbol string, day time.Time) (float64, bool) {
	column, ok := t[symbol]
	if !ok {
		return 0, false
	}

	value, ok := column[types.Day(day)]

	return value, ok
}

// Has reports whether the table carries a column for symbol, even an empty one.
func (t Table) Has(symbol string) bool {
	_, ok := t[symbol]

	return ok
}

// Merge outer-joins another table into this one. Existing data points win so
// a merge cannot silently rewrite already-cached history.
func (t Table) Merge(other Table) {
	for symbol, column := range other {
		if _, ok := t[symbol]; !ok {
			t[symbol] = make(map[time.Time]float64, len(column))
		}

		for day, value := range column {
			if _, ok := t[symbol][day]; !ok {
				t[symbol][day] = value
			}
		}
	}
}

// DataSource supplies historical day-level values for a set of symbols.
// Implementations must tolerate unresolvable symbols by returning an absent
// (or empty) column, not an error: one unknown symbol must not fail a batch.
type DataSource interface {
	// FetchPrices returns a table covering [start, end] for the symbols it
	// can resolve.
	FetchPrices(ctx context.Context, symbols []string, start, end time.Time) (Table, error)
	// IsCloseable reports whether the market has closing days. Crypto
	// sources return false: they trade every day of the year.
	IsCloseable() bool
	// ContainsPrices is false for sources that serve period returns instead
	// of absolute prices.
	ContainsPrices() bool
	Name() string
}
