package datasource

import (
	"context"
	"strings"
	"time"
)

// DelegateDataSource chains several sources: each delegate is asked only for
// the symbols the previous ones could not resolve, and the partial tables are
// outer-joined. Symbols no delegate resolves simply stay absent.
type DelegateDataSource struct {
	delegates []DataSource
}

func NewDelegateDataSource(delegates ...DataSource) DataSource {
	return &DelegateDataSource{delegates: delegates}
}

// FetchPrices implements DataSource.
func (d *DelegateDataSource) FetchPrices(ctx context.Context, symbols []string, start, end time.Time) (Table, error) {
	prices := make(Table)

	for _, delegate := range d.delegates {
		remaining := remainingSymbols(symbols, prices)
		if len(remaining) == 0 {
			break
		}

		fetched, err := delegate.FetchPrices(ctx, remaining, start, end)
		if err != nil {
			return nil, err
		}

		// Drop columns with no data point so the next delegate gets a chance
		// at those symbols.
		for symbol, column := range fetched {
			if len(column) == 0 {
				delete(fetched, symbol)
			}
		}

		prices.Merge(fetched)
	}

	return prices, nil
}

// IsCloseable implements DataSource. A chain is closeable unless every
// delegate trades around the clock.
func (d *DelegateDataSource) IsCloseable() bool {
	for _, delegate := range d.delegates {
		if delegate.IsCloseable() {
			return true
		}
	}

	return false
}

// ContainsPrices implements DataSource. Mixing price and returns sources in
// one chain is unsupported; the first delegate decides.
func (d *DelegateDataSource) ContainsPrices() bool {
	if len(d.delegates) == 0 {
		return true
	}

	return d.delegates[0].ContainsPrices()
}

// Name implements DataSource.
func (d *DelegateDataSource) Name() string {
	names := make([]string, len(d.delegates))
	for i, delegate := range d.delegates {
		names[i] = delegate.Name()
	}

	return "delegate[" + strings.Join(names, ",") + "]"
}

func remainingSymbols(symbols []string, prices Table) []string {
	var remaining []string

	for _, symbol := range symbols {
		if !prices.Has(symbol) {
			remaining = append(remaining, symbol)
		}
	}

	return remaining
}
