// Package priceprovider caches day-level prices and period returns for the
// simulation window, fetching each symbol from the data source at most once.
package priceprovider

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/backsim/internal/datasource"
	"github.com/rxtech-lab/backsim/internal/logger"
	"github.com/rxtech-lab/backsim/internal/types"
	"github.com/rxtech-lab/backsim/pkg/errors"
	"go.uber.org/zap"
)

// Provider serves prices and period returns from an in-memory table, batching
// fetches for symbols it has not seen before. Symbol translation happens
// exactly once at the fetch boundary: everything stored and served uses local
// symbols.
//
// When the data source serves period returns instead of prices, every return
// point gets a synthetic price of 1.0 so position marking can compound
// multiplicatively from a unit base.
type Provider struct {
	mu      sync.RWMutex
	fetchMu sync.Mutex

	prices  datasource.Table
	returns datasource.Table
	known   map[string]struct{}

	source datasource.DataSource
	mapper *datasource.SymbolMapper
	store  *CacheStore
	logger *logger.Logger

	start time.Time
	end   time.Time
}

// NewProvider builds a provider for the window [start, end]. A non-nil store
// seeds the tables from a previous run covering the same window.
func NewProvider(source datasource.DataSource, mapper *datasource.SymbolMapper, store *CacheStore, start, end time.Time, logger *logger.Logger) (*Provider, error) {
	if source == nil {
		return nil, errors.New(errors.ErrCodeNoDataSource, "price provider requires a data source")
	}

	p := &Provider{
		prices:  make(datasource.Table),
		returns: make(datasource.Table),
		known:   make(map[string]struct{}),
		source:  source,
		mapper:  mapper,
		store:   store,
		logger:  logger,
		start:   types.Day(start),
		end:     types.Day(end),
	}

	if store != nil {
		prices, returns, symbols, ok, err := store.Load(p.start, p.end)
		if err != nil {
			return nil, err
		}

		if ok {
			p.prices = prices
			p.returns = returns

			for _, symbol := range symbols {
				p.known[symbol] = struct{}{}
			}

			logger.Info("seeded price provider from cache",
				zap.Int("symbols", len(symbols)),
				zap.String("start", p.start.Format(types.DateLayout)),
				zap.String("end", p.end.Format(types.DateLayout)))
		}
	}

	return p, nil
}

// EnsureLoaded fetches history for any of the given symbols the provider has
// not seen yet. Symbols the source cannot resolve stay known with empty
// columns so they are not refetched on the next batch.
func (p *Provider) EnsureLoaded(ctx context.Context, symbols []string) error {
	p.fetchMu.Lock()
	defer p.fetchMu.Unlock()

	var missing []string

	p.mu.RLock()

	for _, symbol := range symbols {
		if _, ok := p.known[symbol]; !ok {
			missing = append(missing, symbol)
		}
	}

	p.mu.RUnlock()

	if len(missing) == 0 {
		return nil
	}

	sort.Strings(missing)

	requested := missing
	if p.mapper != nil {
		requested = p.mapper.MapAll(missing)
	}

	// Pad the window by a day on each side so the first simulated day has a
	// previous mark to derive a return from.
	fetched, err := p.source.FetchPrices(ctx, requested, types.PrevDay(p.start), types.NextDay(p.end))
	if err != nil {
		return errors.Wrapf(errors.ErrCodeFetchFailed, err, "failed to fetch %d symbols from %s", len(missing), p.source.Name())
	}

	if p.mapper != nil {
		fetched = p.mapper.UnmapTable(fetched)
	}

	p.logger.Debug("fetched price history",
		zap.Strings("symbols", missing),
		zap.String("source", p.source.Name()))

	var prices, returns datasource.Table
	if p.source.ContainsPrices() {
		prices = fetched
		returns = deriveReturns(fetched)
	} else {
		returns = fetched
		prices = unitPrices(fetched)
	}

	if err := checkAlignment(prices, returns); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.prices.Merge(prices)
	p.returns.Merge(returns)

	for _, symbol := range missing {
		p.known[symbol] = struct{}{}

		if !fetched.Has(symbol) {
			p.logger.Warn("data source returned no history for symbol",
				zap.String("symbol", symbol),
				zap.String("source", p.source.Name()))
		}
	}

	return nil
}

// Get returns the price for symbol on the given day. The symbol must have
// been through EnsureLoaded; a day with no data point returns None.
func (p *Provider) Get(symbol string, day time.Time) (optional.Option[float64], error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if _, ok := p.known[symbol]; !ok {
		return nil, errors.Newf(errors.ErrCodeUnknownSymbol, "symbol %s was never loaded", symbol)
	}

	if value, ok := p.prices.Get(symbol, day); ok {
		return optional.Some(value), nil
	}

	return optional.None[float64](), nil
}

// GetPeriodReturn returns the one-period return for symbol on the given day.
func (p *Provider) GetPeriodReturn(symbol string, day time.Time) (optional.Option[float64], error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if _, ok := p.known[symbol]; !ok {
		return nil, errors.Newf(errors.ErrCodeUnknownSymbol, "symbol %s was never loaded", symbol)
	}

	if value, ok := p.returns.Get(symbol, day); ok {
		return optional.Some(value), nil
	}

	return optional.None[float64](), nil
}

// Symbols returns the sorted set of symbols that have been loaded.
func (p *Provider) Symbols() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	symbols := make([]string, 0, len(p.known))
	for symbol := range p.known {
		symbols = append(symbols, symbol)
	}

	sort.Strings(symbols)

	return symbols
}

// IsCloseable reports whether the underlying market has closing days.
func (p *Provider) IsCloseable() bool {
	return p.source.IsCloseable()
}

// ContainsPrices reports whether served prices are real or the unit base used
// in returns mode.
func (p *Provider) ContainsPrices() bool {
	return p.source.ContainsPrices()
}

// Persist writes the current tables to the cache store, if one is attached.
func (p *Provider) Persist() error {
	if p.store == nil {
		return nil
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.store.Save(p.start, p.end, p.prices, p.returns)
}

// deriveReturns computes each day's return against the previous available
// data point per symbol, so a Monday close is measured against Friday's.
// The first data point of a column gets no return point.
func deriveReturns(prices datasource.Table) datasource.Table {
	returns := make(datasource.Table)

	for symbol, column := range prices {
		if _, ok := returns[symbol]; !ok {
			returns[symbol] = make(map[time.Time]float64)
		}

		days := make([]time.Time, 0, len(column))
		for day := range column {
			days = append(days, day)
		}

		sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

		for i := 1; i < len(days); i++ {
			previous := column[days[i-1]]
			if previous == 0 {
				continue
			}

			returns[symbol][days[i]] = column[days[i]]/previous - 1
		}
	}

	return returns
}

// unitPrices gives every return point a price of 1.0.
func unitPrices(returns datasource.Table) datasource.Table {
	prices := make(datasource.Table)

	for symbol, column := range returns {
		prices[symbol] = make(map[time.Time]float64, len(column))
		for day := range column {
			prices[symbol][day] = 1.0
		}
	}

	return prices
}

// checkAlignment verifies every return point has a price point on the same
// day. A violation means marking and compounding would disagree about which
// days the symbol traded.
func checkAlignment(prices, returns datasource.Table) error {
	for symbol, column := range returns {
		for day := range column {
			if _, ok := prices.Get(symbol, day); !ok {
				return errors.Newf(errors.ErrCodeReturnsMisaligned,
					"symbol %s has a return but no price on %s", symbol, day.Format(types.DateLayout))
			}
		}
	}

	return nil
}
