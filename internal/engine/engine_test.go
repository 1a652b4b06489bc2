package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rxtech-lab/backsim/internal/account"
	"github.com/rxtech-lab/backsim/internal/calendar"
	"github.com/rxtech-lab/backsim/internal/datasource"
	"github.com/rxtech-lab/backsim/internal/export"
	"github.com/rxtech-lab/backsim/internal/logger"
	"github.com/rxtech-lab/backsim/internal/orderprovider"
	"github.com/rxtech-lab/backsim/internal/priceprovider"
	"github.com/rxtech-lab/backsim/internal/types"
	"github.com/stretchr/testify/suite"
)

type EngineTestSuite struct {
	suite.Suite
	logger *logger.Logger
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}

func (suite *EngineTestSuite) SetupSuite() {
	suite.logger = logger.NewNopLogger()
}

func day(year int, month time.Month, dayOfMonth int) time.Time {
	return time.Date(year, month, dayOfMonth, 0, 0, 0, 0, time.UTC)
}

// staticSource serves a fixed table restricted to the requested symbols.
type staticSource struct {
	table     datasource.Table
	prices    bool
	closeable bool
}

func (s *staticSource) FetchPrices(_ context.Context, symbols []string, _, _ time.Time) (datasource.Table, error) {
	result := make(datasource.Table)

	for _, symbol := range symbols {
		if column, ok := s.table[symbol]; ok {
			result[symbol] = column
		}
	}

	return result, nil
}

func (s *staticSource) IsCloseable() bool    { return s.closeable }
func (s *staticSource) ContainsPrices() bool { return s.prices }
func (s *staticSource) Name() string         { return "static" }

// recordingExporter captures the stream for assertions.
type recordingExporter struct {
	initialized bool
	finalized   bool
	skips       []types.Skip
	snapshots   []types.Snapshot
}

func (e *recordingExporter) Initialize() error {
	e.initialized = true

	return nil
}

func (e *recordingExporter) OnSkip(skip types.Skip) error {
	e.skips = append(e.skips, skip)

	return nil
}

func (e *recordingExporter) OnSnapshot(snapshot types.Snapshot) error {
	e.snapshots = append(e.snapshots, snapshot)

	return nil
}

func (e *recordingExporter) Finalize() error {
	e.finalized = true

	return nil
}

func (suite *EngineTestSuite) newProvider(source datasource.DataSource, start, end time.Time) *priceprovider.Provider {
	provider, err := priceprovider.NewProvider(source, nil, nil, start, end, suite.logger)
	suite.Require().NoError(err)

	return provider
}

func (suite *EngineTestSuite) TestExecuteShareSizing() {
	source := &staticSource{table: make(datasource.Table), prices: true, closeable: true}
	source.table.Set("AAPL", day(2023, time.March, 6), 2)

	provider := suite.newProvider(source, day(2023, time.March, 6), day(2023, time.March, 10))
	acc := account.NewAccount(1000, nil, suite.logger)
	orders := orderprovider.NewMemoryOrderProvider()
	pod := NewPod(acc, provider, orders, nil, SizingModeShares, false, suite.logger)

	result, err := pod.Execute(context.Background(), day(2023, time.March, 6), []types.Order{
		{Symbol: "AAPL", Quantity: 10},
	})
	suite.NoError(err)
	suite.Equal(1, result.SuccessCount())

	holding, ok := acc.FindHolding("AAPL")
	suite.True(ok)
	suite.Equal(10.0, holding.Quantity)
	suite.Equal(2.0, holding.Price)
	suite.Equal(980.0, acc.Cash())
}

func (suite *EngineTestSuite) TestExecutePercentSizingTruncates() {
	source := &staticSource{table: make(datasource.Table), prices: true, closeable: true}
	source.table.Set("AAPL", day(2023, time.March, 6), 3)

	provider := suite.newProvider(source, day(2023, time.March, 6), day(2023, time.March, 10))
	acc := account.NewAccount(1000, nil, suite.logger)
	pod := NewPod(acc, provider, orderprovider.NewMemoryOrderProvider(), nil, SizingModePercent, false, suite.logger)

	result, err := pod.Execute(context.Background(), day(2023, time.March, 6), []types.Order{
		{Symbol: "AAPL", Quantity: 0.5},
	})
	suite.NoError(err)
	suite.Equal(1, result.SuccessCount())

	// trunc(1000 * 0.5 / 3) = 166 shares, never 166.67.
	holding, _ := acc.FindHolding("AAPL")
	suite.Equal(166.0, holding.Quantity)
}

func (suite *EngineTestSuite) TestExecuteMissingPriceSkipsOrder() {
	source := &staticSource{table: make(datasource.Table), prices: true, closeable: true}
	source.table.Set("AAPL", day(2023, time.March, 6), 2)

	provider := suite.newProvider(source, day(2023, time.March, 6), day(2023, time.March, 10))
	acc := account.NewAccount(1000, nil, suite.logger)
	pod := NewPod(acc, provider, orderprovider.NewMemoryOrderProvider(), nil, SizingModeShares, false, suite.logger)

	result, err := pod.Execute(context.Background(), day(2023, time.March, 6), []types.Order{
		{Symbol: "GONE", Quantity: 10},
		{Symbol: "AAPL", Quantity: 10},
	})
	suite.NoError(err)

	// One bad order never aborts the batch.
	suite.Equal(1, result.FailedCount())
	suite.Equal(1, result.SuccessCount())
	suite.Equal(980.0, acc.Cash())
}

func (suite *EngineTestSuite) TestExecuteAutoClose() {
	source := &staticSource{table: make(datasource.Table), prices: true, closeable: true}
	source.table.Set("AAPL", day(2023, time.March, 6), 2)
	source.table.Set("AAPL", day(2023, time.March, 7), 2)
	source.table.Set("MSFT", day(2023, time.March, 6), 10)

	provider := suite.newProvider(source, day(2023, time.March, 6), day(2023, time.March, 10))
	acc := account.NewAccount(1000, nil, suite.logger)
	pod := NewPod(acc, provider, orderprovider.NewMemoryOrderProvider(), nil, SizingModeShares, true, suite.logger)

	_, err := pod.Execute(context.Background(), day(2023, time.March, 6), []types.Order{
		{Symbol: "AAPL", Quantity: 10},
		{Symbol: "MSFT", Quantity: 5},
	})
	suite.NoError(err)

	// Next day the batch names only AAPL; MSFT gets auto-closed. It has no
	// price on the 7th, so the close falls back to its last mark.
	acc.UpdateMark("AAPL", 2, day(2023, time.March, 7))
	acc.KeepLastMark("MSFT")

	result, err := pod.Execute(context.Background(), day(2023, time.March, 7), []types.Order{
		{Symbol: "AAPL", Quantity: 10},
	})
	suite.NoError(err)

	suite.Equal(1, result.ClosedCount.Unwrap())
	suite.Equal(1, result.ClosedTotal.Unwrap())
	suite.Equal(1, result.PriceFallbacks())

	_, held := acc.FindHolding("MSFT")
	suite.False(held)
	// 1000 - 20 - 50 + 50 back from the close at the 10.0 mark.
	suite.Equal(980.0, acc.Cash())
}

func (suite *EngineTestSuite) TestBacktestPostponesWeekendOrders() {
	source := &staticSource{table: make(datasource.Table), prices: true, closeable: true}
	source.table.Set("AAPL", day(2023, time.March, 3), 2)
	source.table.Set("AAPL", day(2023, time.March, 6), 3)
	source.table.Set("AAPL", day(2023, time.March, 7), 4)

	provider := suite.newProvider(source, day(2023, time.March, 3), day(2023, time.March, 8))

	orders := orderprovider.NewMemoryOrderProvider()
	orders.Add(day(2023, time.March, 4), types.Order{Symbol: "AAPL", Quantity: 10})
	orders.Add(day(2023, time.March, 7), types.Order{Symbol: "AAPL", Quantity: 20})

	exporter := &recordingExporter{}
	acc := account.NewAccount(1000, nil, suite.logger)
	pod := NewPod(acc, provider, orders, export.Collection{exporter}, SizingModeShares, false, suite.logger)

	backtester, err := NewSimpleBacktester(pod, provider, calendar.Config{
		Start: day(2023, time.March, 3),
		End:   day(2023, time.March, 8),
	}, suite.logger)
	suite.NoError(err)
	suite.NoError(backtester.Run(context.Background()))

	suite.True(exporter.initialized)
	suite.True(exporter.finalized)

	// Saturday's order is skipped with ordered=true, Sunday without.
	suite.Require().Len(exporter.skips, 3)
	suite.Equal(types.SkipReasonWeekend, exporter.skips[0].Reason)
	suite.Equal(day(2023, time.March, 4), exporter.skips[0].Date)
	suite.True(exporter.skips[0].Ordered)
	suite.False(exporter.skips[1].Ordered)

	// The 8th has a holding but no data point, so it is a no-trading skip.
	suite.Equal(types.SkipReasonNoTrading, exporter.skips[2].Reason)
	suite.Equal(day(2023, time.March, 8), exporter.skips[2].Date)

	// Friday, the drained postponement, Monday itself, Tuesday.
	suite.Require().Len(exporter.snapshots, 4)

	suite.Equal(day(2023, time.March, 3), exporter.snapshots[0].Date)
	suite.False(exporter.snapshots[0].Ordered)

	// Saturday's order executes on Monday at Monday's price of 3, not
	// Saturday's, and reports both dates.
	postponed := exporter.snapshots[1]
	suite.Equal(day(2023, time.March, 6), postponed.Date)
	suite.Equal(day(2023, time.March, 4), postponed.RealDate())
	suite.True(postponed.Ordered)
	suite.Equal(970.0, postponed.Cash)
	suite.Equal(1000.0, postponed.NAV)

	suite.Equal(day(2023, time.March, 6), exporter.snapshots[2].Date)
	suite.True(exporter.snapshots[2].Postponed.IsNone())

	// Tuesday: mark to 4 first (NAV 970+40), then top up to the 20-share target.
	tuesday := exporter.snapshots[3]
	suite.Equal(day(2023, time.March, 7), tuesday.Date)
	suite.True(tuesday.Ordered)
	suite.Equal(930.0, tuesday.Cash)
	suite.Equal(80.0, tuesday.Equity)
	suite.Equal(1010.0, tuesday.NAV)
}

func (suite *EngineTestSuite) TestBacktestReturnsMode() {
	source := &staticSource{table: make(datasource.Table), prices: false}
	source.table.Set("FUND", day(2023, time.March, 6), 0.0)
	source.table.Set("FUND", day(2023, time.March, 7), 0.10)

	provider := suite.newProvider(source, day(2023, time.March, 6), day(2023, time.March, 7))

	orders := orderprovider.NewMemoryOrderProvider()
	orders.Add(day(2023, time.March, 6), types.Order{Symbol: "FUND", Quantity: 100})

	exporter := &recordingExporter{}
	acc := account.NewAccount(1000, nil, suite.logger)
	pod := NewPod(acc, provider, orders, export.Collection{exporter}, SizingModeShares, false, suite.logger)

	backtester, err := NewSimpleBacktester(pod, provider, calendar.Config{
		Start: day(2023, time.March, 6),
		End:   day(2023, time.March, 7),
	}, suite.logger)
	suite.NoError(err)
	suite.NoError(backtester.Run(context.Background()))

	// 100 units at the unit price, compounded by +10% the next day.
	suite.Require().Len(exporter.snapshots, 2)
	suite.InDelta(110.0, exporter.snapshots[1].Equity, 1e-9)
	suite.InDelta(1010.0, exporter.snapshots[1].NAV, 1e-9)
}

func (suite *EngineTestSuite) TestBacktestReportsTrailingWeekendSkips() {
	source := &staticSource{table: make(datasource.Table), prices: true, closeable: true}
	source.table.Set("AAPL", day(2023, time.March, 2), 2)
	source.table.Set("AAPL", day(2023, time.March, 3), 2)

	provider := suite.newProvider(source, day(2023, time.March, 2), day(2023, time.March, 5))

	orders := orderprovider.NewMemoryOrderProvider()
	orders.Add(day(2023, time.March, 2), types.Order{Symbol: "AAPL", Quantity: 10})
	orders.Add(day(2023, time.March, 4), types.Order{Symbol: "AAPL", Quantity: 20})

	exporter := &recordingExporter{}
	acc := account.NewAccount(1000, nil, suite.logger)
	pod := NewPod(acc, provider, orders, export.Collection{exporter}, SizingModeShares, false, suite.logger)

	// The range ends on a Sunday, so Saturday's order has no day left to
	// execute on; the weekend is still reported skip by skip.
	backtester, err := NewSimpleBacktester(pod, provider, calendar.Config{
		Start: day(2023, time.March, 2),
		End:   day(2023, time.March, 5),
	}, suite.logger)
	suite.NoError(err)
	suite.NoError(backtester.Run(context.Background()))

	suite.Require().Len(exporter.skips, 2)

	suite.Equal(day(2023, time.March, 4), exporter.skips[0].Date)
	suite.Equal(types.SkipReasonWeekend, exporter.skips[0].Reason)
	suite.True(exporter.skips[0].Ordered)

	suite.Equal(day(2023, time.March, 5), exporter.skips[1].Date)
	suite.False(exporter.skips[1].Ordered)

	// Thursday and Friday still snapshot as usual.
	suite.Require().Len(exporter.snapshots, 2)
	suite.True(exporter.finalized)
}

func (suite *EngineTestSuite) TestParallelBacktester() {
	source := &staticSource{table: make(datasource.Table), prices: true, closeable: true}
	source.table.Set("AAPL", day(2023, time.March, 6), 2)
	source.table.Set("MSFT", day(2023, time.March, 6), 10)

	provider := suite.newProvider(source, day(2023, time.March, 6), day(2023, time.March, 6))

	var configs []PodConfig

	exporters := make([]*recordingExporter, 4)

	for i := range exporters {
		exporters[i] = &recordingExporter{}

		orders := orderprovider.NewMemoryOrderProvider()
		symbol := "AAPL"

		if i%2 == 1 {
			symbol = "MSFT"
		}

		orders.Add(day(2023, time.March, 6), types.Order{Symbol: symbol, Quantity: float64(i + 1)})

		configs = append(configs, PodConfig{
			InitialCash: 1000,
			Orders:      orders,
			Exporters:   export.Collection{exporters[i]},
		})
	}

	backtester, err := NewParallelBacktesterFromConfigs(configs, provider, SizingModeShares, false, calendar.Config{
		Start: day(2023, time.March, 6),
		End:   day(2023, time.March, 6),
	}, suite.logger)
	suite.NoError(err)
	suite.NoError(backtester.Run(context.Background()))

	for i, exporter := range exporters {
		suite.Require().Len(exporter.snapshots, 1)
		suite.True(exporter.snapshots[0].Ordered)
		suite.Equal(1, exporter.snapshots[0].SuccessCount)
		suite.Equal(1000.0, exporter.snapshots[0].NAV)
		suite.Equal(1, exporter.snapshots[0].HoldingCount())

		holding := exporter.snapshots[0].Holdings[0]
		suite.Equal(float64(i+1), holding.Quantity)
	}
}

func (suite *EngineTestSuite) TestParseConfig() {
	content := []byte(`
initial_cash: 1000000
start_date: "2023-03-06"
end_date: "2023-03-10"
sizing: percent
auto_close: true
orders_path: orders.csv
data_sources:
  - type: csv
    path: prices.csv
fee:
  model: constant
  amount: 1.5
export:
  console: true
`)

	config, err := ParseConfig(content)
	suite.NoError(err)
	suite.Equal(1_000_000.0, config.InitialCash)
	suite.Equal(SizingModePercent, config.Sizing)
	suite.True(config.AutoClose)
	suite.Equal(day(2023, time.March, 6), config.Start())
	suite.Equal("text", config.Export.ConsoleFormat)
}

func (suite *EngineTestSuite) TestParseConfigErrors() {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "missing initial cash",
			content: "start_date: \"2023-03-06\"\nend_date: \"2023-03-10\"\nsizing: shares\norders_path: o.csv\ndata_sources:\n  - type: csv\n    path: p.csv\n",
		},
		{
			name:    "end before start",
			content: "initial_cash: 1000\nstart_date: \"2023-03-10\"\nend_date: \"2023-03-06\"\nsizing: shares\norders_path: o.csv\ndata_sources:\n  - type: csv\n    path: p.csv\n",
		},
		{
			name:    "csv source without path",
			content: "initial_cash: 1000\nstart_date: \"2023-03-06\"\nend_date: \"2023-03-10\"\nsizing: shares\norders_path: o.csv\ndata_sources:\n  - type: csv\n",
		},
		{
			name:    "polygon without key",
			content: "initial_cash: 1000\nstart_date: \"2023-03-06\"\nend_date: \"2023-03-10\"\nsizing: shares\norders_path: o.csv\ndata_sources:\n  - type: polygon\n",
		},
		{
			name:    "bad sizing mode",
			content: "initial_cash: 1000\nstart_date: \"2023-03-06\"\nend_date: \"2023-03-10\"\nsizing: lots\norders_path: o.csv\ndata_sources:\n  - type: csv\n    path: p.csv\n",
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			_, err := ParseConfig([]byte(tt.content))
			suite.Error(err)
		})
	}
}

func (suite *EngineTestSuite) TestGenerateSchemaJSON() {
	config := &BacktestConfig{}

	schema, err := config.GenerateSchemaJSON()
	suite.NoError(err)
	suite.Contains(schema, "initial_cash")
	suite.Contains(schema, "data_sources")
}

func (suite *EngineTestSuite) TestNewBacktesterFromConfig() {
	dir := suite.T().TempDir()

	ordersPath := filepath.Join(dir, "orders.csv")
	suite.NoError(os.WriteFile(ordersPath, []byte("date,symbol,quantity\n2023-03-06,AAPL,10\n"), 0o644))

	pricesPath := filepath.Join(dir, "prices.csv")
	suite.NoError(os.WriteFile(pricesPath, []byte("date,symbol,price\n2023-03-06,AAPL,2\n"), 0o644))

	config := TestConfig(day(2023, time.March, 6), day(2023, time.March, 6), ordersPath, pricesPath)
	config.CachePath = filepath.Join(dir, "cache.duckdb")

	backtester, closer, err := NewBacktesterFromConfig(config, suite.logger)
	suite.NoError(err)

	defer closer()

	suite.NoError(backtester.Run(context.Background()))
	suite.Equal(980.0, backtester.pod.account.Cash())
}

func (suite *EngineTestSuite) TestBacktesterRequiresOrderDates() {
	source := &staticSource{table: make(datasource.Table), prices: true}
	provider := suite.newProvider(source, day(2023, time.March, 6), day(2023, time.March, 7))

	acc := account.NewAccount(1000, nil, suite.logger)
	pod := NewPod(acc, provider, orderprovider.NewMemoryOrderProvider(), nil, SizingModeShares, false, suite.logger)

	_, err := NewSimpleBacktester(pod, provider, calendar.Config{
		Start: day(2023, time.March, 6),
		End:   day(2023, time.March, 7),
	}, suite.logger)
	suite.Error(err)
}
