package datasource

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type DataSourceTestSuite struct {
	suite.Suite
}

func TestDataSourceSuite(t *testing.T) {
	suite.Run(t, new(DataSourceTestSuite))
}

func day(year int, month time.Month, dayOfMonth int) time.Time {
	return time.Date(year, month, dayOfMonth, 0, 0, 0, 0, time.UTC)
}

// staticSource serves a fixed table restricted to the requested symbols.
type staticSource struct {
	name      string
	table     Table
	closeable bool
}

func (s *staticSource) FetchPrices(_ context.Context, symbols []string, _, _ time.Time) (Table, error) {
	result := make(Table)

	for _, symbol := range symbols {
		if column, ok := s.table[symbol]; ok {
			result[symbol] = column
		}
	}

	return result, nil
}

func (s *staticSource) IsCloseable() bool    { return s.closeable }
func (s *staticSource) ContainsPrices() bool { return true }
func (s *staticSource) Name() string         { return s.name }

func (suite *DataSourceTestSuite) TestTableSetGet() {
	table := make(Table)
	table.Set("AAPL", day(2023, time.March, 6), 2)

	value, ok := table.Get("AAPL", day(2023, time.March, 6))
	suite.True(ok)
	suite.Equal(2.0, value)

	_, ok = table.Get("AAPL", day(2023, time.March, 7))
	suite.False(ok)

	_, ok = table.Get("MSFT", day(2023, time.March, 6))
	suite.False(ok)
}

func (suite *DataSourceTestSuite) TestTableMergeKeepsExisting() {
	table := make(Table)
	table.Set("AAPL", day(2023, time.March, 6), 2)

	other := make(Table)
	other.Set("AAPL", day(2023, time.March, 6), 99)
	other.Set("AAPL", day(2023, time.March, 7), 3)
	other.Set("MSFT", day(2023, time.March, 6), 10)

	table.Merge(other)

	value, _ := table.Get("AAPL", day(2023, time.March, 6))
	suite.Equal(2.0, value)

	value, _ = table.Get("AAPL", day(2023, time.March, 7))
	suite.Equal(3.0, value)

	value, _ = table.Get("MSFT", day(2023, time.March, 6))
	suite.Equal(10.0, value)
}

func (suite *DataSourceTestSuite) TestSymbolMapper() {
	mapper := NewSymbolMapper()
	mapper.Add("BTC", "BTCUSDT")

	suite.Equal("BTCUSDT", mapper.Map("BTC"))
	suite.Equal("BTC", mapper.Unmap("BTCUSDT"))
	suite.Equal("AAPL", mapper.Map("AAPL"))
	suite.Equal("AAPL", mapper.Unmap("AAPL"))

	suite.Equal([]string{"BTCUSDT", "AAPL"}, mapper.MapAll([]string{"BTC", "AAPL"}))

	table := make(Table)
	table.Set("BTCUSDT", day(2023, time.March, 6), 20000)

	unmapped := mapper.UnmapTable(table)
	suite.True(unmapped.Has("BTC"))
	suite.False(unmapped.Has("BTCUSDT"))
}

func (suite *DataSourceTestSuite) TestSymbolMapperFromFile() {
	path := filepath.Join(suite.T().TempDir(), "mapping.json")
	suite.NoError(os.WriteFile(path, []byte(`{"BTC": "BTCUSDT"}`), 0o644))

	mapper, err := NewSymbolMapperFromFile(path)
	suite.NoError(err)
	suite.Equal("BTCUSDT", mapper.Map("BTC"))

	suite.NoError(os.WriteFile(path, []byte(`["not", "an", "object"]`), 0o644))
	_, err = NewSymbolMapperFromFile(path)
	suite.Error(err)
}

func (suite *DataSourceTestSuite) TestDelegateFallsThrough() {
	first := &staticSource{name: "first", table: make(Table), closeable: true}
	first.table.Set("AAPL", day(2023, time.March, 6), 2)

	second := &staticSource{name: "second", table: make(Table), closeable: true}
	second.table.Set("MSFT", day(2023, time.March, 6), 10)

	delegate := NewDelegateDataSource(first, second)

	table, err := delegate.FetchPrices(context.Background(), []string{"AAPL", "MSFT", "GONE"}, day(2023, time.March, 1), day(2023, time.March, 10))
	suite.NoError(err)

	value, _ := table.Get("AAPL", day(2023, time.March, 6))
	suite.Equal(2.0, value)

	value, _ = table.Get("MSFT", day(2023, time.March, 6))
	suite.Equal(10.0, value)

	// Unresolvable symbols end up absent, not erroring.
	suite.False(table.Has("GONE"))

	suite.True(delegate.IsCloseable())
	suite.Equal("delegate[first,second]", delegate.Name())
}

func (suite *DataSourceTestSuite) TestDelegateCloseableWhenAnyDelegateIs() {
	open := &staticSource{name: "crypto", table: make(Table), closeable: false}
	suite.False(NewDelegateDataSource(open).IsCloseable())
	suite.True(NewDelegateDataSource(open, &staticSource{name: "equities", table: make(Table), closeable: true}).IsCloseable())
}

func (suite *DataSourceTestSuite) TestCSVDataSource() {
	path := filepath.Join(suite.T().TempDir(), "prices.csv")
	content := "date,symbol,price\n" +
		"2023-03-06,AAPL,2\n" +
		"2023-03-07,AAPL,2.5\n" +
		"2023-03-06,MSFT,10\n" +
		"2023-03-06,IGNORED,1\n" +
		"2023-04-01,AAPL,3\n" +
		"2023-03-08,AAPL,\n"
	suite.NoError(os.WriteFile(path, []byte(content), 0o644))

	source := NewCSVDataSource(path)
	suite.True(source.IsCloseable())
	suite.True(source.ContainsPrices())
	suite.Equal("csv", source.Name())

	table, err := source.FetchPrices(context.Background(), []string{"AAPL", "MSFT"}, day(2023, time.March, 1), day(2023, time.March, 10))
	suite.NoError(err)

	value, ok := table.Get("AAPL", day(2023, time.March, 6))
	suite.True(ok)
	suite.Equal(2.0, value)

	value, ok = table.Get("MSFT", day(2023, time.March, 6))
	suite.True(ok)
	suite.Equal(10.0, value)

	// Not requested.
	suite.False(table.Has("IGNORED"))

	// Outside the window.
	_, ok = table.Get("AAPL", day(2023, time.April, 1))
	suite.False(ok)

	// Empty cell is a missing point.
	_, ok = table.Get("AAPL", day(2023, time.March, 8))
	suite.False(ok)
}

func (suite *DataSourceTestSuite) TestCSVDataSourceBadHeader() {
	path := filepath.Join(suite.T().TempDir(), "prices.csv")
	suite.NoError(os.WriteFile(path, []byte("when,what,how\n"), 0o644))

	source := NewCSVDataSource(path)
	_, err := source.FetchPrices(context.Background(), []string{"AAPL"}, day(2023, time.March, 1), day(2023, time.March, 10))
	suite.Error(err)
}
