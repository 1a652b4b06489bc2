package datasource

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/rxtech-lab/backsim/internal/types"
	"github.com/rxtech-lab/backsim/pkg/errors"
)

// CSVDataSource serves values from a long-format CSV file with a
// date,symbol,price header. Rows outside the requested window or for symbols
// not requested are ignored, so one file can back many runs.
type CSVDataSource struct {
	path      string
	closeable bool
	// prices is false when the file carries period returns.
	prices bool
}

func NewCSVDataSource(path string) DataSource {
	return &CSVDataSource{
		path:      path,
		closeable: true,
		prices:    true,
	}
}

// NewCSVReturnsDataSource reads a CSV of period returns instead of prices.
func NewCSVReturnsDataSource(path string) DataSource {
	return &CSVDataSource{
		path:      path,
		closeable: true,
		prices:    false,
	}
}

// FetchPrices implements DataSource.
func (s *CSVDataSource) FetchPrices(ctx context.Context, symbols []string, start, end time.Time) (Table, error) {
	file, err := os.Open(s.path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeFetchFailed, err, "failed to open %s", s.path)
	}
	defer file.Close()

	requested := make(map[string]bool, len(symbols))
	for _, symbol := range symbols {
		requested[symbol] = true
	}

	startDay := types.Day(start)
	endDay := types.Day(end)

	reader := csv.NewReader(file)

	header, err := reader.Read()
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeParseFailed, err, "failed to read header of %s", s.path)
	}

	dateCol, symbolCol, valueCol, err := resolveColumns(header)
	if err != nil {
		return nil, err
	}

	table := make(Table)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeParseFailed, err, "malformed row in %s", s.path)
		}

		symbol := record[symbolCol]
		if !requested[symbol] {
			continue
		}

		day, err := time.Parse(types.DateLayout, record[dateCol])
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeParseFailed, err, "bad date %q in %s", record[dateCol], s.path)
		}

		day = types.Day(day)
		if day.Before(startDay) || day.After(endDay) {
			continue
		}

		// Empty cells are missing data points, not zeros.
		if record[valueCol] == "" {
			continue
		}

		value, err := strconv.ParseFloat(record[valueCol], 64)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeParseFailed, err, "bad value %q in %s", record[valueCol], s.path)
		}

		table.Set(symbol, day, value)
	}

	return table, nil
}

// IsCloseable implements DataSource.
func (s *CSVDataSource) IsCloseable() bool {
	return s.closeable
}

// ContainsPrices implements DataSource.
func (s *CSVDataSource) ContainsPrices() bool {
	return s.prices
}

// Name implements DataSource.
func (s *CSVDataSource) Name() string {
	return "csv"
}

func resolveColumns(header []string) (dateCol, symbolCol, valueCol int, err error) {
	dateCol, symbolCol, valueCol = -1, -1, -1

	for i, name := range header {
		switch name {
		case "date":
			dateCol = i
		case "symbol":
			symbolCol = i
		case "price", "value", "return":
			valueCol = i
		}
	}

	if dateCol < 0 || symbolCol < 0 || valueCol < 0 {
		return 0, 0, 0, errors.Newf(errors.ErrCodeParseFailed,
			"csv header must contain date, symbol and price/value columns, got %v", header)
	}

	return dateCol, symbolCol, valueCol, nil
}
