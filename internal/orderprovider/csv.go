package orderprovider

import (
	"encoding/csv"
	"io"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/rxtech-lab/backsim/internal/types"
	"github.com/rxtech-lab/backsim/pkg/errors"
)

// CSVOrderProvider reads a long-format schedule with a date,symbol,quantity
// header and an optional price column. An empty price cell leaves the order
// unpriced so the runner fills it with the day's market price.
type CSVOrderProvider struct {
	orders map[time.Time][]types.Order
}

func NewCSVOrderProvider(path string) (*CSVOrderProvider, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeParseFailed, err, "failed to open %s", path)
	}
	defer file.Close()

	reader := csv.NewReader(file)

	header, err := reader.Read()
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeParseFailed, err, "failed to read header of %s", path)
	}

	dateCol, symbolCol, quantityCol, priceCol := -1, -1, -1, -1

	for i, name := range header {
		switch name {
		case "date":
			dateCol = i
		case "symbol":
			symbolCol = i
		case "quantity":
			quantityCol = i
		case "price":
			priceCol = i
		}
	}

	if dateCol < 0 || symbolCol < 0 || quantityCol < 0 {
		return nil, errors.Newf(errors.ErrCodeParseFailed, "%s must have date, symbol and quantity columns", path)
	}

	provider := &CSVOrderProvider{
		orders: make(map[time.Time][]types.Order),
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeParseFailed, err, "malformed row in %s", path)
		}

		date, err := time.Parse(types.DateLayout, record[dateCol])
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeParseFailed, err, "bad date %q in %s", record[dateCol], path)
		}

		quantity, err := strconv.ParseFloat(record[quantityCol], 64)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeParseFailed, err, "bad quantity %q in %s", record[quantityCol], path)
		}

		order := types.Order{
			Symbol:   record[symbolCol],
			Quantity: quantity,
		}

		if priceCol >= 0 && record[priceCol] != "" {
			price, err := strconv.ParseFloat(record[priceCol], 64)
			if err != nil {
				return nil, errors.Wrapf(errors.ErrCodeParseFailed, err, "bad price %q in %s", record[priceCol], path)
			}

			order = types.NewOrder(order.Symbol, order.Quantity, price)
		}

		day := types.Day(date)
		provider.orders[day] = append(provider.orders[day], order)
	}

	return provider, nil
}

func (p *CSVOrderProvider) GetDates() []time.Time {
	dates := make([]time.Time, 0, len(p.orders))
	for date := range p.orders {
		dates = append(dates, date)
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	return dates
}

func (p *CSVOrderProvider) GetOrders(date time.Time, _ AccountView) ([]types.Order, error) {
	return p.orders[types.Day(date)], nil
}
