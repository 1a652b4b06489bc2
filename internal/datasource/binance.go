package datasource

import (
	"context"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"
	"go.uber.org/zap"

	"github.com/rxtech-lab/backsim/internal/logger"
	"github.com/rxtech-lab/backsim/internal/types"
)

// BinanceDataSource fetches daily closing prices from the public Binance
// klines endpoint. Crypto trades every day, so the source is not closeable.
type BinanceDataSource struct {
	client *binance.Client
	log    *logger.Logger
}

func NewBinanceDataSource(log *logger.Logger) DataSource {
	if log == nil {
		log = logger.NewNopLogger()
	}

	// Historical klines are public, no credentials needed.
	return &BinanceDataSource{
		client: binance.NewClient("", ""),
		log:    log,
	}
}

// FetchPrices implements DataSource.
func (s *BinanceDataSource) FetchPrices(ctx context.Context, symbols []string, start, end time.Time) (Table, error) {
	table := make(Table)

	for _, symbol := range symbols {
		klines, err := s.client.NewKlinesService().
			Symbol(symbol).
			Interval("1d").
			StartTime(start.UnixMilli()).
			EndTime(end.UnixMilli()).
			Limit(1000).
			Do(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}

			s.log.Warn("binance could not resolve symbol, leaving column absent",
				zap.String("symbol", symbol),
				zap.Error(err),
			)

			continue
		}

		for _, kline := range klines {
			closePrice, err := strconv.ParseFloat(kline.Close, 64)
			if err != nil {
				s.log.Warn("skipping unparsable kline close",
					zap.String("symbol", symbol),
					zap.String("close", kline.Close),
				)

				continue
			}

			day := types.Day(time.UnixMilli(kline.OpenTime).UTC())
			table.Set(symbol, day, closePrice)
		}
	}

	return table, nil
}

// IsCloseable implements DataSource.
func (s *BinanceDataSource) IsCloseable() bool {
	return false
}

// ContainsPrices implements DataSource.
func (s *BinanceDataSource) ContainsPrices() bool {
	return true
}

// Name implements DataSource.
func (s *BinanceDataSource) Name() string {
	return "binance"
}
