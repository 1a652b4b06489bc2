package datasource

import (
	"context"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	"go.uber.org/zap"

	"github.com/rxtech-lab/backsim/internal/logger"
	"github.com/rxtech-lab/backsim/internal/types"
	"github.com/rxtech-lab/backsim/pkg/errors"
)

// PolygonDataSource fetches daily closing prices from the Polygon.io
// aggregates API, one request per symbol. A symbol Polygon cannot resolve
// yields an absent column, not an error.
type PolygonDataSource struct {
	client *polygon.Client
	log    *logger.Logger
}

func NewPolygonDataSource(apiKey string, log *logger.Logger) (DataSource, error) {
	if apiKey == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "polygon api key is required")
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &PolygonDataSource{
		client: polygon.New(apiKey),
		log:    log,
	}, nil
}

// FetchPrices implements DataSource.
func (s *PolygonDataSource) FetchPrices(ctx context.Context, symbols []string, start, end time.Time) (Table, error) {
	table := make(Table)

	for _, symbol := range symbols {
		//nolint:exhaustruct // third-party struct with many optional fields
		params := models.ListAggsParams{
			Ticker:     symbol,
			Multiplier: 1,
			Timespan:   models.Day,
			From:       models.Millis(start),
			To:         models.Millis(end),
		}.WithLimit(50000)

		iter := s.client.ListAggs(ctx, params)

		for iter.Next() {
			agg := iter.Item()
			table.Set(symbol, types.Day(time.Time(agg.Timestamp)), agg.Close)
		}

		if err := iter.Err(); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}

			s.log.Warn("polygon could not resolve symbol, leaving column absent",
				zap.String("symbol", symbol),
				zap.Error(err),
			)
		}
	}

	return table, nil
}

// IsCloseable implements DataSource.
func (s *PolygonDataSource) IsCloseable() bool {
	return true
}

// ContainsPrices implements DataSource.
func (s *PolygonDataSource) ContainsPrices() bool {
	return true
}

// Name implements DataSource.
func (s *PolygonDataSource) Name() string {
	return "polygon"
}
