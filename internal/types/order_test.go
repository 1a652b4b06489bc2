package types

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"
)

type OrderTestSuite struct {
	suite.Suite
}

func TestOrderSuite(t *testing.T) {
	suite.Run(t, new(OrderTestSuite))
}

func (suite *OrderTestSuite) TestDirection() {
	tests := []struct {
		name     string
		quantity float64
		expected Direction
	}{
		{"positive quantity is a buy", 15, DirectionBuy},
		{"negative quantity is a sell", -30, DirectionSell},
		{"zero quantity is a hold", 0, DirectionHold},
		{"tiny positive quantity is a buy", 1e-12, DirectionBuy},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			order := NewOrder("AAPL", tc.quantity, 2)
			suite.Equal(tc.expected, order.Direction())
		})
	}
}

func (suite *OrderTestSuite) TestValue() {
	order := NewOrder("AAPL", 15, 2)
	suite.Equal(30.0, order.Value())

	short := NewOrder("AAPL", -30, 2)
	suite.Equal(-60.0, short.Value())

	unpriced := Order{Symbol: "AAPL", Quantity: 15, Price: optional.None[float64]()}
	suite.Equal(0.0, unpriced.Value())
}

func (suite *OrderTestSuite) TestValid() {
	tests := []struct {
		name     string
		order    Order
		expected bool
	}{
		{"priced order", NewOrder("AAPL", 15, 2), true},
		{"unpriced order", Order{Symbol: "AAPL", Quantity: 15}, true},
		{"zero quantity", NewOrder("AAPL", 0, 2), true},
		{"blank symbol", NewOrder("", 15, 2), false},
		{"whitespace symbol", NewOrder("   ", 15, 2), false},
		{"zero price", NewOrder("AAPL", 15, 0), false},
		{"negative price", NewOrder("AAPL", 15, -1), false},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			suite.Equal(tc.expected, tc.order.Valid())
		})
	}
}

func (suite *OrderTestSuite) TestIsZero() {
	suite.True(NewOrder("AAPL", 0, 2).IsZero())
	suite.True(NewOrder("AAPL", 1e-11, 2).IsZero())
	suite.False(NewOrder("AAPL", 1e-9, 2).IsZero())
}

func (suite *OrderTestSuite) TestHoldingMerge() {
	date := time.Date(2023, 3, 6, 0, 0, 0, 0, time.UTC)
	holding := HoldingFromOrder(NewOrder("AAPL", 15, 2), date)

	suite.Equal(30.0, holding.MarketValue())

	err := holding.Merge(NewOrder("AAPL", 15, 3))
	suite.NoError(err)
	suite.Equal(30.0, holding.Quantity)
	suite.Equal(3.0, holding.Price)

	err = holding.Merge(NewOrder("MSFT", 1, 3))
	suite.Error(err)
}

func (suite *OrderTestSuite) TestHoldingMergeKeepsPriceWhenUnset() {
	date := time.Date(2023, 3, 6, 0, 0, 0, 0, time.UTC)
	holding := HoldingFromOrder(NewOrder("AAPL", 15, 2), date)

	err := holding.Merge(Order{Symbol: "AAPL", Quantity: -5})
	suite.NoError(err)
	suite.Equal(10.0, holding.Quantity)
	suite.Equal(2.0, holding.Price)
}

func (suite *OrderTestSuite) TestDay() {
	stamp := time.Date(2023, 3, 6, 14, 30, 12, 999, time.FixedZone("EST", -5*3600))
	day := Day(stamp)

	suite.Equal(time.Date(2023, 3, 6, 0, 0, 0, 0, time.UTC), day)
	suite.Equal(day.AddDate(0, 0, 1), NextDay(stamp))
	suite.Equal(day.AddDate(0, 0, -1), PrevDay(stamp))
}

func (suite *OrderTestSuite) TestIsWeekend() {
	saturday := time.Date(2023, 3, 4, 0, 0, 0, 0, time.UTC)
	monday := time.Date(2023, 3, 6, 0, 0, 0, 0, time.UTC)

	suite.True(IsWeekend(saturday))
	suite.False(IsWeekend(monday))
}

func (suite *OrderTestSuite) TestExecutionResultCounters() {
	result := &ExecutionResult{}

	result.Append(OrderResult{Order: NewOrder("AAPL", 15, 2), Success: true, Fee: 1})
	result.Append(OrderResult{Order: NewOrder("MSFT", 5, 10), Success: false})
	result.AppendClose(CloseResult{Order: NewOrder("TSLA", -3, 100), Success: true, Fee: 2, PriceFallback: true})

	suite.Equal(3, result.ElementCount())
	suite.Equal(2, result.SuccessCount())
	suite.Equal(1, result.FailedCount())
	suite.Equal(3.0, result.TotalFees())
	suite.Equal(1, result.PriceFallbacks())
}
