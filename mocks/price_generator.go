package mocks

import (
	"math"
	"math/rand"
	"time"

	"github.com/rxtech-lab/backsim/internal/datasource"
	"github.com/rxtech-lab/backsim/internal/types"
)

// PriceGenerator produces daily close series for testing and benchmarking.
type PriceGenerator struct {
	rng *rand.Rand
}

// NewPriceGenerator creates a new PriceGenerator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewPriceGenerator(seed int64) *PriceGenerator {
	return &PriceGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig configures how a price series is generated.
type GeneratorConfig struct {
	// Symbol is the trading symbol (e.g., "AAPL", "SPY")
	Symbol string
	// StartDate is the first day of the series
	StartDate time.Time
	// Count is the number of daily closes to generate
	Count int
	// InitialPrice is the starting price
	InitialPrice float64
	// Volatility controls price movement (0.01 = 1% typical daily volatility)
	Volatility float64
	// Trend is the total drift over the series (-0.1 to 0.1 for bearish to bullish)
	Trend float64
	// SkipWeekends leaves Saturdays and Sundays without data points
	SkipWeekends bool
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Symbol:       "TEST",
		StartDate:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Count:        252,
		InitialPrice: 100.0,
		Volatility:   0.01,
		Trend:        0.0,
		SkipWeekends: true,
	}
}

// Generate produces one symbol's close series as a table column. Prices
// follow geometric Brownian motion for realistic movements.
func (g *PriceGenerator) Generate(config GeneratorConfig) datasource.Table {
	table := make(datasource.Table)

	price := config.InitialPrice
	day := types.Day(config.StartDate)
	drift := config.Trend / float64(config.Count)

	for i := 0; i < config.Count; {
		if config.SkipWeekends && types.IsWeekend(day) {
			day = types.NextDay(day)

			continue
		}

		// Box-Muller transform for a normally distributed step.
		u1 := g.rng.Float64()
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

		price *= 1 + config.Volatility*z + drift
		if price <= 0 {
			price = config.InitialPrice * 0.01
		}

		table.Set(config.Symbol, day, roundToDecimals(price, 4))

		day = types.NextDay(day)
		i++
	}

	return table
}

// GenerateMany merges the series of several symbols into one table.
func (g *PriceGenerator) GenerateMany(config GeneratorConfig, symbols ...string) datasource.Table {
	table := make(datasource.Table)

	for _, symbol := range symbols {
		symbolConfig := config
		symbolConfig.Symbol = symbol
		table.Merge(g.Generate(symbolConfig))
	}

	return table
}

func roundToDecimals(value float64, decimals int) float64 {
	multiplier := math.Pow10(decimals)

	return math.Round(value*multiplier) / multiplier
}
