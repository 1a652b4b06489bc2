package export

import (
	"fmt"
	"io"

	"github.com/rxtech-lab/backsim/internal/types"
	"github.com/rxtech-lab/backsim/pkg/errors"
	"github.com/shopspring/decimal"
)

// Stats summarizes a finished run.
type Stats struct {
	Days           int
	Skips          int
	OrderDays      int
	TotalFees      decimal.Decimal
	InitialNAV     decimal.Decimal
	FinalNAV       decimal.Decimal
	TotalReturn    decimal.Decimal
	MaxDrawdown    decimal.Decimal
	PriceFallbacks int
}

// StatsExporter accumulates run statistics from the snapshot stream and
// prints a summary at the end. NAV arithmetic goes through decimals so the
// reported return and drawdown round cleanly.
type StatsExporter struct {
	writer io.Writer

	stats Stats
	peak  decimal.Decimal
	first bool
}

func NewStatsExporter(writer io.Writer) *StatsExporter {
	return &StatsExporter{
		writer: writer,
		first:  true,
	}
}

func (e *StatsExporter) Initialize() error {
	return nil
}

func (e *StatsExporter) OnSkip(_ types.Skip) error {
	e.stats.Skips++

	return nil
}

func (e *StatsExporter) OnSnapshot(snapshot types.Snapshot) error {
	e.stats.Days++

	if snapshot.Ordered {
		e.stats.OrderDays++
	}

	e.stats.TotalFees = e.stats.TotalFees.Add(decimal.NewFromFloat(snapshot.TotalFees))
	e.stats.PriceFallbacks += snapshot.PriceFallbacks

	nav := decimal.NewFromFloat(snapshot.NAV)

	if e.first {
		e.stats.InitialNAV = nav
		e.peak = nav
		e.first = false
	}

	e.stats.FinalNAV = nav

	if nav.GreaterThan(e.peak) {
		e.peak = nav
	}

	if e.peak.IsPositive() {
		drawdown := e.peak.Sub(nav).Div(e.peak)
		if drawdown.GreaterThan(e.stats.MaxDrawdown) {
			e.stats.MaxDrawdown = drawdown
		}
	}

	return nil
}

func (e *StatsExporter) Finalize() error {
	stats := e.Stats()

	_, err := fmt.Fprintf(e.writer,
		"days: %d (orders on %d, skipped %d)\n"+
			"nav: %s -> %s (%s%%)\n"+
			"max drawdown: %s%%\n"+
			"total fees: %s\n"+
			"price fallbacks: %d\n",
		stats.Days, stats.OrderDays, stats.Skips,
		stats.InitialNAV.StringFixed(2), stats.FinalNAV.StringFixed(2),
		stats.TotalReturn.Mul(decimal.NewFromInt(100)).StringFixed(2),
		stats.MaxDrawdown.Mul(decimal.NewFromInt(100)).StringFixed(2),
		stats.TotalFees.StringFixed(2),
		stats.PriceFallbacks,
	)
	if err != nil {
		return errors.Wrap(errors.ErrCodeExportWriteFailed, err, "failed to write summary")
	}

	return nil
}

// Stats returns the accumulated statistics with the total return resolved.
func (e *StatsExporter) Stats() Stats {
	stats := e.stats

	if stats.InitialNAV.IsPositive() {
		stats.TotalReturn = stats.FinalNAV.Sub(stats.InitialNAV).Div(stats.InitialNAV)
	}

	return stats
}
