// Package export streams per-day simulation state to console, file, and
// chart sinks.
package export

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/backsim/internal/types"
)

// AccountState is the read-only ledger view exporters snapshot from.
type AccountState interface {
	Cash() float64
	Equity() float64
	NAV() float64
	Holdings() []types.Holding
}

// Exporter receives the simulation stream in order: Initialize once, then any
// number of OnSkip and OnSnapshot calls, then Finalize once. Implementations
// must not retain the snapshot's holdings slice across calls.
type Exporter interface {
	Initialize() error
	OnSkip(skip types.Skip) error
	OnSnapshot(snapshot types.Snapshot) error
	Finalize() error
}

// NewSnapshot captures the account state after a day's execution.
func NewSnapshot(date time.Time, postponed optional.Option[time.Time], account AccountState, result *types.ExecutionResult) types.Snapshot {
	snapshot := types.Snapshot{
		Date:      types.Day(date),
		Postponed: postponed,
		Cash:      account.Cash(),
		Equity:    account.Equity(),
		NAV:       account.NAV(),
		Holdings:  account.Holdings(),
	}

	if result != nil {
		snapshot.Ordered = true
		snapshot.TotalFees = result.TotalFees()
		snapshot.SuccessCount = result.SuccessCount()
		snapshot.FailedCount = result.FailedCount()
		snapshot.ClosedCount = result.ClosedCount
		snapshot.ClosedTotal = result.ClosedTotal
		snapshot.PriceFallbacks = result.PriceFallbacks()
	}

	return snapshot
}

// Collection fans the stream out to several exporters, stopping at the first
// error.
type Collection []Exporter

func (c Collection) Initialize() error {
	for _, exporter := range c {
		if err := exporter.Initialize(); err != nil {
			return err
		}
	}

	return nil
}

func (c Collection) OnSkip(skip types.Skip) error {
	for _, exporter := range c {
		if err := exporter.OnSkip(skip); err != nil {
			return err
		}
	}

	return nil
}

func (c Collection) OnSnapshot(snapshot types.Snapshot) error {
	for _, exporter := range c {
		if err := exporter.OnSnapshot(snapshot); err != nil {
			return err
		}
	}

	return nil
}

func (c Collection) Finalize() error {
	for _, exporter := range c {
		if err := exporter.Finalize(); err != nil {
			return err
		}
	}

	return nil
}
