package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/rxtech-lab/backsim/internal/types"
	"github.com/rxtech-lab/backsim/pkg/errors"
)

type ConsoleFormat string

const (
	ConsoleFormatText ConsoleFormat = "text"
	ConsoleFormatJSON ConsoleFormat = "json"
)

// ConsoleExporter writes one line per day to the given writer, either as
// human-readable text or as JSON objects.
type ConsoleExporter struct {
	writer io.Writer
	format ConsoleFormat
}

func NewConsoleExporter(writer io.Writer, format ConsoleFormat) *ConsoleExporter {
	return &ConsoleExporter{
		writer: writer,
		format: format,
	}
}

func (e *ConsoleExporter) Initialize() error {
	return nil
}

func (e *ConsoleExporter) OnSkip(skip types.Skip) error {
	if e.format == ConsoleFormatJSON {
		return e.writeJSON(map[string]any{
			"type":    "skip",
			"date":    skip.Date.Format(types.DateLayout),
			"reason":  skip.Reason,
			"ordered": skip.Ordered,
		})
	}

	marker := ""
	if skip.Ordered {
		marker = " (orders postponed)"
	}

	_, err := fmt.Fprintf(e.writer, "%s  skipped: %s%s\n", skip.Date.Format(types.DateLayout), skip.Reason, marker)
	if err != nil {
		return errors.Wrap(errors.ErrCodeExportWriteFailed, err, "failed to write skip line")
	}

	return nil
}

func (e *ConsoleExporter) OnSnapshot(snapshot types.Snapshot) error {
	if e.format == ConsoleFormatJSON {
		record := map[string]any{
			"type":     "snapshot",
			"date":     snapshot.Date.Format(types.DateLayout),
			"cash":     snapshot.Cash,
			"equity":   snapshot.Equity,
			"nav":      snapshot.NAV,
			"holdings": snapshot.HoldingCount(),
			"ordered":  snapshot.Ordered,
		}

		if snapshot.Postponed.IsSome() {
			record["postponed_from"] = snapshot.Postponed.Unwrap().Format(types.DateLayout)
		}

		if snapshot.Ordered {
			record["fees"] = snapshot.TotalFees
			record["succeeded"] = snapshot.SuccessCount
			record["failed"] = snapshot.FailedCount
			record["price_fallbacks"] = snapshot.PriceFallbacks

			if snapshot.ClosedCount.IsSome() {
				record["closed"] = snapshot.ClosedCount.Unwrap()
				record["close_candidates"] = snapshot.ClosedTotal.TakeOr(0)
			}
		}

		return e.writeJSON(record)
	}

	line := fmt.Sprintf("%s  cash=%.2f equity=%.2f nav=%.2f holdings=%d",
		snapshot.Date.Format(types.DateLayout), snapshot.Cash, snapshot.Equity, snapshot.NAV, snapshot.HoldingCount())

	if snapshot.Postponed.IsSome() {
		line += fmt.Sprintf(" postponed_from=%s", snapshot.Postponed.Unwrap().Format(types.DateLayout))
	}

	if snapshot.Ordered {
		line += fmt.Sprintf(" orders=%d/%d fees=%.2f",
			snapshot.SuccessCount, snapshot.SuccessCount+snapshot.FailedCount, snapshot.TotalFees)

		if snapshot.ClosedCount.IsSome() {
			line += fmt.Sprintf(" closed=%d/%d", snapshot.ClosedCount.Unwrap(), snapshot.ClosedTotal.TakeOr(0))
		}

		if snapshot.PriceFallbacks > 0 {
			line += fmt.Sprintf(" price_fallbacks=%d", snapshot.PriceFallbacks)
		}
	}

	if _, err := fmt.Fprintln(e.writer, line); err != nil {
		return errors.Wrap(errors.ErrCodeExportWriteFailed, err, "failed to write snapshot line")
	}

	return nil
}

func (e *ConsoleExporter) Finalize() error {
	return nil
}

func (e *ConsoleExporter) writeJSON(record map[string]any) error {
	encoded, err := json.Marshal(record)
	if err != nil {
		return errors.Wrap(errors.ErrCodeExportWriteFailed, err, "failed to encode record")
	}

	if _, err := fmt.Fprintln(e.writer, string(encoded)); err != nil {
		return errors.Wrap(errors.ErrCodeExportWriteFailed, err, "failed to write record")
	}

	return nil
}
