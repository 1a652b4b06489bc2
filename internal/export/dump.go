package export

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/rxtech-lab/backsim/internal/types"
	"github.com/rxtech-lab/backsim/pkg/errors"
)

// CSVExporter dumps one row per open position per day, plus a cash row, so
// the full ledger history can be rebuilt offline.
type CSVExporter struct {
	path   string
	file   *os.File
	writer *csv.Writer
}

func NewCSVExporter(path string) *CSVExporter {
	return &CSVExporter{path: path}
}

func (e *CSVExporter) Initialize() error {
	file, err := os.Create(e.path)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeExportInitFailed, err, "failed to create %s", e.path)
	}

	e.file = file
	e.writer = csv.NewWriter(file)

	header := []string{"date", "real_date", "row", "symbol", "quantity", "price", "value", "cash", "nav"}
	if err := e.writer.Write(header); err != nil {
		return errors.Wrap(errors.ErrCodeExportWriteFailed, err, "failed to write header")
	}

	return nil
}

func (e *CSVExporter) OnSkip(skip types.Skip) error {
	record := []string{
		skip.Date.Format(types.DateLayout),
		skip.Date.Format(types.DateLayout),
		"skip",
		string(skip.Reason),
		"", "", "", "", "",
	}

	if err := e.writer.Write(record); err != nil {
		return errors.Wrap(errors.ErrCodeExportWriteFailed, err, "failed to write skip row")
	}

	return nil
}

func (e *CSVExporter) OnSnapshot(snapshot types.Snapshot) error {
	date := snapshot.Date.Format(types.DateLayout)
	realDate := snapshot.RealDate().Format(types.DateLayout)

	for _, holding := range snapshot.Holdings {
		record := []string{
			date,
			realDate,
			"holding",
			holding.Symbol,
			formatFloat(holding.Quantity),
			formatFloat(holding.Price),
			formatFloat(holding.MarketValue()),
			"",
			"",
		}

		if err := e.writer.Write(record); err != nil {
			return errors.Wrap(errors.ErrCodeExportWriteFailed, err, "failed to write holding row")
		}
	}

	record := []string{
		date,
		realDate,
		"total",
		"",
		"",
		"",
		formatFloat(snapshot.Equity),
		formatFloat(snapshot.Cash),
		formatFloat(snapshot.NAV),
	}

	if err := e.writer.Write(record); err != nil {
		return errors.Wrap(errors.ErrCodeExportWriteFailed, err, "failed to write total row")
	}

	return nil
}

func (e *CSVExporter) Finalize() error {
	e.writer.Flush()

	if err := e.writer.Error(); err != nil {
		return errors.Wrap(errors.ErrCodeExportWriteFailed, err, "failed to flush csv")
	}

	return e.file.Close()
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
