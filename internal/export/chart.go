package export

import (
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/rxtech-lab/backsim/internal/types"
	"github.com/rxtech-lab/backsim/pkg/errors"
)

// ChartExporter renders the NAV and cash curves into a standalone HTML file.
type ChartExporter struct {
	path  string
	title string

	dates []string
	nav   []opts.LineData
	cash  []opts.LineData
}

func NewChartExporter(path, title string) *ChartExporter {
	return &ChartExporter{
		path:  path,
		title: title,
	}
}

func (e *ChartExporter) Initialize() error {
	return nil
}

func (e *ChartExporter) OnSkip(_ types.Skip) error {
	return nil
}

func (e *ChartExporter) OnSnapshot(snapshot types.Snapshot) error {
	e.dates = append(e.dates, snapshot.Date.Format(types.DateLayout))
	e.nav = append(e.nav, opts.LineData{Value: snapshot.NAV})
	e.cash = append(e.cash, opts.LineData{Value: snapshot.Cash})

	return nil
}

func (e *ChartExporter) Finalize() error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: e.title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Scale: opts.Bool(true)}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", XAxisIndex: []int{0}}),
	)

	line.SetXAxis(e.dates)
	line.AddSeries("NAV", e.nav, charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))
	line.AddSeries("Cash", e.cash, charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))

	file, err := os.Create(e.path)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeExportInitFailed, err, "failed to create %s", e.path)
	}
	defer file.Close()

	if err := line.Render(file); err != nil {
		return errors.Wrap(errors.ErrCodeExportWriteFailed, err, "failed to render chart")
	}

	return nil
}
