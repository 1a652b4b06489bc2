package engine

import (
	"os"

	"github.com/rxtech-lab/backsim/internal/account"
	"github.com/rxtech-lab/backsim/internal/calendar"
	"github.com/rxtech-lab/backsim/internal/datasource"
	"github.com/rxtech-lab/backsim/internal/export"
	"github.com/rxtech-lab/backsim/internal/fee"
	"github.com/rxtech-lab/backsim/internal/logger"
	"github.com/rxtech-lab/backsim/internal/orderprovider"
	"github.com/rxtech-lab/backsim/internal/priceprovider"
	"github.com/rxtech-lab/backsim/pkg/errors"
)

// NewBacktesterFromConfig assembles a ready-to-run simulation from a parsed
// config. The returned closer releases the cache store, if any.
func NewBacktesterFromConfig(config BacktestConfig, log *logger.Logger) (*SimpleBacktester, func() error, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}

	source, err := buildDataSource(config, log)
	if err != nil {
		return nil, nil, err
	}

	var mapper *datasource.SymbolMapper

	if config.MappingPath != "" {
		mapper, err = datasource.NewSymbolMapperFromFile(config.MappingPath)
		if err != nil {
			return nil, nil, err
		}
	}

	var store *priceprovider.CacheStore

	closer := func() error { return nil }

	if config.CachePath != "" {
		store, err = priceprovider.NewCacheStore(config.CachePath, log)
		if err != nil {
			return nil, nil, err
		}

		closer = store.Close
	}

	provider, err := priceprovider.NewProvider(source, mapper, store, config.Start(), config.End(), log)
	if err != nil {
		return nil, closer, err
	}

	feeModel, err := buildFeeModel(config.Fee, log)
	if err != nil {
		return nil, closer, err
	}

	orders, err := orderprovider.NewCSVOrderProvider(config.OrdersPath)
	if err != nil {
		return nil, closer, err
	}

	exporters, err := buildExporters(config.Export)
	if err != nil {
		return nil, closer, err
	}

	acc := account.NewAccount(config.InitialCash, feeModel, log)
	pod := NewPod(acc, provider, orders, exporters, config.Sizing, config.AutoClose, log)

	backtester, err := NewSimpleBacktester(pod, provider, calendar.Config{
		Start:         config.Start(),
		End:           config.End(),
		AllowWeekends: config.AllowWeekends,
		AllowHolidays: config.AllowHolidays,
	}, log)
	if err != nil {
		return nil, closer, err
	}

	return backtester, closer, nil
}

func buildDataSource(config BacktestConfig, log *logger.Logger) (datasource.DataSource, error) {
	sources := make([]datasource.DataSource, 0, len(config.DataSources))

	for _, sourceConfig := range config.DataSources {
		switch sourceConfig.Type {
		case DataSourceCSV:
			sources = append(sources, datasource.NewCSVDataSource(sourceConfig.Path))
		case DataSourceCSVReturns:
			sources = append(sources, datasource.NewCSVReturnsDataSource(sourceConfig.Path))
		case DataSourcePolygon:
			source, err := datasource.NewPolygonDataSource(sourceConfig.APIKey, log)
			if err != nil {
				return nil, err
			}

			sources = append(sources, source)
		case DataSourceBinance:
			sources = append(sources, datasource.NewBinanceDataSource(log))
		default:
			return nil, errors.Newf(errors.ErrCodeNoDataSource, "unknown data source type %q", sourceConfig.Type)
		}
	}

	if len(sources) == 1 {
		return sources[0], nil
	}

	return datasource.NewDelegateDataSource(sources...), nil
}

func buildFeeModel(config FeeConfig, log *logger.Logger) (fee.Model, error) {
	switch config.Model {
	case fee.ModelTypeFree, "":
		return fee.NewFreeModel(), nil
	case fee.ModelTypeConstant:
		return fee.NewConstantModel(config.Amount), nil
	case fee.ModelTypePerShare:
		return fee.NewPerShareModel(config.Amount, config.Minimum), nil
	case fee.ModelTypeExpression:
		return fee.NewExpressionModel(config.Expression, log)
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "unknown fee model %q", config.Model)
	}
}

func buildExporters(config ExportConfig) (export.Collection, error) {
	var exporters export.Collection

	if config.Console {
		exporters = append(exporters, export.NewConsoleExporter(os.Stdout, export.ConsoleFormat(config.ConsoleFormat)))
	}

	if config.CSVPath != "" {
		exporters = append(exporters, export.NewCSVExporter(config.CSVPath))
	}

	if config.Stats {
		exporters = append(exporters, export.NewStatsExporter(os.Stdout))
	}

	if config.ChartPath != "" {
		exporters = append(exporters, export.NewChartExporter(config.ChartPath, "Backtest NAV"))
	}

	return exporters, nil
}
