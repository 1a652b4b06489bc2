// Package engine wires the account, calendar, price provider and exporters
// into a runnable simulation.
package engine

import (
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/rxtech-lab/backsim/internal/fee"
	"github.com/rxtech-lab/backsim/internal/types"
	"github.com/rxtech-lab/backsim/pkg/errors"
	"gopkg.in/yaml.v2"
)

type SizingMode string

const (
	// SizingModeShares treats order quantities as absolute target share counts.
	SizingModeShares SizingMode = "shares"
	// SizingModePercent treats order quantities as target fractions of NAV.
	SizingModePercent SizingMode = "percent"
)

type DataSourceType string

const (
	DataSourceCSV        DataSourceType = "csv"
	DataSourceCSVReturns DataSourceType = "csv_returns"
	DataSourcePolygon    DataSourceType = "polygon"
	DataSourceBinance    DataSourceType = "binance"
)

// DataSourceConfig names one source in the delegate chain.
type DataSourceConfig struct {
	Type DataSourceType `yaml:"type" json:"type" jsonschema:"title=Type,description=Data source kind,enum=csv,enum=csv_returns,enum=polygon,enum=binance" validate:"required,oneof=csv csv_returns polygon binance"`
	// Path is required for csv sources.
	Path string `yaml:"path" json:"path" jsonschema:"title=Path,description=CSV file path for file-backed sources"`
	// APIKey is required for polygon.
	APIKey string `yaml:"api_key" json:"api_key" jsonschema:"title=API Key,description=Vendor API key"`
}

type FeeConfig struct {
	Model fee.ModelType `yaml:"model" json:"model" jsonschema:"title=Model,description=Fee model kind,enum=free,enum=constant,enum=per_share,enum=expression" validate:"required,oneof=free constant per_share expression"`
	// Amount is the flat fee for the constant model and the rate for per_share.
	Amount  float64 `yaml:"amount" json:"amount" jsonschema:"title=Amount,description=Constant fee or per-share rate"`
	Minimum float64 `yaml:"minimum" json:"minimum" jsonschema:"title=Minimum,description=Per-share model minimum fee"`
	// Expression computes the fee from quantity, price and value.
	Expression string `yaml:"expression" json:"expression" jsonschema:"title=Expression,description=Fee expression of quantity price and value"`
}

type ExportConfig struct {
	Console       bool   `yaml:"console" json:"console" jsonschema:"title=Console,description=Write per-day lines to stdout"`
	ConsoleFormat string `yaml:"console_format" json:"console_format" jsonschema:"title=Console Format,enum=text,enum=json" validate:"omitempty,oneof=text json"`
	CSVPath       string `yaml:"csv_path" json:"csv_path" jsonschema:"title=CSV Path,description=Per-day holdings dump file"`
	Stats         bool   `yaml:"stats" json:"stats" jsonschema:"title=Stats,description=Print a summary at the end"`
	ChartPath     string `yaml:"chart_path" json:"chart_path" jsonschema:"title=Chart Path,description=NAV curve HTML file"`
}

// BacktestConfig is the YAML surface of a run.
type BacktestConfig struct {
	InitialCash float64 `yaml:"initial_cash" json:"initial_cash" jsonschema:"title=Initial Cash,description=Starting cash,minimum=0" validate:"required,gt=0"`
	StartDate   string  `yaml:"start_date" json:"start_date" jsonschema:"title=Start Date,description=First simulated day (YYYY-MM-DD),format=date" validate:"required"`
	EndDate     string  `yaml:"end_date" json:"end_date" jsonschema:"title=End Date,description=Last simulated day (YYYY-MM-DD),format=date" validate:"required"`

	Sizing    SizingMode `yaml:"sizing" json:"sizing" jsonschema:"title=Sizing,description=Order quantity interpretation,enum=shares,enum=percent" validate:"required,oneof=shares percent"`
	AutoClose bool       `yaml:"auto_close" json:"auto_close" jsonschema:"title=Auto Close,description=Close positions not named by a day's batch"`

	AllowWeekends bool `yaml:"allow_weekends" json:"allow_weekends" jsonschema:"title=Allow Weekends,description=Trade through weekends even on closeable markets"`
	AllowHolidays bool `yaml:"allow_holidays" json:"allow_holidays" jsonschema:"title=Allow Holidays,description=Trade through US holidays"`

	OrdersPath  string `yaml:"orders_path" json:"orders_path" jsonschema:"title=Orders Path,description=CSV order schedule" validate:"required"`
	MappingPath string `yaml:"mapping_path" json:"mapping_path" jsonschema:"title=Mapping Path,description=JSON local-to-vendor symbol map"`
	CachePath   string `yaml:"cache_path" json:"cache_path" jsonschema:"title=Cache Path,description=DuckDB price cache file"`

	DataSources []DataSourceConfig `yaml:"data_sources" json:"data_sources" jsonschema:"title=Data Sources,description=Tried in order per symbol" validate:"required,min=1,dive"`
	Fee         FeeConfig          `yaml:"fee" json:"fee" jsonschema:"title=Fee,description=Fee model"`
	Export      ExportConfig       `yaml:"export" json:"export" jsonschema:"title=Export,description=Output sinks"`
}

// ParseConfig unmarshals and validates a YAML config. Invalid configuration
// is fatal at startup, never inside the simulation loop.
func ParseConfig(content []byte) (BacktestConfig, error) {
	var config BacktestConfig
	if err := yaml.Unmarshal(content, &config); err != nil {
		return config, errors.Wrap(errors.ErrCodeInvalidConfiguration, err, "failed to parse config")
	}

	if config.Fee.Model == "" {
		config.Fee.Model = fee.ModelTypeFree
	}

	if config.Export.ConsoleFormat == "" {
		config.Export.ConsoleFormat = "text"
	}

	if err := config.Validate(); err != nil {
		return config, err
	}

	return config, nil
}

func (c *BacktestConfig) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, err, "invalid config")
	}

	start, err := time.Parse(types.DateLayout, c.StartDate)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "invalid start_date %q", c.StartDate)
	}

	end, err := time.Parse(types.DateLayout, c.EndDate)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "invalid end_date %q", c.EndDate)
	}

	if end.Before(start) {
		return errors.Newf(errors.ErrCodeInvalidDateRange, "end_date %s is before start_date %s", c.EndDate, c.StartDate)
	}

	for _, source := range c.DataSources {
		switch source.Type {
		case DataSourceCSV, DataSourceCSVReturns:
			if source.Path == "" {
				return errors.Newf(errors.ErrCodeInvalidConfiguration, "%s data source requires a path", source.Type)
			}
		case DataSourcePolygon:
			if source.APIKey == "" {
				return errors.New(errors.ErrCodeInvalidConfiguration, "polygon data source requires an api_key")
			}
		}
	}

	return nil
}

func (c *BacktestConfig) Start() time.Time {
	start, _ := time.Parse(types.DateLayout, c.StartDate)

	return types.Day(start)
}

func (c *BacktestConfig) End() time.Time {
	end, _ := time.Parse(types.DateLayout, c.EndDate)

	return types.Day(end)
}

// GenerateSchema generates a JSON schema for the BacktestConfig.
func (c *BacktestConfig) GenerateSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
	}

	schema := reflector.Reflect(c)
	schema.Title = "backsim-config"
	schema.Description = "Configuration schema for a backtest run"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema
}

// GenerateSchemaJSON generates the schema as an indented JSON string.
func (c *BacktestConfig) GenerateSchemaJSON() (string, error) {
	schemaBytes, err := json.MarshalIndent(c.GenerateSchema(), "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}

// TestConfig returns a minimal valid config for tests.
func TestConfig(start, end time.Time, ordersPath, dataPath string) BacktestConfig {
	return BacktestConfig{
		InitialCash: 1_000_000,
		StartDate:   start.Format(types.DateLayout),
		EndDate:     end.Format(types.DateLayout),
		Sizing:      SizingModeShares,
		OrdersPath:  ordersPath,
		DataSources: []DataSourceConfig{
			{Type: DataSourceCSV, Path: dataPath},
		},
		Fee: FeeConfig{Model: fee.ModelTypeFree},
	}
}
