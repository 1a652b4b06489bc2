package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/rxtech-lab/backsim/internal/engine"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v2"
)

// generateAction writes the config JSON schema, and optionally a sample YAML
// config, for editor completion support.
func generateAction(_ context.Context, cmd *cli.Command) error {
	config := &engine.BacktestConfig{}

	schema, err := config.GenerateSchemaJSON()
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	schemaPath := cmd.String("output")
	if err := os.WriteFile(schemaPath, []byte(schema), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", schemaPath, err)
	}

	log.Printf("Wrote schema to %s", schemaPath)

	if samplePath := cmd.String("sample"); samplePath != "" {
		sample, err := yaml.Marshal(sampleConfig())
		if err != nil {
			return fmt.Errorf("failed to marshal sample config: %w", err)
		}

		if err := os.WriteFile(samplePath, sample, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", samplePath, err)
		}

		log.Printf("Wrote sample config to %s", samplePath)
	}

	return nil
}

func sampleConfig() engine.BacktestConfig {
	return engine.BacktestConfig{
		InitialCash: 1_000_000,
		StartDate:   "2023-01-02",
		EndDate:     "2023-12-29",
		Sizing:      engine.SizingModePercent,
		AutoClose:   true,
		OrdersPath:  "orders.csv",
		CachePath:   "prices.duckdb",
		DataSources: []engine.DataSourceConfig{
			{Type: engine.DataSourceCSV, Path: "prices.csv"},
			{Type: engine.DataSourceBinance},
		},
		Fee: engine.FeeConfig{
			Model:      "expression",
			Expression: "math.max(0.001 * math.abs(value), 1.0)",
		},
		Export: engine.ExportConfig{
			Console:       true,
			ConsoleFormat: "text",
			Stats:         true,
			ChartPath:     "nav.html",
		},
	}
}

func main() {
	cmd := &cli.Command{
		Name:  "generate",
		Usage: "Generate the run config JSON schema and a sample YAML",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Schema output path",
				Value:   "backsim.schema.json",
			},
			&cli.StringFlag{
				Name:    "sample",
				Usage:   "Also write a sample YAML config to this path",
				Aliases: []string{"y"},
			},
		},
		Action: generateAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
