package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rxtech-lab/backsim/internal/datasource"
	"github.com/rxtech-lab/backsim/internal/logger"
	"github.com/rxtech-lab/backsim/internal/types"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
)

// downloadAction fetches daily closes for the given symbols and writes them
// as a long-format CSV usable by the csv data source.
func downloadAction(ctx context.Context, cmd *cli.Command) error {
	symbols := strings.Split(cmd.String("symbols"), ",")
	for i := range symbols {
		symbols[i] = strings.TrimSpace(symbols[i])
	}

	start := cmd.Timestamp("start")
	end := cmd.Timestamp("end")

	runLogger, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	var source datasource.DataSource

	switch provider := cmd.String("provider"); provider {
	case "polygon":
		source, err = datasource.NewPolygonDataSource(os.Getenv("POLYGON_API_KEY"), runLogger)
		if err != nil {
			return err
		}
	case "binance":
		source = datasource.NewBinanceDataSource(runLogger)
	default:
		return fmt.Errorf("unknown provider %q", provider)
	}

	bar := progressbar.Default(int64(len(symbols)), "downloading")
	table := make(datasource.Table)

	// One symbol per fetch so the bar tracks real progress against vendor
	// rate limits.
	for _, symbol := range symbols {
		fetched, err := source.FetchPrices(ctx, []string{symbol}, start, end)
		if err != nil {
			return err
		}

		table.Merge(fetched)

		_ = bar.Add(1)
	}

	return writeCSV(cmd.String("output"), table)
}

func writeCSV(path string, table datasource.Table) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"date", "symbol", "price"}); err != nil {
		return err
	}

	symbols := make([]string, 0, len(table))
	for symbol := range table {
		symbols = append(symbols, symbol)
	}

	sort.Strings(symbols)

	for _, symbol := range symbols {
		column := table[symbol]

		days := make([]time.Time, 0, len(column))
		for day := range column {
			days = append(days, day)
		}

		sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

		for _, day := range days {
			record := []string{
				day.Format(types.DateLayout),
				symbol,
				strconv.FormatFloat(column[day], 'f', -1, 64),
			}
			if err := writer.Write(record); err != nil {
				return err
			}
		}
	}

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "download",
		Usage: "Download daily price history into a CSV data file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "symbols",
				Aliases:  []string{"t"},
				Usage:    "Comma-separated symbols to download",
				Required: true,
			},
			&cli.TimestampFlag{
				Name:    "start",
				Aliases: []string{"s"},
				Usage:   "Start date in `YYYY-MM-DD` format",
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02"},
				},
				Required: true,
			},
			&cli.TimestampFlag{
				Name:    "end",
				Aliases: []string{"e"},
				Usage:   "End date in `YYYY-MM-DD` format. Defaults to today.",
				Value:   time.Now(),
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02"},
				},
			},
			&cli.StringFlag{
				Name:    "provider",
				Aliases: []string{"p"},
				Usage:   "Data provider to use (polygon, binance)",
				Value:   "polygon",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output CSV path",
				Value:   "prices.csv",
			},
		},
		Action: downloadAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
