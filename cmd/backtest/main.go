package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/rxtech-lab/backsim/internal/engine"
	"github.com/rxtech-lab/backsim/internal/logger"
	"github.com/urfave/cli/v3"
)

// backtestAction loads the YAML config, assembles the simulation and runs it.
func backtestAction(ctx context.Context, cmd *cli.Command) error {
	content, err := os.ReadFile(cmd.String("config"))
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	config, err := engine.ParseConfig(content)
	if err != nil {
		return err
	}

	runLogger, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	backtester, closer, err := engine.NewBacktesterFromConfig(config, runLogger)
	if err != nil {
		return err
	}

	defer func() {
		if err := closer(); err != nil {
			runLogger.Error("failed to close cache store")
		}
	}()

	return backtester.Run(ctx)
}

func main() {
	cmd := &cli.Command{
		Name:  "backtest",
		Usage: "Run a portfolio backtest from a YAML config",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Usage:    "Path to the YAML run configuration",
				Required: true,
			},
		},
		Action: backtestAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
