package engine

import (
	"context"

	"github.com/google/uuid"
	"github.com/rxtech-lab/backsim/internal/account"
	"github.com/rxtech-lab/backsim/internal/calendar"
	"github.com/rxtech-lab/backsim/internal/export"
	"github.com/rxtech-lab/backsim/internal/fee"
	"github.com/rxtech-lab/backsim/internal/logger"
	"github.com/rxtech-lab/backsim/internal/orderprovider"
	"github.com/rxtech-lab/backsim/internal/priceprovider"
	"github.com/rxtech-lab/backsim/internal/types"
	"github.com/rxtech-lab/backsim/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ParallelBacktester runs several pods over one calendar and one shared
// price provider. Pods are independent accounts, so a day fans out across
// them concurrently; days stay strictly sequential because each day needs
// the settled state of the last.
type ParallelBacktester struct {
	runID    uuid.UUID
	pods     []*Pod
	provider *priceprovider.Provider
	log      *logger.Logger

	calendarConfig calendar.Config
}

// PodConfig describes one independent account in a parallel run.
type PodConfig struct {
	InitialCash float64
	Fee         fee.Model
	Orders      orderprovider.OrderProvider
	Exporters   export.Collection
}

// NewParallelBacktesterFromConfigs builds one pod per config, all sharing the
// same price provider, sizing mode and auto-close policy.
func NewParallelBacktesterFromConfigs(configs []PodConfig, provider *priceprovider.Provider, sizing SizingMode, autoClose bool, calendarConfig calendar.Config, log *logger.Logger) (*ParallelBacktester, error) {
	pods := make([]*Pod, 0, len(configs))

	for _, config := range configs {
		acc := account.NewAccount(config.InitialCash, config.Fee, log)
		pods = append(pods, NewPod(acc, provider, config.Orders, config.Exporters, sizing, autoClose, log))
	}

	return NewParallelBacktester(pods, provider, calendarConfig, log)
}

func NewParallelBacktester(pods []*Pod, provider *priceprovider.Provider, calendarConfig calendar.Config, log *logger.Logger) (*ParallelBacktester, error) {
	if len(pods) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "parallel backtester requires at least one pod")
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	orderDates := unionDates(pods)
	if len(orderDates) == 0 {
		return nil, errors.New(errors.ErrCodeNoOrderDates, "no pod has any order dates")
	}

	calendarConfig.Closeable = provider.IsCloseable()
	calendarConfig.OrderDates = orderDates

	return &ParallelBacktester{
		runID:          uuid.New(),
		pods:           pods,
		provider:       provider,
		log:            log,
		calendarConfig: calendarConfig,
	}, nil
}

func (b *ParallelBacktester) Run(ctx context.Context) error {
	iterator, err := calendar.NewIterator(b.calendarConfig)
	if err != nil {
		return err
	}

	for _, pod := range b.pods {
		if err := pod.exporters.Initialize(); err != nil {
			return err
		}
	}

	b.log.Info("starting parallel backtest",
		zap.String("run_id", b.runID.String()),
		zap.Int("pods", len(b.pods)),
		zap.String("start", iterator.Start().Format(types.DateLayout)),
		zap.String("end", iterator.End().Format(types.DateLayout)))

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		day, ok := iterator.Next()
		if !ok {
			for _, pod := range b.pods {
				if err := pod.FireSkips(day.Skips); err != nil {
					return err
				}
			}

			break
		}

		group, groupCtx := errgroup.WithContext(ctx)

		for _, pod := range b.pods {
			group.Go(func() error {
				return pod.RunDay(groupCtx, day)
			})
		}

		if err := group.Wait(); err != nil {
			return err
		}
	}

	if err := b.provider.Persist(); err != nil {
		return err
	}

	for _, pod := range b.pods {
		if err := pod.exporters.Finalize(); err != nil {
			return err
		}
	}

	return nil
}
