package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rxtech-lab/backsim/internal/calendar"
	"github.com/rxtech-lab/backsim/internal/logger"
	"github.com/rxtech-lab/backsim/internal/priceprovider"
	"github.com/rxtech-lab/backsim/internal/types"
	"github.com/rxtech-lab/backsim/pkg/errors"
	"go.uber.org/zap"
)

// SimpleBacktester drives one pod through the calendar day by day. Each
// simulated day observes the fully settled account state of all prior days.
type SimpleBacktester struct {
	runID    uuid.UUID
	pod      *Pod
	provider *priceprovider.Provider
	log      *logger.Logger

	calendarConfig calendar.Config
}

func NewSimpleBacktester(pod *Pod, provider *priceprovider.Provider, calendarConfig calendar.Config, log *logger.Logger) (*SimpleBacktester, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}

	orderDates := pod.OrderDates()
	if len(orderDates) == 0 {
		return nil, errors.New(errors.ErrCodeNoOrderDates, "order provider has no dates")
	}

	calendarConfig.Closeable = provider.IsCloseable()
	calendarConfig.OrderDates = orderDates

	return &SimpleBacktester{
		runID:          uuid.New(),
		pod:            pod,
		provider:       provider,
		log:            log,
		calendarConfig: calendarConfig,
	}, nil
}

func (b *SimpleBacktester) Run(ctx context.Context) error {
	iterator, err := calendar.NewIterator(b.calendarConfig)
	if err != nil {
		return err
	}

	if err := b.pod.exporters.Initialize(); err != nil {
		return err
	}

	b.log.Info("starting backtest",
		zap.String("run_id", b.runID.String()),
		zap.String("start", iterator.Start().Format(types.DateLayout)),
		zap.String("end", iterator.End().Format(types.DateLayout)))

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		day, ok := iterator.Next()
		if !ok {
			if err := b.pod.FireSkips(day.Skips); err != nil {
				return err
			}

			break
		}

		if err := b.pod.RunDay(ctx, day); err != nil {
			return err
		}
	}

	if err := b.provider.Persist(); err != nil {
		return err
	}

	return b.pod.exporters.Finalize()
}

// unionDates merges the pods' order schedules for the shared calendar.
func unionDates(pods []*Pod) []time.Time {
	seen := make(map[time.Time]bool)

	var dates []time.Time

	for _, pod := range pods {
		for _, date := range pod.OrderDates() {
			day := types.Day(date)
			if !seen[day] {
				seen[day] = true
				dates = append(dates, day)
			}
		}
	}

	return dates
}
