// Package calendar advances the simulation clock day by day over a date
// range, classifying each date as tradeable or skipped and tracking orders
// scheduled on non-trading days so the driver can postpone them.
package calendar

import (
	"time"

	"github.com/rxtech-lab/backsim/internal/types"
	"github.com/rxtech-lab/backsim/pkg/errors"
)

// TradingDay is one emission of the iterator: a tradeable date, whether an
// order is scheduled on it, and the skips accumulated since the previous
// emission. Skips with Ordered=true carry orders to execute on this day at
// this day's prices.
type TradingDay struct {
	Date    time.Time
	Ordered bool
	Skips   []types.Skip
}

// Iterator is the trading-calendar state machine. Each Next call advances
// the clock past weekends and holidays (when the calendar is closeable) and
// emits the next tradeable day together with the drained skip records.
type Iterator struct {
	start      time.Time
	end        time.Time
	closeable  bool
	orderDates map[time.Time]bool

	holidays      HolidayProvider
	allowWeekends bool
	allowHolidays bool

	current time.Time
	done    bool
}

type Config struct {
	Start time.Time
	End   time.Time
	// Closeable is false for calendars that trade every day (e.g. crypto);
	// such calendars never skip weekends or holidays.
	Closeable     bool
	OrderDates    []time.Time
	Holidays      HolidayProvider
	AllowWeekends bool
	AllowHolidays bool
}

func NewIterator(config Config) (*Iterator, error) {
	start := types.Day(config.Start)
	end := types.Day(config.End)

	if end.Before(start) {
		return nil, errors.Newf(errors.ErrCodeInvalidDateRange,
			"end %s is before start %s",
			end.Format(types.DateLayout),
			start.Format(types.DateLayout),
		)
	}

	holidays := config.Holidays
	if holidays == nil {
		holidays = NewUSHolidayProvider()
	}

	orderDates := make(map[time.Time]bool, len(config.OrderDates))
	for _, date := range config.OrderDates {
		orderDates[types.Day(date)] = true
	}

	return &Iterator{
		start:         start,
		end:           end,
		closeable:     config.Closeable,
		orderDates:    orderDates,
		holidays:      holidays,
		allowWeekends: config.AllowWeekends,
		allowHolidays: config.AllowHolidays,
		current:       start,
		done:          false,
	}, nil
}

func (it *Iterator) Start() time.Time {
	return it.start
}

func (it *Iterator) End() time.Time {
	return it.end
}

// Next advances to the next tradeable day. The second return value is false
// once the range is exhausted; the final TradingDay carries any trailing
// skips (a weekend or holiday at the end of the range) with a zero Date, so
// the caller can still report them.
func (it *Iterator) Next() (TradingDay, bool) {
	var skips []types.Skip

	for !it.done {
		date := it.current

		if date.After(it.end) {
			it.done = true

			break
		}

		it.current = types.NextDay(it.current)

		ordered := it.orderDates[date]

		if skip, skipped := it.classify(date, ordered); skipped {
			skips = append(skips, skip)

			continue
		}

		return TradingDay{
			Date:    date,
			Ordered: ordered,
			Skips:   skips,
		}, true
	}

	return TradingDay{Skips: skips}, false
}

func (it *Iterator) classify(date time.Time, ordered bool) (types.Skip, bool) {
	if !it.closeable {
		return types.Skip{}, false
	}

	if !it.allowWeekends && types.IsWeekend(date) {
		return types.Skip{Date: date, Reason: types.SkipReasonWeekend, Ordered: ordered}, true
	}

	if !it.allowHolidays && it.holidays.IsHoliday(date) {
		return types.Skip{Date: date, Reason: types.SkipReasonHoliday, Ordered: ordered}, true
	}

	return types.Skip{}, false
}
