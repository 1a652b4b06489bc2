package calendar

import (
	"time"

	"github.com/rxtech-lab/backsim/internal/types"
)

// HolidayProvider reports whether a date is a market holiday.
type HolidayProvider interface {
	IsHoliday(date time.Time) bool
}

// USHolidayProvider implements the fixed and floating NYSE full-day closures.
// Early closes are not modeled; the simulation operates at day granularity.
type USHolidayProvider struct{}

func NewUSHolidayProvider() HolidayProvider {
	return &USHolidayProvider{}
}

// IsHoliday implements HolidayProvider.
func (p *USHolidayProvider) IsHoliday(date time.Time) bool {
	day := types.Day(date)
	month, dayOfMonth := day.Month(), day.Day()

	switch {
	case month == time.January && dayOfMonth == 1: // New Year's Day
		return true
	case month == time.July && dayOfMonth == 4: // Independence Day
		return true
	case month == time.December && dayOfMonth == 25: // Christmas Day
		return true
	case month == time.June && dayOfMonth == 19 && day.Year() >= 2022: // Juneteenth
		return true
	case month == time.January && isNthWeekday(day, time.Monday, 3): // MLK Day
		return true
	case month == time.February && isNthWeekday(day, time.Monday, 3): // Presidents' Day
		return true
	case month == time.May && isLastWeekday(day, time.Monday): // Memorial Day
		return true
	case month == time.September && isNthWeekday(day, time.Monday, 1): // Labor Day
		return true
	case month == time.November && isNthWeekday(day, time.Thursday, 4): // Thanksgiving
		return true
	}

	return false
}

// NoHolidayProvider treats every day as a regular day. Used for calendars
// that never close for holidays.
type NoHolidayProvider struct{}

func NewNoHolidayProvider() HolidayProvider {
	return &NoHolidayProvider{}
}

// IsHoliday implements HolidayProvider.
func (p *NoHolidayProvider) IsHoliday(time.Time) bool {
	return false
}

func isNthWeekday(day time.Time, weekday time.Weekday, n int) bool {
	if day.Weekday() != weekday {
		return false
	}

	return (day.Day()-1)/7 == n-1
}

func isLastWeekday(day time.Time, weekday time.Weekday) bool {
	if day.Weekday() != weekday {
		return false
	}

	return day.AddDate(0, 0, 7).Month() != day.Month()
}
