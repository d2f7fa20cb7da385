package filters

import (
	"errors"
	"math"
	"time"
)

// MaxCustomRangeDays bounds custom date ranges on the charts page.
const MaxCustomRangeDays = 60

var (
	ErrRangeInverted = errors.New("filters: start date cannot be after end date")
	ErrRangeTooLong  = errors.New("filters: date range cannot exceed the allowed number of days")
)

// Range is a closed date interval.
type Range struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// RangeForPeriod derives the window ending at now for a preset period.
// Custom has no preset window and reports false.
func RangeForPeriod(period TimePeriod, now time.Time) (Range, bool) {
	switch period {
	case Daily:
		return Range{Start: now.AddDate(0, 0, -1), End: now}, true
	case Weekly:
		return Range{Start: now.AddDate(0, 0, -7), End: now}, true
	case Monthly:
		return Range{Start: now.AddDate(0, -1, 0), End: now}, true
	default:
		return Range{}, false
	}
}

// Days returns the span in whole days, rounded up.
func Days(from, to time.Time) int {
	return int(math.Ceil(to.Sub(from).Hours() / 24))
}

// ValidateCustomRange checks ordering and the maximum span. maxDays <= 0
// disables the span check.
func ValidateCustomRange(from, to time.Time, maxDays int) error {
	if from.After(to) {
		return ErrRangeInverted
	}
	if maxDays > 0 && Days(from, to) > maxDays {
		return ErrRangeTooLong
	}
	return nil
}

// Granularity picks the chart bucket size for a custom range.
func Granularity(from, to time.Time) string {
	if Days(from, to) <= 14 {
		return "daily"
	}
	return "weekly"
}
