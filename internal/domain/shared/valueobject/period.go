package valueobject

import (
	"fmt"
	"time"
)

// PerformancePeriod is the calendar span during which an order or order
// position is performed. Both bounds are inclusive and carry day resolution.
type PerformancePeriod struct {
	From  time.Time `json:"from"`
	Until time.Time `json:"until"`
}

// NewPerformancePeriod creates a performance period, normalizing both bounds
// to midnight UTC
func NewPerformancePeriod(from, until time.Time) (PerformancePeriod, error) {
	from = TruncateToDay(from)
	until = TruncateToDay(until)
	if until.Before(from) {
		return PerformancePeriod{}, fmt.Errorf("period end %s precedes start %s", until.Format("2006-01-02"), from.Format("2006-01-02"))
	}
	return PerformancePeriod{From: from, Until: until}, nil
}

// IsZero returns true if neither bound is set
func (p PerformancePeriod) IsZero() bool {
	return p.From.IsZero() && p.Until.IsZero()
}

// Contains returns true if the date falls inside the period (inclusive)
func (p PerformancePeriod) Contains(date time.Time) bool {
	d := TruncateToDay(date)
	return !d.Before(p.From) && !d.After(p.Until)
}

// Months returns the number of calendar months touched by the period.
// A period within a single month counts as one.
func (p PerformancePeriod) Months() int {
	if p.IsZero() {
		return 0
	}
	return (p.Until.Year()-p.From.Year())*12 + int(p.Until.Month()) - int(p.From.Month()) + 1
}

// MonthStart returns the first day of the i-th calendar month of the period
// (0-based)
func (p PerformancePeriod) MonthStart(i int) time.Time {
	first := time.Date(p.From.Year(), p.From.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(0, i, 0)
}

// MonthIndex returns the 0-based calendar month offset of the date relative
// to the period start. Dates before the period yield negative values.
func (p PerformancePeriod) MonthIndex(date time.Time) int {
	return (date.Year()-p.From.Year())*12 + int(date.Month()) - int(p.From.Month())
}

// TruncateToDay normalizes a timestamp to midnight UTC
func TruncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
