// Package engine implements the projection and aggregation pipeline: raw
// entries are merged into an effective set, expanded into dated occurrences,
// reconciled against actual transactions and bucketed into chart-ready
// summaries. Every function is a pure transformation over its inputs; the
// engine keeps no state between calls.
package engine

import (
	"fmt"

	"cashflow/internal/core"
)

// DateStepper is the strategy interface for advancing a recurrence series.
// Each implementation encapsulates the stepping algorithm for one frequency.
type DateStepper interface {
	// Step returns the next date in the series, interval units ahead.
	Step(d core.Date, interval int) core.Date
}

// DailyStepper advances by whole days.
type DailyStepper struct{}

func (DailyStepper) Step(d core.Date, interval int) core.Date {
	return d.AddDays(interval)
}

// WeeklyStepper advances by seven-day blocks.
type WeeklyStepper struct{}

func (WeeklyStepper) Step(d core.Date, interval int) core.Date {
	return d.AddDays(7 * interval)
}

// MonthlyStepper advances by calendar months, clamping the day of month to
// the last valid day of the target month.
type MonthlyStepper struct{}

func (MonthlyStepper) Step(d core.Date, interval int) core.Date {
	return d.AddMonths(interval)
}

// YearlyStepper advances by calendar years, clamping Feb 29 on non-leap years.
type YearlyStepper struct{}

func (YearlyStepper) Step(d core.Date, interval int) core.Date {
	return d.AddYears(interval)
}

// steppers maps frequencies to their stepping strategies.
var steppers = map[core.Frequency]DateStepper{
	core.FreqDaily:   DailyStepper{},
	core.FreqWeekly:  WeeklyStepper{},
	core.FreqMonthly: MonthlyStepper{},
	core.FreqYearly:  YearlyStepper{},
}

// Expand turns a recurrence rule into the ordered, finite sequence of
// occurrence dates falling inside [windowStart, windowEnd]. The series walks
// forward from SeriesStart one interval at a time; dates before windowStart
// are skipped but still count against the rule's Count bound. A frequency of
// none yields at most the series start itself.
func Expand(rule core.RecurrenceRule, windowStart, windowEnd core.Date) ([]core.Date, error) {
	if err := rule.Validate(); err != nil {
		return nil, err
	}

	if rule.Frequency == core.FreqNone {
		d := rule.SeriesStart
		if !d.Before(windowStart.Time) && !d.After(windowEnd.Time) {
			return []core.Date{d}, nil
		}
		return nil, nil
	}

	stepper, ok := steppers[rule.Frequency]
	if !ok {
		return nil, fmt.Errorf("%w: frequency %q", core.ErrInvalidRule, rule.Frequency)
	}

	var dates []core.Date
	emitted := 0
	for d := rule.SeriesStart; ; d = stepper.Step(d, rule.Interval) {
		if rule.Count > 0 && emitted >= rule.Count {
			break
		}
		if !rule.Until.IsZero() && d.After(rule.Until.Time) {
			break
		}
		if d.After(windowEnd.Time) {
			break
		}
		emitted++
		if d.Before(windowStart.Time) {
			continue
		}
		dates = append(dates, d)
	}
	return dates, nil
}
