package engine

import (
	"fmt"
	"sort"

	"cashflow/internal/core"
)

// CategoryPolicy selects how aggregation treats an entry whose category id
// is missing from the snapshot. Silently mislabeling financial data is a
// correctness defect, so the caller must pick one explicitly.
type CategoryPolicy int

const (
	// FailOnUnknownCategory aborts aggregation with ErrUnknownCategory.
	FailOnUnknownCategory CategoryPolicy = iota
	// LabelUnknownCategory buckets the amount under UncategorizedLabel.
	LabelUnknownCategory
)

const (
	UncategorizedLabel = "Uncategorized"
	NetTotalLabel      = "Net Total"
)

// CategoryTotal is one slice of the donut summary.
type CategoryTotal struct {
	Group string `json:"group"`
	Value int64  `json:"value"`
	IsPos bool   `json:"isPos"`
}

// SeriesPoint is one bar of the daily timeline.
type SeriesPoint struct {
	Date  core.Date `json:"date"`
	Group string    `json:"group"`
	Value float64   `json:"value"`
}

// monthlyTwelfths converts a per-occurrence amount to twelve times its
// monthly-equivalent magnitude, which keeps the arithmetic in integers:
// daily amounts recur 365 times a year, weekly 52, monthly 12, yearly once.
func monthlyTwelfths(cents int64, freq core.Frequency) (int64, error) {
	switch freq {
	case core.FreqDaily:
		return cents * 365, nil
	case core.FreqWeekly:
		return cents * 52, nil
	case core.FreqMonthly:
		return cents * 12, nil
	case core.FreqYearly:
		return cents, nil
	default:
		return 0, fmt.Errorf("%w: frequency %q has no monthly equivalent", core.ErrInvalidRule, freq)
	}
}

// roundDiv divides with half-away-from-zero rounding.
func roundDiv(n, d int64) int64 {
	if n >= 0 {
		return (n + d/2) / d
	}
	return (n - d/2) / d
}

// CategoryTotals produces the donut-style summary from an effective entry
// set: each recurring template contributes its monthly-equivalent magnitude
// once, in whole currency units, rounded once after summation. Income
// categories are netted against the total expense sum into a single
// NetTotalLabel row; expense categories are emitted individually, sorted by
// name. One-time projections and actuals do not participate.
func CategoryTotals(entries []core.Entry, snap core.Snapshot, policy CategoryPolicy) ([]CategoryTotal, error) {
	expenseTwelfths := make(map[string]int64)
	var incomeTwelfths, totalExpenseTwelfths int64

	for _, e := range entries {
		if e.Type != core.EntryRecurringTemplate {
			continue
		}
		if e.Rule.Frequency == core.FreqNone {
			continue
		}
		tw, err := monthlyTwelfths(e.ProjectedAmount.Abs().Cents, e.Rule.Frequency)
		if err != nil {
			return nil, err
		}

		cat, ok := snap.Category(e.CategoryID)
		if !ok {
			if policy == FailOnUnknownCategory {
				return nil, fmt.Errorf("%w: %s (entry %s)", core.ErrUnknownCategory, e.CategoryID, e.ID)
			}
			expenseTwelfths[UncategorizedLabel] += tw
			totalExpenseTwelfths += tw
			continue
		}
		if cat.IsPos {
			incomeTwelfths += tw
		} else {
			expenseTwelfths[cat.Name] += tw
			totalExpenseTwelfths += tw
		}
	}

	if incomeTwelfths == 0 && len(expenseTwelfths) == 0 {
		return nil, nil
	}

	totals := make([]CategoryTotal, 0, len(expenseTwelfths)+1)
	if incomeTwelfths > 0 {
		totals = append(totals, CategoryTotal{
			Group: NetTotalLabel,
			Value: roundDiv(incomeTwelfths-totalExpenseTwelfths, 1200),
			IsPos: true,
		})
	}
	names := make([]string, 0, len(expenseTwelfths))
	for name := range expenseTwelfths {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		totals = append(totals, CategoryTotal{
			Group: name,
			Value: roundDiv(expenseTwelfths[name], 1200),
			IsPos: false,
		})
	}
	return totals, nil
}

// DailySeries produces the daily timeline from reconciled actuals: for every
// day in [rangeStart, rangeEnd] with activity, one point per active
// category, signed by category polarity (incomes positive, expenses
// negative) regardless of how the amount was stored. Days without activity
// contribute no points.
func DailySeries(actuals []core.Actual, snap core.Snapshot, rangeStart, rangeEnd core.Date, policy CategoryPolicy) ([]SeriesPoint, error) {
	type bucket map[string]int64 // category label -> signed cents
	days := make(map[string]bucket)

	for _, a := range actuals {
		if a.Date.Before(rangeStart.Time) || a.Date.After(rangeEnd.Time) {
			continue
		}
		label := UncategorizedLabel
		sign := int64(-1)
		if cat, ok := snap.Category(a.CategoryID); ok {
			label = cat.Name
			if cat.IsPos {
				sign = 1
			}
		} else if policy == FailOnUnknownCategory {
			return nil, fmt.Errorf("%w: %s (entry %s)", core.ErrUnknownCategory, a.CategoryID, a.EntryID)
		}

		key := a.Date.String()
		if days[key] == nil {
			days[key] = make(bucket)
		}
		days[key][label] += sign * a.Amount.Abs().Cents
	}

	var points []SeriesPoint
	for d := rangeStart; !d.After(rangeEnd.Time); d = d.AddDays(1) {
		day, ok := days[d.String()]
		if !ok {
			continue
		}
		labels := make([]string, 0, len(day))
		for label := range day {
			labels = append(labels, label)
		}
		sort.Strings(labels)
		for _, label := range labels {
			if day[label] == 0 {
				continue
			}
			points = append(points, SeriesPoint{
				Date:  d,
				Group: label,
				Value: core.Money{Cents: day[label]}.Units(),
			})
		}
	}
	return points, nil
}
