package engine

import (
	"fmt"
	"sort"

	"cashflow/internal/core"
)

// Materialize expands an effective entry set into the concrete occurrences
// scheduled inside [windowStart, windowEnd], ordered by scheduled date and
// then source entry id. Recurring templates are expanded through Expand,
// one-time projections are emitted as-is when they fall inside the window,
// and cancellations suppress template occurrences on or after their date.
// Actual transactions are not materialized here; Reconcile consumes them
// keyed by their own transaction date.
func Materialize(entries []core.Entry, windowStart, windowEnd core.Date) ([]core.Occurrence, error) {
	var templates, oneOffs, cancellations []core.Entry
	for _, e := range entries {
		switch e.Type {
		case core.EntryRecurringTemplate:
			templates = append(templates, e)
		case core.EntryOneTimeProjection:
			oneOffs = append(oneOffs, e)
		case core.EntryCancellation:
			cancellations = append(cancellations, e)
		case core.EntryActualTransaction:
			// handed to Reconcile, never materialized
		default:
			return nil, fmt.Errorf("%w: %q (entry %s)", core.ErrUnknownEntryType, e.Type, e.ID)
		}
	}

	var occurrences []core.Occurrence
	for _, tpl := range templates {
		dates, err := Expand(tpl.Rule, windowStart, windowEnd)
		if err != nil {
			return nil, fmt.Errorf("expand entry %s: %w", tpl.ID, err)
		}
		for _, d := range dates {
			occurrences = append(occurrences, core.Occurrence{
				SourceEntryID: tpl.ID,
				ScheduledDate: d,
				Amount:        tpl.ProjectedAmount,
				CategoryID:    tpl.CategoryID,
				AccountID:     tpl.AccountID,
				ScenarioID:    tpl.ScenarioID,
				Status:        core.StatusProjected,
			})
		}
	}

	occurrences = applyCancellations(occurrences, cancellations)

	for _, e := range oneOffs {
		if e.ProjectedDate.Before(windowStart.Time) || e.ProjectedDate.After(windowEnd.Time) {
			continue
		}
		occurrences = append(occurrences, core.Occurrence{
			SourceEntryID: e.ID,
			ScheduledDate: e.ProjectedDate,
			Amount:        e.ProjectedAmount,
			CategoryID:    e.CategoryID,
			AccountID:     e.AccountID,
			ScenarioID:    e.ScenarioID,
			Status:        core.StatusProjected,
		})
	}

	sort.SliceStable(occurrences, func(i, j int) bool {
		a, b := occurrences[i], occurrences[j]
		if !a.ScheduledDate.Equal(b.ScheduledDate.Time) {
			return a.ScheduledDate.Before(b.ScheduledDate.Time)
		}
		return a.SourceEntryID < b.SourceEntryID
	})
	return occurrences, nil
}

func applyCancellations(occurrences []core.Occurrence, cancellations []core.Entry) []core.Occurrence {
	if len(cancellations) == 0 {
		return occurrences
	}
	kept := occurrences[:0]
	for _, o := range occurrences {
		if !cancelled(o, cancellations) {
			kept = append(kept, o)
		}
	}
	return kept
}

// cancelled reports whether any cancellation suppresses the occurrence: same
// source entry, scheduled on or after the cancellation date, and in scope. A
// scenario cancellation overlays the base timeline as well as its own
// scenario; a base cancellation only reaches base occurrences.
func cancelled(o core.Occurrence, cancellations []core.Entry) bool {
	for _, c := range cancellations {
		if c.LinkedProjectionID != o.SourceEntryID {
			continue
		}
		if o.ScheduledDate.Before(c.CancellationDate.Time) {
			continue
		}
		if o.ScenarioID == "" || o.ScenarioID == c.ScenarioID {
			return true
		}
	}
	return false
}
