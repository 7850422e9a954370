package engine

import (
	"fmt"

	"cashflow/internal/core"
)

type occurrenceKey struct {
	sourceID string
	date     string
}

// Reconcile pairs actual transactions with the projected occurrences they
// fulfil. An actual carrying a link (source entry id + original projected
// date) that resolves to an occurrence marks that occurrence fulfilled and
// itself matched; at most one actual may claim an occurrence, a second claim
// is rejected with ErrDuplicateReconciliation. Actuals without a resolvable
// link are unplanned. Projected occurrences scheduled before asOf with no
// matching actual are flagged missed. The input occurrence slice is not
// mutated.
func Reconcile(occurrences []core.Occurrence, actualEntries []core.Entry, asOf core.Date) ([]core.Occurrence, []core.Actual, error) {
	reconciled := make([]core.Occurrence, len(occurrences))
	copy(reconciled, occurrences)

	index := make(map[occurrenceKey]int, len(reconciled))
	for i, o := range reconciled {
		index[occurrenceKey{o.SourceEntryID, o.ScheduledDate.String()}] = i
	}

	claimed := make(map[occurrenceKey]string)
	actuals := make([]core.Actual, 0, len(actualEntries))
	for _, e := range actualEntries {
		if e.Type != core.EntryActualTransaction {
			return nil, nil, fmt.Errorf("reconcile: entry %s is %q, not an actual transaction", e.ID, e.Type)
		}
		a := core.Actual{
			EntryID:    e.ID,
			Date:       e.TransactionDate,
			Amount:     e.ActualAmount,
			CategoryID: e.CategoryID,
			AccountID:  e.AccountID,
			ScenarioID: e.ScenarioID,
			Status:     core.StatusUnplanned,
		}
		if e.LinkedProjectionID != "" && !e.LinkedProjectedDate.IsZero() {
			key := occurrenceKey{e.LinkedProjectionID, e.LinkedProjectedDate.String()}
			if i, ok := index[key]; ok {
				if first, dup := claimed[key]; dup {
					return nil, nil, fmt.Errorf("%w: actuals %s and %s both claim occurrence %s on %s",
						core.ErrDuplicateReconciliation, first, e.ID, key.sourceID, key.date)
				}
				claimed[key] = e.ID
				reconciled[i].Status = core.StatusFulfilled
				a.Status = core.StatusMatched
			}
		}
		actuals = append(actuals, a)
	}

	for i := range reconciled {
		if reconciled[i].Status == core.StatusProjected && reconciled[i].ScheduledDate.Before(asOf.Time) {
			reconciled[i].Status = core.StatusMissed
		}
	}
	return reconciled, actuals, nil
}
