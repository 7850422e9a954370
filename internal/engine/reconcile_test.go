package engine

import (
	"errors"
	"testing"

	"cashflow/internal/core"
)

func projectedOccurrence(sourceID string, d core.Date, cents int64) core.Occurrence {
	return core.Occurrence{
		SourceEntryID: sourceID,
		ScheduledDate: d,
		Amount:        core.Money{Cents: cents},
		CategoryID:    "c1",
		Status:        core.StatusProjected,
	}
}

func linkedActual(id, linkID string, linkDate, txDate core.Date, cents int64) core.Entry {
	return core.Entry{
		ID: id, Type: core.EntryActualTransaction, CategoryID: "c1",
		TransactionDate: txDate, ActualAmount: core.Money{Cents: cents},
		LinkedProjectionID: linkID, LinkedProjectedDate: linkDate,
	}
}

func TestReconcileMatchesLinkedActual(t *testing.T) {
	occs := []core.Occurrence{
		projectedOccurrence("rent", core.NewDate(2024, 2, 1), -50000),
		projectedOccurrence("rent", core.NewDate(2024, 3, 1), -50000),
	}
	actuals := []core.Entry{
		linkedActual("paid-feb", "rent", core.NewDate(2024, 2, 1), core.NewDate(2024, 2, 3), -49500),
	}

	gotOccs, gotActuals, err := Reconcile(occs, actuals, core.NewDate(2024, 2, 15))
	if err != nil {
		t.Fatalf("Reconcile() error: %v", err)
	}
	if gotOccs[0].Status != core.StatusFulfilled {
		t.Errorf("feb occurrence status = %s, want fulfilled", gotOccs[0].Status)
	}
	if gotOccs[1].Status != core.StatusProjected {
		t.Errorf("mar occurrence status = %s, want projected", gotOccs[1].Status)
	}
	if len(gotActuals) != 1 || gotActuals[0].Status != core.StatusMatched {
		t.Fatalf("actuals = %+v, want one matched", gotActuals)
	}
	// Input slice must not be mutated.
	if occs[0].Status != core.StatusProjected {
		t.Error("input occurrence mutated")
	}
}

func TestReconcileUnplannedActuals(t *testing.T) {
	occs := []core.Occurrence{
		projectedOccurrence("rent", core.NewDate(2024, 2, 1), -50000),
	}
	tests := []struct {
		name   string
		actual core.Entry
	}{
		{
			name: "no link at all",
			actual: core.Entry{
				ID: "coffee", Type: core.EntryActualTransaction, CategoryID: "c1",
				TransactionDate: core.NewDate(2024, 2, 2), ActualAmount: core.Money{Cents: -450},
			},
		},
		{
			name:   "link to unknown source",
			actual: linkedActual("stray", "gone", core.NewDate(2024, 2, 1), core.NewDate(2024, 2, 2), -100),
		},
		{
			name:   "link date outside window",
			actual: linkedActual("late", "rent", core.NewDate(2024, 6, 1), core.NewDate(2024, 2, 2), -50000),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, gotActuals, err := Reconcile(occs, []core.Entry{tt.actual}, core.NewDate(2024, 1, 1))
			if err != nil {
				t.Fatalf("Reconcile() error: %v", err)
			}
			if gotActuals[0].Status != core.StatusUnplanned {
				t.Errorf("status = %s, want unplanned", gotActuals[0].Status)
			}
		})
	}
}

func TestReconcileFlagsMissedOccurrences(t *testing.T) {
	occs := []core.Occurrence{
		projectedOccurrence("rent", core.NewDate(2024, 1, 1), -50000),
		projectedOccurrence("rent", core.NewDate(2024, 2, 1), -50000),
		projectedOccurrence("rent", core.NewDate(2024, 3, 1), -50000),
	}
	actuals := []core.Entry{
		linkedActual("paid-jan", "rent", core.NewDate(2024, 1, 1), core.NewDate(2024, 1, 1), -50000),
	}

	gotOccs, _, err := Reconcile(occs, actuals, core.NewDate(2024, 2, 15))
	if err != nil {
		t.Fatalf("Reconcile() error: %v", err)
	}
	want := []core.OccurrenceStatus{core.StatusFulfilled, core.StatusMissed, core.StatusProjected}
	for i, w := range want {
		if gotOccs[i].Status != w {
			t.Errorf("occurrence %d status = %s, want %s", i, gotOccs[i].Status, w)
		}
	}
}

func TestReconcileRejectsSecondClaim(t *testing.T) {
	occs := []core.Occurrence{
		projectedOccurrence("rent", core.NewDate(2024, 2, 1), -50000),
	}
	actuals := []core.Entry{
		linkedActual("first", "rent", core.NewDate(2024, 2, 1), core.NewDate(2024, 2, 1), -50000),
		linkedActual("second", "rent", core.NewDate(2024, 2, 1), core.NewDate(2024, 2, 2), -50000),
	}

	_, _, err := Reconcile(occs, actuals, core.NewDate(2024, 2, 15))
	if !errors.Is(err, core.ErrDuplicateReconciliation) {
		t.Fatalf("expected ErrDuplicateReconciliation, got %v", err)
	}
}

func TestReconcileRejectsNonActualEntry(t *testing.T) {
	entry := core.Entry{
		ID: "tpl", Type: core.EntryRecurringTemplate, CategoryID: "c1",
		Rule:            core.RecurrenceRule{Frequency: core.FreqMonthly, Interval: 1, SeriesStart: core.NewDate(2024, 1, 1)},
		ProjectedAmount: core.Money{Cents: -100},
	}
	if _, _, err := Reconcile(nil, []core.Entry{entry}, core.NewDate(2024, 1, 1)); err == nil {
		t.Fatal("expected error for non-actual entry")
	}
}
