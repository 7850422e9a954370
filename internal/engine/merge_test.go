package engine

import (
	"errors"
	"testing"

	"cashflow/internal/core"
)

func templateEntry(id, scenarioID string) core.Entry {
	return core.Entry{
		ID:         id,
		Type:       core.EntryRecurringTemplate,
		ScenarioID: scenarioID,
		CategoryID: "c1",
		Rule: core.RecurrenceRule{
			Frequency: core.FreqMonthly, Interval: 1, SeriesStart: core.NewDate(2024, 1, 1),
		},
		ProjectedAmount: core.Money{Cents: -50000},
	}
}

func TestMergeUnion(t *testing.T) {
	base := []core.Entry{templateEntry("b1", ""), templateEntry("b2", "")}
	overlay := []core.Entry{templateEntry("s1", "sc")}

	got, err := Merge(base, overlay)
	if err != nil {
		t.Fatalf("Merge() error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Merge() returned %d entries, want 3", len(got))
	}
	wantOrder := []string{"b1", "b2", "s1"}
	for i, id := range wantOrder {
		if got[i].ID != id {
			t.Errorf("entry %d = %s, want %s", i, got[i].ID, id)
		}
	}
}

func TestMergeIdempotent(t *testing.T) {
	base := []core.Entry{templateEntry("b1", ""), templateEntry("b2", "")}
	overlay := []core.Entry{templateEntry("s1", "sc")}

	once, err := Merge(base, overlay)
	if err != nil {
		t.Fatalf("Merge() error: %v", err)
	}
	twice, err := Merge(once, nil)
	if err != nil {
		t.Fatalf("Merge(merged, nil) error: %v", err)
	}
	if len(once) != len(twice) {
		t.Fatalf("idempotency broken: %d vs %d entries", len(once), len(twice))
	}
	for i := range once {
		if once[i].ID != twice[i].ID {
			t.Errorf("entry %d differs: %s vs %s", i, once[i].ID, twice[i].ID)
		}
	}
}

func TestMergeRejectsDuplicateID(t *testing.T) {
	base := []core.Entry{templateEntry("e1", "")}
	overlay := []core.Entry{templateEntry("e1", "sc")}

	_, err := Merge(base, overlay)
	if !errors.Is(err, core.ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	base := []core.Entry{templateEntry("b1", "")}
	overlay := []core.Entry{templateEntry("s1", "sc")}

	if _, err := Merge(base, overlay); err != nil {
		t.Fatalf("Merge() error: %v", err)
	}
	if base[0].ID != "b1" || overlay[0].ID != "s1" {
		t.Fatal("inputs mutated")
	}
}
