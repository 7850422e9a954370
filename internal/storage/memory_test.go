package storage

import (
	"context"
	"errors"
	"testing"

	"cashflow/internal/core"
)

func testTemplate(id, scenarioID string) core.Entry {
	return core.Entry{
		ID: id, Type: core.EntryRecurringTemplate, ScenarioID: scenarioID,
		CategoryID: "5c2e49a1-7f30-4f0a-9a6f-0f6f2a1d8b03",
		Rule: core.RecurrenceRule{
			Frequency: core.FreqMonthly, Interval: 1, SeriesStart: core.NewDate(2024, 1, 1),
		},
		ProjectedAmount: core.Money{Cents: -50000},
	}
}

func TestMemoryRepositoryEntryCRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository(nil, nil, nil, nil)

	e := testTemplate("e1", "")
	if err := repo.AddEntry(ctx, e); err != nil {
		t.Fatalf("AddEntry() error: %v", err)
	}
	if err := repo.AddEntry(ctx, e); !errors.Is(err, core.ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID on re-add, got %v", err)
	}

	got, err := repo.GetEntry(ctx, "e1")
	if err != nil {
		t.Fatalf("GetEntry() error: %v", err)
	}
	if got.ProjectedAmount.Cents != -50000 {
		t.Errorf("amount = %d, want -50000", got.ProjectedAmount.Cents)
	}

	got.Description = "updated"
	if err := repo.UpdateEntry(ctx, got); err != nil {
		t.Fatalf("UpdateEntry() error: %v", err)
	}
	got, _ = repo.GetEntry(ctx, "e1")
	if got.Description != "updated" {
		t.Errorf("description = %q, want updated", got.Description)
	}

	if err := repo.DeleteEntry(ctx, "e1"); err != nil {
		t.Fatalf("DeleteEntry() error: %v", err)
	}
	if _, err := repo.GetEntry(ctx, "e1"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := repo.DeleteEntry(ctx, "e1"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on double delete, got %v", err)
	}
}

func TestMemoryRepositoryProjectionSplit(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository(nil, nil, nil, nil)

	for _, e := range []core.Entry{
		testTemplate("b1", ""),
		testTemplate("b2", ""),
		testTemplate("s1", "what-if"),
		testTemplate("x1", "other"),
	} {
		if err := repo.AddEntry(ctx, e); err != nil {
			t.Fatalf("AddEntry(%s) error: %v", e.ID, err)
		}
	}

	base, overlay, err := repo.GetEntriesForProjection(ctx, "what-if")
	if err != nil {
		t.Fatalf("GetEntriesForProjection() error: %v", err)
	}
	if len(base) != 2 {
		t.Errorf("base = %d entries, want 2", len(base))
	}
	if len(overlay) != 1 || overlay[0].ID != "s1" {
		t.Errorf("overlay = %+v, want only s1", overlay)
	}

	base, overlay, err = repo.GetEntriesForProjection(ctx, "")
	if err != nil {
		t.Fatalf("GetEntriesForProjection() error: %v", err)
	}
	if len(base) != 2 || overlay != nil {
		t.Errorf("base timeline query: base=%d overlay=%v", len(base), overlay)
	}
}

func TestMemoryRepositoryDefaultCategories(t *testing.T) {
	repo := NewMemoryRepository(nil, nil, nil, nil)
	cats, err := repo.GetAllCategories(context.Background())
	if err != nil {
		t.Fatalf("GetAllCategories() error: %v", err)
	}
	if len(cats) == 0 {
		t.Fatal("expected seeded categories")
	}
	var incomes int
	for _, c := range cats {
		if c.IsPos {
			incomes++
		}
	}
	if incomes == 0 {
		t.Error("expected at least one income category")
	}
}

func TestMemoryRepositoryRejectsInvalidEntry(t *testing.T) {
	repo := NewMemoryRepository(nil, nil, nil, nil)
	bad := core.Entry{ID: "bad", Type: "transfer"}
	if err := repo.AddEntry(context.Background(), bad); err == nil {
		t.Fatal("expected validation error")
	}
}
