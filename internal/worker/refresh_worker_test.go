package worker

import (
	"context"
	"testing"
	"time"

	"cashflow/internal/amqp"
	"cashflow/internal/core"
	"cashflow/internal/services"
	"cashflow/internal/storage"
)

func testWorker(t *testing.T) *RefreshWorker {
	t.Helper()
	repo := storage.NewMemoryRepository(nil, nil, nil, []core.Scenario{
		{ID: "what-if", Name: "What if"},
	})
	svc := services.NewProjectionService(repo, nil)

	_, err := svc.CreateEntry(context.Background(), core.Entry{
		ID: "rent", Type: core.EntryRecurringTemplate,
		CategoryID: "5c2e49a1-7f30-4f0a-9a6f-0f6f2a1d8b03",
		Rule: core.RecurrenceRule{
			Frequency: core.FreqMonthly, Interval: 1,
			SeriesStart: core.NewDate(2024, 1, 1),
		},
		ProjectedAmount: core.Money{Cents: -50000},
	})
	if err != nil {
		t.Fatalf("seed entry: %v", err)
	}

	return NewRefreshWorker(svc, 30)
}

func TestRefreshAll(t *testing.T) {
	w := testWorker(t)
	if err := w.RefreshAll(context.Background()); err != nil {
		t.Fatalf("RefreshAll() error: %v", err)
	}
}

func TestHandleChangeMessage(t *testing.T) {
	w := testWorker(t)
	ctx := context.Background()

	msg := &amqp.EntryChangedMessage{
		EntryID: "rent", Op: amqp.OpUpdated, Timestamp: time.Now(),
	}
	if err := w.HandleChangeMessage(ctx, msg); err != nil {
		t.Fatalf("HandleChangeMessage(base) error: %v", err)
	}

	msg.ScenarioID = "what-if"
	if err := w.HandleChangeMessage(ctx, msg); err != nil {
		t.Fatalf("HandleChangeMessage(scenario) error: %v", err)
	}

	msg.ScenarioID = "ghost"
	if err := w.HandleChangeMessage(ctx, msg); err == nil {
		t.Fatal("expected error for unknown scenario")
	}
}

func TestNewRefreshWorkerDefaultsHorizon(t *testing.T) {
	w := NewRefreshWorker(nil, 0)
	if w.horizonDays != 90 {
		t.Errorf("horizonDays = %d, want 90", w.horizonDays)
	}
}
