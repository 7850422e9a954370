// Package worker keeps projections warm: it reacts to entry change
// messages from AMQP and periodically re-runs the full pipeline so broken
// data (unknown categories, duplicate reconciliations) surfaces in logs
// instead of waiting for the next API call.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cashflow/internal/amqp"
	"cashflow/internal/core"
	"cashflow/internal/engine"
	"cashflow/internal/services"
)

// RefreshWorker recomputes projections when entries change.
type RefreshWorker struct {
	service     *services.ProjectionService
	horizonDays int
}

func NewRefreshWorker(service *services.ProjectionService, horizonDays int) *RefreshWorker {
	if horizonDays <= 0 {
		horizonDays = 90
	}
	return &RefreshWorker{
		service:     service,
		horizonDays: horizonDays,
	}
}

// HandleChangeMessage processes a single entry change message from AMQP.
// A base timeline change invalidates every scenario, so it triggers a full
// refresh; a scenario change refreshes just that scenario.
func (w *RefreshWorker) HandleChangeMessage(ctx context.Context, msg *amqp.EntryChangedMessage) error {
	slog.InfoContext(ctx, "Processing entry change",
		"entry_id", msg.EntryID,
		"op", msg.Op,
		"scenario_id", msg.ScenarioID)

	if msg.ScenarioID == "" {
		return w.RefreshAll(ctx)
	}
	return w.refreshScenario(ctx, msg.ScenarioID)
}

// RefreshAll re-projects the base timeline and every registered scenario
// over the configured horizon. Individual scenario failures are logged and
// counted but do not stop the sweep.
func (w *RefreshWorker) RefreshAll(ctx context.Context) error {
	scenarios, err := w.service.ListScenarios(ctx)
	if err != nil {
		return fmt.Errorf("list scenarios: %w", err)
	}

	ids := make([]string, 0, len(scenarios)+1)
	ids = append(ids, "") // base timeline first
	for _, sc := range scenarios {
		ids = append(ids, sc.ID)
	}

	errorCount := 0
	for _, id := range ids {
		if err := w.refreshScenario(ctx, id); err != nil {
			slog.ErrorContext(ctx, "Failed to refresh scenario",
				"scenario_id", id, "error", err)
			errorCount++
		}
	}

	slog.InfoContext(ctx, "Refresh sweep completed",
		"scenarios", len(ids),
		"errors", errorCount)

	if errorCount > 0 {
		return fmt.Errorf("refresh sweep: %d of %d scenarios failed", errorCount, len(ids))
	}
	return nil
}

func (w *RefreshWorker) refreshScenario(ctx context.Context, scenarioID string) error {
	today := core.DateOf(time.Now())

	projection, err := w.service.Project(ctx, services.ProjectionRequest{
		ScenarioID:  scenarioID,
		WindowStart: today,
		WindowEnd:   today.AddDays(w.horizonDays),
		AsOf:        today,
		Policy:      engine.LabelUnknownCategory,
	})
	if err != nil {
		return fmt.Errorf("project scenario %q: %w", scenarioID, err)
	}

	missed := 0
	for _, o := range projection.Occurrences {
		if o.Status == core.StatusMissed {
			missed++
		}
	}

	slog.InfoContext(ctx, "Projection refreshed",
		"scenario_id", scenarioID,
		"occurrence_count", len(projection.Occurrences),
		"actual_count", len(projection.Actuals),
		"missed_count", missed)

	return nil
}
